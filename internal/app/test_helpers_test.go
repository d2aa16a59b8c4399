package app

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/example/maintd/internal/ports/secondary"
)

// t0 is the creation time used by most escalation tests.
var t0 = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

// Ensure mocks implement the interfaces
var (
	_ secondary.RequestRepository       = (*mockRequestRepository)(nil)
	_ secondary.EscalationLogRepository = (*mockEscalationLogRepository)(nil)
)

// mockRequestRepository implements secondary.RequestRepository in memory.
// ConditionalEscalate is atomic under the mutex, like the SQLite UPDATE.
type mockRequestRepository struct {
	mu       sync.Mutex
	requests map[string]*secondary.RequestRecord

	findErr   error
	getErr    error
	createErr error
	updateErr error
	countErr  error
	// escalateErr fails ConditionalEscalate for specific IDs.
	escalateErr map[string]error
	// beforeEscalate runs before each conditional write, outside the lock,
	// so tests can change a record between selection and write.
	beforeEscalate func(id string)

	escalateCalls int
}

func newMockRequestRepository() *mockRequestRepository {
	return &mockRequestRepository{
		requests:    make(map[string]*secondary.RequestRecord),
		escalateErr: make(map[string]error),
	}
}

// seed stores a copy of each record.
func (m *mockRequestRepository) seed(records ...*secondary.RequestRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range records {
		c := *r
		m.requests[r.ID] = &c
	}
}

// get returns a copy of the stored record, or nil.
func (m *mockRequestRepository) get(id string) *secondary.RequestRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.requests[id]
	if !ok {
		return nil
	}
	c := *r
	return &c
}

func (m *mockRequestRepository) resolve(id string, at time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r := m.requests[id]
	r.Status = "Resolved"
	r.ResolvedAt = &at
	r.UpdatedAt = at
}

func (m *mockRequestRepository) Create(ctx context.Context, request *secondary.RequestRecord) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.seed(request)
	return nil
}

func (m *mockRequestRepository) GetByID(ctx context.Context, id string) (*secondary.RequestRecord, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	if r := m.get(id); r != nil {
		return r, nil
	}
	return nil, fmt.Errorf("request %s: %w", id, secondary.ErrNotFound)
}

func (m *mockRequestRepository) List(ctx context.Context, filters secondary.RequestFilters) ([]*secondary.RequestRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var result []*secondary.RequestRecord
	for _, r := range m.requests {
		if filters.Status != "" && r.Status != filters.Status {
			continue
		}
		if filters.Category != "" && r.Category != filters.Category {
			continue
		}
		if filters.Priority != "" && r.Priority != filters.Priority {
			continue
		}
		if filters.CreatedBy != "" && r.CreatedBy != filters.CreatedBy {
			continue
		}
		c := *r
		result = append(result, &c)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID > result[j].ID })
	return result, nil
}

func (m *mockRequestRepository) UpdateStatus(ctx context.Context, id, status, assignedTo string, resolvedAt *time.Time, now time.Time) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.requests[id]
	if !ok {
		return fmt.Errorf("request %s: %w", id, secondary.ErrNotFound)
	}
	if status != "" {
		r.Status = status
	}
	if assignedTo != "" {
		r.AssignedTo = assignedTo
	}
	if resolvedAt != nil {
		t := *resolvedAt
		r.ResolvedAt = &t
	}
	r.UpdatedAt = now
	return nil
}

func (m *mockRequestRepository) GetNextID(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return fmt.Sprintf("REQ-%03d", len(m.requests)+1), nil
}

func (m *mockRequestRepository) CountByStatus(ctx context.Context) (map[string]int, error) {
	if m.countErr != nil {
		return nil, m.countErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := make(map[string]int)
	for _, r := range m.requests {
		counts[r.Status]++
	}
	return counts, nil
}

func (m *mockRequestRepository) FindEligibleForEscalation(ctx context.Context, statuses []string, createdBefore time.Time, maxLevel int) ([]*secondary.RequestRecord, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	var result []*secondary.RequestRecord
	for _, r := range m.requests {
		if !slices.Contains(statuses, r.Status) || r.ResolvedAt != nil {
			continue
		}
		if !r.CreatedAt.Before(createdBefore) || r.EscalationLevel > maxLevel {
			continue
		}
		c := *r
		result = append(result, &c)
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.Before(result[j].CreatedAt)
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

func (m *mockRequestRepository) ConditionalEscalate(ctx context.Context, id, expectedStatus string, expectedLevel int, now time.Time) (bool, error) {
	if m.beforeEscalate != nil {
		m.beforeEscalate(id)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.escalateCalls++

	if err := m.escalateErr[id]; err != nil {
		return false, err
	}
	r, ok := m.requests[id]
	if !ok || r.Status != expectedStatus || r.EscalationLevel != expectedLevel || r.ResolvedAt != nil {
		return false, nil
	}
	r.Status = "Escalated"
	r.EscalationLevel++
	at := now
	r.EscalatedAt = &at
	r.UpdatedAt = now
	return true, nil
}

// mockEscalationLogRepository implements secondary.EscalationLogRepository in memory.
type mockEscalationLogRepository struct {
	mu        sync.Mutex
	entries   []*secondary.EscalationLogRecord
	appendErr error
	listErr   error
}

func newMockEscalationLogRepository() *mockEscalationLogRepository {
	return &mockEscalationLogRepository{}
}

func (m *mockEscalationLogRepository) Append(ctx context.Context, entry *secondary.EscalationLogRecord) error {
	if m.appendErr != nil {
		return m.appendErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	entry.ID = int64(len(m.entries) + 1)
	c := *entry
	m.entries = append(m.entries, &c)
	return nil
}

func (m *mockEscalationLogRepository) List(ctx context.Context, filters secondary.EscalationLogFilters) ([]*secondary.EscalationLogRecord, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	var result []*secondary.EscalationLogRecord
	for _, e := range m.entries {
		if filters.RequestID != "" && e.RequestID != filters.RequestID {
			continue
		}
		c := *e
		result = append(result, &c)
		if filters.Limit > 0 && len(result) == filters.Limit {
			break
		}
	}
	return result, nil
}

// forRequest returns the stored entries for one request, oldest first.
func (m *mockEscalationLogRepository) forRequest(id string) []*secondary.EscalationLogRecord {
	entries, _ := m.List(context.Background(), secondary.EscalationLogFilters{RequestID: id})
	return entries
}

// mockSweepRunRepository keeps saved runs in memory.
type mockSweepRunRepository struct {
	mu        sync.Mutex
	runs      []*secondary.SweepRunRecord
	saveErr   error
	latestErr error
	saveCtxOK []bool // whether ctx was still live at each Save
}

func (m *mockSweepRunRepository) Save(ctx context.Context, run *secondary.SweepRunRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saveCtxOK = append(m.saveCtxOK, ctx.Err() == nil)
	if m.saveErr != nil {
		return m.saveErr
	}
	c := *run
	m.runs = append(m.runs, &c)
	return nil
}

func (m *mockSweepRunRepository) Latest(ctx context.Context) (*secondary.SweepRunRecord, error) {
	if m.latestErr != nil {
		return nil, m.latestErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.runs) == 0 {
		return nil, secondary.ErrNotFound
	}
	c := *m.runs[len(m.runs)-1]
	return &c, nil
}

// recordingObserver counts observer callbacks.
type recordingObserver struct {
	mu          sync.Mutex
	escalations int
	conflicts   int
	logFailures int
	completed   []string
	dropped     int
}

func (o *recordingObserver) OnEscalate(string, int, int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.escalations++
}

func (o *recordingObserver) OnConflict(string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.conflicts++
}

func (o *recordingObserver) OnLogFailure(string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.logFailures++
}

func (o *recordingObserver) OnSweepComplete(trigger string, _ time.Duration, _ error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.completed = append(o.completed, trigger)
}

func (o *recordingObserver) OnTickDropped() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.dropped++
}

func pendingRequest(id string, createdAt time.Time) *secondary.RequestRecord {
	return &secondary.RequestRecord{
		ID:          id,
		Title:       "Broken projector",
		Description: "Projector in room 204 will not power on",
		Category:    "Equipment",
		Priority:    "Medium",
		Status:      "Pending",
		CreatedBy:   "student-1",
		CreatedAt:   createdAt,
		UpdatedAt:   createdAt,
	}
}

var errStoreDown = errors.New("store unavailable")
