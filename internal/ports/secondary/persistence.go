// Package secondary defines the secondary ports (driven adapters) for the application.
// These are the interfaces through which the application drives external systems.
package secondary

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by repositories when the requested row does not exist.
var ErrNotFound = errors.New("not found")

// RequestRepository defines the secondary port for maintenance request persistence.
type RequestRepository interface {
	// Create persists a new request.
	Create(ctx context.Context, request *RequestRecord) error

	// GetByID retrieves a request by its ID.
	GetByID(ctx context.Context, id string) (*RequestRecord, error)

	// List retrieves requests matching the given filters, newest first.
	List(ctx context.Context, filters RequestFilters) ([]*RequestRecord, error)

	// UpdateStatus applies an administrator change. Empty status or assignee
	// leaves that column untouched; a non-nil resolvedAt is written as well.
	UpdateStatus(ctx context.Context, id, status, assignedTo string, resolvedAt *time.Time, now time.Time) error

	// GetNextID returns the next available request ID.
	GetNextID(ctx context.Context) (string, error)

	// CountByStatus returns the number of requests per status.
	CountByStatus(ctx context.Context) (map[string]int, error)

	// FindEligibleForEscalation returns unresolved requests whose status is in
	// statuses, created strictly before createdBefore, with escalation level at
	// most maxLevel. Rows at maxLevel are included so a sweep can report them.
	FindEligibleForEscalation(ctx context.Context, statuses []string, createdBefore time.Time, maxLevel int) ([]*RequestRecord, error)

	// ConditionalEscalate atomically sets status Escalated, increments the
	// level and stamps escalated_at/updated_at with now, but only if the row
	// still has expectedStatus and expectedLevel and is unresolved. It
	// reports whether the write applied.
	ConditionalEscalate(ctx context.Context, id, expectedStatus string, expectedLevel int, now time.Time) (bool, error)
}

// RequestRecord represents a maintenance request as stored in persistence.
type RequestRecord struct {
	ID              string
	Title           string
	Description     string
	Category        string
	Priority        string
	Status          string
	CreatedBy       string
	AssignedTo      string // Empty string means null
	Location        string // Empty string means null
	EscalationLevel int
	EscalatedAt     *time.Time
	ResolvedAt      *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// RequestFilters contains filter options for querying requests.
type RequestFilters struct {
	Status    string
	Category  string
	Priority  string
	CreatedBy string
}

// EscalationLogRepository defines the secondary port for the escalation audit
// trail. Entries are immutable: there is no Update or Delete.
type EscalationLogRepository interface {
	// Append persists a new entry and sets its ID.
	Append(ctx context.Context, entry *EscalationLogRecord) error

	// List retrieves entries matching the given filters, oldest first.
	List(ctx context.Context, filters EscalationLogFilters) ([]*EscalationLogRecord, error)
}

// EscalationLogRecord represents one level transition as stored in persistence.
type EscalationLogRecord struct {
	ID          int64
	RequestID   string
	FromLevel   int
	ToLevel     int
	Reason      string
	EscalatedBy string
	CreatedAt   time.Time
}

// EscalationLogFilters contains filter options for querying escalation logs.
type EscalationLogFilters struct {
	RequestID string
	Limit     int // 0 means no limit
}

// SweepRunRepository stores finished sweep reports so any process can read
// the most recent one.
type SweepRunRepository interface {
	// Save persists a finished run.
	Save(ctx context.Context, run *SweepRunRecord) error

	// Latest returns the most recently saved run, or ErrNotFound if none.
	Latest(ctx context.Context) (*SweepRunRecord, error)
}

// SweepRunRecord represents a finished sweep as stored in persistence.
type SweepRunRecord struct {
	RunID         string
	Trigger       string
	StartedAt     time.Time
	FinishedAt    time.Time
	Considered    int
	Escalated     int
	Conflicts     int
	AtCap         int
	NotDue        int
	Ineligible    int
	Invalid       int
	WriteFailures int
	LogFailures   int
	Cancelled     bool
	Error         string // Empty string means the sweep completed
	Failures      []SweepRunFailure
}

// SweepRunFailure is one per-request problem recorded with a run.
type SweepRunFailure struct {
	RequestID string `json:"request_id"`
	Kind      string `json:"kind"`
	Message   string `json:"message"`
}
