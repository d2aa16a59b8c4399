// Package sqlite contains SQLite implementations of repository interfaces.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/example/maintd/internal/db"
	"github.com/example/maintd/internal/ports/secondary"
)

const requestColumns = `id, title, description, category, priority, status, created_by, assigned_to, location, escalation_level, escalated_at, resolved_at, created_at, updated_at`

// RequestRepository implements secondary.RequestRepository with SQLite.
type RequestRepository struct {
	db *sql.DB
}

// NewRequestRepository creates a new SQLite request repository.
func NewRequestRepository(db *sql.DB) *RequestRepository {
	return &RequestRepository{db: db}
}

// Create persists a new request.
func (r *RequestRepository) Create(ctx context.Context, request *secondary.RequestRecord) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO maintenance_requests (`+requestColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		request.ID,
		request.Title,
		request.Description,
		request.Category,
		request.Priority,
		request.Status,
		request.CreatedBy,
		nullString(request.AssignedTo),
		nullString(request.Location),
		request.EscalationLevel,
		nullTime(request.EscalatedAt),
		nullTime(request.ResolvedAt),
		db.FormatTime(request.CreatedAt),
		db.FormatTime(request.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	return nil
}

// GetByID retrieves a request by its ID.
func (r *RequestRepository) GetByID(ctx context.Context, id string) (*secondary.RequestRecord, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+requestColumns+` FROM maintenance_requests WHERE id = ?`,
		id,
	)

	record, err := scanRequest(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("request %s: %w", id, secondary.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get request: %w", err)
	}

	return record, nil
}

// List retrieves requests matching the given filters.
func (r *RequestRepository) List(ctx context.Context, filters secondary.RequestFilters) ([]*secondary.RequestRecord, error) {
	query := `SELECT ` + requestColumns + ` FROM maintenance_requests WHERE 1=1`
	args := []any{}

	if filters.Status != "" {
		query += " AND status = ?"
		args = append(args, filters.Status)
	}

	if filters.Category != "" {
		query += " AND category = ?"
		args = append(args, filters.Category)
	}

	if filters.Priority != "" {
		query += " AND priority = ?"
		args = append(args, filters.Priority)
	}

	if filters.CreatedBy != "" {
		query += " AND created_by = ?"
		args = append(args, filters.CreatedBy)
	}

	query += " ORDER BY created_at DESC, id DESC"

	return r.queryRequests(ctx, query, args...)
}

// UpdateStatus applies an administrator change to status, assignee and resolution time.
func (r *RequestRepository) UpdateStatus(ctx context.Context, id, status, assignedTo string, resolvedAt *time.Time, now time.Time) error {
	setClauses := []string{"updated_at = ?"}
	args := []any{db.FormatTime(now)}

	if status != "" {
		setClauses = append(setClauses, "status = ?")
		args = append(args, status)
	}
	if assignedTo != "" {
		setClauses = append(setClauses, "assigned_to = ?")
		args = append(args, assignedTo)
	}
	if resolvedAt != nil {
		setClauses = append(setClauses, "resolved_at = ?")
		args = append(args, db.FormatTime(*resolvedAt))
	}

	query := "UPDATE maintenance_requests SET " + strings.Join(setClauses, ", ") + " WHERE id = ?"
	args = append(args, id)

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update request: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("request %s: %w", id, secondary.ErrNotFound)
	}

	return nil
}

// GetNextID returns the next available request ID.
func (r *RequestRepository) GetNextID(ctx context.Context) (string, error) {
	var maxID int
	prefixLen := len("REQ-") + 1
	err := r.db.QueryRowContext(ctx,
		fmt.Sprintf("SELECT COALESCE(MAX(CAST(SUBSTR(id, %d) AS INTEGER)), 0) FROM maintenance_requests", prefixLen),
	).Scan(&maxID)
	if err != nil {
		return "", fmt.Errorf("failed to get next request ID: %w", err)
	}

	return fmt.Sprintf("REQ-%03d", maxID+1), nil
}

// CountByStatus returns the number of requests per status.
func (r *RequestRepository) CountByStatus(ctx context.Context) (map[string]int, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT status, COUNT(*) FROM maintenance_requests GROUP BY status")
	if err != nil {
		return nil, fmt.Errorf("failed to count requests: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var (
			status string
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("failed to scan request count: %w", err)
		}
		counts[status] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to count requests: %w", err)
	}

	return counts, nil
}

// FindEligibleForEscalation returns unresolved requests in the given statuses
// created before createdBefore with escalation_level <= maxLevel.
func (r *RequestRepository) FindEligibleForEscalation(ctx context.Context, statuses []string, createdBefore time.Time, maxLevel int) ([]*secondary.RequestRecord, error) {
	if len(statuses) == 0 {
		return nil, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(statuses)), ", ")
	query := `SELECT ` + requestColumns + ` FROM maintenance_requests
		WHERE status IN (` + placeholders + `)
		AND resolved_at IS NULL
		AND created_at < ?
		AND escalation_level <= ?
		ORDER BY created_at ASC, id ASC`

	args := make([]any, 0, len(statuses)+2)
	for _, s := range statuses {
		args = append(args, s)
	}
	args = append(args, db.FormatTime(createdBefore), maxLevel)

	records, err := r.queryRequests(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to find escalation candidates: %w", err)
	}
	return records, nil
}

// ConditionalEscalate advances a request one level if it is unchanged since it
// was read. The single UPDATE is the compare-and-swap: a concurrent
// resolution or escalation changes status, level or resolved_at and the
// WHERE clause no longer matches.
func (r *RequestRepository) ConditionalEscalate(ctx context.Context, id, expectedStatus string, expectedLevel int, now time.Time) (bool, error) {
	ts := db.FormatTime(now)
	result, err := r.db.ExecContext(ctx,
		`UPDATE maintenance_requests
		 SET status = 'Escalated', escalation_level = escalation_level + 1, escalated_at = ?, updated_at = ?
		 WHERE id = ? AND status = ? AND escalation_level = ? AND resolved_at IS NULL`,
		ts, ts, id, expectedStatus, expectedLevel,
	)
	if err != nil {
		return false, fmt.Errorf("failed to escalate request %s: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to escalate request %s: %w", id, err)
	}
	return rowsAffected == 1, nil
}

func (r *RequestRepository) queryRequests(ctx context.Context, query string, args ...any) ([]*secondary.RequestRecord, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list requests: %w", err)
	}
	defer rows.Close()

	var requests []*secondary.RequestRecord
	for rows.Next() {
		record, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan request: %w", err)
		}
		requests = append(requests, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list requests: %w", err)
	}

	return requests, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRequest(row rowScanner) (*secondary.RequestRecord, error) {
	var (
		assignedTo  sql.NullString
		location    sql.NullString
		escalatedAt sql.NullTime
		resolvedAt  sql.NullTime
		createdAt   sql.NullTime
		updatedAt   sql.NullTime
	)

	record := &secondary.RequestRecord{}
	err := row.Scan(
		&record.ID, &record.Title, &record.Description, &record.Category, &record.Priority,
		&record.Status, &record.CreatedBy, &assignedTo, &location, &record.EscalationLevel,
		&escalatedAt, &resolvedAt, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	record.AssignedTo = assignedTo.String
	record.Location = location.String
	record.EscalatedAt = timePtr(escalatedAt)
	record.ResolvedAt = timePtr(resolvedAt)
	// A NULL created_at is left as the zero time; the sweep reports such
	// rows as invalid instead of failing the whole query.
	record.CreatedAt = createdAt.Time
	record.UpdatedAt = updatedAt.Time

	return record, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return db.FormatTime(*t)
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time.UTC()
	return &v
}

// Ensure RequestRepository implements the interface
var _ secondary.RequestRepository = (*RequestRepository)(nil)
