package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/example/maintd/internal/db"
	"github.com/example/maintd/internal/ports/secondary"
)

// EscalationLogRepository implements secondary.EscalationLogRepository with SQLite.
type EscalationLogRepository struct {
	db *sql.DB
}

// NewEscalationLogRepository creates a new SQLite escalation log repository.
func NewEscalationLogRepository(db *sql.DB) *EscalationLogRepository {
	return &EscalationLogRepository{db: db}
}

// Append persists a new entry and sets its ID.
func (r *EscalationLogRepository) Append(ctx context.Context, entry *secondary.EscalationLogRecord) error {
	escalatedBy := entry.EscalatedBy
	if escalatedBy == "" {
		escalatedBy = "System"
	}

	result, err := r.db.ExecContext(ctx,
		`INSERT INTO escalation_logs (request_id, from_level, to_level, reason, escalated_by, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		entry.RequestID,
		entry.FromLevel,
		entry.ToLevel,
		entry.Reason,
		escalatedBy,
		db.FormatTime(entry.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to append escalation log: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read escalation log id: %w", err)
	}
	entry.ID = id
	entry.EscalatedBy = escalatedBy

	return nil
}

// List retrieves entries matching the given filters, oldest first.
func (r *EscalationLogRepository) List(ctx context.Context, filters secondary.EscalationLogFilters) ([]*secondary.EscalationLogRecord, error) {
	query := `SELECT id, request_id, from_level, to_level, reason, escalated_by, created_at FROM escalation_logs WHERE 1=1`
	args := []any{}

	if filters.RequestID != "" {
		query += " AND request_id = ?"
		args = append(args, filters.RequestID)
	}

	query += " ORDER BY id ASC"

	if filters.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filters.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list escalation logs: %w", err)
	}
	defer rows.Close()

	var entries []*secondary.EscalationLogRecord
	for rows.Next() {
		record := &secondary.EscalationLogRecord{}
		if err := rows.Scan(&record.ID, &record.RequestID, &record.FromLevel, &record.ToLevel, &record.Reason, &record.EscalatedBy, &record.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan escalation log: %w", err)
		}
		record.CreatedAt = record.CreatedAt.UTC()
		entries = append(entries, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list escalation logs: %w", err)
	}

	return entries, nil
}

// Ensure EscalationLogRepository implements the interface
var _ secondary.EscalationLogRepository = (*EscalationLogRepository)(nil)
