package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/example/maintd/internal/db"
	"github.com/example/maintd/internal/ports/secondary"
)

// SweepRunRepository implements secondary.SweepRunRepository with SQLite.
type SweepRunRepository struct {
	db *sql.DB
}

// NewSweepRunRepository creates a new SQLite sweep run repository.
func NewSweepRunRepository(db *sql.DB) *SweepRunRepository {
	return &SweepRunRepository{db: db}
}

// Save persists a finished run. Failures are stored as a JSON array.
func (r *SweepRunRepository) Save(ctx context.Context, run *secondary.SweepRunRecord) error {
	failures := run.Failures
	if failures == nil {
		failures = []secondary.SweepRunFailure{}
	}
	encoded, err := json.Marshal(failures)
	if err != nil {
		return fmt.Errorf("failed to encode sweep failures: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO sweep_runs (run_id, triggered_by, started_at, finished_at, considered, escalated, conflicts, at_cap, not_due, ineligible, invalid, write_failures, log_failures, cancelled, error, failures)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.RunID,
		run.Trigger,
		db.FormatTime(run.StartedAt),
		db.FormatTime(run.FinishedAt),
		run.Considered,
		run.Escalated,
		run.Conflicts,
		run.AtCap,
		run.NotDue,
		run.Ineligible,
		run.Invalid,
		run.WriteFailures,
		run.LogFailures,
		run.Cancelled,
		nullString(run.Error),
		string(encoded),
	)
	if err != nil {
		return fmt.Errorf("failed to save sweep run: %w", err)
	}
	return nil
}

// Latest returns the most recently saved run.
func (r *SweepRunRepository) Latest(ctx context.Context) (*secondary.SweepRunRecord, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT run_id, triggered_by, started_at, finished_at, considered, escalated, conflicts, at_cap, not_due, ineligible, invalid, write_failures, log_failures, cancelled, error, failures
		FROM sweep_runs ORDER BY id DESC LIMIT 1`)

	var (
		run      secondary.SweepRunRecord
		runErr   sql.NullString
		failures string
	)
	err := row.Scan(
		&run.RunID, &run.Trigger, &run.StartedAt, &run.FinishedAt,
		&run.Considered, &run.Escalated, &run.Conflicts, &run.AtCap, &run.NotDue,
		&run.Ineligible, &run.Invalid, &run.WriteFailures, &run.LogFailures,
		&run.Cancelled, &runErr, &failures,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, secondary.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load latest sweep run: %w", err)
	}

	if err := json.Unmarshal([]byte(failures), &run.Failures); err != nil {
		return nil, fmt.Errorf("failed to decode sweep failures for %s: %w", run.RunID, err)
	}
	run.Error = runErr.String
	run.StartedAt = run.StartedAt.UTC()
	run.FinishedAt = run.FinishedAt.UTC()
	return &run, nil
}

// Ensure SweepRunRepository implements the interface
var _ secondary.SweepRunRepository = (*SweepRunRepository)(nil)
