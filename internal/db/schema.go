package db

import (
	"database/sql"
	"time"
)

// TimeLayout is the storage format for every DATETIME column. go-sqlite3
// parses it back into time.Time for DATETIME-typed columns.
const TimeLayout = "2006-01-02 15:04:05.000000000"

// FormatTime renders t in UTC using TimeLayout.
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

// SchemaSQL is the complete schema for fresh maintd installs.
// This schema reflects the current state after all migrations.
//
// This is the SINGLE SOURCE OF TRUTH for the database schema. Repository
// tests load it through GetSchemaSQL() instead of declaring their own tables,
// so a column referenced by adapter code but missing here fails immediately
// with "no such column".
//
// When adding new columns or tables:
//  1. Add a migration in migrations.go
//  2. Update SchemaSQL here
//
// Timestamps are written as fixed-width UTC text in TimeLayout so that lexical
// comparison in WHERE clauses matches chronological order.
const SchemaSQL = `
-- Maintenance requests submitted by employees
CREATE TABLE IF NOT EXISTS maintenance_requests (
	id TEXT PRIMARY KEY,
	title TEXT NOT NULL,
	description TEXT NOT NULL,
	category TEXT NOT NULL CHECK(category IN ('IT', 'Facilities', 'Infrastructure', 'Equipment', 'Other')),
	priority TEXT NOT NULL CHECK(priority IN ('Low', 'Medium', 'High', 'Critical')) DEFAULT 'Medium',
	status TEXT NOT NULL CHECK(status IN ('Pending', 'In Progress', 'Resolved', 'Escalated')) DEFAULT 'Pending',
	created_by TEXT NOT NULL,
	assigned_to TEXT,
	location TEXT,
	escalation_level INTEGER NOT NULL DEFAULT 0 CHECK(escalation_level >= 0),
	escalated_at DATETIME,
	resolved_at DATETIME,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_requests_status ON maintenance_requests(status);
CREATE INDEX IF NOT EXISTS idx_requests_created_by ON maintenance_requests(created_by);
CREATE INDEX IF NOT EXISTS idx_requests_escalation ON maintenance_requests(status, created_at, escalation_level);

-- Escalation audit trail (append-only; request_id is a weak reference)
CREATE TABLE IF NOT EXISTS escalation_logs (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	request_id TEXT NOT NULL,
	from_level INTEGER NOT NULL,
	to_level INTEGER NOT NULL,
	reason TEXT NOT NULL,
	escalated_by TEXT NOT NULL DEFAULT 'System',
	created_at DATETIME NOT NULL,
	CHECK(to_level = from_level + 1)
);

CREATE INDEX IF NOT EXISTS idx_escalation_logs_request ON escalation_logs(request_id);

-- Finished sweep reports, so any process can read the latest one
CREATE TABLE IF NOT EXISTS sweep_runs (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id TEXT NOT NULL UNIQUE,
	triggered_by TEXT NOT NULL,
	started_at DATETIME NOT NULL,
	finished_at DATETIME NOT NULL,
	considered INTEGER NOT NULL DEFAULT 0,
	escalated INTEGER NOT NULL DEFAULT 0,
	conflicts INTEGER NOT NULL DEFAULT 0,
	at_cap INTEGER NOT NULL DEFAULT 0,
	not_due INTEGER NOT NULL DEFAULT 0,
	ineligible INTEGER NOT NULL DEFAULT 0,
	invalid INTEGER NOT NULL DEFAULT 0,
	write_failures INTEGER NOT NULL DEFAULT 0,
	log_failures INTEGER NOT NULL DEFAULT 0,
	cancelled INTEGER NOT NULL DEFAULT 0,
	error TEXT,
	failures TEXT NOT NULL DEFAULT '[]'
);
`

// InitSchema creates the schema on a fresh database, or runs pending
// migrations on an existing one.
func InitSchema(database *sql.DB) error {
	var tableCount int
	err := database.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'").Scan(&tableCount)
	if err != nil {
		return err
	}

	if tableCount > 0 {
		return RunMigrations(database)
	}

	// Fresh install - create modern schema directly and mark every migration
	// as applied so none of them run.
	if _, err := database.Exec(SchemaSQL); err != nil {
		return err
	}
	if err := ensureVersionTable(database); err != nil {
		return err
	}
	for _, m := range migrations {
		if _, err := database.Exec("INSERT INTO schema_version (version) VALUES (?)", m.Version); err != nil {
			return err
		}
	}
	return nil
}

// GetSchemaSQL returns the authoritative schema SQL for use by tests.
// Tests should use this instead of hardcoding their own schema to prevent drift.
func GetSchemaSQL() string {
	return SchemaSQL
}
