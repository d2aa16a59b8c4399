package db

import (
	"database/sql"
	"fmt"
)

// Migration represents a database migration
type Migration struct {
	Version int
	Name    string
	Up      func(*sql.Tx) error
}

// migrations is the list of all migrations in order
var migrations = []Migration{
	{
		Version: 1,
		Name:    "create_maintenance_requests",
		Up:      migrationV1,
	},
	{
		Version: 2,
		Name:    "create_escalation_logs",
		Up:      migrationV2,
	},
	{
		Version: 3,
		Name:    "add_escalation_candidate_index",
		Up:      migrationV3,
	},
	{
		Version: 4,
		Name:    "create_sweep_runs",
		Up:      migrationV4,
	},
}

func ensureVersionTable(database *sql.DB) error {
	_, err := database.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create schema_version table: %w", err)
	}
	return nil
}

// CurrentVersion returns the highest applied migration version.
func CurrentVersion(database *sql.DB) (int, error) {
	var v int
	err := database.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_version").Scan(&v)
	if err != nil {
		return 0, fmt.Errorf("failed to get current schema version: %w", err)
	}
	return v, nil
}

// RunMigrations executes all pending migrations, each in its own transaction.
func RunMigrations(database *sql.DB) error {
	if err := ensureVersionTable(database); err != nil {
		return err
	}

	currentVersion, err := CurrentVersion(database)
	if err != nil {
		return err
	}

	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		tx, err := database.Begin()
		if err != nil {
			return fmt.Errorf("failed to begin transaction for migration %d: %w", migration.Version, err)
		}

		if err := migration.Up(tx); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d (%s) failed: %w", migration.Version, migration.Name, err)
		}

		if _, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", migration.Version); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to record migration %d: %w", migration.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, err)
		}
	}

	return nil
}

// migrationV1 creates the requests table without the escalation index.
func migrationV1(tx *sql.Tx) error {
	_, err := tx.Exec(`
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
	`)
	return err
}

// migrationV2 adds the append-only escalation audit table.
func migrationV2(tx *sql.Tx) error {
	_, err := tx.Exec(`
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
	`)
	return err
}

// migrationV3 adds the index backing the sweep's candidate query.
func migrationV3(tx *sql.Tx) error {
	_, err := tx.Exec(`CREATE INDEX IF NOT EXISTS idx_requests_escalation ON maintenance_requests(status, created_at, escalation_level)`)
	return err
}

// migrationV4 adds the table of finished sweep reports.
func migrationV4(tx *sql.Tx) error {
	_, err := tx.Exec(`
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
	`)
	return err
}
