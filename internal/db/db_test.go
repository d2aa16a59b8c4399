package db

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

func openMemory(t *testing.T) *sql.DB {
	t.Helper()
	database, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}
	database.SetMaxOpenConns(1)
	t.Cleanup(func() { database.Close() })
	return database
}

func tableExists(t *testing.T, database *sql.DB, name string) bool {
	t.Helper()
	var n int
	err := database.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", name).Scan(&n)
	if err != nil {
		t.Fatalf("failed to query sqlite_master: %v", err)
	}
	return n > 0
}

func TestOpen_FreshDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "maintd.db")

	database, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer database.Close()

	for _, table := range []string{"maintenance_requests", "escalation_logs", "sweep_runs", "schema_version"} {
		if !tableExists(t, database, table) {
			t.Errorf("table %s missing", table)
		}
	}

	v, err := CurrentVersion(database)
	if err != nil {
		t.Fatalf("CurrentVersion failed: %v", err)
	}
	if v != len(migrations) {
		t.Errorf("version = %d, want %d", v, len(migrations))
	}

	// Reopening an up-to-date database is a no-op.
	database.Close()
	again, err := Open(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	again.Close()
}

func TestRunMigrations_FromVersionOne(t *testing.T) {
	database := openMemory(t)

	if err := ensureVersionTable(database); err != nil {
		t.Fatal(err)
	}
	tx, err := database.Begin()
	if err != nil {
		t.Fatal(err)
	}
	if err := migrationV1(tx); err != nil {
		t.Fatalf("migrationV1 failed: %v", err)
	}
	if _, err := tx.Exec("INSERT INTO schema_version (version) VALUES (1)"); err != nil {
		t.Fatal(err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatal(err)
	}

	if err := InitSchema(database); err != nil {
		t.Fatalf("InitSchema failed: %v", err)
	}

	if !tableExists(t, database, "escalation_logs") {
		t.Error("escalation_logs not created by migration")
	}
	var idx int
	if err := database.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='index' AND name='idx_requests_escalation'").Scan(&idx); err != nil {
		t.Fatal(err)
	}
	if idx != 1 {
		t.Error("escalation candidate index not created")
	}
	if !tableExists(t, database, "sweep_runs") {
		t.Error("sweep_runs not created by migration")
	}
	v, _ := CurrentVersion(database)
	if v != 4 {
		t.Errorf("version = %d, want 4", v)
	}
}

func TestFormatTime_SortsChronologically(t *testing.T) {
	earlier := time.Date(2025, 1, 9, 23, 59, 59, 999, time.UTC)
	later := time.Date(2025, 1, 10, 1, 30, 0, 0, time.FixedZone("CET", 3600)) // 00:30 UTC

	a, b := FormatTime(earlier), FormatTime(later)
	if len(a) != len(b) {
		t.Errorf("widths differ: %q vs %q", a, b)
	}
	if b < a {
		t.Errorf("FormatTime(%v) = %q sorts before FormatTime(%v) = %q", later, b, earlier, a)
	}
}

func TestSeedFixtures(t *testing.T) {
	database := openMemory(t)
	if err := InitSchema(database); err != nil {
		t.Fatalf("InitSchema failed: %v", err)
	}

	if err := SeedFixtures(database, time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)); err != nil {
		t.Fatalf("SeedFixtures failed: %v", err)
	}

	var requests, logs int
	database.QueryRow("SELECT COUNT(*) FROM maintenance_requests").Scan(&requests)
	database.QueryRow("SELECT COUNT(*) FROM escalation_logs").Scan(&logs)
	if requests != 5 {
		t.Errorf("requests = %d, want 5", requests)
	}
	if logs != 4 {
		t.Errorf("escalation logs = %d, want 4", logs)
	}
}
