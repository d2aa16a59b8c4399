// Package sqlite_test contains integration tests for SQLite repositories.
//
// # Schema Protection
//
// This file is the SINGLE POINT where the database schema is loaded for tests.
// All test setup functions use db.GetSchemaSQL() to ensure tests run against
// the authoritative schema, preventing drift between test and production.
//
// DO NOT hardcode CREATE TABLE statements in test files. Use setupTestDB()
// and the seed* helpers instead.
package sqlite_test

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/example/maintd/internal/db"
)

// t0 is the creation time used by most fixtures.
var t0 = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

// setupTestDB creates an in-memory database with the authoritative schema.
// An in-memory database lives on a single connection, so the pool is capped
// at one.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	testDB, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	testDB.SetMaxOpenConns(1)

	// Use the authoritative schema from schema.go
	_, err = testDB.Exec(db.GetSchemaSQL())
	if err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}

	t.Cleanup(func() {
		testDB.Close()
	})

	return testDB
}

// setupFileDBs opens n independent handles on one on-disk database, as
// separate maintd processes would.
func setupFileDBs(t *testing.T, n int) []*sql.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "maintd.db")
	handles := make([]*sql.DB, n)
	for i := range handles {
		h, err := db.Open(path)
		if err != nil {
			t.Fatalf("failed to open handle %d: %v", i, err)
		}
		t.Cleanup(func() { h.Close() })
		handles[i] = h
	}
	return handles
}

// seedRequest inserts a maintenance request and returns its ID.
func seedRequest(t *testing.T, database *sql.DB, id, status string, level int, createdAt time.Time) string {
	t.Helper()
	_, err := database.Exec(
		`INSERT INTO maintenance_requests (id, title, description, category, priority, status, created_by, escalation_level, created_at, updated_at)
		 VALUES (?, 'Broken heater', 'Heater in room 12 is cold', 'Facilities', 'High', ?, 'EMP-001', ?, ?, ?)`,
		id, status, level, db.FormatTime(createdAt), db.FormatTime(createdAt),
	)
	if err != nil {
		t.Fatalf("failed to seed request: %v", err)
	}
	return id
}

// resolveRequest marks a seeded request resolved at the given time.
func resolveRequest(t *testing.T, database *sql.DB, id string, at time.Time) {
	t.Helper()
	_, err := database.Exec(
		"UPDATE maintenance_requests SET status = 'Resolved', resolved_at = ?, updated_at = ? WHERE id = ?",
		db.FormatTime(at), db.FormatTime(at), id,
	)
	if err != nil {
		t.Fatalf("failed to resolve request: %v", err)
	}
}

// countLogs returns the number of audit entries for a request.
func countLogs(t *testing.T, database *sql.DB, requestID string) int {
	t.Helper()
	var n int
	if err := database.QueryRow("SELECT COUNT(*) FROM escalation_logs WHERE request_id = ?", requestID).Scan(&n); err != nil {
		t.Fatalf("failed to count logs: %v", err)
	}
	return n
}
