package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/example/maintd/internal/adapters/sqlite"
	"github.com/example/maintd/internal/ports/secondary"
)

func TestEscalationLogRepository_AppendAndList(t *testing.T) {
	db := setupTestDB(t)
	repo := sqlite.NewEscalationLogRepository(db)
	ctx := context.Background()

	first := &secondary.EscalationLogRecord{
		RequestID: "REQ-001",
		FromLevel: 0,
		ToLevel:   1,
		Reason:    "Unresolved for 24 hours",
		CreatedAt: t0.Add(25 * time.Hour),
	}
	if err := repo.Append(ctx, first); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if first.ID == 0 {
		t.Error("Append did not set ID")
	}
	if first.EscalatedBy != "System" {
		t.Errorf("EscalatedBy = %q, want System", first.EscalatedBy)
	}

	second := &secondary.EscalationLogRecord{
		RequestID:   "REQ-001",
		FromLevel:   1,
		ToLevel:     2,
		Reason:      "Manual escalation",
		EscalatedBy: "ADMIN-1",
		CreatedAt:   t0.Add(30 * time.Hour),
	}
	if err := repo.Append(ctx, second); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	other := &secondary.EscalationLogRecord{RequestID: "REQ-002", FromLevel: 0, ToLevel: 1, Reason: "Unresolved for 24 hours", CreatedAt: t0}
	if err := repo.Append(ctx, other); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	t.Run("filter by request, oldest first", func(t *testing.T) {
		entries, err := repo.List(ctx, secondary.EscalationLogFilters{RequestID: "REQ-001"})
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		if len(entries) != 2 {
			t.Fatalf("len = %d, want 2", len(entries))
		}
		if entries[0].ToLevel != 1 || entries[1].ToLevel != 2 {
			t.Errorf("levels = %d,%d, want 1,2", entries[0].ToLevel, entries[1].ToLevel)
		}
		if entries[1].EscalatedBy != "ADMIN-1" {
			t.Errorf("EscalatedBy = %q, want ADMIN-1", entries[1].EscalatedBy)
		}
		if !entries[0].CreatedAt.Equal(first.CreatedAt) {
			t.Errorf("CreatedAt = %v, want %v", entries[0].CreatedAt, first.CreatedAt)
		}
	})

	t.Run("limit", func(t *testing.T) {
		entries, err := repo.List(ctx, secondary.EscalationLogFilters{Limit: 2})
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		if len(entries) != 2 {
			t.Errorf("len = %d, want 2", len(entries))
		}
	})
}

func TestEscalationLogRepository_RejectsSkippedLevel(t *testing.T) {
	db := setupTestDB(t)
	repo := sqlite.NewEscalationLogRepository(db)

	err := repo.Append(context.Background(), &secondary.EscalationLogRecord{
		RequestID: "REQ-001",
		FromLevel: 0,
		ToLevel:   2,
		Reason:    "Unresolved for 24 hours",
		CreatedAt: t0,
	})
	if err == nil {
		t.Fatal("expected CHECK constraint error for a two-level jump, got nil")
	}
}
