package db

import (
	"database/sql"
	"fmt"
	"time"
)

// SeedFixtures populates the database with development fixtures whose ages
// straddle the default 24h escalation threshold relative to now.
func SeedFixtures(database *sql.DB, now time.Time) error {
	requests := []struct {
		id, title, description, category, priority, status, createdBy string
		level                                                          int
		age                                                            time.Duration
		resolved                                                       bool
	}{
		{"REQ-001", "Leaking tap", "Kitchen tap on floor 2 drips constantly", "Facilities", "Low", "Pending", "EMP-001", 0, 2 * time.Hour, false},
		{"REQ-002", "VPN drops", "VPN disconnects every 10 minutes", "IT", "High", "In Progress", "EMP-002", 0, 30 * time.Hour, false},
		{"REQ-003", "Broken badge reader", "East entrance badge reader unresponsive", "Infrastructure", "Critical", "Escalated", "EMP-003", 1, 50 * time.Hour, false},
		{"REQ-004", "Projector bulb", "Room 4B projector bulb is out", "Equipment", "Medium", "Resolved", "EMP-001", 0, 72 * time.Hour, true},
		{"REQ-005", "Ceiling tile", "Stained ceiling tile above desk 14", "Other", "Medium", "Escalated", "EMP-004", 3, 120 * time.Hour, false},
	}

	for _, r := range requests {
		created := now.Add(-r.age)
		var escalatedAt, resolvedAt any
		if r.level > 0 {
			escalatedAt = FormatTime(created.Add(time.Duration(r.level) * 25 * time.Hour))
		}
		if r.resolved {
			resolvedAt = FormatTime(created.Add(5 * time.Hour))
		}
		if _, err := database.Exec(
			`INSERT INTO maintenance_requests (id, title, description, category, priority, status, created_by, escalation_level, escalated_at, resolved_at, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			r.id, r.title, r.description, r.category, r.priority, r.status, r.createdBy,
			r.level, escalatedAt, resolvedAt, FormatTime(created), FormatTime(created),
		); err != nil {
			return fmt.Errorf("seed requests: %w", err)
		}

		for lvl := 0; lvl < r.level; lvl++ {
			if _, err := database.Exec(
				"INSERT INTO escalation_logs (request_id, from_level, to_level, reason, escalated_by, created_at) VALUES (?, ?, ?, ?, 'System', ?)",
				r.id, lvl, lvl+1, "Unresolved for 24 hours", FormatTime(created.Add(time.Duration(lvl+1)*25*time.Hour)),
			); err != nil {
				return fmt.Errorf("seed escalation logs: %w", err)
			}
		}
	}

	return nil
}
