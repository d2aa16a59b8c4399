package primary

import (
	"context"
	"time"
)

// EscalationService defines the primary port for escalation operations.
type EscalationService interface {
	// RunSweep escalates every request that has been unresolved longer than
	// the threshold as of now. The report is returned even on error.
	RunSweep(ctx context.Context, now time.Time) (*SweepReport, error)

	// EscalateRequest escalates a single request immediately, bypassing the
	// age check but using the same conditional write and audit protocol.
	EscalateRequest(ctx context.Context, requestID string, now time.Time) (*SweepReport, error)

	// LastSweepReport returns the most recent finished report, or nil before
	// the first run. With a run store configured this includes runs finished
	// by other processes.
	LastSweepReport(ctx context.Context) (*SweepReport, error)

	// ListEscalationLogs retrieves audit entries matching the given filters.
	ListEscalationLogs(ctx context.Context, filters EscalationLogFilters) ([]*EscalationLogEntry, error)
}

// Sweep triggers.
const (
	TriggerScheduled = "scheduled"
	TriggerManual    = "manual"
	TriggerRequest   = "request"
)

// SweepReport summarises one sweep. It is for observability only.
type SweepReport struct {
	RunID      string
	Trigger    string
	StartedAt  time.Time
	FinishedAt time.Time

	Considered    int // candidates returned by the store
	Escalated     int // conditional writes applied
	Conflicts     int // conditional writes rejected by a concurrent change
	AtCap         int // considered but already at the max level
	NotDue        int // considered but not yet due for the next level
	Ineligible    int // refused by the guard for another reason
	Invalid       int // malformed records skipped
	WriteFailures int // store errors on the conditional write
	LogFailures   int // level advanced but the audit entry was not stored
	Cancelled     bool
	Error         string // set when the sweep aborted

	Failures []SweepFailure
}

// SweepFailure records a per-request problem observed during a sweep.
type SweepFailure struct {
	RequestID string
	Kind      string // see FailureKind constants
	Message   string
}

// Failure kinds.
const (
	FailureKindInvalid    = "invalid"
	FailureKindIneligible = "ineligible"
	FailureKindWrite      = "write"
	FailureKindLog        = "log"
)

// Duration returns how long the sweep ran.
func (r *SweepReport) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// EscalationLogEntry represents an audit entry at the port boundary.
type EscalationLogEntry struct {
	ID          int64
	RequestID   string
	FromLevel   int
	ToLevel     int
	Reason      string
	EscalatedBy string
	CreatedAt   string
}

// EscalationLogFilters contains filter options for listing escalation logs.
type EscalationLogFilters struct {
	RequestID string
	Limit     int
}
