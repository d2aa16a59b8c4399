// Package escalation contains the pure eligibility rules for escalating
// unresolved maintenance requests. Nothing here reads a clock or a store; the
// caller supplies "now" and the record state.
package escalation

import (
	"fmt"
	"time"

	"github.com/example/maintd/internal/core/request"
)

// Defaults for Rules.
const (
	DefaultThreshold = 24 * time.Hour
	DefaultMaxLevel  = 3
)

// SystemActor is recorded as escalatedBy when the engine escalates on its own.
const SystemActor = "System"

// ReasonManual is the log reason for an "Escalate Now" action.
const ReasonManual = "Manual escalation"

// Policy decides whether a request already in Escalated status keeps climbing.
type Policy string

const (
	// PolicyContinue keeps escalating Escalated requests until the cap.
	PolicyContinue Policy = "continue"
	// PolicyPause stops auto-escalation once a request is Escalated, until an
	// administrator moves it back to Pending or In Progress.
	PolicyPause Policy = "pause"
)

// ParsePolicy validates a policy name. Empty selects PolicyContinue.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(s) {
	case "", PolicyContinue:
		return PolicyContinue, nil
	case PolicyPause:
		return PolicyPause, nil
	default:
		return "", fmt.Errorf("unknown escalated policy %q (must be %q or %q)", s, PolicyContinue, PolicyPause)
	}
}

// EligibleStatuses returns the statuses the sweep selects under this policy.
func (p Policy) EligibleStatuses() []string {
	if p == PolicyPause {
		return []string{request.StatusPending, request.StatusInProgress}
	}
	return []string{request.StatusPending, request.StatusInProgress, request.StatusEscalated}
}

func (p Policy) allows(status string) bool {
	for _, s := range p.EligibleStatuses() {
		if s == status {
			return true
		}
	}
	return false
}

// Rules holds the global escalation parameters.
type Rules struct {
	Threshold time.Duration
	MaxLevel  int
	Policy    Policy
}

// DefaultRules returns the 24h / level 3 / continue rules.
func DefaultRules() Rules {
	return Rules{
		Threshold: DefaultThreshold,
		MaxLevel:  DefaultMaxLevel,
		Policy:    PolicyContinue,
	}
}

// CreatedBefore returns the creation cutoff for a sweep at now. Requests
// created strictly before it have been open longer than one threshold, which
// is the weakest condition any level can be due under.
func (r Rules) CreatedBefore(now time.Time) time.Time {
	return now.Add(-r.Threshold)
}

// DueAt returns the instant after which a request is due for its next
// escalation. Pending and In Progress requests are due one threshold after
// creation whatever their level, so a request an administrator moves back to
// work is picked up on the next sweep. Escalated requests climb in stepped
// windows: level L is due after (L+1) thresholds, which keeps a repeated
// sweep from advancing the same breach twice.
func (r Rules) DueAt(createdAt time.Time, status string, level int) time.Time {
	if status != request.StatusEscalated {
		return createdAt.Add(r.Threshold)
	}
	return createdAt.Add(r.Threshold * time.Duration(level+1))
}

// Overdue reports whether a request has been open strictly longer than its
// window at now. Exactly at the boundary is not overdue.
func (r Rules) Overdue(createdAt time.Time, status string, level int, now time.Time) bool {
	return now.After(r.DueAt(createdAt, status, level))
}

// ThresholdReason is the log reason for a time-based escalation.
func (r Rules) ThresholdReason() string {
	return fmt.Sprintf("Unresolved for %s", formatThreshold(r.Threshold))
}

func formatThreshold(d time.Duration) string {
	if d%time.Hour == 0 {
		h := int(d / time.Hour)
		if h == 1 {
			return "1 hour"
		}
		return fmt.Sprintf("%d hours", h)
	}
	return d.String()
}

// Blocker classifies why a guard refused.
type Blocker string

const (
	BlockerNone       Blocker = ""
	BlockerInvalid    Blocker = "invalid"
	BlockerResolved   Blocker = "resolved"
	BlockerStatus     Blocker = "status"
	BlockerNotOverdue Blocker = "not_overdue"
	BlockerAtCap      Blocker = "at_cap"
)

// GuardResult represents the outcome of a guard evaluation.
type GuardResult struct {
	Allowed bool
	Reason  string
	Blocker Blocker
}

// Error converts the guard result to an error if not allowed.
func (r GuardResult) Error() error {
	if r.Allowed {
		return nil
	}
	return fmt.Errorf("%s", r.Reason)
}

// CandidateContext is the state of one request as seen by a sweep.
type CandidateContext struct {
	RequestID string
	Status    string
	Level     int
	CreatedAt time.Time
	Resolved  bool // resolvedAt is set
	Now       time.Time
}

func refuse(b Blocker, format string, args ...any) GuardResult {
	return GuardResult{Allowed: false, Blocker: b, Reason: fmt.Sprintf(format, args...)}
}

// CanAutoEscalate evaluates whether the sweep may advance a request.
// Rules:
// - Record must carry an id and a creation time
// - Request must not be resolved
// - Status must be eligible under the policy
// - Level must be below the cap
// - Request must be open strictly longer than one threshold, or (level+1)
//   thresholds once Escalated
func CanAutoEscalate(rules Rules, ctx CandidateContext) GuardResult {
	if r := checkState(rules, ctx); !r.Allowed {
		return r
	}

	if ctx.Level >= rules.MaxLevel {
		return refuse(BlockerAtCap, "request %s is already at escalation level %d (max %d)",
			ctx.RequestID, ctx.Level, rules.MaxLevel)
	}

	if !rules.Overdue(ctx.CreatedAt, ctx.Status, ctx.Level, ctx.Now) {
		return refuse(BlockerNotOverdue, "request %s at level %d is not due until %s",
			ctx.RequestID, ctx.Level, rules.DueAt(ctx.CreatedAt, ctx.Status, ctx.Level).Format(time.RFC3339))
	}

	return GuardResult{Allowed: true}
}

// CanManualEscalate evaluates an "Escalate Now" action. It skips the age
// check and accepts any unresolved status, but still honours the cap.
func CanManualEscalate(rules Rules, ctx CandidateContext) GuardResult {
	if ctx.RequestID == "" {
		return refuse(BlockerInvalid, "request id is required")
	}
	if ctx.Resolved || ctx.Status == request.StatusResolved {
		return refuse(BlockerResolved, "request %s is resolved", ctx.RequestID)
	}
	if ctx.Level >= rules.MaxLevel {
		return refuse(BlockerAtCap, "request %s is already at escalation level %d (max %d)",
			ctx.RequestID, ctx.Level, rules.MaxLevel)
	}
	return GuardResult{Allowed: true}
}

func checkState(rules Rules, ctx CandidateContext) GuardResult {
	if ctx.RequestID == "" {
		return refuse(BlockerInvalid, "candidate has no id")
	}
	if ctx.CreatedAt.IsZero() {
		return refuse(BlockerInvalid, "request %s has no creation time", ctx.RequestID)
	}
	if ctx.Level < 0 {
		return refuse(BlockerInvalid, "request %s has negative escalation level %d", ctx.RequestID, ctx.Level)
	}
	if ctx.Resolved || ctx.Status == request.StatusResolved {
		return refuse(BlockerResolved, "request %s is resolved", ctx.RequestID)
	}
	if !rules.Policy.allows(ctx.Status) {
		return refuse(BlockerStatus, "request %s has status %q, not eligible under %s policy",
			ctx.RequestID, ctx.Status, rules.Policy)
	}
	return GuardResult{Allowed: true}
}
