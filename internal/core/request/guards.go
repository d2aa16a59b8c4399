// Package request contains the pure business logic for maintenance requests.
// Guards are pure functions that evaluate preconditions without side effects.
package request

import (
	"fmt"
	"slices"
	"strings"
)

// Request statuses.
const (
	StatusPending    = "Pending"
	StatusInProgress = "In Progress"
	StatusResolved   = "Resolved"
	StatusEscalated  = "Escalated"
)

// Request categories.
const (
	CategoryIT             = "IT"
	CategoryFacilities     = "Facilities"
	CategoryInfrastructure = "Infrastructure"
	CategoryEquipment      = "Equipment"
	CategoryOther          = "Other"
)

// Request priorities.
const (
	PriorityLow      = "Low"
	PriorityMedium   = "Medium"
	PriorityHigh     = "High"
	PriorityCritical = "Critical"
)

// Statuses lists every valid request status.
var Statuses = []string{StatusPending, StatusInProgress, StatusResolved, StatusEscalated}

// Categories lists every valid request category.
var Categories = []string{CategoryIT, CategoryFacilities, CategoryInfrastructure, CategoryEquipment, CategoryOther}

// Priorities lists every valid request priority, lowest first.
var Priorities = []string{PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical}

// GuardResult represents the outcome of a guard evaluation.
type GuardResult struct {
	Allowed bool
	Reason  string
}

// Error converts the guard result to an error if not allowed.
func (r GuardResult) Error() error {
	if r.Allowed {
		return nil
	}
	return fmt.Errorf("%s", r.Reason)
}

// CreateRequestContext provides context for request creation guards.
type CreateRequestContext struct {
	Title       string
	Description string
	Category    string
	Priority    string // empty means default
	CreatedBy   string
}

// StatusUpdateContext provides context for admin status update guards.
type StatusUpdateContext struct {
	RequestID     string
	CurrentStatus string
	NewStatus     string // empty when only the assignee changes
	AssignedTo    string
}

// CanCreateRequest evaluates whether a request can be submitted.
// Rules:
// - Title, description and submitter are required
// - Category must be one of the known categories
// - Priority, if given, must be one of the known priorities
func CanCreateRequest(ctx CreateRequestContext) GuardResult {
	if strings.TrimSpace(ctx.Title) == "" {
		return GuardResult{Allowed: false, Reason: "title is required"}
	}
	if strings.TrimSpace(ctx.Description) == "" {
		return GuardResult{Allowed: false, Reason: "description is required"}
	}
	if ctx.CreatedBy == "" {
		return GuardResult{Allowed: false, Reason: "submitter is required"}
	}
	if !slices.Contains(Categories, ctx.Category) {
		return GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("invalid category %q (must be one of: %s)", ctx.Category, strings.Join(Categories, ", ")),
		}
	}
	if ctx.Priority != "" && !slices.Contains(Priorities, ctx.Priority) {
		return GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("invalid priority %q (must be one of: %s)", ctx.Priority, strings.Join(Priorities, ", ")),
		}
	}

	return GuardResult{Allowed: true}
}

// CanUpdateStatus evaluates whether an administrator may change a request.
// Rules:
// - Something must change (status or assignee)
// - New status must be valid
// - Escalated is set only by the escalation engine
// - Resolved requests are final
func CanUpdateStatus(ctx StatusUpdateContext) GuardResult {
	if ctx.NewStatus == "" && ctx.AssignedTo == "" {
		return GuardResult{Allowed: false, Reason: "must specify a status or an assignee"}
	}

	if ctx.NewStatus != "" && !slices.Contains(Statuses, ctx.NewStatus) {
		return GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("invalid status %q (must be one of: %s)", ctx.NewStatus, strings.Join(Statuses, ", ")),
		}
	}

	if ctx.NewStatus == StatusEscalated {
		return GuardResult{
			Allowed: false,
			Reason:  "status Escalated is set only by the escalation sweep (use sweep escalate)",
		}
	}

	if ctx.CurrentStatus == StatusResolved {
		return GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("request %s is already resolved", ctx.RequestID),
		}
	}

	return GuardResult{Allowed: true}
}
