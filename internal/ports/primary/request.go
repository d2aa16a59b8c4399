package primary

import (
	"context"

	"github.com/example/maintd/internal/core/request"
)

// RequestService defines the primary port for maintenance request operations.
type RequestService interface {
	// CreateRequest submits a new maintenance request at escalation level 0.
	CreateRequest(ctx context.Context, req CreateRequestRequest) (*CreateRequestResponse, error)

	// GetRequest retrieves a request by ID.
	GetRequest(ctx context.Context, requestID string) (*MaintenanceRequest, error)

	// ListRequests lists requests with optional filters.
	ListRequests(ctx context.Context, filters RequestFilters) ([]*MaintenanceRequest, error)

	// UpdateRequestStatus changes the status and/or assignee of a request.
	UpdateRequestStatus(ctx context.Context, req UpdateRequestStatusRequest) (*MaintenanceRequest, error)

	// GetDashboardStats returns request counts for the admin dashboard.
	GetDashboardStats(ctx context.Context) (*DashboardStats, error)
}

// Request status constants
const (
	RequestStatusPending    = request.StatusPending
	RequestStatusInProgress = request.StatusInProgress
	RequestStatusResolved   = request.StatusResolved
	RequestStatusEscalated  = request.StatusEscalated
)

// CreateRequestRequest contains parameters for submitting a request.
type CreateRequestRequest struct {
	Title       string
	Description string
	Category    string
	Priority    string // defaults to Medium
	Location    string
	CreatedBy   string // defaults to the context actor
}

// CreateRequestResponse contains the result of submitting a request.
type CreateRequestResponse struct {
	RequestID string
	Request   *MaintenanceRequest
}

// UpdateRequestStatusRequest contains parameters for an administrator update.
type UpdateRequestStatusRequest struct {
	RequestID  string
	Status     string // May be empty
	AssignedTo string // May be empty
}

// MaintenanceRequest represents a request at the port boundary.
type MaintenanceRequest struct {
	ID              string
	Title           string
	Description     string
	Category        string
	Priority        string
	Status          string
	CreatedBy       string
	AssignedTo      string // May be empty
	Location        string // May be empty
	EscalationLevel int
	EscalatedAt     string // May be empty
	ResolvedAt      string // May be empty
	CreatedAt       string
	UpdatedAt       string
}

// RequestFilters contains filter options for listing requests.
type RequestFilters struct {
	Status    string
	Category  string
	Priority  string
	CreatedBy string
}

// DashboardStats summarises requests by status.
type DashboardStats struct {
	TotalRequests     int
	EscalatedRequests int
	StatusBreakdown   map[string]int
}
