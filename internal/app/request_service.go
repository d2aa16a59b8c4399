package app

import (
	"context"
	"fmt"
	"time"

	"github.com/example/maintd/internal/clock"
	"github.com/example/maintd/internal/core/request"
	"github.com/example/maintd/internal/ctxutil"
	"github.com/example/maintd/internal/ports/primary"
	"github.com/example/maintd/internal/ports/secondary"
)

// RequestServiceImpl implements the RequestService interface.
type RequestServiceImpl struct {
	requestRepo secondary.RequestRepository
	clock       clock.Clock
}

// NewRequestService creates a new RequestService with injected dependencies.
func NewRequestService(requestRepo secondary.RequestRepository, clk clock.Clock) *RequestServiceImpl {
	return &RequestServiceImpl{
		requestRepo: requestRepo,
		clock:       clk,
	}
}

// CreateRequest submits a new maintenance request.
func (s *RequestServiceImpl) CreateRequest(ctx context.Context, req primary.CreateRequestRequest) (*primary.CreateRequestResponse, error) {
	createdBy := req.CreatedBy
	if createdBy == "" {
		createdBy = ctxutil.ActorFromContext(ctx)
	}

	guardCtx := request.CreateRequestContext{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Priority:    req.Priority,
		CreatedBy:   createdBy,
	}
	if result := request.CanCreateRequest(guardCtx); !result.Allowed {
		return nil, result.Error()
	}

	priority := req.Priority
	if priority == "" {
		priority = request.PriorityMedium
	}

	nextID, err := s.requestRepo.GetNextID(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to generate request ID: %w", err)
	}

	now := s.clock.Now()
	record := &secondary.RequestRecord{
		ID:          nextID,
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Priority:    priority,
		Status:      request.StatusPending,
		CreatedBy:   createdBy,
		Location:    req.Location,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.requestRepo.Create(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	return &primary.CreateRequestResponse{
		RequestID: record.ID,
		Request:   recordToRequest(record),
	}, nil
}

// GetRequest retrieves a request by ID.
func (s *RequestServiceImpl) GetRequest(ctx context.Context, requestID string) (*primary.MaintenanceRequest, error) {
	record, err := s.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	return recordToRequest(record), nil
}

// ListRequests lists requests with optional filters, newest first.
func (s *RequestServiceImpl) ListRequests(ctx context.Context, filters primary.RequestFilters) ([]*primary.MaintenanceRequest, error) {
	records, err := s.requestRepo.List(ctx, secondary.RequestFilters{
		Status:    filters.Status,
		Category:  filters.Category,
		Priority:  filters.Priority,
		CreatedBy: filters.CreatedBy,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list requests: %w", err)
	}

	requests := make([]*primary.MaintenanceRequest, len(records))
	for i, r := range records {
		requests[i] = recordToRequest(r)
	}
	return requests, nil
}

// UpdateRequestStatus applies an administrator change. Moving to Resolved
// stamps resolved_at, which removes the request from escalation for good.
func (s *RequestServiceImpl) UpdateRequestStatus(ctx context.Context, req primary.UpdateRequestStatusRequest) (*primary.MaintenanceRequest, error) {
	record, err := s.requestRepo.GetByID(ctx, req.RequestID)
	if err != nil {
		return nil, err
	}

	guardCtx := request.StatusUpdateContext{
		RequestID:     record.ID,
		CurrentStatus: record.Status,
		NewStatus:     req.Status,
		AssignedTo:    req.AssignedTo,
	}
	if result := request.CanUpdateStatus(guardCtx); !result.Allowed {
		return nil, result.Error()
	}

	now := s.clock.Now()
	var resolvedAt *time.Time
	if req.Status == request.StatusResolved {
		resolvedAt = &now
	}

	if err := s.requestRepo.UpdateStatus(ctx, record.ID, req.Status, req.AssignedTo, resolvedAt, now); err != nil {
		return nil, fmt.Errorf("failed to update request: %w", err)
	}

	updated, err := s.requestRepo.GetByID(ctx, record.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch updated request: %w", err)
	}
	return recordToRequest(updated), nil
}

// GetDashboardStats returns request counts by status.
func (s *RequestServiceImpl) GetDashboardStats(ctx context.Context) (*primary.DashboardStats, error) {
	counts, err := s.requestRepo.CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load dashboard stats: %w", err)
	}

	stats := &primary.DashboardStats{StatusBreakdown: make(map[string]int, len(request.Statuses))}
	for _, status := range request.Statuses {
		stats.StatusBreakdown[status] = counts[status]
	}
	for _, n := range counts {
		stats.TotalRequests += n
	}
	stats.EscalatedRequests = counts[request.StatusEscalated]

	return stats, nil
}

func recordToRequest(r *secondary.RequestRecord) *primary.MaintenanceRequest {
	return &primary.MaintenanceRequest{
		ID:              r.ID,
		Title:           r.Title,
		Description:     r.Description,
		Category:        r.Category,
		Priority:        r.Priority,
		Status:          r.Status,
		CreatedBy:       r.CreatedBy,
		AssignedTo:      r.AssignedTo,
		Location:        r.Location,
		EscalationLevel: r.EscalationLevel,
		EscalatedAt:     formatOptional(r.EscalatedAt),
		ResolvedAt:      formatOptional(r.ResolvedAt),
		CreatedAt:       r.CreatedAt.Format(time.RFC3339),
		UpdatedAt:       r.UpdatedAt.Format(time.RFC3339),
	}
}

func formatOptional(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.RFC3339)
}

// Ensure RequestServiceImpl implements the interface
var _ primary.RequestService = (*RequestServiceImpl)(nil)
