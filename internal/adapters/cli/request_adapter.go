// Package cli provides thin CLI adapters that translate between CLI concerns
// and application services. Adapters handle argument parsing, output formatting,
// but delegate business logic to services.
package cli

import (
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/fatih/color"

	"github.com/example/maintd/internal/ports/primary"
)

// RequestAdapter is a thin adapter that translates CLI operations to RequestService calls.
type RequestAdapter struct {
	service primary.RequestService
	out     io.Writer
}

// NewRequestAdapter creates a new RequestAdapter with the given service.
func NewRequestAdapter(service primary.RequestService, out io.Writer) *RequestAdapter {
	return &RequestAdapter{
		service: service,
		out:     out,
	}
}

// Create submits a new request.
func (a *RequestAdapter) Create(ctx context.Context, req primary.CreateRequestRequest) error {
	resp, err := a.service.CreateRequest(ctx, req)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "✓ Created request %s: %s\n", resp.RequestID, resp.Request.Title)
	return nil
}

// List lists requests matching the filters.
func (a *RequestAdapter) List(ctx context.Context, filters primary.RequestFilters) error {
	requests, err := a.service.ListRequests(ctx, filters)
	if err != nil {
		return fmt.Errorf("failed to list requests: %w", err)
	}

	if len(requests) == 0 {
		fmt.Fprintln(a.out, "No requests found")
		return nil
	}

	fmt.Fprintf(a.out, "\n%-9s %-12s %-5s %-9s %-15s %s\n", "ID", "STATUS", "LEVEL", "PRIORITY", "CATEGORY", "TITLE")
	fmt.Fprintln(a.out, "────────────────────────────────────────────────────────────────────────────")
	for _, r := range requests {
		fmt.Fprintf(a.out, "%-9s %s %s %-9s %-15s %s\n",
			r.ID,
			statusColor(r.Status).Sprintf("%-12s", r.Status),
			levelColor(r.EscalationLevel).Sprintf("%-5d", r.EscalationLevel),
			r.Priority, r.Category, r.Title)
	}
	fmt.Fprintln(a.out)

	return nil
}

// Show displays details for a single request.
func (a *RequestAdapter) Show(ctx context.Context, requestID string) error {
	r, err := a.service.GetRequest(ctx, requestID)
	if err != nil {
		return fmt.Errorf("failed to get request: %w", err)
	}

	fmt.Fprintf(a.out, "\nRequest:   %s\n", r.ID)
	fmt.Fprintf(a.out, "Title:     %s\n", r.Title)
	fmt.Fprintf(a.out, "Status:    %s\n", statusColor(r.Status).Sprint(r.Status))
	fmt.Fprintf(a.out, "Level:     %s\n", levelColor(r.EscalationLevel).Sprint(r.EscalationLevel))
	fmt.Fprintf(a.out, "Category:  %s\n", r.Category)
	fmt.Fprintf(a.out, "Priority:  %s\n", r.Priority)
	fmt.Fprintf(a.out, "Submitter: %s\n", r.CreatedBy)
	if r.AssignedTo != "" {
		fmt.Fprintf(a.out, "Assignee:  %s\n", r.AssignedTo)
	}
	if r.Location != "" {
		fmt.Fprintf(a.out, "Location:  %s\n", r.Location)
	}
	fmt.Fprintf(a.out, "Created:   %s\n", r.CreatedAt)
	if r.EscalatedAt != "" {
		fmt.Fprintf(a.out, "Escalated: %s\n", r.EscalatedAt)
	}
	if r.ResolvedAt != "" {
		fmt.Fprintf(a.out, "Resolved:  %s\n", r.ResolvedAt)
	}
	fmt.Fprintf(a.out, "\n%s\n\n", r.Description)

	return nil
}

// Update changes a request's status and/or assignee.
func (a *RequestAdapter) Update(ctx context.Context, requestID, status, assignedTo string) error {
	r, err := a.service.UpdateRequestStatus(ctx, primary.UpdateRequestStatusRequest{
		RequestID:  requestID,
		Status:     status,
		AssignedTo: assignedTo,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "✓ Request %s is now %s\n", r.ID, statusColor(r.Status).Sprint(r.Status))
	return nil
}

// Stats prints the dashboard counts.
func (a *RequestAdapter) Stats(ctx context.Context) error {
	stats, err := a.service.GetDashboardStats(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Total requests:     %d\n", stats.TotalRequests)
	fmt.Fprintf(a.out, "Escalated requests: %s\n", levelColor(stats.EscalatedRequests).Sprint(stats.EscalatedRequests))

	statuses := make([]string, 0, len(stats.StatusBreakdown))
	for s := range stats.StatusBreakdown {
		statuses = append(statuses, s)
	}
	sort.Strings(statuses)
	for _, s := range statuses {
		fmt.Fprintf(a.out, "  %-12s %d\n", s, stats.StatusBreakdown[s])
	}
	return nil
}

func statusColor(status string) *color.Color {
	switch status {
	case primary.RequestStatusEscalated:
		return color.New(color.FgRed, color.Bold)
	case primary.RequestStatusInProgress:
		return color.New(color.FgYellow)
	case primary.RequestStatusResolved:
		return color.New(color.FgGreen)
	default:
		return color.New(color.FgCyan)
	}
}

func levelColor(level int) *color.Color {
	switch {
	case level >= 3:
		return color.New(color.FgHiRed, color.Bold)
	case level > 0:
		return color.New(color.FgYellow)
	default:
		return color.New(color.Reset)
	}
}
