package cli

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/fatih/color"

	"github.com/example/maintd/internal/ports/primary"
)

func init() {
	color.NoColor = true
}

// mockRequestService implements primary.RequestService for testing
type mockRequestService struct {
	createFn func(ctx context.Context, req primary.CreateRequestRequest) (*primary.CreateRequestResponse, error)
	getFn    func(ctx context.Context, id string) (*primary.MaintenanceRequest, error)
	listFn   func(ctx context.Context, filters primary.RequestFilters) ([]*primary.MaintenanceRequest, error)
	updateFn func(ctx context.Context, req primary.UpdateRequestStatusRequest) (*primary.MaintenanceRequest, error)
	statsFn  func(ctx context.Context) (*primary.DashboardStats, error)

	// Track calls for verification
	lastCreateReq primary.CreateRequestRequest
	lastUpdateReq primary.UpdateRequestStatusRequest
	lastFilters   primary.RequestFilters
}

func (m *mockRequestService) CreateRequest(ctx context.Context, req primary.CreateRequestRequest) (*primary.CreateRequestResponse, error) {
	m.lastCreateReq = req
	if m.createFn != nil {
		return m.createFn(ctx, req)
	}
	return &primary.CreateRequestResponse{
		RequestID: "REQ-001",
		Request:   &primary.MaintenanceRequest{ID: "REQ-001", Title: req.Title},
	}, nil
}

func (m *mockRequestService) GetRequest(ctx context.Context, id string) (*primary.MaintenanceRequest, error) {
	if m.getFn != nil {
		return m.getFn(ctx, id)
	}
	return &primary.MaintenanceRequest{ID: id, Title: "Test Request", Status: "Pending"}, nil
}

func (m *mockRequestService) ListRequests(ctx context.Context, filters primary.RequestFilters) ([]*primary.MaintenanceRequest, error) {
	m.lastFilters = filters
	if m.listFn != nil {
		return m.listFn(ctx, filters)
	}
	return nil, nil
}

func (m *mockRequestService) UpdateRequestStatus(ctx context.Context, req primary.UpdateRequestStatusRequest) (*primary.MaintenanceRequest, error) {
	m.lastUpdateReq = req
	if m.updateFn != nil {
		return m.updateFn(ctx, req)
	}
	return &primary.MaintenanceRequest{ID: req.RequestID, Status: req.Status}, nil
}

func (m *mockRequestService) GetDashboardStats(ctx context.Context) (*primary.DashboardStats, error) {
	if m.statsFn != nil {
		return m.statsFn(ctx)
	}
	return &primary.DashboardStats{StatusBreakdown: map[string]int{}}, nil
}

func TestRequestAdapter_Create(t *testing.T) {
	mock := &mockRequestService{}
	var out bytes.Buffer
	adapter := NewRequestAdapter(mock, &out)

	err := adapter.Create(context.Background(), primary.CreateRequestRequest{Title: "Leaking tap", Category: "Facilities"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if mock.lastCreateReq.Title != "Leaking tap" {
		t.Errorf("Title = %q, want %q", mock.lastCreateReq.Title, "Leaking tap")
	}
	if !strings.Contains(out.String(), "Created request REQ-001: Leaking tap") {
		t.Errorf("output = %q", out.String())
	}
}

func TestRequestAdapter_List(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		var out bytes.Buffer
		adapter := NewRequestAdapter(&mockRequestService{}, &out)
		if err := adapter.List(context.Background(), primary.RequestFilters{}); err != nil {
			t.Fatalf("List failed: %v", err)
		}
		if !strings.Contains(out.String(), "No requests found") {
			t.Errorf("output = %q", out.String())
		}
	})

	t.Run("rows", func(t *testing.T) {
		mock := &mockRequestService{
			listFn: func(ctx context.Context, filters primary.RequestFilters) ([]*primary.MaintenanceRequest, error) {
				return []*primary.MaintenanceRequest{
					{ID: "REQ-002", Status: "Escalated", EscalationLevel: 2, Priority: "High", Category: "IT", Title: "VPN drops"},
					{ID: "REQ-001", Status: "Pending", Priority: "Low", Category: "Facilities", Title: "Leaking tap"},
				}, nil
			},
		}
		var out bytes.Buffer
		adapter := NewRequestAdapter(mock, &out)

		if err := adapter.List(context.Background(), primary.RequestFilters{Status: "Escalated"}); err != nil {
			t.Fatalf("List failed: %v", err)
		}
		if mock.lastFilters.Status != "Escalated" {
			t.Errorf("filter Status = %q, want Escalated", mock.lastFilters.Status)
		}
		output := out.String()
		for _, want := range []string{"REQ-002", "VPN drops", "Escalated", "REQ-001", "Leaking tap"} {
			if !strings.Contains(output, want) {
				t.Errorf("output missing %q:\n%s", want, output)
			}
		}
	})

	t.Run("service error", func(t *testing.T) {
		mock := &mockRequestService{
			listFn: func(ctx context.Context, filters primary.RequestFilters) ([]*primary.MaintenanceRequest, error) {
				return nil, errors.New("database locked")
			},
		}
		err := NewRequestAdapter(mock, &bytes.Buffer{}).List(context.Background(), primary.RequestFilters{})
		if err == nil || !strings.Contains(err.Error(), "database locked") {
			t.Errorf("error = %v, want database locked", err)
		}
	})
}

func TestRequestAdapter_Show(t *testing.T) {
	mock := &mockRequestService{
		getFn: func(ctx context.Context, id string) (*primary.MaintenanceRequest, error) {
			return &primary.MaintenanceRequest{
				ID:              id,
				Title:           "Broken badge reader",
				Description:     "East entrance",
				Status:          "Escalated",
				EscalationLevel: 1,
				AssignedTo:      "TECH-2",
				CreatedAt:       "2025-03-01T09:00:00Z",
				EscalatedAt:     "2025-03-02T10:00:00Z",
			}, nil
		},
	}
	var out bytes.Buffer

	if err := NewRequestAdapter(mock, &out).Show(context.Background(), "REQ-003"); err != nil {
		t.Fatalf("Show failed: %v", err)
	}

	output := out.String()
	for _, want := range []string{"REQ-003", "Broken badge reader", "Assignee:  TECH-2", "Escalated: 2025-03-02T10:00:00Z"} {
		if !strings.Contains(output, want) {
			t.Errorf("output missing %q:\n%s", want, output)
		}
	}
	if strings.Contains(output, "Resolved:") {
		t.Errorf("output shows Resolved for an open request:\n%s", output)
	}
}

func TestRequestAdapter_Update(t *testing.T) {
	mock := &mockRequestService{}
	var out bytes.Buffer

	if err := NewRequestAdapter(mock, &out).Update(context.Background(), "REQ-001", "Resolved", ""); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if mock.lastUpdateReq.Status != "Resolved" {
		t.Errorf("Status = %q, want Resolved", mock.lastUpdateReq.Status)
	}
	if !strings.Contains(out.String(), "Request REQ-001 is now Resolved") {
		t.Errorf("output = %q", out.String())
	}
}

func TestRequestAdapter_Stats(t *testing.T) {
	mock := &mockRequestService{
		statsFn: func(ctx context.Context) (*primary.DashboardStats, error) {
			return &primary.DashboardStats{
				TotalRequests:     5,
				EscalatedRequests: 2,
				StatusBreakdown:   map[string]int{"Pending": 2, "Escalated": 2, "Resolved": 1, "In Progress": 0},
			}, nil
		},
	}
	var out bytes.Buffer

	if err := NewRequestAdapter(mock, &out).Stats(context.Background()); err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	output := out.String()
	if !strings.Contains(output, "Total requests:     5") {
		t.Errorf("output missing total:\n%s", output)
	}
	if strings.Index(output, "  Escalated ") > strings.Index(output, "  Pending ") {
		t.Errorf("breakdown not sorted:\n%s", output)
	}
}
