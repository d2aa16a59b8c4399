package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"

	"github.com/example/maintd/internal/ports/primary"
)

// EscalationAdapter translates CLI operations to EscalationService calls.
type EscalationAdapter struct {
	service primary.EscalationService
	out     io.Writer
}

// NewEscalationAdapter creates a new EscalationAdapter with the given service.
func NewEscalationAdapter(service primary.EscalationService, out io.Writer) *EscalationAdapter {
	return &EscalationAdapter{
		service: service,
		out:     out,
	}
}

// Sweep runs one sweep at now and prints its report. The report is printed
// even when the sweep aborts.
func (a *EscalationAdapter) Sweep(ctx context.Context, now time.Time) error {
	report, err := a.service.RunSweep(ctx, now)
	if report != nil {
		a.printReport(report)
	}
	if err != nil {
		return fmt.Errorf("sweep failed: %w", err)
	}
	return nil
}

// Escalate escalates a single request now.
func (a *EscalationAdapter) Escalate(ctx context.Context, requestID string, now time.Time) error {
	report, err := a.service.EscalateRequest(ctx, requestID, now)
	if err != nil {
		return err
	}

	if report.Escalated == 1 {
		fmt.Fprintf(a.out, "✓ Request %s escalated\n", requestID)
		return nil
	}
	if report.AtCap == 1 {
		return fmt.Errorf("request %s is already at the maximum escalation level", requestID)
	}
	if report.Conflicts == 1 {
		return fmt.Errorf("request %s changed while escalating, try again", requestID)
	}
	if len(report.Failures) > 0 {
		return fmt.Errorf("request %s not escalated: %s", requestID, report.Failures[0].Message)
	}
	return fmt.Errorf("request %s not escalated", requestID)
}

// Last prints the most recent finished sweep report.
func (a *EscalationAdapter) Last(ctx context.Context) error {
	report, err := a.service.LastSweepReport(ctx)
	if err != nil {
		return err
	}
	if report == nil {
		fmt.Fprintln(a.out, "No sweep has run yet")
		return nil
	}
	a.printReport(report)
	return nil
}

// Log prints escalation audit entries.
func (a *EscalationAdapter) Log(ctx context.Context, requestID string, limit int) error {
	entries, err := a.service.ListEscalationLogs(ctx, primary.EscalationLogFilters{
		RequestID: requestID,
		Limit:     limit,
	})
	if err != nil {
		return err
	}

	if len(entries) == 0 {
		fmt.Fprintln(a.out, "No escalations recorded")
		return nil
	}

	fmt.Fprintf(a.out, "\n%-6s %-9s %-7s %-10s %-21s %s\n", "#", "REQUEST", "LEVEL", "BY", "AT", "REASON")
	fmt.Fprintln(a.out, "────────────────────────────────────────────────────────────────────────────")
	for _, e := range entries {
		fmt.Fprintf(a.out, "%-6d %-9s %s %-10s %-21s %s\n",
			e.ID, e.RequestID,
			levelColor(e.ToLevel).Sprintf("%-7s", fmt.Sprintf("%d→%d", e.FromLevel, e.ToLevel)),
			e.EscalatedBy, e.CreatedAt, e.Reason)
	}
	fmt.Fprintln(a.out)
	return nil
}

func (a *EscalationAdapter) printReport(r *primary.SweepReport) {
	fmt.Fprintf(a.out, "Sweep %s (%s) at %s\n", r.RunID, r.Trigger, r.StartedAt.Format(time.RFC3339))
	fmt.Fprintf(a.out, "  considered: %d\n", r.Considered)
	fmt.Fprintf(a.out, "  escalated:  %s\n", color.New(color.FgGreen).Sprint(r.Escalated))
	if r.Conflicts > 0 {
		fmt.Fprintf(a.out, "  conflicts:  %d\n", r.Conflicts)
	}
	if r.AtCap > 0 {
		fmt.Fprintf(a.out, "  at cap:     %d\n", r.AtCap)
	}
	if r.NotDue > 0 {
		fmt.Fprintf(a.out, "  not due:    %d\n", r.NotDue)
	}
	if r.Invalid > 0 {
		fmt.Fprintf(a.out, "  invalid:    %s\n", color.New(color.FgYellow).Sprint(r.Invalid))
	}
	if r.WriteFailures > 0 {
		fmt.Fprintf(a.out, "  write errs: %s\n", color.New(color.FgRed).Sprint(r.WriteFailures))
	}
	if r.LogFailures > 0 {
		fmt.Fprintf(a.out, "  log errs:   %s\n", color.New(color.FgRed).Sprint(r.LogFailures))
	}
	if r.Cancelled {
		fmt.Fprintln(a.out, color.New(color.FgYellow).Sprint("  cancelled before all candidates were processed"))
	}
	for _, f := range r.Failures {
		fmt.Fprintf(a.out, "  ! %s [%s] %s\n", f.RequestID, f.Kind, f.Message)
	}
	if r.Error != "" {
		fmt.Fprintf(a.out, "  %s %s\n", color.New(color.FgRed).Sprint("aborted:"), r.Error)
	}
}
