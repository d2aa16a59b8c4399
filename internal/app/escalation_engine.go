package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/example/maintd/internal/clock"
	"github.com/example/maintd/internal/core/escalation"
	"github.com/example/maintd/internal/ctxutil"
	"github.com/example/maintd/internal/ports/primary"
	"github.com/example/maintd/internal/ports/secondary"
)

// EscalationEngine implements the EscalationService interface. It is the only
// writer of escalation_level, escalated_at and the Escalated status.
type EscalationEngine struct {
	requestRepo secondary.RequestRepository
	logRepo     secondary.EscalationLogRepository
	runRepo     secondary.SweepRunRepository
	rules       escalation.Rules
	observer    secondary.SweepObserver
	logger      *zap.Logger
	stopwatch   clock.Clock

	mu   sync.RWMutex
	last *primary.SweepReport
}

// EngineOption configures an EscalationEngine.
type EngineOption func(*EscalationEngine)

// WithSweepObserver sets the observer notified of sweep events.
func WithSweepObserver(o secondary.SweepObserver) EngineOption {
	return func(e *EscalationEngine) {
		e.observer = o
	}
}

// WithSweepRunRepository persists every finished report and serves
// LastSweepReport from the store.
func WithSweepRunRepository(r secondary.SweepRunRepository) EngineOption {
	return func(e *EscalationEngine) {
		e.runRepo = r
	}
}

// WithEngineLogger sets the engine's logger.
func WithEngineLogger(l *zap.Logger) EngineOption {
	return func(e *EscalationEngine) {
		e.logger = l
	}
}

// WithStopwatch sets the clock used to time sweeps for reporting. It never
// influences which requests are escalated.
func WithStopwatch(c clock.Clock) EngineOption {
	return func(e *EscalationEngine) {
		e.stopwatch = c
	}
}

// NewEscalationEngine creates a new EscalationEngine with injected dependencies.
func NewEscalationEngine(requestRepo secondary.RequestRepository, logRepo secondary.EscalationLogRepository, rules escalation.Rules, opts ...EngineOption) *EscalationEngine {
	e := &EscalationEngine{
		requestRepo: requestRepo,
		logRepo:     logRepo,
		rules:       rules,
		observer:    NopSweepObserver{},
		logger:      zap.NewNop(),
		stopwatch:   clock.Real{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Rules returns the rules the engine was built with.
func (e *EscalationEngine) Rules() escalation.Rules {
	return e.rules
}

// RunSweep escalates every overdue unresolved request one level.
func (e *EscalationEngine) RunSweep(ctx context.Context, now time.Time) (*primary.SweepReport, error) {
	return e.sweep(ctx, primary.TriggerManual, now)
}

// RunScheduledSweep is RunSweep labelled as a timer-driven run.
func (e *EscalationEngine) RunScheduledSweep(ctx context.Context, now time.Time) (*primary.SweepReport, error) {
	return e.sweep(ctx, primary.TriggerScheduled, now)
}

func (e *EscalationEngine) sweep(ctx context.Context, trigger string, now time.Time) (report *primary.SweepReport, err error) {
	report = e.newReport(trigger, now)
	began := e.stopwatch.Now()
	log := e.logger.With(zap.String("run_id", report.RunID), zap.String("trigger", trigger))
	defer func() { e.finish(ctx, report, began, err, log) }()

	candidates, err := e.requestRepo.FindEligibleForEscalation(ctx,
		e.rules.Policy.EligibleStatuses(),
		e.rules.CreatedBefore(now),
		e.rules.MaxLevel,
	)
	if err != nil {
		return report, fmt.Errorf("failed to query escalation candidates: %w", err)
	}
	report.Considered = len(candidates)

	for _, c := range candidates {
		if ctx.Err() != nil {
			report.Cancelled = true
			return report, ctx.Err()
		}

		guard := escalation.CanAutoEscalate(e.rules, candidateContext(c, now))
		if !guard.Allowed {
			e.recordRefusal(report, c.ID, guard, log)
			continue
		}

		e.advance(ctx, report, c, now, e.rules.ThresholdReason(), escalation.SystemActor, log)
	}

	return report, nil
}

// EscalateRequest escalates one request now, regardless of its age.
func (e *EscalationEngine) EscalateRequest(ctx context.Context, requestID string, now time.Time) (report *primary.SweepReport, err error) {
	report = e.newReport(primary.TriggerRequest, now)
	began := e.stopwatch.Now()
	log := e.logger.With(zap.String("run_id", report.RunID), zap.String("trigger", primary.TriggerRequest))
	defer func() { e.finish(ctx, report, began, err, log) }()

	record, err := e.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		return report, fmt.Errorf("failed to load request %s: %w", requestID, err)
	}
	report.Considered = 1

	guard := escalation.CanManualEscalate(e.rules, candidateContext(record, now))
	if !guard.Allowed {
		e.recordRefusal(report, record.ID, guard, log)
		return report, nil
	}

	actor := ctxutil.ActorFromContext(ctx)
	if actor == "" {
		actor = escalation.SystemActor
	}
	e.advance(ctx, report, record, now, escalation.ReasonManual, actor, log)

	return report, nil
}

// advance performs the conditional write and, if it applied, the audit append.
func (e *EscalationEngine) advance(ctx context.Context, report *primary.SweepReport, c *secondary.RequestRecord, now time.Time, reason, actor string, log *zap.Logger) {
	log = log.With(zap.String("request_id", c.ID), zap.Int("from_level", c.EscalationLevel))

	applied, err := e.requestRepo.ConditionalEscalate(ctx, c.ID, c.Status, c.EscalationLevel, now)
	if err != nil {
		report.WriteFailures++
		report.Failures = append(report.Failures, primary.SweepFailure{
			RequestID: c.ID,
			Kind:      primary.FailureKindWrite,
			Message:   err.Error(),
		})
		log.Error("escalation write failed", zap.Error(err))
		return
	}
	if !applied {
		report.Conflicts++
		e.observer.OnConflict(c.ID)
		log.Debug("request changed since selection, skipped")
		return
	}

	from, to := c.EscalationLevel, c.EscalationLevel+1
	report.Escalated++
	e.observer.OnEscalate(c.ID, from, to)
	log.Info("escalated request", zap.Int("to_level", to))

	entry := &secondary.EscalationLogRecord{
		RequestID:   c.ID,
		FromLevel:   from,
		ToLevel:     to,
		Reason:      reason,
		EscalatedBy: actor,
		CreatedAt:   now,
	}
	// The level advance stands even if the audit entry cannot be stored.
	if err := e.logRepo.Append(ctx, entry); err != nil {
		report.LogFailures++
		report.Failures = append(report.Failures, primary.SweepFailure{
			RequestID: c.ID,
			Kind:      primary.FailureKindLog,
			Message:   err.Error(),
		})
		e.observer.OnLogFailure(c.ID)
		log.Warn("escalation applied but audit entry not stored", zap.Int("to_level", to), zap.Error(err))
	}
}

func (e *EscalationEngine) recordRefusal(report *primary.SweepReport, requestID string, guard escalation.GuardResult, log *zap.Logger) {
	switch guard.Blocker {
	case escalation.BlockerAtCap:
		report.AtCap++
	case escalation.BlockerNotOverdue:
		report.NotDue++
	case escalation.BlockerInvalid:
		report.Invalid++
		report.Failures = append(report.Failures, primary.SweepFailure{
			RequestID: requestID,
			Kind:      primary.FailureKindInvalid,
			Message:   guard.Reason,
		})
		log.Warn("skipping malformed request", zap.String("request_id", requestID), zap.String("reason", guard.Reason))
	default:
		report.Ineligible++
		report.Failures = append(report.Failures, primary.SweepFailure{
			RequestID: requestID,
			Kind:      primary.FailureKindIneligible,
			Message:   guard.Reason,
		})
		log.Debug("request not eligible", zap.String("request_id", requestID), zap.String("reason", guard.Reason))
	}
}

func (e *EscalationEngine) newReport(trigger string, now time.Time) *primary.SweepReport {
	return &primary.SweepReport{
		RunID:     uuid.NewString(),
		Trigger:   trigger,
		StartedAt: now,
	}
}

// finish stamps, stores and logs a completed or aborted run. FinishedAt is
// StartedAt plus the elapsed stopwatch time.
func (e *EscalationEngine) finish(ctx context.Context, report *primary.SweepReport, began time.Time, err error, log *zap.Logger) {
	report.FinishedAt = report.StartedAt.Add(e.stopwatch.Now().Sub(began))
	if err != nil {
		report.Error = err.Error()
	}

	e.mu.Lock()
	e.last = report
	e.mu.Unlock()

	if e.runRepo != nil {
		// A cancelled sweep is still recorded.
		if saveErr := e.runRepo.Save(context.WithoutCancel(ctx), toRunRecord(report)); saveErr != nil {
			log.Warn("sweep report not stored", zap.Error(saveErr))
		}
	}

	e.observer.OnSweepComplete(report.Trigger, report.Duration(), err)

	fields := []zap.Field{
		zap.Int("considered", report.Considered),
		zap.Int("escalated", report.Escalated),
		zap.Int("conflicts", report.Conflicts),
		zap.Int("at_cap", report.AtCap),
		zap.Int("not_due", report.NotDue),
		zap.Int("invalid", report.Invalid),
		zap.Int("write_failures", report.WriteFailures),
		zap.Int("log_failures", report.LogFailures),
		zap.Duration("duration", report.Duration()),
	}
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		log.Warn("sweep cancelled", fields...)
	case err != nil:
		log.Error("sweep aborted", append(fields, zap.Error(err))...)
	default:
		log.Info("sweep complete", fields...)
	}
}

// LastSweepReport returns the most recent report, or nil before the first run.
// With a run store configured it reads the newest stored run, so it sees
// sweeps finished by other processes.
func (e *EscalationEngine) LastSweepReport(ctx context.Context) (*primary.SweepReport, error) {
	if e.runRepo == nil {
		e.mu.RLock()
		defer e.mu.RUnlock()
		return e.last, nil
	}

	run, err := e.runRepo.Latest(ctx)
	if errors.Is(err, secondary.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load last sweep report: %w", err)
	}
	return fromRunRecord(run), nil
}

// ListEscalationLogs retrieves audit entries matching the given filters.
func (e *EscalationEngine) ListEscalationLogs(ctx context.Context, filters primary.EscalationLogFilters) ([]*primary.EscalationLogEntry, error) {
	records, err := e.logRepo.List(ctx, secondary.EscalationLogFilters{
		RequestID: filters.RequestID,
		Limit:     filters.Limit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list escalation logs: %w", err)
	}

	entries := make([]*primary.EscalationLogEntry, len(records))
	for i, r := range records {
		entries[i] = &primary.EscalationLogEntry{
			ID:          r.ID,
			RequestID:   r.RequestID,
			FromLevel:   r.FromLevel,
			ToLevel:     r.ToLevel,
			Reason:      r.Reason,
			EscalatedBy: r.EscalatedBy,
			CreatedAt:   r.CreatedAt.Format(time.RFC3339),
		}
	}
	return entries, nil
}

func toRunRecord(r *primary.SweepReport) *secondary.SweepRunRecord {
	run := &secondary.SweepRunRecord{
		RunID:         r.RunID,
		Trigger:       r.Trigger,
		StartedAt:     r.StartedAt,
		FinishedAt:    r.FinishedAt,
		Considered:    r.Considered,
		Escalated:     r.Escalated,
		Conflicts:     r.Conflicts,
		AtCap:         r.AtCap,
		NotDue:        r.NotDue,
		Ineligible:    r.Ineligible,
		Invalid:       r.Invalid,
		WriteFailures: r.WriteFailures,
		LogFailures:   r.LogFailures,
		Cancelled:     r.Cancelled,
		Error:         r.Error,
	}
	for _, f := range r.Failures {
		run.Failures = append(run.Failures, secondary.SweepRunFailure{RequestID: f.RequestID, Kind: f.Kind, Message: f.Message})
	}
	return run
}

func fromRunRecord(run *secondary.SweepRunRecord) *primary.SweepReport {
	r := &primary.SweepReport{
		RunID:         run.RunID,
		Trigger:       run.Trigger,
		StartedAt:     run.StartedAt,
		FinishedAt:    run.FinishedAt,
		Considered:    run.Considered,
		Escalated:     run.Escalated,
		Conflicts:     run.Conflicts,
		AtCap:         run.AtCap,
		NotDue:        run.NotDue,
		Ineligible:    run.Ineligible,
		Invalid:       run.Invalid,
		WriteFailures: run.WriteFailures,
		LogFailures:   run.LogFailures,
		Cancelled:     run.Cancelled,
		Error:         run.Error,
	}
	for _, f := range run.Failures {
		r.Failures = append(r.Failures, primary.SweepFailure{RequestID: f.RequestID, Kind: f.Kind, Message: f.Message})
	}
	return r
}

func candidateContext(r *secondary.RequestRecord, now time.Time) escalation.CandidateContext {
	return escalation.CandidateContext{
		RequestID: r.ID,
		Status:    r.Status,
		Level:     r.EscalationLevel,
		CreatedAt: r.CreatedAt,
		Resolved:  r.ResolvedAt != nil,
		Now:       now,
	}
}

// Ensure EscalationEngine implements the interface
var _ primary.EscalationService = (*EscalationEngine)(nil)
