package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/example/maintd/internal/clock"
	"github.com/example/maintd/internal/ports/primary"
	"github.com/example/maintd/internal/ports/secondary"
)

// ErrSweepInProgress is returned by TriggerNow when another sweep is running.
var ErrSweepInProgress = errors.New("a sweep is already in progress")

// SweepRunner is the part of the escalation engine the scheduler drives.
type SweepRunner interface {
	RunSweep(ctx context.Context, now time.Time) (*primary.SweepReport, error)
	RunScheduledSweep(ctx context.Context, now time.Time) (*primary.SweepReport, error)
}

// SweepScheduler runs the escalation sweep on a fixed cadence. At most one
// sweep runs at a time: a tick that fires while a sweep is running is
// dropped, not queued.
type SweepScheduler struct {
	runner   SweepRunner
	clock    clock.Clock
	interval time.Duration
	observer secondary.SweepObserver
	logger   *zap.Logger

	running atomic.Bool
	dropped atomic.Int64

	mu     sync.Mutex
	cron   *cron.Cron
	cancel context.CancelFunc
}

// SchedulerOption configures a SweepScheduler.
type SchedulerOption func(*SweepScheduler)

// WithSchedulerLogger sets the scheduler's logger.
func WithSchedulerLogger(l *zap.Logger) SchedulerOption {
	return func(s *SweepScheduler) {
		s.logger = l
	}
}

// WithSchedulerObserver sets the observer notified of dropped ticks.
func WithSchedulerObserver(o secondary.SweepObserver) SchedulerOption {
	return func(s *SweepScheduler) {
		s.observer = o
	}
}

// NewSweepScheduler creates a scheduler that calls runner every interval,
// passing clk.Now() as the sweep time.
func NewSweepScheduler(runner SweepRunner, clk clock.Clock, interval time.Duration, opts ...SchedulerOption) *SweepScheduler {
	s := &SweepScheduler{
		runner:   runner,
		clock:    clk,
		interval: interval,
		observer: NopSweepObserver{},
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start arms the timer. Sweeps run with a context derived from ctx; Stop
// cancels it.
func (s *SweepScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron != nil {
		return errors.New("scheduler already started")
	}
	if s.interval <= 0 {
		return fmt.Errorf("invalid sweep interval %s", s.interval)
	}

	runCtx, cancel := context.WithCancel(ctx)
	logger := cronLogger{s.logger.Sugar()}
	c := cron.New(
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger)),
	)
	if _, err := c.AddFunc(fmt.Sprintf("@every %s", s.interval), func() { s.tick(runCtx) }); err != nil {
		cancel()
		return fmt.Errorf("failed to schedule sweep: %w", err)
	}

	c.Start()
	s.cron = c
	s.cancel = cancel
	s.logger.Info("sweep scheduler started", zap.Duration("interval", s.interval))
	return nil
}

// Stop disarms the timer, tells a running sweep to stop issuing writes and
// waits for it to return. Safe to call more than once.
func (s *SweepScheduler) Stop() {
	s.mu.Lock()
	c, cancel := s.cron, s.cancel
	s.cron, s.cancel = nil, nil
	s.mu.Unlock()

	if c == nil {
		return
	}

	done := c.Stop()
	cancel()
	<-done.Done()
	s.logger.Info("sweep scheduler stopped", zap.Int64("dropped_ticks", s.dropped.Load()))
}

// TriggerNow runs a sweep synchronously at the given time, outside the timer.
// It fails with ErrSweepInProgress rather than overlap a running sweep.
func (s *SweepScheduler) TriggerNow(ctx context.Context, now time.Time) (*primary.SweepReport, error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, ErrSweepInProgress
	}
	defer s.running.Store(false)

	return s.runner.RunSweep(ctx, now)
}

// Running reports whether a sweep is in progress.
func (s *SweepScheduler) Running() bool {
	return s.running.Load()
}

// DroppedTicks returns how many ticks were skipped because a sweep was running.
func (s *SweepScheduler) DroppedTicks() int64 {
	return s.dropped.Load()
}

// tick runs one scheduled sweep unless one is already running. Errors are
// logged; they never stop the scheduler. It reports whether a sweep ran.
func (s *SweepScheduler) tick(ctx context.Context) bool {
	if !s.running.CompareAndSwap(false, true) {
		s.dropped.Add(1)
		s.observer.OnTickDropped()
		s.logger.Warn("previous sweep still running, tick dropped")
		return false
	}
	defer s.running.Store(false)

	if ctx.Err() != nil {
		return false
	}

	if _, err := s.runner.RunScheduledSweep(ctx, s.clock.Now()); err != nil {
		s.logger.Error("scheduled sweep failed", zap.Error(err))
	}
	return true
}

// cronLogger adapts zap to cron.Logger.
type cronLogger struct {
	l *zap.SugaredLogger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Debugw(msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Errorw(msg, append(keysAndValues, "error", err)...)
}
