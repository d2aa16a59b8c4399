package app

import (
	"time"

	"github.com/example/maintd/internal/ports/secondary"
)

// NopSweepObserver ignores every event.
type NopSweepObserver struct{}

func (NopSweepObserver) OnEscalate(string, int, int) {}

func (NopSweepObserver) OnConflict(string) {}

func (NopSweepObserver) OnLogFailure(string) {}

func (NopSweepObserver) OnSweepComplete(string, time.Duration, error) {}

func (NopSweepObserver) OnTickDropped() {}

var _ secondary.SweepObserver = NopSweepObserver{}
