package secondary

import "time"

// SweepObserver receives escalation engine events for monitoring. Calls are
// made synchronously from the sweep goroutine and must not block.
type SweepObserver interface {
	OnEscalate(requestID string, from, to int)
	OnConflict(requestID string)
	OnLogFailure(requestID string)
	OnSweepComplete(trigger string, duration time.Duration, err error)
	OnTickDropped()
}
