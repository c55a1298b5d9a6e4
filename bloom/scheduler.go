package bloom

import (
	"sync"
	"time"
)

// Handle identifies a periodic callback registered with a Scheduler,
// opaque to callers and only meaningful to the Scheduler that issued it.
type Handle any

// Scheduler is the injected clock/event-loop capability the core runs
// its decay sweep on. The core never binds to a specific event loop;
// callers supply a real clock, a manual test clock, or an adapter onto
// their own loop.
type Scheduler interface {
	// SchedulePeriodic registers callback to run roughly every interval,
	// returning a Handle that Cancel can later stop.
	SchedulePeriodic(callback func(), interval time.Duration) Handle
	// Cancel deregisters a previously scheduled callback. Canceling an
	// already-canceled or unknown handle is a no-op.
	Cancel(handle Handle)
	// Now returns the scheduler's notion of the current time.
	Now() time.Time
}

// realScheduler drives callbacks from real wall-clock time using a
// time.Ticker per registration, the same one-goroutine-per-periodic-task
// shape as events/pauser's ticker loop in the teacher repo.
type realScheduler struct{}

// NewRealScheduler returns a Scheduler backed by the process clock.
func NewRealScheduler() Scheduler { return realScheduler{} }

func (realScheduler) Now() time.Time { return time.Now() }

func (realScheduler) SchedulePeriodic(callback func(), interval time.Duration) Handle {
	ticker := time.NewTicker(interval)
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				callback()
			}
		}
	}()
	return &realHandle{ticker: ticker, done: done}
}

func (realScheduler) Cancel(handle Handle) {
	rh, ok := handle.(*realHandle)
	if !ok || rh == nil {
		return
	}
	rh.once.Do(func() {
		rh.ticker.Stop()
		close(rh.done)
	})
}

type realHandle struct {
	ticker *time.Ticker
	done   chan struct{}
	once   sync.Once
}
