package bloom

import (
	"sync"
	"time"
)

// ManualClock is a Scheduler test double: time only moves when Advance
// is called, and registered callbacks fire synchronously as Advance
// crosses their interval boundaries, in the same override-the-clock
// spirit as events/pauser's `var nowFunc = time.Now` hook, but exposed
// as a full Scheduler so it can also stand in for a decay cadence.
type ManualClock struct {
	mu   sync.Mutex
	now  time.Time
	next int
	cbs  map[int]*manualCallback
}

type manualCallback struct {
	fn       func()
	interval time.Duration
	nextFire time.Time
}

// NewManualClock returns a ManualClock starting at start.
func NewManualClock(start time.Time) *ManualClock {
	return &ManualClock{now: start, cbs: make(map[int]*manualCallback)}
}

func (m *ManualClock) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

func (m *ManualClock) SchedulePeriodic(callback func(), interval time.Duration) Handle {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.next
	m.next++
	m.cbs[id] = &manualCallback{fn: callback, interval: interval, nextFire: m.now.Add(interval)}
	return id
}

func (m *ManualClock) Cancel(handle Handle) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := handle.(int)
	if !ok {
		return
	}
	delete(m.cbs, id)
}

// Advance moves the clock forward by d, firing any registered
// callback once for each interval boundary it crosses, in chronological
// order, so a decay callback scheduled every decay_time/2 fires the
// same number of times a real ticker would have over that span.
func (m *ManualClock) Advance(d time.Duration) {
	m.mu.Lock()
	target := m.now.Add(d)
	m.mu.Unlock()

	for {
		m.mu.Lock()
		var earliestID = -1
		var earliestTime time.Time
		for id, cb := range m.cbs {
			if cb.nextFire.After(target) {
				continue
			}
			if earliestID == -1 || cb.nextFire.Before(earliestTime) {
				earliestID = id
				earliestTime = cb.nextFire
			}
		}
		if earliestID == -1 {
			m.now = target
			m.mu.Unlock()
			return
		}
		cb := m.cbs[earliestID]
		m.now = cb.nextFire
		cb.nextFire = cb.nextFire.Add(cb.interval)
		fn := cb.fn
		m.mu.Unlock()
		fn()
	}
}

// SetNow jumps the clock directly to t without firing callbacks,
// useful for tests that drive Decay explicitly rather than through
// the scheduler (spec scenarios specify wall-clock times, not elapsed
// durations).
func (m *ManualClock) SetNow(t time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = t
}
