package bloom

import "time"

// ticksPerRing is T-1: the number of distinct nonzero tick values a
// 4-bit cell can hold (tick 0 is reserved for "empty").
const ticksPerRing = 15

// ticksPerWindow is the number of tick increments one decay_time spans.
// Reserving only half the ring for the decay window (rather than the
// full ring) keeps tick_min and tick_max a non-degenerate distance
// apart, so a stale cell's tick can actually fall outside
// (tick_min, tick_max] instead of every nonzero cell trivially matching
// a full rotation later. Mirrors the original implementation's split
// between window ticks and the slack ticks that absorb clock drift.
const ticksPerWindow = ticksPerRing / 2

// tickClock maps wall-clock time to a small cyclic counter in
// [1, ticksPerRing] and exposes the valid window that defines "fresh"
// at a given instant.
type tickClock struct {
	decayTime time.Duration
	delta     time.Duration
}

func newTickClock(decayTime time.Duration) *tickClock {
	return &tickClock{
		decayTime: decayTime,
		delta:     decayTime / ticksPerWindow,
	}
}

// current returns tick(t) = 1 + (floor(t/delta) mod ticksPerRing).
func (c *tickClock) current(t time.Time) uint8 {
	buckets := t.UnixNano() / int64(c.delta)
	return uint8(1+buckets%ticksPerRing) & 0x0F
}

// window returns (tick_min, tick_max) for time t: tick_max is
// current(t), tick_min is current one decay_time earlier.
func (c *tickClock) window(t time.Time) (tickMin, tickMax uint8) {
	tickMax = c.current(t)
	tickMin = c.current(t.Add(-c.decayTime))
	return tickMin, tickMax
}

// windowContains tests whether tick v lies in the half-open cyclic
// interval (tickMin, tickMax]. When tickMin < tickMax the window is
// linear; otherwise it wraps through ticksPerRing and back.
func windowContains(tickMin, tickMax, v uint8) bool {
	if v == 0 {
		return false
	}
	if tickMin < tickMax {
		return tickMin < v && v <= tickMax
	}
	return v > tickMin || v <= tickMax
}
