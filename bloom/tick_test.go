package bloom

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTickClockCurrentRange(t *testing.T) {
	clock := newTickClock(15 * time.Second)
	base := time.Unix(1_700_000_000, 0)
	seen := map[uint8]bool{}
	for i := 0; i < 200; i++ {
		tick := clock.current(base.Add(time.Duration(i) * time.Second))
		require.GreaterOrEqual(t, tick, uint8(1))
		require.LessOrEqual(t, tick, uint8(ticksPerRing))
		seen[tick] = true
	}
	require.Len(t, seen, ticksPerRing, "tick should cycle through all 15 nonzero values")
}

func TestTickClockCurrentNeverZero(t *testing.T) {
	clock := newTickClock(time.Second)
	for i := 0; i < 1000; i++ {
		require.NotEqual(t, uint8(0), clock.current(time.Unix(int64(i), 0)))
	}
}

func TestWindowContainsLinear(t *testing.T) {
	// tickMin=3, tickMax=9: fresh is (3,9]
	require.False(t, windowContains(3, 9, 3))
	require.True(t, windowContains(3, 9, 4))
	require.True(t, windowContains(3, 9, 9))
	require.False(t, windowContains(3, 9, 10))
	require.False(t, windowContains(3, 9, 0))
}

func TestWindowContainsWrap(t *testing.T) {
	// tickMin=12, tickMax=3: fresh wraps through 15 back to 3.
	require.True(t, windowContains(12, 3, 13))
	require.True(t, windowContains(12, 3, 15))
	require.True(t, windowContains(12, 3, 1))
	require.True(t, windowContains(12, 3, 3))
	require.False(t, windowContains(12, 3, 4))
	require.False(t, windowContains(12, 3, 12))
}

func TestWindowContainsFullRotation(t *testing.T) {
	// tickMin == tickMax: a full rotation elapsed, every nonzero tick is fresh.
	for v := uint8(1); v <= ticksPerRing; v++ {
		require.True(t, windowContains(7, 7, v))
	}
	require.False(t, windowContains(7, 7, 0))
}

func TestWindowContainsAllPairs(t *testing.T) {
	// Invariant 5: the predicate must be well-defined (no panics, always
	// a bool) for every pair in {1..15}^2 and every candidate tick.
	for min := uint8(1); min <= ticksPerRing; min++ {
		for max := uint8(1); max <= ticksPerRing; max++ {
			for v := uint8(0); v <= ticksPerRing; v++ {
				_ = windowContains(min, max, v)
			}
		}
	}
}

func TestTickClockWindowWraps(t *testing.T) {
	clock := newTickClock(15 * time.Second)
	now := time.Unix(1_700_000_300, 0)
	tickMin, tickMax := clock.window(now)
	require.Equal(t, clock.current(now), tickMax)
	require.Equal(t, clock.current(now.Add(-15*time.Second)), tickMin)
}
