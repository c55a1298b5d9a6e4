package bloom

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestManualClockAdvanceFiresCallback(t *testing.T) {
	clock := NewManualClock(time.Unix(0, 0))
	var fires int
	clock.SchedulePeriodic(func() { fires++ }, time.Second)

	clock.Advance(3500 * time.Millisecond)
	require.Equal(t, 3, fires)
}

func TestManualClockCancelStopsFiring(t *testing.T) {
	clock := NewManualClock(time.Unix(0, 0))
	var fires int
	h := clock.SchedulePeriodic(func() { fires++ }, time.Second)

	clock.Advance(2 * time.Second)
	require.Equal(t, 2, fires)

	clock.Cancel(h)
	clock.Advance(5 * time.Second)
	require.Equal(t, 2, fires)
}

func TestManualClockNowTracksAdvance(t *testing.T) {
	start := time.Unix(1000, 0)
	clock := NewManualClock(start)
	clock.Advance(10 * time.Second)
	require.Equal(t, start.Add(10*time.Second), clock.Now())
}

func TestManualClockMultipleCallbacksOrdered(t *testing.T) {
	clock := NewManualClock(time.Unix(0, 0))
	var order []string
	clock.SchedulePeriodic(func() { order = append(order, "fast") }, 300*time.Millisecond)
	clock.SchedulePeriodic(func() { order = append(order, "slow") }, time.Second)

	clock.Advance(time.Second)
	require.Equal(t, []string{"fast", "fast", "fast", "slow"}, order)
}
