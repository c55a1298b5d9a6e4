package bloom

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestComputeMIncreasesWithCapacity(t *testing.T) {
	small := computeM(100, 0.01)
	large := computeM(10000, 0.01)
	require.Less(t, small, large)
}

func TestComputeMTighterErrorNeedsMoreCells(t *testing.T) {
	loose := computeM(1000, 0.1)
	tight := computeM(1000, 0.001)
	require.Less(t, loose, tight)
}

func TestComputeKAtLeastOne(t *testing.T) {
	require.GreaterOrEqual(t, computeK(8, 1000), uint8(1))
}

func TestComputeMK1000at0_002(t *testing.T) {
	m := computeM(1000, 0.002)
	k := computeK(m, 1000)
	require.Greater(t, m, uint32(0))
	require.GreaterOrEqual(t, k, uint8(1))
}
