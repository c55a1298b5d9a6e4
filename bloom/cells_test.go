package bloom

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPackedCellsNibbleBoundary(t *testing.T) {
	// M forced to 5 (odd): cell 4 is the high nibble of byte 2.
	c := newPackedCells(5)
	require.Equal(t, uint32(3), uint32(len(c.data)))

	prev := c.set(4, 7)
	require.Equal(t, uint8(0), prev)
	require.Equal(t, uint8(7), c.get(4))

	// the low nibble of byte 2 (cell 5, out of M's logical range but
	// still addressable in the backing byte) must be untouched.
	require.Equal(t, uint8(0), c.get(5))
}

func TestPackedCellsSetPreservesSibling(t *testing.T) {
	c := newPackedCells(4)
	c.set(0, 9)
	c.set(1, 3)
	require.Equal(t, uint8(9), c.get(0))
	require.Equal(t, uint8(3), c.get(1))

	prev := c.set(0, 5)
	require.Equal(t, uint8(9), prev)
	require.Equal(t, uint8(5), c.get(0))
	require.Equal(t, uint8(3), c.get(1), "sibling nibble must survive a neighbor's set")
}

func TestPackedCellsClear(t *testing.T) {
	c := newPackedCells(2)
	c.set(0, 4)
	c.set(1, 8)
	prev := c.clear(0)
	require.Equal(t, uint8(4), prev)
	require.Equal(t, uint8(0), c.get(0))
	require.Equal(t, uint8(8), c.get(1))
}

func TestPackedCellsLen(t *testing.T) {
	c := newPackedCells(17)
	require.Equal(t, uint32(17), c.len())
}
