package bloom

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHashPairDeterministic(t *testing.T) {
	h1a, h2a := hashPair([]byte("alpha"))
	h1b, h2b := hashPair([]byte("alpha"))
	require.Equal(t, h1a, h1b)
	require.Equal(t, h2a, h2b)
}

func TestHashPairIndependent(t *testing.T) {
	h1, h2 := hashPair([]byte("alpha"))
	require.NotEqual(t, h1, h2, "the two hashes should not trivially collide")
}

func TestIndexesWithinRange(t *testing.T) {
	var dst []uint32
	for _, key := range [][]byte{[]byte("a"), []byte("bb"), []byte("a-much-longer-key-value")} {
		dst = indexes(key, 997, 7, dst)
		require.Len(t, dst, 7)
		for _, idx := range dst {
			require.Less(t, idx, uint32(997))
		}
	}
}

func TestIndexesStableForSameKey(t *testing.T) {
	a := indexes([]byte("stable"), 1009, 5, nil)
	b := indexes([]byte("stable"), 1009, 5, nil)
	require.Equal(t, a, b)
}
