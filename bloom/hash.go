package bloom

import "github.com/cespare/xxhash/v2"

// h2Domain domain-separates the second hash from the first, the same
// prepend-a-domain-byte trick used for the two SHA-256 halves in
// Forestrie's bloom4 hashPairV1.
var h2Domain = byte(0x5A)

// hashPair derives two independent 64-bit hashes of key for the
// double-hashing construction h_i = (h1 + i*h2) mod M.
func hashPair(key []byte) (h1, h2 uint64) {
	h1 = xxhash.Sum64(key)

	d := xxhash.New()
	d.Write([]byte{h2Domain})
	d.Write(key)
	h2 = d.Sum64()
	if h2 == 0 {
		// a zero step would collapse every hash to h1; never produced
		// in practice, but keep the construction well-defined.
		h2 = 1
	}
	return h1, h2
}

// indexes returns the K cell positions in [0, m) addressed by key.
func indexes(key []byte, m uint32, k uint8, dst []uint32) []uint32 {
	h1, h2 := hashPair(key)
	if cap(dst) < int(k) {
		dst = make([]uint32, k)
	}
	dst = dst[:k]
	mm := uint64(m)
	for i := range dst {
		dst[i] = uint32((h1 + uint64(i)*h2) % mm)
	}
	return dst
}
