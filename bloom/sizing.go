package bloom

import "math"

// ln2Squared is (ln 2)^2, used by the standard Bloom sizing formula.
var ln2Squared = math.Ln2 * math.Ln2

// computeM returns M = ceil(-capacity*ln(error) / (ln 2)^2), the cell
// count that bounds the false-positive rate to error at capacity.
func computeM(capacity int, errorRate float64) uint32 {
	m := math.Ceil(-float64(capacity) * math.Log(errorRate) / ln2Squared)
	if m < 1 {
		m = 1
	}
	return uint32(m)
}

// computeK returns K = ceil((M/capacity)*ln 2), the number of hash
// positions per insert.
func computeK(m uint32, capacity int) uint8 {
	k := math.Ceil(float64(m) / float64(capacity) * math.Ln2)
	if k < 1 {
		k = 1
	}
	if k > 255 {
		k = 255
	}
	return uint8(k)
}
