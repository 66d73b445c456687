package zone

import (
	"math"

	bitsbloom "github.com/bits-and-blooms/bloom/v3"
)

const defaultFalsePositiveRate = 0.01

// filter is a bloom prefilter over zone names. A negative answer means the
// name is certainly absent, so most misses skip the map entirely.
// It is written only while the Zone is built.
type filter struct {
	bf *bitsbloom.BloomFilter
}

func newFilter(capacity uint64, fpRate float64) *filter {
	m, k := size(capacity, fpRate)
	return &filter{bf: bitsbloom.New(uint(m), uint(k))}
}

func (f *filter) Add(key []byte) {
	f.bf.Add(key)
}

func (f *filter) MightContain(key []byte) bool {
	return f.bf.Test(key)
}

// size computes the bit count m and hash count k for n keys at false positive
// rate p:
//
//	m = - (n * ln p) / (ln 2)^2
//	k = (m / n) * ln 2
//
// Both are clamped to at least 1.
func size(n uint64, p float64) (uint64, uint8) {
	if n == 0 {
		n = 1
	}
	if !(p > 0 && p < 1) {
		p = defaultFalsePositiveRate
	}
	ln2 := math.Ln2
	m := uint64(math.Ceil(-float64(n) * math.Log(p) / (ln2 * ln2)))
	if m == 0 {
		m = 1
	}
	k := uint8(math.Max(1, math.Round((float64(m)/float64(n))*ln2)))
	return m, k
}
