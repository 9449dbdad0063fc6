package consolidate

import (
	"math/rand/v2"
)

// DefaultSampleSize caps the smoke-test sample.
const DefaultSampleSize = 1000

// Sample draws up to n distinct rows uniformly at random. The same seed and
// input always produce the same sample.
func Sample[T any](rows []T, n int, seed uint64) []T {
	if n <= 0 || len(rows) == 0 {
		return []T{}
	}
	if n > len(rows) {
		n = len(rows)
	}

	idx := make([]int, len(rows))
	for i := range idx {
		idx[i] = i
	}

	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	// partial Fisher-Yates: only the first n positions are shuffled
	for i := 0; i < n; i++ {
		j := i + rng.IntN(len(idx)-i)
		idx[i], idx[j] = idx[j], idx[i]
	}

	out := make([]T, n)
	for i := 0; i < n; i++ {
		out[i] = rows[idx[i]]
	}
	return out
}
