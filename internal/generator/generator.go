// Package generator produces the pseudo-random input arrays sorted by a
// sweep. A fixed seed yields the same sequence on every platform.
package generator

import (
	"math/rand/v2"
)

// seedMix decorrelates the two PCG state words derived from one seed.
const seedMix = 0x9e3779b97f4a7c15

// Source is a seeded generator of bounded non-negative integers. It is not
// safe for concurrent use.
type Source struct {
	rng *rand.Rand
}

// New returns a Source seeded with seed.
func New(seed uint64) *Source {
	return &Source{rng: rand.New(rand.NewPCG(seed, seed^seedMix))}
}

// Fill overwrites dst with values in [0, bound). It panics if bound <= 0.
func (s *Source) Fill(dst []int, bound int) {
	for i := range dst {
		dst[i] = s.rng.IntN(bound)
	}
}

// Ints returns n values in [0, bound).
func (s *Source) Ints(n, bound int) []int {
	xs := make([]int, n)
	s.Fill(xs, bound)
	return xs
}
