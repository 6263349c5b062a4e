// Package randsource provides the RandomSource collaborator used to
// fuzz the exponential backoff computation (spec §4.5.2).
package randsource

import "math/rand/v2"

// Source is a RandomSource backed by a math/rand/v2 generator. The zero
// value is not usable; construct with New or NewSeeded.
type Source struct {
	rng *rand.Rand
}

// New wraps an existing *rand.Rand, letting tests pin the sequence.
func New(rng *rand.Rand) *Source {
	return &Source{rng: rng}
}

// NewSeeded returns a Source seeded deterministically from seed1/seed2.
// In production the seeds come from crypto/rand (seedFromOS in
// cmd/payloadctl/controller.go).
func NewSeeded(seed1, seed2 uint64) *Source {
	return New(rand.New(rand.NewPCG(seed1, seed2)))
}

// Uniform returns a value drawn uniformly from [lo, hi]. If hi <= lo it
// returns lo.
func (s *Source) Uniform(lo, hi int64) int64 {
	if hi <= lo {
		return lo
	}
	return lo + s.rng.Int64N(hi-lo+1)
}
