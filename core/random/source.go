// Package random provides the single seeded stream every stochastic decision
// of a simulation run draws from. Two runs created with the same seed and
// consuming draws in the same order produce identical results.
package random

import (
	"fmt"
	"math/rand"
)

// Source wraps a seeded math/rand generator.
//
// Thread-safety: NOT thread-safe. Must be called from a single goroutine.
type Source struct {
	seed int64
	rng  *rand.Rand
}

// New creates a Source seeded with seed.
func New(seed int64) *Source {
	return &Source{seed: seed, rng: rand.New(rand.NewSource(seed))}
}

// Seed returns the seed the Source was created with.
func (s *Source) Seed() int64 { return s.seed }

// Float64 returns a uniform real in [0,1).
func (s *Source) Float64() float64 { return s.rng.Float64() }

// Intn returns a uniform integer in [0,n). It panics if n <= 0.
func (s *Source) Intn(n int) int { return s.rng.Intn(n) }

// IntRange returns a uniform integer in the closed range [lo,hi].
func (s *Source) IntRange(lo, hi int) int {
	if hi < lo {
		panic(fmt.Sprintf("random: empty range [%d,%d]", lo, hi))
	}
	return lo + s.rng.Intn(hi-lo+1)
}

// Shuffle permutes n elements in place using swap (Fisher-Yates).
func (s *Source) Shuffle(n int, swap func(i, j int)) { s.rng.Shuffle(n, swap) }

// Choice picks a uniformly random element of items. ok is false when items is empty.
func Choice[T any](s *Source, items []T) (v T, ok bool) {
	if len(items) == 0 {
		return v, false
	}
	return items[s.rng.Intn(len(items))], true
}
