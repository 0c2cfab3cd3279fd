// Package random provides the injectable random source used by layout and navigation.
package random

import (
	"math"
	"math/rand"
	"sync"
)

// Source is the random capability the core consumes.
// Implementations must return Float64 values in [0, 1).
type Source interface {
	Float64() float64
	// Range returns a value in [min, max).
	Range(min, max float64) float64
	// IntRange returns an integer in [min, max). Returns min if max <= min.
	IntRange(min, max int) int
}

// Rand is a seeded Source safe for use from multiple goroutines.
type Rand struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// Compile-time check that Rand implements Source.
var _ Source = (*Rand)(nil)

// New creates a deterministic source for the given seed.
func New(seed int64) *Rand {
	return &Rand{rng: rand.New(rand.NewSource(seed))}
}

// Float64 returns a value in [0, 1).
func (r *Rand) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rng.Float64()
}

// Range returns a value in [min, max).
func (r *Rand) Range(min, max float64) float64 {
	return min + r.Float64()*(max-min)
}

// IntRange returns an integer in [min, max).
func (r *Rand) IntRange(min, max int) int {
	return IntRange(r, min, max)
}

// IntRange derives an integer in [min, max) from src.Float64.
// Shared by Source implementations that only produce floats.
func IntRange(src Source, min, max int) int {
	if max <= min {
		return min
	}
	n := min + int(math.Floor(src.Float64()*float64(max-min)))
	if n >= max {
		n = max - 1
	}
	return n
}

// UnitVector returns a uniformly distributed direction on the unit circle.
func UnitVector(src Source) (x, y float64) {
	angle := src.Float64() * 2 * math.Pi
	return math.Cos(angle), math.Sin(angle)
}
