package random

import (
	"math"
	"testing"
)

type scripted struct {
	values []float64
	i      int
}

func (s *scripted) Float64() float64 {
	v := s.values[s.i%len(s.values)]
	s.i++
	return v
}

func (s *scripted) Range(min, max float64) float64 { return min + s.Float64()*(max-min) }
func (s *scripted) IntRange(min, max int) int      { return IntRange(s, min, max) }

func TestSameSeedSameSequence(t *testing.T) {
	a := New(42)
	b := New(42)
	for i := 0; i < 100; i++ {
		if a.Float64() != b.Float64() {
			t.Fatalf("sequences diverged at draw %d", i)
		}
	}
}

func TestRangeBounds(t *testing.T) {
	r := New(7)
	for i := 0; i < 1000; i++ {
		v := r.Range(-3, 5)
		if v < -3 || v >= 5 {
			t.Fatalf("Range out of bounds: %f", v)
		}
		n := r.IntRange(2, 6)
		if n < 2 || n >= 6 {
			t.Fatalf("IntRange out of bounds: %d", n)
		}
	}
}

func TestIntRangeEdges(t *testing.T) {
	s := &scripted{values: []float64{0.9999999999}}
	if got := IntRange(s, 0, 4); got != 3 {
		t.Errorf("expected 3, got %d", got)
	}
	if got := IntRange(s, 5, 5); got != 5 {
		t.Errorf("expected min for empty range, got %d", got)
	}
}

func TestUnitVectorIsNormalized(t *testing.T) {
	s := &scripted{values: []float64{0, 0.25, 0.5, 0.8}}
	for i := 0; i < 4; i++ {
		x, y := UnitVector(s)
		if l := math.Hypot(x, y); math.Abs(l-1) > 1e-12 {
			t.Errorf("expected unit length, got %f", l)
		}
	}
}
