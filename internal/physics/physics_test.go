package physics

import (
	"math"
	"testing"
)

func TestCirclesOverlapTangentIsNotOverlap(t *testing.T) {
	if CirclesOverlap(0, 0, 1, 2, 0, 1) {
		t.Error("expected tangent circles not to overlap")
	}
	if !CirclesOverlap(0, 0, 1, 1.99, 0, 1) {
		t.Error("expected circles to overlap")
	}
}

func TestPointInCircle(t *testing.T) {
	if !PointInCircle(3, 4, 0, 0, 5) {
		t.Error("expected point on the rim to be inside")
	}
	if PointInCircle(3, 4.01, 0, 0, 5) {
		t.Error("expected point outside")
	}
}

func TestRayCircleIntersection(t *testing.T) {
	t0, t1, ok := RayCircleIntersection(0, 0, 0, 1, 0, 10, 4)
	if !ok {
		t.Fatal("expected a hit")
	}
	if math.Abs(t0-8) > 1e-12 || math.Abs(t1-12) > 1e-12 {
		t.Errorf("expected [8, 12], got [%f, %f]", t0, t1)
	}

	if _, _, ok := RayCircleIntersection(0, 0, 1, 0, 0, 10, 4); ok {
		t.Error("expected a miss for a perpendicular ray")
	}

	// Origin inside the circle: entry lies behind the origin.
	t0, t1, ok = RayCircleIntersection(0, 0, 1, 0, 0, 0, 9)
	if !ok || t0 != -3 || t1 != 3 {
		t.Errorf("expected [-3, 3], got [%f, %f] ok=%v", t0, t1, ok)
	}
}

func TestCircleIntersectsSquare(t *testing.T) {
	tests := []struct {
		name           string
		cx, cy, r      float64
		sx, sy, half   float64
		wantIntersects bool
	}{
		{"centre inside", 0.1, 0.1, 0.01, 0, 0, 0.5, true},
		{"touching edge", 1.5, 0, 1, 0, 0, 0.5, true},
		{"near corner outside", 1, 1, 0.6, 0, 0, 0.5, false},
		{"near corner inside", 1, 1, 0.8, 0, 0, 0.5, true},
		{"far away", 5, 0, 1, 0, 0, 0.5, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CircleIntersectsSquare(tt.cx, tt.cy, tt.r, tt.sx, tt.sy, tt.half)
			if got != tt.wantIntersects {
				t.Errorf("expected %v, got %v", tt.wantIntersects, got)
			}
		})
	}
}

func TestSpatialGridQueryRadius(t *testing.T) {
	g := NewSpatialGrid(100, 10)
	g.Insert(0, 0, 0)
	g.Insert(25, 0, 1)
	g.Insert(-95, 95, 2)
	g.Insert(500, 500, 3) // clamped into the corner cell

	found := map[int]bool{}
	g.QueryRadius(0, 0, 30, func(i int) bool {
		found[i] = true
		return false
	})
	if !found[0] || !found[1] {
		t.Errorf("expected items 0 and 1, got %v", found)
	}
	if found[2] || found[3] {
		t.Errorf("expected far items to be skipped, got %v", found)
	}

	corner := false
	g.QueryRadius(99, 99, 1, func(i int) bool {
		corner = i == 3
		return corner
	})
	if !corner {
		t.Error("expected clamped item in the corner cell")
	}

	g.Clear()
	g.QueryRadius(0, 0, 200, func(i int) bool {
		t.Errorf("expected empty grid, got item %d", i)
		return false
	})
}
