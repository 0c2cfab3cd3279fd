// Package physics provides collision detection, spatial indexes and the circle packing solver.
package physics

import "math"

// Distance calculates the Euclidean distance between two points.
func Distance(x1, y1, x2, y2 float64) float64 {
	dx := x2 - x1
	dy := y2 - y1
	return math.Sqrt(dx*dx + dy*dy)
}

// DistanceSquared calculates the squared distance between two points.
// Use this when comparing distances to avoid the sqrt cost.
func DistanceSquared(x1, y1, x2, y2 float64) float64 {
	dx := x2 - x1
	dy := y2 - y1
	return dx*dx + dy*dy
}

// PointInCircle checks if a point is within radius of a target position.
func PointInCircle(px, py, cx, cy, radius float64) bool {
	return DistanceSquared(px, py, cx, cy) <= radius*radius
}

// CirclesOverlap checks if two circles overlap. Tangent circles do not overlap.
func CirclesOverlap(x1, y1, r1, x2, y2, r2 float64) bool {
	minDist := r1 + r2
	return DistanceSquared(x1, y1, x2, y2) < minDist*minDist
}

// RayCircleIntersection intersects the ray origin+t*dir with the circle centred at (cx, cy)
// whose squared radius is r2. dir must be normalized.
// t0 <= t1 are the distances along the ray of both crossings; either may be negative when the
// crossing lies behind the origin. ok is false when the supporting line misses the circle.
func RayCircleIntersection(ox, oy, dirX, dirY, cx, cy, r2 float64) (t0, t1 float64, ok bool) {
	scx := ox - cx
	scy := oy - cy
	scd := scx*dirX + scy*dirY

	delta := scd*scd - (scx*scx + scy*scy) + r2
	if delta < 0 {
		return 0, 0, false
	}

	delta = math.Sqrt(delta)
	return -scd - delta, -scd + delta, true
}

// CircleIntersectsSquare reports whether the circle (cx, cy, r) touches the axis-aligned
// square centred on (sx, sy) with the given half size. Boundaries are inclusive.
func CircleIntersectsSquare(cx, cy, r, sx, sy, halfSize float64) bool {
	closestX := math.Max(sx-halfSize, math.Min(cx, sx+halfSize))
	closestY := math.Max(sy-halfSize, math.Min(cy, sy+halfSize))
	return DistanceSquared(cx, cy, closestX, closestY) <= r*r
}
