package navigation

import "math"

// Follower walks an agent along a list of waypoints, popping each once it is reached.
type Follower struct {
	Speed          float64 // Units per second
	ReachThreshold float64 // A waypoint closer than this counts as reached

	waypoints []Waypoint
	heading   float64
}

// NewFollower creates a follower with no path.
func NewFollower(speed, reachThreshold float64) *Follower {
	return &Follower{Speed: speed, ReachThreshold: reachThreshold}
}

// SetPath replaces the remaining waypoints and faces the first one from (x, z).
func (f *Follower) SetPath(waypoints []Waypoint, x, z float64) {
	f.waypoints = append(f.waypoints[:0], waypoints...)
	f.faceNext(x, z)
}

// Len returns the number of waypoints left.
func (f *Follower) Len() int {
	return len(f.waypoints)
}

// Waypoints returns the remaining waypoints. The slice must not be modified.
func (f *Follower) Waypoints() []Waypoint {
	return f.waypoints
}

// Heading returns the local heading in degrees toward the current waypoint.
func (f *Follower) Heading() float64 {
	return f.heading
}

// Step advances (x, z) toward the next waypoint by Speed*dt and returns the new position.
// Reaching a waypoint consumes the step.
func (f *Follower) Step(x, z, dt float64) (float64, float64) {
	if len(f.waypoints) == 0 {
		return x, z
	}

	next := f.waypoints[0]
	dx := next.X - x
	dz := next.Z - z
	dist2 := dx*dx + dz*dz

	if dist2 <= f.ReachThreshold*f.ReachThreshold {
		f.waypoints = f.waypoints[1:]
		f.faceNext(x, z)
		return x, z
	}

	dist := math.Sqrt(dist2)
	move := f.Speed * dt
	if move > dist {
		move = dist
	}
	return x + dx/dist*move, z + dz/dist*move
}

func (f *Follower) faceNext(x, z float64) {
	if len(f.waypoints) == 0 {
		return
	}
	dx := f.waypoints[0].X - x
	dz := f.waypoints[0].Z - z
	if dx == 0 && dz == 0 {
		return
	}
	f.heading = LocalAngle(dx, dz)
}
