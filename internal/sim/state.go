package sim

import (
	"github.com/google/uuid"

	"github.com/tomz197/seaspot/internal/navigation"
	"github.com/tomz197/seaspot/internal/sea"
)

// Circle is a circle in local disc coordinates.
type Circle struct {
	X, Z   float64
	Radius float64
}

// ObjectState is the rendered state of a shown prop or island.
type ObjectState struct {
	ID      uuid.UUID
	Kind    sea.Kind
	Name    string
	X, Z    float64
	Radius  float64  // Effective radius
	Members []Circle // Island members; shared between snapshots, never modified
}

// BoatState is the rendered state of a boat.
type BoatState struct {
	ID      uuid.UUID
	X, Z    float64
	Heading float64 // Local heading in degrees
	Radius  float64
	Path    []navigation.Waypoint // Remaining waypoints
}

// Snapshot is an immutable view of the simulation for viewers.
type Snapshot struct {
	Tick    uint64
	Time    float64 // Simulated seconds
	Angle   float64 // Disc angle in degrees
	Objects []ObjectState
	Boats   []BoatState
	Blocked []navigation.Node // Blocked grid cells; shared between snapshots, never modified
	Viewers int
}

// islandCircles converts island members to absolute local circles.
func islandCircles(obj *sea.Object) []Circle {
	members := obj.Island.Members
	out := make([]Circle, len(members))
	for i, m := range members {
		out[i] = Circle{X: obj.X + m.X, Z: obj.Z + m.Z, Radius: m.Prop.EffectiveRadius()}
	}
	return out
}
