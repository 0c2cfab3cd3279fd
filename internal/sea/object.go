// Package sea models the objects floating on the rotating sea disc and the spawners that
// place them.
//
// Positions are local to the disc: X and Z in world units, with the disc rotating
// under a fixed world frame. Use LocalToWorld to place them for a given disc angle.
package sea

import (
	"math"

	"github.com/google/uuid"

	"github.com/tomz197/seaspot/internal/navigation"
)

// Kind tags the variant held by an Object.
type Kind int

const (
	KindProp Kind = iota
	KindIsland
	KindBoat
)

func (k Kind) String() string {
	switch k {
	case KindProp:
		return "prop"
	case KindIsland:
		return "island"
	case KindBoat:
		return "boat"
	}
	return "unknown"
}

// Object is a prop, an island or a boat. Exactly one of Prop, Island and Boat is set,
// matching Kind.
type Object struct {
	ID   uuid.UUID
	Kind Kind
	X, Z float64 // Local position on the disc

	Prop   *Prop
	Island *Island
	Boat   *Boat

	spawnAngle float64 // Disc angle when the object was shown
	hidden     bool
}

// Compile-time check that Object can block paths.
var _ navigation.Obstacle = (*Object)(nil)

// EffectiveRadius is the radius of the circle enclosing the whole object.
func (o *Object) EffectiveRadius() float64 {
	switch o.Kind {
	case KindProp:
		return o.Prop.EffectiveRadius()
	case KindIsland:
		return o.Island.EffectiveRadius
	case KindBoat:
		return o.Boat.Radius
	}
	return 0
}

// LocalXZ returns the local position on the disc.
func (o *Object) LocalXZ() (x, z float64) {
	return o.X, o.Z
}

// Rho returns the distance from the disc centre.
func (o *Object) Rho() float64 {
	return math.Hypot(o.X, o.Z)
}

// Hidden reports whether the object is currently off the sea.
func (o *Object) Hidden() bool {
	return o.hidden
}

// TraveledAngle returns how far the disc has turned, in degrees, since the object was shown.
func (o *Object) TraveledAngle(currentAngle float64) float64 {
	return currentAngle - o.spawnAngle
}

func (o *Object) show(angle float64) {
	o.hidden = false
	o.spawnAngle = angle
}

func (o *Object) hide() {
	o.hidden = true
}

// LocalToWorld rotates a local disc position into world space for the disc angle in degrees.
// A positive angle turns +Z toward +X.
func LocalToWorld(x, z, angle float64) (wx, wz float64) {
	s, c := math.Sincos(angle * math.Pi / 180)
	return x*c + z*s, -x*s + z*c
}

// WorldToLocal is the inverse of LocalToWorld.
func WorldToLocal(wx, wz, angle float64) (x, z float64) {
	s, c := math.Sincos(angle * math.Pi / 180)
	return wx*c - wz*s, wx*s + wz*c
}
