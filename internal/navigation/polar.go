// Package navigation implements the polar occupancy grid and the A* pathfinder boats use
// to cross the sea disc.
package navigation

import "math"

// Polar grid dimensions.
const (
	ThetaCells = 128   // Angular buckets over MaxTheta
	RhoCells   = 32    // Radial buckets over MaxRho
	MaxRho     = 400.0 // Radius of the sea disc covered by the grid
	MaxTheta   = 360.0 // Degrees
	CellCount  = ThetaCells * RhoCells
)

// Node is a polar grid cell.
type Node struct {
	Theta int
	Rho   int
}

// Invalid is the sentinel ending a back-pointer chain.
var Invalid = Node{Theta: -1, Rho: -1}

// IsValid reports whether n addresses a cell inside the grid.
func (n Node) IsValid() bool {
	return n.Theta >= 0 && n.Theta < ThetaCells && n.Rho >= 0 && n.Rho < RhoCells
}

// Index returns the dense array index of n.
func (n Node) Index() int {
	return n.Theta*RhoCells + n.Rho
}

// Neighbors appends the cells reachable from n to dst.
// Only the clockwise half of the 8-neighbourhood is used: moves never decrease theta,
// so every path sweeps one way around the disc.
func (n Node) Neighbors(dst []Node) []Node {
	cw := (n.Theta + 1) % ThetaCells

	dst = append(dst, Node{cw, n.Rho})
	if n.Rho > 0 {
		dst = append(dst, Node{n.Theta, n.Rho - 1}, Node{cw, n.Rho - 1})
	}
	if n.Rho < RhoCells-1 {
		dst = append(dst, Node{n.Theta, n.Rho + 1}, Node{cw, n.Rho + 1})
	}
	return dst
}

// DistanceTo is the Euclidean distance in cell units. Theta does not wrap.
func (n Node) DistanceTo(o Node) float64 {
	dt := float64(n.Theta - o.Theta)
	dr := float64(n.Rho - o.Rho)
	return math.Sqrt(dt*dt + dr*dr)
}

// HeuristicTo is the Manhattan distance in cell units. Theta does not wrap, so the
// estimate is not admissible for goals across the 0/127 seam.
func (n Node) HeuristicTo(o Node) float64 {
	return math.Abs(float64(o.Theta-n.Theta)) + math.Abs(float64(o.Rho-n.Rho))
}

// ToLocal converts the cell to local XZ coordinates on the disc.
func (n Node) ToLocal() (x, z float64) {
	x, z = AngleToLocal(float64(n.Theta) / ThetaCells * MaxTheta)
	scale := float64(n.Rho) / RhoCells * MaxRho
	return x * scale, z * scale
}

// AngleToLocal returns the unit direction for a heading in degrees.
// 0° points to +Z and 90° to +X.
func AngleToLocal(degrees float64) (x, z float64) {
	rad := degrees * math.Pi / 180
	return math.Sin(rad), math.Cos(rad)
}

// LocalAngle returns the heading of (x, z) in degrees, in [0, 360).
func LocalAngle(x, z float64) float64 {
	deg := math.Atan2(x, z) * 180 / math.Pi
	if deg < 0 {
		deg += MaxTheta
	}
	return deg
}

// ThetaFromLocal returns the theta bucket containing the heading of (x, z).
func ThetaFromLocal(x, z float64) int {
	return clampInt(int(math.Floor(LocalAngle(x, z)/MaxTheta*ThetaCells)), 0, ThetaCells-1)
}

// NodeFromLocal returns the cell containing the local position (x, z).
// Positions beyond MaxRho map to the outermost ring.
func NodeFromLocal(x, z float64) Node {
	rho := int(math.Floor(math.Hypot(x, z) / MaxRho * RhoCells))
	return Node{
		Theta: ThetaFromLocal(x, z),
		Rho:   clampInt(rho, 0, RhoCells-1),
	}
}

func wrapTheta(theta int) int {
	theta %= ThetaCells
	if theta < 0 {
		theta += ThetaCells
	}
	return theta
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
