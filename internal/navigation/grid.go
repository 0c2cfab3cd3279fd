package navigation

import (
	"math"
	"sync"

	"github.com/tomz197/seaspot/internal/physics"
)

// Obstacle is anything boats must steer around.
type Obstacle interface {
	EffectiveRadius() float64
	LocalXZ() (x, z float64)
}

// Grid holds the blocked flags of the polar grid.
// Fill takes the write lock; pathfinder queries hold the read lock for their whole search,
// so many searches can run against one filled grid at the same time.
type Grid struct {
	mu      sync.RWMutex
	blocked [CellCount]bool
	version uint64
}

// NewGrid creates a grid with no blocked cells.
func NewGrid() *Grid {
	return &Grid{}
}

// Fill replaces the blocked flags with the cells covered by obstacles.
// Returns the number of blocked cells.
func (g *Grid) Fill(obstacles []Obstacle) int {
	var blocked [CellCount]bool
	for _, o := range obstacles {
		fillObstacle(&blocked, o)
	}

	count := 0
	for _, b := range blocked {
		if b {
			count++
		}
	}

	g.mu.Lock()
	g.blocked = blocked
	g.version++
	g.mu.Unlock()

	return count
}

// Clear unblocks every cell.
func (g *Grid) Clear() {
	g.mu.Lock()
	g.blocked = [CellCount]bool{}
	g.version++
	g.mu.Unlock()
}

// SetBlocked sets the flag of a single cell. Invalid nodes are ignored.
func (g *Grid) SetBlocked(n Node, blocked bool) {
	if !n.IsValid() {
		return
	}
	g.mu.Lock()
	g.blocked[n.Index()] = blocked
	g.version++
	g.mu.Unlock()
}

// Blocked reports whether n is blocked. Invalid nodes count as blocked.
func (g *Grid) Blocked(n Node) bool {
	if !n.IsValid() {
		return true
	}
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.blocked[n.Index()]
}

// Version increases on every change to the blocked flags.
func (g *Grid) Version() uint64 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.version
}

// BlockedCells appends every blocked cell to dst in index order.
func (g *Grid) BlockedCells(dst []Node) []Node {
	g.mu.RLock()
	defer g.mu.RUnlock()
	for i, b := range g.blocked {
		if b {
			dst = append(dst, Node{Theta: i / RhoCells, Rho: i % RhoCells})
		}
	}
	return dst
}

// fillObstacle blocks the cells covered by o. Starting from the obstacle's own column, columns
// are walked outward on both sides while the column ray still hits the obstacle.
func fillObstacle(blocked *[CellCount]bool, o Obstacle) {
	x, z := o.LocalXZ()
	r := o.EffectiveRadius()
	theta := ThetaFromLocal(x, z)

	dots := 0
	visited := 0
	for ; visited < ThetaCells; visited++ {
		if !fillColumn(blocked, wrapTheta(theta-visited), x, z, r*r, &dots) {
			break
		}
	}
	for step := 1; visited < ThetaCells; step++ {
		visited++
		if !fillColumn(blocked, wrapTheta(theta+step), x, z, r*r, &dots) {
			break
		}
	}

	if dots <= 0 {
		rho := clampInt(int(math.Round(math.Hypot(x, z)/MaxRho*RhoCells)), 0, RhoCells-1)
		blocked[Node{theta, rho}.Index()] = true
	}
}

// fillColumn blocks the rho range of column theta covered by the circle (x, z, sqrt(r2)).
// Returns false when the column misses the circle or the circle starts beyond the grid.
func fillColumn(blocked *[CellCount]bool, theta int, x, z, r2 float64, dots *int) bool {
	dirX, dirZ := AngleToLocal(float64(theta) / ThetaCells * MaxTheta)
	t0, t1, ok := physics.RayCircleIntersection(0, 0, dirX, dirZ, x, z, r2)
	if !ok || t1 < 0 {
		return false
	}

	rhoMin := int(math.Floor(t0 / MaxRho * RhoCells))
	rhoMax := int(math.Ceil(t1 / MaxRho * RhoCells))

	if rhoMin < 0 {
		rhoMin = 0
	} else if rhoMin >= RhoCells {
		// Out of range; count it so no fallback cell is blocked either.
		*dots++
		return false
	}
	if rhoMax >= RhoCells {
		rhoMax = RhoCells - 1
	}

	for rho := rhoMin; rho <= rhoMax; rho++ {
		blocked[theta*RhoCells+rho] = true
		*dots++
	}
	return true
}
