package physics

import (
	"math"

	"github.com/tomz197/seaspot/internal/random"
)

// Packing solver tuning.
const (
	PushMargin         = 0.01 // Extra push beyond half the penetration, per circle
	DegenerateDistance = 1e-4 // Centres closer than this get a random separation axis
)

// manifold is a candidate overlapping pair.
type manifold struct {
	a, b *Circle
}

// Packer separates overlapping circles with an incremental penalty solver.
// Each Converge call resolves one generation of overlapping pairs and collects
// the pairs its moves created into the next generation.
//
// A Packer is owned by a single goroutine.
type Packer struct {
	tree      *QuadTree
	circles   []*Circle
	maxRadius float64

	// Two manifold generations swapped by role on every Converge.
	generations [2][]manifold
	pending     int                 // index of the generation receiving new pairs
	queued      map[[2]int]struct{} // pairs already in the pending generation

	query []*Circle
	rng   random.Source
}

// NewPacker creates an empty solver drawing degenerate separation axes from rng.
func NewPacker(rng random.Source) *Packer {
	return &Packer{
		tree:   NewQuadTree(),
		rng:    rng,
		queued: make(map[[2]int]struct{}),
	}
}

// AddCircle inserts a circle and records every circle it overlaps.
// Returns the circle's id, its insertion index.
func (p *Packer) AddCircle(x, y, radius float64) int {
	c := &Circle{X: x, Y: y, Radius: radius, id: len(p.circles)}

	if p.maxRadius > 0 {
		p.query = p.tree.Query(p.query[:0], x, y, p.maxRadius+radius)
		for _, other := range p.query {
			if CirclesOverlap(c.X, c.Y, c.Radius, other.X, other.Y, other.Radius) {
				p.enqueue(c, other)
			}
		}
	}

	p.tree.Insert(c)
	p.circles = append(p.circles, c)
	p.maxRadius = math.Max(p.maxRadius, radius)

	return len(p.circles) - 1
}

// Converge resolves the pending generation of overlapping pairs.
// Returns true if no overlapping pair remains.
func (p *Packer) Converge() bool {
	current := p.pending
	p.pending = 1 - current
	p.generations[p.pending] = p.generations[p.pending][:0]
	clear(p.queued)

	pairs := p.generations[current]
	for i := len(pairs) - 1; i >= 0; i-- {
		a, b := pairs[i].a, pairs[i].b
		if !CirclesOverlap(a.X, a.Y, a.Radius, b.X, b.Y, b.Radius) {
			continue
		}

		dx := b.X - a.X
		dy := b.Y - a.Y
		d := math.Sqrt(dx*dx + dy*dy)
		push := (a.Radius + b.Radius - d) * (0.5 + PushMargin)

		if d < DegenerateDistance {
			dx, dy = random.UnitVector(p.rng)
			d = 1
		}

		p.tree.Remove(a)
		p.tree.Remove(b)

		a.X -= dx * push / d
		a.Y -= dy * push / d
		b.X += dx * push / d
		b.Y += dy * push / d

		p.tree.Insert(a)
		p.tree.Insert(b)

		p.collectAround(a)
		p.collectAround(b)
	}
	p.generations[current] = pairs[:0]

	return len(p.generations[p.pending]) == 0
}

// Solve calls Converge until it reports no overlap or maxIterations is reached.
// Returns whether the layout converged and how many iterations ran.
func (p *Packer) Solve(maxIterations int) (converged bool, iterations int) {
	if len(p.generations[p.pending]) == 0 {
		return true, 0
	}
	for iterations < maxIterations {
		iterations++
		if p.Converge() {
			return true, iterations
		}
	}
	return false, iterations
}

func (p *Packer) collectAround(c *Circle) {
	p.query = p.tree.Query(p.query[:0], c.X, c.Y, p.maxRadius+c.Radius)
	for _, other := range p.query {
		if other == c {
			continue
		}
		if CirclesOverlap(c.X, c.Y, c.Radius, other.X, other.Y, other.Radius) {
			p.enqueue(c, other)
		}
	}
}

// enqueue adds the pair to the pending generation unless it is already there,
// so a generation never holds more than n(n-1)/2 pairs.
func (p *Packer) enqueue(a, b *Circle) {
	key := [2]int{a.id, b.id}
	if key[0] > key[1] {
		key[0], key[1] = key[1], key[0]
	}
	if _, ok := p.queued[key]; ok {
		return
	}
	p.queued[key] = struct{}{}
	p.generations[p.pending] = append(p.generations[p.pending], manifold{a: a, b: b})
}

// GetCirclePosition returns the current centre of the circle with the given id.
func (p *Packer) GetCirclePosition(id int) (x, y float64) {
	c := p.circles[id]
	return c.X, c.Y
}

// Radius returns the radius of the circle with the given id.
func (p *Packer) Radius(id int) float64 {
	return p.circles[id].Radius
}

// Len returns the number of circles.
func (p *Packer) Len() int {
	return len(p.circles)
}

// Pending returns the number of pairs queued for the next Converge.
func (p *Packer) Pending() int {
	return len(p.generations[p.pending])
}

// DebugCheck compares a brute-force overlap scan against the quadtree.
// collisionFound is true if any pair overlaps; treeConsistent is false if a query
// missed an overlapping circle the brute-force scan found.
func (p *Packer) DebugCheck() (collisionFound, treeConsistent bool) {
	treeConsistent = true
	brute := make(map[*Circle]struct{})
	tree := make(map[*Circle]struct{})

	for _, a := range p.circles {
		clear(brute)
		clear(tree)

		for _, b := range p.circles {
			if a != b && CirclesOverlap(a.X, a.Y, a.Radius, b.X, b.Y, b.Radius) {
				brute[b] = struct{}{}
			}
		}

		p.query = p.tree.Query(p.query[:0], a.X, a.Y, p.maxRadius+a.Radius)
		for _, b := range p.query {
			if a != b && CirclesOverlap(a.X, a.Y, a.Radius, b.X, b.Y, b.Radius) {
				tree[b] = struct{}{}
			}
		}

		if len(brute) > 0 {
			collisionFound = true
		}
		if len(brute) != len(tree) {
			treeConsistent = false
			continue
		}
		for b := range brute {
			if _, ok := tree[b]; !ok {
				treeConsistent = false
				break
			}
		}
	}

	return collisionFound, treeConsistent
}
