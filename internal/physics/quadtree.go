package physics

import (
	"math"
	"slices"
)

// MinHalfSize is the half size below which quadtree leaves stop splitting.
const MinHalfSize = 0.03125

// Circle is a packing circle in normalized space. Radius never changes after insertion.
type Circle struct {
	X, Y   float64
	Radius float64

	id int // Insertion index in the owning Packer
}

// QuadTree is a point-region quadtree over circle centres.
// The root starts as the square [-1, 1]² and doubles when a circle lands outside it,
// so every stored centre always lies inside the root square.
type QuadTree struct {
	root  *quadNode
	count int
}

type quadNode struct {
	x, y     float64
	halfSize float64
	isNode   bool
	children [4]*quadNode
	leaves   []*Circle
}

// NewQuadTree creates an empty tree whose root covers [-1, 1]².
func NewQuadTree() *QuadTree {
	return &QuadTree{root: newRoot(1)}
}

func newRoot(halfSize float64) *quadNode {
	return &quadNode{halfSize: halfSize, isNode: true}
}

// Len returns the number of stored circles.
func (t *QuadTree) Len() int {
	return t.count
}

// HalfSize returns the current half size of the root square.
func (t *QuadTree) HalfSize() float64 {
	return t.root.halfSize
}

// Insert stores c at its current position.
func (t *QuadTree) Insert(c *Circle) {
	if extent := math.Max(math.Abs(c.X), math.Abs(c.Y)); extent > t.root.halfSize && !math.IsInf(extent, 0) {
		t.grow(extent)
	}
	t.root.insert(c)
	t.count++
}

// Remove deletes c. The circle must still be at the position it was inserted with.
func (t *QuadTree) Remove(c *Circle) bool {
	if t.root.remove(c) {
		t.count--
		return true
	}
	return false
}

// Query appends every circle whose centre lies within radius of (x, y) to dst.
func (t *QuadTree) Query(dst []*Circle, x, y, radius float64) []*Circle {
	return t.root.query(dst, x, y, radius, radius*radius)
}

// grow rebuilds the tree with a root large enough to hold extent.
func (t *QuadTree) grow(extent float64) {
	half := t.root.halfSize
	for half < extent {
		half *= 2
	}

	all := t.root.collect(make([]*Circle, 0, t.count))
	t.root = newRoot(half)
	for _, c := range all {
		t.root.insert(c)
	}
}

func (n *quadNode) quadrant(x, y float64) int {
	q := 0
	if x >= n.x {
		q |= 1
	}
	if y >= n.y {
		q |= 2
	}
	return q
}

// insert places c into the child quadrant, creating or splitting children as needed.
// Called on nodes only.
func (n *quadNode) insert(c *Circle) {
	q := n.quadrant(c.X, c.Y)
	child := n.children[q]
	if child == nil {
		half := n.halfSize / 2
		cx, cy := n.x-half, n.y-half
		if q&1 != 0 {
			cx = n.x + half
		}
		if q&2 != 0 {
			cy = n.y + half
		}
		child = &quadNode{x: cx, y: cy, halfSize: half}
		n.children[q] = child
	}

	if child.isNode {
		child.insert(c)
		return
	}

	if len(child.leaves) > 0 && child.halfSize > MinHalfSize {
		existing := child.leaves
		child.leaves = nil
		child.isNode = true
		for _, l := range existing {
			child.insert(l)
		}
		child.insert(c)
		return
	}

	child.leaves = append(child.leaves, c)
}

func (n *quadNode) remove(c *Circle) bool {
	if !n.isNode {
		i := slices.Index(n.leaves, c)
		if i < 0 {
			return false
		}
		n.leaves = slices.Delete(n.leaves, i, i+1)
		return true
	}

	child := n.children[n.quadrant(c.X, c.Y)]
	if child == nil {
		return false
	}
	return child.remove(c)
}

func (n *quadNode) query(dst []*Circle, x, y, radius, r2 float64) []*Circle {
	if !n.isNode {
		for _, c := range n.leaves {
			if DistanceSquared(x, y, c.X, c.Y) <= r2 {
				dst = append(dst, c)
			}
		}
		return dst
	}

	for _, child := range n.children {
		if child == nil || !CircleIntersectsSquare(x, y, radius, child.x, child.y, child.halfSize) {
			continue
		}
		dst = child.query(dst, x, y, radius, r2)
	}
	return dst
}

func (n *quadNode) collect(dst []*Circle) []*Circle {
	dst = append(dst, n.leaves...)
	for _, child := range n.children {
		if child != nil {
			dst = child.collect(dst)
		}
	}
	return dst
}
