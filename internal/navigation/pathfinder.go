package navigation

import (
	"math"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/tomz197/seaspot/internal/random"
)

// goalAttempts bounds the random rho draws before the goal column is scanned.
const goalAttempts = 64

// Waypoint is a local XZ position on the sea disc.
type Waypoint struct {
	X, Z float64
}

// Result describes one path query.
type Result struct {
	Start        Node
	Goal         Node
	Found        bool
	StartBlocked bool
	Nodes        []Node // Start to goal inclusive; empty when not found
	Expanded     int    // Cells popped from the open list
	Elapsed      time.Duration
}

// Waypoints converts the path cells to local XZ positions.
func (r Result) Waypoints() []Waypoint {
	out := make([]Waypoint, len(r.Nodes))
	for i, n := range r.Nodes {
		out[i].X, out[i].Z = n.ToLocal()
	}
	return out
}

// searchState is the per-query scratch space. It is pooled so concurrent queries on the
// same Grid never share search state.
type searchState struct {
	cost      [CellCount]float64
	heuristic [CellCount]float64
	origin    [CellCount]Node
	inOpen    [CellCount]bool
	open      []Node
	neighbors []Node
}

func (s *searchState) reset() {
	inf := math.Inf(1)
	for i := range s.cost {
		s.cost[i] = inf
		s.heuristic[i] = inf
		s.origin[i] = Invalid
		s.inOpen[i] = false
	}
	s.open = s.open[:0]
}

// Pathfinder runs A* queries against a Grid.
type Pathfinder struct {
	grid    *Grid
	rng     random.Source
	logger  *log.Logger
	scratch sync.Pool
}

// Option configures a Pathfinder.
type Option func(*Pathfinder)

// WithLogger sets the logger used for warnings and timing lines.
func WithLogger(logger *log.Logger) Option {
	return func(p *Pathfinder) {
		p.logger = logger
	}
}

// NewPathfinder creates a pathfinder over grid drawing goal rows from rng.
func NewPathfinder(grid *Grid, rng random.Source, opts ...Option) *Pathfinder {
	p := &Pathfinder{
		grid:   grid,
		rng:    rng,
		logger: log.Default(),
		scratch: sync.Pool{
			New: func() any { return new(searchState) },
		},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Grid returns the grid the pathfinder searches.
func (p *Pathfinder) Grid() *Grid {
	return p.grid
}

// FindPath searches from the local position (x, z) to a random unblocked cell in the
// antipodal theta column.
func (p *Pathfinder) FindPath(x, z float64) Result {
	p.grid.mu.RLock()
	defer p.grid.mu.RUnlock()

	start := NodeFromLocal(x, z)
	goal, ok := p.pickGoal(start)
	if !ok {
		p.logger.Warn("no free goal cell", "theta", wrapTheta(start.Theta+ThetaCells/2))
		return Result{Start: start, Goal: Invalid, StartBlocked: p.grid.blocked[start.Index()]}
	}
	return p.search(start, goal)
}

// FindPathTo searches between two given cells.
func (p *Pathfinder) FindPathTo(start, goal Node) Result {
	if !start.IsValid() || !goal.IsValid() {
		return Result{Start: start, Goal: goal}
	}

	p.grid.mu.RLock()
	defer p.grid.mu.RUnlock()
	return p.search(start, goal)
}

// pickGoal draws a random rho in the antipodal column, resampling while blocked.
// Falls back to the first free cell of the column. Requires the grid read lock.
func (p *Pathfinder) pickGoal(start Node) (Node, bool) {
	theta := (start.Theta + ThetaCells/2) % ThetaCells

	for i := 0; i < goalAttempts; i++ {
		n := Node{theta, p.rng.IntRange(0, RhoCells)}
		if !p.grid.blocked[n.Index()] {
			return n, true
		}
	}
	for rho := 0; rho < RhoCells; rho++ {
		n := Node{theta, rho}
		if !p.grid.blocked[n.Index()] {
			return n, true
		}
	}
	return Invalid, false
}

// search runs A* from start to goal. Requires the grid read lock.
func (p *Pathfinder) search(start, goal Node) Result {
	begin := time.Now()
	res := Result{Start: start, Goal: goal}

	s := p.scratch.Get().(*searchState)
	defer p.scratch.Put(s)
	s.reset()

	blocked := &p.grid.blocked
	si := start.Index()
	s.cost[si] = 0
	s.heuristic[si] = start.HeuristicTo(goal)
	s.open = append(s.open, start)
	s.inOpen[si] = true

	if blocked[si] {
		res.StartBlocked = true
		p.logger.Warn("start cell is blocked", "theta", start.Theta, "rho", start.Rho)
	}

	current := Invalid
	for len(s.open) > 0 {
		idx := lowestHeuristic(s)
		current = s.open[idx]
		s.open = append(s.open[:idx], s.open[idx+1:]...)
		ci := current.Index()
		s.inOpen[ci] = false
		res.Expanded++

		if current == goal {
			res.Found = true
			break
		}

		s.neighbors = current.Neighbors(s.neighbors[:0])
		for _, nb := range s.neighbors {
			ni := nb.Index()
			if blocked[ni] {
				continue
			}

			newCost := s.cost[ci] + current.DistanceTo(nb)
			if newCost < s.cost[ni] {
				s.cost[ni] = newCost
				s.heuristic[ni] = newCost + nb.HeuristicTo(goal)
				s.origin[ni] = current

				if !s.inOpen[ni] {
					s.open = append(s.open, nb)
					s.inOpen[ni] = true
				}
			}
		}
	}

	res.Elapsed = time.Since(begin)
	if !res.Found {
		return res
	}

	for n := current; n != Invalid; n = s.origin[n.Index()] {
		res.Nodes = append(res.Nodes, n)
	}
	for i, j := 0, len(res.Nodes)-1; i < j; i, j = i+1, j-1 {
		res.Nodes[i], res.Nodes[j] = res.Nodes[j], res.Nodes[i]
	}

	p.logger.Debug("path found", "ms", float64(res.Elapsed.Microseconds())/1000, "cells", len(res.Nodes))
	return res
}

// lowestHeuristic returns the open list index with the smallest score; the first wins ties.
func lowestHeuristic(s *searchState) int {
	lowest := math.Inf(1)
	lowestIdx := 0
	for i, n := range s.open {
		if h := s.heuristic[n.Index()]; h < lowest {
			lowest = h
			lowestIdx = i
		}
	}
	return lowestIdx
}
