package navigation

import (
	"io"
	"math"
	"slices"
	"sync"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/tomz197/seaspot/internal/random"
)

type testObstacle struct {
	x, z, r float64
}

func (o testObstacle) EffectiveRadius() float64 { return o.r }
func (o testObstacle) LocalXZ() (float64, float64) {
	return o.x, o.z
}

func quietPathfinder(g *Grid, seed int64) *Pathfinder {
	return NewPathfinder(g, random.New(seed), WithLogger(log.New(io.Discard)))
}

func assertValidPath(t *testing.T, g *Grid, res Result) {
	t.Helper()
	if len(res.Nodes) == 0 {
		t.Fatal("expected a non-empty path")
	}
	if res.Nodes[0] != res.Start {
		t.Errorf("expected path to start at %v, got %v", res.Start, res.Nodes[0])
	}
	if last := res.Nodes[len(res.Nodes)-1]; last != res.Goal {
		t.Errorf("expected path to end at %v, got %v", res.Goal, last)
	}
	for i, n := range res.Nodes {
		if i > 0 && g.Blocked(n) {
			t.Errorf("path cell %v is blocked", n)
		}
		if i == 0 {
			continue
		}
		if !slices.Contains(res.Nodes[i-1].Neighbors(nil), n) {
			t.Errorf("cells %v and %v are not neighbours", res.Nodes[i-1], n)
		}
	}
}

func TestNeighbors(t *testing.T) {
	got := Node{127, 0}.Neighbors(nil)
	want := []Node{{0, 0}, {127, 1}, {0, 1}}
	if !slices.Equal(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}

	if n := len(Node{5, 10}.Neighbors(nil)); n != 5 {
		t.Errorf("expected 5 neighbours, got %d", n)
	}
	if n := len(Node{5, RhoCells - 1}.Neighbors(nil)); n != 3 {
		t.Errorf("expected 3 neighbours on the rim, got %d", n)
	}
}

func TestNodeConversions(t *testing.T) {
	x, z := Node{0, 16}.ToLocal()
	if math.Abs(x) > 1e-9 || math.Abs(z-200) > 1e-9 {
		t.Errorf("expected (0, 200), got (%f, %f)", x, z)
	}

	x, z = Node{32, 8}.ToLocal()
	if math.Abs(x-100) > 1e-9 || math.Abs(z) > 1e-9 {
		t.Errorf("expected (100, 0), got (%f, %f)", x, z)
	}

	if n := NodeFromLocal(-1, 0); n.Theta != 96 || n.Rho != 0 {
		t.Errorf("expected {96 0}, got %v", n)
	}
	if n := NodeFromLocal(0, 10000); n.Rho != RhoCells-1 {
		t.Errorf("expected rho clamped to %d, got %d", RhoCells-1, n.Rho)
	}
}

func TestFillBlocksObstacleColumns(t *testing.T) {
	g := NewGrid()
	g.Fill([]Obstacle{testObstacle{x: 0, z: 200, r: 48}})

	for _, n := range []Node{{0, 16}, {4, 16}, {124, 16}, {0, 12}, {0, 19}} {
		if !g.Blocked(n) {
			t.Errorf("expected %v to be blocked", n)
		}
	}
	for _, n := range []Node{{8, 16}, {120, 16}, {0, 5}, {0, 25}, {64, 16}} {
		if g.Blocked(n) {
			t.Errorf("expected %v to be free", n)
		}
	}
}

func TestFillFallbackCell(t *testing.T) {
	g := NewGrid()
	// Small obstacle between two column rays.
	deg := 1.4
	x, z := AngleToLocal(deg)
	count := g.Fill([]Obstacle{testObstacle{x: x * 200, z: z * 200, r: 0.5}})

	if count != 1 {
		t.Fatalf("expected 1 blocked cell, got %d", count)
	}
	if !g.Blocked(Node{0, 16}) {
		t.Error("expected fallback cell {0 16} to be blocked")
	}
}

func TestFillOutOfRangeAndCentre(t *testing.T) {
	g := NewGrid()
	if count := g.Fill([]Obstacle{testObstacle{x: 0, z: 500, r: 10}}); count != 0 {
		t.Errorf("expected obstacle beyond the grid to block nothing, got %d", count)
	}

	// Covers the origin: every column blocks rho 0..3.
	if count := g.Fill([]Obstacle{testObstacle{x: 0, z: 0, r: 30}}); count != ThetaCells*4 {
		t.Errorf("expected %d blocked cells, got %d", ThetaCells*4, count)
	}

	g.Clear()
	if cells := g.BlockedCells(nil); len(cells) != 0 {
		t.Errorf("expected cleared grid, got %d cells", len(cells))
	}
}

func TestPathAvoidsObstacle(t *testing.T) {
	g := NewGrid()
	g.Fill([]Obstacle{testObstacle{x: 0, z: 200, r: 48}})
	pf := quietPathfinder(g, 1)

	tests := []struct {
		name        string
		start, goal Node
	}{
		{"quarter to three quarters", Node{32, 16}, Node{96, 16}},
		{"across the seam", Node{120, 16}, Node{56, 16}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := pf.FindPathTo(tt.start, tt.goal)
			if !res.Found {
				t.Fatal("expected a path")
			}
			assertValidPath(t, g, res)

			for _, n := range res.Nodes {
				if n.Rho == 16 && (n.Theta <= 5 || n.Theta >= ThetaCells-5) {
					t.Errorf("path crosses the obstacle at %v", n)
				}
			}
		})
	}
}

func TestSameQuerySamePath(t *testing.T) {
	g := NewGrid()
	g.Fill([]Obstacle{
		testObstacle{x: 50, z: 150, r: 30},
		testObstacle{x: -120, z: -80, r: 40},
	})

	a := quietPathfinder(g, 9).FindPath(10, 300)
	b := quietPathfinder(g, 9).FindPath(10, 300)
	if !a.Found || !b.Found {
		t.Fatal("expected both queries to find a path")
	}
	if a.Goal != b.Goal || !slices.Equal(a.Nodes, b.Nodes) {
		t.Errorf("expected identical paths, got %v and %v", a.Nodes, b.Nodes)
	}
	assertValidPath(t, g, a)
}

func TestConcurrentQueries(t *testing.T) {
	g := NewGrid()
	g.Fill([]Obstacle{testObstacle{x: 0, z: 200, r: 48}})
	pf := quietPathfinder(g, 3)
	want := pf.FindPathTo(Node{120, 16}, Node{56, 16})

	var wg sync.WaitGroup
	errs := make(chan string, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got := pf.FindPathTo(Node{120, 16}, Node{56, 16})
			if !slices.Equal(got.Nodes, want.Nodes) {
				errs <- "concurrent query returned a different path"
			}
		}()
	}
	wg.Wait()
	close(errs)
	for e := range errs {
		t.Error(e)
	}
}

func TestGoalFallbackAndFullColumn(t *testing.T) {
	g := NewGrid()
	for rho := 0; rho < RhoCells; rho++ {
		if rho != 7 {
			g.SetBlocked(Node{64, rho}, true)
		}
	}
	pf := quietPathfinder(g, 2)

	// Start at theta 0 so the goal column is 64.
	res := pf.FindPath(0, 100)
	if res.Goal != (Node{64, 7}) {
		t.Errorf("expected goal {64 7}, got %v", res.Goal)
	}

	g.SetBlocked(Node{64, 7}, true)
	res = pf.FindPath(0, 100)
	if res.Found || res.Goal != Invalid {
		t.Errorf("expected no goal, got found=%v goal=%v", res.Found, res.Goal)
	}
}

func TestBlockedStartStillSearches(t *testing.T) {
	g := NewGrid()
	g.SetBlocked(Node{10, 10}, true)
	res := quietPathfinder(g, 1).FindPathTo(Node{10, 10}, Node{20, 10})
	if !res.StartBlocked {
		t.Error("expected start to be reported blocked")
	}
	if !res.Found {
		t.Error("expected search to continue from a blocked start")
	}
}

func TestFollowerPopsWaypoints(t *testing.T) {
	f := NewFollower(20, 1)
	f.SetPath([]Waypoint{{X: 0, Z: 10}, {X: 10, Z: 10}}, 0, 0)

	if h := f.Heading(); math.Abs(h) > 1e-9 {
		t.Errorf("expected heading 0, got %f", h)
	}

	x, z := 0.0, 0.0
	for i := 0; i < 200 && f.Len() > 0; i++ {
		x, z = f.Step(x, z, 0.05)
	}
	if f.Len() != 0 {
		t.Fatalf("expected all waypoints reached, %d left", f.Len())
	}
	if math.Abs(x-10) > 1 || math.Abs(z-10) > 1 {
		t.Errorf("expected to end near (10, 10), got (%f, %f)", x, z)
	}
	// Turned toward the second waypoint when the first was reached from (0, 9).
	if h := f.Heading(); h < 80 || h > 90 {
		t.Errorf("expected heading near 84, got %f", h)
	}
}
