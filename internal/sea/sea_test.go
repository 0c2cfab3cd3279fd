package sea

import (
	"io"
	"math"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/tomz197/seaspot/internal/config"
	"github.com/tomz197/seaspot/internal/navigation"
	"github.com/tomz197/seaspot/internal/physics"
	"github.com/tomz197/seaspot/internal/random"
)

type fixedSource struct {
	values []float64
	i      int
}

func (s *fixedSource) Float64() float64 {
	v := s.values[s.i%len(s.values)]
	s.i++
	return v
}

func (s *fixedSource) Range(min, max float64) float64 { return min + s.Float64()*(max-min) }
func (s *fixedSource) IntRange(min, max int) int      { return random.IntRange(s, min, max) }

func propsOnlyConfig() *config.Config {
	conf := config.Default()
	conf.Spawner.SpawnProbability = 1
	conf.Spawner.IslandSpawnProbability = 0
	return conf
}

func newTestSpawner(t *testing.T, conf *config.Config, seed int64) *Spawner {
	t.Helper()
	s, err := NewSpawner(conf, random.New(seed), WithSpawnerLogger(log.New(io.Discard)))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	return s
}

func TestLocalWorldRoundTrip(t *testing.T) {
	wx, wz := LocalToWorld(0, 1, 90)
	if math.Abs(wx-1) > 1e-12 || math.Abs(wz) > 1e-12 {
		t.Errorf("expected +Z to turn into +X, got (%f, %f)", wx, wz)
	}

	lx, lz := LocalToWorld(12, -7, 33)
	x, z := WorldToLocal(lx, lz, 33)
	if math.Abs(x-12) > 1e-9 || math.Abs(z+7) > 1e-9 {
		t.Errorf("expected (12, -7), got (%f, %f)", x, z)
	}
}

func TestPickMemberRoulette(t *testing.T) {
	c, err := NewCatalog(config.Default())
	if err != nil {
		t.Fatal(err)
	}
	isl := config.Default().Islands[0] // rock 0.6, reef 0.3, lighthouse rest

	tests := []struct {
		draw float64
		want string
	}{
		{0.1, "rock"},
		{0.65, "reef"},
		{0.95, "lighthouse"},
	}
	for _, tt := range tests {
		got := c.props[c.pickMember(isl, &fixedSource{values: []float64{tt.draw}})].Name
		if got != tt.want {
			t.Errorf("draw %.2f: expected %s, got %s", tt.draw, tt.want, got)
		}
	}
}

func TestRandomizePropScale(t *testing.T) {
	c, err := NewCatalog(config.Default())
	if err != nil {
		t.Fatal(err)
	}
	rng := random.New(4)

	buoy := c.NewProp(0) // linked, scale_x in [0.8, 1.5]
	for i := 0; i < 100; i++ {
		c.RandomizeProp(buoy, rng)
		if buoy.ScaleX != buoy.ScaleZ {
			t.Fatalf("expected linked scales, got %f and %f", buoy.ScaleX, buoy.ScaleZ)
		}
		if buoy.ScaleX < 0.8-1e-9 || buoy.ScaleX > 1.5+1e-9 {
			t.Fatalf("scale %f out of range", buoy.ScaleX)
		}
	}

	lighthouse := c.NewProp(3) // no randomisation
	c.RandomizeProp(lighthouse, rng)
	if lighthouse.EffectiveRadius() != 3 {
		t.Errorf("expected radius 3, got %f", lighthouse.EffectiveRadius())
	}
}

func TestIslandLayout(t *testing.T) {
	conf := config.Default()
	conf.Islands[0].Radius = config.Range{Min: 40, Max: 40}
	c, err := NewCatalog(conf)
	if err != nil {
		t.Fatal(err)
	}
	rng := random.New(8)

	isl := c.NewIsland(0, rng)
	// floor((40/5)^2 * 0.5)
	if len(isl.Members) != 32 {
		t.Fatalf("expected 32 members, got %d", len(isl.Members))
	}

	c.RandomizeIsland(isl, rng)
	isl.Layout(conf.Packing, rng)

	if isl.Iterations > conf.Packing.MaxIterations {
		t.Errorf("expected at most %d iterations, got %d", conf.Packing.MaxIterations, isl.Iterations)
	}
	for i, m := range isl.Members {
		if math.IsNaN(m.X) || math.IsNaN(m.Z) {
			t.Fatalf("member %d has NaN offset", i)
		}
		if d := math.Hypot(m.X, m.Z) + m.Prop.EffectiveRadius(); d > isl.EffectiveRadius+1e-9 {
			t.Errorf("member %d reaches %f beyond effective radius %f", i, d, isl.EffectiveRadius)
		}
	}
}

func TestSpawnedPropsDoNotOverlap(t *testing.T) {
	s := newTestSpawner(t, propsOnlyConfig(), 2)
	s.DontDespawn = true

	for i := 0; i < 300; i++ {
		s.Update(float64(i) * 0.5)
	}
	if s.Len() == 0 {
		t.Fatal("expected spawned props")
	}

	objs := s.Objects()
	for i := range objs {
		for j := i + 1; j < len(objs); j++ {
			a, b := objs[i], objs[j]
			if physics.CirclesOverlap(a.X, a.Z, a.EffectiveRadius(), b.X, b.Z, b.EffectiveRadius()) {
				t.Fatalf("objects %d and %d overlap", i, j)
			}
		}
	}
}

func TestObjectsDespawnAfterHalfTurn(t *testing.T) {
	s := newTestSpawner(t, propsOnlyConfig(), 3)

	first := s.Update(0)
	if first == nil {
		t.Fatal("expected an object on an empty sea")
	}

	s.Update(179)
	if first.Hidden() {
		t.Error("expected object to stay before 180 degrees")
	}

	s.Update(180)
	if !first.Hidden() {
		t.Error("expected object to be hidden at 180 degrees")
	}
	for _, o := range s.Objects() {
		if o == first {
			t.Error("expected object to leave the queue")
		}
	}
}

func TestDontDespawnFreezesQueue(t *testing.T) {
	s := newTestSpawner(t, propsOnlyConfig(), 3)
	s.DontDespawn = true

	first := s.Update(0)
	s.Update(720)
	if first.Hidden() {
		t.Error("expected frozen queue to keep the object")
	}
}

func TestFindRandomSpawnPositionPushesOut(t *testing.T) {
	s := newTestSpawner(t, propsOnlyConfig(), 1)
	rock := &Object{Kind: KindProp, Prop: &Prop{BaseRadius: 10, ScaleX: 1, ScaleZ: 1}}
	s.place(rock, 0, 0, 0)

	x, z, ok := s.FindRandomSpawnPosition(2, func() (float64, float64) { return 3, 0 })
	if !ok {
		t.Fatal("expected a position")
	}
	// Pushed from the rock centre away from the candidate point: (-12, 0).
	if math.Abs(x+12) > 1e-9 || math.Abs(z) > 1e-9 {
		t.Errorf("expected (-12, 0), got (%f, %f)", x, z)
	}

	// Degenerate direction: candidate on the centre.
	x, z, ok = s.FindRandomSpawnPosition(2, func() (float64, float64) { return 0, 0 })
	if !ok {
		t.Fatal("expected a position")
	}
	if d := math.Hypot(x, z); math.Abs(d-12) > 1e-9 {
		t.Errorf("expected distance 12 from the rock, got %f", d)
	}
}

func TestFindCollidingPrefersOldestObject(t *testing.T) {
	s := newTestSpawner(t, propsOnlyConfig(), 1)
	older := &Object{Kind: KindProp, Prop: &Prop{BaseRadius: 5, ScaleX: 1, ScaleZ: 1}}
	newer := &Object{Kind: KindProp, Prop: &Prop{BaseRadius: 5, ScaleX: 1, ScaleZ: 1}}
	s.place(older, 0, 0, 0)
	s.place(newer, 6, 0, 0)

	if hit := s.FindColliding(3, 0, 1); hit != older {
		t.Errorf("expected the older object, got %v", hit)
	}
	if hit := s.FindColliding(100, 100, 1); hit != nil {
		t.Errorf("expected no hit, got %v", hit)
	}

	boat := &Object{Kind: KindBoat, X: 100, Z: 100, Boat: &Boat{Radius: 3.5}}
	s.AddBoat(boat)
	if hit := s.FindColliding(100, 100, 1); hit != boat {
		t.Errorf("expected the boat, got %v", hit)
	}
}

func TestRandomAttachable(t *testing.T) {
	s := newTestSpawner(t, propsOnlyConfig(), 1)
	buoy := &Object{Kind: KindProp, Prop: &Prop{BaseRadius: 1, ScaleX: 1, ScaleZ: 1, CanAttachCue: true}}
	rock := &Object{Kind: KindProp, Prop: &Prop{BaseRadius: 1, ScaleX: 1, ScaleZ: 1}}
	s.place(buoy, 0, 100, 0)
	s.place(rock, 0, 50, 0)

	got, ok := s.RandomAttachable(80, 120)
	if !ok || got.Object != buoy || got.Member != -1 {
		t.Errorf("expected the buoy, got %+v ok=%v", got, ok)
	}
	if _, ok := s.RandomAttachable(0, 60); ok {
		t.Error("expected no attachable prop near the rock")
	}
}

func TestBoatFollowsPath(t *testing.T) {
	conf := config.Default()
	conf.Boats.SpawnProbability = 0
	s := newTestSpawner(t, conf, 1)

	grid := navigation.NewGrid()
	pf := navigation.NewPathfinder(grid, random.New(1), navigation.WithLogger(log.New(io.Discard)))

	var events []PathEvent
	fleet := NewFleet(conf.Boats, s, pf, random.New(2), WithPathHook(func(e PathEvent) {
		events = append(events, e)
	}))

	boat, ok := fleet.Spawn(0)
	if !ok {
		t.Fatal("expected a boat on an empty sea")
	}
	x0, z0 := boat.X, boat.Z

	for i := 1; i <= 60; i++ {
		fleet.Update(float64(i)/60, 1.0/60)
	}

	if len(events) == 0 || !events[0].Result.Found {
		t.Fatal("expected a successful path query")
	}
	if boat.X == x0 && boat.Z == z0 {
		t.Error("expected the boat to move")
	}
	if len(fleet.Boats()) != 1 {
		t.Errorf("expected path-following boat to stay alive, got %d boats", len(fleet.Boats()))
	}
}

func TestBoatExpiresWithoutPaths(t *testing.T) {
	conf := config.Default()
	conf.Boats.SpawnProbability = 0
	conf.Boats.FollowPaths = false
	s := newTestSpawner(t, conf, 1)
	pf := navigation.NewPathfinder(navigation.NewGrid(), random.New(1))
	fleet := NewFleet(conf.Boats, s, pf, random.New(2))

	if _, ok := fleet.Spawn(0); !ok {
		t.Fatal("expected a boat")
	}
	fleet.Update(conf.Boats.Lifetime-1, 1)
	if len(fleet.Boats()) != 1 {
		t.Fatal("expected boat alive before its lifetime")
	}
	fleet.Update(conf.Boats.Lifetime, 1)
	if len(fleet.Boats()) != 0 {
		t.Error("expected boat to expire")
	}
	if s.FindColliding(0, 0, navigation.MaxRho*2) != nil {
		t.Error("expected expired boat to be unregistered")
	}
}
