package sea

import (
	"math"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/tomz197/seaspot/internal/config"
	"github.com/tomz197/seaspot/internal/navigation"
	"github.com/tomz197/seaspot/internal/physics"
	"github.com/tomz197/seaspot/internal/random"
)

// Spawn placement tuning.
const (
	spawnAttempts  = 16     // Random points tried before giving up
	despawnAngle   = 180.0  // Degrees travelled before an object leaves the sea
	degenerateLen2 = 0.0001 // Squared distance below which the push direction is random
	broadPhaseCell = 25.0   // World units per broad phase cell
)

// PointFunc yields candidate spawn positions in local coordinates.
type PointFunc func() (x, z float64)

// Spawner keeps the sea populated with props and islands.
// Objects are shown in spawn order and hidden once the disc has carried them half way round.
// Hidden and unplaceable objects are shelved and reused by later spawns.
//
// A Spawner is not safe for concurrent use.
type Spawner struct {
	cfg     config.SpawnerConfig
	packing config.PackingConfig
	catalog *Catalog
	rng     random.Source
	logger  *log.Logger

	// DontDespawn freezes the queue: nothing is hidden any more.
	DontDespawn bool

	queue          []*Object   // Shown objects, oldest first
	shelvedProps   [][]*Object // Per prop prefab
	shelvedIslands []*Object
	numIslands     int
	boats          []*Object

	broad      *physics.SpatialGrid
	broadDirty bool
	maxRadius  float64 // Largest effective radius in the queue, valid with broad

	onIsland func(*Object)
}

// SpawnerOption configures a Spawner.
type SpawnerOption func(*Spawner)

// WithSpawnerLogger sets the logger.
func WithSpawnerLogger(logger *log.Logger) SpawnerOption {
	return func(s *Spawner) {
		s.logger = logger
	}
}

// WithIslandHook calls fn every time an island has been laid out and shown.
func WithIslandHook(fn func(*Object)) SpawnerOption {
	return func(s *Spawner) {
		s.onIsland = fn
	}
}

// NewSpawner creates a spawner for the prefabs of conf.
func NewSpawner(conf *config.Config, rng random.Source, opts ...SpawnerOption) (*Spawner, error) {
	catalog, err := NewCatalog(conf)
	if err != nil {
		return nil, err
	}

	s := &Spawner{
		cfg:          conf.Spawner,
		packing:      conf.Packing,
		catalog:      catalog,
		rng:          rng,
		logger:       log.Default(),
		DontDespawn:  conf.Spawner.SpawnOnce,
		shelvedProps: make([][]*Object, catalog.PropCount()),
		broad:        physics.NewSpatialGrid(navigation.MaxRho*1.25, broadPhaseCell),
		broadDirty:   true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Catalog returns the prefab catalog.
func (s *Spawner) Catalog() *Catalog {
	return s.catalog
}

// Objects returns the shown props and islands, oldest first. The slice must not be modified.
func (s *Spawner) Objects() []*Object {
	return s.queue
}

// Len returns the number of shown props and islands.
func (s *Spawner) Len() int {
	return len(s.queue)
}

// IslandCount returns the number of islands in use, shown or being placed.
func (s *Spawner) IslandCount() int {
	return s.numIslands
}

// Obstacles appends every shown prop and island to dst.
func (s *Spawner) Obstacles(dst []navigation.Obstacle) []navigation.Obstacle {
	for _, o := range s.queue {
		dst = append(dst, o)
	}
	return dst
}

// AddBoat registers a boat for spawn collision checks.
func (s *Spawner) AddBoat(b *Object) {
	s.boats = append(s.boats, b)
}

// RemoveBoat forgets a boat.
func (s *Spawner) RemoveBoat(b *Object) {
	for i, o := range s.boats {
		if o == b {
			s.boats = append(s.boats[:i], s.boats[i+1:]...)
			return
		}
	}
}

// Update runs one spawn step at the given disc angle (degrees).
// Returns the object shown this step, if any.
func (s *Spawner) Update(angle float64) *Object {
	obj := s.pick()

	var shown *Object
	if obj != nil {
		s.randomize(obj)

		if x, z, ok := s.FindRandomSpawnPosition(obj.EffectiveRadius(), s.SpawnLinePoint(angle)); ok {
			s.place(obj, x, z, angle)
			shown = obj
		} else {
			s.shelve(obj)
		}
	}

	if s.DontDespawn {
		return shown
	}

	for len(s.queue) > 0 && s.queue[0].TraveledAngle(angle) >= despawnAngle {
		head := s.queue[0]
		head.hide()
		s.queue = s.queue[1:]
		s.broadDirty = true
		s.shelve(head)
	}

	return shown
}

// pick chooses what to spawn this step: a prop, an island or nothing.
func (s *Spawner) pick() *Object {
	if s.rng.Float64() < s.cfg.SpawnProbability && s.catalog.PropCount() > 0 {
		i := s.rng.IntRange(0, s.catalog.PropCount())
		return s.takeProp(i)
	}

	if s.numIslands < s.cfg.MaxIslands && s.rng.Float64() < s.cfg.IslandSpawnProbability {
		var obj *Object
		if n := len(s.shelvedIslands); n > 0 {
			i := s.rng.IntRange(0, n)
			obj = s.shelvedIslands[i]
			s.shelvedIslands = append(s.shelvedIslands[:i], s.shelvedIslands[i+1:]...)
		} else if s.catalog.IslandCount() > 0 {
			i := s.rng.IntRange(0, s.catalog.IslandCount())
			obj = &Object{ID: uuid.New(), Kind: KindIsland, Island: s.catalog.NewIsland(i, s.rng), hidden: true}
		} else {
			return nil
		}
		s.numIslands++
		return obj
	}

	return nil
}

func (s *Spawner) takeProp(i int) *Object {
	if shelf := s.shelvedProps[i]; len(shelf) > 0 {
		obj := shelf[len(shelf)-1]
		s.shelvedProps[i] = shelf[:len(shelf)-1]
		return obj
	}
	return &Object{ID: uuid.New(), Kind: KindProp, Prop: s.catalog.NewProp(i), hidden: true}
}

func (s *Spawner) randomize(obj *Object) {
	switch obj.Kind {
	case KindProp:
		s.catalog.RandomizeProp(obj.Prop, s.rng)
	case KindIsland:
		s.catalog.RandomizeIsland(obj.Island, s.rng)
	}
}

func (s *Spawner) place(obj *Object, x, z, angle float64) {
	obj.X, obj.Z = x, z
	if obj.Kind == KindIsland {
		obj.Island.Layout(s.packing, s.rng)
		s.logger.Debug("island placed",
			"id", obj.ID, "members", len(obj.Island.Members),
			"radius", obj.Island.EffectiveRadius, "converged", obj.Island.Converged)
	}
	obj.show(angle)

	s.queue = append(s.queue, obj)
	s.broadDirty = true

	if obj.Kind == KindIsland && s.onIsland != nil {
		s.onIsland(obj)
	}
}

func (s *Spawner) shelve(obj *Object) {
	obj.hide()
	switch obj.Kind {
	case KindProp:
		s.shelvedProps[obj.Prop.prefab] = append(s.shelvedProps[obj.Prop.prefab], obj)
	case KindIsland:
		s.shelvedIslands = append(s.shelvedIslands, obj)
		s.numIslands--
	}
}

// SpawnLinePoint returns a PointFunc drawing points on the world spawn line,
// converted to local coordinates for the disc angle.
func (s *Spawner) SpawnLinePoint(angle float64) PointFunc {
	return func() (float64, float64) {
		wx := s.cfg.SpawnX + s.rng.Range(0, s.cfg.Width)
		return WorldToLocal(wx, s.cfg.SpawnZ, angle)
	}
}

// DiscPoint returns a PointFunc drawing points inside the disc of the given radius.
func DiscPoint(rng random.Source, radius float64) PointFunc {
	return func() (float64, float64) {
		a := rng.Float64() * 2 * math.Pi
		r := rng.Float64() * radius
		return math.Cos(a) * r, math.Sin(a) * r
	}
}

// FindRandomSpawnPosition looks for a point where a circle of the given radius touches no
// shown object or boat. Each attempt tries a fresh point, then the point pushed just
// outside the object it hit.
func (s *Spawner) FindRandomSpawnPosition(radius float64, point PointFunc) (x, z float64, ok bool) {
	for range spawnAttempts {
		x, z = point()

		hit := s.FindColliding(x, z, radius)
		if hit == nil {
			return x, z, true
		}

		hx, hz := hit.LocalXZ()
		dx, dz := hx-x, hz-z
		if len2 := dx*dx + dz*dz; len2 < degenerateLen2 {
			dx, dz = random.UnitVector(s.rng)
		} else {
			l := math.Sqrt(len2)
			dx, dz = dx/l, dz/l
		}

		push := hit.EffectiveRadius() + radius
		x, z = hx+dx*push, hz+dz*push
		if s.FindColliding(x, z, radius) == nil {
			return x, z, true
		}
	}
	return 0, 0, false
}

// FindColliding returns the oldest shown object, or else the newest boat, overlapping the
// circle (x, z, radius). Returns nil when the circle is free.
func (s *Spawner) FindColliding(x, z, radius float64) navigation.Obstacle {
	s.refreshBroadPhase()

	best := -1
	s.broad.QueryRadius(x, z, radius+s.maxRadius, func(i int) bool {
		o := s.queue[i]
		if (best < 0 || i < best) && physics.CirclesOverlap(x, z, radius, o.X, o.Z, o.EffectiveRadius()) {
			best = i
		}
		return false
	})
	if best >= 0 {
		return s.queue[best]
	}

	for i := len(s.boats) - 1; i >= 0; i-- {
		b := s.boats[i]
		if physics.CirclesOverlap(x, z, radius, b.X, b.Z, b.EffectiveRadius()) {
			return b
		}
	}
	return nil
}

func (s *Spawner) refreshBroadPhase() {
	if !s.broadDirty {
		return
	}
	s.broad.Clear()
	s.maxRadius = 0
	for i, o := range s.queue {
		s.broad.Insert(o.X, o.Z, i)
		s.maxRadius = math.Max(s.maxRadius, o.EffectiveRadius())
	}
	s.broadDirty = false
}

// Attachable is a prop a visual cue can be attached to.
type Attachable struct {
	Object *Object // Shown prop or island
	Member int     // Island member index, -1 for a prop
	X, Z   float64 // Local position of the prop
}

// RandomAttachable picks a cue-carrying prop among the shown objects whose distance from the
// disc centre lies in [rhoMin, rhoMax]. Island members qualify through their island.
func (s *Spawner) RandomAttachable(rhoMin, rhoMax float64) (Attachable, bool) {
	var candidates []Attachable
	for _, o := range s.queue {
		rho := o.Rho()
		if rho < rhoMin || rho > rhoMax {
			continue
		}

		switch o.Kind {
		case KindProp:
			if o.Prop.CanAttachCue {
				candidates = append(candidates, Attachable{Object: o, Member: -1, X: o.X, Z: o.Z})
			}
		case KindIsland:
			for i, m := range o.Island.Members {
				if m.Prop.CanAttachCue {
					candidates = append(candidates, Attachable{Object: o, Member: i, X: o.X + m.X, Z: o.Z + m.Z})
				}
			}
		}
	}

	if len(candidates) == 0 {
		return Attachable{}, false
	}
	return candidates[s.rng.IntRange(0, len(candidates))], true
}
