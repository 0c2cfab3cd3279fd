package sea

import (
	"github.com/google/uuid"

	"github.com/tomz197/seaspot/internal/config"
	"github.com/tomz197/seaspot/internal/navigation"
	"github.com/tomz197/seaspot/internal/random"
)

// Boat is a vessel crossing the disc along A* paths.
type Boat struct {
	Radius      float64
	Heading     float64 // Local heading in degrees, 0 is +Z
	PathQueries int

	follower  *navigation.Follower
	retryAt   float64 // Earliest time of the next path query
	expiresAt float64
}

// Path returns the waypoints left on the boat's current path.
func (b *Boat) Path() []navigation.Waypoint {
	return b.follower.Waypoints()
}

// PathEvent reports a path query made on behalf of a boat.
type PathEvent struct {
	Boat   *Object
	Result navigation.Result
}

// Fleet spawns boats and moves them along paths from a shared Pathfinder.
type Fleet struct {
	cfg     config.BoatConfig
	spawner *Spawner
	pf      *navigation.Pathfinder
	rng     random.Source
	boats   []*Object

	onPath func(PathEvent)
}

// FleetOption configures a Fleet.
type FleetOption func(*Fleet)

// WithPathHook calls fn after every path query.
func WithPathHook(fn func(PathEvent)) FleetOption {
	return func(f *Fleet) {
		f.onPath = fn
	}
}

// NewFleet creates an empty fleet. Boats are registered with spawner so props avoid them.
func NewFleet(cfg config.BoatConfig, spawner *Spawner, pf *navigation.Pathfinder, rng random.Source, opts ...FleetOption) *Fleet {
	f := &Fleet{
		cfg:     cfg,
		spawner: spawner,
		pf:      pf,
		rng:     rng,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Boats returns the live boats. The slice must not be modified.
func (f *Fleet) Boats() []*Object {
	return f.boats
}

// Spawn tries to place a boat at a free random point inside the disc.
func (f *Fleet) Spawn(now float64) (*Object, bool) {
	x, z, ok := f.spawner.FindRandomSpawnPosition(f.cfg.Radius, DiscPoint(f.rng, navigation.MaxRho))
	if !ok {
		return nil, false
	}

	obj := &Object{
		ID:   uuid.New(),
		Kind: KindBoat,
		X:    x,
		Z:    z,
		Boat: &Boat{
			Radius:    f.cfg.Radius,
			follower:  navigation.NewFollower(f.cfg.Speed, f.cfg.ReachThreshold),
			retryAt:   now,
			expiresAt: now + f.cfg.Lifetime,
		},
	}
	f.boats = append(f.boats, obj)
	f.spawner.AddBoat(obj)
	return obj, true
}

// Update advances every boat by dt seconds at time now, spawning a new boat with the
// configured probability. Boats that are not following paths expire after their lifetime.
func (f *Fleet) Update(now, dt float64) {
	if f.rng.Float64() < f.cfg.SpawnProbability && (f.cfg.MaxBoats <= 0 || len(f.boats) < f.cfg.MaxBoats) {
		f.Spawn(now)
	}

	alive := f.boats[:0]
	for _, obj := range f.boats {
		if f.step(obj, now, dt) {
			alive = append(alive, obj)
		} else {
			f.spawner.RemoveBoat(obj)
		}
	}
	clear(f.boats[len(alive):])
	f.boats = alive
}

// step moves one boat. Returns false when the boat is gone.
func (f *Fleet) step(obj *Object, now, dt float64) bool {
	b := obj.Boat

	if !f.cfg.FollowPaths {
		return now < b.expiresAt
	}

	if b.follower.Len() == 0 {
		if now >= b.retryAt {
			f.seek(obj, now)
		}
		return true
	}

	obj.X, obj.Z = b.follower.Step(obj.X, obj.Z, dt)
	b.Heading = b.follower.Heading()
	return true
}

// seek queries a new path, scheduling a retry when none is found.
func (f *Fleet) seek(obj *Object, now float64) {
	b := obj.Boat
	res := f.pf.FindPath(obj.X, obj.Z)
	b.PathQueries++

	if f.onPath != nil {
		f.onPath(PathEvent{Boat: obj, Result: res})
	}

	if res.Found && len(res.Nodes) > 0 {
		b.follower.SetPath(res.Waypoints(), obj.X, obj.Z)
		b.Heading = b.follower.Heading()
		return
	}
	b.retryAt = now + f.cfg.PathRetry
}
