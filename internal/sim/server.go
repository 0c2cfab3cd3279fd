// Package sim runs the authoritative sea simulation: the rotating disc, the spawners,
// the occupancy grid and the boats, published to viewers as immutable snapshots.
package sim

import (
	"context"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"

	"github.com/tomz197/seaspot/internal/config"
	"github.com/tomz197/seaspot/internal/navigation"
	"github.com/tomz197/seaspot/internal/random"
	"github.com/tomz197/seaspot/internal/record"
	"github.com/tomz197/seaspot/internal/sea"
)

// prewarmStep is the spawner time step used to populate the sea before the first tick.
const prewarmStep = 1.0 / 60.0

// Recorder persists layout and navigation outcomes. *record.Store implements it.
type Recorder interface {
	RecordIsland(ctx context.Context, isl record.Island) error
	RecordPath(ctx context.Context, p record.Path) error
}

// Compile-time check that the SQLite store is a Recorder.
var _ Recorder = (*record.Store)(nil)

// SeaServer is the interface viewers use to follow the simulation.
type SeaServer interface {
	RegisterViewer(name string) *ViewerHandle
	UnregisterViewer(viewerID int)
	GetSnapshot() *Snapshot
}

// Compile-time check that Server implements SeaServer.
var _ SeaServer = (*Server)(nil)

// ViewerHandle represents a viewer's connection to the server.
type ViewerHandle struct {
	ID       int
	Name     string
	EventsCh chan ViewerEvent
}

// ViewerEvent is sent from the server to a viewer.
type ViewerEvent struct {
	Type ViewerEventType
}

// ViewerEventType identifies the type of viewer event.
type ViewerEventType int

const (
	EventServerShutdown ViewerEventType = iota
)

type recordEvent struct {
	island *record.Island
	path   *record.Path
}

// Server owns the sea and advances it at a fixed tick rate.
type Server struct {
	conf     *config.Config
	logger   *log.Logger
	recorder Recorder

	spawner *sea.Spawner
	fleet   *sea.Fleet
	grid    *navigation.Grid
	pf      *navigation.Pathfinder

	snapshot     atomic.Pointer[Snapshot]
	viewers      map[int]*ViewerHandle
	nextViewerID int
	registerCh   chan *ViewerHandle
	unregisterCh chan int
	recordCh     chan recordEvent
	mu           sync.RWMutex

	// Double-buffered snapshot slices to avoid allocations
	objectBufs  [2][]ObjectState
	boatBufs    [2][]BoatState
	pathBufs    [2][]navigation.Waypoint
	snapshotIdx int

	members   map[*sea.Object][]Circle // Island member circles from the last layout
	blocked   []navigation.Node
	obstacles []navigation.Obstacle

	tick   uint64
	now    float64
	angle  float64
	frozen bool // Spawner stopped after a spawn-once prewarm
}

// Option configures a Server.
type Option func(*serverOptions)

type serverOptions struct {
	logger   *log.Logger
	recorder Recorder
	rng      random.Source
}

// WithLogger sets the logger for the server and everything it owns.
func WithLogger(logger *log.Logger) Option {
	return func(o *serverOptions) {
		o.logger = logger
	}
}

// WithRecorder stores island layouts and path queries.
func WithRecorder(r Recorder) Option {
	return func(o *serverOptions) {
		o.recorder = r
	}
}

// WithRandom replaces the seeded sources with a single shared one.
func WithRandom(src random.Source) Option {
	return func(o *serverOptions) {
		o.rng = src
	}
}

// NewServer creates a simulation from conf.
func NewServer(conf *config.Config, opts ...Option) (*Server, error) {
	o := serverOptions{logger: log.Default()}
	for _, opt := range opts {
		opt(&o)
	}

	spawnRng, boatRng, pathRng := o.rng, o.rng, o.rng
	if o.rng == nil {
		spawnRng = random.New(conf.Sea.Seed)
		boatRng = random.New(conf.Sea.Seed + 1)
		pathRng = random.New(conf.Sea.Seed + 2)
	}

	s := &Server{
		conf:         conf,
		logger:       o.logger,
		recorder:     o.recorder,
		grid:         navigation.NewGrid(),
		viewers:      make(map[int]*ViewerHandle),
		nextViewerID: 1,
		registerCh:   make(chan *ViewerHandle, 16),
		unregisterCh: make(chan int, 16),
		recordCh:     make(chan recordEvent, 256),
		members:      make(map[*sea.Object][]Circle),
	}

	spawner, err := sea.NewSpawner(conf, spawnRng,
		sea.WithSpawnerLogger(o.logger),
		sea.WithIslandHook(s.onIsland),
	)
	if err != nil {
		return nil, err
	}
	s.spawner = spawner
	s.pf = navigation.NewPathfinder(s.grid, pathRng, navigation.WithLogger(o.logger))
	s.fleet = sea.NewFleet(conf.Boats, spawner, s.pf, boatRng, sea.WithPathHook(s.onPath))

	// Create initial empty snapshot
	s.snapshot.Store(&Snapshot{})

	return s, nil
}

// Grid returns the occupancy grid boats navigate on.
func (s *Server) Grid() *navigation.Grid {
	return s.grid
}

// Spawner returns the sea object spawner. Only safe to use while the server is not running.
func (s *Server) Spawner() *sea.Spawner {
	return s.spawner
}

// Run populates the sea and starts the server loop. Blocks until the context is cancelled.
func (s *Server) Run(ctx context.Context) {
	if s.recorder != nil {
		go s.recordLoop(ctx)
	}

	if s.conf.Sea.Prewarm {
		start := time.Now()
		s.Prewarm()
		s.logger.Info("sea prewarmed", "objects", s.spawner.Len(), "took", time.Since(start).Round(time.Millisecond))
	}

	lastTime := time.Now()
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		frameStart := time.Now()
		delta := frameStart.Sub(lastTime)
		lastTime = frameStart

		// Process registrations/unregistrations
		s.processRegistrations()

		// Advance the sea
		s.Step(delta.Seconds())

		// Create new snapshot for viewers
		s.createSnapshot()

		// Frame timing
		elapsed := time.Since(frameStart)
		if elapsed < config.ServerTickTime {
			time.Sleep(config.ServerTickTime - elapsed)
		}
	}
}

// Prewarm steps the spawner over half a turn of the disc (a full turn for spawn-once seas)
// so the sea is populated before time zero. A spawn-once sea is then frozen.
// The occupancy grid is filled afterwards.
func (s *Server) Prewarm() {
	s.mu.Lock()
	defer s.mu.Unlock()

	degPerSec := s.conf.Sea.RotationSpeed * 180 / math.Pi
	if degPerSec > 0 {
		maxAngle := 180.0
		if s.conf.Spawner.SpawnOnce {
			maxAngle = 360.0
		}
		for t := s.now - maxAngle/degPerSec; t < s.now; t += prewarmStep {
			s.spawner.Update(t * degPerSec)
		}
	}

	if s.conf.Spawner.SpawnOnce {
		s.frozen = true
	}
	s.refreshGrid()
}

// Step advances the simulation by dt seconds.
func (s *Server) Step(dt float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tick++
	s.now += dt
	s.angle = s.now * s.conf.Sea.RotationSpeed * 180 / math.Pi

	if !s.frozen {
		s.spawner.Update(s.angle)
		if s.tick%uint64(s.conf.Pathfinding.GridRefreshTicks) == 0 {
			s.refreshGrid()
		}
	}

	s.fleet.Update(s.now, dt)
}

// refreshGrid refills the occupancy grid from the shown objects. Must be called with lock held.
func (s *Server) refreshGrid() {
	s.obstacles = s.spawner.Obstacles(s.obstacles[:0])
	s.grid.Fill(s.obstacles)
	// Fresh slice: older snapshots keep the previous one.
	s.blocked = s.grid.BlockedCells(nil)
}

// Shutdown gracefully shuts down the server by notifying all connected viewers
// and waiting for them to disconnect (up to the given timeout).
// The caller should cancel the server context after Shutdown returns.
func (s *Server) Shutdown(timeout time.Duration) {
	// Notify all connected viewers about the shutdown
	s.mu.RLock()
	for _, handle := range s.viewers {
		select {
		case handle.EventsCh <- ViewerEvent{Type: EventServerShutdown}:
		default:
		}
	}
	s.mu.RUnlock()

	// Wait for all viewers to disconnect, or timeout
	deadline := time.After(timeout)
	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-deadline:
			return
		case <-ticker.C:
			s.mu.RLock()
			remaining := len(s.viewers)
			s.mu.RUnlock()
			if remaining == 0 {
				return
			}
		}
	}
}

// RegisterViewer registers a new viewer with the given name and returns its handle.
func (s *Server) RegisterViewer(name string) *ViewerHandle {
	s.mu.Lock()
	id := s.nextViewerID
	s.nextViewerID++
	s.mu.Unlock()

	handle := &ViewerHandle{
		ID:       id,
		Name:     name,
		EventsCh: make(chan ViewerEvent, 16),
	}

	s.registerCh <- handle
	return handle
}

// UnregisterViewer removes a viewer from the server.
func (s *Server) UnregisterViewer(viewerID int) {
	s.unregisterCh <- viewerID
}

// GetSnapshot returns the current snapshot.
func (s *Server) GetSnapshot() *Snapshot {
	return s.snapshot.Load()
}

// processRegistrations handles pending viewer registrations/unregistrations.
func (s *Server) processRegistrations() {
	for {
		select {
		case handle := <-s.registerCh:
			s.mu.Lock()
			s.viewers[handle.ID] = handle
			s.mu.Unlock()
			s.logger.Debug("viewer joined", "id", handle.ID, "name", handle.Name)
		case viewerID := <-s.unregisterCh:
			s.mu.Lock()
			if handle, ok := s.viewers[viewerID]; ok {
				close(handle.EventsCh)
				delete(s.viewers, viewerID)
			}
			s.mu.Unlock()
		default:
			return
		}
	}
}

// createSnapshot creates an immutable snapshot of the sea.
func (s *Server) createSnapshot() {
	s.mu.RLock()
	defer s.mu.RUnlock()

	// Use double-buffered slices to avoid allocations
	idx := s.snapshotIdx
	s.snapshotIdx = 1 - s.snapshotIdx // Toggle for next frame

	objects := s.objectBufs[idx][:0]
	for _, o := range s.spawner.Objects() {
		st := ObjectState{
			ID:     o.ID,
			Kind:   o.Kind,
			X:      o.X,
			Z:      o.Z,
			Radius: o.EffectiveRadius(),
		}
		switch o.Kind {
		case sea.KindProp:
			st.Name = o.Prop.Name
		case sea.KindIsland:
			st.Name = o.Island.Name
			st.Members = s.members[o]
		}
		objects = append(objects, st)
	}
	s.objectBufs[idx] = objects

	fleet := s.fleet.Boats()
	paths := s.pathBufs[idx][:0]
	for _, b := range fleet {
		paths = append(paths, b.Boat.Path()...)
	}
	s.pathBufs[idx] = paths

	boats := s.boatBufs[idx][:0]
	off := 0
	for _, b := range fleet {
		n := len(b.Boat.Path())
		boats = append(boats, BoatState{
			ID:      b.ID,
			X:       b.X,
			Z:       b.Z,
			Heading: b.Boat.Heading,
			Radius:  b.Boat.Radius,
			Path:    paths[off : off+n : off+n],
		})
		off += n
	}
	s.boatBufs[idx] = boats

	s.snapshot.Store(&Snapshot{
		Tick:    s.tick,
		Time:    s.now,
		Angle:   s.angle,
		Objects: objects,
		Boats:   boats,
		Blocked: s.blocked,
		Viewers: len(s.viewers),
	})
}

// Publish creates a snapshot of the current state outside the server loop.
func (s *Server) Publish() *Snapshot {
	s.createSnapshot()
	return s.GetSnapshot()
}

func (s *Server) onIsland(obj *sea.Object) {
	s.members[obj] = islandCircles(obj)

	if s.recorder == nil {
		return
	}
	rec := IslandRecord(obj, s.angle)
	s.enqueueRecord(recordEvent{island: &rec})
}

func (s *Server) onPath(ev sea.PathEvent) {
	if s.recorder == nil {
		return
	}
	rec := PathRecord(ev)
	s.enqueueRecord(recordEvent{path: &rec})
}

func (s *Server) enqueueRecord(ev recordEvent) {
	select {
	case s.recordCh <- ev:
	default:
		// Recorder is behind, drop the record
		s.logger.Warn("record queue full, dropping record")
	}
}

// recordLoop writes queued records until the context is cancelled.
func (s *Server) recordLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-s.recordCh:
			var err error
			if ev.island != nil {
				err = s.recorder.RecordIsland(ctx, *ev.island)
			} else if ev.path != nil {
				err = s.recorder.RecordPath(ctx, *ev.path)
			}
			if err != nil {
				s.logger.Error("record failed", "err", err)
			}
		}
	}
}
