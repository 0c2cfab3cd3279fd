package viewer

import (
	"time"

	"github.com/tomz197/seaspot/internal/config"
	"github.com/tomz197/seaspot/internal/input"
)

// Mode is the current phase of a viewer session.
type Mode int

const (
	ModeWatching Mode = iota // Following the sea
	ModeShutdown             // Server is shutting down
)

// Camera is the world position at the centre of the view.
type Camera struct {
	X, Z float64
	Zoom float64 // World units per logical pixel
}

// State holds per-viewer state (input, camera, overlays, etc.).
type State struct {
	Input     input.Input
	Camera    Camera
	Mode      Mode
	ShowGrid  bool
	ShowPaths bool
	Running   bool

	delta         time.Duration
	shutdownTimer float64 // Countdown before auto-disconnect on shutdown
	isInactive    bool

	// Previous values, for full redraws on transitions
	prevMode    Mode
	wasInactive bool
}

// NewState creates a viewer state centred on the disc.
func NewState() *State {
	return &State{
		Camera:    Camera{Zoom: config.DefaultZoom},
		ShowPaths: true,
		Running:   true,
	}
}

// applyInput updates the camera and overlays from this frame's input.
func (s *State) applyInput(in input.Input) {
	if in.ToggleGrid {
		s.ShowGrid = !s.ShowGrid
	}
	if in.TogglePaths {
		s.ShowPaths = !s.ShowPaths
	}
	if in.ZoomIn {
		s.Camera.Zoom = max(s.Camera.Zoom/config.ZoomStep, config.MinZoom)
	}
	if in.ZoomOut {
		s.Camera.Zoom = min(s.Camera.Zoom*config.ZoomStep, config.MaxZoom)
	}
	if in.Center {
		s.Camera = Camera{Zoom: config.DefaultZoom}
	}

	// Pan faster when zoomed out
	step := config.PanStep * s.Camera.Zoom / config.DefaultZoom
	if in.Left {
		s.Camera.X -= step
	}
	if in.Right {
		s.Camera.X += step
	}
	if in.Up {
		s.Camera.Z += step
	}
	if in.Down {
		s.Camera.Z -= step
	}
}
