package config

import "time"

// View resolution - the visible viewport in logical units.
// Actual rendering scales to fit terminal size.
const (
	ViewWidth  = 160 // Logical viewport width
	ViewHeight = 96  // Logical viewport height (in sub-pixels, so 48 terminal rows)
)

// Max render resolution in terminal cells. Larger terminals get a centred, bordered view.
const (
	MaxTermWidth  = 240
	MaxTermHeight = 72
)

// Viewer zoom, in world units per logical pixel.
const (
	DefaultZoom   = 8.5
	MinZoom       = 0.5
	MaxZoom       = 20.0
	ZoomStep      = 1.25 // Multiplier per key press
	PanStep       = 20.0 // World units per key press
	MaxViewerName = 16   // Maximum display length for viewer names
)

// Shutdown
const (
	ShutdownDisplaySeconds = 10.0 // Seconds to show shutdown message before auto-disconnect
)

// Inactivity
const (
	InactivityWarnUser       = 90  // Seconds
	InactivityDisconnectUser = 120 // Seconds
)

// Client rendering
const (
	ClientTargetFPS       = 30
	ClientTargetFrameTime = time.Second / ClientTargetFPS
)

// Server tick rate
const (
	ServerTickRate = 60
	ServerTickTime = time.Second / ServerTickRate
)

// Web streaming
const (
	WebFrameRate      = 15
	WebFrameTime      = time.Second / WebFrameRate
	WebMaxConnections = 64
)
