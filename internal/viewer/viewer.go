// Package viewer renders the shared sea into a terminal, one instance per connection.
package viewer

import (
	"bufio"
	"io"
	"time"

	"github.com/tomz197/seaspot/internal/config"
	"github.com/tomz197/seaspot/internal/draw"
	"github.com/tomz197/seaspot/internal/input"
	"github.com/tomz197/seaspot/internal/sim"
)

// Viewer handles rendering and input for a single connection.
type Viewer struct {
	server       sim.SeaServer
	handle       *sim.ViewerHandle
	state        *State
	canvas       *draw.Canvas
	chunkWriter  *draw.ChunkWriter // Accumulates UI text for chunked output
	writer       io.Writer
	inputStream  *input.Stream
	lastInput    time.Time
	name         string
	termSizeFunc draw.TermSizeFunc
}

// Options configures the viewer.
type Options struct {
	TermSizeFunc draw.TermSizeFunc
	Name         string
}

// New creates a viewer following the given server.
func New(srv sim.SeaServer, r *bufio.Reader, w io.Writer, opts Options) *Viewer {
	termSizeFunc := opts.TermSizeFunc
	if termSizeFunc == nil {
		termSizeFunc = draw.DefaultTermSizeFunc
	}

	name := opts.Name
	if len(name) > config.MaxViewerName {
		name = name[:config.MaxViewerName]
	}

	// Create canvas with clamped dimensions for max render resolution
	termWidth, termHeight, _ := termSizeFunc()
	renderWidth, renderHeight, offsetCol, offsetRow := clampTermSize(termWidth, termHeight)
	canvas := draw.NewScaledCanvas(renderWidth, renderHeight, config.ViewWidth, config.ViewHeight)
	canvas.SetOffset(offsetCol, offsetRow)

	return &Viewer{
		server:       srv,
		handle:       srv.RegisterViewer(name),
		state:        NewState(),
		canvas:       canvas,
		chunkWriter:  draw.NewChunkWriter(w, offsetCol, offsetRow),
		writer:       w,
		inputStream:  input.StartStream(r),
		lastInput:    time.Now(),
		name:         name,
		termSizeFunc: termSizeFunc,
	}
}

// Run starts the viewer loop. Blocks until the viewer quits or the server stops.
func (v *Viewer) Run() error {
	draw.HideCursor(v.writer)
	defer draw.ShowCursor(v.writer)
	draw.ClearScreen(v.writer)

	lastTime := time.Now()

	for v.state.Running {
		frameStart := time.Now()
		v.state.delta = frameStart.Sub(lastTime)
		lastTime = frameStart

		v.processInput()
		v.processServerEvents()
		v.updateScreen()

		if v.state.Mode == ModeShutdown {
			v.updateShutdownState()
		}

		if err := v.drawFrame(); err != nil {
			v.server.UnregisterViewer(v.handle.ID)
			return err
		}

		// Frame timing
		elapsed := time.Since(frameStart)
		if elapsed < config.ClientTargetFrameTime {
			time.Sleep(config.ClientTargetFrameTime - elapsed)
		}
	}

	v.server.UnregisterViewer(v.handle.ID)

	draw.ClearScreen(v.writer)
	return nil
}

// processInput reads input and applies it to the view.
func (v *Viewer) processInput() {
	in := input.ReadInput(v.inputStream)
	v.state.Input = in

	if len(in.Pressed) > 0 {
		v.lastInput = time.Now()
		v.state.isInactive = false
	} else if time.Since(v.lastInput).Seconds() > config.InactivityDisconnectUser {
		v.state.Running = false
	} else if time.Since(v.lastInput).Seconds() > config.InactivityWarnUser {
		v.state.isInactive = true
	}

	if in.Quit || in.Closed {
		v.state.Running = false
	}

	if v.state.Mode == ModeWatching {
		v.state.applyInput(in)
	}
}

// processServerEvents handles events from the server.
func (v *Viewer) processServerEvents() {
	for {
		select {
		case event, ok := <-v.handle.EventsCh:
			if !ok {
				// Server closed the channel
				v.state.Running = false
				return
			}
			if event.Type == sim.EventServerShutdown {
				v.state.Mode = ModeShutdown
				v.state.shutdownTimer = config.ShutdownDisplaySeconds
			}
		default:
			return
		}
	}
}

// updateScreen handles terminal resize, clamping to max render resolution.
// On actual size changes, clears the terminal to remove residual pixels
// outside the new canvas area.
func (v *Viewer) updateScreen() {
	termWidth, termHeight, err := v.termSizeFunc()
	if err != nil {
		return
	}
	renderWidth, renderHeight, offsetCol, offsetRow := clampTermSize(termWidth, termHeight)

	if renderWidth != v.canvas.TerminalWidth() || renderHeight != v.canvas.TerminalHeight() ||
		offsetCol != v.canvas.OffsetCol() || offsetRow != v.canvas.OffsetRow() {
		draw.ClearScreen(v.writer)
		v.canvas.ForceRedraw()
	}

	v.canvas.Resize(renderWidth, renderHeight)
	v.canvas.SetOffset(offsetCol, offsetRow)
	v.chunkWriter.SetOffset(offsetCol, offsetRow)
}

// clampTermSize clamps terminal dimensions to the max render resolution and computes
// the centering offset for the render area.
func clampTermSize(termWidth, termHeight int) (renderWidth, renderHeight, offsetCol, offsetRow int) {
	renderWidth = min(termWidth, config.MaxTermWidth)
	renderHeight = min(termHeight, config.MaxTermHeight)
	offsetCol = (termWidth - renderWidth) / 2
	offsetRow = (termHeight - renderHeight) / 2
	return
}

// updateShutdownState handles the shutdown screen countdown.
func (v *Viewer) updateShutdownState() {
	v.state.shutdownTimer -= v.state.delta.Seconds()
	if v.state.shutdownTimer <= 0 {
		v.state.Running = false
	}
}
