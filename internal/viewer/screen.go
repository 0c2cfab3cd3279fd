package viewer

import (
	"fmt"
	"math"
	"time"

	"github.com/tomz197/seaspot/internal/config"
	"github.com/tomz197/seaspot/internal/draw"
	"github.com/tomz197/seaspot/internal/navigation"
	"github.com/tomz197/seaspot/internal/sea"
	"github.com/tomz197/seaspot/internal/sim"
)

const helpText = "q quit  g grid  p paths  +/- zoom  wasd pan  c centre"

// drawFrame draws the current frame.
func (v *Viewer) drawFrame() error {
	// On mode or inactivity transitions, do a full terminal clear
	// so UI elements from the previous state don't persist on screen.
	if v.state.Mode != v.state.prevMode || v.state.isInactive != v.state.wasInactive {
		v.chunkWriter.ClearScreen()
		v.canvas.ForceRedraw()
		v.state.prevMode = v.state.Mode
		v.state.wasInactive = v.state.isInactive
	}

	v.canvas.Clear()

	snap := v.server.GetSnapshot()
	v.drawSea(snap)

	v.canvas.Render(v.chunkWriter)
	v.canvas.RenderBorder(v.chunkWriter)

	v.drawIslandNames(snap)
	v.drawUI(snap)

	return v.chunkWriter.Flush()
}

// toView converts a local disc position to logical canvas coordinates at the given disc angle.
func (v *Viewer) toView(x, z, angle float64) draw.Point {
	wx, wz := sea.LocalToWorld(x, z, angle)
	cam := v.state.Camera
	return draw.Point{
		X: config.ViewWidth/2 + (wx-cam.X)/cam.Zoom,
		Y: config.ViewHeight/2 - (wz-cam.Z)/cam.Zoom,
	}
}

// drawSea draws the disc rim, the grid overlay, objects, paths and boats.
func (v *Viewer) drawSea(snap *sim.Snapshot) {
	c := v.canvas
	zoom := v.state.Camera.Zoom

	c.DrawCircle(v.toView(0, 0, snap.Angle), navigation.MaxRho/zoom, false)

	if v.state.ShowGrid {
		for _, n := range snap.Blocked {
			dx, dz := navigation.AngleToLocal((float64(n.Theta) + 0.5) / navigation.ThetaCells * navigation.MaxTheta)
			d := (float64(n.Rho) + 0.5) / navigation.RhoCells * navigation.MaxRho
			p := v.toView(dx*d, dz*d, snap.Angle)
			c.SetFloat(p.X, p.Y)
		}
	}

	for _, o := range snap.Objects {
		if o.Kind == sea.KindIsland {
			for _, m := range o.Members {
				c.DrawCircle(v.toView(m.X, m.Z, snap.Angle), m.Radius/zoom, true)
			}
			c.DrawCircle(v.toView(o.X, o.Z, snap.Angle), o.Radius/zoom, false)
			continue
		}
		c.DrawCircle(v.toView(o.X, o.Z, snap.Angle), o.Radius/zoom, true)
	}

	for _, b := range snap.Boats {
		pos := v.toView(b.X, b.Z, snap.Angle)

		if v.state.ShowPaths {
			prev := pos
			for _, wp := range b.Path {
				next := v.toView(wp.X, wp.Z, snap.Angle)
				c.DrawLine(prev, next)
				prev = next
			}
		}

		v.drawBoat(pos, b.Heading+snap.Angle, b.Radius/zoom)
	}
}

// drawBoat draws a boat as a triangle pointing along its world heading (degrees).
func (v *Viewer) drawBoat(pos draw.Point, heading, r float64) {
	r = max(r, 1.5)
	dx, dz := navigation.AngleToLocal(heading)
	// Canvas Y grows downwards
	fx, fy := dx, -dz
	px, py := -fy, fx

	points := v.canvas.BorrowPoints(3)
	points[0] = draw.Point{X: pos.X + fx*2*r, Y: pos.Y + fy*2*r}
	points[1] = draw.Point{X: pos.X - fx*r + px*r, Y: pos.Y - fy*r + py*r}
	points[2] = draw.Point{X: pos.X - fx*r - px*r, Y: pos.Y - fy*r - py*r}
	v.canvas.DrawPolygon(points, true)
}

// drawIslandNames labels islands below their outline.
// Marks the drawn cells as dirty so the canvas overwrites them next frame,
// preventing stale labels from persisting as the disc turns.
func (v *Viewer) drawIslandNames(snap *sim.Snapshot) {
	termWidth := v.canvas.TerminalWidth()
	termHeight := v.canvas.TerminalHeight()
	zoom := v.state.Camera.Zoom

	for _, o := range snap.Objects {
		if o.Kind != sea.KindIsland || o.Name == "" {
			continue
		}
		p := v.toView(o.X, o.Z, snap.Angle)
		col, row := v.canvas.LogicalToTerminal(p.X, p.Y+o.Radius/zoom+2)
		col -= len(o.Name) / 2

		if row < 1 || row > termHeight || col < 1 || col+len(o.Name) > termWidth {
			continue
		}
		v.chunkWriter.WriteStyled(col, row, draw.ColorDim, o.Name)
		v.canvas.MarkTextDirty(col, row, len(o.Name))
	}
}

// drawUI draws the text overlay.
func (v *Viewer) drawUI(snap *sim.Snapshot) {
	termWidth := v.canvas.TerminalWidth()
	termHeight := v.canvas.TerminalHeight()
	centerX := termWidth / 2
	centerY := termHeight / 2

	if v.state.Mode == ModeShutdown {
		v.drawShutdownScreen(centerX, centerY)
		return
	}

	if v.state.isInactive {
		v.drawInactivityScreen(centerX, centerY)
		return
	}

	v.drawHUD(termWidth, termHeight, snap)
}

// drawHUD draws the status lines.
// Text fields use fixed-width formatting so shrinking values don't leave
// residual characters on screen.
func (v *Viewer) drawHUD(termWidth, termHeight int, snap *sim.Snapshot) {
	cw := v.chunkWriter

	status := fmt.Sprintf("tick %-8d angle %6.1f  objects %-4d boats %-3d viewers %-3d",
		snap.Tick, normalizeAngle(snap.Angle), len(snap.Objects), len(snap.Boats), snap.Viewers)
	cw.WriteStyled(2, 1, draw.ColorBrightCyan, status)

	overlays := ""
	if v.state.ShowGrid {
		overlays += " grid"
	}
	if v.state.ShowPaths {
		overlays += " paths"
	}
	cam := v.state.Camera
	view := fmt.Sprintf("zoom %-5.2f X:%-6.0f Z:%-6.0f%-12s", cam.Zoom, cam.X, cam.Z, overlays)
	cw.WriteAt(2, termHeight, view)

	if col := termWidth - len(helpText); col > len(view)+3 {
		cw.WriteStyled(col, termHeight, draw.ColorDim, helpText)
	}
}

// drawInactivityScreen draws the inactivity warning screen.
func (v *Viewer) drawInactivityScreen(centerX, centerY int) {
	cw := v.chunkWriter
	title := "INACTIVITY WARNING"
	cw.WriteAt(centerX-len(title)/2, centerY-2, title)

	msg := fmt.Sprintf(
		"You have been inactive for too long. You will be disconnected in %d seconds.",
		int(config.InactivityDisconnectUser-time.Since(v.lastInput).Seconds()),
	)
	cw.WriteAt(centerX-len(msg)/2, centerY, msg)

	hint := "Press any key to continue"
	cw.WriteAt(centerX-len(hint)/2, centerY+2, hint)
}

// drawShutdownScreen draws the server shutdown notification screen.
func (v *Viewer) drawShutdownScreen(centerX, centerY int) {
	cw := v.chunkWriter
	title := "SERVER SHUTTING DOWN"
	cw.WriteAt(centerX-len(title)/2, centerY-3, title)

	msg := "Please reconnect in a moment."
	cw.WriteAt(centerX-len(msg)/2, centerY-1, msg)

	remaining := int(v.state.shutdownTimer) + 1
	countdown := fmt.Sprintf("Disconnecting in %d seconds...", remaining)
	cw.WriteAt(centerX-len(countdown)/2, centerY+1, countdown)

	hint := "Press Q to disconnect now"
	cw.WriteAt(centerX-len(hint)/2, centerY+3, hint)
}

func normalizeAngle(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	return deg
}
