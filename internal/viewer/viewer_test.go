package viewer

import (
	"bufio"
	"bytes"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/tomz197/seaspot/internal/config"
	"github.com/tomz197/seaspot/internal/input"
	"github.com/tomz197/seaspot/internal/navigation"
	"github.com/tomz197/seaspot/internal/sea"
	"github.com/tomz197/seaspot/internal/sim"
)

type fakeServer struct {
	mu           sync.Mutex
	handle       *sim.ViewerHandle
	unregistered []int
	snapshot     *sim.Snapshot
}

func (s *fakeServer) RegisterViewer(name string) *sim.ViewerHandle {
	s.handle = &sim.ViewerHandle{ID: 7, Name: name, EventsCh: make(chan sim.ViewerEvent, 4)}
	return s.handle
}

func (s *fakeServer) UnregisterViewer(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.unregistered = append(s.unregistered, id)
}

func (s *fakeServer) GetSnapshot() *sim.Snapshot {
	return s.snapshot
}

func testSnapshot() *sim.Snapshot {
	return &sim.Snapshot{
		Tick:  10,
		Angle: 45,
		Objects: []sim.ObjectState{
			{ID: uuid.New(), Kind: sea.KindProp, Name: "buoy", X: 50, Z: 50, Radius: 2},
			{ID: uuid.New(), Kind: sea.KindIsland, Name: "archipelago", X: -100, Z: 0, Radius: 40,
				Members: []sim.Circle{{X: -100, Z: 10, Radius: 6}}},
		},
		Boats: []sim.BoatState{
			{ID: uuid.New(), X: 0, Z: -200, Heading: 90, Radius: 3.5,
				Path: []navigation.Waypoint{{X: 50, Z: -190}, {X: 100, Z: -150}}},
		},
		Blocked: []navigation.Node{{Theta: 0, Rho: 16}},
		Viewers: 1,
	}
}

func fixedSize(w, h int) func() (int, int, error) {
	return func() (int, int, error) { return w, h, nil }
}

func newTestViewer(t *testing.T, keys string) (*Viewer, *fakeServer, *bytes.Buffer) {
	t.Helper()
	srv := &fakeServer{snapshot: testSnapshot()}
	var out bytes.Buffer
	v := New(srv, bufio.NewReader(strings.NewReader(keys)), &out, Options{
		TermSizeFunc: fixedSize(120, 40),
		Name:         "a-rather-long-viewer-name",
	})
	return v, srv, &out
}

func TestViewerNameIsTruncated(t *testing.T) {
	_, srv, _ := newTestViewer(t, "")
	if len(srv.handle.Name) != config.MaxViewerName {
		t.Errorf("expected name of %d chars, got %q", config.MaxViewerName, srv.handle.Name)
	}
}

func TestRunQuitsAndUnregisters(t *testing.T) {
	v, srv, out := newTestViewer(t, "q")

	done := make(chan error, 1)
	go func() { done <- v.Run() }()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("expected the viewer to quit")
	}

	srv.mu.Lock()
	defer srv.mu.Unlock()
	if len(srv.unregistered) != 1 || srv.unregistered[0] != 7 {
		t.Errorf("expected viewer 7 to unregister, got %v", srv.unregistered)
	}
	if !strings.Contains(out.String(), "archipelago") {
		t.Error("expected the island label in the output")
	}
}

func TestDrawFrameShowsHUD(t *testing.T) {
	v, _, out := newTestViewer(t, "")

	if err := v.drawFrame(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	s := out.String()
	if !strings.Contains(s, "tick 10") || !strings.Contains(s, "boats 1") {
		t.Errorf("expected the status line, got %q", s)
	}
	if !strings.Contains(s, helpText) {
		t.Error("expected the help line on a wide terminal")
	}
}

func TestShutdownEvent(t *testing.T) {
	v, srv, out := newTestViewer(t, "")

	srv.handle.EventsCh <- sim.ViewerEvent{Type: sim.EventServerShutdown}
	v.processServerEvents()
	if v.state.Mode != ModeShutdown {
		t.Fatal("expected shutdown mode")
	}

	if err := v.drawFrame(); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "SERVER SHUTTING DOWN") {
		t.Error("expected the shutdown screen")
	}

	v.state.delta = time.Duration(config.ShutdownDisplaySeconds+1) * time.Second
	v.updateShutdownState()
	if v.state.Running {
		t.Error("expected the viewer to stop after the shutdown countdown")
	}

	close(srv.handle.EventsCh)
	v.state.Running = true
	v.processServerEvents()
	if v.state.Running {
		t.Error("expected a closed events channel to stop the viewer")
	}
}

func TestApplyInput(t *testing.T) {
	s := NewState()

	s.applyInput(input.Input{ToggleGrid: true, TogglePaths: true, ZoomIn: true})
	if !s.ShowGrid || s.ShowPaths {
		t.Errorf("expected grid on and paths off, got grid=%v paths=%v", s.ShowGrid, s.ShowPaths)
	}
	if s.Camera.Zoom >= config.DefaultZoom {
		t.Errorf("expected zoom in, got %f", s.Camera.Zoom)
	}

	for i := 0; i < 100; i++ {
		s.applyInput(input.Input{ZoomOut: true})
	}
	if s.Camera.Zoom != config.MaxZoom {
		t.Errorf("expected zoom clamped to %f, got %f", config.MaxZoom, s.Camera.Zoom)
	}

	s.applyInput(input.Input{Right: true, Up: true})
	if s.Camera.X <= 0 || s.Camera.Z <= 0 {
		t.Errorf("expected camera to pan right and up, got %+v", s.Camera)
	}

	s.applyInput(input.Input{Center: true})
	if s.Camera != (Camera{Zoom: config.DefaultZoom}) {
		t.Errorf("expected centred camera, got %+v", s.Camera)
	}
}

func TestClampTermSize(t *testing.T) {
	w, h, col, row := clampTermSize(config.MaxTermWidth+20, 30)
	if w != config.MaxTermWidth || h != 30 || col != 10 || row != 0 {
		t.Errorf("unexpected clamp: %d %d %d %d", w, h, col, row)
	}
}
