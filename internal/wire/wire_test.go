package wire

import (
	"testing"

	"github.com/google/uuid"

	"github.com/tomz197/seaspot/internal/navigation"
	"github.com/tomz197/seaspot/internal/sea"
	"github.com/tomz197/seaspot/internal/sim"
)

func testSnapshot() *sim.Snapshot {
	return &sim.Snapshot{
		Tick:  42,
		Angle: 12.5,
		Objects: []sim.ObjectState{
			{ID: uuid.New(), Kind: sea.KindProp, Name: "buoy", X: 10, Z: 20, Radius: 1.5},
			{ID: uuid.New(), Kind: sea.KindIsland, Name: "archipelago", X: -50, Z: 0, Radius: 40,
				Members: []sim.Circle{{X: -45, Z: 2, Radius: 4}, {X: -55, Z: -3, Radius: 6}}},
		},
		Boats: []sim.BoatState{
			{ID: uuid.New(), X: 1, Z: 2, Heading: 90, Radius: 3.5,
				Path: []navigation.Waypoint{{X: 3, Z: 4}, {X: 5, Z: 6}}},
		},
		Blocked: []navigation.Node{{Theta: 0, Rho: 16}, {Theta: 2, Rho: 3}},
		Viewers: 3,
	}
}

func TestEncodeDecode(t *testing.T) {
	snap := testSnapshot()
	data, err := Encode(snap, true)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	f, err := Decode(data)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if f.Tick != 42 || f.Angle != 12.5 || f.Viewers != 3 {
		t.Errorf("unexpected header: %+v", f)
	}
	if len(f.Objects) != 2 {
		t.Fatalf("expected 2 objects, got %d", len(f.Objects))
	}
	if f.Objects[0].Kind != KindProp || f.Objects[0].ID != snap.Objects[0].ID.String() {
		t.Errorf("unexpected prop: %+v", f.Objects[0])
	}
	if f.Objects[1].Kind != KindIsland || len(f.Objects[1].Members) != 2 {
		t.Errorf("unexpected island: %+v", f.Objects[1])
	}

	if len(f.Boats) != 1 {
		t.Fatalf("expected 1 boat, got %d", len(f.Boats))
	}
	want := []float32{3, 4, 5, 6}
	if len(f.Boats[0].Path) != len(want) {
		t.Fatalf("expected path %v, got %v", want, f.Boats[0].Path)
	}
	for i := range want {
		if f.Boats[0].Path[i] != want[i] {
			t.Errorf("expected path %v, got %v", want, f.Boats[0].Path)
			break
		}
	}

	if len(f.Blocked) != 2 || f.Blocked[0] != 16 || f.Blocked[1] != 2*navigation.RhoCells+3 {
		t.Errorf("unexpected blocked cells: %v", f.Blocked)
	}
}

func TestEncodeWithoutGrid(t *testing.T) {
	data, err := Encode(testSnapshot(), false)
	if err != nil {
		t.Fatal(err)
	}
	f, err := Decode(data)
	if err != nil {
		t.Fatal(err)
	}
	if len(f.Blocked) != 0 {
		t.Errorf("expected no blocked cells, got %d", len(f.Blocked))
	}
}

func TestDecodeGarbage(t *testing.T) {
	if _, err := Decode([]byte{0xc1}); err == nil {
		t.Error("expected an error for an invalid frame")
	}
}
