// Package wire encodes simulation snapshots into compact msgpack frames for streaming.
package wire

import (
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/tomz197/seaspot/internal/sea"
	"github.com/tomz197/seaspot/internal/sim"
)

// Object kinds on the wire.
const (
	KindProp   = "p"
	KindIsland = "i"
)

// Circle is a member circle of an island.
type Circle struct {
	X float32 `msgpack:"x"`
	Z float32 `msgpack:"z"`
	R float32 `msgpack:"r"`
}

// Object is a shown prop or island.
type Object struct {
	ID      string   `msgpack:"id"`
	Kind    string   `msgpack:"k"`
	Name    string   `msgpack:"n"`
	X       float32  `msgpack:"x"`
	Z       float32  `msgpack:"z"`
	R       float32  `msgpack:"r"`
	Members []Circle `msgpack:"m,omitempty"`
}

// Boat is a boat with its remaining path, flattened to x,z pairs.
type Boat struct {
	ID      string    `msgpack:"id"`
	X       float32   `msgpack:"x"`
	Z       float32   `msgpack:"z"`
	Heading float32   `msgpack:"h"`
	R       float32   `msgpack:"r"`
	Path    []float32 `msgpack:"p,omitempty"`
}

// Frame is one streamed snapshot.
type Frame struct {
	Tick    uint64   `msgpack:"t"`
	Angle   float32  `msgpack:"a"`
	Objects []Object `msgpack:"o"`
	Boats   []Boat   `msgpack:"b"`
	Blocked []uint16 `msgpack:"g,omitempty"` // Cell indices, theta*RhoCells + rho
	Viewers int      `msgpack:"v"`
}

// FromSnapshot converts a snapshot into a frame. Blocked cells are only included when withGrid is set.
func FromSnapshot(snap *sim.Snapshot, withGrid bool) Frame {
	f := Frame{
		Tick:    snap.Tick,
		Angle:   float32(snap.Angle),
		Objects: make([]Object, len(snap.Objects)),
		Boats:   make([]Boat, len(snap.Boats)),
		Viewers: snap.Viewers,
	}

	for i, o := range snap.Objects {
		obj := Object{
			ID:   o.ID.String(),
			Kind: KindProp,
			Name: o.Name,
			X:    float32(o.X),
			Z:    float32(o.Z),
			R:    float32(o.Radius),
		}
		if o.Kind == sea.KindIsland {
			obj.Kind = KindIsland
			obj.Members = make([]Circle, len(o.Members))
			for j, m := range o.Members {
				obj.Members[j] = Circle{X: float32(m.X), Z: float32(m.Z), R: float32(m.Radius)}
			}
		}
		f.Objects[i] = obj
	}

	for i, b := range snap.Boats {
		boat := Boat{
			ID:      b.ID.String(),
			X:       float32(b.X),
			Z:       float32(b.Z),
			Heading: float32(b.Heading),
			R:       float32(b.Radius),
		}
		if len(b.Path) > 0 {
			boat.Path = make([]float32, 0, len(b.Path)*2)
			for _, wp := range b.Path {
				boat.Path = append(boat.Path, float32(wp.X), float32(wp.Z))
			}
		}
		f.Boats[i] = boat
	}

	if withGrid {
		f.Blocked = make([]uint16, len(snap.Blocked))
		for i, n := range snap.Blocked {
			f.Blocked[i] = uint16(n.Index())
		}
	}

	return f
}

// Encode marshals a snapshot into a msgpack frame.
func Encode(snap *sim.Snapshot, withGrid bool) ([]byte, error) {
	data, err := msgpack.Marshal(FromSnapshot(snap, withGrid))
	if err != nil {
		return nil, fmt.Errorf("encode frame %d: %w", snap.Tick, err)
	}
	return data, nil
}

// Decode unmarshals a frame.
func Decode(data []byte) (Frame, error) {
	var f Frame
	if err := msgpack.Unmarshal(data, &f); err != nil {
		return Frame{}, fmt.Errorf("decode frame: %w", err)
	}
	return f, nil
}
