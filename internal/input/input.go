package input

import (
	"bufio"
	"time"
)

// keyHoldDuration is how long a key is considered "held" after its last press.
const keyHoldDuration = 30 * time.Millisecond

// Input represents the current frame's input state.
// Pan keys are held; the toggles fire once per press.
type Input struct {
	Quit  bool
	Left  bool
	Right bool
	Up    bool
	Down  bool

	ToggleGrid  bool
	TogglePaths bool
	ZoomIn      bool
	ZoomOut     bool
	Center      bool

	Closed  bool // The underlying reader is gone
	Pressed []byte
}

// keyState tracks the last time each held key was pressed.
type keyState struct {
	left  time.Time
	right time.Time
	up    time.Time
	down  time.Time
}

// Stream delivers input bytes via a channel and tracks key state for combinations.
type Stream struct {
	ch     chan byte
	state  keyState
	closed bool
}

// StartStream spawns a goroutine that reads from r and sends bytes to the stream.
func StartStream(r *bufio.Reader) *Stream {
	s := &Stream{ch: make(chan byte, 128)}
	go func() {
		for {
			b, err := r.ReadByte()
			if err != nil {
				close(s.ch)
				return
			}
			s.ch <- b
		}
	}()
	return s
}

// ReadInput drains all available bytes from the stream (non-blocking).
func ReadInput(s *Stream) Input {
	var buf []byte

drain:
	for !s.closed {
		select {
		case b, ok := <-s.ch:
			if !ok {
				s.closed = true
				break drain
			}
			buf = append(buf, b)
		default:
			break drain
		}
	}

	in := s.parse(buf, time.Now())
	in.Closed = s.closed
	return in
}

// parse applies the bytes read this frame. Arrow keys arrive as ESC [ A..D.
func (s *Stream) parse(buf []byte, now time.Time) Input {
	var in Input

	for i := 0; i < len(buf); i++ {
		b := buf[i]

		if b == '\x1b' && i+2 < len(buf) && buf[i+1] == '[' {
			switch buf[i+2] {
			case 'A':
				s.state.up = now
			case 'B':
				s.state.down = now
			case 'C':
				s.state.right = now
			case 'D':
				s.state.left = now
			}
			i += 2
			continue
		}

		switch b {
		case 'q', 'Q', '\x03':
			in.Quit = true
		case 'a', 'A', 'h':
			s.state.left = now
		case 'd', 'D', 'l':
			s.state.right = now
		case 'w', 'W', 'k':
			s.state.up = now
		case 's', 'S', 'j':
			s.state.down = now
		case 'g', 'G':
			in.ToggleGrid = true
		case 'p', 'P':
			in.TogglePaths = true
		case '+', '=':
			in.ZoomIn = true
		case '-', '_':
			in.ZoomOut = true
		case 'c', 'C':
			in.Center = true
		}
	}

	// Keys are "pressed" if seen within hold duration
	in.Left = now.Sub(s.state.left) < keyHoldDuration
	in.Right = now.Sub(s.state.right) < keyHoldDuration
	in.Up = now.Sub(s.state.up) < keyHoldDuration
	in.Down = now.Sub(s.state.down) < keyHoldDuration
	in.Pressed = buf

	return in
}
