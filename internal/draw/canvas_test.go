package draw

import (
	"bytes"
	"strings"
	"testing"
)

func TestRenderWritesOnlyChanges(t *testing.T) {
	c := NewScaledCanvas(10, 5, 10, 10)

	var first bytes.Buffer
	c.Render(&first)
	if strings.Count(first.String(), " ") != 50 {
		t.Errorf("expected the first frame to clear all 50 cells, got %q", first.String())
	}

	var second bytes.Buffer
	c.Render(&second)
	if second.Len() != 0 {
		t.Errorf("expected no output for an unchanged frame, got %q", second.String())
	}

	c.SetFloat(2, 2) // row 1 top half
	var third bytes.Buffer
	c.Render(&third)
	if !strings.Contains(third.String(), string(BlockUpperHalf)) {
		t.Errorf("expected an upper half block, got %q", third.String())
	}
	if strings.ContainsRune(third.String(), BlockEmpty) {
		t.Errorf("expected only the changed cell, got %q", third.String())
	}
}

func TestMarkTextDirtyRestoresCells(t *testing.T) {
	c := NewScaledCanvas(10, 5, 10, 10)
	c.Render(&bytes.Buffer{})

	c.MarkTextDirty(3, 2, 4)
	var out bytes.Buffer
	c.Render(&out)
	if got := strings.Count(out.String(), " "); got != 4 {
		t.Errorf("expected 4 restored cells, got %d in %q", got, out.String())
	}
	if !strings.HasPrefix(out.String(), "\033[2;3H") {
		t.Errorf("expected output to start at row 2 col 3, got %q", out.String())
	}
}

func TestForceRedraw(t *testing.T) {
	c := NewScaledCanvas(4, 2, 4, 4)
	c.Render(&bytes.Buffer{})
	c.ForceRedraw()

	var out bytes.Buffer
	c.Render(&out)
	if got := strings.Count(out.String(), " "); got != 8 {
		t.Errorf("expected all 8 cells, got %d", got)
	}
}

func TestDrawCircle(t *testing.T) {
	c := NewScaledCanvas(40, 20, 40, 40)

	c.DrawCircle(Point{X: 20, Y: 20}, 10, true)
	if !c.Pixel(20, 20) {
		t.Error("expected filled circle to cover its centre")
	}
	if c.Pixel(2, 2) {
		t.Error("expected corner outside the circle to stay empty")
	}

	c.Clear()
	c.DrawCircle(Point{X: 20, Y: 20}, 10, false)
	if c.Pixel(20, 20) {
		t.Error("expected outline circle to leave its centre empty")
	}
	if !c.Pixel(30, 20) {
		t.Error("expected outline at the rightmost point")
	}

	c.Clear()
	c.DrawCircle(Point{X: 5, Y: 5}, 0.2, false)
	if !c.Pixel(5, 5) {
		t.Error("expected a tiny circle to collapse to a dot")
	}
}

func TestDrawLineOffCanvas(t *testing.T) {
	c := NewScaledCanvas(10, 5, 10, 10)
	c.DrawLine(Point{X: -1e9, Y: 0}, Point{X: 1e9, Y: 0})
	c.DrawLine(Point{X: 0, Y: 4}, Point{X: 9, Y: 4})
	if !c.Pixel(5, 4) {
		t.Error("expected the on-canvas line to be drawn")
	}
}
