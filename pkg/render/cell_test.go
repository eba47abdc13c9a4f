package render

import (
	"errors"
	"image/color"
	"strings"
	"testing"

	"github.com/avandenberg/weave/pkg/testutil"
)

func TestCellsRejectsGradients(t *testing.T) {
	c := NewCells(40, 12)
	err := c.FillCircle(20, 12, 4, Paint{Gradient: &RadialGradient{}})
	if !errors.Is(err, ErrUnsupported) {
		t.Errorf("gradient fill should be unsupported, got %v", err)
	}
	if err := c.FillCircle(20, 12, 4, Paint{Solid: color.White}); err != nil {
		t.Errorf("solid fill should work: %v", err)
	}
}

func TestCellsSizeCompensatesAspect(t *testing.T) {
	c := NewCells(40, 12)
	w, h := c.Size()
	if w != 40 || h != 24 {
		t.Errorf("size = (%v, %v), want (40, 24)", w, h)
	}
}

func TestCellsDrawsDisc(t *testing.T) {
	c := NewCells(40, 12)
	if err := c.FillCircle(20, 12, 5, Paint{Solid: color.White}); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(c.String(), "█") {
		t.Error("filled disc missing from output")
	}
}

func TestCellsLineGlyphs(t *testing.T) {
	c := NewCells(40, 12)
	c.StrokeLine(0, 0, 30, 0, Stroke{Color: color.White, Width: 1})
	if !strings.Contains(c.String(), "•") {
		t.Error("solid line should use solid glyph")
	}

	c.Clear(color.Black)
	c.StrokeLine(0, 0, 30, 0, Stroke{Color: color.White, Width: 1, Dash: []float64{6, 4}})
	if !strings.Contains(c.String(), "·") {
		t.Error("dashed line should use dotted glyph")
	}
}

func TestCellsTextCentered(t *testing.T) {
	c := NewCells(11, 3)
	if err := c.DrawText(5, 2, "abc", color.White); err != nil {
		t.Fatal(err)
	}
	rows := strings.Split(c.String(), "\n")
	if len(rows) < 2 || !strings.Contains(rows[1], "abc") {
		t.Errorf("text missing: %q", c.String())
	}
	// centered on column 5: one column of padding before 'a' at column 4
	if idx := strings.Index(rows[1], "abc"); idx != 4 {
		t.Errorf("text starts at column %d, want 4", idx)
	}
}

func TestCellsGoldenScene(t *testing.T) {
	// one of each primitive; the grid output is pinned to a golden file so
	// glyph choice, aspect compression and rounding stay stable
	c := NewCells(40, 12)
	if err := c.FillCircle(8, 8, 5, Paint{Solid: color.White}); err != nil {
		t.Fatal(err)
	}
	c.StrokeCircle(28, 8, 6, Stroke{Color: color.White, Width: 1})
	c.StrokeLine(2, 20, 38, 20, Stroke{Color: color.White, Width: 1, Dash: []float64{6, 4}})
	c.StrokeLine(2, 22, 38, 22, Stroke{Color: color.White, Width: 1})
	if err := c.DrawText(20, 2, "weave", color.White); err != nil {
		t.Fatal(err)
	}

	golden := testutil.NewGoldenFile(t, "testdata", "cells.golden")
	golden.Assert(c.String())
}

func TestCellsClipsOutOfBounds(t *testing.T) {
	c := NewCells(10, 5)
	c.StrokeLine(-20, -20, 40, 40, Stroke{Color: color.White, Width: 1}) // must not panic
	c.set(-1, 0, 'x')
	c.set(100, 100, 'x')
	if strings.Contains(c.String(), "x") {
		t.Error("out-of-bounds writes should be dropped")
	}
}
