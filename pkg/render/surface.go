// Package render turns positioned, styled nodes and edges into drawn
// output across ordered layers, with per-layer dirty tracking and a
// degrade-gracefully fallback chain.
//
// The engine depends only on the Surface interface; hosts inject a raster
// (gg), vector (svg) or terminal-cell implementation. Surfaces that can
// retain per-layer buffers additionally implement Compositor and get lazy
// redraw of only the dirty layers.
package render

import (
	"errors"
	"image/color"
)

// ErrUnsupported is returned by surfaces for drawing primitives they cannot
// express. The engine reacts by stepping down the degrade ladder rather
// than failing the frame.
var ErrUnsupported = errors.New("render: primitive not supported by surface")

// ErrRenderFailed reports that every degrade tier failed. The host may
// retry with fresh data; no engine state is corrupted.
var ErrRenderFailed = errors.New("render: all render tiers failed")

// LayerID identifies one of the ordered render layers.
type LayerID int

const (
	LayerBackground LayerID = iota
	LayerEdges
	LayerNodes
	LayerLabels
	LayerOverlay

	layerCount
)

func (l LayerID) String() string {
	switch l {
	case LayerBackground:
		return "background"
	case LayerEdges:
		return "edges"
	case LayerNodes:
		return "nodes"
	case LayerLabels:
		return "labels"
	case LayerOverlay:
		return "overlay"
	default:
		return "unknown"
	}
}

// Point is a coordinate in surface (screen) space.
type Point struct {
	X, Y float64
}

// Stroke describes line style. An empty Dash means solid.
type Stroke struct {
	Color color.Color
	Width float64
	Dash  []float64
}

// RadialGradient fades from Inner at the shape center to Outer at its rim.
type RadialGradient struct {
	Inner, Outer color.Color
}

// Paint fills a shape. Gradient, when non-nil, takes precedence over Solid.
type Paint struct {
	Solid    color.Color
	Gradient *RadialGradient
}

// Surface is the 2D drawing contract the engine renders through. All
// coordinates are screen space; the engine applies the view transform
// before calling.
type Surface interface {
	// Size returns the drawable area in pixels (or cells).
	Size() (w, h float64)
	// Clear fills the whole surface with bg.
	Clear(bg color.Color)
	StrokeLine(x1, y1, x2, y2 float64, s Stroke)
	StrokeCircle(x, y, r float64, s Stroke)
	// FillCircle may return ErrUnsupported when p carries a gradient the
	// surface cannot express.
	FillCircle(x, y, r float64, p Paint) error
	FillPolygon(pts []Point, c color.Color)
	// DrawText renders text centered on (x, y).
	DrawText(x, y float64, text string, c color.Color) error
}

// Compositor is implemented by surfaces that retain an offscreen buffer per
// layer. BeginLayer redirects subsequent drawing into (and clears) the
// given layer's buffer; Composite flattens all buffers onto the output in
// layer order. Surfaces without this capability are rendered direct,
// functionally identical at a higher per-frame cost.
type Compositor interface {
	Surface
	BeginLayer(l LayerID)
	Composite() error
}
