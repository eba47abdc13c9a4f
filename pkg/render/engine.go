package render

import (
	"fmt"
	"image/color"
	"math"
	"time"

	"github.com/avandenberg/weave/pkg/debug"
	"github.com/avandenberg/weave/pkg/model"
	"github.com/avandenberg/weave/pkg/spatial"
)

// Tier is a rung of the degrade ladder. Each tier is a strict functional
// subset of the one above it.
type Tier int

const (
	TierLayered Tier = iota
	TierDirect
	TierMinimal
)

func (t Tier) String() string {
	switch t {
	case TierLayered:
		return "layered"
	case TierDirect:
		return "direct"
	default:
		return "minimal"
	}
}

// SelectionState is the read-only interaction state the engine encodes
// visually (outlines on the hovered/selected node).
type SelectionState struct {
	SelectedNodeID string
	HoveredNodeID  string
}

// Stats holds diagnostic performance counters. They never influence
// rendering decisions.
type Stats struct {
	Frames     int
	LastFrame  time.Duration
	RollingFPS float64
}

var (
	colorBackdrop  = color.RGBA{0x0f, 0x13, 0x1e, 0xff}
	colorSelection = color.RGBA{0xfb, 0xbf, 0x24, 0xff}
	colorHover     = color.RGBA{0x22, 0xd3, 0xee, 0xff}
	colorLabel     = color.RGBA{0xe8, 0xe8, 0xf0, 0xff}
	colorMinimal   = color.RGBA{0x94, 0xa3, 0xb8, 0xff}
)

// Engine draws a styled graph through an injected Surface across five
// ordered layers with independent dirty flags.
type Engine struct {
	surface Surface
	dirty   [layerCount]bool
	tier    Tier
	stats   Stats

	frameTimes []time.Duration
}

// New creates an engine for the given surface. The starting tier is layered
// when the surface can composite, direct otherwise; failures at render time
// degrade further.
func New(surface Surface) *Engine {
	e := &Engine{surface: surface, tier: TierDirect}
	if _, ok := surface.(Compositor); ok {
		e.tier = TierLayered
	}
	e.MarkAllDirty()
	return e
}

// Tier returns the current degrade tier.
func (e *Engine) Tier() Tier { return e.tier }

// Stats returns a copy of the performance counters.
func (e *Engine) Stats() Stats { return e.stats }

// MarkDirty flags a single layer for redraw before the next frame.
func (e *Engine) MarkDirty(l LayerID) {
	if l >= 0 && l < layerCount {
		e.dirty[l] = true
	}
}

// MarkAllDirty flags every layer; used on data, transform and selection
// changes.
func (e *Engine) MarkAllDirty() {
	for i := range e.dirty {
		e.dirty[i] = true
	}
}

// Render draws the graph with the current view transform and selection
// state. It walks the degrade ladder on failure and only returns an error
// once every tier is exhausted.
func (e *Engine) Render(g *model.Graph, idx *spatial.Index, vt model.ViewTransform, sel SelectionState) error {
	start := time.Now()
	defer func() { e.observeFrame(time.Since(start)) }()

	visible := e.visibleNodes(g, idx, vt)

	for tier := e.tier; tier <= TierMinimal; tier++ {
		var err error
		switch tier {
		case TierLayered:
			err = e.renderLayered(g, visible, vt, sel)
		case TierDirect:
			err = e.renderDirect(g, visible, vt, sel)
		case TierMinimal:
			err = e.renderMinimal(g, visible, vt)
		}
		if err == nil {
			if tier != e.tier {
				debug.Log("render: degraded from %s to %s", e.tier, tier)
				e.tier = tier
			}
			for i := range e.dirty {
				e.dirty[i] = false
			}
			return nil
		}
		debug.Log("render: %s tier failed: %v", tier, err)
	}
	return fmt.Errorf("%w: surface rejected every tier", ErrRenderFailed)
}

// visibleNodes culls against the viewport using the spatial index. The
// viewport rectangle is inverted into graph space so node radii compare in
// the same units.
func (e *Engine) visibleNodes(g *model.Graph, idx *spatial.Index, vt model.ViewTransform) map[string]*model.Node {
	w, h := e.surface.Size()
	minX, minY := vt.Invert(0, 0)
	maxX, maxY := vt.Invert(w, h)
	bounds := spatial.Bounds{
		MinX: math.Min(minX, maxX), MinY: math.Min(minY, maxY),
		MaxX: math.Max(minX, maxX), MaxY: math.Max(minY, maxY),
	}

	visible := make(map[string]*model.Node)
	if idx != nil && idx.Len() > 0 {
		for _, n := range idx.QueryRegion(bounds) {
			visible[n.ID] = n
		}
		return visible
	}
	// no index yet (first frame); fall back to testing every node
	for i := range g.Nodes {
		if spatial.Contains(&g.Nodes[i], bounds) {
			visible[g.Nodes[i].ID] = &g.Nodes[i]
		}
	}
	return visible
}

func (e *Engine) renderLayered(g *model.Graph, visible map[string]*model.Node, vt model.ViewTransform, sel SelectionState) error {
	comp, ok := e.surface.(Compositor)
	if !ok {
		return ErrUnsupported
	}
	for l := LayerBackground; l < layerCount; l++ {
		if !e.dirty[l] {
			continue
		}
		comp.BeginLayer(l)
		if err := e.drawLayer(comp, l, g, visible, vt, sel); err != nil {
			return err
		}
	}
	return comp.Composite()
}

func (e *Engine) renderDirect(g *model.Graph, visible map[string]*model.Node, vt model.ViewTransform, sel SelectionState) error {
	for l := LayerBackground; l < layerCount; l++ {
		if err := e.drawLayer(e.surface, l, g, visible, vt, sel); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) drawLayer(s Surface, l LayerID, g *model.Graph, visible map[string]*model.Node, vt model.ViewTransform, sel SelectionState) error {
	switch l {
	case LayerBackground:
		s.Clear(colorBackdrop)
		return nil
	case LayerEdges:
		return e.drawEdges(s, g, visible, vt, false)
	case LayerNodes:
		return e.drawNodes(s, g, visible, vt)
	case LayerLabels:
		return e.drawLabels(s, g, visible, vt)
	case LayerOverlay:
		return e.drawOverlay(s, visible, vt, sel)
	}
	return nil
}

// nodeDrawOrder returns visible nodes sorted so deeper levels come first
// and the anchor is drawn last, on top. Unleveled nodes (-1) go below
// everything.
func nodeDrawOrder(g *model.Graph, visible map[string]*model.Node) []*model.Node {
	order := make([]*model.Node, 0, len(visible))
	for i := range g.Nodes {
		if n, ok := visible[g.Nodes[i].ID]; ok {
			order = append(order, n)
		}
	}
	// insertion sort by descending level; graphs are small and mostly sorted
	for i := 1; i < len(order); i++ {
		for j := i; j > 0 && levelRank(order[j]) > levelRank(order[j-1]); j-- {
			order[j], order[j-1] = order[j-1], order[j]
		}
	}
	return order
}

// levelRank orders nodes bottom-to-top: unleveled lowest, anchor highest.
func levelRank(n *model.Node) int {
	if n.Level < 0 {
		return math.MaxInt32
	}
	return n.Level
}

func (e *Engine) drawEdges(s Surface, g *model.Graph, visible map[string]*model.Node, vt model.ViewTransform, minimal bool) error {
	for i := range g.Edges {
		edge := &g.Edges[i]
		src := g.NodeByID(edge.SourceID)
		tgt := g.NodeByID(edge.TargetID)
		if src == nil || tgt == nil {
			continue
		}
		x1, y1 := vt.Apply(src.X, src.Y)
		x2, y2 := vt.Apply(tgt.X, tgt.Y)

		// an edge can cross the viewport even when both endpoints are
		// culled, so hidden endpoints alone are not enough to skip it
		_, srcVis := visible[src.ID]
		_, tgtVis := visible[tgt.ID]
		if !srcVis && !tgtVis {
			w, h := s.Size()
			if !segmentIntersectsRect(x1, y1, x2, y2, 0, 0, w, h) {
				continue
			}
		}
		dx, dy := x2-x1, y2-y1
		dist := math.Hypot(dx, dy)
		if dist < 1e-6 {
			continue
		}
		ux, uy := dx/dist, dy/dist

		// pull endpoints in so lines touch node rims, not centers
		r1 := src.Style.Radius * vt.Scale
		r2 := tgt.Style.Radius * vt.Scale
		x1, y1 = x1+ux*r1, y1+uy*r1
		x2, y2 = x2-ux*r2, y2-uy*r2

		if minimal {
			s.StrokeLine(x1, y1, x2, y2, Stroke{Color: colorMinimal, Width: 1})
			continue
		}

		stroke := Stroke{
			Color: withAlpha(edge.Style.Color, edge.Style.Opacity),
			Width: edge.Style.Width,
		}
		if edge.Style.Dashed {
			stroke.Dash = []float64{6, 4}
		}
		s.StrokeLine(x1, y1, x2, y2, stroke)

		if edge.Style.Arrow {
			drawArrowhead(s, x2, y2, ux, uy, stroke.Color)
		}
	}
	return nil
}

// segmentIntersectsRect reports whether the segment (x1,y1)-(x2,y2) touches
// the axis-aligned rectangle [minX,maxX]x[minY,maxY]. Liang-Barsky clipping:
// the segment is parameterized as p(t)=p1+t*(p2-p1) and each rectangle side
// shrinks the admissible t range.
func segmentIntersectsRect(x1, y1, x2, y2, minX, minY, maxX, maxY float64) bool {
	dx, dy := x2-x1, y2-y1
	t0, t1 := 0.0, 1.0
	edges := [4][2]float64{
		{-dx, x1 - minX},
		{dx, maxX - x1},
		{-dy, y1 - minY},
		{dy, maxY - y1},
	}
	for _, e := range edges {
		p, q := e[0], e[1]
		if p == 0 {
			if q < 0 {
				return false
			}
			continue
		}
		t := q / p
		if p < 0 {
			if t > t1 {
				return false
			}
			if t > t0 {
				t0 = t
			}
		} else {
			if t < t0 {
				return false
			}
			if t < t1 {
				t1 = t
			}
		}
	}
	return t0 <= t1
}

// drawArrowhead draws a small triangle at the target end, pointing along
// the edge direction.
func drawArrowhead(s Surface, x, y, ux, uy float64, c color.Color) {
	const size = 9.0
	bx, by := x-ux*size, y-uy*size
	px, py := -uy, ux
	s.FillPolygon([]Point{
		{X: x, Y: y},
		{X: bx + px*size/2, Y: by + py*size/2},
		{X: bx - px*size/2, Y: by - py*size/2},
	}, c)
}

func (e *Engine) drawNodes(s Surface, g *model.Graph, visible map[string]*model.Node, vt model.ViewTransform) error {
	for _, n := range nodeDrawOrder(g, visible) {
		x, y := vt.Apply(n.X, n.Y)
		r := n.Style.Radius * vt.Scale

		if n.Style.ShowRing {
			s.StrokeCircle(x, y, r+4*vt.Scale, Stroke{
				Color: withAlpha(n.Style.FillOuter, n.Style.RingOpacity),
				Width: 2,
			})
		}
		err := s.FillCircle(x, y, r, Paint{
			Solid:    n.Style.FillOuter,
			Gradient: &RadialGradient{Inner: n.Style.FillInner, Outer: n.Style.FillOuter},
		})
		if err != nil {
			return err
		}
		s.StrokeCircle(x, y, r, Stroke{Color: n.Style.Border, Width: 1.5})
	}
	return nil
}

func (e *Engine) drawLabels(s Surface, g *model.Graph, visible map[string]*model.Node, vt model.ViewTransform) error {
	for _, n := range nodeDrawOrder(g, visible) {
		x, y := vt.Apply(n.X, n.Y)
		if err := s.DrawText(x, y, initial(n.Name), colorLabel); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) drawOverlay(s Surface, visible map[string]*model.Node, vt model.ViewTransform, sel SelectionState) error {
	if n, ok := visible[sel.HoveredNodeID]; ok {
		x, y := vt.Apply(n.X, n.Y)
		s.StrokeCircle(x, y, n.Style.Radius*vt.Scale+2, Stroke{Color: colorHover, Width: 2})
	}
	if n, ok := visible[sel.SelectedNodeID]; ok {
		x, y := vt.Apply(n.X, n.Y)
		s.StrokeCircle(x, y, n.Style.Radius*vt.Scale+3, Stroke{Color: colorSelection, Width: 2.5})
	}
	return nil
}

// renderMinimal is the last rung: plain circles and lines, no gradients,
// rings, dashes, arrowheads or labels.
func (e *Engine) renderMinimal(g *model.Graph, visible map[string]*model.Node, vt model.ViewTransform) error {
	e.surface.Clear(colorBackdrop)
	if err := e.drawEdges(e.surface, g, visible, vt, true); err != nil {
		return err
	}
	for _, n := range nodeDrawOrder(g, visible) {
		x, y := vt.Apply(n.X, n.Y)
		if err := e.surface.FillCircle(x, y, n.Style.Radius*vt.Scale, Paint{Solid: colorMinimal}); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) observeFrame(d time.Duration) {
	e.stats.Frames++
	e.stats.LastFrame = d
	e.frameTimes = append(e.frameTimes, d)
	if len(e.frameTimes) > 60 {
		e.frameTimes = e.frameTimes[len(e.frameTimes)-60:]
	}
	var total time.Duration
	for _, t := range e.frameTimes {
		total += t
	}
	if total > 0 {
		e.stats.RollingFPS = float64(len(e.frameTimes)) / total.Seconds()
	}
}

func withAlpha(c color.RGBA, opacity float64) color.RGBA {
	if opacity < 0 {
		opacity = 0
	}
	if opacity > 1 {
		opacity = 1
	}
	c.A = uint8(opacity * 255)
	return c
}

func initial(name string) string {
	for _, r := range name {
		return string(r)
	}
	return "?"
}
