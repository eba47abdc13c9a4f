// Package interact turns raw pointer and gesture sequences into view
// transform updates and hit-test-driven selection events.
//
// The controller owns the view transform; every mutation funnels through a
// single setter that marks all render layers dirty and schedules a
// coalesced re-render through the injected Scheduler, so bursts of move
// events cost at most one frame.
package interact

import (
	"math"

	"github.com/avandenberg/weave/pkg/debug"
	"github.com/avandenberg/weave/pkg/model"
	"github.com/avandenberg/weave/pkg/render"
	"github.com/avandenberg/weave/pkg/spatial"
)

// Phase is the gesture state machine state.
type Phase int

const (
	Idle Phase = iota
	Panning
	Pinching
)

// PointerKind discriminates pointer events.
type PointerKind int

const (
	PointerDown PointerKind = iota
	PointerMove
	PointerUp
)

// Touch is one active contact point in screen coordinates.
type Touch struct {
	X, Y float64
}

// PointerEvent carries 1 or 2 active touch points.
type PointerEvent struct {
	Kind    PointerKind
	Touches []Touch
}

// Scheduler coalesces render requests to a frame cadence. Hosts supply a
// real next-frame scheduler; tests supply a synchronous fake.
type Scheduler interface {
	Schedule(func())
}

// Events are the callbacks emitted to the host. Nil fields are skipped.
type Events struct {
	NodeTapped                func(id string)
	EdgeTapped                func(id string)
	AnchorChangeRequested     func(id string)
	ZoomChanged               func(scale float64)
	PanChanged                func(tx, ty float64)
	ViewResetRequested        func()
	FullscreenToggleRequested func()
}

// panDeadZone is the movement (in screen units) below which a down+up pair
// still counts as a tap.
const panDeadZone = 4.0

// edgeHitTolerance is the maximum graph-space distance from an edge segment
// that still counts as an edge tap.
const edgeHitTolerance = 6.0

// Controller drives the view transform and selection from pointer input.
type Controller struct {
	engine  *render.Engine
	sched   Scheduler
	render  func()
	events  Events
	minZoom float64
	maxZoom float64

	graph *model.Graph
	index *spatial.Index

	transform model.ViewTransform
	phase     Phase
	last      []Touch
	downAt    Touch
	moved     bool

	renderQueued bool
}

// Config wires a controller to its collaborators.
type Config struct {
	Engine    *render.Engine
	Scheduler Scheduler
	// Render runs one frame; invoked through the scheduler, never inline.
	Render           func()
	Events           Events
	MinZoom, MaxZoom float64
}

// New creates a controller with the identity transform.
func New(cfg Config) *Controller {
	c := &Controller{
		engine:    cfg.Engine,
		sched:     cfg.Scheduler,
		render:    cfg.Render,
		events:    cfg.Events,
		minZoom:   cfg.MinZoom,
		maxZoom:   cfg.MaxZoom,
		transform: model.Identity(),
	}
	if c.minZoom <= 0 {
		c.minZoom = 0.25
	}
	if c.maxZoom <= 0 {
		c.maxZoom = 4
	}
	return c
}

// SetGraph points the controller at freshly built data. The spatial index
// must correspond to the graph's current positions.
func (c *Controller) SetGraph(g *model.Graph, idx *spatial.Index) {
	c.graph = g
	c.index = idx
	c.requestRender()
}

// Transform returns the current view transform.
func (c *Controller) Transform() model.ViewTransform { return c.transform }

// Phase returns the current gesture state; exposed for tests.
func (c *Controller) Phase() Phase { return c.phase }

// setTransform is the single mutation point for the view transform.
func (c *Controller) setTransform(t model.ViewTransform) {
	t.Scale = clamp(t.Scale, c.minZoom, c.maxZoom)
	c.transform = t
	c.requestRender()
}

// requestRender marks every layer dirty and schedules a coalesced render.
// The scheduled frame reads the latest state when it runs, so coalescing is
// last-write-wins.
func (c *Controller) requestRender() {
	if c.engine != nil {
		c.engine.MarkAllDirty()
	}
	if c.renderQueued || c.sched == nil || c.render == nil {
		return
	}
	c.renderQueued = true
	c.sched.Schedule(func() {
		c.renderQueued = false
		c.render()
	})
}

// Handle feeds one pointer event through the gesture state machine.
func (c *Controller) Handle(ev PointerEvent) {
	switch ev.Kind {
	case PointerDown:
		c.handleDown(ev)
	case PointerMove:
		c.handleMove(ev)
	case PointerUp:
		c.handleUp(ev)
	}
}

func (c *Controller) handleDown(ev PointerEvent) {
	c.last = append(c.last[:0], ev.Touches...)
	c.moved = false
	if len(ev.Touches) >= 2 {
		c.phase = Pinching
		return
	}
	if len(ev.Touches) == 1 {
		c.downAt = ev.Touches[0]
	}
	c.phase = Idle
}

func (c *Controller) handleMove(ev PointerEvent) {
	switch {
	case len(ev.Touches) >= 2:
		c.pinch(ev.Touches)
	case len(ev.Touches) == 1:
		c.pan(ev.Touches[0])
	}
	c.last = append(c.last[:0], ev.Touches...)
}

func (c *Controller) pan(t Touch) {
	if c.phase == Pinching {
		return
	}
	if c.phase == Idle {
		if math.Hypot(t.X-c.downAt.X, t.Y-c.downAt.Y) <= panDeadZone {
			return
		}
		c.phase = Panning
		c.moved = true
	}
	if len(c.last) != 1 {
		return
	}
	vt := c.transform
	vt.TranslateX += t.X - c.last[0].X
	vt.TranslateY += t.Y - c.last[0].Y
	c.setTransform(vt)
	if c.events.PanChanged != nil {
		c.events.PanChanged(vt.TranslateX, vt.TranslateY)
	}
}

func (c *Controller) pinch(touches []Touch) {
	c.phase = Pinching
	c.moved = true
	if len(c.last) < 2 {
		return
	}
	prev := math.Hypot(c.last[0].X-c.last[1].X, c.last[0].Y-c.last[1].Y)
	cur := math.Hypot(touches[0].X-touches[1].X, touches[0].Y-touches[1].Y)
	if prev < 1e-6 {
		return
	}
	vt := c.transform
	vt.Scale *= cur / prev
	c.setTransform(vt)
	if c.events.ZoomChanged != nil {
		c.events.ZoomChanged(c.transform.Scale)
	}
}

func (c *Controller) handleUp(ev PointerEvent) {
	wasTap := c.phase == Idle && !c.moved
	c.phase = Idle
	c.last = c.last[:0]
	if !wasTap {
		return
	}
	c.tap(c.downAt)
}

// tap converts the screen point to graph space, hit-tests nodes through
// the spatial index and falls back to an edge hit test.
func (c *Controller) tap(t Touch) {
	gx, gy := c.transform.Invert(t.X, t.Y)
	if n := c.index.QueryPoint(gx, gy, 0); n != nil {
		debug.Log("interact: node %s tapped", n.ID)
		if c.events.NodeTapped != nil {
			c.events.NodeTapped(n.ID)
		}
		return
	}
	if id, ok := c.hitTestEdge(gx, gy); ok {
		debug.Log("interact: edge %s tapped", id)
		if c.events.EdgeTapped != nil {
			c.events.EdgeTapped(id)
		}
	}
}

func (c *Controller) hitTestEdge(x, y float64) (string, bool) {
	if c.graph == nil {
		return "", false
	}
	for i := range c.graph.Edges {
		e := &c.graph.Edges[i]
		src := c.graph.NodeByID(e.SourceID)
		tgt := c.graph.NodeByID(e.TargetID)
		if src == nil || tgt == nil {
			continue
		}
		if pointSegmentDistance(x, y, src.X, src.Y, tgt.X, tgt.Y) <= edgeHitTolerance {
			return e.ID(), true
		}
	}
	return "", false
}

// ZoomAt scales the view by factor, keeping the given screen point fixed.
// Used for wheel zoom, where there is no second touch to pinch with.
func (c *Controller) ZoomAt(factor, sx, sy float64) {
	gx, gy := c.transform.Invert(sx, sy)
	vt := c.transform
	vt.Scale = clamp(vt.Scale*factor, c.minZoom, c.maxZoom)
	vt.TranslateX = sx - gx*vt.Scale
	vt.TranslateY = sy - gy*vt.Scale
	c.setTransform(vt)
	if c.events.ZoomChanged != nil {
		c.events.ZoomChanged(c.transform.Scale)
	}
}

// PanBy shifts the view by a screen-space delta (keyboard panning).
func (c *Controller) PanBy(dx, dy float64) {
	vt := c.transform
	vt.TranslateX += dx
	vt.TranslateY += dy
	c.setTransform(vt)
	if c.events.PanChanged != nil {
		c.events.PanChanged(vt.TranslateX, vt.TranslateY)
	}
}

// Restore replaces the transform wholesale, e.g. to keep the user's view
// across a data reload. Scale is clamped like any other mutation.
func (c *Controller) Restore(vt model.ViewTransform) {
	if vt.Scale == 0 {
		vt.Scale = 1
	}
	c.setTransform(vt)
}

// ResetView restores the identity transform and notifies the host.
func (c *Controller) ResetView() {
	c.setTransform(model.Identity())
	if c.events.ViewResetRequested != nil {
		c.events.ViewResetRequested()
	}
}

// RequestAnchorChange asks the host to rebuild the graph around a new
// focal node.
func (c *Controller) RequestAnchorChange(id string) {
	if c.events.AnchorChangeRequested != nil {
		c.events.AnchorChangeRequested(id)
	}
}

// ToggleFullscreen forwards the request to the host.
func (c *Controller) ToggleFullscreen() {
	if c.events.FullscreenToggleRequested != nil {
		c.events.FullscreenToggleRequested()
	}
}

func pointSegmentDistance(px, py, x1, y1, x2, y2 float64) float64 {
	dx, dy := x2-x1, y2-y1
	lenSq := dx*dx + dy*dy
	if lenSq < 1e-12 {
		return math.Hypot(px-x1, py-y1)
	}
	t := clamp(((px-x1)*dx+(py-y1)*dy)/lenSq, 0, 1)
	return math.Hypot(px-(x1+t*dx), py-(y1+t*dy))
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
