package interact

import (
	"math"
	"testing"

	"github.com/avandenberg/weave/pkg/model"
	"github.com/avandenberg/weave/pkg/spatial"
	"github.com/avandenberg/weave/pkg/testutil"
)

// fakeScheduler queues callbacks until the test drains them, mimicking a
// frame scheduler.
type fakeScheduler struct {
	queued []func()
}

func (s *fakeScheduler) Schedule(fn func()) { s.queued = append(s.queued, fn) }

func (s *fakeScheduler) runAll() int {
	n := len(s.queued)
	for len(s.queued) > 0 {
		fn := s.queued[0]
		s.queued = s.queued[1:]
		fn()
	}
	return n
}

type harness struct {
	ctrl    *Controller
	sched   *fakeScheduler
	graph   *model.Graph
	renders int
	tapped  []string
	edges   []string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{sched: &fakeScheduler{}}

	profiles := testutil.Profiles(3)
	rels := []model.Relationship{testutil.Rel("p-0", "p-1", "friend", 0.8)}
	g := model.Build(profiles, rels, model.BuildOptions{})
	g.NodeByID("p-0").X, g.NodeByID("p-0").Y = 400, 300
	g.NodeByID("p-1").X, g.NodeByID("p-1").Y = 100, 100
	g.NodeByID("p-2").X, g.NodeByID("p-2").Y = 700, 500
	h.graph = &g

	h.ctrl = New(Config{
		Scheduler: h.sched,
		Render:    func() { h.renders++ },
		Events: Events{
			NodeTapped: func(id string) { h.tapped = append(h.tapped, id) },
			EdgeTapped: func(id string) { h.edges = append(h.edges, id) },
		},
	})
	h.ctrl.SetGraph(h.graph, spatial.Build(h.graph))
	h.sched.runAll()
	h.renders = 0
	return h
}

func down(x, y float64) PointerEvent {
	return PointerEvent{Kind: PointerDown, Touches: []Touch{{X: x, Y: y}}}
}

func move(x, y float64) PointerEvent {
	return PointerEvent{Kind: PointerMove, Touches: []Touch{{X: x, Y: y}}}
}

func up(x, y float64) PointerEvent {
	return PointerEvent{Kind: PointerUp, Touches: []Touch{{X: x, Y: y}}}
}

func twoTouch(kind PointerKind, a, b Touch) PointerEvent {
	return PointerEvent{Kind: kind, Touches: []Touch{a, b}}
}

func TestPanTranslatesView(t *testing.T) {
	h := newHarness(t)

	h.ctrl.Handle(down(100, 100))
	h.ctrl.Handle(move(130, 120))
	h.ctrl.Handle(move(160, 140))
	h.ctrl.Handle(up(160, 140))
	h.sched.runAll()

	vt := h.ctrl.Transform()
	if vt.TranslateX != 60 || vt.TranslateY != 40 {
		t.Errorf("translate = (%v, %v), want (60, 40)", vt.TranslateX, vt.TranslateY)
	}
	if len(h.tapped) != 0 {
		t.Error("a drag must not register as a tap")
	}
}

func TestMovesInsideDeadZoneStayTap(t *testing.T) {
	h := newHarness(t)

	h.ctrl.Handle(down(100, 100))
	h.ctrl.Handle(move(102, 101)) // under the dead zone
	if h.ctrl.Phase() != Idle {
		t.Errorf("phase = %v, want Idle inside dead zone", h.ctrl.Phase())
	}
	h.ctrl.Handle(up(102, 101))

	if len(h.tapped) != 1 || h.tapped[0] != "p-1" {
		t.Errorf("tap on node missed: %v", h.tapped)
	}
	vt := h.ctrl.Transform()
	if vt.TranslateX != 0 || vt.TranslateY != 0 {
		t.Error("dead-zone movement must not pan")
	}
}

func TestTapOnBackground(t *testing.T) {
	h := newHarness(t)
	h.ctrl.Handle(down(50, 550))
	h.ctrl.Handle(up(50, 550))
	if len(h.tapped) != 0 || len(h.edges) != 0 {
		t.Errorf("background tap should hit nothing: nodes=%v edges=%v", h.tapped, h.edges)
	}
}

func TestTapHitsEdge(t *testing.T) {
	h := newHarness(t)
	// midpoint of the p-0..p-1 segment, away from both node discs
	h.ctrl.Handle(down(250, 200))
	h.ctrl.Handle(up(250, 200))
	if len(h.edges) != 1 || h.edges[0] != "p-0->p-1" {
		t.Errorf("edge tap missed: %v", h.edges)
	}
	if len(h.tapped) != 0 {
		t.Error("edge tap must not also report a node")
	}
}

func TestTapRespectsTransform(t *testing.T) {
	h := newHarness(t)
	h.ctrl.ZoomAt(2, 0, 0) // scale 2 about the origin
	h.sched.runAll()

	// node p-1 is at graph (100,100) -> screen (200,200)
	h.ctrl.Handle(down(200, 200))
	h.ctrl.Handle(up(200, 200))
	if len(h.tapped) != 1 || h.tapped[0] != "p-1" {
		t.Errorf("zoomed tap missed: %v", h.tapped)
	}
}

func TestPinchScalesView(t *testing.T) {
	h := newHarness(t)

	h.ctrl.Handle(twoTouch(PointerDown, Touch{X: 300, Y: 300}, Touch{X: 400, Y: 300}))
	if h.ctrl.Phase() != Pinching {
		t.Fatalf("phase = %v, want Pinching", h.ctrl.Phase())
	}
	h.ctrl.Handle(twoTouch(PointerMove, Touch{X: 250, Y: 300}, Touch{X: 450, Y: 300}))
	h.ctrl.Handle(twoTouch(PointerUp, Touch{X: 250, Y: 300}, Touch{X: 450, Y: 300}))
	h.sched.runAll()

	vt := h.ctrl.Transform()
	if math.Abs(vt.Scale-2) > 1e-9 {
		t.Errorf("scale = %v, want 2", vt.Scale)
	}
	if len(h.tapped) != 0 {
		t.Error("pinch must not register as a tap")
	}
	if h.ctrl.Phase() != Idle {
		t.Errorf("phase after release = %v, want Idle", h.ctrl.Phase())
	}
}

func TestPinchClampsToZoomBounds(t *testing.T) {
	h := newHarness(t)

	h.ctrl.Handle(twoTouch(PointerDown, Touch{X: 390, Y: 300}, Touch{X: 410, Y: 300}))
	h.ctrl.Handle(twoTouch(PointerMove, Touch{X: 0, Y: 300}, Touch{X: 800, Y: 300}))
	h.sched.runAll()

	if vt := h.ctrl.Transform(); vt.Scale != 4 {
		t.Errorf("scale should clamp at max 4, got %v", vt.Scale)
	}

	h.ctrl.Handle(twoTouch(PointerMove, Touch{X: 399, Y: 300}, Touch{X: 401, Y: 300}))
	h.sched.runAll()
	if vt := h.ctrl.Transform(); vt.Scale != 0.25 {
		t.Errorf("scale should clamp at min 0.25, got %v", vt.Scale)
	}
}

func TestRenderRequestsCoalesce(t *testing.T) {
	h := newHarness(t)

	h.ctrl.Handle(down(100, 100))
	for i := 0; i < 20; i++ {
		h.ctrl.Handle(move(110+float64(i)*5, 100))
	}

	if scheduled := h.sched.runAll(); scheduled != 1 {
		t.Errorf("burst of moves scheduled %d frames, want 1", scheduled)
	}
	if h.renders != 1 {
		t.Errorf("renders = %d, want 1", h.renders)
	}

	// next mutation schedules a fresh frame
	h.ctrl.PanBy(5, 5)
	if scheduled := h.sched.runAll(); scheduled != 1 {
		t.Errorf("post-drain mutation scheduled %d frames, want 1", scheduled)
	}
}

func TestZoomAtKeepsPointFixed(t *testing.T) {
	h := newHarness(t)

	gx, gy := h.ctrl.Transform().Invert(400, 300)
	h.ctrl.ZoomAt(1.5, 400, 300)
	h.sched.runAll()

	gx2, gy2 := h.ctrl.Transform().Invert(400, 300)
	if math.Abs(gx-gx2) > 1e-9 || math.Abs(gy-gy2) > 1e-9 {
		t.Errorf("zoom focus drifted: (%v,%v) -> (%v,%v)", gx, gy, gx2, gy2)
	}
	if s := h.ctrl.Transform().Scale; math.Abs(s-1.5) > 1e-9 {
		t.Errorf("scale = %v, want 1.5", s)
	}
}

func TestResetView(t *testing.T) {
	resets := 0
	h := newHarness(t)
	h.ctrl.events.ViewResetRequested = func() { resets++ }

	h.ctrl.PanBy(50, 50)
	h.ctrl.ZoomAt(2, 0, 0)
	h.ctrl.ResetView()
	h.sched.runAll()

	vt := h.ctrl.Transform()
	if vt.Scale != 1 || vt.TranslateX != 0 || vt.TranslateY != 0 {
		t.Errorf("reset left transform %+v", vt)
	}
	if resets != 1 {
		t.Errorf("reset callback fired %d times", resets)
	}
}

func TestRestoreClampsScale(t *testing.T) {
	h := newHarness(t)
	h.ctrl.Restore(model.ViewTransform{Scale: 99, TranslateX: 10})
	if vt := h.ctrl.Transform(); vt.Scale != 4 || vt.TranslateX != 10 {
		t.Errorf("restore = %+v", vt)
	}
	h.ctrl.Restore(model.ViewTransform{})
	if vt := h.ctrl.Transform(); vt.Scale != 1 {
		t.Errorf("zero scale should restore to 1, got %v", vt.Scale)
	}
}

func TestPointSegmentDistance(t *testing.T) {
	if d := pointSegmentDistance(5, 5, 0, 0, 10, 0); d != 5 {
		t.Errorf("perpendicular distance = %v, want 5", d)
	}
	if d := pointSegmentDistance(-3, 4, 0, 0, 10, 0); d != 5 {
		t.Errorf("clamped-to-endpoint distance = %v, want 5", d)
	}
	if d := pointSegmentDistance(3, 4, 0, 0, 0, 0); d != 5 {
		t.Errorf("degenerate segment distance = %v, want 5", d)
	}
}
