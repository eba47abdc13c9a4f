package layout

import (
	"math"
	"math/rand"
	"testing"

	"github.com/avandenberg/weave/pkg/model"
	"github.com/avandenberg/weave/pkg/testutil"
)

func buildGraph(t *testing.T, profiles []model.Profile, rels []model.Relationship) *model.Graph {
	t.Helper()
	g := model.Build(profiles, rels, model.BuildOptions{})
	return &g
}

func starGraph(t *testing.T, n int, confidence float64) *model.Graph {
	t.Helper()
	return buildGraph(t, testutil.Profiles(n), testutil.StarRelationships(n, "friend", confidence))
}

func fixedOpts(w, h float64) Options {
	return Options{Width: w, Height: h, Rand: rand.New(rand.NewSource(42))}
}

func TestParseKind(t *testing.T) {
	if got := ParseKind("force"); got != KindForce {
		t.Errorf("force parsed as %s", got)
	}
	if got := ParseKind("spiral"); got != KindCircular {
		t.Errorf("unknown kind should fall back to circular, got %s", got)
	}
	if got := ParseKind(""); got != KindCircular {
		t.Errorf("empty kind should fall back to circular, got %s", got)
	}
}

func TestComputeEmptyGraph(t *testing.T) {
	g := &model.Graph{}
	Compute(g, KindForce, fixedOpts(800, 600)) // must not panic
}

func TestComputeSingleNode(t *testing.T) {
	g := buildGraph(t, testutil.Profiles(1), nil)
	Compute(g, KindForce, fixedOpts(800, 600))
	n := g.Nodes[0]
	if n.X != 400 || n.Y != 300 {
		t.Errorf("single node should sit at center, got (%v, %v)", n.X, n.Y)
	}
}

func TestForceLayoutFiniteAndBounded(t *testing.T) {
	for _, size := range []int{2, 10, 50, 200} {
		g := starGraph(t, size, 0.7)
		Compute(g, KindForce, fixedOpts(800, 600))
		testutil.AssertFinitePositions(t, *g)
		// boundary force is a spring, not a wall; allow generous slack
		testutil.AssertInViewport(t, *g, 800, 600, 120)
	}
}

func TestForceLayoutPinsAnchor(t *testing.T) {
	g := starGraph(t, 12, 0.7)
	Compute(g, KindForce, fixedOpts(800, 600))
	anchor := g.Anchor()
	if anchor.X != 400 || anchor.Y != 300 {
		t.Errorf("anchor moved from center: (%v, %v)", anchor.X, anchor.Y)
	}
}

func TestForceLayoutDeterministicWithSeed(t *testing.T) {
	run := func() *model.Graph {
		g := starGraph(t, 15, 0.6)
		Compute(g, KindForce, fixedOpts(800, 600))
		return g
	}
	a, b := run(), run()
	for i := range a.Nodes {
		if a.Nodes[i].X != b.Nodes[i].X || a.Nodes[i].Y != b.Nodes[i].Y {
			t.Fatalf("same seed produced different positions for %s", a.Nodes[i].ID)
		}
	}
}

func TestForceLayoutSeparatesNodes(t *testing.T) {
	g := starGraph(t, 8, 0.7)
	Compute(g, KindForce, fixedOpts(800, 600))
	if got := OverlapCount(g); got != 0 {
		t.Errorf("expected no overlapping pairs after layout, got %d", got)
	}
}

func TestForceLayoutKeepsDisconnectedPairsApart(t *testing.T) {
	// two pairs with no edges between them; repulsion must keep the pairs
	// from collapsing onto each other
	profiles := testutil.Profiles(4)
	rels := []model.Relationship{
		testutil.Rel("p-0", "p-1", "friend", 0.8),
		testutil.Rel("p-2", "p-3", "friend", 0.8),
	}
	g := buildGraph(t, profiles, rels)
	Compute(g, KindForce, fixedOpts(800, 600))
	testutil.AssertFinitePositions(t, *g)

	for i := range g.Nodes {
		for j := i + 1; j < len(g.Nodes); j++ {
			d := math.Hypot(g.Nodes[j].X-g.Nodes[i].X, g.Nodes[j].Y-g.Nodes[i].Y)
			if d < 20 {
				t.Errorf("nodes %s and %s collapsed together (dist %.1f)",
					g.Nodes[i].ID, g.Nodes[j].ID, d)
			}
		}
	}

	cx1 := (g.NodeByID("p-0").X + g.NodeByID("p-1").X) / 2
	cy1 := (g.NodeByID("p-0").Y + g.NodeByID("p-1").Y) / 2
	cx2 := (g.NodeByID("p-2").X + g.NodeByID("p-3").X) / 2
	cy2 := (g.NodeByID("p-2").Y + g.NodeByID("p-3").Y) / 2
	if sep := math.Hypot(cx2-cx1, cy2-cy1); sep < 60 {
		t.Errorf("pair centroids too close: %.1f", sep)
	}
}

func TestOverlapPassMonotonic(t *testing.T) {
	// all nodes piled near the same point; each pass must not increase the
	// overlapping pair count and repeated passes must clear it
	g := buildGraph(t, testutil.Profiles(9), nil)
	for i := range g.Nodes {
		g.Nodes[i].X = 400 + float64(i)*2
		g.Nodes[i].Y = 300
	}

	prev := OverlapCount(g)
	for pass := 0; pass < 50 && prev > 0; pass++ {
		found := OverlapPass(g)
		if found > prev {
			t.Fatalf("pass %d found %d overlaps, more than previous %d", pass, found, prev)
		}
		prev = OverlapCount(g)
	}
	if prev != 0 {
		t.Errorf("overlaps remain after repeated passes: %d", prev)
	}
}

func TestRadialLayoutRingsByStrength(t *testing.T) {
	// strong edge to b, weak edge to c: b must sit on a tighter ring
	profiles := []model.Profile{
		{ID: "a", Name: "Ada", Focal: true},
		{ID: "b", Name: "Ben"},
		{ID: "c", Name: "Cy"},
	}
	rels := []model.Relationship{
		testutil.Rel("a", "b", "family", 0.9),
		testutil.Rel("a", "c", "acquaintance", 0.2),
	}
	g := buildGraph(t, profiles, rels)
	Compute(g, KindRadial, fixedOpts(800, 600))

	anchor := g.Anchor()
	distB := math.Hypot(g.NodeByID("b").X-anchor.X, g.NodeByID("b").Y-anchor.Y)
	distC := math.Hypot(g.NodeByID("c").X-anchor.X, g.NodeByID("c").Y-anchor.Y)
	if distB >= distC {
		t.Errorf("strong edge node should be closer: dist(b)=%v dist(c)=%v", distB, distC)
	}
}

func TestRadialLayoutDegreeFallback(t *testing.T) {
	// every node ties on strength; degree should split the rings instead
	profiles := testutil.Profiles(6)
	rels := testutil.StarRelationships(6, "friend", 0.8)
	// give p-1 extra degree
	rels = append(rels,
		testutil.Rel("p-1", "p-2", "friend", 0.8),
		testutil.Rel("p-1", "p-3", "friend", 0.8),
	)
	g := buildGraph(t, profiles, rels)
	Compute(g, KindRadial, fixedOpts(800, 600))
	testutil.AssertFinitePositions(t, *g)

	anchor := g.Anchor()
	dist1 := math.Hypot(g.NodeByID("p-1").X-anchor.X, g.NodeByID("p-1").Y-anchor.Y)
	dist4 := math.Hypot(g.NodeByID("p-4").X-anchor.X, g.NodeByID("p-4").Y-anchor.Y)
	if dist1 > dist4 {
		t.Errorf("high-degree node farther than low-degree: %v > %v", dist1, dist4)
	}
}

func TestCircularAliasOfRadial(t *testing.T) {
	mk := func(kind Kind) *model.Graph {
		g := starGraph(t, 7, 0.6)
		Compute(g, kind, fixedOpts(800, 600))
		return g
	}
	a, b := mk(KindCircular), mk(KindRadial)
	for i := range a.Nodes {
		if a.Nodes[i].X != b.Nodes[i].X || a.Nodes[i].Y != b.Nodes[i].Y {
			t.Fatal("circular and radial should produce identical positions")
		}
	}
}

func TestHierarchicalLayoutRowsByLevel(t *testing.T) {
	profiles := []model.Profile{
		{ID: "a", Name: "Ada", Focal: true},
		{ID: "b", Name: "Ben"},
		{ID: "c", Name: "Cy"},
		{ID: "d", Name: "Dee"}, // unreachable
	}
	rels := []model.Relationship{
		testutil.Rel("a", "b", "friend", 0.8),
		testutil.Rel("b", "c", "friend", 0.8),
	}
	g := buildGraph(t, profiles, rels)
	Compute(g, KindHierarchical, fixedOpts(800, 600))

	yA := g.NodeByID("a").Y
	yB := g.NodeByID("b").Y
	yC := g.NodeByID("c").Y
	yD := g.NodeByID("d").Y
	if !(yA < yB && yB < yC && yC < yD) {
		t.Errorf("rows out of order: a=%v b=%v c=%v d=%v", yA, yB, yC, yD)
	}
}

func TestHierarchicalSameLevelSharesRow(t *testing.T) {
	g := starGraph(t, 5, 0.7)
	Compute(g, KindHierarchical, fixedOpts(800, 600))
	y := g.NodeByID("p-1").Y
	for i := 2; i < 5; i++ {
		n := g.NodeByID(testutil.ProfileID(i))
		if n.Y != y {
			t.Errorf("node %s on different row: %v vs %v", n.ID, n.Y, y)
		}
	}
}

func TestGridLayoutAnchorFirst(t *testing.T) {
	g := starGraph(t, 9, 0.5)
	Compute(g, KindGrid, fixedOpts(800, 600))

	anchor := g.Anchor()
	for _, n := range g.Nodes {
		if n.ID == anchor.ID {
			continue
		}
		if n.Y < anchor.Y || (n.Y == anchor.Y && n.X < anchor.X) {
			t.Errorf("node %s placed before the anchor", n.ID)
		}
	}
}

func TestClusterLayoutGroupsByRelationType(t *testing.T) {
	profiles := testutil.Profiles(7)
	rels := []model.Relationship{
		testutil.Rel("p-0", "p-1", "family", 0.8),
		testutil.Rel("p-0", "p-2", "family", 0.8),
		testutil.Rel("p-0", "p-3", "colleague", 0.6),
		testutil.Rel("p-0", "p-4", "colleague", 0.6),
		testutil.Rel("p-0", "p-5", "colleague", 0.6),
		testutil.Rel("p-0", "p-6", "friend", 0.7),
	}
	g := buildGraph(t, profiles, rels)
	Compute(g, KindCluster, fixedOpts(800, 600))
	testutil.AssertFinitePositions(t, *g)

	// family members should sit closer to each other than to colleagues
	fam1, fam2 := g.NodeByID("p-1"), g.NodeByID("p-2")
	col := g.NodeByID("p-3")
	within := math.Hypot(fam1.X-fam2.X, fam1.Y-fam2.Y)
	across := math.Hypot(fam1.X-col.X, fam1.Y-col.Y)
	if within >= across {
		t.Errorf("cluster cohesion violated: within=%v across=%v", within, across)
	}
}

func TestAnchorIndexFallsBackToDegree(t *testing.T) {
	// no focal profile; p-1 has the highest degree
	profiles := []model.Profile{
		{ID: "p-0", Name: "A"},
		{ID: "p-1", Name: "B"},
		{ID: "p-2", Name: "C"},
	}
	rels := []model.Relationship{
		testutil.Rel("p-1", "p-0", "friend", 0.5),
		testutil.Rel("p-1", "p-2", "friend", 0.5),
	}
	g := buildGraph(t, profiles, rels)
	if idx := anchorIndex(g); g.Nodes[idx].ID != "p-1" {
		t.Errorf("expected highest-degree fallback p-1, got %s", g.Nodes[idx].ID)
	}
}
