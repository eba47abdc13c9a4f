package spatial

import (
	"fmt"
	"testing"

	"github.com/avandenberg/weave/pkg/model"
)

func gridGraph(positions map[string][2]float64, radius float64) *model.Graph {
	profiles := make([]model.Profile, 0, len(positions))
	for id := range positions {
		profiles = append(profiles, model.Profile{ID: id, Name: id})
	}
	g := model.Build(profiles, nil, model.BuildOptions{})
	for id, pos := range positions {
		n := g.NodeByID(id)
		n.X, n.Y = pos[0], pos[1]
		n.Style.Radius = radius
	}
	return &g
}

func TestQueryPointDirectHit(t *testing.T) {
	g := gridGraph(map[string][2]float64{"a": {100, 100}}, 12)
	idx := Build(g)

	if got := idx.QueryPoint(100, 100, 0); got == nil || got.ID != "a" {
		t.Fatalf("center hit failed: %v", got)
	}
	// inside radius + click tolerance
	if got := idx.QueryPoint(100+12+ClickTolerance-0.5, 100, 0); got == nil {
		t.Error("hit within tolerance band missed")
	}
	// just outside
	if got := idx.QueryPoint(100+12+ClickTolerance+1, 100, 0); got != nil {
		t.Errorf("miss outside tolerance returned %s", got.ID)
	}
}

func TestQueryPointExtraTolerance(t *testing.T) {
	g := gridGraph(map[string][2]float64{"a": {100, 100}}, 12)
	idx := Build(g)

	x := 100 + 12 + ClickTolerance + 4
	if got := idx.QueryPoint(x, 100, 0); got != nil {
		t.Fatal("should miss without extra tolerance")
	}
	if got := idx.QueryPoint(x, 100, 5); got == nil {
		t.Error("should hit with extra tolerance")
	}
}

func TestQueryPointNearestWins(t *testing.T) {
	g := gridGraph(map[string][2]float64{
		"near": {100, 100},
		"far":  {130, 100},
	}, 26)
	idx := Build(g)

	if got := idx.QueryPoint(110, 100, 0); got == nil || got.ID != "near" {
		t.Errorf("expected nearest node, got %v", got)
	}
	if got := idx.QueryPoint(125, 100, 0); got == nil || got.ID != "far" {
		t.Errorf("expected far node, got %v", got)
	}
}

func TestQueryPointCrossesCellBoundary(t *testing.T) {
	// node center in one cell, query point in the neighbor cell
	g := gridGraph(map[string][2]float64{"a": {CellSize - 2, CellSize / 2}}, 12)
	idx := Build(g)
	if got := idx.QueryPoint(CellSize+4, CellSize/2, 0); got == nil {
		t.Error("hit across cell boundary missed")
	}
}

func TestQueryRegion(t *testing.T) {
	positions := make(map[string][2]float64)
	for i := 0; i < 10; i++ {
		positions[fmt.Sprintf("n%d", i)] = [2]float64{float64(i) * 100, 50}
	}
	g := gridGraph(positions, 12)
	idx := Build(g)

	hits := idx.QueryRegion(Bounds{MinX: 0, MinY: 0, MaxX: 250, MaxY: 100})
	if len(hits) != 3 {
		t.Fatalf("expected nodes at 0,100,200, got %d hits", len(hits))
	}

	// node just outside, but its radius crosses the edge
	hits = idx.QueryRegion(Bounds{MinX: 0, MinY: 0, MaxX: 290, MaxY: 100})
	if len(hits) != 4 {
		t.Errorf("bounding circle at 300 should intersect maxX=290, got %d hits", len(hits))
	}
}

func TestQueryRegionEmpty(t *testing.T) {
	g := gridGraph(map[string][2]float64{"a": {500, 500}}, 12)
	idx := Build(g)
	if hits := idx.QueryRegion(Bounds{MinX: 0, MinY: 0, MaxX: 100, MaxY: 100}); len(hits) != 0 {
		t.Errorf("expected no hits, got %d", len(hits))
	}
}

func TestContains(t *testing.T) {
	n := &model.Node{X: 105, Y: 50}
	n.Style.Radius = 10
	b := Bounds{MinX: 0, MinY: 0, MaxX: 100, MaxY: 100}
	if !Contains(n, b) {
		t.Error("circle overlapping the edge should be contained")
	}
	n.X = 120
	if Contains(n, b) {
		t.Error("circle clear of the bounds should not be contained")
	}
}

func TestNilIndex(t *testing.T) {
	var idx *Index
	if idx.QueryPoint(0, 0, 0) != nil {
		t.Error("nil index point query should return nil")
	}
	if idx.QueryRegion(Bounds{}) != nil {
		t.Error("nil index region query should return nil")
	}
	if idx.Len() != 0 {
		t.Error("nil index length should be 0")
	}
}

func TestBuildIndexesAllNodes(t *testing.T) {
	positions := make(map[string][2]float64)
	for i := 0; i < 25; i++ {
		positions[fmt.Sprintf("n%d", i)] = [2]float64{float64(i * 37), float64(i * 53)}
	}
	g := gridGraph(positions, 12)
	idx := Build(g)
	if idx.Len() != 25 {
		t.Errorf("expected 25 indexed nodes, got %d", idx.Len())
	}
	for id, pos := range positions {
		if got := idx.QueryPoint(pos[0], pos[1], 0); got == nil || got.ID != id {
			t.Errorf("node %s not findable at its own position", id)
		}
	}
}
