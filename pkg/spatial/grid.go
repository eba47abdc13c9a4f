// Package spatial indexes node positions in a uniform grid for fast
// pointer hit-testing and viewport culling.
//
// The index is rebuilt wholesale whenever positions change; with graphs of
// at most a few hundred nodes a full rebuild is cheaper and simpler than an
// incremental update path.
package spatial

import (
	"math"

	"github.com/avandenberg/weave/pkg/model"
)

// CellSize is the grid pitch in graph units. Chosen so a typical node
// (radius ≤ 26) spans at most two cells in each axis, which keeps point
// queries to the 3x3 neighborhood.
const CellSize = 64.0

// ClickTolerance widens point queries so taps slightly outside a node's
// disc still hit it.
const ClickTolerance = 6.0

type cellKey struct{ cx, cy int }

// Bounds is an axis-aligned rectangle in graph space.
type Bounds struct {
	MinX, MinY, MaxX, MaxY float64
}

// Index buckets nodes by the grid cell containing their center.
type Index struct {
	cells map[cellKey][]*model.Node
	nodes []*model.Node
}

// Build files every node of g under its grid cell. The returned index holds
// pointers into g; rebuild after any layout pass or drag.
func Build(g *model.Graph) *Index {
	idx := &Index{
		cells: make(map[cellKey][]*model.Node, len(g.Nodes)),
		nodes: make([]*model.Node, 0, len(g.Nodes)),
	}
	for i := range g.Nodes {
		n := &g.Nodes[i]
		k := keyFor(n.X, n.Y)
		idx.cells[k] = append(idx.cells[k], n)
		idx.nodes = append(idx.nodes, n)
	}
	return idx
}

func keyFor(x, y float64) cellKey {
	return cellKey{
		cx: int(math.Floor(x / CellSize)),
		cy: int(math.Floor(y / CellSize)),
	}
}

// QueryPoint returns the first node whose disc (radius plus the fixed click
// tolerance plus the caller's extra tolerance) covers the given graph-space
// point, scanning only the point's cell and its 8 neighbors. Returns nil on
// a background hit.
func (idx *Index) QueryPoint(x, y, tolerance float64) *model.Node {
	if idx == nil {
		return nil
	}
	center := keyFor(x, y)
	var best *model.Node
	bestDist := math.Inf(1)
	for dx := -1; dx <= 1; dx++ {
		for dy := -1; dy <= 1; dy++ {
			k := cellKey{cx: center.cx + dx, cy: center.cy + dy}
			for _, n := range idx.cells[k] {
				dist := math.Hypot(n.X-x, n.Y-y)
				if dist <= n.Style.Radius+ClickTolerance+tolerance && dist < bestDist {
					best = n
					bestDist = dist
				}
			}
		}
	}
	return best
}

// QueryRegion returns every node whose bounding circle intersects the given
// bounds. Used by the render engine for viewport culling.
func (idx *Index) QueryRegion(b Bounds) []*model.Node {
	if idx == nil {
		return nil
	}
	var hits []*model.Node
	for _, n := range idx.nodes {
		if circleIntersectsRect(n.X, n.Y, n.Style.Radius, b) {
			hits = append(hits, n)
		}
	}
	return hits
}

// Contains reports whether the node's bounding circle intersects b.
func Contains(n *model.Node, b Bounds) bool {
	return circleIntersectsRect(n.X, n.Y, n.Style.Radius, b)
}

func circleIntersectsRect(x, y, r float64, b Bounds) bool {
	nearestX := math.Max(b.MinX, math.Min(x, b.MaxX))
	nearestY := math.Max(b.MinY, math.Min(y, b.MaxY))
	return math.Hypot(x-nearestX, y-nearestY) <= r
}

// Len returns the number of indexed nodes.
func (idx *Index) Len() int {
	if idx == nil {
		return 0
	}
	return len(idx.nodes)
}
