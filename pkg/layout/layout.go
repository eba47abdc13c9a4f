// Package layout converts an abstract node/edge graph into 2D positions.
//
// The force-directed simulation is the primary algorithm; hierarchical,
// circular/radial, cluster and grid are deterministic single-pass
// alternatives. All layouts write final positions into the graph's nodes;
// simulation state (velocities, pins) lives in a per-call context and never
// leaks onto the model.
package layout

import (
	"math"
	"math/rand"
	"sort"
	"time"

	"github.com/avandenberg/weave/pkg/debug"
	"github.com/avandenberg/weave/pkg/model"
)

// Kind selects a layout algorithm.
type Kind string

const (
	KindForce        Kind = "force"
	KindHierarchical Kind = "hierarchical"
	KindCircular     Kind = "circular"
	KindRadial       Kind = "radial"
	KindCluster      Kind = "cluster"
	KindGrid         Kind = "grid"
)

// ParseKind maps a raw string onto a known Kind. Unrecognized values fall
// back to circular, the layout that works for any input.
func ParseKind(s string) Kind {
	switch Kind(s) {
	case KindForce, KindHierarchical, KindCircular, KindRadial, KindCluster, KindGrid:
		return Kind(s)
	default:
		return KindCircular
	}
}

// Options configures a layout pass.
type Options struct {
	// Width and Height are the viewport size in graph units.
	Width, Height float64
	// Rand seeds the jittered initial placement of the force layout.
	// Nil means time-seeded; tests pass a fixed-seed source.
	Rand *rand.Rand
	// MaxIterations caps the force simulation. Zero means DefaultIterations.
	MaxIterations int
	// Convergence stops the simulation early once the largest per-node
	// displacement in an iteration drops below it. Zero means
	// DefaultConvergence.
	Convergence float64
}

// Simulation defaults. The iteration cap bounds worst-case compute; the
// convergence threshold usually ends a run well before the cap.
const (
	DefaultIterations  = 300
	DefaultConvergence = 0.15
)

func (o Options) rng() *rand.Rand {
	if o.Rand != nil {
		return o.Rand
	}
	return rand.New(rand.NewSource(time.Now().UnixNano()))
}

func (o Options) viewport() (float64, float64) {
	w, h := o.Width, o.Height
	if w <= 0 {
		w = 800
	}
	if h <= 0 {
		h = 600
	}
	return w, h
}

// Compute assigns positions to every node of g according to kind. Degenerate
// input (empty or single-node graphs) falls back to the circular layout.
func Compute(g *model.Graph, kind Kind, opts Options) {
	defer debug.LogEnterExit("layout.Compute")()

	if len(g.Nodes) == 0 {
		return
	}
	if len(g.Nodes) == 1 {
		w, h := opts.viewport()
		g.Nodes[0].X, g.Nodes[0].Y = w/2, h/2
		return
	}

	switch kind {
	case KindForce:
		forceLayout(g, opts)
	case KindHierarchical:
		hierarchicalLayout(g, opts)
	case KindCluster:
		clusterLayout(g, opts)
	case KindGrid:
		gridLayout(g, opts)
	default: // circular and radial share the ring layout
		radialLayout(g, opts)
	}
}

// anchorIndex returns the index of the level-0 node, or the highest-degree
// node (ties broken by id) when no focal node exists, or -1 for an empty
// graph.
func anchorIndex(g *model.Graph) int {
	best := -1
	bestDegree := -1
	for i := range g.Nodes {
		if g.Nodes[i].Level == 0 {
			return i
		}
		d := g.Degree(g.Nodes[i].ID)
		if d > bestDegree || (d == bestDegree && best >= 0 && g.Nodes[i].ID < g.Nodes[best].ID) {
			best = i
			bestDegree = d
		}
	}
	return best
}

// sortedByConfidence returns node indices ordered by descending confidence,
// ties broken by id. Epsilon comparison avoids unstable ordering from
// floating point noise.
func sortedByConfidence(g *model.Graph, indices []int) []int {
	const eps = 1e-6
	sort.Slice(indices, func(a, b int) bool {
		ni, nj := g.Nodes[indices[a]], g.Nodes[indices[b]]
		if diff := ni.Confidence - nj.Confidence; math.Abs(diff) > eps {
			return diff > 0
		}
		return ni.ID < nj.ID
	})
	return indices
}
