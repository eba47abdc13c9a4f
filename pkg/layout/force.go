package layout

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/avandenberg/weave/pkg/debug"
	"github.com/avandenberg/weave/pkg/model"
)

// Force simulation constants. Rest length shrinks as edge confidence grows
// (confident relationships sit closer to each other); repulsion is bounded
// by a distance window to avoid singularities and wasted work on far pairs.
const (
	restLengthMax = 140.0 // rest length at confidence 0
	restLengthMin = 60.0  // rest length at confidence 1

	attractK  = 0.012
	repulseK  = 6000.0
	centerK   = 0.005
	boundaryK = 0.08

	minDistance     = 4.0   // repulsion floor, also the zero-distance guard
	maxRepelRadius  = 320.0 // repulsion window upper bound
	springDistFloor = 1.0   // springs only act beyond this distance

	damping        = 0.85
	maxSpeed       = 14.0
	boundaryMargin = 48.0

	overlapPasses  = 8
	overlapPadding = 6.0
	overlapSlack   = 0.5 // pushes pairs strictly past the minimum separation
)

// simContext holds all mutable simulation state for one layout pass.
// Velocities and pins never live on the model nodes themselves.
type simContext struct {
	pos    []r2.Vec
	vel    []r2.Vec
	pinned []bool
	radius []float64

	// edges resolved to node indices
	edgeFrom []int
	edgeTo   []int
	edgeRest []float64
	edgeConf []float64

	center r2.Vec
	w, h   float64
}

func restLength(confidence float64) float64 {
	return restLengthMax - (restLengthMax-restLengthMin)*confidence
}

// forceLayout runs the spring/repulsion simulation followed by overlap
// resolution, then writes positions back to the graph.
func forceLayout(g *model.Graph, opts Options) {
	w, h := opts.viewport()
	sim := newSimContext(g, w, h, opts)

	iterations := opts.MaxIterations
	if iterations <= 0 {
		iterations = DefaultIterations
	}
	convergence := opts.Convergence
	if convergence <= 0 {
		convergence = DefaultConvergence
	}

	ran := 0
	for i := 0; i < iterations; i++ {
		ran++
		if sim.step() < convergence {
			break
		}
	}
	debug.Log("layout: force simulation ran %d iterations (%d nodes)", ran, len(g.Nodes))

	for i := 0; i < overlapPasses; i++ {
		if sim.resolveOverlaps() == 0 {
			break
		}
	}

	for i := range g.Nodes {
		g.Nodes[i].X = sim.pos[i].X
		g.Nodes[i].Y = sim.pos[i].Y
	}
}

// newSimContext seeds initial positions: the anchor pinned at the viewport
// center, everything else on a jittered ring around it. The jitter breaks
// the symmetric starting configurations that trap force layouts in
// zero-net-force states.
func newSimContext(g *model.Graph, w, h float64, opts Options) *simContext {
	n := len(g.Nodes)
	sim := &simContext{
		pos:    make([]r2.Vec, n),
		vel:    make([]r2.Vec, n),
		pinned: make([]bool, n),
		radius: make([]float64, n),
		center: r2.Vec{X: w / 2, Y: h / 2},
		w:      w,
		h:      h,
	}

	anchor := anchorIndex(g)
	rng := opts.rng()
	ringRadius := math.Min(w, h) / 4

	ringSlot := 0
	for i := range g.Nodes {
		sim.radius[i] = g.Nodes[i].Style.Radius
		if sim.radius[i] <= 0 {
			sim.radius[i] = 12
		}
		if i == anchor {
			sim.pos[i] = sim.center
			sim.pinned[i] = true
			continue
		}
		angle := 2*math.Pi*float64(ringSlot)/float64(n) + (rng.Float64()-0.5)*0.5
		r := ringRadius * (0.8 + 0.4*rng.Float64())
		sim.pos[i] = r2.Add(sim.center, r2.Vec{X: r * math.Cos(angle), Y: r * math.Sin(angle)})
		ringSlot++
	}

	index := make(map[string]int, n)
	for i := range g.Nodes {
		index[g.Nodes[i].ID] = i
	}
	for _, e := range g.Edges {
		sim.edgeFrom = append(sim.edgeFrom, index[e.SourceID])
		sim.edgeTo = append(sim.edgeTo, index[e.TargetID])
		sim.edgeRest = append(sim.edgeRest, restLength(e.Confidence))
		sim.edgeConf = append(sim.edgeConf, e.Confidence)
	}
	return sim
}

// step advances the simulation by one symplectic Euler iteration and returns
// the largest per-node displacement.
func (s *simContext) step() float64 {
	n := len(s.pos)
	force := make([]r2.Vec, n)

	// spring attraction along edges
	for e := range s.edgeFrom {
		a, b := s.edgeFrom[e], s.edgeTo[e]
		delta := r2.Sub(s.pos[b], s.pos[a])
		dist := r2.Norm(delta)
		if dist <= springDistFloor {
			continue
		}
		mag := attractK * s.edgeConf[e] * (dist - s.edgeRest[e])
		dir := r2.Scale(1/dist, delta)
		force[a] = r2.Add(force[a], r2.Scale(mag, dir))
		force[b] = r2.Sub(force[b], r2.Scale(mag, dir))
	}

	// pairwise repulsion within the distance window
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			delta := r2.Sub(s.pos[j], s.pos[i])
			dist := r2.Norm(delta)
			if dist > maxRepelRadius {
				continue
			}
			var dir r2.Vec
			if dist < minDistance {
				// coincident or nearly so; pick a stable direction
				dir = r2.Vec{X: 1}
				dist = minDistance
			} else {
				dir = r2.Scale(1/dist, delta)
			}
			mag := repulseK / (dist * dist)
			force[i] = r2.Sub(force[i], r2.Scale(mag, dir))
			force[j] = r2.Add(force[j], r2.Scale(mag, dir))
		}
	}

	maxDisp := 0.0
	for i := 0; i < n; i++ {
		if s.pinned[i] {
			continue
		}

		// weak pull toward the viewport center
		force[i] = r2.Add(force[i], r2.Scale(centerK, r2.Sub(s.center, s.pos[i])))
		force[i] = r2.Add(force[i], s.boundaryForce(s.pos[i]))

		v := r2.Scale(damping, r2.Add(s.vel[i], force[i]))
		if speed := r2.Norm(v); speed > maxSpeed {
			v = r2.Scale(maxSpeed/speed, v)
		}
		s.vel[i] = v
		s.pos[i] = r2.Add(s.pos[i], v)
		if disp := r2.Norm(v); disp > maxDisp {
			maxDisp = disp
		}
	}
	return maxDisp
}

// boundaryForce pushes a node back linearly once it crosses the inset
// margin near any viewport edge.
func (s *simContext) boundaryForce(p r2.Vec) r2.Vec {
	var f r2.Vec
	if p.X < boundaryMargin {
		f.X += boundaryK * (boundaryMargin - p.X)
	}
	if p.X > s.w-boundaryMargin {
		f.X -= boundaryK * (p.X - (s.w - boundaryMargin))
	}
	if p.Y < boundaryMargin {
		f.Y += boundaryK * (boundaryMargin - p.Y)
	}
	if p.Y > s.h-boundaryMargin {
		f.Y -= boundaryK * (p.Y - (s.h - boundaryMargin))
	}
	return f
}

// resolveOverlaps pushes apart node pairs closer than their minimum
// separation, half the overlap each (full overlap onto the free node when
// the other is pinned). Displacements are accumulated against a snapshot of
// the positions and applied afterwards, so the sweep is independent of node
// order. Returns the number of overlapping pairs found.
func (s *simContext) resolveOverlaps() int {
	n := len(s.pos)
	disp := make([]r2.Vec, n)
	overlapping := 0
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			minSep := s.radius[i] + s.radius[j] + overlapPadding
			delta := r2.Sub(s.pos[j], s.pos[i])
			dist := r2.Norm(delta)
			if dist >= minSep {
				continue
			}
			overlapping++
			if s.pinned[i] && s.pinned[j] {
				continue
			}
			var dir r2.Vec
			if dist < 1e-9 {
				dir = r2.Vec{X: 1}
			} else {
				dir = r2.Scale(1/dist, delta)
			}
			push := minSep - dist + overlapSlack
			switch {
			case s.pinned[i]:
				disp[j] = r2.Add(disp[j], r2.Scale(push, dir))
			case s.pinned[j]:
				disp[i] = r2.Sub(disp[i], r2.Scale(push, dir))
			default:
				disp[i] = r2.Sub(disp[i], r2.Scale(push/2, dir))
				disp[j] = r2.Add(disp[j], r2.Scale(push/2, dir))
			}
		}
	}
	for i := 0; i < n; i++ {
		if s.pinned[i] || disp[i] == (r2.Vec{}) {
			continue
		}
		s.applyDisplacement(i, disp[i])
	}
	return overlapping
}

// applyDisplacement moves node i by d, provided the move does not raise the
// number of nodes i overlaps. When the full step would, it tries shorter and
// rotated variants before leaving the node in place. A node's own overlap
// degree never rising keeps the pairwise overlap count non-increasing from
// pass to pass.
func (s *simContext) applyDisplacement(i int, d r2.Vec) {
	const diag = math.Sqrt2 / 2
	candidates := [...]r2.Vec{
		d,
		r2.Scale(0.5, d),
		r2.Scale(0.25, d),
		{X: diag * (d.X - d.Y), Y: diag * (d.X + d.Y)},
		{X: diag * (d.X + d.Y), Y: diag * (d.Y - d.X)},
		{X: -d.Y, Y: d.X},
		{X: d.Y, Y: -d.X},
	}
	origin := s.pos[i]
	before := s.overlapDegree(i)
	for _, c := range candidates {
		s.pos[i] = r2.Add(origin, c)
		if s.overlapDegree(i) <= before {
			return
		}
	}
	s.pos[i] = origin
}

// overlapDegree counts the nodes sitting closer to node i than their
// pairwise minimum separation.
func (s *simContext) overlapDegree(i int) int {
	degree := 0
	for j := range s.pos {
		if j == i {
			continue
		}
		minSep := s.radius[i] + s.radius[j] + overlapPadding
		if r2.Norm(r2.Sub(s.pos[j], s.pos[i])) < minSep {
			degree++
		}
	}
	return degree
}

// OverlapPass runs a single overlap-resolution pass directly on the graph's
// current positions and returns the number of overlapping pairs it found
// before pushing them apart. Successive calls are non-increasing in that
// count.
func OverlapPass(g *model.Graph) int {
	n := len(g.Nodes)
	sim := &simContext{
		pos:    make([]r2.Vec, n),
		pinned: make([]bool, n),
		radius: make([]float64, n),
	}
	for i := range g.Nodes {
		sim.pos[i] = r2.Vec{X: g.Nodes[i].X, Y: g.Nodes[i].Y}
		sim.radius[i] = g.Nodes[i].Style.Radius
		sim.pinned[i] = g.Nodes[i].Level == 0
	}
	found := sim.resolveOverlaps()
	for i := range g.Nodes {
		g.Nodes[i].X = sim.pos[i].X
		g.Nodes[i].Y = sim.pos[i].Y
	}
	return found
}

// OverlapCount reports how many node pairs in g sit closer than their
// minimum separation. Exposed for tests of overlap-resolution monotonicity.
func OverlapCount(g *model.Graph) int {
	count := 0
	for i := range g.Nodes {
		for j := i + 1; j < len(g.Nodes); j++ {
			minSep := g.Nodes[i].Style.Radius + g.Nodes[j].Style.Radius + overlapPadding
			dx := g.Nodes[j].X - g.Nodes[i].X
			dy := g.Nodes[j].Y - g.Nodes[i].Y
			if math.Hypot(dx, dy) < minSep {
				count++
			}
		}
	}
	return count
}
