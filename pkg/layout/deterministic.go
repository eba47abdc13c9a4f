package layout

import (
	"math"
	"sort"

	"github.com/avandenberg/weave/pkg/model"
)

// hierarchicalLayout places each level on its own row, evenly spaced. Nodes
// without a level (unreachable from the anchor) go below the deepest row.
func hierarchicalLayout(g *model.Graph, opts Options) {
	w, h := opts.viewport()
	const padding = 48.0

	maxLevel := 0
	for i := range g.Nodes {
		if g.Nodes[i].Level > maxLevel {
			maxLevel = g.Nodes[i].Level
		}
	}
	orphanRow := maxLevel + 1

	rows := make(map[int][]int)
	for i := range g.Nodes {
		row := g.Nodes[i].Level
		if row < 0 {
			row = orphanRow
		}
		rows[row] = append(rows[row], i)
	}

	rowKeys := make([]int, 0, len(rows))
	for k := range rows {
		rowKeys = append(rowKeys, k)
	}
	sort.Ints(rowKeys)

	pitch := (h - 2*padding) / float64(len(rowKeys))
	for slot, row := range rowKeys {
		indices := sortedByConfidence(g, rows[row])
		y := padding + (float64(slot)+0.5)*pitch
		step := (w - 2*padding) / float64(len(indices))
		for col, idx := range indices {
			g.Nodes[idx].X = padding + (float64(col)+0.5)*step
			g.Nodes[idx].Y = y
		}
	}
}

// radialLayout puts the anchor at the center and buckets the remaining
// nodes into concentric rings by the strength of their strongest incident
// edge (strong innermost). When every node ties, connectivity degree breaks
// the graph into rings instead. Ring radii grow when a ring's population
// would otherwise force node footprints to overlap.
func radialLayout(g *model.Graph, opts Options) {
	w, h := opts.viewport()
	cx, cy := w/2, h/2

	anchor := anchorIndex(g)
	if anchor >= 0 {
		g.Nodes[anchor].X, g.Nodes[anchor].Y = cx, cy
	}

	strongest := make(map[int]model.Strength, len(g.Nodes))
	index := make(map[string]int, len(g.Nodes))
	for i := range g.Nodes {
		index[g.Nodes[i].ID] = i
	}
	for _, e := range g.Edges {
		for _, end := range []int{index[e.SourceID], index[e.TargetID]} {
			if s, ok := strongest[end]; !ok || e.Strength > s {
				strongest[end] = e.Strength
			}
		}
	}

	rings := make(map[int][]int) // ring number (1 innermost) -> node indices
	allTied := true
	var firstTier model.Strength
	first := true
	for i := range g.Nodes {
		if i == anchor {
			continue
		}
		tier := strongest[i]
		if first {
			firstTier = tier
			first = false
		} else if tier != firstTier {
			allTied = false
		}
		ring := int(model.StrengthStrong-tier) + 1
		rings[ring] = append(rings[ring], i)
	}

	if allTied && len(rings) > 0 {
		// degree buckets: high-degree nodes innermost
		rings = make(map[int][]int)
		maxDegree := 0
		for i := range g.Nodes {
			if d := g.Degree(g.Nodes[i].ID); d > maxDegree {
				maxDegree = d
			}
		}
		for i := range g.Nodes {
			if i == anchor {
				continue
			}
			ring := 1
			if maxDegree > 0 {
				ring = 1 + (maxDegree-g.Degree(g.Nodes[i].ID))*2/(maxDegree+1)
			}
			rings[ring] = append(rings[ring], i)
		}
	}

	ringKeys := make([]int, 0, len(rings))
	for k := range rings {
		ringKeys = append(ringKeys, k)
	}
	sort.Ints(ringKeys)

	baseRadius := math.Min(w, h) / 8
	radius := 0.0
	for _, ring := range ringKeys {
		indices := sortedByConfidence(g, rings[ring])
		radius += baseRadius

		// widen the ring until footprints fit around the circumference
		footprint := 0.0
		for _, idx := range indices {
			footprint += 2*g.Nodes[idx].Style.Radius + 8
		}
		if needed := footprint / (2 * math.Pi); needed > radius {
			radius = needed
		}

		step := 2 * math.Pi / float64(len(indices))
		for slot, idx := range indices {
			angle := float64(slot) * step
			g.Nodes[idx].X = cx + radius*math.Cos(angle)
			g.Nodes[idx].Y = cy + radius*math.Sin(angle)
		}
	}
}

// clusterLayout groups nodes by their dominant incident relation type,
// places each group centroid on a circle around the viewport center, and
// arranges group members in a sub-circle around their centroid.
func clusterLayout(g *model.Graph, opts Options) {
	w, h := opts.viewport()
	cx, cy := w/2, h/2

	index := make(map[string]int, len(g.Nodes))
	for i := range g.Nodes {
		index[g.Nodes[i].ID] = i
	}
	typeCounts := make(map[int]map[model.RelationType]int, len(g.Nodes))
	for _, e := range g.Edges {
		for _, end := range []int{index[e.SourceID], index[e.TargetID]} {
			if typeCounts[end] == nil {
				typeCounts[end] = make(map[model.RelationType]int)
			}
			typeCounts[end][e.Type]++
		}
	}

	groups := make(map[model.RelationType][]int)
	for i := range g.Nodes {
		dominant := model.RelationUnknown
		best := 0
		for t, c := range typeCounts[i] {
			if c > best || (c == best && t < dominant) {
				dominant = t
				best = c
			}
		}
		groups[dominant] = append(groups[dominant], i)
	}

	groupKeys := make([]model.RelationType, 0, len(groups))
	for k := range groups {
		groupKeys = append(groupKeys, k)
	}
	sort.Slice(groupKeys, func(i, j int) bool { return groupKeys[i] < groupKeys[j] })

	orbit := math.Min(w, h) / 3.2
	for slot, key := range groupKeys {
		indices := sortedByConfidence(g, groups[key])
		gx, gy := cx, cy
		if len(groupKeys) > 1 {
			angle := 2 * math.Pi * float64(slot) / float64(len(groupKeys))
			gx = cx + orbit*math.Cos(angle)
			gy = cy + orbit*math.Sin(angle)
		}

		sub := 20 + 6*float64(len(indices))
		step := 2 * math.Pi / float64(len(indices))
		for i, idx := range indices {
			angle := float64(i) * step
			g.Nodes[idx].X = gx + sub*math.Cos(angle)
			g.Nodes[idx].Y = gy + sub*math.Sin(angle)
		}
	}
}

// gridLayout is a simple row-major placement, anchor first, cell size
// derived from viewport size and node count.
func gridLayout(g *model.Graph, opts Options) {
	w, h := opts.viewport()
	const padding = 48.0

	order := make([]int, 0, len(g.Nodes))
	anchor := anchorIndex(g)
	if anchor >= 0 {
		order = append(order, anchor)
	}
	rest := make([]int, 0, len(g.Nodes))
	for i := range g.Nodes {
		if i != anchor {
			rest = append(rest, i)
		}
	}
	order = append(order, sortedByConfidence(g, rest)...)

	cols := int(math.Ceil(math.Sqrt(float64(len(order)) * w / h)))
	if cols < 1 {
		cols = 1
	}
	rows := (len(order) + cols - 1) / cols
	cellW := (w - 2*padding) / float64(cols)
	cellH := (h - 2*padding) / float64(rows)

	for slot, idx := range order {
		col := slot % cols
		row := slot / cols
		g.Nodes[idx].X = padding + (float64(col)+0.5)*cellW
		g.Nodes[idx].Y = padding + (float64(row)+0.5)*cellH
	}
}
