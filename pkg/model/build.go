package model

import (
	"image/color"
	"math"
	"strconv"
	"strings"

	"github.com/avandenberg/weave/pkg/debug"
)

// DefaultConfidence is assumed when a record carries no usable confidence.
const DefaultConfidence = 0.5

// BuildOptions filters the graph before layout ever sees it.
type BuildOptions struct {
	// MinConfidence drops edges below this value. Zero keeps everything.
	MinConfidence float64
	// MaxDepth drops nodes farther than this many hops from the anchor.
	// Zero disables the filter. When active, nodes unreachable from the
	// anchor are dropped as well.
	MaxDepth int
	// AnchorID overrides the focal flag in the input, making the named
	// profile the level-0 anchor. Used when the user re-anchors the view.
	AnchorID string
}

// NormalizeConfidence maps any raw confidence value into [0,1]. Missing or
// unparseable values become DefaultConfidence; values above 1 are read as
// percentages. The function is total and idempotent.
func NormalizeConfidence(v any) float64 {
	f, ok := toFloat(v)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return DefaultConfidence
	}
	if f > 1 {
		f /= 100
	}
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case nil:
		return 0, false
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case string:
		s := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(x), "%"))
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// firstConfidence picks the first usable value from the record's two
// possible confidence fields.
func firstConfidence(primary, alternate any) float64 {
	if _, ok := toFloat(primary); ok {
		return NormalizeConfidence(primary)
	}
	return NormalizeConfidence(alternate)
}

// ParseRelationType maps a raw type string onto the known enum, defaulting
// to RelationUnknown.
func ParseRelationType(s string) RelationType {
	switch RelationType(strings.ToLower(strings.TrimSpace(s))) {
	case RelationFamily, RelationPartner, RelationFriend, RelationColleague, RelationAcquaintance:
		return RelationType(strings.ToLower(strings.TrimSpace(s)))
	default:
		return RelationUnknown
	}
}

// StrengthOf buckets a confidence value into its qualitative tier.
func StrengthOf(confidence float64) Strength {
	switch {
	case confidence >= 0.75:
		return StrengthStrong
	case confidence >= 0.45:
		return StrengthModerate
	default:
		return StrengthWeak
	}
}

// Build normalizes raw records into a styled Graph. It never fails: bad
// confidence values are defaulted, duplicate profile ids keep the first
// occurrence, edges referencing unknown ids or joining a node to itself are
// dropped silently.
func Build(profiles []Profile, relationships []Relationship, opts BuildOptions) Graph {
	g := Graph{index: make(map[string]int, len(profiles))}

	focalSeen := false
	for _, p := range profiles {
		if p.ID == "" {
			continue
		}
		if _, dup := g.index[p.ID]; dup {
			debug.Log("model: duplicate profile id %q dropped", p.ID)
			continue
		}
		n := Node{
			ID:         p.ID,
			Name:       p.Name,
			Level:      -1,
			Confidence: firstConfidence(p.Confidence, p.Score),
		}
		if opts.AnchorID != "" {
			if p.ID == opts.AnchorID {
				n.Level = 0
				focalSeen = true
			}
		} else if p.Focal && !focalSeen {
			n.Level = 0
			focalSeen = true
		}
		g.index[p.ID] = len(g.Nodes)
		g.Nodes = append(g.Nodes, n)
	}

	dropped := 0
	for _, r := range relationships {
		_, srcOK := g.index[r.SourceID]
		_, tgtOK := g.index[r.TargetID]
		if !srcOK || !tgtOK || r.SourceID == r.TargetID {
			dropped++
			continue
		}
		conf := firstConfidence(r.Confidence, r.Weight)
		if opts.MinConfidence > 0 && conf < opts.MinConfidence {
			continue
		}
		g.Edges = append(g.Edges, Edge{
			SourceID:      r.SourceID,
			TargetID:      r.TargetID,
			Type:          ParseRelationType(r.Type),
			Confidence:    conf,
			Strength:      StrengthOf(conf),
			Bidirectional: r.Bidirectional,
		})
	}
	debug.LogIf(dropped > 0, "model: dropped %d dangling/self edges", dropped)

	g.assignLevels()
	if opts.MaxDepth > 0 {
		g.pruneBeyondDepth(opts.MaxDepth)
	}
	g.deriveStyles()
	return g
}

// assignLevels runs a BFS from the anchor over the (undirected) edge set.
// Nodes with no path to the anchor keep level -1.
func (g *Graph) assignLevels() {
	anchor := g.Anchor()
	if anchor == nil {
		return
	}

	adjacency := make(map[string][]string, len(g.Nodes))
	for _, e := range g.Edges {
		adjacency[e.SourceID] = append(adjacency[e.SourceID], e.TargetID)
		adjacency[e.TargetID] = append(adjacency[e.TargetID], e.SourceID)
	}

	queue := []string{anchor.ID}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		level := g.Nodes[g.index[id]].Level
		for _, next := range adjacency[id] {
			n := &g.Nodes[g.index[next]]
			if n.Level >= 0 {
				continue
			}
			n.Level = level + 1
			queue = append(queue, next)
		}
	}
}

// pruneBeyondDepth removes nodes beyond maxDepth hops (and unreachable
// nodes) along with their edges, then reindexes.
func (g *Graph) pruneBeyondDepth(maxDepth int) {
	kept := g.Nodes[:0]
	index := make(map[string]int, len(g.Nodes))
	for _, n := range g.Nodes {
		if n.Level < 0 || n.Level > maxDepth {
			continue
		}
		index[n.ID] = len(kept)
		kept = append(kept, n)
	}
	g.Nodes = kept
	g.index = index

	edges := g.Edges[:0]
	for _, e := range g.Edges {
		if _, ok := index[e.SourceID]; !ok {
			continue
		}
		if _, ok := index[e.TargetID]; !ok {
			continue
		}
		edges = append(edges, e)
	}
	g.Edges = edges
}

// --- style derivation ------------------------------------------------------

var (
	fillHigh    = [2]color.RGBA{{0x6e, 0xe7, 0xb7, 0xff}, {0x05, 0x96, 0x69, 0xff}}
	fillMedium  = [2]color.RGBA{{0xfd, 0xe0, 0x47, 0xff}, {0xd9, 0x77, 0x06, 0xff}}
	fillLow     = [2]color.RGBA{{0xfd, 0xba, 0x74, 0xff}, {0xea, 0x58, 0x0c, 0xff}}
	fillVeryLow = [2]color.RGBA{{0xcb, 0xd5, 0xe1, 0xff}, {0x47, 0x55, 0x69, 0xff}}

	colorBorder = color.RGBA{0x1e, 0x29, 0x3b, 0xff}

	relationColors = map[RelationType]color.RGBA{
		RelationFamily:       {0xa8, 0x55, 0xf7, 0xff},
		RelationPartner:      {0xec, 0x48, 0x99, 0xff},
		RelationFriend:       {0x22, 0xd3, 0xee, 0xff},
		RelationColleague:    {0x6b, 0x80, 0xbf, 0xff},
		RelationAcquaintance: {0xea, 0xb3, 0x08, 0xff},
	}
	relationFallback = color.RGBA{0x94, 0xa3, 0xb8, 0xff}
)

// Radii per size tier, in graph units.
const (
	radiusSmall  = 12.0
	radiusMedium = 18.0
	radiusLarge  = 26.0
)

func nodeStyle(n Node) NodeStyle {
	s := NodeStyle{Border: colorBorder}

	switch {
	case n.Level == 0:
		s.Tier = SizeLarge
	case n.Confidence >= 0.8:
		s.Tier = SizeLarge
	case n.Confidence >= 0.4:
		s.Tier = SizeMedium
	default:
		s.Tier = SizeSmall
	}

	switch s.Tier {
	case SizeLarge:
		s.Radius = radiusLarge
	case SizeMedium:
		s.Radius = radiusMedium
	default:
		s.Radius = radiusSmall
	}

	var ramp [2]color.RGBA
	switch {
	case n.Confidence >= 0.8:
		ramp = fillHigh
	case n.Confidence >= 0.6:
		ramp = fillMedium
	case n.Confidence >= 0.4:
		ramp = fillLow
	default:
		ramp = fillVeryLow
	}
	s.FillInner, s.FillOuter = ramp[0], ramp[1]

	if n.Confidence > 0.6 {
		s.ShowRing = true
		s.RingOpacity = 0.25 + 0.5*n.Confidence
	}
	return s
}

func edgeStyle(e Edge) EdgeStyle {
	c, ok := relationColors[e.Type]
	if !ok {
		c = relationFallback
	}
	w := 1 + 2.5*e.Confidence
	if w < 1 {
		w = 1
	}
	return EdgeStyle{
		Width:   w,
		Opacity: math.Max(0.3, e.Confidence),
		Dashed:  e.Confidence <= 0.7,
		Color:   c,
		Arrow:   !e.Bidirectional,
	}
}

func (g *Graph) deriveStyles() {
	for i := range g.Nodes {
		g.Nodes[i].Style = nodeStyle(g.Nodes[i])
	}
	for i := range g.Edges {
		g.Edges[i].Style = edgeStyle(g.Edges[i])
	}
}
