// Package model turns raw profile and relationship records into the styled,
// canonical graph consumed by the layout and render engines.
//
// Input records come from the data layer (JSON document or SQLite store) and
// are deliberately loose: confidence may be missing, a string, or a
// percentage, and relationships may reference profiles that were filtered
// away upstream. Build normalizes all of that once; nothing past this package
// deals with ambiguous records.
package model

import "image/color"

// RelationType classifies a relationship between two profiles.
type RelationType string

const (
	RelationFamily       RelationType = "family"
	RelationPartner      RelationType = "partner"
	RelationFriend       RelationType = "friend"
	RelationColleague    RelationType = "colleague"
	RelationAcquaintance RelationType = "acquaintance"
	RelationUnknown      RelationType = "unknown"
)

// Strength is the qualitative tier derived from edge confidence.
type Strength int

const (
	StrengthWeak Strength = iota
	StrengthModerate
	StrengthStrong
)

// SizeTier buckets node radii; the renderer never computes sizes itself.
type SizeTier int

const (
	SizeSmall SizeTier = iota
	SizeMedium
	SizeLarge
)

// Profile is a raw entity record from the data layer. Confidence is untyped
// because sources disagree on representation (fraction, percentage, string);
// Score is an alternate field name some sources use for the same value.
type Profile struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Focal      bool   `json:"focal,omitempty"`
	Status     string `json:"status,omitempty"`
	Confidence any    `json:"confidence,omitempty"`
	Score      any    `json:"score,omitempty"`
}

// Relationship is a raw edge record from the data layer.
type Relationship struct {
	SourceID      string `json:"source_id"`
	TargetID      string `json:"target_id"`
	Type          string `json:"type"`
	Confidence    any    `json:"confidence,omitempty"`
	Weight        any    `json:"weight,omitempty"`
	Bidirectional bool   `json:"bidirectional,omitempty"`
}

// NodeStyle is derived from confidence and level, never supplied by callers.
type NodeStyle struct {
	Tier        SizeTier
	Radius      float64
	FillInner   color.RGBA
	FillOuter   color.RGBA
	Border      color.RGBA
	ShowRing    bool
	RingOpacity float64
}

// EdgeStyle is derived from confidence and relation type.
type EdgeStyle struct {
	Width   float64
	Opacity float64
	Dashed  bool
	Color   color.RGBA
	Arrow   bool
}

// Node is a canonical, styled graph node. Level 0 marks the focal node the
// layout anchors on; -1 means the node is unreachable from the anchor.
// Positions are zero until a layout pass assigns them.
type Node struct {
	ID         string
	Name       string
	Level      int
	Confidence float64
	X, Y       float64
	Style      NodeStyle
}

// Edge is a canonical, styled graph edge. Both endpoints are guaranteed to
// exist in the owning Graph and to differ from each other.
type Edge struct {
	SourceID      string
	TargetID      string
	Type          RelationType
	Confidence    float64
	Strength      Strength
	Bidirectional bool
	Style         EdgeStyle
}

// ID returns a stable identifier for the edge, derived from its endpoints.
func (e Edge) ID() string {
	return e.SourceID + "->" + e.TargetID
}

// Graph is the output of Build: styled nodes and edges plus an id index.
type Graph struct {
	Nodes []Node
	Edges []Edge

	index map[string]int
}

// NodeByID returns the node with the given id, or nil.
func (g *Graph) NodeByID(id string) *Node {
	i, ok := g.index[id]
	if !ok {
		return nil
	}
	return &g.Nodes[i]
}

// Anchor returns the level-0 node, or nil when the input had no focal
// profile.
func (g *Graph) Anchor() *Node {
	for i := range g.Nodes {
		if g.Nodes[i].Level == 0 {
			return &g.Nodes[i]
		}
	}
	return nil
}

// Degree returns the number of edges incident to the given node id.
func (g *Graph) Degree(id string) int {
	n := 0
	for i := range g.Edges {
		if g.Edges[i].SourceID == id || g.Edges[i].TargetID == id {
			n++
		}
	}
	return n
}

// ViewTransform maps graph coordinates to screen coordinates:
// screen = graph*Scale + Translate. It is owned by the interaction
// controller; the render engine and hit testing only read it.
type ViewTransform struct {
	Scale      float64
	TranslateX float64
	TranslateY float64
}

// Identity returns the no-op transform.
func Identity() ViewTransform {
	return ViewTransform{Scale: 1}
}

// Apply converts a graph-space point to screen space.
func (t ViewTransform) Apply(x, y float64) (float64, float64) {
	return x*t.Scale + t.TranslateX, y*t.Scale + t.TranslateY
}

// Invert converts a screen-space point back to graph space.
func (t ViewTransform) Invert(x, y float64) (float64, float64) {
	s := t.Scale
	if s == 0 {
		s = 1
	}
	return (x - t.TranslateX) / s, (y - t.TranslateY) / s
}
