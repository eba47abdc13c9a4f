// Package testutil provides fixture builders, assertions and golden file
// helpers shared by the test suites.
package testutil

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/avandenberg/weave/pkg/model"
)

// Fixture builders

// ProfileID generates a standard test profile ID with the given index.
func ProfileID(index int) string {
	return fmt.Sprintf("p-%d", index)
}

// Profiles generates n profiles named p-0..p-(n-1); the first one is focal.
func Profiles(n int) []model.Profile {
	out := make([]model.Profile, n)
	for i := range out {
		out[i] = model.Profile{
			ID:    ProfileID(i),
			Name:  fmt.Sprintf("Person %d", i),
			Focal: i == 0,
		}
	}
	return out
}

// Rel builds a relationship record with a float confidence.
func Rel(src, tgt, typ string, confidence float64) model.Relationship {
	return model.Relationship{
		SourceID:   src,
		TargetID:   tgt,
		Type:       typ,
		Confidence: confidence,
	}
}

// StarRelationships connects every non-focal profile to p-0.
func StarRelationships(n int, typ string, confidence float64) []model.Relationship {
	out := make([]model.Relationship, 0, n-1)
	for i := 1; i < n; i++ {
		out = append(out, Rel(ProfileID(0), ProfileID(i), typ, confidence))
	}
	return out
}

// Graph assertions

// AssertNodeCount verifies the expected number of nodes.
func AssertNodeCount(t *testing.T, g model.Graph, expected int) {
	t.Helper()
	if len(g.Nodes) != expected {
		t.Errorf("expected %d nodes, got %d", expected, len(g.Nodes))
	}
}

// AssertEdgeCount verifies the expected number of edges.
func AssertEdgeCount(t *testing.T, g model.Graph, expected int) {
	t.Helper()
	if len(g.Edges) != expected {
		t.Errorf("expected %d edges, got %d", expected, len(g.Edges))
	}
}

// AssertLevel verifies a node's hop distance from the anchor.
func AssertLevel(t *testing.T, g model.Graph, id string, level int) {
	t.Helper()
	n := g.NodeByID(id)
	if n == nil {
		t.Fatalf("node %s not found", id)
	}
	if n.Level != level {
		t.Errorf("node %s: expected level %d, got %d", id, level, n.Level)
	}
}

// AssertFinitePositions verifies no layout produced NaN or Inf coordinates.
func AssertFinitePositions(t *testing.T, g model.Graph) {
	t.Helper()
	for _, n := range g.Nodes {
		if math.IsNaN(n.X) || math.IsNaN(n.Y) || math.IsInf(n.X, 0) || math.IsInf(n.Y, 0) {
			t.Errorf("node %s has non-finite position (%v, %v)", n.ID, n.X, n.Y)
		}
	}
}

// AssertInViewport verifies every node sits inside the given bounds, with
// slack for node radii.
func AssertInViewport(t *testing.T, g model.Graph, w, h, slack float64) {
	t.Helper()
	for _, n := range g.Nodes {
		if n.X < -slack || n.X > w+slack || n.Y < -slack || n.Y > h+slack {
			t.Errorf("node %s at (%.1f, %.1f) outside viewport %gx%g", n.ID, n.X, n.Y, w, h)
		}
	}
}

// Golden file helpers

// GoldenFile handles golden file comparisons.
// If GENERATE_GOLDEN env var is set, golden files are updated instead.
type GoldenFile struct {
	t      *testing.T
	dir    string
	name   string
	update bool
}

// NewGoldenFile creates a golden file helper.
func NewGoldenFile(t *testing.T, dir, name string) *GoldenFile {
	t.Helper()
	return &GoldenFile{
		t:      t,
		dir:    dir,
		name:   name,
		update: os.Getenv("GENERATE_GOLDEN") != "",
	}
}

// Path returns the full path to the golden file.
func (g *GoldenFile) Path() string {
	return filepath.Join(g.dir, g.name)
}

// Assert compares actual content against the golden file.
func (g *GoldenFile) Assert(actual string) {
	g.t.Helper()

	path := g.Path()
	if g.update {
		if err := os.MkdirAll(g.dir, 0o755); err != nil {
			g.t.Fatalf("failed to create golden dir: %v", err)
		}
		if err := os.WriteFile(path, []byte(actual), 0o644); err != nil {
			g.t.Fatalf("failed to write golden file: %v", err)
		}
		g.t.Logf("updated golden file: %s", path)
		return
	}

	expected, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			g.t.Fatalf("golden file does not exist: %s\nRun with GENERATE_GOLDEN=1 to create it", path)
		}
		g.t.Fatalf("failed to read golden file: %v", err)
	}

	if string(expected) == actual {
		return
	}

	// report the first differing line
	expectedLines := strings.Split(string(expected), "\n")
	actualLines := strings.Split(actual, "\n")
	for i := 0; i < len(expectedLines) || i < len(actualLines); i++ {
		var expLine, actLine string
		if i < len(expectedLines) {
			expLine = expectedLines[i]
		}
		if i < len(actualLines) {
			actLine = actualLines[i]
		}
		if expLine != actLine {
			g.t.Errorf("golden file mismatch at line %d:\nexpected: %s\nactual:   %s",
				i+1, expLine, actLine)
			return
		}
	}
	g.t.Errorf("golden file mismatch (length differs)")
}
