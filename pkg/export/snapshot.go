// Package export writes static graph snapshots to disk, rendering through
// the same engine and surfaces the interactive hosts use.
package export

import (
	"fmt"
	"image/color"
	"math/rand"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/avandenberg/weave/pkg/layout"
	"github.com/avandenberg/weave/pkg/model"
	"github.com/avandenberg/weave/pkg/render"
	"github.com/avandenberg/weave/pkg/spatial"
)

// SnapshotOptions controls snapshot export behaviour.
type SnapshotOptions struct {
	Path   string      // Output path; format inferred from extension when Format empty
	Format string      // "svg", "png" or "both" (case-insensitive). If empty, inferred from Path.
	Title  string      // Optional title rendered above the graph
	Layout layout.Kind // Layout algorithm; zero value falls back to circular
	Width  int         // Canvas width in pixels; 0 means 1280
	Height int         // Canvas height in pixels; 0 means 800
	Seed   int64       // Force layout seed; 0 means time-seeded
}

var (
	colorTitle  = color.RGBA{0xe8, 0xe8, 0xf0, 0xff}
	colorSubtle = color.RGBA{0x94, 0xa3, 0xb8, 0xff}
)

// SaveSnapshot lays the graph out, renders it and writes the result. With
// format "both" the PNG and SVG renders run concurrently; they share the
// computed positions but each gets its own engine and surface.
func SaveSnapshot(g *model.Graph, opts SnapshotOptions) error {
	if g == nil || len(g.Nodes) == 0 {
		return fmt.Errorf("no nodes to export")
	}
	if opts.Path == "" {
		return fmt.Errorf("output path is required")
	}

	format := strings.ToLower(strings.TrimPrefix(opts.Format, "."))
	if format == "" {
		switch strings.ToLower(filepath.Ext(opts.Path)) {
		case ".png":
			format = "png"
		case ".svg":
			format = "svg"
		default:
			format = "svg" // safe default
			if filepath.Ext(opts.Path) == "" {
				opts.Path += ".svg"
			}
		}
	}
	if format != "svg" && format != "png" && format != "both" {
		return fmt.Errorf("unsupported format %q (want svg, png or both)", format)
	}

	if dir := filepath.Dir(opts.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create parent dir: %w", err)
		}
	}

	w, h := opts.Width, opts.Height
	if w <= 0 {
		w = 1280
	}
	if h <= 0 {
		h = 800
	}

	lopts := layout.Options{Width: float64(w), Height: float64(h)}
	if opts.Seed != 0 {
		lopts.Rand = rand.New(rand.NewSource(opts.Seed))
	}
	layout.Compute(g, opts.Layout, lopts)
	idx := spatial.Build(g)

	switch format {
	case "png":
		return writePNG(g, idx, opts, w, h, opts.Path)
	case "svg":
		return writeSVG(g, idx, opts, w, h, opts.Path)
	}

	base := strings.TrimSuffix(opts.Path, filepath.Ext(opts.Path))
	var eg errgroup.Group
	eg.Go(func() error { return writePNG(g, idx, opts, w, h, base+".png") })
	eg.Go(func() error { return writeSVG(g, idx, opts, w, h, base+".svg") })
	return eg.Wait()
}

func writePNG(g *model.Graph, idx *spatial.Index, opts SnapshotOptions, w, h int, path string) error {
	surface := render.NewRaster(w, h)
	eng := render.New(surface)
	if err := eng.Render(g, idx, model.Identity(), render.SelectionState{}); err != nil {
		return fmt.Errorf("render png: %w", err)
	}
	drawHeader(surface, g, opts, w)
	return surface.SavePNG(path)
}

func writeSVG(g *model.Graph, idx *spatial.Index, opts SnapshotOptions, w, h int, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	surface := render.NewVector(file, w, h)
	eng := render.New(surface)
	if err := eng.Render(g, idx, model.Identity(), render.SelectionState{}); err != nil {
		return fmt.Errorf("render svg: %w", err)
	}
	drawHeader(surface, g, opts, w)
	surface.End()
	return nil
}

// drawHeader writes the title and counts into the top-left corner, after
// the engine has finished so nothing paints over it.
func drawHeader(s render.Surface, g *model.Graph, opts SnapshotOptions, w int) {
	title := strings.TrimSpace(opts.Title)
	if title == "" {
		title = "Relationship Graph"
	}
	anchor := "none"
	if a := g.Anchor(); a != nil {
		anchor = a.Name
	}
	s.DrawText(float64(w)/2, 20, title, colorTitle)
	s.DrawText(float64(w)/2, 38,
		fmt.Sprintf("nodes: %d  edges: %d  anchor: %s", len(g.Nodes), len(g.Edges), anchor),
		colorSubtle)
}
