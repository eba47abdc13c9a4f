// Command wv explores a relationship graph. With a terminal it opens the
// interactive TUI; with -out (or a redirected stdout) it renders a static
// snapshot instead.
package main

import (
	"flag"
	"fmt"
	"os"

	"golang.org/x/term"

	"github.com/avandenberg/weave/internal/datasource"
	"github.com/avandenberg/weave/pkg/config"
	"github.com/avandenberg/weave/pkg/export"
	"github.com/avandenberg/weave/pkg/layout"
	"github.com/avandenberg/weave/pkg/model"
	"github.com/avandenberg/weave/pkg/ui"
	"github.com/avandenberg/weave/pkg/version"
)

func main() {
	dataPath := flag.String("data", "", "Path to graph data (JSON document or SQLite database)")
	layoutName := flag.String("layout", "", "Layout algorithm: force, hierarchical, circular, radial, cluster, grid")
	out := flag.String("out", "", "Write a snapshot to this path instead of opening the TUI")
	format := flag.String("format", "", "Snapshot format: png, svg or both (default: inferred from -out)")
	title := flag.String("title", "", "Snapshot title")
	watch := flag.Bool("watch", false, "Reload the TUI when the data file changes")
	minConfidence := flag.Float64("min-confidence", 0, "Drop edges below this confidence (0-1)")
	maxDepth := flag.Int("max-depth", 0, "Prune nodes beyond this hop count from the anchor (0 = no limit)")
	width := flag.Int("width", 0, "Snapshot width in pixels")
	height := flag.Int("height", 0, "Snapshot height in pixels")
	seed := flag.Int64("seed", 0, "Force layout seed for reproducible snapshots")
	configPath := flag.String("config", "", "Config file path (default: XDG config dir)")
	versionFlag := flag.Bool("version", false, "Show version")
	flag.Parse()

	if *versionFlag {
		fmt.Printf("wv %s\n", version.Version)
		return
	}

	if *dataPath == "" {
		fmt.Fprintln(os.Stderr, "wv: -data is required")
		flag.PrintDefaults()
		os.Exit(2)
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "wv: %v\n", err)
		os.Exit(1)
	}
	if *minConfidence > 0 {
		cfg.Filter.MinConfidence = *minConfidence
	}
	if *maxDepth > 0 {
		cfg.Filter.MaxDepth = *maxDepth
	}
	kind := layout.ParseKind(cfg.View.Layout)
	if *layoutName != "" {
		kind = layout.ParseKind(*layoutName)
	}

	interactive := *out == "" && term.IsTerminal(int(os.Stdout.Fd()))
	if interactive {
		err = ui.Run(ui.Options{
			DataPath: *dataPath,
			Config:   cfg,
			Layout:   kind,
			Watch:    *watch || cfg.Watch,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "wv: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if *out == "" {
		fmt.Fprintln(os.Stderr, "wv: stdout is not a terminal; use -out to write a snapshot")
		os.Exit(2)
	}

	if err := snapshot(*dataPath, cfg, snapshotOpts{
		path: *out, format: *format, title: *title,
		kind: kind, width: *width, height: *height, seed: *seed,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "wv: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig(path string) (config.Config, error) {
	if path != "" {
		return config.LoadFrom(path)
	}
	return config.Load()
}

type snapshotOpts struct {
	path, format, title string
	kind                layout.Kind
	width, height       int
	seed                int64
}

func snapshot(dataPath string, cfg config.Config, opts snapshotOpts) error {
	source, err := datasource.Detect(dataPath)
	if err != nil {
		return err
	}
	profiles, relationships, err := datasource.Load(source)
	if err != nil {
		return err
	}
	g := model.Build(profiles, relationships, model.BuildOptions{
		MinConfidence: cfg.Filter.MinConfidence,
		MaxDepth:      cfg.Filter.MaxDepth,
	})
	return export.SaveSnapshot(&g, export.SnapshotOptions{
		Path:   opts.path,
		Format: opts.format,
		Title:  opts.title,
		Layout: opts.kind,
		Width:  opts.width,
		Height: opts.height,
		Seed:   opts.seed,
	})
}
