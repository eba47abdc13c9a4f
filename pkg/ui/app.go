// Package ui hosts the interactive terminal graph view. It renders through
// the cell surface and routes mouse and keyboard input through the
// interaction controller, the same path the snapshot exporters skip.
package ui

import (
	"fmt"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/avandenberg/weave/internal/datasource"
	"github.com/avandenberg/weave/pkg/config"
	"github.com/avandenberg/weave/pkg/interact"
	"github.com/avandenberg/weave/pkg/layout"
	"github.com/avandenberg/weave/pkg/model"
	"github.com/avandenberg/weave/pkg/render"
	"github.com/avandenberg/weave/pkg/spatial"
	"github.com/avandenberg/weave/pkg/watcher"
)

const statusBarHeight = 1

// cellAspect mirrors the cell surface's vertical compression so mouse
// coordinates land where the glyphs were drawn.
const cellAspect = 2.0

var (
	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")).
			Background(lipgloss.Color("236")).
			Padding(0, 1)
	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("203")).
			Background(lipgloss.Color("236")).
			Padding(0, 1)
)

// FileChangedMsg signals that the watched data file changed on disk.
type FileChangedMsg struct{}

// layoutCycle is the order the tab key steps through.
var layoutCycle = []layout.Kind{
	layout.KindForce,
	layout.KindHierarchical,
	layout.KindCircular,
	layout.KindRadial,
	layout.KindCluster,
	layout.KindGrid,
}

// inlineScheduler satisfies the controller's Scheduler port. Bubbletea's
// event loop already coalesces redraws per Update, so scheduled frames run
// immediately and View picks up the result.
type inlineScheduler struct{}

func (inlineScheduler) Schedule(fn func()) { fn() }

// Options configures the TUI host.
type Options struct {
	DataPath string
	Config   config.Config
	Layout   layout.Kind
	Watch    bool
}

// viewState is the mutable interaction state. Bubbletea models are copied
// by value on every Update, so anything controller callbacks write must
// live behind a stable pointer.
type viewState struct {
	selected string
	status   string
}

// Model is the bubbletea model for the graph view.
type Model struct {
	opts Options
	keys KeyMap

	graph   *model.Graph
	idx     *spatial.Index
	surface *render.Cells
	engine  *render.Engine
	ctrl    *interact.Controller
	watcher *watcher.Watcher
	state   *viewState

	layoutKind layout.Kind
	anchorID   string
	width      int
	height     int
	fullscreen bool
	dragging   bool
	err        error
}

// NewModel builds the initial model. The graph loads on the first
// WindowSizeMsg, once the drawable area is known.
func NewModel(opts Options) Model {
	m := Model{
		opts:       opts,
		keys:       DefaultKeyMap(),
		layoutKind: opts.Layout,
		state:      &viewState{},
	}
	if m.layoutKind == "" {
		m.layoutKind = layout.ParseKind(opts.Config.View.Layout)
	}
	return m
}

// Run starts the TUI program and blocks until it exits.
func Run(opts Options) error {
	m := NewModel(opts)
	if opts.Watch {
		w, err := watcher.New(opts.DataPath,
			watcher.WithDebounce(200*time.Millisecond),
		)
		if err == nil && w.Start() == nil {
			m.watcher = w
			defer w.Stop()
		}
	}
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())
	_, err := p.Run()
	return err
}

// watchCmd waits for the next debounced file change.
func watchCmd(w *watcher.Watcher) tea.Cmd {
	return func() tea.Msg {
		<-w.Changed()
		return FileChangedMsg{}
	}
}

func (m Model) Init() tea.Cmd {
	if m.watcher != nil {
		return watchCmd(m.watcher)
	}
	return nil
}

// reload loads the data file, rebuilds the graph and recomputes layout for
// the current drawable size.
func (m *Model) reload() {
	source, err := datasource.Detect(m.opts.DataPath)
	if err != nil {
		m.err = err
		return
	}
	profiles, relationships, err := datasource.Load(source)
	if err != nil {
		m.err = err
		return
	}
	m.err = nil

	g := model.Build(profiles, relationships, model.BuildOptions{
		MinConfidence: m.opts.Config.Filter.MinConfidence,
		MaxDepth:      m.opts.Config.Filter.MaxDepth,
		AnchorID:      m.anchorID,
	})
	m.graph = &g
	m.relayout()
	m.state.status = fmt.Sprintf("loaded %d nodes, %d edges from %s",
		len(g.Nodes), len(g.Edges), m.opts.DataPath)
}

// relayout recomputes positions and rebuilds the index and render pipeline
// for the current size.
func (m *Model) relayout() {
	if m.graph == nil || m.width == 0 {
		return
	}
	w := float64(m.width)
	h := float64(m.height-statusBarHeight) * cellAspect
	layout.Compute(m.graph, m.layoutKind, layout.Options{Width: w, Height: h})
	m.idx = spatial.Build(m.graph)

	m.surface = render.NewCells(m.width, m.height-statusBarHeight)
	m.engine = render.New(m.surface)

	state := m.state
	graph := m.graph
	events := interact.Events{
		NodeTapped: func(id string) {
			state.selected = id
			if n := graph.NodeByID(id); n != nil {
				state.status = fmt.Sprintf("%s (%s) confidence %.2f level %d",
					n.Name, n.ID, n.Confidence, n.Level)
			}
		},
		EdgeTapped: func(id string) {
			state.status = "edge " + id
		},
	}
	prev := m.ctrl
	m.ctrl = interact.New(interact.Config{
		Engine:    m.engine,
		Scheduler: inlineScheduler{},
		Render:    func() {},
		Events:    events,
		MinZoom:   m.opts.Config.View.MinZoom,
		MaxZoom:   m.opts.Config.View.MaxZoom,
	})
	m.ctrl.SetGraph(m.graph, m.idx)
	if prev != nil {
		// keep the user's pan/zoom across reloads
		m.ctrl.Restore(prev.Transform())
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		firstSize := m.width == 0
		m.width, m.height = msg.Width, msg.Height
		if firstSize {
			m.reload()
		} else {
			m.relayout()
		}
		return m, nil

	case FileChangedMsg:
		m.reload()
		m.state.status = "reloaded " + m.opts.DataPath
		if m.watcher != nil {
			return m, watchCmd(m.watcher)
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		m.handleMouse(msg)
		return m, nil
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	const panStep = 5.0
	if key.Matches(msg, m.keys.Quit) {
		return m, tea.Quit
	}
	// no pipeline yet (load failed or no size); only quit is meaningful
	if m.ctrl == nil {
		return m, nil
	}
	switch {
	case key.Matches(msg, m.keys.Up):
		m.ctrl.PanBy(0, panStep*cellAspect)
	case key.Matches(msg, m.keys.Down):
		m.ctrl.PanBy(0, -panStep*cellAspect)
	case key.Matches(msg, m.keys.Left):
		m.ctrl.PanBy(panStep, 0)
	case key.Matches(msg, m.keys.Right):
		m.ctrl.PanBy(-panStep, 0)
	case key.Matches(msg, m.keys.ZoomIn):
		m.zoomCenter(1.25)
	case key.Matches(msg, m.keys.ZoomOut):
		m.zoomCenter(0.8)
	case key.Matches(msg, m.keys.Reset):
		m.ctrl.ResetView()
		m.state.status = "view reset"
	case key.Matches(msg, m.keys.Layout):
		m.cycleLayout()
	case key.Matches(msg, m.keys.Anchor):
		if m.state.selected != "" {
			m.anchorID = m.state.selected
			m.reload()
			m.state.status = "anchored on " + m.anchorID
		}
	case key.Matches(msg, m.keys.CopyID):
		if m.state.selected != "" {
			if err := clipboard.WriteAll(m.state.selected); err != nil {
				m.state.status = "clipboard unavailable"
			} else {
				m.state.status = "copied " + m.state.selected
			}
		}
	case key.Matches(msg, m.keys.Fullscreen):
		m.fullscreen = !m.fullscreen
	}
	return m, nil
}

func (m *Model) zoomCenter(factor float64) {
	if m.ctrl == nil {
		return
	}
	cx := float64(m.width) / 2
	cy := float64(m.height-statusBarHeight) * cellAspect / 2
	m.ctrl.ZoomAt(factor, cx, cy)
}

func (m *Model) cycleLayout() {
	for i, k := range layoutCycle {
		if k == m.layoutKind {
			m.layoutKind = layoutCycle[(i+1)%len(layoutCycle)]
			break
		}
	}
	m.relayout()
	m.state.status = "layout: " + string(m.layoutKind)
}

func (m *Model) handleMouse(msg tea.MouseMsg) {
	if m.ctrl == nil {
		return
	}
	x := float64(msg.X)
	y := float64(msg.Y) * cellAspect

	switch msg.Button {
	case tea.MouseButtonWheelUp:
		m.ctrl.ZoomAt(1.1, x, y)
		return
	case tea.MouseButtonWheelDown:
		m.ctrl.ZoomAt(0.9, x, y)
		return
	}

	touch := []interact.Touch{{X: x, Y: y}}
	switch msg.Action {
	case tea.MouseActionPress:
		m.dragging = true
		m.ctrl.Handle(interact.PointerEvent{Kind: interact.PointerDown, Touches: touch})
	case tea.MouseActionMotion:
		if m.dragging {
			m.ctrl.Handle(interact.PointerEvent{Kind: interact.PointerMove, Touches: touch})
		}
	case tea.MouseActionRelease:
		m.dragging = false
		m.ctrl.Handle(interact.PointerEvent{Kind: interact.PointerUp, Touches: touch})
	}
}

func (m Model) View() string {
	if m.width == 0 {
		return "loading..."
	}
	if m.err != nil {
		return errorStyle.Render("error: "+m.err.Error()) + "\n"
	}
	if m.graph == nil || m.engine == nil {
		return "no data"
	}

	sel := render.SelectionState{SelectedNodeID: m.state.selected}
	if err := m.engine.Render(m.graph, m.idx, m.ctrl.Transform(), sel); err != nil {
		return errorStyle.Render("render: " + err.Error())
	}

	canvas := m.surface.String()
	if m.fullscreen {
		return canvas
	}
	return canvas + "\n" + statusStyle.Width(m.width).Render(m.statusLine())
}

func (m Model) statusLine() string {
	vt := m.ctrl.Transform()
	stats := m.engine.Stats()
	line := fmt.Sprintf("%s | zoom %.2f | tier %s | %.0f fps",
		m.layoutKind, vt.Scale, m.engine.Tier(), stats.RollingFPS)
	if m.state.status != "" {
		line += " | " + m.state.status
	} else {
		line += " | " + helpHint
	}
	return line
}

// helpHint summarizes the keymap when nothing more useful is going on.
const helpHint = "hjkl pan  +/- zoom  tab layout  a anchor  y copy  r reset  q quit"
