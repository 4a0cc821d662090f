package cli

import (
	"context"
	"fmt"
	"image"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/forcegraph/pkg/config"
	"github.com/matzehuels/forcegraph/pkg/crawl"
	"github.com/matzehuels/forcegraph/pkg/errors"
	"github.com/matzehuels/forcegraph/pkg/frame"
	"github.com/matzehuels/forcegraph/pkg/graph"
	"github.com/matzehuels/forcegraph/pkg/interact"
	"github.com/matzehuels/forcegraph/pkg/physics"
)

// viewOptions holds flags for the view command.
type viewOptions struct {
	graphFile string
	logFile   string
	noCache   bool
	noExpand  bool
	seed      uint64
}

// viewCommand creates the view command for the interactive visualiser.
func (c *CLI) viewCommand() *cobra.Command {
	var opts viewOptions

	cmd := &cobra.Command{
		Use:   "view [page]",
		Short: "Grow a graph from a Wikipedia page and animate it in the terminal",
		Long: `Open the interactive visualiser.

With a page name the graph is grown from that Wikipedia article: the page
is fetched and its first links appear around it. With --graph a graph file
is loaded instead and no crawler runs.

Mouse:
  left drag     move a node (or pan on empty space)
  wheel         zoom around the cursor
  right click   fetch a page, or reveal one more of its links
  middle click  pin or unpin a node

Keys:
  h      hide or show names
  space  pause or resume the simulation
  c      recentre on the origin
  q      quit`,
		Example: `  forcegraph view Graph_theory
  forcegraph view --graph examples/lattice.json
  forcegraph view Go_\(programming_language\) --log-file crawl.log -v`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 && opts.graphFile == "" {
				return fmt.Errorf("need a page name or --graph")
			}
			page := ""
			if len(args) == 1 {
				page = args[0]
			}
			return c.runView(cmd.Context(), page, opts)
		},
	}

	cmd.Flags().StringVar(&opts.graphFile, "graph", "", "load a graph file instead of crawling")
	cmd.Flags().StringVar(&opts.logFile, "log-file", "", "write logs here while the viewer owns the terminal")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the link cache")
	cmd.Flags().BoolVar(&opts.noExpand, "no-expand", false, "do not fetch the start page automatically")
	cmd.Flags().Uint64Var(&opts.seed, "seed", 0, "random seed (0 for random)")

	return cmd
}

func (c *CLI) runView(ctx context.Context, page string, opts viewOptions) error {
	out, err := openLogFile(opts.logFile)
	if err != nil {
		return err
	}
	defer out.Close()
	c.Logger.SetOutput(out)

	engine, rng, err := c.newEngine(opts.seed)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var crawler *crawl.Crawler
	crawlDone := make(chan error, 1)
	if opts.graphFile != "" {
		g, err := graph.ReadGraphFile(opts.graphFile)
		if err != nil {
			return err
		}
		if _, err := graph.Load(engine, g, graph.LoadOptions{Rand: rng}); err != nil {
			return err
		}
		close(crawlDone)
	} else {
		store := c.newCache(ctx, opts.noCache)
		defer store.Close()

		crawler = c.newCrawler(engine, c.newFetcher(store), rng, c.Logger)
		root, err := crawler.Seed(page)
		if err != nil {
			return err
		}
		go func() { crawlDone <- crawler.Run(ctx) }()
		if !opts.noExpand {
			if err := crawler.Expand(root); err != nil {
				return err
			}
		}
	}

	m := newViewModel(engine, crawler, c.settings().View, c.Logger)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(ctx))
	_, runErr := p.Run()

	cancel()
	if err := <-crawlDone; err != nil {
		c.Logger.Error("crawler stopped", "err", err)
	}
	if runErr != nil && ctx.Err() == nil {
		return runErr
	}
	return nil
}

// =============================================================================
// viewModel - bubbletea model driving the engine
// =============================================================================

type tickMsg time.Time

// viewModel is the frame driver: every tick it advances the engine by the
// clock's dt and redraws. Input goes through interact.Mouse so the engine
// is only touched under its lock.
type viewModel struct {
	engine  *physics.Engine
	crawler *crawl.Crawler // nil when viewing a graph file
	logger  *log.Logger

	clock  *frame.Clock
	view   *interact.Viewport
	mouse  *interact.Mouse
	canvas *canvas

	cols, rows int
	sized      bool
	paused     bool
	hideNames  bool
	status     string
	energy     float64
}

func newViewModel(e *physics.Engine, cr *crawl.Crawler, cfg config.View, logger *log.Logger) *viewModel {
	view := &interact.Viewport{Scale: cfg.Scale}
	mouse := interact.NewMouse(view, interact.NewPicker(e, view))
	mouse.ZoomFactor = cfg.ZoomFactor
	return &viewModel{
		engine:    e,
		crawler:   cr,
		logger:    logger,
		clock:     frame.New(cfg.Framerate, cfg.History, cfg.MinFramerate),
		view:      view,
		mouse:     mouse,
		canvas:    newCanvas(0, 0),
		hideNames: cfg.HideNames,
	}
}

func (m *viewModel) tick() tea.Cmd {
	return tea.Tick(m.clock.Interval(), func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m *viewModel) Init() tea.Cmd {
	return m.tick()
}

func (m *viewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m, m.handleKey(msg)
	case tea.MouseMsg:
		m.handleMouse(msg)
		return m, nil
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height-1)
		return m, nil
	case tickMsg:
		dt := m.clock.Tick(time.Time(msg))
		if !m.paused {
			m.energy = m.engine.Tick(dt).KineticEnergy
		}
		return m, m.tick()
	}
	return m, nil
}

func (m *viewModel) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "q", "ctrl+c", "esc":
		return tea.Quit
	case "h":
		m.hideNames = !m.hideNames
	case " ":
		m.paused = !m.paused
	case "c":
		m.centre()
	case "+", "=":
		m.view.Zoom(1/m.mouse.ZoomFactor, m.screenCentre())
	case "-":
		m.view.Zoom(m.mouse.ZoomFactor, m.screenCentre())
	}
	return nil
}

func (m *viewModel) handleMouse(msg tea.MouseMsg) {
	pt := cellToPixel(msg.X, msg.Y)
	var err error

	switch msg.Action {
	case tea.MouseActionPress:
		switch msg.Button {
		case tea.MouseButtonLeft:
			_, _, err = m.mouse.Press(pt)
		case tea.MouseButtonWheelUp:
			m.mouse.Wheel(true, pt)
		case tea.MouseButtonWheelDown:
			m.mouse.Wheel(false, pt)
		}
	case tea.MouseActionMotion:
		err = m.mouse.Move(pt)
	case tea.MouseActionRelease:
		switch msg.Button {
		case tea.MouseButtonRight:
			err = m.expand(pt)
		case tea.MouseButtonMiddle:
			err = m.togglePin(pt)
		default:
			err = m.mouse.Release()
		}
	}

	if err != nil {
		m.status = errors.UserMessage(err)
		m.logger.Warn("input", "err", err)
	}
}

// expand fetches or reveals the node under pt.
func (m *viewModel) expand(pt image.Point) error {
	h, ok := m.mouse.Hover(pt)
	if !ok || m.crawler == nil {
		return nil
	}
	m.status = ""
	return m.crawler.Expand(h)
}

// togglePin pins or unpins the node under pt. The node being dragged is
// refused, since ending the drag restores its old static flag.
func (m *viewModel) togglePin(pt image.Point) error {
	h, ok := m.mouse.Hover(pt)
	if !ok {
		return nil
	}
	if d, dragging := m.mouse.Picker.Dragging(); dragging && d == h {
		return errors.New(errors.ErrCodeInvalidInput, "release node %d before pinning it", h)
	}
	if m.crawler != nil {
		_, err := m.crawler.TogglePin(h)
		return err
	}
	return m.engine.Update(func(tx *physics.Tx) error {
		n, err := tx.Node(h)
		if err != nil {
			return err
		}
		n.Static = !n.Static
		return nil
	})
}

func (m *viewModel) resize(cols, rows int) {
	cols, rows = max(cols, 1), max(rows, 1)
	if m.sized {
		// Keep the world point at the centre of the screen.
		centre := m.view.Unproject(m.screenCentre())
		m.cols, m.rows = cols, rows
		m.view.PanTo(centre, m.screenCentre())
	} else {
		m.cols, m.rows = cols, rows
		m.centre()
		m.sized = true
	}
	m.canvas = newCanvas(cols, rows)
}

func (m *viewModel) size() image.Point {
	return image.Pt(m.cols*cellW, m.rows*cellH)
}

func (m *viewModel) screenCentre() image.Point {
	return m.size().Div(2)
}

// centre puts the world origin in the middle of the screen.
func (m *viewModel) centre() {
	*m.view = *interact.Centered(m.size(), m.view.Scale)
}

func (m *viewModel) View() string {
	if !m.sized {
		return ""
	}
	m.canvas.draw(captureScene(m.engine, m.view, m.size(), !m.hideNames))
	return m.canvas.String() + "\n" + m.statusLine()
}

func (m *viewModel) statusLine() string {
	parts := []string{
		fmt.Sprintf("%d nodes", m.engine.Len()),
		fmt.Sprintf("%.0f fps", m.clock.Framerate()),
	}
	if m.energy > 0 {
		parts = append(parts, fmt.Sprintf("energy %.3g", m.energy))
	}
	if m.crawler != nil {
		s := m.crawler.Stats()
		parts = append(parts, fmt.Sprintf("%d fetched", s.Fetched))
		if s.Fetching > 0 {
			parts = append(parts, StyleWarning.Render(fmt.Sprintf("%d fetching", s.Fetching)))
		}
	}
	if m.paused {
		parts = append(parts, StyleWarning.Render("paused"))
	}
	if m.status != "" {
		parts = append(parts, styleIconError.Render(m.status))
	}
	parts = append(parts, StyleDim.Render("h names · space pause · c centre · q quit"))
	return " " + strings.Join(parts, StyleDim.Render(" · "))
}
