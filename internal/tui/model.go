package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"saturn-terminal/internal/saturn"
	"saturn-terminal/internal/theme"
)

// Options configures a Model.
type Options struct {
	Width  int
	Height int
	Term   string

	// Theme backs the nav bar toggle. Nil means there is no nav bar and the
	// toggle is never created.
	Theme *theme.Controller
	// ShowSurface enables the saturn renderer. When false the frame loop is
	// never started.
	ShowSurface bool

	FrameInterval time.Duration
	Renderer      *lipgloss.Renderer
	Logger        *zap.Logger
}

// frameMsg is one scheduled tick of a frame loop, tagged with the loop it
// belongs to so ticks from a stopped loop are dropped.
type frameMsg struct{ loop int }

// Model is the bubbletea model hosting the nav bar, the saturn surface and
// the help footer.
type Model struct {
	width  int
	height int
	term   string

	theme    *theme.Controller
	renderer *lipgloss.Renderer
	styles   styles
	log      *zap.Logger

	hasSurface bool
	state      saturn.State
	rows       []string
	interval   time.Duration
	loop       int
	running    bool
	// suspended is set when a resize left no room for the surface while
	// the loop was running.
	suspended bool

	keys keyMap
	help help.Model
}

// NewModel builds the model. The frame loop starts with Init when the
// surface is enabled.
func NewModel(opts Options) Model {
	if opts.Renderer == nil {
		opts.Renderer = lipgloss.DefaultRenderer()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.FrameInterval <= 0 {
		opts.FrameInterval = saturn.DefaultFrameInterval
	}

	m := Model{
		width:      opts.Width,
		height:     opts.Height,
		term:       opts.Term,
		theme:      opts.Theme,
		renderer:   opts.Renderer,
		log:        opts.Logger,
		hasSurface: opts.ShowSurface,
		state:      saturn.NewState(),
		interval:   opts.FrameInterval,
		keys:       newKeyMap(opts.Theme != nil, opts.ShowSurface),
		help:       help.New(),
	}
	m.help.Width = opts.Width
	if m.hasSurface {
		m.running = true
		m.loop = 1
	}
	m.applyTheme()
	return m
}

// Init emits the first frame immediately.
func (m Model) Init() tea.Cmd {
	if !m.running {
		return nil
	}
	loop := m.loop
	return func() tea.Msg { return frameMsg{loop: loop} }
}

// Update advances model state in response to events.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m.fitSurface()
	case frameMsg:
		return m.handleFrame(msg)
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m = m.Stop()
			return m, tea.Quit
		case key.Matches(msg, m.keys.Toggle):
			m.toggleTheme()
		case key.Matches(msg, m.keys.Pause):
			if m.running {
				return m.Stop(), nil
			}
			if m.suspended {
				return m, nil
			}
			return m.Start()
		}
	case tea.MouseMsg:
		return m.handleMouse(msg), nil
	case tea.BlurMsg:
		m.state = m.state.PointerLeave()
	}
	return m, nil
}

// Start begins a new frame loop. Any pending tick of an earlier loop is
// invalidated.
func (m Model) Start() (Model, tea.Cmd) {
	if !m.hasSurface || m.running {
		return m, nil
	}
	m.loop++
	m.running = true
	loop := m.loop
	return m, func() tea.Msg { return frameMsg{loop: loop} }
}

// Stop halts the frame loop. The next pending tick is discarded.
func (m Model) Stop() Model {
	if !m.running {
		return m
	}
	m.running = false
	m.loop++
	return m
}

// fitSurface stops the loop while the window has no rows for the surface
// and resumes it once there is room again.
func (m Model) fitSurface() (Model, tea.Cmd) {
	if !m.hasSurface {
		return m, nil
	}
	w, h := m.surfaceSize()
	room := w > 0 && h > 0
	switch {
	case !room && m.running:
		m = m.Stop()
		m.suspended = true
	case room && m.suspended:
		m.suspended = false
		return m.Start()
	}
	return m, nil
}

// Running reports whether the frame loop is active.
func (m Model) Running() bool { return m.running }

// State returns the renderer state.
func (m Model) State() saturn.State { return m.state }

func (m Model) handleFrame(msg frameMsg) (tea.Model, tea.Cmd) {
	if !m.running || msg.loop != m.loop {
		return m, nil
	}
	m.state = m.state.Advance()
	m.rows = m.state.Frame().Rows()

	loop := m.loop
	return m, tea.Tick(m.interval, func(time.Time) tea.Msg { return frameMsg{loop: loop} })
}

func (m Model) handleMouse(msg tea.MouseMsg) Model {
	if msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft && m.toggleBounds().contains(msg.X, msg.Y) {
		m.toggleTheme()
		return m
	}

	if !m.hasSurface {
		return m
	}
	box := m.pointerBox()
	inside := box.contains(msg.X, msg.Y)
	switch {
	case inside:
		if !m.state.Hovering {
			m.state = m.state.PointerEnter()
		}
		nx, ny := saturn.NormalizePointer(msg.X-box.x, msg.Y-box.y, box.w, box.h)
		m.state = m.state.PointerMove(nx, ny)
	case m.state.Hovering:
		m.state = m.state.PointerLeave()
	}
	return m
}

func (m *Model) toggleTheme() {
	if m.theme == nil {
		return
	}
	mode := m.theme.Toggle()
	m.log.Debug("theme toggled", zap.String("event", "theme_toggled"), zap.String("mode", string(mode)))
	m.applyTheme()
}

func (m *Model) applyTheme() {
	mode := theme.ModeDark
	if m.theme != nil {
		mode = m.theme.Mode()
	}
	bundle, err := theme.ResolveFromEnv(mode, m.term, m.log)
	if err != nil {
		m.log.Warn("theme resolve failed", zap.String("event", "theme_resolve_failed"), zap.Error(err))
		return
	}
	m.styles = newStyles(m.renderer, bundle)
	m.help.Styles.ShortKey = m.styles.helpKey
	m.help.Styles.ShortDesc = m.styles.footer
	m.help.Styles.ShortSeparator = m.styles.helpSep
}
