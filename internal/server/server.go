package server

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	bm "github.com/charmbracelet/wish/bubbletea"
	"go.uber.org/zap"

	"saturn-terminal/internal/config"
	"saturn-terminal/internal/prefs"
	"saturn-terminal/internal/router"
	"saturn-terminal/internal/theme"
	"saturn-terminal/internal/tui"
)

const version = "dev"

// Runtime wires config, middleware and the Wish server as a testable unit.
type Runtime struct {
	cfg    config.Config
	log    *zap.Logger
	prefs  prefs.Store
	chain  []router.Descriptor
	server *ssh.Server
}

// New builds the SSH server. Theme preferences for every user share store.
func New(cfg config.Config, store prefs.Store, log *zap.Logger) (*Runtime, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if store == nil {
		store = prefs.NewMemoryStore()
	}

	r := &Runtime{cfg: cfg, log: log, prefs: store}
	r.chain = r.defaultChain()

	address := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	srv, err := wish.NewServer(
		wish.WithAddress(address),
		wish.WithHostKeyPath(cfg.HostKeyPath),
		wish.WithIdleTimeout(cfg.IdleTimeout),
		withHandler(r.handler()),
	)
	if err != nil {
		return nil, fmt.Errorf("build ssh server: %w", err)
	}
	r.server = srv
	return r, nil
}

func (r *Runtime) defaultChain() []router.Descriptor {
	chain := []router.Descriptor{
		{Name: "rate-limit", Middleware: RateLimitMiddleware(r.cfg.RateLimitPerMinute, r.cfg.RateLimitBurst, r.log)},
		{Name: "max-sessions", Middleware: MaxSessionsMiddleware(r.cfg.MaxSessions, r.log)},
	}
	chain = append(chain, router.SessionChain(r.log)...)
	return append(chain, router.Descriptor{Name: "bubbletea", Middleware: bm.Middleware(r.teaHandler)})
}

// handler composes the chain with chain[0] outermost.
func (r *Runtime) handler() ssh.Handler {
	return router.Compose(router.MiddlewareFromDescriptors(r.chain), func(ssh.Session) {})
}

// withHandler installs an already composed handler. wish.WithMiddleware
// would run the chain in reverse.
func withHandler(h ssh.Handler) ssh.Option {
	return func(s *ssh.Server) error {
		s.Handler = h
		return nil
	}
}

// MiddlewareIDs lists the chain in execution order.
func (r *Runtime) MiddlewareIDs() []string {
	out := make([]string, 0, len(r.chain))
	for _, d := range r.chain {
		out = append(out, d.Name)
	}
	return out
}

func (r *Runtime) Address() string {
	return r.server.Addr
}

// Run serves until ctx is cancelled or the process receives SIGINT/SIGTERM.
func (r *Runtime) Run(ctx context.Context) error {
	ctx, stopSignals := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	go func() {
		<-ctx.Done()
		_ = r.server.Shutdown(context.Background())
	}()

	r.log.Info("ssh server starting",
		zap.String("event", "startup"),
		zap.String("version", version),
		zap.String("address", r.Address()),
		zap.Strings("middleware", r.MiddlewareIDs()),
		zap.String("host_key_path", r.cfg.HostKeyPath),
		zap.Duration("idle_timeout", r.cfg.IdleTimeout),
		zap.Int("max_sessions", r.cfg.MaxSessions),
		zap.Bool("show_nav", r.cfg.ShowNav),
		zap.Bool("show_surface", r.cfg.ShowSurface),
	)
	err := r.server.ListenAndServe()
	if errors.Is(err, ssh.ErrServerClosed) || err == nil {
		r.log.Info("ssh server stopped", zap.String("event", "shutdown"))
		return nil
	}
	return err
}

func (r *Runtime) teaHandler(s ssh.Session) (tea.Model, []tea.ProgramOption) {
	info, ok := router.InfoFromContext(s.Context())
	if !ok {
		user := router.NormalizeUsername(s.User())
		info = router.SessionInfo{Username: user, PrefsKey: theme.UserPreferenceKey(user)}
	}
	pty, _, _ := s.Pty()

	m := r.newModel(info, pty, bm.MakeRenderer(s))
	return m, []tea.ProgramOption{
		tea.WithAltScreen(),
		tea.WithMouseAllMotion(),
		tea.WithReportFocus(),
	}
}

func (r *Runtime) newModel(info router.SessionInfo, pty ssh.Pty, renderer *lipgloss.Renderer) tui.Model {
	var controller *theme.Controller
	if r.cfg.ShowNav {
		controller = theme.NewController(r.prefs, info.PrefsKey)
	}
	return tui.NewModel(tui.Options{
		Width:         pty.Window.Width,
		Height:        pty.Window.Height,
		Term:          pty.Term,
		Theme:         controller,
		ShowSurface:   r.cfg.ShowSurface,
		FrameInterval: r.cfg.FrameInterval,
		Renderer:      renderer,
		Logger:        r.log.With(zap.String("user", info.Username)),
	})
}
