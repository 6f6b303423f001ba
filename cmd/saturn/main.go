// Command saturn runs the Saturn renderer and theme toggle in the local
// terminal.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"saturn-terminal/internal/config"
	"saturn-terminal/internal/logger"
	"saturn-terminal/internal/prefs"
	"saturn-terminal/internal/theme"
	"saturn-terminal/internal/tui"
)

type options struct {
	prefsPath     string
	frameInterval time.Duration
	showNav       bool
	showSurface   bool
	logFile       string
	logLevel      string
}

func main() {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "saturn: load config: %v\n", err)
		os.Exit(2)
	}
	_, prefsFromEnv := os.LookupEnv("SATURN_PREFS_PATH")
	opts, err := parseFlags(os.Args[1:], cfg, prefsFromEnv, os.Stderr)
	if err != nil {
		os.Exit(2)
	}

	if err := run(opts); err != nil {
		fmt.Fprintf(os.Stderr, "saturn: %v\n", err)
		os.Exit(1)
	}
}

// parseFlags layers flags over the environment configuration. The local
// binary keeps its preferences in the per-user config directory unless
// SATURN_PREFS_PATH or -prefs says otherwise.
func parseFlags(args []string, cfg config.Config, prefsFromEnv bool, stderr io.Writer) (options, error) {
	opts := options{
		prefsPath:     prefs.DefaultPath(),
		frameInterval: cfg.FrameInterval,
		showNav:       cfg.ShowNav,
		showSurface:   cfg.ShowSurface,
		logFile:       cfg.LogFile,
		logLevel:      cfg.LogLevel,
	}
	if prefsFromEnv {
		opts.prefsPath = cfg.PrefsPath
	}

	fs := flag.NewFlagSet("saturn", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.prefsPath, "prefs", opts.prefsPath, "preference file")
	fps := fs.Int("fps", 0, "frames per second (0 keeps SATURN_FRAME_INTERVAL)")
	noNav := fs.Bool("no-nav", !opts.showNav, "hide the nav bar and theme toggle")
	noSurface := fs.Bool("no-surface", !opts.showSurface, "hide the saturn renderer")
	fs.StringVar(&opts.logFile, "log-file", opts.logFile, "write logs to this file")
	debug := fs.Bool("debug", false, "log at debug level")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	if fs.NArg() > 0 {
		err := fmt.Errorf("unexpected arguments: %v", fs.Args())
		fmt.Fprintln(stderr, err)
		return options{}, err
	}

	switch {
	case *fps < 0 || *fps > 1000:
		err := fmt.Errorf("-fps must be between 0 and 1000")
		fmt.Fprintln(stderr, err)
		return options{}, err
	case *fps > 0:
		opts.frameInterval = time.Second / time.Duration(*fps)
	}
	opts.showNav = !*noNav
	opts.showSurface = !*noSurface
	if *debug {
		opts.logLevel = "debug"
	}
	return opts, nil
}

func run(opts options) error {
	var logg *zap.Logger
	if opts.logFile != "" {
		logg = logger.New(logger.Options{Level: opts.logLevel, File: logger.DefaultFileConfig(opts.logFile)})
	} else {
		logg = zap.NewNop()
	}
	defer logger.Sync(logg)

	var controller *theme.Controller
	if opts.showNav {
		store := prefs.NewResilient(prefs.NewFileStore(opts.prefsPath), logg)
		controller = theme.NewController(store, theme.PreferenceKey)
	}

	model := tui.NewModel(tui.Options{
		Term:          os.Getenv("TERM"),
		Theme:         controller,
		ShowSurface:   opts.showSurface,
		FrameInterval: opts.frameInterval,
		Logger:        logg,
	})

	logg.Info("local session starting",
		zap.String("event", "startup"),
		zap.String("prefs", opts.prefsPath),
		zap.Bool("show_nav", opts.showNav),
		zap.Bool("show_surface", opts.showSurface),
		zap.Duration("frame_interval", opts.frameInterval),
	)
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseAllMotion(), tea.WithReportFocus())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run program: %w", err)
	}
	return nil
}
