package server

import (
	"context"
	"io"
	"net"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/ssh"
	"go.uber.org/zap"

	"saturn-terminal/internal/config"
	"saturn-terminal/internal/prefs"
	"saturn-terminal/internal/router"
	"saturn-terminal/internal/theme"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Host = "127.0.0.1"
	cfg.Port = 2222
	cfg.HostKeyPath = filepath.Join(t.TempDir(), "host_ed25519")
	return cfg
}

func TestNewRuntimeStartupPipeline(t *testing.T) {
	runtime, err := New(testConfig(t), prefs.NewMemoryStore(), zap.NewNop())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if got := runtime.Address(); got != "127.0.0.1:2222" {
		t.Fatalf("Address() = %q, want %q", got, "127.0.0.1:2222")
	}

	want := []string{"rate-limit", "max-sessions", "access-log", "pty-required", "session-metadata", "bubbletea"}
	got := runtime.MiddlewareIDs()
	if len(got) != len(want) {
		t.Fatalf("middleware = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("middleware[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestRuntimeRejectsMissingPTYWithExitCode(t *testing.T) {
	runtime, err := New(testConfig(t), prefs.NewMemoryStore(), zap.NewNop())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	sess := newFakeUserSession(context.Background(), "west", &net.TCPAddr{IP: net.ParseIP("203.0.113.60"), Port: 2022}, false)
	runtime.handler()(sess)

	if out := sess.output(); out != "interactive terminal requires an attached PTY\n" {
		t.Fatalf("unexpected message: %q", out)
	}
	code, ok := sess.recordedExitCode()
	if !ok || code != 1 {
		t.Fatalf("expected exit code 1, got (%d, %v)", code, ok)
	}
}

func TestRuntimeRateLimitRunsBeforePTYCheck(t *testing.T) {
	cfg := testConfig(t)
	cfg.RateLimitBurst = 1
	runtime, err := New(cfg, prefs.NewMemoryStore(), zap.NewNop())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	remote := &net.TCPAddr{IP: net.ParseIP("203.0.113.61"), Port: 2022}
	runtime.handler()(newFakeUserSession(context.Background(), "west", remote, false))

	second := newFakeUserSession(context.Background(), "west", remote, false)
	runtime.handler()(second)
	if out := second.output(); out != "rate limit exceeded\n" {
		t.Fatalf("second session output = %q", out)
	}
	if _, ok := second.recordedExitCode(); ok {
		t.Fatal("throttled session should not reach the PTY check")
	}
}

func TestRuntimeModelUsesPerUserPreference(t *testing.T) {
	store := prefs.NewMemoryStore()
	if err := store.Save(theme.UserPreferenceKey("west"), "light"); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	runtime, err := New(testConfig(t), store, zap.NewNop())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	pty := ssh.Pty{Term: "xterm-256color", Window: ssh.Window{Width: 100, Height: 45}}
	renderer := lipgloss.NewRenderer(io.Discard)

	west := runtime.newModel(router.SessionInfo{Username: "west", PrefsKey: theme.UserPreferenceKey("west")}, pty, renderer)
	if !strings.Contains(west.View(), "[ dark mode ]") {
		t.Fatal("west should start in light mode and be offered dark mode")
	}

	guest := runtime.newModel(router.SessionInfo{Username: "guest", PrefsKey: theme.UserPreferenceKey("guest")}, pty, renderer)
	if !strings.Contains(guest.View(), "[ light mode ]") {
		t.Fatal("guest should start in dark mode")
	}
}

func TestRuntimeModelWithoutNav(t *testing.T) {
	cfg := testConfig(t)
	cfg.ShowNav = false
	cfg.ShowSurface = false
	runtime, err := New(cfg, nil, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	pty := ssh.Pty{Term: "xterm", Window: ssh.Window{Width: 80, Height: 24}}
	m := runtime.newModel(router.SessionInfo{Username: "west", PrefsKey: "site-theme/west"}, pty, lipgloss.NewRenderer(io.Discard))
	if strings.Contains(m.View(), "mode ]") {
		t.Fatal("nav toggle rendered with nav disabled")
	}
	if m.Running() || m.Init() != nil {
		t.Fatal("frame loop should not start without a surface")
	}
}
