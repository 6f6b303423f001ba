package router

import (
	"io"
	"net"
	"regexp"
	"time"

	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	"go.uber.org/zap"

	"saturn-terminal/internal/theme"
)

type contextKey string

const sessionInfoKey contextKey = "saturn.session-info"

const (
	// GuestUser replaces usernames that cannot be used as a preference key.
	GuestUser = "guest"

	ptyRequiredMessage = "interactive terminal requires an attached PTY\n"
)

var validUsername = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]{0,31}$`)

// Descriptor names a middleware so the startup log can report the chain.
type Descriptor struct {
	Name       string
	Middleware wish.Middleware
}

// SessionInfo is attached to the session context by the session-metadata
// middleware.
type SessionInfo struct {
	Username string
	RemoteIP string
	PrefsKey string
}

// SessionChain returns the per-session middleware in execution order:
// access logging, PTY enforcement, then session metadata.
func SessionChain(log *zap.Logger) []Descriptor {
	return []Descriptor{
		{Name: "access-log", Middleware: AccessLog(log)},
		{Name: "pty-required", Middleware: PTYRequired()},
		{Name: "session-metadata", Middleware: SessionMetadata()},
	}
}

// MiddlewareFromDescriptors strips names, keeping order.
func MiddlewareFromDescriptors(chain []Descriptor) []wish.Middleware {
	out := make([]wish.Middleware, 0, len(chain))
	for _, d := range chain {
		if d.Middleware == nil {
			continue
		}
		out = append(out, d.Middleware)
	}
	return out
}

// Compose wraps final so that chain[0] runs first.
func Compose(chain []wish.Middleware, final ssh.Handler) ssh.Handler {
	h := final
	for i := len(chain) - 1; i >= 0; i-- {
		h = chain[i](h)
	}
	return h
}

// PTYRequired rejects sessions without a pseudo terminal with exit status 1.
func PTYRequired() wish.Middleware {
	return func(next ssh.Handler) ssh.Handler {
		return func(s ssh.Session) {
			if _, _, ok := s.Pty(); !ok {
				_, _ = io.WriteString(s, ptyRequiredMessage)
				_ = s.Exit(1)
				return
			}
			next(s)
		}
	}
}

// SessionMetadata derives the SessionInfo for the connecting user.
func SessionMetadata() wish.Middleware {
	return func(next ssh.Handler) ssh.Handler {
		return func(s ssh.Session) {
			user := NormalizeUsername(s.User())
			info := SessionInfo{
				Username: user,
				RemoteIP: RemoteIP(s.RemoteAddr()),
				PrefsKey: theme.UserPreferenceKey(user),
			}
			s.Context().SetValue(sessionInfoKey, info)
			next(s)
		}
	}
}

// AccessLog records session start and end.
func AccessLog(log *zap.Logger) wish.Middleware {
	if log == nil {
		log = zap.NewNop()
	}
	return func(next ssh.Handler) ssh.Handler {
		return func(s ssh.Session) {
			started := time.Now()
			fields := []zap.Field{
				zap.String("user", s.User()),
				zap.String("remote_ip", RemoteIP(s.RemoteAddr())),
				zap.String("session_id", s.Context().SessionID()),
			}
			log.Info("session started", append(fields, zap.String("event", "session_started"))...)
			defer func() {
				log.Info("session ended", append(fields,
					zap.String("event", "session_ended"),
					zap.Int64("duration_ms", time.Since(started).Milliseconds()),
				)...)
			}()
			next(s)
		}
	}
}

// InfoFromContext returns the SessionInfo stored by SessionMetadata.
func InfoFromContext(ctx ssh.Context) (SessionInfo, bool) {
	info, ok := ctx.Value(sessionInfoKey).(SessionInfo)
	return info, ok
}

// NormalizeUsername maps anything unusable as a key segment to GuestUser.
func NormalizeUsername(user string) string {
	if !validUsername.MatchString(user) {
		return GuestUser
	}
	return user
}

// RemoteIP extracts the host part of addr.
func RemoteIP(addr net.Addr) string {
	if addr == nil {
		return "unknown"
	}

	host, _, err := net.SplitHostPort(addr.String())
	if err != nil {
		return addr.String()
	}
	if host == "" {
		return "unknown"
	}
	return host
}
