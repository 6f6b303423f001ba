package server

import (
	"io"
	"sync"

	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	"go.uber.org/zap"

	"saturn-terminal/internal/router"
)

const maxSessionsMessage = "max sessions exceeded\n"

// MaxSessionsMiddleware caps concurrent sessions. A slot is released exactly
// once, whichever comes first: the handler returning, the session context
// ending, or the handler panicking.
func MaxSessionsMiddleware(limit int, log *zap.Logger) wish.Middleware {
	if limit <= 0 {
		limit = 1
	}
	if log == nil {
		log = zap.NewNop()
	}
	slots := make(chan struct{}, limit)

	return func(next ssh.Handler) ssh.Handler {
		return func(s ssh.Session) {
			select {
			case slots <- struct{}{}:
			default:
				log.Warn("session rejected",
					zap.String("event", "max_sessions_exceeded"),
					zap.String("remote_ip", router.RemoteIP(s.RemoteAddr())),
					zap.Int("limit", limit),
				)
				_, _ = io.WriteString(s, maxSessionsMessage)
				return
			}

			var once sync.Once
			release := func() { once.Do(func() { <-slots }) }

			done := make(chan struct{})
			defer close(done)
			go func() {
				select {
				case <-s.Context().Done():
					release()
				case <-done:
				}
			}()

			defer func() {
				release()
				if r := recover(); r != nil {
					log.Error("session handler panicked",
						zap.String("event", "session_panic"),
						zap.String("user", s.User()),
						zap.Any("panic", r),
					)
				}
			}()
			next(s)
		}
	}
}
