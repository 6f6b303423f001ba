package server

import (
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	"go.uber.org/zap"

	"saturn-terminal/internal/router"
)

const rateLimitMessage = "rate limit exceeded\n"

type ipBucket struct {
	tokens float64
	last   time.Time
}

// rateLimiter is a per-IP token bucket refilled continuously.
type rateLimiter struct {
	ratePerSecond float64
	burst         float64

	mu      sync.Mutex
	buckets map[string]ipBucket
}

func newRateLimiter(limitPerMinute, burst int) *rateLimiter {
	if limitPerMinute <= 0 {
		limitPerMinute = 30
	}
	if burst <= 0 {
		burst = 10
	}
	return &rateLimiter{
		ratePerSecond: float64(limitPerMinute) / 60.0,
		burst:         float64(burst),
		buckets:       make(map[string]ipBucket),
	}
}

func (l *rateLimiter) allow(ip string, now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	bucket := l.buckets[ip]
	if bucket.last.IsZero() {
		bucket = ipBucket{tokens: l.burst, last: now}
	}

	if elapsed := now.Sub(bucket.last).Seconds(); elapsed > 0 {
		bucket.tokens += elapsed * l.ratePerSecond
		if bucket.tokens > l.burst {
			bucket.tokens = l.burst
		}
		bucket.last = now
	}

	if bucket.tokens < 1 {
		l.buckets[ip] = bucket
		return false
	}

	bucket.tokens--
	l.buckets[ip] = bucket
	return true
}

// RateLimitMiddleware enforces per-IP connection limits using a token bucket.
func RateLimitMiddleware(limitPerMinute, burst int, log *zap.Logger) wish.Middleware {
	if log == nil {
		log = zap.NewNop()
	}
	limiter := newRateLimiter(limitPerMinute, burst)

	return func(next ssh.Handler) ssh.Handler {
		return func(s ssh.Session) {
			now := time.Now().UTC()
			ip := router.RemoteIP(s.RemoteAddr())
			if !limiter.allow(ip, now) {
				log.Warn("session throttled",
					zap.String("event", "rate_limit_throttled"),
					zap.String("remote_ip", ip),
				)
				_, _ = io.WriteString(s, rateLimitMessage)
				return
			}
			next(s)
		}
	}
}
