package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"saturn-terminal/internal/saturn"
)

const maxStreamFrames = 100000

// Handler serves rendered frames over HTTP: a single snapshot, a
// server-sent event stream and a health check.
type Handler struct {
	log      *zap.Logger
	interval time.Duration
}

func NewHandler(log *zap.Logger, interval time.Duration) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	if interval <= 0 {
		interval = saturn.DefaultFrameInterval
	}
	return &Handler{log: log, interval: interval}
}

func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/saturn.txt", h.snapshot)
	mux.HandleFunc("/saturn/stream", h.stream)
	mux.HandleFunc("/healthz", h.healthz)
	return h.instrument(mux)
}

func (h *Handler) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		observer := &statusObserver{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(observer, r)
		h.log.Info("http request",
			zap.String("event", "gateway_http_request"),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", observer.status),
			zap.Int64("duration_ms", time.Since(started).Milliseconds()),
			zap.String("remote", r.RemoteAddr),
		)
	})
}

type statusObserver struct {
	http.ResponseWriter
	status int
}

func (o *statusObserver) WriteHeader(status int) {
	o.status = status
	o.ResponseWriter.WriteHeader(status)
}

func (o *statusObserver) Flush() {
	if flusher, ok := o.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

func (h *Handler) snapshot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		h.reject(r, "snapshot", "method_not_allowed", "")
		writeErr(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
		return
	}

	state, err := stateFromQuery(r.URL.Query())
	if err != nil {
		h.reject(r, "snapshot", "bad_query", err.Error())
		writeMappedErr(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintln(w, state.Frame().String())
}

// stream emits one SSE "frame" event per animation tick until the client
// disconnects or the optional frames limit is reached.
func (h *Handler) stream(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.reject(r, "stream", "method_not_allowed", "")
		writeErr(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
		return
	}

	query := r.URL.Query()
	state, err := stateFromQuery(query)
	if err != nil {
		h.reject(r, "stream", "bad_query", err.Error())
		writeMappedErr(w, err)
		return
	}
	limit, err := parseInt(query, "frames", 0, 0, maxStreamFrames)
	if err != nil {
		h.reject(r, "stream", "bad_query", err.Error())
		writeMappedErr(w, err)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeErr(w, http.StatusInternalServerError, "STREAM_UNAVAILABLE", "streaming output is not available")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	// The sink waits for the client to take each frame.
	ctx, cancel := context.WithCancel(r.Context())
	frames := make(chan string)
	animator := saturn.NewAnimator(h.interval, state)
	animator.Start(ctx, func(frame string) {
		select {
		case frames <- frame:
		case <-ctx.Done():
		}
	})
	defer animator.Stop()
	defer cancel()

	sent := 0
	for {
		select {
		case <-ctx.Done():
			return
		case frame := <-frames:
			if err := writeEvent(w, "frame", frame); err != nil {
				return
			}
			flusher.Flush()
			sent++
			if limit > 0 && sent >= limit {
				return
			}
		}
	}
}

func (h *Handler) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) reject(r *http.Request, operation, reason, details string) {
	h.log.Warn("http request rejected",
		zap.String("event", "gateway_request_rejected"),
		zap.String("operation", operation),
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.String("reason", reason),
		zap.String("details", details),
		zap.String("remote", r.RemoteAddr),
	)
}

func writeEvent(w http.ResponseWriter, event, payload string) error {
	var b strings.Builder
	b.WriteString("event: ")
	b.WriteString(event)
	b.WriteByte('\n')
	for _, line := range strings.Split(payload, "\n") {
		b.WriteString("data: ")
		b.WriteString(line)
		b.WriteByte('\n')
	}
	b.WriteByte('\n')
	_, err := w.Write([]byte(b.String()))
	return err
}

// stateFromQuery reads a, b (base angles), tx, ty (tilt in [-1, 1]) and
// hover. Tilt only counts when hover is true.
func stateFromQuery(q url.Values) (saturn.State, error) {
	s := saturn.NewState()
	var err error
	if s.A, err = parseFloat(q, "a", s.A); err != nil {
		return saturn.State{}, err
	}
	if s.B, err = parseFloat(q, "b", s.B); err != nil {
		return saturn.State{}, err
	}
	tx, err := parseFloat(q, "tx", 0)
	if err != nil {
		return saturn.State{}, err
	}
	ty, err := parseFloat(q, "ty", 0)
	if err != nil {
		return saturn.State{}, err
	}
	if err := checkTilt("tx", tx); err != nil {
		return saturn.State{}, err
	}
	if err := checkTilt("ty", ty); err != nil {
		return saturn.State{}, err
	}

	hover := false
	if raw := strings.TrimSpace(q.Get("hover")); raw != "" {
		if hover, err = strconv.ParseBool(raw); err != nil {
			return saturn.State{}, mapQueryError("hover", fmt.Errorf("%w: must be a boolean", ErrInvalidQuery))
		}
	}
	if hover {
		s = s.PointerEnter().PointerMove(tx, ty)
	}
	return s, nil
}

func checkTilt(name string, v float64) error {
	if v < -1 || v > 1 {
		return mapQueryError(name, fmt.Errorf("%w: must be within [-1, 1]", ErrInvalidQuery))
	}
	return nil
}

func parseFloat(q url.Values, name string, fallback float64) (float64, error) {
	raw := strings.TrimSpace(q.Get(name))
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, mapQueryError(name, err)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, mapQueryError(name, fmt.Errorf("%w: must be finite", ErrInvalidQuery))
	}
	return v, nil
}

func parseInt(q url.Values, name string, fallback, min, max int) (int, error) {
	raw := strings.TrimSpace(q.Get(name))
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, mapQueryError(name, err)
	}
	if v < min || v > max {
		return 0, mapQueryError(name, fmt.Errorf("%w: must be between %d and %d", ErrInvalidQuery, min, max))
	}
	return v, nil
}

func writeMappedErr(w http.ResponseWriter, err error) {
	var friendly *FriendlyError
	if errors.As(err, &friendly) {
		writeErr(w, http.StatusBadRequest, friendly.Code, friendly.Message)
		return
	}
	writeErr(w, http.StatusInternalServerError, "INTERNAL_ERROR", "gateway internal error")
}

func writeErr(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]string{"code": code, "message": message, "status": strconv.Itoa(status)})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
