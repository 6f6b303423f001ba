package gateway

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"saturn-terminal/internal/saturn"
)

func newTestRoutes(t *testing.T) (http.Handler, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zap.InfoLevel)
	return NewHandler(zap.New(core), time.Millisecond).Routes(), logs
}

func TestSnapshotMatchesRenderer(t *testing.T) {
	h, logs := newTestRoutes(t)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/saturn.txt?a=1.25&b=0.75", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Fatalf("content type = %q", ct)
	}

	want := saturn.Render(1.25, 0.75).String() + "\n"
	if rec.Body.String() != want {
		t.Fatal("snapshot differs from a direct render with the same angles")
	}

	entries := logs.FilterField(zap.String("event", "gateway_http_request")).All()
	if len(entries) != 1 || entries[0].ContextMap()["status"] != int64(http.StatusOK) {
		t.Fatalf("request log = %v", logs.All())
	}
}

func TestSnapshotDefaultsAndHover(t *testing.T) {
	h, _ := newTestRoutes(t)
	tests := []struct {
		name  string
		query string
		want  string
	}{
		{name: "defaults", query: "", want: saturn.NewState().Frame().String()},
		{name: "tilt ignored without hover", query: "?tx=1&ty=-1", want: saturn.NewState().Frame().String()},
		{name: "hover tilts", query: "?tx=0.5&ty=-0.5&hover=true", want: saturn.Render(saturn.InitialAngle-0.5*saturn.TiltSensitivity, saturn.InitialAngle+0.5*saturn.TiltSensitivity).String()},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/saturn.txt"+tc.query, nil))
			if rec.Code != http.StatusOK {
				t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
			}
			if got := strings.TrimSuffix(rec.Body.String(), "\n"); got != tc.want {
				t.Fatal("unexpected frame")
			}
		})
	}
}

func TestSnapshotRejectsBadQuery(t *testing.T) {
	h, _ := newTestRoutes(t)
	tests := []struct {
		query string
		code  string
	}{
		{query: "a=abc", code: "PARAM_NOT_A_NUMBER"},
		{query: "b=1e400", code: "PARAM_OUT_OF_RANGE"},
		{query: "a=NaN", code: "INVALID_QUERY"},
		{query: "tx=2", code: "INVALID_QUERY"},
		{query: "ty=-1.5", code: "INVALID_QUERY"},
		{query: "hover=perhaps", code: "INVALID_QUERY"},
	}
	for _, tc := range tests {
		t.Run(tc.query, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/saturn.txt?"+tc.query, nil))
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
			}
			var body map[string]string
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("error body is not JSON: %v", err)
			}
			if body["code"] != tc.code {
				t.Fatalf("code = %q, want %q", body["code"], tc.code)
			}
		})
	}
}

func TestSnapshotNamesTxBeforeTy(t *testing.T) {
	h, _ := newTestRoutes(t)
	for i := 0; i < 20; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/saturn.txt?tx=2&ty=-2", nil))
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
		}
		var body map[string]string
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("error body is not JSON: %v", err)
		}
		if !strings.HasPrefix(body["message"], "tx ") {
			t.Fatalf("attempt %d: message = %q, want it to name tx", i, body["message"])
		}
	}
}

func TestSnapshotMethodNotAllowed(t *testing.T) {
	h, _ := newTestRoutes(t)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/saturn.txt", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status=%d", rec.Code)
	}
}

func TestStreamEmitsFrameEvents(t *testing.T) {
	h, _ := newTestRoutes(t)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/saturn/stream?frames=2", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("content type = %q", ct)
	}

	body := rec.Body.String()
	if got := strings.Count(body, "event: frame\n"); got != 2 {
		t.Fatalf("frame events = %d, want 2", got)
	}
	first := strings.Split(body, "\n\n")[0]
	lines := strings.Split(first, "\n")
	if len(lines) != 1+saturn.Height {
		t.Fatalf("first event has %d lines, want %d", len(lines), 1+saturn.Height)
	}
	for _, line := range lines[1:] {
		if !strings.HasPrefix(line, "data: ") || len(line) != len("data: ")+saturn.Width {
			t.Fatalf("malformed data line %q", line)
		}
	}
}

func TestStreamFramesAreConsecutiveTicks(t *testing.T) {
	h, _ := newTestRoutes(t)
	const n = 5
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, fmt.Sprintf("/saturn/stream?frames=%d", n), nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}

	events := strings.Split(strings.TrimSuffix(rec.Body.String(), "\n\n"), "\n\n")
	if len(events) != n {
		t.Fatalf("events = %d, want %d", len(events), n)
	}
	state := saturn.NewState()
	for i, event := range events {
		var text string
		state, text = saturn.Step(state)

		lines := strings.Split(event, "\n")[1:]
		for j := range lines {
			lines[j] = strings.TrimPrefix(lines[j], "data: ")
		}
		if got := strings.Join(lines, "\n"); got != text {
			t.Fatalf("event %d is not tick %d of the animation", i, i)
		}
	}
}

func TestStreamStopsWhenClientLeaves(t *testing.T) {
	h, _ := newTestRoutes(t)
	srv := httptest.NewServer(h)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/saturn/stream")
	if err != nil {
		t.Fatalf("GET stream: %v", err)
	}
	buf := make([]byte, 64)
	if _, err := resp.Body.Read(buf); err != nil {
		t.Fatalf("read stream: %v", err)
	}
	if !strings.HasPrefix(string(buf), "event: frame") {
		t.Fatalf("stream started with %q", buf)
	}
	_ = resp.Body.Close()
}

func TestStreamRejectsBadFrameLimit(t *testing.T) {
	h, _ := newTestRoutes(t)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/saturn/stream?frames=-1", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
}

func TestHealthz(t *testing.T) {
	h, _ := newTestRoutes(t)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"ok"`) {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
}
