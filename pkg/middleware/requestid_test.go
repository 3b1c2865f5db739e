package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/lhnows1/textvec/pkg/logger"
)

// TestRequestIDReachesLogs checks that a handler logging through
// logger.FromContext gets the request id attached as an attribute.
func TestRequestIDReachesLogs(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, nil)))
	defer slog.SetDefault(prev)

	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger.FromContext(r.Context()).Info("handling")
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "req-42")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if got := rec.Header().Get("X-Request-ID"); got != "req-42" {
		t.Errorf("response header = %q, want %q", got, "req-42")
	}
	if !strings.Contains(buf.String(), `"request_id":"req-42"`) {
		t.Errorf("log line missing request_id attribute: %s", buf.String())
	}
}

// TestRequestIDGenerated: a request without the header gets a fresh id.
func TestRequestIDGenerated(t *testing.T) {
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if id := rec.Header().Get("X-Request-ID"); len(id) != 32 {
		t.Errorf("generated id %q, want 32 hex characters", id)
	}
}
