package log

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func bufferLogger(buf *bytes.Buffer) *Logger {
	return New(Config{
		Component: ComponentHTTP,
		Handler:   slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}),
	})
}

func TestFromContextDefault(t *testing.T) {
	logger := FromContext(httptest.NewRequest(http.MethodGet, "/", nil).Context())
	if logger == nil || logger.Logger == nil {
		t.Fatal("FromContext() returned nil logger")
	}
	if logger.Component() != "unknown" {
		t.Errorf("Component() = %q, want unknown", logger.Component())
	}
}

func TestMiddlewareChain(t *testing.T) {
	var buf bytes.Buffer
	logger := bufferLogger(&buf)

	var got *Logger
	handler := Middleware(logger)(RequestIDMiddleware(func(*http.Request) string {
		return "req_abc"
	})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = FromContext(r.Context())
		got.Info("inside handler")
	})))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if got == nil || got.Component() != ComponentHTTP {
		t.Fatalf("handler logger = %v, want http component", got)
	}
	out := buf.String()
	if !strings.Contains(out, "request_id=req_abc") {
		t.Errorf("log output missing request id: %s", out)
	}
}

func TestLogHTTPEndLevels(t *testing.T) {
	tests := []struct {
		status int
		level  string
	}{
		{http.StatusOK, "level=INFO"},
		{http.StatusNotFound, "level=WARN"},
		{http.StatusInternalServerError, "level=ERROR"},
	}

	for _, tt := range tests {
		var buf bytes.Buffer
		logger := bufferLogger(&buf)
		r := httptest.NewRequest(http.MethodGet, "/api/expenses?q=x", nil)

		logger.LogHTTPEnd(r.Context(), r, tt.status, 12, "10.0.0.1")

		out := buf.String()
		if !strings.Contains(out, tt.level) {
			t.Errorf("status %d: output %q missing %s", tt.status, out, tt.level)
		}
		if !strings.Contains(out, "client_ip=10.0.0.1") || !strings.Contains(out, "duration_ms=12") {
			t.Errorf("status %d: output %q missing fields", tt.status, out)
		}
	}
}
