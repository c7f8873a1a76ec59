package trace

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	applog "expensetracker/internal/log"
)

func TestGenerateRequestID(t *testing.T) {
	a, b := GenerateRequestID(), GenerateRequestID()
	if !strings.HasPrefix(a, "req_") || len(a) != len("req_")+16 {
		t.Errorf("GenerateRequestID() = %q, want req_ followed by 16 hex chars", a)
	}
	if a == b {
		t.Errorf("GenerateRequestID() returned %q twice", a)
	}
}

func TestGetRequestIDMissing(t *testing.T) {
	if id := GetRequestID(context.Background()); id != "" {
		t.Errorf("GetRequestID() = %q, want empty", id)
	}
}

func TestMiddleware(t *testing.T) {
	m := NewMiddleware(func(*http.Request) string { return "192.0.2.7" }, applog.Nop())

	var seenID string
	var seenLogger *applog.Logger
	handler := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenID = GetRequestID(r.Context())
		seenLogger = applog.FromContext(r.Context())
		w.WriteHeader(http.StatusTeapot)
		w.WriteHeader(http.StatusOK)
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/alerts", nil))

	if seenID == "" {
		t.Fatal("request ID not stored in context")
	}
	if got := rr.Header().Get(HeaderRequestID); got != seenID {
		t.Errorf("X-Request-ID = %q, want %q", got, seenID)
	}
	if seenLogger == nil || seenLogger.Component() == "unknown" {
		t.Error("request logger not stored in context")
	}
	if rr.Code != http.StatusTeapot {
		t.Errorf("status = %d, want %d", rr.Code, http.StatusTeapot)
	}

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if got := m.GetMetrics().TotalRequests; got != 2 {
		t.Errorf("TotalRequests = %d, want 2", got)
	}
}
