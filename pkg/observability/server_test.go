package observability

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

func serveRoute(s *Server, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestServerLiveness(t *testing.T) {
	s := NewServer(0, NewHealthChecker())
	if rec := serveRoute(s, "/health/live"); rec.Code != http.StatusOK {
		t.Errorf("liveness returned %d, expected 200", rec.Code)
	}
}

func TestServerHealthUsesInjectedChecker(t *testing.T) {
	checker := NewHealthChecker()
	checker.RegisterCheck(PingCheck())
	s := NewServer(0, checker)

	if rec := serveRoute(s, "/health"); rec.Code != http.StatusOK {
		t.Errorf("health returned %d, expected 200", rec.Code)
	}
}

func TestServerReadinessReflectsRuntimeState(t *testing.T) {
	var running atomic.Bool
	checker := NewHealthChecker()
	checker.RegisterCheck(RuntimeCheck(func() string {
		if running.Load() {
			return "running"
		}
		return "created"
	}))
	s := NewServer(0, checker)

	if rec := serveRoute(s, "/health/ready"); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("readiness before start returned %d, expected 503", rec.Code)
	}

	running.Store(true)
	if rec := serveRoute(s, "/health/ready"); rec.Code != http.StatusOK {
		t.Errorf("readiness while running returned %d, expected 200", rec.Code)
	}
}

func TestServerMetricsEndpoint(t *testing.T) {
	InitMetrics()
	s := NewServer(0, NewHealthChecker())
	if rec := serveRoute(s, "/metrics"); rec.Code != http.StatusOK {
		t.Errorf("metrics returned %d, expected 200", rec.Code)
	}
}
