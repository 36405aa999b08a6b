package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"file-uploader/internal/shared/config"
	"file-uploader/internal/shared/metrics"
)

func TestAddr(t *testing.T) {
	cases := map[string]string{"": ":8080", "9000": ":9000", ":7000": ":7000"}
	for in, want := range cases {
		if got := Addr(in); got != want {
			t.Fatalf("Addr(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestRouterServesHealthAndMetrics(t *testing.T) {
	gin.SetMode(gin.TestMode)
	reg := prometheus.NewRegistry()
	if _, err := metrics.NewPlacementObserver("test", reg); err != nil {
		t.Fatalf("observer: %v", err)
	}
	r := NewRouter(RouterDeps{Config: config.Config{Env: "dev"}, Gatherer: reg})

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("health expected 200, got %d", resp.Code)
	}

	resp = httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("metrics expected 200, got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), "test_placed_files_total") {
		t.Fatalf("expected placement metrics in output")
	}
}

type stubHealth struct{ ok bool }

func (s stubHealth) Status(context.Context) (map[string]string, bool) {
	if s.ok {
		return map[string]string{"uploadRoot": "ok"}, true
	}
	return map[string]string{"uploadRoot": "permission denied"}, false
}

func TestRouterHealthReportsFailingChecks(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := NewRouter(RouterDeps{Config: config.Config{Env: "dev"}, Gatherer: prometheus.NewRegistry(), Health: stubHealth{ok: false}})

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), "permission denied") {
		t.Fatalf("expected failing check in body, got %s", resp.Body.String())
	}
}
