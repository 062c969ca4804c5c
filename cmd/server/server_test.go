package main

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/codr1/hoteldash/internal/config"
)

func newTestConfig(t *testing.T, metrics bool) *config.Config {
	t.Helper()
	cfg, err := config.Parse([]byte("app:\n  name: HotelDash\ndatabase:\n  driver: sqlite\n  filename: test.db\n"))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	cfg.Features.EnableMetrics = metrics
	cfg.App.StaticDir = t.TempDir()
	return cfg
}

func TestRoutes(t *testing.T) {
	cfg := newTestConfig(t, false)
	if err := os.MkdirAll(filepath.Join(cfg.App.StaticDir, "css"), 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(cfg.App.StaticDir, "css", "dashboard.css"), []byte("body{}"), 0644); err != nil {
		t.Fatalf("write css: %v", err)
	}
	handler := newServer(cfg, nil).Handler

	tests := []struct {
		path       string
		wantStatus int
	}{
		{"/health", http.StatusOK},
		{"/", http.StatusFound},
		{"/api", http.StatusOK},
		{"/static/css/dashboard.css", http.StatusOK},
		{"/metrics", http.StatusNotFound},
		{"/nope", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))
			if rec.Code != tt.wantStatus {
				t.Fatalf("GET %s status = %d, want %d", tt.path, rec.Code, tt.wantStatus)
			}
			if rec.Header().Get("X-Request-ID") == "" {
				t.Errorf("GET %s missing X-Request-ID", tt.path)
			}
		})
	}
}

func TestMetricsRouteWhenEnabled(t *testing.T) {
	handler := newServer(newTestConfig(t, true), nil).Handler

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /metrics status = %d, want 200", rec.Code)
	}
}
