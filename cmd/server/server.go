// cmd/server/server.go
package main

import (
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/codr1/hoteldash/internal/api"
	"github.com/codr1/hoteldash/internal/api/dashboard"
	"github.com/codr1/hoteldash/internal/api/nav"
	"github.com/codr1/hoteldash/internal/api/occupancy"
	"github.com/codr1/hoteldash/internal/api/prices"
	"github.com/codr1/hoteldash/internal/config"
	"github.com/codr1/hoteldash/internal/metrics"
	"github.com/codr1/hoteldash/internal/ratelimit"
)

// newServer builds the HTTP server. The limiter throttles dashboard uploads;
// nil leaves them unthrottled.
func newServer(cfg *config.Config, limiter *ratelimit.Limiter) *http.Server {
	router := http.NewServeMux()

	middleware := []api.Middleware{
		api.WithLogging,
		api.WithRecovery,
		api.WithRequestID,
		api.WithContentType,
	}
	if cfg.Features.EnableMetrics {
		middleware = append([]api.Middleware{api.WithMetrics}, middleware...)
	}

	// Setup middleware chain
	handler := api.ChainMiddleware(router, middleware...)

	// Register routes
	registerRoutes(router, cfg, limiter)

	server := &http.Server{
		Addr:         ":" + strconv.Itoa(cfg.App.Port),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	if limiter != nil {
		server.RegisterOnShutdown(limiter.Close)
	}
	return server
}

func registerRoutes(mux *http.ServeMux, cfg *config.Config, limiter *ratelimit.Limiter) {
	uploads := func(h http.HandlerFunc) http.Handler {
		if limiter == nil {
			return h
		}
		return limiter.Middleware(h)
	}

	mux.HandleFunc("/", nav.HandleRoot)

	// Health check
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Dashboard pages
	mux.HandleFunc("/dashboard", dashboard.HandleDashboardPage)
	mux.Handle("/dashboard/upload", uploads(dashboard.HandleUpload))

	// REST API
	mux.HandleFunc("/api", nav.HandleAPIIndex)
	mux.HandleFunc("/api/occupancy", occupancy.HandleOccupancy)
	mux.HandleFunc("/api/prices", prices.HandlePrices)

	if cfg.Features.EnableMetrics {
		mux.Handle("/metrics", metrics.Handler())
	}

	staticDir := cfg.App.StaticDir
	fs := http.FileServer(http.Dir(staticDir))

	// Add logging middleware for static files
	mux.Handle("/static/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.Ctx(r.Context()).Debug().
			Str("path", r.URL.Path).
			Str("static_dir", staticDir).
			Msg("Serving static file")
		http.StripPrefix("/static/", fs).ServeHTTP(w, r)
	}))
}
