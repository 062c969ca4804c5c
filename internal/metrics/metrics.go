// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hoteldash_http_requests_total",
		Help: "HTTP requests served, by method, route and status.",
	}, []string{"method", "route", "status"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "hoteldash_http_request_duration_seconds",
		Help:    "HTTP request latency.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	DashboardFetchFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hoteldash_dashboard_fetch_failures_total",
		Help: "Dashboard operations that ended with a user-facing error.",
	}, []string{"operation"})

	OccupancyRecordsWritten = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hoteldash_occupancy_records_written_total",
		Help: "Occupancy rows upserted through the API.",
	})

	PriceScrapes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hoteldash_price_scrapes_total",
		Help: "Competitor price scrapes, by result.",
	}, []string{"result"})
)

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
