// Package metrics exposes Prometheus instrumentation for the API server
// and the export worker.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTPRequests counts completed HTTP requests by method, route and status.
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "spendtrack_http_requests_total",
		Help: "Completed HTTP requests.",
	}, []string{"method", "route", "status"})

	// HTTPDuration observes request latency by route.
	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "spendtrack_http_request_duration_seconds",
		Help:    "HTTP request latency.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	// AuthFailures counts rejected authentication attempts by reason.
	AuthFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "spendtrack_auth_failures_total",
		Help: "Rejected authentication attempts.",
	}, []string{"reason"})

	// RateLimited counts requests rejected by the rate limiter.
	RateLimited = promauto.NewCounter(prometheus.CounterOpts{
		Name: "spendtrack_rate_limited_total",
		Help: "Requests rejected by the rate limiter.",
	})

	// EventsPublished counts expense events published to the broker.
	EventsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "spendtrack_events_published_total",
		Help: "Expense events published to the broker.",
	}, []string{"kind"})

	// EventsProcessed counts events the export worker handled.
	EventsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "spendtrack_worker_events_total",
		Help: "Events handled by the export worker.",
	}, []string{"kind", "outcome"})

	// ReportCacheHits counts report cache lookups by result.
	ReportCacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "spendtrack_report_cache_lookups_total",
		Help: "Report cache lookups.",
	}, []string{"result"})
)

// Handler returns the scrape endpoint handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveHTTP records one completed request.
func ObserveHTTP(method, route string, status int, duration time.Duration) {
	HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	HTTPDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}
