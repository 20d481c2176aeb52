// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "smartlibrary_http_requests_total",
			Help: "Total number of HTTP requests by route pattern and status",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "smartlibrary_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	HTTPActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "smartlibrary_http_active_requests",
			Help: "Requests currently being served",
		},
	)

	// RecommendationsServed counts books returned per recommendation kind
	// (user, similar, trending, new_arrivals, popular, dashboard).
	RecommendationsServed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "smartlibrary_recommendations_served_total",
			Help: "Books returned by the recommendation engine",
		},
		[]string{"kind"},
	)

	RecommendationErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "smartlibrary_recommendation_errors_total",
			Help: "Recommendation requests that failed on a store error",
		},
		[]string{"kind"},
	)

	// CopyChanges counts successful copy counter mutations (decrease, increase).
	CopyChanges = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "smartlibrary_copy_changes_total",
			Help: "Available-copy counter mutations",
		},
		[]string{"direction"},
	)

	BorrowsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "smartlibrary_borrows_total",
			Help: "Borrow and return operations by outcome",
		},
		[]string{"operation", "outcome"},
	)

	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "smartlibrary_cache_hits_total",
			Help: "Distinct-value cache hits",
		},
		[]string{"field"},
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "smartlibrary_cache_misses_total",
			Help: "Distinct-value cache misses",
		},
		[]string{"field"},
	)
)

// RecordHTTPRequest records one finished request.
func RecordHTTPRequest(method, route string, status int, d time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	HTTPRequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

func TrackActiveRequest(start bool) {
	if start {
		HTTPActiveRequests.Inc()
		return
	}
	HTTPActiveRequests.Dec()
}

// RecordRecommendations adds n served books for kind.
func RecordRecommendations(kind string, n int) {
	RecommendationsServed.WithLabelValues(kind).Add(float64(n))
}
