package httpx

import (
	"net/http"
	"time"

	"smartlibrary/internal/metrics"
)

// MetricsMiddleware records request counts and latency by route pattern. It
// must wrap the ServeMux directly so the matched pattern is visible after the
// handler returns.
func MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		metrics.TrackActiveRequest(true)
		defer metrics.TrackActiveRequest(false)

		start := time.Now()
		rw := wrapResponseWriter(w)
		next.ServeHTTP(rw, r)

		metrics.RecordHTTPRequest(r.Method, r.Pattern, rw.statusCode, time.Since(start))
	})
}
