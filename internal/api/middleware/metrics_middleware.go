// Package middleware contains HTTP middleware for the API.
package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"norelock.dev/mixtape/backend/internal/services/system"
)

// MetricsMiddleware records request metrics for the API.
type MetricsMiddleware struct {
	metrics *system.MetricsService
}

// NewMetricsMiddleware creates a new metrics middleware.
func NewMetricsMiddleware(metrics *system.MetricsService) *MetricsMiddleware {
	return &MetricsMiddleware{
		metrics: metrics,
	}
}

// Metrics is a middleware that records metrics for HTTP requests.
func (m *MetricsMiddleware) Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		rw := &responseWriter{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		m.metrics.IncHTTPRequestsInProgress()
		defer m.metrics.DecHTTPRequestsInProgress()

		next.ServeHTTP(rw, r)

		// The route pattern keeps path cardinality bounded.
		path := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				path = pattern
			}
		}

		m.metrics.ObserveHTTPRequest(r.Method, path, rw.statusCode, time.Since(start))
	})
}
