package request

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	EndpointLatency *prometheus.HistogramVec
}

func NewMetrics() *Metrics {
	return &Metrics{
		EndpointLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "arefa_http_request_duration_seconds",
			Help:    "Latency of HTTP endpoints in seconds, by route pattern",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"method", "route", "status"}),
	}
}

func (m *Metrics) ObserveEndpointLatency(method, route string, status int, durationSeconds float64) {
	m.EndpointLatency.WithLabelValues(method, route, http.StatusText(status)).Observe(durationSeconds)
}

// LatencyMiddleware observes latency by chi route pattern so that record ids
// do not end up as label values.
func LatencyMiddleware(m *Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(wrapped, r)
			if m == nil {
				return
			}
			route := "unmatched"
			if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
				route = rctx.RoutePattern()
			}
			m.ObserveEndpointLatency(r.Method, route, wrapped.statusCode, time.Since(start).Seconds())
		})
	}
}
