// Package server exposes sweep telemetry over HTTP while a sweep runs:
// Prometheus metrics, a health check, and the current sweep progress.
package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	activeRequests = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "parsort_http_active_requests",
		Help: "Current number of active telemetry requests",
	})
	totalRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "parsort_http_requests_total",
		Help: "Telemetry requests received, by path",
	}, []string{"path"})
)

// metricsHandler serves the default Prometheus registry, which holds the
// pool and sweep collectors.
func metricsHandler() http.Handler {
	return promhttp.Handler()
}

// instrument counts requests to path.
func instrument(path string, next http.HandlerFunc) http.HandlerFunc {
	counter := totalRequests.WithLabelValues(path)
	return func(w http.ResponseWriter, r *http.Request) {
		activeRequests.Inc()
		defer activeRequests.Dec()
		counter.Inc()
		next(w, r)
	}
}
