// Package server provides the HTTP server implementation for the evaluator API.
package server

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/agbru/fmmeval/internal/evaluator"
)

// Metrics collects and exposes server metrics in Prometheus format.
// It tracks:
//   - Active requests (gauge)
//   - Total requests (counter)
//   - Server uptime (implicitly via process metrics)
//   - Traversal dispatch counts and evaluate duration, labeled by mode and
//     kernel (derived from evaluator.Stats on every successful evaluation)
//
type Metrics struct {
	handler http.Handler
}

// Prometheus metrics for server-level observability
var (
	activeRequests = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "fmmeval_active_requests",
		Help: "Current number of active requests",
	})
	totalRequests = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fmmeval_requests_total",
		Help: "Total number of requests received",
	})

	pairsVisitedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fmmeval_pairs_visited_total",
		Help: "Total box pairs visited during traversal, labeled by mode and kernel",
	}, []string{"mode", "kernel"})
	farFieldPairsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fmmeval_farfield_pairs_total",
		Help: "Total far-field (M2L/M2P) pairs dispatched, labeled by mode and kernel",
	}, []string{"mode", "kernel"})
	p2pPairsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fmmeval_p2p_pairs_total",
		Help: "Total direct (P2P) pairs dispatched, labeled by mode and kernel",
	}, []string{"mode", "kernel"})
	evaluateDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "fmmeval_evaluate_duration_seconds",
		Help:    "Duration of successful /evaluate requests, labeled by mode and kernel",
		Buckets: prometheus.DefBuckets,
	}, []string{"mode", "kernel"})
)

// ObserveEvaluation records the dispatch statistics and wall-clock duration
// of a single completed evaluation, so traversal behavior (P2P vs far-field
// mix, pairs visited) is visible in /metrics rather than only in a single
// request's JSON response.
func (m *Metrics) ObserveEvaluation(stats evaluator.Stats, mode, kernel string, duration time.Duration) {
	pairsVisitedTotal.WithLabelValues(mode, kernel).Add(float64(stats.PairsVisited))
	farFieldPairsTotal.WithLabelValues(mode, kernel).Add(float64(stats.FarField))
	p2pPairsTotal.WithLabelValues(mode, kernel).Add(float64(stats.P2P))
	evaluateDuration.WithLabelValues(mode, kernel).Observe(duration.Seconds())
}

// NewMetrics creates a new Metrics instance.
func NewMetrics() *Metrics {
	return &Metrics{
		handler: promhttp.Handler(),
	}
}

// IncrementActiveRequests increments the active requests gauge
// and the total requests counter.
func (m *Metrics) IncrementActiveRequests() {
	activeRequests.Inc()
	totalRequests.Inc()
}

// DecrementActiveRequests decrements the active requests gauge.
func (m *Metrics) DecrementActiveRequests() {
	activeRequests.Dec()
}

// WritePrometheus writes metrics in Prometheus text format to the HTTP response.
//
// Parameters:
//   - w: The writer to output metrics to.
//   - r: The original HTTP request.
func (m *Metrics) WritePrometheus(w http.ResponseWriter, r *http.Request) {
	m.handler.ServeHTTP(w, r)
}

// handleMetrics is the HTTP handler for the /metrics endpoint.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	s.metrics.WritePrometheus(w, r)
}

// metricsMiddleware tracks active requests.
func (s *Server) metricsMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.metrics.IncrementActiveRequests()
		defer s.metrics.DecrementActiveRequests()
		next(w, r)
	}
}
