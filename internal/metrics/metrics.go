// Package metrics exposes the service's Prometheus vectors, generalized from
// the teacher's auth/token metrics into the token-store domain.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registered = false

	tokenOperations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tokserver_token_operations_total",
			Help: "Total number of token store operations by kind and result.",
		},
		[]string{"operation", "result"},
	)

	activeTokens = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "tokserver_active_tokens",
			Help: "Number of currently live (non-expired) tokens.",
		},
		[]string{},
	)

	purgeRemoved = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tokserver_purge_removed_total",
			Help: "Total number of entries evicted by the purge scheduler.",
		},
		[]string{},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tokserver_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12),
		},
		[]string{"route", "method", "status"},
	)
)

// Register registers all vectors with the default registry. Idempotent.
func Register() {
	if registered {
		return
	}
	prometheus.MustRegister(tokenOperations, activeTokens, purgeRemoved, httpRequestDuration)
	registered = true
}

// Handler returns the Prometheus scrape handler for GET /metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordTokenOperation increments the operation/result counter for create,
// rotate, or remove.
func RecordTokenOperation(operation, result string) {
	tokenOperations.WithLabelValues(operation, result).Inc()
}

// SetActiveTokens sets the active-token gauge, called after each purge tick
// and after each create, rotate, and remove.
func SetActiveTokens(count float64) {
	activeTokens.WithLabelValues().Set(count)
}

// RecordPurge adds removed to the cumulative purge counter.
func RecordPurge(removed int) {
	purgeRemoved.WithLabelValues().Add(float64(removed))
}

// ObserveHTTPRequest records one HTTP request's duration.
func ObserveHTTPRequest(route, method, status string, d time.Duration) {
	httpRequestDuration.WithLabelValues(route, method, status).Observe(d.Seconds())
}
