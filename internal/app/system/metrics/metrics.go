// Package metrics registers the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestTotal counts HTTP requests by method, route pattern and status.
	RequestTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "collabhub_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)
	// RequestDuration is the latency of HTTP requests.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "collabhub_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
	// AuthEvents counts authentication events (login, logout, register, refresh).
	AuthEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "collabhub_auth_events_total",
			Help: "Total number of authentication events",
		},
		[]string{"event", "outcome"},
	)
	// Operations counts domain writes (project_create, task_delete, ...).
	Operations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "collabhub_operations_total",
			Help: "Total number of project and task operations",
		},
		[]string{"operation", "outcome"},
	)
)

// Outcome labels.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomeDenied  = "denied"
)

// CountOp records one operation with an outcome derived from err.
func CountOp(operation string, err error, denied bool) {
	switch {
	case denied:
		Operations.WithLabelValues(operation, OutcomeDenied).Inc()
	case err != nil:
		Operations.WithLabelValues(operation, OutcomeFailure).Inc()
	default:
		Operations.WithLabelValues(operation, OutcomeSuccess).Inc()
	}
}
