package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Search engine Prometheus metrics.
var (
	EngineRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ccdb",
			Name:      "engine_requests_total",
			Help:      "Total number of search engine round-trips",
		},
		[]string{"operation", "status"},
	)

	EngineRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "ccdb",
			Name:      "engine_request_duration_seconds",
			Help:      "Search engine round-trip duration in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"operation"},
	)
)

// Export Prometheus metrics.
var (
	ExportsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ccdb",
			Name:      "exports_total",
			Help:      "Total number of exports by outcome",
		},
		[]string{"format", "outcome"}, // "completed" / "aborted" / "failed"
	)

	ExportRowsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ccdb",
			Name:      "export_rows_total",
			Help:      "Total number of exported rows",
		},
		[]string{"format"},
	)
)

// Throttle Prometheus metrics.
var ThrottleDecisionsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "ccdb",
		Name:      "throttle_decisions_total",
		Help:      "Rate limit decisions",
	},
	[]string{"classification", "endpoint", "decision"}, // "allowed" / "throttled"
)

var registerOnce sync.Once

// RegisterDomainMetrics registers engine, export and throttle metrics. Safe to call more than once.
func RegisterDomainMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(EngineRequestsTotal)
		prometheus.MustRegister(EngineRequestDuration)
		prometheus.MustRegister(ExportsTotal)
		prometheus.MustRegister(ExportRowsTotal)
		prometheus.MustRegister(ThrottleDecisionsTotal)
	})
}
