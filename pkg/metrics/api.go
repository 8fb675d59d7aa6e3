package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// APIMetrics records request latency plus activation/validation outcomes.
type APIMetrics struct {
	duration *prometheus.HistogramVec
	requests *prometheus.CounterVec
	outcomes *prometheus.CounterVec
}

// NewAPIMetrics registers the API metrics on the provided registerer.
func NewAPIMetrics(reg prometheus.Registerer) *APIMetrics {
	if reg == nil {
		return &APIMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "HTTP requests by route and status class.",
	}, []string{"route", "status"})
	outcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "license_check_outcomes_total",
		Help: "Activation/validation outcomes by operation and result code.",
	}, []string{"operation", "code"})
	reg.MustRegister(duration, requests, outcomes)
	return &APIMetrics{
		duration: duration,
		requests: requests,
		outcomes: outcomes,
	}
}

// ObserveRequest records one served HTTP request.
func (m *APIMetrics) ObserveRequest(route, status string, elapsed time.Duration) {
	if m == nil || m.duration == nil {
		return
	}
	m.duration.WithLabelValues(normalizeLabel(route)).Observe(elapsed.Seconds())
	m.requests.WithLabelValues(normalizeLabel(route), normalizeLabel(status)).Inc()
}

// IncOutcome counts one activation or validation result. Successful calls use
// code "OK"; rejections use the stable error code.
func (m *APIMetrics) IncOutcome(operation, code string) {
	if m == nil || m.outcomes == nil {
		return
	}
	m.outcomes.WithLabelValues(normalizeLabel(operation), normalizeLabel(code)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
