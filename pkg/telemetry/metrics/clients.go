package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ClientMetrics tracks HTTP attempts against external applications.
//
// Metrics:
//   - curator_client_requests_total: attempts by client and status code
//   - curator_client_request_duration_seconds: attempt latency by client
type ClientMetrics struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

// NewClientMetrics creates and registers client metrics.
func NewClientMetrics(namespace string, registry *prometheus.Registry) *ClientMetrics {
	cm := &ClientMetrics{
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "client",
				Name:      "requests_total",
				Help:      "Total number of HTTP attempts against external applications",
			},
			[]string{"client", "code"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "client",
				Name:      "request_duration_seconds",
				Help:      "Latency of HTTP attempts against external applications",
				Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
			[]string{"client"},
		),
	}
	registry.MustRegister(cm.requestsTotal, cm.requestDuration)
	return cm
}

// Observe records one attempt.
func (cm *ClientMetrics) Observe(client, code string, duration time.Duration) {
	cm.requestsTotal.WithLabelValues(client, code).Inc()
	cm.requestDuration.WithLabelValues(client).Observe(duration.Seconds())
}
