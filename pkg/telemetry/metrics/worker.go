package metrics

import "github.com/prometheus/client_golang/prometheus"

// WorkerMetrics tracks the removal worker.
//
// Metrics:
//   - curator_worker_removal_steps_total: removal steps by step and outcome
//   - curator_worker_expired_items_total: expired items by collection
type WorkerMetrics struct {
	stepsTotal   *prometheus.CounterVec
	expiredTotal *prometheus.CounterVec
}

// NewWorkerMetrics creates and registers worker metrics.
func NewWorkerMetrics(namespace string, registry *prometheus.Registry) *WorkerMetrics {
	wm := &WorkerMetrics{
		stepsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "worker",
				Name:      "removal_steps_total",
				Help:      "Total number of removal steps by step and outcome",
			},
			[]string{"step", "outcome"},
		),
		expiredTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "worker",
				Name:      "expired_items_total",
				Help:      "Total number of expired collection items handled",
			},
			[]string{"collection"},
		),
	}
	registry.MustRegister(wm.stepsTotal, wm.expiredTotal)
	return wm
}

// RecordStep counts one removal step.
func (wm *WorkerMetrics) RecordStep(step, outcome string) {
	wm.stepsTotal.WithLabelValues(step, outcome).Inc()
}

// RecordExpired counts expired items of a collection.
func (wm *WorkerMetrics) RecordExpired(collection string, n int) {
	wm.expiredTotal.WithLabelValues(collection).Add(float64(n))
}
