package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// RuleMetrics tracks rule group evaluation and collection membership.
//
// Metrics:
//   - curator_rules_evaluations_total: evaluations by group and status
//   - curator_rules_evaluation_duration_seconds: evaluation duration by group
//   - curator_rules_matched_items: items matched by the last evaluation
//   - curator_rules_collection_changes_total: items added or removed
type RuleMetrics struct {
	evaluationsTotal   *prometheus.CounterVec
	evaluationDuration *prometheus.HistogramVec
	matchedItems       *prometheus.GaugeVec
	collectionChanges  *prometheus.CounterVec
}

// NewRuleMetrics creates and registers rule metrics.
func NewRuleMetrics(namespace string, registry *prometheus.Registry) *RuleMetrics {
	rm := &RuleMetrics{
		evaluationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "rules",
				Name:      "evaluations_total",
				Help:      "Total number of rule group evaluations",
			},
			[]string{"group", "status"},
		),
		evaluationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "rules",
				Name:      "evaluation_duration_seconds",
				Help:      "Duration of rule group evaluations in seconds",
				// Evaluations page through whole libraries and call remote APIs.
				Buckets: []float64{0.5, 1, 5, 15, 30, 60, 180, 600, 1800},
			},
			[]string{"group"},
		),
		matchedItems: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "rules",
				Name:      "matched_items",
				Help:      "Number of items matched by the last evaluation of a rule group",
			},
			[]string{"group"},
		),
		collectionChanges: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "rules",
				Name:      "collection_changes_total",
				Help:      "Total number of items added to or removed from collections",
			},
			[]string{"collection", "change"},
		),
	}

	registry.MustRegister(
		rm.evaluationsTotal,
		rm.evaluationDuration,
		rm.matchedItems,
		rm.collectionChanges,
	)
	return rm
}

// RecordEvaluation records one evaluation. The matched gauge is only
// updated by successful evaluations.
func (rm *RuleMetrics) RecordEvaluation(group, status string, duration time.Duration, matched int) {
	rm.evaluationsTotal.WithLabelValues(group, status).Inc()
	rm.evaluationDuration.WithLabelValues(group).Observe(duration.Seconds())
	if status == StatusSuccess {
		rm.matchedItems.WithLabelValues(group).Set(float64(matched))
	}
}

// RecordCollectionChange adds n to the change counter of a collection.
func (rm *RuleMetrics) RecordCollectionChange(collection, change string, n int) {
	rm.collectionChanges.WithLabelValues(collection, change).Add(float64(n))
}
