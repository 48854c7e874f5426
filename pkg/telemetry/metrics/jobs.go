package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// JobMetrics tracks scheduled jobs.
//
// Metrics:
//   - curator_job_runs_total: runs by job and status
//   - curator_job_duration_seconds: run duration by job
//   - curator_job_running: 1 while a job runs
type JobMetrics struct {
	runsTotal *prometheus.CounterVec
	duration  *prometheus.HistogramVec
	running   *prometheus.GaugeVec
}

// NewJobMetrics creates and registers job metrics.
func NewJobMetrics(namespace string, registry *prometheus.Registry) *JobMetrics {
	jm := &JobMetrics{
		runsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "job",
				Name:      "runs_total",
				Help:      "Total number of scheduled job runs",
			},
			[]string{"job", "status"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "job",
				Name:      "duration_seconds",
				Help:      "Duration of scheduled job runs in seconds",
				Buckets:   prometheus.ExponentialBuckets(1, 2, 12), // 1s to ~34m
			},
			[]string{"job"},
		),
		running: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "job",
				Name:      "running",
				Help:      "Whether a scheduled job is currently running",
			},
			[]string{"job"},
		),
	}
	registry.MustRegister(jm.runsTotal, jm.duration, jm.running)
	return jm
}

// Started sets the running gauge of job.
func (jm *JobMetrics) Started(job string) {
	jm.running.WithLabelValues(job).Set(1)
}

// Finished records a completed run and clears the running gauge.
func (jm *JobMetrics) Finished(job, status string, duration time.Duration) {
	jm.running.WithLabelValues(job).Set(0)
	jm.runsTotal.WithLabelValues(job, status).Inc()
	jm.duration.WithLabelValues(job).Observe(duration.Seconds())
}
