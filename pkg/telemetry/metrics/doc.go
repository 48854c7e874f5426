// Package metrics exposes Prometheus metrics for curator.
//
// # Metrics Categories
//
//   - Rule metrics: rule group evaluations, their duration and the number of
//     matched items, plus items added to or removed from collections
//   - Worker metrics: outcome of every removal step and expired items handled
//   - Job metrics: scheduled job runs, their duration and whether a job is
//     currently running
//   - Client metrics: HTTP attempts against the media server and the
//     manager and request applications
//
// # Usage
//
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//	collector.RecordEvaluation("old-movies", metrics.StatusSuccess, time.Second, 12)
//	http.Handle(cfg.Telemetry.Metrics.Path, collector.Handler())
//
// A nil *Collector, or one created with metrics disabled, accepts every call
// and records nothing, so callers never need to check.
//
// # Cardinality
//
// Group and collection names are user supplied. Label sets beyond the
// limiter's capacity are folded into the "other" label value.
package metrics
