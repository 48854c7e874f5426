// Package telemetry groups curator's observability packages.
//
//   - logging: slog construction, run and job context, secret redaction
//   - metrics: Prometheus collectors for evaluations, removals, jobs and API
//     clients
//   - tracing: OpenTelemetry spans for scheduled runs
//   - health: liveness, readiness and version endpoints
package telemetry
