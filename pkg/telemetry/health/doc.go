// Package health serves liveness, readiness and version endpoints next to
// the metrics endpoint of a long-running curator process.
//
//   - /health: the process is up
//   - /ready: every registered check passes (store reachable, media server
//     answering)
//   - /version: build information
//
// Checks run concurrently, each bounded by the checker's timeout. A failed
// check makes /ready answer 503 with the failing component's message.
package health
