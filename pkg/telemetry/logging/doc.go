// Package logging builds the process logger on top of log/slog.
//
// Loggers returned by New read run metadata from the context: a record
// logged with InfoContext(ctx, ...) carries the run_id and job stored with
// WithRunID and WithJob. Secret attributes (API keys, tokens) are masked
// before they reach the output when redaction is enabled.
//
// Components derive their logger from the default one:
//
//	logger := slog.Default().With("component", "collections.worker")
//	logger.InfoContext(ctx, "collection processed", "collection", c.Title)
//
// NewCronLogger adapts a slog logger to the cron scheduler's logger
// interface.
package logging
