// Package tracing exports OpenTelemetry spans for curator's scheduled work.
//
// A run of the rule handler or the collection handler is one trace. The job
// span is the root; each rule group evaluation and each expired item removal
// is a child span. Spans are exported over OTLP gRPC.
//
//	tracer, err := tracing.New(&cfg.Telemetry.Tracing, version)
//	defer tracer.Shutdown(context.Background())
//
//	ctx, span := tracer.Start(ctx, "rules.evaluate_group",
//		trace.WithAttributes(tracing.GroupAttributes("old-movies", "1")...))
//	defer span.End()
//
// A nil *Tracer, or one built from a disabled configuration, hands out
// no-op spans.
package tracing
