package tracing

import (
	"context"
	"errors"
	"testing"

	"curator-hq/curator/pkg/config"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

func testConfig() *config.TracingConfig {
	return &config.TracingConfig{
		Enabled:     true,
		ServiceName: "curator-test",
		Sampler:     SamplerAlways,
		SampleRatio: 1,
	}
}

func TestNew_Disabled(t *testing.T) {
	tracer, err := New(&config.TracingConfig{Enabled: false}, "dev")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if tracer.Enabled() {
		t.Error("disabled tracer reports enabled")
	}

	_, span := tracer.Start(context.Background(), "noop")
	if span.SpanContext().IsValid() {
		t.Error("disabled tracer produced a recording span")
	}
	span.End()

	if err := tracer.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown() error = %v", err)
	}
}

func TestNew_NilConfig(t *testing.T) {
	if _, err := New(nil, "dev"); err == nil {
		t.Error("New(nil) returned no error")
	}
	if _, err := NewWithExporter(nil, "dev", tracetest.NewInMemoryExporter()); err == nil {
		t.Error("NewWithExporter(nil) returned no error")
	}
}

func TestNewWithExporter_InvalidSampler(t *testing.T) {
	cfg := testConfig()
	cfg.Sampler = "sometimes"
	if _, err := NewWithExporter(cfg, "dev", tracetest.NewInMemoryExporter()); err == nil {
		t.Error("NewWithExporter() accepted an unknown sampler")
	}
}

func TestTracer_ExportsSpans(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tracer, err := NewWithExporter(testConfig(), "1.2.3", exporter)
	if err != nil {
		t.Fatalf("NewWithExporter() error = %v", err)
	}
	defer tracer.Shutdown(context.Background())

	ctx, job := tracer.Start(context.Background(), "job.rule-handler",
		trace.WithAttributes(JobAttributes("rule-handler", "run-1")...))
	if TraceID(ctx) == "" {
		t.Error("TraceID() is empty inside a span")
	}

	_, group := tracer.Start(ctx, "rules.evaluate_group",
		trace.WithAttributes(GroupAttributes("old-movies", "1")...))
	group.SetAttributes(ResultAttributes(3, 2)...)
	Finish(group, errors.New("library unavailable"))
	Finish(job, nil)

	spans := exporter.GetSpans()
	if len(spans) != 2 {
		t.Fatalf("exported %d spans, want 2", len(spans))
	}

	child, root := spans[0], spans[1]
	if child.Parent.SpanID() != root.SpanContext.SpanID() {
		t.Error("group span is not a child of the job span")
	}
	if child.Status.Code != codes.Error || root.Status.Code != codes.Ok {
		t.Errorf("statuses = %v/%v, want Error/Ok", child.Status.Code, root.Status.Code)
	}
	if len(child.Events) != 1 {
		t.Errorf("child events = %d, want the recorded error", len(child.Events))
	}

	want := attribute.String(AttrGroup, "old-movies")
	found := false
	for _, kv := range child.Attributes {
		if kv == want {
			found = true
		}
	}
	if !found {
		t.Errorf("attributes %v missing %v", child.Attributes, want)
	}

	if v, ok := root.Resource.Set().Value("service.version"); !ok || v.AsString() != "1.2.3" {
		t.Errorf("service.version = %v", v)
	}
}

func TestTracer_NilIsNoop(t *testing.T) {
	var tracer *Tracer
	_, span := tracer.Start(context.Background(), "noop")
	Finish(span, nil)
	if tracer.Enabled() {
		t.Error("nil tracer reports enabled")
	}
	if err := tracer.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown() error = %v", err)
	}
}

func TestTraceID_NoSpan(t *testing.T) {
	if id := TraceID(context.Background()); id != "" {
		t.Errorf("TraceID() = %q, want empty", id)
	}
}
