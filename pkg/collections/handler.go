package collections

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"curator-hq/curator/pkg/rules/engine"
	"curator-hq/curator/pkg/rules/manager"
	"curator-hq/curator/pkg/store"
	"curator-hq/curator/pkg/telemetry/metrics"
	"curator-hq/curator/pkg/telemetry/tracing"

	"go.opentelemetry.io/otel/trace"
)

// GroupOutcome is the result of evaluating one rule group.
type GroupOutcome struct {
	Group      string
	Collection string
	Matched    int
	Pages      int
	Sync       *SyncReport
	Duration   time.Duration
	Err        error
}

// RuleHandler evaluates rule groups and syncs their collections.
type RuleHandler struct {
	manager      *manager.Manager
	store        store.Store
	evaluator    *engine.Evaluator
	sources      Resetter
	materializer *Materializer
	metrics      *metrics.Collector
	tracer       *tracing.Tracer
	logger       *slog.Logger
}

// NewRuleHandler creates a rule handler. sources, if not nil, is reset at
// the start of every run.
func NewRuleHandler(mgr *manager.Manager, st store.Store, evaluator *engine.Evaluator, sources Resetter, materializer *Materializer, collector *metrics.Collector, tracer *tracing.Tracer) *RuleHandler {
	return &RuleHandler{
		manager:      mgr,
		store:        st,
		evaluator:    evaluator,
		sources:      sources,
		materializer: materializer,
		metrics:      collector,
		tracer:       tracer,
		logger:       slog.Default().With("component", "collections.rules"),
	}
}

// Run evaluates every active rule group, or only the named ones, and syncs
// their collections. A failing group does not stop the others; the returned
// error joins every group failure.
func (h *RuleHandler) Run(ctx context.Context, names ...string) ([]GroupOutcome, error) {
	groups, err := h.manager.Groups(ctx, true)
	if err != nil {
		return nil, err
	}
	if len(names) > 0 {
		groups = slices.DeleteFunc(groups, func(g store.RuleGroup) bool {
			return !slices.Contains(names, g.Name)
		})
		if len(groups) == 0 {
			return nil, fmt.Errorf("no active rule group named %v", names)
		}
	}

	if h.sources != nil {
		h.sources.Reset()
	}

	var (
		outcomes = make([]GroupOutcome, 0, len(groups))
		errs     []error
	)
	for _, g := range groups {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		out := h.runGroup(ctx, g)
		if out.Err != nil {
			errs = append(errs, fmt.Errorf("rule group %q: %w", g.Name, out.Err))
		}
		outcomes = append(outcomes, out)
	}

	h.logger.InfoContext(ctx, "rule groups evaluated", "groups", len(outcomes), "failed", len(errs))
	return outcomes, errors.Join(errs...)
}

func (h *RuleHandler) runGroup(ctx context.Context, g store.RuleGroup) (out GroupOutcome) {
	out.Group = g.Name
	start := time.Now()

	ctx, span := h.tracer.Start(ctx, "rules.evaluate_group",
		trace.WithAttributes(tracing.GroupAttributes(g.Name, g.LibraryID)...))
	defer func() {
		out.Duration = time.Since(start)
		status := metrics.StatusSuccess
		switch {
		case out.Err != nil:
			status = metrics.StatusError
		case out.Sync == nil:
			status = metrics.StatusSkipped
		}
		h.metrics.RecordEvaluation(g.Name, status, out.Duration, out.Matched)
		span.SetAttributes(tracing.ResultAttributes(out.Matched, out.Pages)...)
		tracing.Finish(span, out.Err)
	}()

	col, err := h.store.GetCollection(ctx, g.CollectionID)
	if err != nil {
		out.Err = fmt.Errorf("loading collection: %w", err)
		return out
	}
	out.Collection = col.Title
	if !col.IsActive {
		h.logger.InfoContext(ctx, "collection inactive, skipping group", "group", g.Name, "collection", col.Title)
		return out
	}

	result, err := h.Evaluate(ctx, g)
	if err != nil {
		out.Err = err
		h.logger.ErrorContext(ctx, "rule group evaluation failed", "group", g.Name, "error", err)
		return out
	}
	out.Matched = len(result.Items)
	out.Pages = result.Pages

	out.Sync, out.Err = h.materializer.Sync(ctx, col, result.Items)
	return out
}

// Evaluate runs the rules of g against its library without touching the
// collection.
func (h *RuleHandler) Evaluate(ctx context.Context, g store.RuleGroup) (*engine.Result, error) {
	defs, err := h.manager.Definitions(g)
	if err != nil {
		return nil, err
	}
	result, err := h.evaluator.Evaluate(ctx, g.LibraryID, defs)
	if err != nil {
		return nil, err
	}
	h.logger.InfoContext(ctx, "rule group evaluated",
		"group", g.Name,
		"matched", len(result.Items),
		"scanned", result.Scanned,
		"pages", result.Pages,
		"absent_values", result.Skipped,
	)
	return result, nil
}
