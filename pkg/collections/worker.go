package collections

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"curator-hq/curator/pkg/clients"
	"curator-hq/curator/pkg/media"
	"curator-hq/curator/pkg/store"
	"curator-hq/curator/pkg/telemetry/metrics"
	"curator-hq/curator/pkg/telemetry/tracing"

	"github.com/dustin/go-humanize"
	"go.opentelemetry.io/otel/trace"
)

// Step names one stage of removing an expired item.
type Step string

const (
	StepStore       Step = "store"
	StepManager     Step = "manager"
	StepRequests    Step = "requests"
	StepMediaServer Step = "media_server"
)

// errSkipped marks a step with nothing to do.
var errSkipped = errors.New("skipped")

// StepResult is the outcome of one step for one item.
type StepResult struct {
	Step    Step
	Outcome string
	Err     error
}

// ItemReport lists the steps run for one expired item.
type ItemReport struct {
	Collection    string
	MediaServerID string
	AddDate       time.Time
	Steps         []StepResult
}

// Failed reports whether any step failed.
func (r ItemReport) Failed() bool {
	for _, s := range r.Steps {
		if s.Err != nil {
			return true
		}
	}
	return false
}

// Report summarizes a worker run.
type Report struct {
	Collections int
	Items       []ItemReport
}

// Expired is a tracked item past its deadline.
type Expired struct {
	Collection store.Collection
	Media      store.CollectionMedia
	Deadline   time.Time
}

// WorkerDeps are the external applications the worker removes items from.
// A nil field skips the corresponding step.
type WorkerDeps struct {
	Radarr    MediaManager
	Sonarr    MediaManager
	Overseerr RequestTracker
	Plex      MediaDeleter
}

// Worker removes expired items from collections and the applications
// holding them.
type Worker struct {
	store        store.Store
	materializer *Materializer
	deps         WorkerDeps
	metrics      *metrics.Collector
	tracer       *tracing.Tracer
	logger       *slog.Logger
	now          func() time.Time
}

// NewWorker creates a worker.
func NewWorker(st store.Store, materializer *Materializer, deps WorkerDeps, collector *metrics.Collector, tracer *tracing.Tracer) *Worker {
	return &Worker{
		store:        st,
		materializer: materializer,
		deps:         deps,
		metrics:      collector,
		tracer:       tracer,
		logger:       slog.Default().With("component", "collections.worker"),
		now:          time.Now,
	}
}

// Expired lists the items of active collections whose retention window has
// passed, without changing anything.
func (w *Worker) Expired(ctx context.Context) ([]Expired, error) {
	cols, err := w.store.ListCollections(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("listing collections: %w", err)
	}
	now := w.now()
	var out []Expired
	for _, col := range cols {
		if col.DeleteAfterDays <= 0 {
			continue
		}
		rows, err := w.store.ListCollectionMedia(ctx, col.ID)
		if err != nil {
			w.logger.ErrorContext(ctx, "listing collection items failed", "collection", col.Title, "error", err)
			continue
		}
		for _, row := range rows {
			deadline := row.Deadline(col.DeleteAfterDays)
			if deadline.Before(now) {
				out = append(out, Expired{Collection: col, Media: row, Deadline: deadline})
			}
		}
	}
	return out, nil
}

// Run removes every expired item. Failures of single steps are logged and
// reported; only a failure to list collections is returned as an error.
// Cancelling ctx stops the run between items.
func (w *Worker) Run(ctx context.Context) (*Report, error) {
	expired, err := w.Expired(ctx)
	if err != nil {
		return nil, err
	}

	report := &Report{}
	seen := make(map[int64]bool)
	for _, e := range expired {
		if !seen[e.Collection.ID] {
			seen[e.Collection.ID] = true
			report.Collections++
			w.metrics.RecordExpired(e.Collection.Title, w.countFor(expired, e.Collection.ID))
		}
	}

	for _, e := range expired {
		if err := ctx.Err(); err != nil {
			w.logger.WarnContext(ctx, "worker run cancelled", "remaining", len(expired)-len(report.Items))
			break
		}
		report.Items = append(report.Items, w.remove(ctx, e))
	}

	failed := 0
	for _, item := range report.Items {
		if item.Failed() {
			failed++
		}
	}
	w.logger.InfoContext(ctx, "collection handler finished",
		"collections", report.Collections,
		"expired", len(report.Items),
		"with_failures", failed,
	)
	return report, nil
}

func (w *Worker) countFor(expired []Expired, collectionID int64) int {
	n := 0
	for _, e := range expired {
		if e.Collection.ID == collectionID {
			n++
		}
	}
	return n
}

// remove runs every step for one item. Each step runs regardless of the
// outcome of the previous ones.
func (w *Worker) remove(ctx context.Context, e Expired) ItemReport {
	ctx, span := w.tracer.Start(ctx, "worker.remove_item",
		trace.WithAttributes(tracing.ItemAttributes(e.Collection.Title, e.Media.MediaServerID)...))

	w.logger.InfoContext(ctx, "removing expired item",
		"collection", e.Collection.Title,
		"item", e.Media.MediaServerID,
		"added", humanize.Time(e.Media.AddDate),
		"expired", humanize.Time(e.Deadline),
	)

	report := ItemReport{
		Collection:    e.Collection.Title,
		MediaServerID: e.Media.MediaServerID,
		AddDate:       e.Media.AddDate,
	}
	steps := []struct {
		step Step
		run  func(context.Context, Expired) error
	}{
		{StepStore, w.untrack},
		{StepManager, w.removeFromManager},
		{StepRequests, w.removeRequests},
		{StepMediaServer, w.deleteMedia},
	}
	var errs []error
	for _, s := range steps {
		res := StepResult{Step: s.step, Outcome: metrics.StatusSuccess}
		switch err := s.run(ctx, e); {
		case errors.Is(err, errSkipped):
			res.Outcome = metrics.StatusSkipped
		case err != nil:
			res.Outcome = metrics.StatusError
			res.Err = err
			errs = append(errs, err)
			w.logger.ErrorContext(ctx, "removal step failed",
				"step", string(s.step),
				"collection", e.Collection.Title,
				"item", e.Media.MediaServerID,
				"error", err,
			)
		}
		w.metrics.RecordRemovalStep(string(s.step), res.Outcome)
		report.Steps = append(report.Steps, res)
	}
	tracing.Finish(span, errors.Join(errs...))
	return report
}

func (w *Worker) untrack(ctx context.Context, e Expired) error {
	col := e.Collection
	return w.materializer.untrack(ctx, &col, e.Media)
}

func (w *Worker) managerFor(kind media.Kind) MediaManager {
	if kind == media.KindShow {
		return w.deps.Sonarr
	}
	return w.deps.Radarr
}

func (w *Worker) removeFromManager(ctx context.Context, e Expired) error {
	mgr := w.managerFor(e.Collection.Type)
	if mgr == nil {
		return errSkipped
	}
	id, err := mgr.FindID(ctx, e.Media.TmdbID, e.Media.TvdbID)
	if clients.IsNotFound(err) {
		w.logger.DebugContext(ctx, "item not found in manager", "item", e.Media.MediaServerID)
		return errSkipped
	}
	if err != nil {
		return err
	}
	if e.Collection.ManagerAction == store.ManagerUnmonitor {
		return mgr.Unmonitor(ctx, id)
	}
	return mgr.Delete(ctx, id)
}

func (w *Worker) removeRequests(ctx context.Context, e Expired) error {
	if w.deps.Overseerr == nil || e.Media.TmdbID == 0 {
		return errSkipped
	}
	m, err := w.deps.Overseerr.GetMedia(ctx, e.Collection.Type, e.Media.TmdbID)
	if clients.IsNotFound(err) {
		return errSkipped
	}
	if err != nil {
		return err
	}
	if m.MediaInfo == nil {
		return errSkipped
	}
	for _, req := range m.MediaInfo.Requests {
		if err := w.deps.Overseerr.DeleteRequest(ctx, req.ID); err != nil && !clients.IsNotFound(err) {
			return err
		}
	}
	if err := w.deps.Overseerr.DeleteMedia(ctx, m.MediaInfo.ID); err != nil && !clients.IsNotFound(err) {
		return err
	}
	return nil
}

func (w *Worker) deleteMedia(ctx context.Context, e Expired) error {
	if w.deps.Plex == nil {
		return errSkipped
	}
	err := w.deps.Plex.DeleteMediaItem(ctx, e.Media.MediaServerID)
	if clients.IsNotFound(err) {
		return errSkipped
	}
	return err
}
