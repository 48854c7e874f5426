package collections

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"curator-hq/curator/pkg/media"
	"curator-hq/curator/pkg/store"
	"curator-hq/curator/pkg/telemetry/metrics"
)

// SyncReport summarizes one collection sync.
type SyncReport struct {
	Added   int
	Removed int
	Kept    int
}

// Materializer writes evaluation results into collections.
type Materializer struct {
	store   store.Store
	library LibraryCollections
	metrics *metrics.Collector
	logger  *slog.Logger
	now     func() time.Time
}

// NewMaterializer creates a materializer. A nil library leaves the library
// server's collections alone.
func NewMaterializer(st store.Store, library LibraryCollections, collector *metrics.Collector) *Materializer {
	return &Materializer{
		store:   st,
		library: library,
		metrics: collector,
		logger:  slog.Default().With("component", "collections.materializer"),
		now:     time.Now,
	}
}

// Sync makes items the rule-driven membership of col. New items are tracked
// from now, tracked items missing from items are dropped unless they were
// added manually. Per-item failures are logged and returned joined after
// every item has been tried.
func (m *Materializer) Sync(ctx context.Context, col *store.Collection, items []media.Item) (*SyncReport, error) {
	rows, err := m.store.ListCollectionMedia(ctx, col.ID)
	if err != nil {
		return nil, fmt.Errorf("listing items of collection %q: %w", col.Title, err)
	}
	tracked := make(map[string]store.CollectionMedia, len(rows))
	for _, row := range rows {
		tracked[row.MediaServerID] = row
	}

	if len(items) > 0 {
		m.ensureLibraryCollection(ctx, col)
	}

	var (
		report  SyncReport
		errs    []error
		matched = make(map[string]bool, len(items))
		now     = m.now()
	)
	for _, item := range items {
		matched[item.ID] = true
		if _, ok := tracked[item.ID]; ok {
			report.Kept++
			continue
		}
		row := &store.CollectionMedia{
			CollectionID:  col.ID,
			MediaServerID: item.ID,
			TmdbID:        item.TmdbID(),
			TvdbID:        item.TvdbID(),
			AddDate:       now,
		}
		created, err := m.store.AddCollectionMedia(ctx, row)
		if err != nil {
			errs = append(errs, fmt.Errorf("tracking %s: %w", item.ID, err))
			continue
		}
		if !created {
			report.Kept++
			continue
		}
		report.Added++
		m.addToLibrary(ctx, col, item.ID)
	}

	for _, row := range rows {
		if matched[row.MediaServerID] {
			continue
		}
		if row.IsManual {
			report.Kept++
			continue
		}
		if err := m.untrack(ctx, col, row); err != nil {
			errs = append(errs, err)
			continue
		}
		report.Removed++
	}

	col.LastEvaluatedAt = now
	if err := m.store.UpdateCollection(ctx, col); err != nil {
		errs = append(errs, fmt.Errorf("updating collection %q: %w", col.Title, err))
	}

	m.metrics.RecordCollectionChange(col.Title, metrics.ChangeAdded, report.Added)
	m.metrics.RecordCollectionChange(col.Title, metrics.ChangeRemoved, report.Removed)
	m.logger.InfoContext(ctx, "collection synced",
		"collection", col.Title,
		"added", report.Added,
		"removed", report.Removed,
		"kept", report.Kept,
	)
	return &report, errors.Join(errs...)
}

// AddManual tracks item in a collection as manually added. Manual items are
// never dropped by Sync but expire like any other item. The returned bool is
// false when the collection already tracked the item.
func (m *Materializer) AddManual(ctx context.Context, collectionID int64, item media.Item) (*store.CollectionMedia, bool, error) {
	col, err := m.store.GetCollection(ctx, collectionID)
	if err != nil {
		return nil, false, fmt.Errorf("loading collection %d: %w", collectionID, err)
	}
	if item.Kind != "" && col.Type != "" && item.Kind != col.Type {
		return nil, false, fmt.Errorf("collection %q holds %ss, item %s is a %s", col.Title, col.Type, item.ID, item.Kind)
	}

	row := &store.CollectionMedia{
		CollectionID:  col.ID,
		MediaServerID: item.ID,
		TmdbID:        item.TmdbID(),
		TvdbID:        item.TvdbID(),
		AddDate:       m.now(),
		IsManual:      true,
	}
	created, err := m.store.AddCollectionMedia(ctx, row)
	if err != nil {
		return nil, false, fmt.Errorf("tracking %s: %w", item.ID, err)
	}
	if created {
		m.ensureLibraryCollection(ctx, col)
		m.addToLibrary(ctx, col, item.ID)
		m.metrics.RecordCollectionChange(col.Title, metrics.ChangeAdded, 1)
		m.logger.InfoContext(ctx, "item added manually", "collection", col.Title, "item", item.ID)
	}
	return row, created, nil
}

// RemoveItem stops tracking an item and removes it from the library
// collection. The media itself is left alone.
func (m *Materializer) RemoveItem(ctx context.Context, collectionID int64, mediaServerID string) error {
	col, err := m.store.GetCollection(ctx, collectionID)
	if err != nil {
		return fmt.Errorf("loading collection %d: %w", collectionID, err)
	}
	row, err := m.store.GetCollectionMedia(ctx, collectionID, mediaServerID)
	if err != nil {
		return fmt.Errorf("loading item %s of collection %q: %w", mediaServerID, col.Title, err)
	}
	if err := m.untrack(ctx, col, *row); err != nil {
		return err
	}
	m.metrics.RecordCollectionChange(col.Title, metrics.ChangeRemoved, 1)
	return nil
}

// untrack deletes the row, then removes the item from the library
// collection. A library failure is logged only; the row is gone either way.
func (m *Materializer) untrack(ctx context.Context, col *store.Collection, row store.CollectionMedia) error {
	if err := m.store.DeleteCollectionMedia(ctx, row.ID); err != nil {
		return fmt.Errorf("untracking %s: %w", row.MediaServerID, err)
	}
	if m.library == nil || col.LibraryCollectionID == "" {
		return nil
	}
	if err := m.library.RemoveFromCollection(ctx, col.LibraryCollectionID, row.MediaServerID); err != nil {
		m.logger.WarnContext(ctx, "removing item from library collection failed",
			"collection", col.Title,
			"item", row.MediaServerID,
			"error", err,
		)
	}
	return nil
}

func (m *Materializer) addToLibrary(ctx context.Context, col *store.Collection, itemID string) {
	if m.library == nil || col.LibraryCollectionID == "" {
		return
	}
	if err := m.library.AddToCollection(ctx, col.LibraryCollectionID, itemID); err != nil {
		m.logger.WarnContext(ctx, "adding item to library collection failed",
			"collection", col.Title,
			"item", itemID,
			"error", err,
		)
	}
}

// ensureLibraryCollection creates the mirrored library collection on first
// use and remembers its id.
func (m *Materializer) ensureLibraryCollection(ctx context.Context, col *store.Collection) {
	if m.library == nil || col.LibraryCollectionID != "" {
		return
	}
	id, err := m.library.CreateCollection(ctx, col.LibraryID, col.Title, col.Type)
	if err != nil {
		m.logger.WarnContext(ctx, "creating library collection failed", "collection", col.Title, "error", err)
		return
	}
	col.LibraryCollectionID = id
	if err := m.store.UpdateCollection(ctx, col); err != nil {
		m.logger.WarnContext(ctx, "saving library collection id failed", "collection", col.Title, "error", err)
	}
}
