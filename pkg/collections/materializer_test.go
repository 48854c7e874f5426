package collections

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"curator-hq/curator/pkg/media"
	"curator-hq/curator/pkg/store"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newCollection(t *testing.T, st store.Store, c store.Collection) *store.Collection {
	t.Helper()
	if c.Title == "" {
		c.Title = "Old Movies"
	}
	if c.Type == "" {
		c.Type = media.KindMovie
	}
	c.LibraryID = "1"
	if err := st.CreateCollection(context.Background(), &c); err != nil {
		t.Fatal(err)
	}
	return &c
}

func track(t *testing.T, st store.Store, m store.CollectionMedia) store.CollectionMedia {
	t.Helper()
	if _, err := st.AddCollectionMedia(context.Background(), &m); err != nil {
		t.Fatal(err)
	}
	return m
}

func trackedIDs(t *testing.T, st store.Store, collectionID int64) []string {
	t.Helper()
	rows, err := st.ListCollectionMedia(context.Background(), collectionID)
	if err != nil {
		t.Fatal(err)
	}
	var ids []string
	for _, r := range rows {
		ids = append(ids, r.MediaServerID)
	}
	return ids
}

func newTestMaterializer(st store.Store, lib LibraryCollections) *Materializer {
	m := NewMaterializer(st, lib, nil)
	m.now = func() time.Time { return testNow }
	return m
}

func TestMaterializer_Sync(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	col := newCollection(t, st, store.Collection{IsActive: true, LibraryCollectionID: "900"})

	old := testNow.Add(-48 * time.Hour)
	track(t, st, store.CollectionMedia{CollectionID: col.ID, MediaServerID: "a", AddDate: old})
	track(t, st, store.CollectionMedia{CollectionID: col.ID, MediaServerID: "stale", AddDate: old})
	track(t, st, store.CollectionMedia{CollectionID: col.ID, MediaServerID: "manual", AddDate: old, IsManual: true})

	lib := &fakeLibraryCollections{}
	m := newTestMaterializer(st, lib)

	items := []media.Item{
		{ID: "a", Kind: media.KindMovie},
		{ID: "b", Kind: media.KindMovie, GUIDs: []string{"tmdb://603"}},
	}
	report, err := m.Sync(ctx, col, items)
	if err != nil {
		t.Fatalf("Sync() error: %v", err)
	}
	if diff := cmp.Diff(&SyncReport{Added: 1, Removed: 1, Kept: 2}, report); diff != "" {
		t.Errorf("report mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"a", "manual", "b"}, trackedIDs(t, st, col.ID)); diff != "" {
		t.Errorf("tracked mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"add 900 b", "remove 900 stale"}, lib.list()); diff != "" {
		t.Errorf("library calls mismatch (-want +got):\n%s", diff)
	}

	row, err := st.GetCollectionMedia(ctx, col.ID, "b")
	if err != nil {
		t.Fatal(err)
	}
	if !row.AddDate.Equal(testNow) || row.TmdbID != 603 {
		t.Errorf("new row = %+v", row)
	}
	// Existing rows keep their original add date.
	row, _ = st.GetCollectionMedia(ctx, col.ID, "a")
	if !row.AddDate.Equal(old) {
		t.Errorf("AddDate of kept row changed to %v", row.AddDate)
	}

	stored, _ := st.GetCollection(ctx, col.ID)
	if !stored.LastEvaluatedAt.Equal(testNow) {
		t.Errorf("LastEvaluatedAt = %v", stored.LastEvaluatedAt)
	}
}

func TestMaterializer_SyncCreatesLibraryCollectionOnce(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	col := newCollection(t, st, store.Collection{IsActive: true})
	lib := &fakeLibraryCollections{}
	m := newTestMaterializer(st, lib)

	if _, err := m.Sync(ctx, col, nil); err != nil {
		t.Fatal(err)
	}
	if len(lib.list()) != 0 {
		t.Errorf("empty sync touched the library: %v", lib.list())
	}

	if _, err := m.Sync(ctx, col, []media.Item{{ID: "a"}}); err != nil {
		t.Fatal(err)
	}
	if _, err := m.Sync(ctx, col, []media.Item{{ID: "a"}, {ID: "b"}}); err != nil {
		t.Fatal(err)
	}

	want := []string{"create 1 Old Movies movie", "add 900 a", "add 900 b"}
	if diff := cmp.Diff(want, lib.list()); diff != "" {
		t.Errorf("library calls mismatch (-want +got):\n%s", diff)
	}
	stored, _ := st.GetCollection(ctx, col.ID)
	if stored.LibraryCollectionID != "900" {
		t.Errorf("LibraryCollectionID = %q", stored.LibraryCollectionID)
	}
}

func TestMaterializer_LibraryFailureKeepsTracking(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	col := newCollection(t, st, store.Collection{IsActive: true})
	m := newTestMaterializer(st, &fakeLibraryCollections{createErr: errors.New("plex down")})

	report, err := m.Sync(ctx, col, []media.Item{{ID: "a"}})
	if err != nil {
		t.Fatalf("Sync() error: %v", err)
	}
	if report.Added != 1 {
		t.Errorf("Added = %d, want 1", report.Added)
	}
}

func TestMaterializer_AddManualAndRemove(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	col := newCollection(t, st, store.Collection{IsActive: true, LibraryCollectionID: "900"})
	lib := &fakeLibraryCollections{}
	m := newTestMaterializer(st, lib)

	row, created, err := m.AddManual(ctx, col.ID, media.Item{ID: "x", Kind: media.KindMovie})
	if err != nil || !created {
		t.Fatalf("AddManual() = %v, %v", created, err)
	}
	if !row.IsManual {
		t.Error("row not marked manual")
	}
	if _, created, _ := m.AddManual(ctx, col.ID, media.Item{ID: "x"}); created {
		t.Error("second AddManual() created a row")
	}

	if _, _, err := m.AddManual(ctx, col.ID, media.Item{ID: "y", Kind: media.KindShow}); err == nil {
		t.Error("AddManual() accepted a show in a movie collection")
	}

	// A sync with no matches keeps the manual row.
	if _, err := m.Sync(ctx, col, nil); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"x"}, trackedIDs(t, st, col.ID)); diff != "" {
		t.Errorf("tracked mismatch (-want +got):\n%s", diff)
	}

	if err := m.RemoveItem(ctx, col.ID, "x"); err != nil {
		t.Fatalf("RemoveItem() error: %v", err)
	}
	if ids := trackedIDs(t, st, col.ID); len(ids) != 0 {
		t.Errorf("tracked after remove = %v", ids)
	}
	if err := m.RemoveItem(ctx, col.ID, "x"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("RemoveItem() of untracked item error = %v, want ErrNotFound", err)
	}
	if diff := cmp.Diff([]string{"add 900 x", "remove 900 x"}, lib.list()); diff != "" {
		t.Errorf("library calls mismatch (-want +got):\n%s", diff)
	}
}
