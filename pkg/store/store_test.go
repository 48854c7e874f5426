package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"curator-hq/curator/pkg/media"
)

var ignoreCreatedAt = cmp.Options{
	cmpopts.IgnoreFields(RuleGroup{}, "CreatedAt"),
	cmpopts.IgnoreFields(Collection{}, "CreatedAt"),
	cmpopts.EquateApproxTime(time.Microsecond),
}

// createTempDB creates a SQLite store in a temporary directory.
func createTempDB(t *testing.T, driver string) *SQLiteStore {
	t.Helper()

	s, err := NewSQLiteStore(&SQLiteConfig{
		Driver:      driver,
		Path:        filepath.Join(t.TempDir(), "test.db"),
		WALMode:     true,
		BusyTimeout: 5 * time.Second,
	})
	if err != nil {
		t.Fatalf("NewSQLiteStore() error = %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func backends(t *testing.T) map[string]Store {
	return map[string]Store{
		"memory": NewMemoryStore(),
		"sqlite": createTempDB(t, "sqlite"),
	}
}

func TestStore_RuleGroups(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			testRuleGroups(t, s)
		})
	}
}

func testRuleGroups(t *testing.T, s Store) {
	ctx := context.Background()

	coll := &Collection{Title: "Old movies", LibraryID: "1", Type: media.KindMovie, IsActive: true}
	if err := s.CreateCollection(ctx, coll); err != nil {
		t.Fatalf("CreateCollection() error = %v", err)
	}

	g := &RuleGroup{
		Name:         "Old movies",
		Description:  "added over a year ago",
		LibraryID:    "1",
		IsActive:     true,
		CollectionID: coll.ID,
		Rules: []Rule{
			{Section: 0, RuleJSON: `{"firstVal":[0,0],"action":4}`},
			{Section: 0, RuleJSON: `{"operator":0,"firstVal":[0,5],"action":1}`},
		},
	}
	if err := s.CreateRuleGroup(ctx, g); err != nil {
		t.Fatalf("CreateRuleGroup() error = %v", err)
	}
	if g.ID == 0 || g.Rules[0].ID == 0 || g.Rules[1].GroupID != g.ID {
		t.Fatalf("CreateRuleGroup() did not populate ids: %+v", g)
	}

	got, err := s.GetRuleGroup(ctx, g.ID)
	if err != nil {
		t.Fatalf("GetRuleGroup() error = %v", err)
	}
	if diff := cmp.Diff(g, got, ignoreCreatedAt); diff != "" {
		t.Errorf("GetRuleGroup() mismatch (-want +got):\n%s", diff)
	}

	byName, err := s.GetRuleGroupByName(ctx, "Old movies")
	if err != nil || byName.ID != g.ID {
		t.Errorf("GetRuleGroupByName() = %v, %v", byName, err)
	}

	g.IsActive = false
	g.Rules = g.Rules[:1]
	g.Rules[0].RuleJSON = `{"firstVal":[0,7],"action":4}`
	if err := s.UpdateRuleGroup(ctx, g); err != nil {
		t.Fatalf("UpdateRuleGroup() error = %v", err)
	}

	active, err := s.ListRuleGroups(ctx, true)
	if err != nil {
		t.Fatalf("ListRuleGroups() error = %v", err)
	}
	if len(active) != 0 {
		t.Errorf("ListRuleGroups(active) = %d groups, want 0", len(active))
	}

	all, err := s.ListRuleGroups(ctx, false)
	if err != nil {
		t.Fatalf("ListRuleGroups() error = %v", err)
	}
	if len(all) != 1 || len(all[0].Rules) != 1 || all[0].Rules[0].RuleJSON != `{"firstVal":[0,7],"action":4}` {
		t.Errorf("ListRuleGroups() = %+v", all)
	}

	if err := s.DeleteRuleGroup(ctx, g.ID); err != nil {
		t.Fatalf("DeleteRuleGroup() error = %v", err)
	}
	if _, err := s.GetRuleGroup(ctx, g.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetRuleGroup() after delete error = %v, want ErrNotFound", err)
	}
	if err := s.DeleteRuleGroup(ctx, g.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("DeleteRuleGroup() twice error = %v, want ErrNotFound", err)
	}
}

func TestStore_Collections(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			testCollections(t, s)
		})
	}
}

func testCollections(t *testing.T, s Store) {
	ctx := context.Background()

	c := &Collection{
		Title:           "Unwatched shows",
		LibraryID:       "2",
		Type:            media.KindShow,
		IsActive:        true,
		DeleteAfterDays: 30,
	}
	if err := s.CreateCollection(ctx, c); err != nil {
		t.Fatalf("CreateCollection() error = %v", err)
	}
	if c.ManagerAction != ManagerDelete {
		t.Errorf("default ManagerAction = %q, want %q", c.ManagerAction, ManagerDelete)
	}

	c.LibraryCollectionID = "9001"
	c.ManagerAction = ManagerUnmonitor
	c.LastEvaluatedAt = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	if err := s.UpdateCollection(ctx, c); err != nil {
		t.Fatalf("UpdateCollection() error = %v", err)
	}

	got, err := s.GetCollection(ctx, c.ID)
	if err != nil {
		t.Fatalf("GetCollection() error = %v", err)
	}
	if diff := cmp.Diff(c, got, ignoreCreatedAt); diff != "" {
		t.Errorf("GetCollection() mismatch (-want +got):\n%s", diff)
	}

	added := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rows := []*CollectionMedia{
		{CollectionID: c.ID, MediaServerID: "200", TvdbID: 81189, AddDate: added.Add(time.Hour)},
		{CollectionID: c.ID, MediaServerID: "100", TvdbID: 121361, AddDate: added, IsManual: true},
	}
	for _, m := range rows {
		created, err := s.AddCollectionMedia(ctx, m)
		if err != nil || !created {
			t.Fatalf("AddCollectionMedia() = %v, %v", created, err)
		}
	}

	dup := &CollectionMedia{CollectionID: c.ID, MediaServerID: "100", AddDate: time.Now()}
	created, err := s.AddCollectionMedia(ctx, dup)
	if err != nil {
		t.Fatalf("AddCollectionMedia(dup) error = %v", err)
	}
	if created || dup.ID != rows[1].ID || !dup.AddDate.Equal(added) {
		t.Errorf("AddCollectionMedia(dup) = %v, %+v; want existing row", created, dup)
	}

	list, err := s.ListCollectionMedia(ctx, c.ID)
	if err != nil {
		t.Fatalf("ListCollectionMedia() error = %v", err)
	}
	want := []CollectionMedia{*rows[1], *rows[0]}
	if diff := cmp.Diff(want, list, ignoreCreatedAt); diff != "" {
		t.Errorf("ListCollectionMedia() mismatch (-want +got):\n%s", diff)
	}

	if err := s.DeleteCollectionMedia(ctx, rows[0].ID); err != nil {
		t.Fatalf("DeleteCollectionMedia() error = %v", err)
	}
	if _, err := s.GetCollectionMedia(ctx, c.ID, "200"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetCollectionMedia() after delete error = %v, want ErrNotFound", err)
	}

	if err := s.DeleteCollection(ctx, c.ID); err != nil {
		t.Fatalf("DeleteCollection() error = %v", err)
	}
	if list, _ := s.ListCollectionMedia(ctx, c.ID); len(list) != 0 {
		t.Errorf("media rows survived collection delete: %+v", list)
	}
	if _, err := s.GetCollection(ctx, c.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetCollection() after delete error = %v, want ErrNotFound", err)
	}
}

func TestCollectionMedia_Deadline(t *testing.T) {
	m := CollectionMedia{AddDate: time.Date(2024, 2, 27, 10, 0, 0, 0, time.UTC)}

	got := m.Deadline(3)
	want := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("Deadline(3) = %v, want %v", got, want)
	}
}

func TestSQLiteStore_ReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "reopen.db")

	s, err := NewSQLiteStore(&SQLiteConfig{Path: path, BusyTimeout: time.Second})
	if err != nil {
		t.Fatalf("NewSQLiteStore() error = %v", err)
	}
	c := &Collection{Title: "kept", LibraryID: "1", Type: media.KindMovie}
	if err := s.CreateCollection(ctx, c); err != nil {
		t.Fatalf("CreateCollection() error = %v", err)
	}
	_ = s.Close()

	s, err = NewSQLiteStore(&SQLiteConfig{Path: path, BusyTimeout: time.Second})
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer s.Close()

	if _, err := s.GetCollection(ctx, c.ID); err != nil {
		t.Errorf("GetCollection() after reopen error = %v", err)
	}
}

func TestStorageError_Unwrap(t *testing.T) {
	err := NewStorageError("sqlite", "open", ErrNotFound)
	if !errors.Is(err, ErrNotFound) {
		t.Error("errors.Is(StorageError, ErrNotFound) = false")
	}
	if got := err.Error(); got != "sqlite storage: open: not found" {
		t.Errorf("Error() = %q", got)
	}
}

func TestSQLiteStore_Ping(t *testing.T) {
	s := createTempDB(t, "sqlite")
	if err := s.Ping(context.Background()); err != nil {
		t.Errorf("Ping() error = %v", err)
	}
	_ = s.Close()
	if err := s.Ping(context.Background()); err == nil {
		t.Error("Ping() after Close() returned no error")
	}
}
