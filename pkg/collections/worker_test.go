package collections

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"curator-hq/curator/pkg/clients/overseerr"
	"curator-hq/curator/pkg/media"
	"curator-hq/curator/pkg/store"
	"curator-hq/curator/pkg/telemetry/metrics"
)

type workerFixture struct {
	store   store.Store
	worker  *Worker
	library *fakeLibraryCollections
	radarr  *fakeManager
	sonarr  *fakeManager
	tracker *fakeTracker
	plex    *fakeDeleter
}

func newWorkerFixture(t *testing.T) *workerFixture {
	t.Helper()
	f := &workerFixture{
		store:   store.NewMemoryStore(),
		library: &fakeLibraryCollections{},
		radarr:  &fakeManager{},
		sonarr:  &fakeManager{},
		tracker: &fakeTracker{media: &overseerr.Media{MediaInfo: &overseerr.MediaInfo{
			ID:       7,
			Requests: []overseerr.Request{{ID: 70}, {ID: 71}},
		}}},
		plex: &fakeDeleter{},
	}
	m := newTestMaterializer(f.store, f.library)
	f.worker = NewWorker(f.store, m, WorkerDeps{
		Radarr:    f.radarr,
		Sonarr:    f.sonarr,
		Overseerr: f.tracker,
		Plex:      f.plex,
	}, nil, nil)
	f.worker.now = func() time.Time { return testNow }
	return f
}

func daysAgo(n int) time.Time {
	return testNow.AddDate(0, 0, -n)
}

func outcomes(r ItemReport) map[Step]string {
	out := make(map[Step]string, len(r.Steps))
	for _, s := range r.Steps {
		out[s.Step] = s.Outcome
	}
	return out
}

func TestWorker_RemovesExpiredItem(t *testing.T) {
	ctx := context.Background()
	f := newWorkerFixture(t)
	col := newCollection(t, f.store, store.Collection{IsActive: true, DeleteAfterDays: 30, LibraryCollectionID: "900"})
	track(t, f.store, store.CollectionMedia{CollectionID: col.ID, MediaServerID: "m1", TmdbID: 603, AddDate: daysAgo(31)})

	report, err := f.worker.Run(ctx)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if len(report.Items) != 1 || report.Collections != 1 {
		t.Fatalf("report = %+v", report)
	}
	want := map[Step]string{
		StepStore:       metrics.StatusSuccess,
		StepManager:     metrics.StatusSuccess,
		StepRequests:    metrics.StatusSuccess,
		StepMediaServer: metrics.StatusSuccess,
	}
	if diff := cmp.Diff(want, outcomes(report.Items[0])); diff != "" {
		t.Errorf("outcomes mismatch (-want +got):\n%s", diff)
	}

	if ids := trackedIDs(t, f.store, col.ID); len(ids) != 0 {
		t.Errorf("still tracked: %v", ids)
	}
	if diff := cmp.Diff([]string{"remove 900 m1"}, f.library.list()); diff != "" {
		t.Errorf("library calls mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"find 603 0", "delete 42"}, f.radarr.list()); diff != "" {
		t.Errorf("radarr calls mismatch (-want +got):\n%s", diff)
	}
	if len(f.sonarr.list()) != 0 {
		t.Errorf("sonarr called for a movie collection: %v", f.sonarr.list())
	}
	wantTracker := []string{"get movie 603", "delete-request 70", "delete-request 71", "delete-media 7"}
	if diff := cmp.Diff(wantTracker, f.tracker.list()); diff != "" {
		t.Errorf("tracker calls mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"delete m1"}, f.plex.list()); diff != "" {
		t.Errorf("plex calls mismatch (-want +got):\n%s", diff)
	}

	// A second tick finds nothing left to do.
	report, err = f.worker.Run(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(report.Items) != 0 {
		t.Errorf("second run removed %d items", len(report.Items))
	}
	if n := f.plex.count("delete m1"); n != 1 {
		t.Errorf("media deleted %d times, want 1", n)
	}
}

func TestWorker_ManagerFailureDoesNotStopLaterSteps(t *testing.T) {
	ctx := context.Background()
	f := newWorkerFixture(t)
	f.radarr.findErr = errors.New("radarr unavailable")
	col := newCollection(t, f.store, store.Collection{IsActive: true, DeleteAfterDays: 7})
	track(t, f.store, store.CollectionMedia{CollectionID: col.ID, MediaServerID: "m1", TmdbID: 603, AddDate: daysAgo(8)})

	report, err := f.worker.Run(ctx)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	item := report.Items[0]
	if !item.Failed() {
		t.Error("Failed() = false, want true")
	}
	want := map[Step]string{
		StepStore:       metrics.StatusSuccess,
		StepManager:     metrics.StatusError,
		StepRequests:    metrics.StatusSuccess,
		StepMediaServer: metrics.StatusSuccess,
	}
	if diff := cmp.Diff(want, outcomes(item)); diff != "" {
		t.Errorf("outcomes mismatch (-want +got):\n%s", diff)
	}
	if n := f.tracker.count("delete-media 7"); n != 1 {
		t.Errorf("request tracker media deleted %d times, want 1", n)
	}
	if n := f.plex.count("delete m1"); n != 1 {
		t.Errorf("media deleted %d times, want 1", n)
	}
}

func TestWorker_Expired(t *testing.T) {
	ctx := context.Background()
	f := newWorkerFixture(t)

	keep := newCollection(t, f.store, store.Collection{Title: "Keep Forever", IsActive: true})
	track(t, f.store, store.CollectionMedia{CollectionID: keep.ID, MediaServerID: "k1", AddDate: daysAgo(400)})

	inactive := newCollection(t, f.store, store.Collection{Title: "Paused", IsActive: false, DeleteAfterDays: 1})
	track(t, f.store, store.CollectionMedia{CollectionID: inactive.ID, MediaServerID: "p1", AddDate: daysAgo(10)})

	col := newCollection(t, f.store, store.Collection{Title: "Old Movies", IsActive: true, DeleteAfterDays: 30})
	track(t, f.store, store.CollectionMedia{CollectionID: col.ID, MediaServerID: "fresh", AddDate: daysAgo(29)})
	track(t, f.store, store.CollectionMedia{CollectionID: col.ID, MediaServerID: "due", AddDate: daysAgo(31)})

	expired, err := f.worker.Expired(ctx)
	if err != nil {
		t.Fatalf("Expired() error: %v", err)
	}
	if len(expired) != 1 || expired[0].Media.MediaServerID != "due" {
		t.Fatalf("Expired() = %+v, want only \"due\"", expired)
	}
	if want := daysAgo(1); !expired[0].Deadline.Equal(want) {
		t.Errorf("Deadline = %v, want %v", expired[0].Deadline, want)
	}
	// Listing changes nothing.
	if diff := cmp.Diff([]string{"due", "fresh"}, trackedIDs(t, f.store, col.ID)); diff != "" {
		t.Errorf("tracked mismatch (-want +got):\n%s", diff)
	}
}

func TestWorker_Steps(t *testing.T) {
	tests := []struct {
		name         string
		collection   store.Collection
		media        store.CollectionMedia
		setup        func(*workerFixture)
		want         map[Step]string
		wantRadarr   []string
		wantSonarr   []string
		wantRequests int
	}{
		{
			name:       "unmonitor action",
			collection: store.Collection{ManagerAction: store.ManagerUnmonitor},
			media:      store.CollectionMedia{TmdbID: 603},
			want: map[Step]string{
				StepStore: metrics.StatusSuccess, StepManager: metrics.StatusSuccess,
				StepRequests: metrics.StatusSuccess, StepMediaServer: metrics.StatusSuccess,
			},
			wantRadarr:   []string{"find 603 0", "unmonitor 42"},
			wantRequests: 2,
		},
		{
			name:       "shows go to sonarr",
			collection: store.Collection{Type: media.KindShow},
			media:      store.CollectionMedia{TvdbID: 81189},
			want: map[Step]string{
				StepStore: metrics.StatusSuccess, StepManager: metrics.StatusSuccess,
				StepRequests: metrics.StatusSkipped, StepMediaServer: metrics.StatusSuccess,
			},
			wantSonarr: []string{"find 0 81189", "delete 42"},
		},
		{
			name:       "not requested",
			collection: store.Collection{},
			media:      store.CollectionMedia{TmdbID: 603},
			setup:      func(f *workerFixture) { f.tracker.media = nil },
			want: map[Step]string{
				StepStore: metrics.StatusSuccess, StepManager: metrics.StatusSuccess,
				StepRequests: metrics.StatusSkipped, StepMediaServer: metrics.StatusSuccess,
			},
			wantRadarr: []string{"find 603 0", "delete 42"},
		},
		{
			name:       "missing applications",
			collection: store.Collection{},
			media:      store.CollectionMedia{TmdbID: 603},
			setup: func(f *workerFixture) {
				f.worker.deps = WorkerDeps{Plex: f.plex}
			},
			want: map[Step]string{
				StepStore: metrics.StatusSuccess, StepManager: metrics.StatusSkipped,
				StepRequests: metrics.StatusSkipped, StepMediaServer: metrics.StatusSuccess,
			},
		},
		{
			name:       "media already gone",
			collection: store.Collection{},
			media:      store.CollectionMedia{TmdbID: 603},
			setup: func(f *workerFixture) {
				f.plex.err = &fakeNotFound{}
			},
			want: map[Step]string{
				StepStore: metrics.StatusSuccess, StepManager: metrics.StatusSuccess,
				StepRequests: metrics.StatusSuccess, StepMediaServer: metrics.StatusSkipped,
			},
			wantRadarr:   []string{"find 603 0", "delete 42"},
			wantRequests: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newWorkerFixture(t)
			if tt.setup != nil {
				tt.setup(f)
			}
			c := tt.collection
			c.IsActive = true
			c.DeleteAfterDays = 1
			col := newCollection(t, f.store, c)
			m := tt.media
			m.CollectionID = col.ID
			m.MediaServerID = "item"
			m.AddDate = daysAgo(2)
			track(t, f.store, m)

			report, err := f.worker.Run(context.Background())
			if err != nil {
				t.Fatalf("Run() error: %v", err)
			}
			if len(report.Items) != 1 {
				t.Fatalf("removed %d items, want 1", len(report.Items))
			}
			if diff := cmp.Diff(tt.want, outcomes(report.Items[0])); diff != "" {
				t.Errorf("outcomes mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tt.wantRadarr, f.radarr.list()); diff != "" {
				t.Errorf("radarr calls mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tt.wantSonarr, f.sonarr.list()); diff != "" {
				t.Errorf("sonarr calls mismatch (-want +got):\n%s", diff)
			}
			requests := f.tracker.count("delete-request 70") + f.tracker.count("delete-request 71")
			if requests != tt.wantRequests {
				t.Errorf("deleted %d requests, want %d", requests, tt.wantRequests)
			}
		})
	}
}

func TestWorker_RunStopsOnCancel(t *testing.T) {
	f := newWorkerFixture(t)
	col := newCollection(t, f.store, store.Collection{IsActive: true, DeleteAfterDays: 1})
	track(t, f.store, store.CollectionMedia{CollectionID: col.ID, MediaServerID: "a", AddDate: daysAgo(5)})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	report, err := f.worker.Run(ctx)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if len(report.Items) != 0 {
		t.Errorf("removed %d items after cancel", len(report.Items))
	}
}
