// Package collections keeps collections in step with their rule groups and
// enforces retention on them.
//
// The RuleHandler evaluates every active rule group and hands the matches to
// the Materializer, which adds new items to the group's collection, drops
// items that no longer match (manually added items stay) and mirrors the
// membership in the library server's collection.
//
// The Worker walks every active collection with a retention window and
// removes expired items through four isolated steps:
//
//  1. stop tracking the item and remove it from the library collection
//  2. delete (or unmonitor) it in the movie or show manager
//  3. delete its requests and media record in the request tracker
//  4. delete the media item from the library server
//
// A failing step is logged and recorded; the remaining steps, items and
// collections still run.
//
// The Scheduler runs both handlers as named cron jobs. A job never runs
// twice at the same time, whether started by its schedule or by Trigger.
package collections

import (
	"context"

	"curator-hq/curator/pkg/clients/overseerr"
	"curator-hq/curator/pkg/media"
)

// LibraryCollections is the library server's collection API.
type LibraryCollections interface {
	CreateCollection(ctx context.Context, libraryID, title string, kind media.Kind) (string, error)
	AddToCollection(ctx context.Context, collectionID, itemID string) error
	RemoveFromCollection(ctx context.Context, collectionID, itemID string) error
}

// MediaDeleter deletes media items from the library server.
type MediaDeleter interface {
	DeleteMediaItem(ctx context.Context, id string) error
}

// MediaManager is a movie or show manager.
type MediaManager interface {
	FindID(ctx context.Context, tmdbID, tvdbID int) (int, error)
	Delete(ctx context.Context, id int) error
	Unmonitor(ctx context.Context, id int) error
}

// RequestTracker is the request application.
type RequestTracker interface {
	GetMedia(ctx context.Context, kind media.Kind, tmdbID int) (*overseerr.Media, error)
	DeleteRequest(ctx context.Context, requestID int) error
	DeleteMedia(ctx context.Context, mediaID int) error
}

// Resetter drops memoized lookups before a run.
type Resetter interface {
	Reset()
}
