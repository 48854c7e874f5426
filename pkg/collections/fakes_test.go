package collections

import (
	"context"
	"fmt"
	"sync"

	"curator-hq/curator/pkg/clients"
	"curator-hq/curator/pkg/clients/overseerr"
	"curator-hq/curator/pkg/media"
)

// calls records invocations of fake collaborators in order.
type calls struct {
	mu  sync.Mutex
	log []string
}

func (c *calls) add(format string, args ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.log = append(c.log, fmt.Sprintf(format, args...))
}

func (c *calls) list() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.log...)
}

func (c *calls) count(entry string) int {
	n := 0
	for _, e := range c.list() {
		if e == entry {
			n++
		}
	}
	return n
}

type fakeLibraryCollections struct {
	calls
	createErr error
}

func (f *fakeLibraryCollections) CreateCollection(_ context.Context, libraryID, title string, kind media.Kind) (string, error) {
	f.add("create %s %s %s", libraryID, title, kind)
	if f.createErr != nil {
		return "", f.createErr
	}
	return "900", nil
}

func (f *fakeLibraryCollections) AddToCollection(_ context.Context, collectionID, itemID string) error {
	f.add("add %s %s", collectionID, itemID)
	return nil
}

func (f *fakeLibraryCollections) RemoveFromCollection(_ context.Context, collectionID, itemID string) error {
	f.add("remove %s %s", collectionID, itemID)
	return nil
}

type fakeManager struct {
	calls
	findErr error
}

func (f *fakeManager) FindID(_ context.Context, tmdbID, tvdbID int) (int, error) {
	f.add("find %d %d", tmdbID, tvdbID)
	if f.findErr != nil {
		return 0, f.findErr
	}
	return 42, nil
}

func (f *fakeManager) Delete(_ context.Context, id int) error {
	f.add("delete %d", id)
	return nil
}

func (f *fakeManager) Unmonitor(_ context.Context, id int) error {
	f.add("unmonitor %d", id)
	return nil
}

type fakeTracker struct {
	calls
	media *overseerr.Media
}

func (f *fakeTracker) GetMedia(_ context.Context, kind media.Kind, tmdbID int) (*overseerr.Media, error) {
	f.add("get %s %d", kind, tmdbID)
	if f.media == nil {
		return nil, &clients.ClientError{Client: "overseerr", StatusCode: 404, Message: "not found"}
	}
	return f.media, nil
}

func (f *fakeTracker) DeleteRequest(_ context.Context, id int) error {
	f.add("delete-request %d", id)
	return nil
}

func (f *fakeTracker) DeleteMedia(_ context.Context, id int) error {
	f.add("delete-media %d", id)
	return nil
}

type fakeDeleter struct {
	calls
	err error
}

func (f *fakeDeleter) DeleteMediaItem(_ context.Context, id string) error {
	f.add("delete %s", id)
	return f.err
}

type fakeResetter struct {
	resets int
}

func (f *fakeResetter) Reset() { f.resets++ }

// pagedLibrary serves items in pages.
type pagedLibrary struct {
	items []media.Item
	err   error
}

func (l *pagedLibrary) Library(_ context.Context, _ string, offset, size int) (media.Page, error) {
	if l.err != nil {
		return media.Page{}, l.err
	}
	end := min(offset+size, len(l.items))
	if offset > end {
		offset = end
	}
	return media.Page{Offset: offset, TotalSize: len(l.items), Items: l.items[offset:end]}, nil
}

// fakeNotFound is a remote 404.
type fakeNotFound struct{}

func (fakeNotFound) Error() string { return "not found" }

func (fakeNotFound) Is(target error) bool { return target == clients.ErrNotFound }
