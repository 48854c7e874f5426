// Package media defines the library-server view of a media item shared by the
// rule engine, the value sources and the collection worker.
package media

import (
	"strconv"
	"strings"
	"time"
)

// Kind is the type of a library item.
type Kind string

const (
	// KindMovie is a movie library item.
	KindMovie Kind = "movie"
	// KindShow is a TV show library item.
	KindShow Kind = "show"
)

// Item is a single library-server media item.
type Item struct {
	// ID is the library server's identifier for the item (Plex rating key).
	ID string

	Kind  Kind
	Title string
	Year  int

	AddedAt               time.Time
	UpdatedAt             time.Time
	LastViewedAt          time.Time
	OriginallyAvailableAt time.Time

	ViewCount int
	Rating    float64

	Genres      []string
	Labels      []string
	Collections []string
	People      []string

	// GUIDs are external catalog identifiers such as "tmdb://603" or "tvdb://81189".
	GUIDs []string

	VideoResolution string
	VideoCodec      string
	Bitrate         int

	// LeafCount and ViewedLeafCount are episode counters for shows.
	LeafCount       int
	ViewedLeafCount int
}

// Page is one slice of a paginated library listing.
type Page struct {
	Offset    int
	TotalSize int
	Items     []Item
}

// View is one entry of an item's viewing history.
type View struct {
	AccountID int
	ViewedAt  time.Time
}

// Account is a library-server user.
type Account struct {
	ID   int
	Name string
}

// TmdbID returns the item's TMDB identifier, or 0 if it has none.
func (i Item) TmdbID() int {
	return i.externalID("tmdb")
}

// TvdbID returns the item's TVDB identifier, or 0 if it has none.
func (i Item) TvdbID() int {
	return i.externalID("tvdb")
}

// ImdbID returns the item's IMDB identifier, or "" if it has none.
func (i Item) ImdbID() string {
	for _, guid := range i.GUIDs {
		if id, ok := strings.CutPrefix(guid, "imdb://"); ok {
			return id
		}
	}
	return ""
}

func (i Item) externalID(scheme string) int {
	prefix := scheme + "://"
	for _, guid := range i.GUIDs {
		raw, ok := strings.CutPrefix(guid, prefix)
		if !ok {
			continue
		}
		if id, err := strconv.Atoi(raw); err == nil {
			return id
		}
	}
	return 0
}
