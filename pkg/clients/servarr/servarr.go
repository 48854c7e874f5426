// Package servarr contains clients for the Radarr (movies) and Sonarr
// (shows) v3 APIs.
package servarr

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"curator-hq/curator/pkg/clients"
)

// Tag is a manager-side label.
type Tag struct {
	ID    int    `json:"id"`
	Label string `json:"label"`
}

// QualityProfile is a manager-side quality profile.
type QualityProfile struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type base struct {
	api *clients.Client
}

// Configured reports whether the client has a base URL.
func (b *base) Configured() bool {
	return b != nil && b.api.Configured()
}

// Tags returns every tag defined in the manager.
func (b *base) Tags(ctx context.Context) ([]Tag, error) {
	var out []Tag
	if err := b.api.DoJSON(ctx, http.MethodGet, "/api/v3/tag", nil, nil, &out); err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	return out, nil
}

// QualityProfiles returns every quality profile defined in the manager.
func (b *base) QualityProfiles(ctx context.Context) ([]QualityProfile, error) {
	var out []QualityProfile
	if err := b.api.DoJSON(ctx, http.MethodGet, "/api/v3/qualityprofile", nil, nil, &out); err != nil {
		return nil, fmt.Errorf("list quality profiles: %w", err)
	}
	return out, nil
}

// unmonitor fetches a resource as a generic document, clears its monitored
// flags and writes it back, leaving every other field untouched.
func (b *base) unmonitor(ctx context.Context, path string) error {
	var doc map[string]any
	if err := b.api.DoJSON(ctx, http.MethodGet, path, nil, nil, &doc); err != nil {
		return err
	}
	doc["monitored"] = false
	if seasons, ok := doc["seasons"].([]any); ok {
		for _, s := range seasons {
			if season, ok := s.(map[string]any); ok {
				season["monitored"] = false
			}
		}
	}
	return b.api.DoJSON(ctx, http.MethodPut, path, nil, doc, nil)
}

// Radarr is a Radarr v3 API client.
type Radarr struct {
	base
}

// NewRadarr creates a Radarr client.
func NewRadarr(config clients.Config) *Radarr {
	if config.Name == "" {
		config.Name = "radarr"
	}
	return &Radarr{base{api: clients.New(config)}}
}

// Movie is a Radarr movie record.
type Movie struct {
	ID               int        `json:"id"`
	Title            string     `json:"title"`
	TmdbID           int        `json:"tmdbId"`
	Monitored        bool       `json:"monitored"`
	Added            time.Time  `json:"added"`
	InCinemas        *time.Time `json:"inCinemas,omitempty"`
	DigitalRelease   *time.Time `json:"digitalRelease,omitempty"`
	PhysicalRelease  *time.Time `json:"physicalRelease,omitempty"`
	SizeOnDisk       int64      `json:"sizeOnDisk"`
	Runtime          int        `json:"runtime"`
	Tags             []int      `json:"tags"`
	QualityProfileID int        `json:"qualityProfileId"`
	HasFile          bool       `json:"hasFile"`
	OriginalLanguage struct {
		Name string `json:"name"`
	} `json:"originalLanguage"`
	MovieFile *struct {
		DateAdded time.Time `json:"dateAdded"`
		Quality   struct {
			Quality struct {
				Name string `json:"name"`
			} `json:"quality"`
		} `json:"quality"`
	} `json:"movieFile,omitempty"`
}

// ReleaseDate returns the earliest known release date of the movie.
func (m Movie) ReleaseDate() (time.Time, bool) {
	var out time.Time
	for _, t := range []*time.Time{m.InCinemas, m.DigitalRelease, m.PhysicalRelease} {
		if t != nil && !t.IsZero() && (out.IsZero() || t.Before(out)) {
			out = *t
		}
	}
	return out, !out.IsZero()
}

// MovieByTmdb looks up a movie by TMDB id. It returns clients.ErrNotFound
// when Radarr does not manage the movie.
func (c *Radarr) MovieByTmdb(ctx context.Context, tmdbID int) (*Movie, error) {
	var out []Movie
	query := url.Values{"tmdbId": {strconv.Itoa(tmdbID)}}
	if err := c.api.DoJSON(ctx, http.MethodGet, "/api/v3/movie", query, nil, &out); err != nil {
		return nil, fmt.Errorf("lookup movie tmdb:%d: %w", tmdbID, err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("lookup movie tmdb:%d: %w", tmdbID, clients.ErrNotFound)
	}
	return &out[0], nil
}

// FindID returns Radarr's id for the movie with the given external ids.
func (c *Radarr) FindID(ctx context.Context, tmdbID, tvdbID int) (int, error) {
	if tmdbID == 0 {
		return 0, fmt.Errorf("movie has no tmdb id: %w", clients.ErrNotFound)
	}
	m, err := c.MovieByTmdb(ctx, tmdbID)
	if err != nil {
		return 0, err
	}
	return m.ID, nil
}

// Delete removes a movie and its files.
func (c *Radarr) Delete(ctx context.Context, id int) error {
	query := url.Values{"deleteFiles": {"true"}, "addImportExclusion": {"false"}}
	if err := c.api.DoJSON(ctx, http.MethodDelete, "/api/v3/movie/"+strconv.Itoa(id), query, nil, nil); err != nil {
		return fmt.Errorf("delete movie %d: %w", id, err)
	}
	return nil
}

// Unmonitor stops Radarr from monitoring a movie.
func (c *Radarr) Unmonitor(ctx context.Context, id int) error {
	if err := c.unmonitor(ctx, "/api/v3/movie/"+strconv.Itoa(id)); err != nil {
		return fmt.Errorf("unmonitor movie %d: %w", id, err)
	}
	return nil
}

// Sonarr is a Sonarr v3 API client.
type Sonarr struct {
	base
}

// NewSonarr creates a Sonarr client.
func NewSonarr(config clients.Config) *Sonarr {
	if config.Name == "" {
		config.Name = "sonarr"
	}
	return &Sonarr{base{api: clients.New(config)}}
}

// Series is a Sonarr series record.
type Series struct {
	ID               int        `json:"id"`
	Title            string     `json:"title"`
	TvdbID           int        `json:"tvdbId"`
	Monitored        bool       `json:"monitored"`
	Added            time.Time  `json:"added"`
	FirstAired       *time.Time `json:"firstAired,omitempty"`
	Status           string     `json:"status"`
	Ended            bool       `json:"ended"`
	Network          string     `json:"network"`
	Tags             []int      `json:"tags"`
	QualityProfileID int        `json:"qualityProfileId"`
	Statistics       struct {
		SeasonCount      int   `json:"seasonCount"`
		EpisodeFileCount int   `json:"episodeFileCount"`
		SizeOnDisk       int64 `json:"sizeOnDisk"`
	} `json:"statistics"`
}

// SeriesByTvdb looks up a series by TVDB id. It returns clients.ErrNotFound
// when Sonarr does not manage the series.
func (c *Sonarr) SeriesByTvdb(ctx context.Context, tvdbID int) (*Series, error) {
	var out []Series
	query := url.Values{"tvdbId": {strconv.Itoa(tvdbID)}}
	if err := c.api.DoJSON(ctx, http.MethodGet, "/api/v3/series", query, nil, &out); err != nil {
		return nil, fmt.Errorf("lookup series tvdb:%d: %w", tvdbID, err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("lookup series tvdb:%d: %w", tvdbID, clients.ErrNotFound)
	}
	return &out[0], nil
}

// FindID returns Sonarr's id for the series with the given external ids.
func (c *Sonarr) FindID(ctx context.Context, tmdbID, tvdbID int) (int, error) {
	if tvdbID == 0 {
		return 0, fmt.Errorf("series has no tvdb id: %w", clients.ErrNotFound)
	}
	s, err := c.SeriesByTvdb(ctx, tvdbID)
	if err != nil {
		return 0, err
	}
	return s.ID, nil
}

// Delete removes a series and its files.
func (c *Sonarr) Delete(ctx context.Context, id int) error {
	query := url.Values{"deleteFiles": {"true"}, "addImportListExclusion": {"false"}}
	if err := c.api.DoJSON(ctx, http.MethodDelete, "/api/v3/series/"+strconv.Itoa(id), query, nil, nil); err != nil {
		return fmt.Errorf("delete series %d: %w", id, err)
	}
	return nil
}

// Unmonitor stops Sonarr from monitoring a series and all its seasons.
func (c *Sonarr) Unmonitor(ctx context.Context, id int) error {
	if err := c.unmonitor(ctx, "/api/v3/series/"+strconv.Itoa(id)); err != nil {
		return fmt.Errorf("unmonitor series %d: %w", id, err)
	}
	return nil
}
