// Package overseerr is a client for the Overseerr request tracker API.
package overseerr

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"curator-hq/curator/pkg/clients"
	"curator-hq/curator/pkg/media"
)

// Client talks to one Overseerr instance.
type Client struct {
	api *clients.Client
}

// New creates an Overseerr client. The API key is sent as X-Api-Key.
func New(config clients.Config) *Client {
	if config.Name == "" {
		config.Name = "overseerr"
	}
	return &Client{api: clients.New(config)}
}

// Configured reports whether the client has a base URL.
func (c *Client) Configured() bool {
	return c != nil && c.api.Configured()
}

// User is the requesting user of a request.
type User struct {
	ID           int    `json:"id"`
	PlexUsername string `json:"plexUsername"`
	Username     string `json:"username"`
	DisplayName  string `json:"displayName"`
}

// Name returns the most specific user name available.
func (u User) Name() string {
	switch {
	case u.PlexUsername != "":
		return u.PlexUsername
	case u.Username != "":
		return u.Username
	default:
		return u.DisplayName
	}
}

// Request is a media request.
type Request struct {
	ID          int       `json:"id"`
	Status      int       `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
	RequestedBy User      `json:"requestedBy"`
}

// MediaInfo is Overseerr's tracking record for a title.
type MediaInfo struct {
	ID       int       `json:"id"`
	TmdbID   int       `json:"tmdbId"`
	TvdbID   int       `json:"tvdbId"`
	Status   int       `json:"status"`
	Requests []Request `json:"requests"`
}

// Media is the detail view of a movie or show.
type Media struct {
	ID           int        `json:"id"`
	ReleaseDate  string     `json:"releaseDate"`
	FirstAirDate string     `json:"firstAirDate"`
	MediaInfo    *MediaInfo `json:"mediaInfo,omitempty"`
}

// Released returns the release (movies) or first air (shows) date.
func (m Media) Released() (time.Time, bool) {
	raw := m.ReleaseDate
	if raw == "" {
		raw = m.FirstAirDate
	}
	t, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// GetMedia returns the detail view of a title by TMDB id.
func (c *Client) GetMedia(ctx context.Context, kind media.Kind, tmdbID int) (*Media, error) {
	if tmdbID == 0 {
		return nil, fmt.Errorf("lookup %s: no tmdb id: %w", kind, clients.ErrNotFound)
	}
	segment := "movie"
	if kind == media.KindShow {
		segment = "tv"
	}
	var out Media
	if err := c.api.DoJSON(ctx, http.MethodGet, "/api/v1/"+segment+"/"+strconv.Itoa(tmdbID), nil, nil, &out); err != nil {
		return nil, fmt.Errorf("lookup %s tmdb:%d: %w", segment, tmdbID, err)
	}
	return &out, nil
}

// DeleteRequest deletes a request.
func (c *Client) DeleteRequest(ctx context.Context, requestID int) error {
	if err := c.api.DoJSON(ctx, http.MethodDelete, "/api/v1/request/"+strconv.Itoa(requestID), nil, nil, nil); err != nil {
		return fmt.Errorf("delete request %d: %w", requestID, err)
	}
	return nil
}

// DeleteMedia deletes Overseerr's tracking record for a title, resetting it
// to unrequested.
func (c *Client) DeleteMedia(ctx context.Context, mediaID int) error {
	if err := c.api.DoJSON(ctx, http.MethodDelete, "/api/v1/media/"+strconv.Itoa(mediaID), nil, nil, nil); err != nil {
		return fmt.Errorf("delete media %d: %w", mediaID, err)
	}
	return nil
}
