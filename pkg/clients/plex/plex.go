// Package plex is a client for the Plex Media Server API covering library
// listing, metadata, viewing history and collection management.
package plex

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"curator-hq/curator/pkg/clients"
	"curator-hq/curator/pkg/media"
)

// Client talks to one Plex Media Server.
type Client struct {
	api *clients.Client

	mu        sync.Mutex
	machineID string
}

// New creates a Plex client. The API key is sent as X-Plex-Token.
func New(config clients.Config) *Client {
	if config.Name == "" {
		config.Name = "plex"
	}
	if config.AuthHeader == "" {
		config.AuthHeader = "X-Plex-Token"
	}
	return &Client{api: clients.New(config)}
}

// Configured reports whether the client has a server URL.
func (c *Client) Configured() bool {
	return c != nil && c.api.Configured()
}

type container struct {
	MediaContainer struct {
		TotalSize         int        `json:"totalSize"`
		Offset            int        `json:"offset"`
		Size              int        `json:"size"`
		MachineIdentifier string     `json:"machineIdentifier"`
		Metadata          []metadata `json:"Metadata"`
		Account           []account  `json:"Account"`
	} `json:"MediaContainer"`
}

type tag struct {
	Tag string `json:"tag"`
}

type guid struct {
	ID string `json:"id"`
}

type mediaPart struct {
	VideoResolution string `json:"videoResolution"`
	VideoCodec      string `json:"videoCodec"`
	Bitrate         int    `json:"bitrate"`
}

type metadata struct {
	RatingKey             string      `json:"ratingKey"`
	Type                  string      `json:"type"`
	Title                 string      `json:"title"`
	Year                  int         `json:"year"`
	AddedAt               int64       `json:"addedAt"`
	UpdatedAt             int64       `json:"updatedAt"`
	LastViewedAt          int64       `json:"lastViewedAt"`
	OriginallyAvailableAt string      `json:"originallyAvailableAt"`
	ViewCount             int         `json:"viewCount"`
	Rating                float64     `json:"rating"`
	AudienceRating        float64     `json:"audienceRating"`
	LeafCount             int         `json:"leafCount"`
	ViewedLeafCount       int         `json:"viewedLeafCount"`
	Genre                 []tag       `json:"Genre"`
	Label                 []tag       `json:"Label"`
	Collection            []tag       `json:"Collection"`
	Role                  []tag       `json:"Role"`
	Director              []tag       `json:"Director"`
	Writer                []tag       `json:"Writer"`
	Guid                  []guid      `json:"Guid"`
	Media                 []mediaPart `json:"Media"`

	// History entries.
	AccountID int   `json:"accountID"`
	ViewedAt  int64 `json:"viewedAt"`
}

type account struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

func (m metadata) item() media.Item {
	item := media.Item{
		ID:              m.RatingKey,
		Kind:            media.Kind(m.Type),
		Title:           m.Title,
		Year:            m.Year,
		AddedAt:         unix(m.AddedAt),
		UpdatedAt:       unix(m.UpdatedAt),
		LastViewedAt:    unix(m.LastViewedAt),
		ViewCount:       m.ViewCount,
		Rating:          m.AudienceRating,
		LeafCount:       m.LeafCount,
		ViewedLeafCount: m.ViewedLeafCount,
		Genres:          tags(m.Genre),
		Labels:          tags(m.Label),
		Collections:     tags(m.Collection),
	}
	if item.Rating == 0 {
		item.Rating = m.Rating
	}
	if t, err := time.Parse(time.DateOnly, m.OriginallyAvailableAt); err == nil {
		item.OriginallyAvailableAt = t
	}
	item.People = append(item.People, tags(m.Role)...)
	item.People = append(item.People, tags(m.Director)...)
	item.People = append(item.People, tags(m.Writer)...)
	for _, g := range m.Guid {
		item.GUIDs = append(item.GUIDs, g.ID)
	}
	if len(m.Media) > 0 {
		item.VideoResolution = m.Media[0].VideoResolution
		item.VideoCodec = m.Media[0].VideoCodec
		item.Bitrate = m.Media[0].Bitrate
	}
	return item
}

func tags(in []tag) []string {
	if len(in) == 0 {
		return nil
	}
	out := make([]string, len(in))
	for i, t := range in {
		out[i] = t.Tag
	}
	return out
}

func unix(sec int64) time.Time {
	if sec == 0 {
		return time.Time{}
	}
	return time.Unix(sec, 0).UTC()
}

// Library returns one page of a library section.
func (c *Client) Library(ctx context.Context, libraryID string, offset, size int) (media.Page, error) {
	query := url.Values{
		"X-Plex-Container-Start": {strconv.Itoa(offset)},
		"X-Plex-Container-Size":  {strconv.Itoa(size)},
		"includeGuids":           {"1"},
	}
	var resp container
	if err := c.api.DoJSON(ctx, http.MethodGet, "/library/sections/"+url.PathEscape(libraryID)+"/all", query, nil, &resp); err != nil {
		return media.Page{}, fmt.Errorf("list library %s: %w", libraryID, err)
	}

	page := media.Page{
		Offset:    offset,
		TotalSize: resp.MediaContainer.TotalSize,
		Items:     make([]media.Item, 0, len(resp.MediaContainer.Metadata)),
	}
	for _, m := range resp.MediaContainer.Metadata {
		page.Items = append(page.Items, m.item())
	}
	return page, nil
}

// Metadata returns a single item.
func (c *Client) Metadata(ctx context.Context, id string) (media.Item, error) {
	var resp container
	if err := c.api.DoJSON(ctx, http.MethodGet, "/library/metadata/"+url.PathEscape(id), nil, nil, &resp); err != nil {
		return media.Item{}, fmt.Errorf("get metadata %s: %w", id, err)
	}
	if len(resp.MediaContainer.Metadata) == 0 {
		return media.Item{}, fmt.Errorf("get metadata %s: %w", id, clients.ErrNotFound)
	}
	return resp.MediaContainer.Metadata[0].item(), nil
}

// Children returns the direct children of an item (seasons of a show,
// episodes of a season).
func (c *Client) Children(ctx context.Context, id string) ([]media.Item, error) {
	var resp container
	if err := c.api.DoJSON(ctx, http.MethodGet, "/library/metadata/"+url.PathEscape(id)+"/children", nil, nil, &resp); err != nil {
		return nil, fmt.Errorf("get children of %s: %w", id, err)
	}
	out := make([]media.Item, 0, len(resp.MediaContainer.Metadata))
	for _, m := range resp.MediaContainer.Metadata {
		out = append(out, m.item())
	}
	return out, nil
}

// WatchHistory returns every recorded view of an item.
func (c *Client) WatchHistory(ctx context.Context, id string) ([]media.View, error) {
	query := url.Values{"metadataItemID": {id}}
	var resp container
	if err := c.api.DoJSON(ctx, http.MethodGet, "/status/sessions/history/all", query, nil, &resp); err != nil {
		return nil, fmt.Errorf("get watch history of %s: %w", id, err)
	}
	out := make([]media.View, 0, len(resp.MediaContainer.Metadata))
	for _, m := range resp.MediaContainer.Metadata {
		out = append(out, media.View{AccountID: m.AccountID, ViewedAt: unix(m.ViewedAt)})
	}
	return out, nil
}

// Accounts returns the server's user accounts.
func (c *Client) Accounts(ctx context.Context) ([]media.Account, error) {
	var resp container
	if err := c.api.DoJSON(ctx, http.MethodGet, "/accounts", nil, nil, &resp); err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	out := make([]media.Account, 0, len(resp.MediaContainer.Account))
	for _, a := range resp.MediaContainer.Account {
		out = append(out, media.Account{ID: a.ID, Name: a.Name})
	}
	return out, nil
}

// DeleteMediaItem deletes an item and its files from the server.
func (c *Client) DeleteMediaItem(ctx context.Context, id string) error {
	if err := c.api.DoJSON(ctx, http.MethodDelete, "/library/metadata/"+url.PathEscape(id), nil, nil, nil); err != nil {
		return fmt.Errorf("delete item %s: %w", id, err)
	}
	return nil
}

func (c *Client) machineIdentifier(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.machineID != "" {
		return c.machineID, nil
	}
	var resp container
	if err := c.api.DoJSON(ctx, http.MethodGet, "/", nil, nil, &resp); err != nil {
		return "", fmt.Errorf("get server identity: %w", err)
	}
	c.machineID = resp.MediaContainer.MachineIdentifier
	return c.machineID, nil
}

func (c *Client) itemURI(ctx context.Context, itemID string) (string, error) {
	machine, err := c.machineIdentifier(ctx)
	if err != nil {
		return "", err
	}
	uri := "server://" + machine + "/com.plexapp.plugins.library"
	if itemID != "" {
		uri += "/library/metadata/" + itemID
	}
	return uri, nil
}

func collectionType(kind media.Kind) string {
	if kind == media.KindShow {
		return "2"
	}
	return "1"
}

// CreateCollection creates an empty collection in a library section and
// returns its id.
func (c *Client) CreateCollection(ctx context.Context, libraryID, title string, kind media.Kind) (string, error) {
	uri, err := c.itemURI(ctx, "")
	if err != nil {
		return "", err
	}
	query := url.Values{
		"type":      {collectionType(kind)},
		"title":     {title},
		"smart":     {"0"},
		"sectionId": {libraryID},
		"uri":       {uri},
	}
	var resp container
	if err := c.api.DoJSON(ctx, http.MethodPost, "/library/collections", query, nil, &resp); err != nil {
		return "", fmt.Errorf("create collection %q: %w", title, err)
	}
	if len(resp.MediaContainer.Metadata) == 0 {
		return "", fmt.Errorf("create collection %q: empty response", title)
	}
	return resp.MediaContainer.Metadata[0].RatingKey, nil
}

// AddToCollection adds an item to a collection.
func (c *Client) AddToCollection(ctx context.Context, collectionID, itemID string) error {
	uri, err := c.itemURI(ctx, itemID)
	if err != nil {
		return err
	}
	path := "/library/collections/" + url.PathEscape(collectionID) + "/items"
	if err := c.api.DoJSON(ctx, http.MethodPut, path, url.Values{"uri": {uri}}, nil, nil); err != nil {
		return fmt.Errorf("add %s to collection %s: %w", itemID, collectionID, err)
	}
	return nil
}

// RemoveFromCollection removes an item from a collection.
func (c *Client) RemoveFromCollection(ctx context.Context, collectionID, itemID string) error {
	path := "/library/collections/" + url.PathEscape(collectionID) + "/items/" + url.PathEscape(itemID)
	if err := c.api.DoJSON(ctx, http.MethodDelete, path, nil, nil, nil); err != nil {
		return fmt.Errorf("remove %s from collection %s: %w", itemID, collectionID, err)
	}
	return nil
}

// DeleteCollection deletes a collection. The items are kept.
func (c *Client) DeleteCollection(ctx context.Context, collectionID string) error {
	if err := c.api.DoJSON(ctx, http.MethodDelete, "/library/collections/"+url.PathEscape(collectionID), nil, nil, nil); err != nil {
		return fmt.Errorf("delete collection %s: %w", collectionID, err)
	}
	return nil
}
