package sources

import (
	"context"
	"log/slog"
	"time"

	"curator-hq/curator/pkg/media"
	"curator-hq/curator/pkg/rules/types"
)

// PlexAPI is the part of the library server client the Plex resolver uses.
type PlexAPI interface {
	WatchHistory(ctx context.Context, id string) ([]media.View, error)
	Accounts(ctx context.Context) ([]media.Account, error)
}

// PlexResolver resolves library server properties. Most come straight from
// the listed item; seenBy needs the viewing history and account list.
type PlexResolver struct {
	api      PlexAPI
	accounts *lookupCache[struct{}, map[int]string]
	logger   *slog.Logger
}

// NewPlexResolver creates a resolver. The account list is cached for ttl.
func NewPlexResolver(api PlexAPI, ttl time.Duration) *PlexResolver {
	return &PlexResolver{
		api:      api,
		accounts: newLookupCache[struct{}, map[int]string](ttl),
		logger:   slog.Default().With("component", "rules.sources.plex"),
	}
}

// Reset drops the cached account list.
func (r *PlexResolver) Reset() {
	r.accounts.reset()
}

// Resolve implements Resolver.
func (r *PlexResolver) Resolve(ctx context.Context, propertyID int, item media.Item) (any, bool) {
	switch propertyID {
	case types.PlexAddDate:
		return dateValue(item.AddedAt)
	case types.PlexSeenBy:
		return r.seenBy(ctx, item)
	case types.PlexReleaseDate:
		return dateValue(item.OriginallyAvailableAt)
	case types.PlexRating:
		return item.Rating, true
	case types.PlexPeople:
		return textList(item.People), true
	case types.PlexViewCount:
		return float64(item.ViewCount), true
	case types.PlexCollectionCount:
		return float64(len(item.Collections)), true
	case types.PlexLastViewedAt:
		return dateValue(item.LastViewedAt)
	case types.PlexVideoResolution:
		return item.VideoResolution, item.VideoResolution != ""
	case types.PlexBitrate:
		return float64(item.Bitrate), item.Bitrate > 0
	case types.PlexVideoCodec:
		return item.VideoCodec, item.VideoCodec != ""
	case types.PlexGenres:
		return textList(item.Genres), true
	case types.PlexEpisodeCount:
		return float64(item.LeafCount), item.Kind == media.KindShow
	case types.PlexViewedEpisodes:
		return float64(item.ViewedLeafCount), item.Kind == media.KindShow
	case types.PlexLabels:
		return textList(item.Labels), true
	case types.PlexTitle:
		return item.Title, true
	default:
		r.logger.Debug("unknown property", "property_id", propertyID)
		return nil, false
	}
}

func (r *PlexResolver) seenBy(ctx context.Context, item media.Item) (any, bool) {
	views, err := r.api.WatchHistory(ctx, item.ID)
	if err != nil {
		r.logger.Debug("watch history lookup failed", "item", item.ID, "error", err)
		return nil, false
	}
	names, err := r.accounts.get(struct{}{}, func() (map[int]string, error) {
		accounts, err := r.api.Accounts(ctx)
		if err != nil {
			return nil, err
		}
		m := make(map[int]string, len(accounts))
		for _, a := range accounts {
			m[a.ID] = a.Name
		}
		return m, nil
	})
	if err != nil {
		r.logger.Debug("account lookup failed", "error", err)
		return nil, false
	}

	seen := make(map[string]bool)
	out := []string{}
	for _, v := range views {
		name, ok := names[v.AccountID]
		if !ok || seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, name)
	}
	return out, true
}
