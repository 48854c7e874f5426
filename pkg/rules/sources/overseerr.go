package sources

import (
	"context"
	"log/slog"
	"time"

	"curator-hq/curator/pkg/clients/overseerr"
	"curator-hq/curator/pkg/media"
	"curator-hq/curator/pkg/rules/types"
)

// OverseerrAPI is the part of the request tracker client the resolver uses.
type OverseerrAPI interface {
	GetMedia(ctx context.Context, kind media.Kind, tmdbID int) (*overseerr.Media, error)
}

type mediaKey struct {
	kind   media.Kind
	tmdbID int
}

// OverseerrResolver resolves request tracker properties by TMDB id.
type OverseerrResolver struct {
	api    OverseerrAPI
	media  *lookupCache[mediaKey, *overseerr.Media]
	logger *slog.Logger
}

// NewOverseerrResolver creates a resolver. Lookups are cached for ttl.
func NewOverseerrResolver(api OverseerrAPI, ttl time.Duration) *OverseerrResolver {
	return &OverseerrResolver{
		api:    api,
		media:  newLookupCache[mediaKey, *overseerr.Media](ttl),
		logger: slog.Default().With("component", "rules.sources.overseerr"),
	}
}

// Reset drops cached lookups.
func (r *OverseerrResolver) Reset() {
	r.media.reset()
}

// Resolve implements Resolver.
func (r *OverseerrResolver) Resolve(ctx context.Context, propertyID int, item media.Item) (any, bool) {
	key := mediaKey{kind: item.Kind, tmdbID: item.TmdbID()}
	if key.tmdbID == 0 {
		r.logger.Debug("item has no tmdb id", "item", item.ID)
		return nil, false
	}
	m, err := r.media.get(key, func() (*overseerr.Media, error) {
		return r.api.GetMedia(ctx, key.kind, key.tmdbID)
	})
	if err != nil {
		r.logger.Debug("media lookup failed", "item", item.ID, "tmdb_id", key.tmdbID, "error", err)
		return nil, false
	}

	var requests []overseerr.Request
	if m.MediaInfo != nil {
		requests = m.MediaInfo.Requests
	}

	switch propertyID {
	case types.OverseerrRequestedBy:
		seen := make(map[string]bool)
		out := []string{}
		for _, req := range requests {
			name := req.RequestedBy.Name()
			if name == "" || seen[name] {
				continue
			}
			seen[name] = true
			out = append(out, name)
		}
		return out, true
	case types.OverseerrRequestDate:
		var first time.Time
		for _, req := range requests {
			if first.IsZero() || req.CreatedAt.Before(first) {
				first = req.CreatedAt
			}
		}
		return dateValue(first)
	case types.OverseerrReleaseDate:
		if t, ok := m.Released(); ok {
			return t, true
		}
		return nil, false
	case types.OverseerrRequestCount:
		return float64(len(requests)), true
	case types.OverseerrIsRequested:
		return boolNumber(len(requests) > 0), true
	default:
		r.logger.Debug("unknown property", "property_id", propertyID)
		return nil, false
	}
}
