package sources

import (
	"context"
	"log/slog"
	"time"

	"curator-hq/curator/pkg/clients/servarr"
	"curator-hq/curator/pkg/media"
	"curator-hq/curator/pkg/rules/types"
)

// ManagerCatalog is the tag and profile listing shared by both managers.
type ManagerCatalog interface {
	Tags(ctx context.Context) ([]servarr.Tag, error)
	QualityProfiles(ctx context.Context) ([]servarr.QualityProfile, error)
}

// RadarrAPI is the part of the movie manager client the resolver uses.
type RadarrAPI interface {
	ManagerCatalog
	MovieByTmdb(ctx context.Context, tmdbID int) (*servarr.Movie, error)
}

// SonarrAPI is the part of the show manager client the resolver uses.
type SonarrAPI interface {
	ManagerCatalog
	SeriesByTvdb(ctx context.Context, tvdbID int) (*servarr.Series, error)
}

// catalog memoizes tag and quality profile names.
type catalog struct {
	api      ManagerCatalog
	tags     *lookupCache[struct{}, map[int]string]
	profiles *lookupCache[struct{}, map[int]string]
}

func newCatalog(api ManagerCatalog, ttl time.Duration) catalog {
	return catalog{
		api:      api,
		tags:     newLookupCache[struct{}, map[int]string](ttl),
		profiles: newLookupCache[struct{}, map[int]string](ttl),
	}
}

func (c catalog) reset() {
	c.tags.reset()
	c.profiles.reset()
}

func (c catalog) tagNames(ctx context.Context, ids []int) ([]string, error) {
	names, err := c.tags.get(struct{}{}, func() (map[int]string, error) {
		tags, err := c.api.Tags(ctx)
		if err != nil {
			return nil, err
		}
		m := make(map[int]string, len(tags))
		for _, t := range tags {
			m[t.ID] = t.Label
		}
		return m, nil
	})
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if name, ok := names[id]; ok {
			out = append(out, name)
		}
	}
	return out, nil
}

func (c catalog) profileName(ctx context.Context, id int) (string, bool, error) {
	names, err := c.profiles.get(struct{}{}, func() (map[int]string, error) {
		profiles, err := c.api.QualityProfiles(ctx)
		if err != nil {
			return nil, err
		}
		m := make(map[int]string, len(profiles))
		for _, p := range profiles {
			m[p.ID] = p.Name
		}
		return m, nil
	})
	if err != nil {
		return "", false, err
	}
	name, ok := names[id]
	return name, ok, nil
}

// RadarrResolver resolves movie manager properties for movies, matching
// library items to Radarr records by TMDB id.
type RadarrResolver struct {
	api     RadarrAPI
	movies  *lookupCache[int, *servarr.Movie]
	catalog catalog
	logger  *slog.Logger
}

// NewRadarrResolver creates a resolver. Lookups are cached for ttl.
func NewRadarrResolver(api RadarrAPI, ttl time.Duration) *RadarrResolver {
	return &RadarrResolver{
		api:     api,
		movies:  newLookupCache[int, *servarr.Movie](ttl),
		catalog: newCatalog(api, ttl),
		logger:  slog.Default().With("component", "rules.sources.radarr"),
	}
}

// Reset drops cached lookups.
func (r *RadarrResolver) Reset() {
	r.movies.reset()
	r.catalog.reset()
}

// Resolve implements Resolver.
func (r *RadarrResolver) Resolve(ctx context.Context, propertyID int, item media.Item) (any, bool) {
	if item.Kind != media.KindMovie {
		return nil, false
	}
	tmdbID := item.TmdbID()
	if tmdbID == 0 {
		r.logger.Debug("item has no tmdb id", "item", item.ID)
		return nil, false
	}
	movie, err := r.movies.get(tmdbID, func() (*servarr.Movie, error) {
		return r.api.MovieByTmdb(ctx, tmdbID)
	})
	if err != nil {
		r.logger.Debug("movie lookup failed", "item", item.ID, "tmdb_id", tmdbID, "error", err)
		return nil, false
	}

	switch propertyID {
	case types.RadarrAddDate:
		return dateValue(movie.Added)
	case types.RadarrFileDate:
		if movie.MovieFile == nil {
			return nil, false
		}
		return dateValue(movie.MovieFile.DateAdded)
	case types.RadarrTags:
		names, err := r.catalog.tagNames(ctx, movie.Tags)
		if err != nil {
			r.logger.Debug("tag lookup failed", "error", err)
			return nil, false
		}
		return names, true
	case types.RadarrProfile:
		name, ok, err := r.catalog.profileName(ctx, movie.QualityProfileID)
		if err != nil {
			r.logger.Debug("quality profile lookup failed", "error", err)
		}
		return name, ok
	case types.RadarrReleaseDate:
		if t, ok := movie.ReleaseDate(); ok {
			return t, true
		}
		return nil, false
	case types.RadarrMonitored:
		return boolNumber(movie.Monitored), true
	case types.RadarrSizeOnDisk:
		return float64(movie.SizeOnDisk) / bytesPerGB, true
	case types.RadarrOriginalLanguage:
		return movie.OriginalLanguage.Name, movie.OriginalLanguage.Name != ""
	case types.RadarrRuntime:
		return float64(movie.Runtime), true
	case types.RadarrFileQuality:
		if movie.MovieFile == nil {
			return nil, false
		}
		return movie.MovieFile.Quality.Quality.Name, true
	default:
		r.logger.Debug("unknown property", "property_id", propertyID)
		return nil, false
	}
}

// SonarrResolver resolves show manager properties for shows, matching
// library items to Sonarr records by TVDB id.
type SonarrResolver struct {
	api     SonarrAPI
	series  *lookupCache[int, *servarr.Series]
	catalog catalog
	logger  *slog.Logger
}

// NewSonarrResolver creates a resolver. Lookups are cached for ttl.
func NewSonarrResolver(api SonarrAPI, ttl time.Duration) *SonarrResolver {
	return &SonarrResolver{
		api:     api,
		series:  newLookupCache[int, *servarr.Series](ttl),
		catalog: newCatalog(api, ttl),
		logger:  slog.Default().With("component", "rules.sources.sonarr"),
	}
}

// Reset drops cached lookups.
func (r *SonarrResolver) Reset() {
	r.series.reset()
	r.catalog.reset()
}

// Resolve implements Resolver.
func (r *SonarrResolver) Resolve(ctx context.Context, propertyID int, item media.Item) (any, bool) {
	if item.Kind != media.KindShow {
		return nil, false
	}
	tvdbID := item.TvdbID()
	if tvdbID == 0 {
		r.logger.Debug("item has no tvdb id", "item", item.ID)
		return nil, false
	}
	series, err := r.series.get(tvdbID, func() (*servarr.Series, error) {
		return r.api.SeriesByTvdb(ctx, tvdbID)
	})
	if err != nil {
		r.logger.Debug("series lookup failed", "item", item.ID, "tvdb_id", tvdbID, "error", err)
		return nil, false
	}

	switch propertyID {
	case types.SonarrAddDate:
		return dateValue(series.Added)
	case types.SonarrSizeOnDisk:
		return float64(series.Statistics.SizeOnDisk) / bytesPerGB, true
	case types.SonarrTags:
		names, err := r.catalog.tagNames(ctx, series.Tags)
		if err != nil {
			r.logger.Debug("tag lookup failed", "error", err)
			return nil, false
		}
		return names, true
	case types.SonarrProfile:
		name, ok, err := r.catalog.profileName(ctx, series.QualityProfileID)
		if err != nil {
			r.logger.Debug("quality profile lookup failed", "error", err)
		}
		return name, ok
	case types.SonarrFirstAirDate:
		if series.FirstAired == nil {
			return nil, false
		}
		return dateValue(*series.FirstAired)
	case types.SonarrSeasonCount:
		return float64(series.Statistics.SeasonCount), true
	case types.SonarrStatus:
		return series.Status, series.Status != ""
	case types.SonarrEnded:
		return boolNumber(series.Ended), true
	case types.SonarrMonitored:
		return boolNumber(series.Monitored), true
	case types.SonarrEpisodeFileCount:
		return float64(series.Statistics.EpisodeFileCount), true
	case types.SonarrNetwork:
		return series.Network, series.Network != ""
	default:
		r.logger.Debug("unknown property", "property_id", propertyID)
		return nil, false
	}
}
