package types

import "fmt"

// ApplicationID identifies an external system a rule can read from.
type ApplicationID int

const (
	// Plex is the library server.
	Plex ApplicationID = iota
	// Radarr is the movie manager.
	Radarr
	// Sonarr is the show manager.
	Sonarr
	// Overseerr is the request tracker.
	Overseerr
)

// String returns the lowercase application name.
func (a ApplicationID) String() string {
	switch a {
	case Plex:
		return "plex"
	case Radarr:
		return "radarr"
	case Sonarr:
		return "sonarr"
	case Overseerr:
		return "overseerr"
	default:
		return fmt.Sprintf("application(%d)", int(a))
	}
}

// MediaScope restricts an application to the library kinds it can describe.
type MediaScope int

const (
	ScopeAll MediaScope = iota
	ScopeMovies
	ScopeShows
)

// Property is a named value an application exposes to rules.
type Property struct {
	ID        int      `json:"id" yaml:"id"`
	Name      string   `json:"name" yaml:"name"`
	HumanName string   `json:"humanName" yaml:"human_name"`
	Type      RuleType `json:"type" yaml:"-"`
}

// Application is an external system and the properties it exposes.
type Application struct {
	ID         ApplicationID `json:"id" yaml:"id"`
	Name       string        `json:"name" yaml:"name"`
	Scope      MediaScope    `json:"-" yaml:"-"`
	Properties []Property    `json:"props" yaml:"properties"`
}

// Property ids per application. Ids are persisted inside rule documents and
// must never be renumbered.
const (
	PlexAddDate = iota
	PlexSeenBy
	PlexReleaseDate
	PlexRating
	PlexPeople
	PlexViewCount
	PlexCollectionCount
	PlexLastViewedAt
	PlexVideoResolution
	PlexBitrate
	PlexVideoCodec
	PlexGenres
	PlexEpisodeCount
	PlexViewedEpisodes
	PlexLabels
	PlexTitle
)

const (
	RadarrAddDate = iota
	RadarrFileDate
	RadarrTags
	RadarrProfile
	RadarrReleaseDate
	RadarrMonitored
	RadarrSizeOnDisk
	RadarrOriginalLanguage
	RadarrRuntime
	RadarrFileQuality
)

const (
	SonarrAddDate = iota
	SonarrSizeOnDisk
	SonarrTags
	SonarrProfile
	SonarrFirstAirDate
	SonarrSeasonCount
	SonarrStatus
	SonarrEnded
	SonarrMonitored
	SonarrEpisodeFileCount
	SonarrNetwork
)

const (
	OverseerrRequestedBy = iota
	OverseerrRequestDate
	OverseerrReleaseDate
	OverseerrRequestCount
	OverseerrIsRequested
)

func defaultApplications() []Application {
	return []Application{
		{
			ID:    Plex,
			Name:  "Plex",
			Scope: ScopeAll,
			Properties: []Property{
				{ID: PlexAddDate, Name: "addDate", HumanName: "Date added", Type: RuleTypeDate},
				{ID: PlexSeenBy, Name: "seenBy", HumanName: "[list] Viewed by (username)", Type: RuleTypeUserGroup},
				{ID: PlexReleaseDate, Name: "releaseDate", HumanName: "Release date", Type: RuleTypeDate},
				{ID: PlexRating, Name: "rating", HumanName: "Rating", Type: RuleTypeNumber},
				{ID: PlexPeople, Name: "people", HumanName: "[list] People involved", Type: RuleTypeTextGroup},
				{ID: PlexViewCount, Name: "viewCount", HumanName: "Times viewed", Type: RuleTypeNumber},
				{ID: PlexCollectionCount, Name: "collections", HumanName: "Present in amount of other collections", Type: RuleTypeNumber},
				{ID: PlexLastViewedAt, Name: "lastViewedAt", HumanName: "Last view date", Type: RuleTypeDate},
				{ID: PlexVideoResolution, Name: "fileVideoResolution", HumanName: "[file] Video resolution", Type: RuleTypeText},
				{ID: PlexBitrate, Name: "fileBitrate", HumanName: "[file] Bitrate", Type: RuleTypeNumber},
				{ID: PlexVideoCodec, Name: "fileVideoCodec", HumanName: "[file] Video codec", Type: RuleTypeText},
				{ID: PlexGenres, Name: "genre", HumanName: "[list] Genres", Type: RuleTypeTextGroup},
				{ID: PlexEpisodeCount, Name: "episodeCount", HumanName: "[show] Amount of episodes", Type: RuleTypeNumber},
				{ID: PlexViewedEpisodes, Name: "viewedEpisodes", HumanName: "[show] Amount of watched episodes", Type: RuleTypeNumber},
				{ID: PlexLabels, Name: "labels", HumanName: "[list] Labels", Type: RuleTypeTextGroup},
				{ID: PlexTitle, Name: "title", HumanName: "Title", Type: RuleTypeText},
			},
		},
		{
			ID:    Radarr,
			Name:  "Radarr",
			Scope: ScopeMovies,
			Properties: []Property{
				{ID: RadarrAddDate, Name: "addDate", HumanName: "Date added", Type: RuleTypeDate},
				{ID: RadarrFileDate, Name: "fileDate", HumanName: "[file] Date added", Type: RuleTypeDate},
				{ID: RadarrTags, Name: "tags", HumanName: "[list] Tags", Type: RuleTypeTextGroup},
				{ID: RadarrProfile, Name: "profile", HumanName: "Quality profile", Type: RuleTypeText},
				{ID: RadarrReleaseDate, Name: "releaseDate", HumanName: "Release date", Type: RuleTypeDate},
				{ID: RadarrMonitored, Name: "monitored", HumanName: "Is monitored (1 = yes, 0 = no)", Type: RuleTypeNumber},
				{ID: RadarrSizeOnDisk, Name: "sizeOnDisk", HumanName: "[file] Size on disk (GB)", Type: RuleTypeNumber},
				{ID: RadarrOriginalLanguage, Name: "originalLanguage", HumanName: "Original language", Type: RuleTypeText},
				{ID: RadarrRuntime, Name: "runtime", HumanName: "Runtime (minutes)", Type: RuleTypeNumber},
				{ID: RadarrFileQuality, Name: "fileQuality", HumanName: "[file] Quality", Type: RuleTypeText},
			},
		},
		{
			ID:    Sonarr,
			Name:  "Sonarr",
			Scope: ScopeShows,
			Properties: []Property{
				{ID: SonarrAddDate, Name: "addDate", HumanName: "Date added", Type: RuleTypeDate},
				{ID: SonarrSizeOnDisk, Name: "sizeOnDisk", HumanName: "[files] Size on disk (GB)", Type: RuleTypeNumber},
				{ID: SonarrTags, Name: "tags", HumanName: "[list] Tags", Type: RuleTypeTextGroup},
				{ID: SonarrProfile, Name: "profile", HumanName: "Quality profile", Type: RuleTypeText},
				{ID: SonarrFirstAirDate, Name: "firstAirDate", HumanName: "First air date", Type: RuleTypeDate},
				{ID: SonarrSeasonCount, Name: "seasons", HumanName: "Number of seasons", Type: RuleTypeNumber},
				{ID: SonarrStatus, Name: "status", HumanName: "Status (continuing, ended)", Type: RuleTypeText},
				{ID: SonarrEnded, Name: "ended", HumanName: "Show ended (1 = yes, 0 = no)", Type: RuleTypeNumber},
				{ID: SonarrMonitored, Name: "monitored", HumanName: "Is monitored (1 = yes, 0 = no)", Type: RuleTypeNumber},
				{ID: SonarrEpisodeFileCount, Name: "episodeFileCount", HumanName: "[files] Amount of downloaded episodes", Type: RuleTypeNumber},
				{ID: SonarrNetwork, Name: "network", HumanName: "Network", Type: RuleTypeText},
			},
		},
		{
			ID:    Overseerr,
			Name:  "Overseerr",
			Scope: ScopeAll,
			Properties: []Property{
				{ID: OverseerrRequestedBy, Name: "addUser", HumanName: "[list] Requested by (username)", Type: RuleTypeUserGroup},
				{ID: OverseerrRequestDate, Name: "requestDate", HumanName: "Request date", Type: RuleTypeDate},
				{ID: OverseerrReleaseDate, Name: "releaseDate", HumanName: "Release date", Type: RuleTypeDate},
				{ID: OverseerrRequestCount, Name: "amountRequested", HumanName: "Amount of requests", Type: RuleTypeNumber},
				{ID: OverseerrIsRequested, Name: "isRequested", HumanName: "Requested (1 = yes, 0 = no)", Type: RuleTypeNumber},
			},
		},
	}
}
