// Package mal provides an OAuth2 (PKCE) client for the MyAnimeList REST API.
package mal

import "strings"

// Field names a detail attribute in the API's field selector. Requests that
// omit a selector get only the bare node shape back.
type Field string

const (
	FieldAlternativeTitles      Field = "alternative_titles"
	FieldStartDate              Field = "start_date"
	FieldEndDate                Field = "end_date"
	FieldSynopsis               Field = "synopsis"
	FieldMean                   Field = "mean"
	FieldRank                   Field = "rank"
	FieldPopularity             Field = "popularity"
	FieldNumListUsers           Field = "num_list_users"
	FieldNumEpisodes            Field = "num_episodes"
	FieldStatus                 Field = "status"
	FieldMediaType              Field = "media_type"
	FieldStartSeason            Field = "start_season"
	FieldSource                 Field = "source"
	FieldAverageEpisodeDuration Field = "average_episode_duration"
	FieldRating                 Field = "rating"
	FieldGenres                 Field = "genres"
	FieldStudios                Field = "studios"
	FieldMyListStatus           Field = "my_list_status"
)

// AllFields selects every detail attribute this package models.
var AllFields = []Field{
	FieldAlternativeTitles,
	FieldStartDate,
	FieldEndDate,
	FieldSynopsis,
	FieldMean,
	FieldRank,
	FieldPopularity,
	FieldNumListUsers,
	FieldNumEpisodes,
	FieldStatus,
	FieldMediaType,
	FieldStartSeason,
	FieldSource,
	FieldAverageEpisodeDuration,
	FieldRating,
	FieldGenres,
	FieldStudios,
	FieldMyListStatus,
}

// joinFields renders a field selector for the query string.
func joinFields(fields []Field) string {
	parts := make([]string, len(fields))
	for i, f := range fields {
		parts[i] = string(f)
	}
	return strings.Join(parts, ",")
}

// RankingType selects a chart for the ranking endpoint.
type RankingType string

const (
	RankingAll          RankingType = "all"
	RankingAiring       RankingType = "airing"
	RankingUpcoming     RankingType = "upcoming"
	RankingTV           RankingType = "tv"
	RankingMovie        RankingType = "movie"
	RankingByPopularity RankingType = "bypopularity"
	RankingFavorite     RankingType = "favorite"
)

// Season is one of the four broadcast seasons.
type Season string

const (
	SeasonWinter Season = "winter"
	SeasonSpring Season = "spring"
	SeasonSummer Season = "summer"
	SeasonFall   Season = "fall"
)

// ListStatusKind is a user-list bucket.
type ListStatusKind string

const (
	StatusWatching    ListStatusKind = "watching"
	StatusCompleted   ListStatusKind = "completed"
	StatusOnHold      ListStatusKind = "on_hold"
	StatusDropped     ListStatusKind = "dropped"
	StatusPlanToWatch ListStatusKind = "plan_to_watch"
)

// ListStatusKinds enumerates the valid user-list buckets.
var ListStatusKinds = []ListStatusKind{
	StatusWatching,
	StatusCompleted,
	StatusOnHold,
	StatusDropped,
	StatusPlanToWatch,
}
