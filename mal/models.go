// Package mal provides an OAuth2 (PKCE) client for the MyAnimeList REST API.
package mal

// The MyAnimeList API omits most fields unless explicitly requested, so the
// response models use pointers for everything optional. A nil pointer means
// the field was absent, which is distinct from a zero value.

// Picture holds the artwork URLs attached to an anime entry.
type Picture struct {
	Medium string `json:"medium"`
	Large  string `json:"large"`
}

// Anime is the minimal node shape shared by list, search and ranking
// responses.
type Anime struct {
	ID          int      `json:"id"`
	Title       string   `json:"title"`
	MainPicture *Picture `json:"main_picture,omitempty"`
}

// AlternativeTitles groups the localized and synonym titles of a show.
type AlternativeTitles struct {
	Synonyms []string `json:"synonyms,omitempty"`
	En       string   `json:"en,omitempty"`
	Ja       string   `json:"ja,omitempty"`
}

// Genre is a single genre tag.
type Genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Studio is a production studio reference.
type Studio struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// StartSeason identifies the broadcast season of a show.
type StartSeason struct {
	Year   int    `json:"year"`
	Season Season `json:"season"`
}

// AnimeDetails is the full detail record for a single show. Fields not named
// in the request's field selector come back absent.
type AnimeDetails struct {
	Anime

	AlternativeTitles      *AlternativeTitles `json:"alternative_titles,omitempty"`
	StartDate              *string            `json:"start_date,omitempty"`
	EndDate                *string            `json:"end_date,omitempty"`
	Synopsis               *string            `json:"synopsis,omitempty"`
	Mean                   *float64           `json:"mean,omitempty"`
	Rank                   *int               `json:"rank,omitempty"`
	Popularity             *int               `json:"popularity,omitempty"`
	NumListUsers           *int               `json:"num_list_users,omitempty"`
	NumEpisodes            *int               `json:"num_episodes,omitempty"`
	Status                 *string            `json:"status,omitempty"`
	MediaType              *string            `json:"media_type,omitempty"`
	StartSeason            *StartSeason       `json:"start_season,omitempty"`
	Source                 *string            `json:"source,omitempty"`
	AverageEpisodeDuration *int               `json:"average_episode_duration,omitempty"`
	Rating                 *string            `json:"rating,omitempty"`
	Genres                 []Genre            `json:"genres,omitempty"`
	Studios                []Studio           `json:"studios,omitempty"`
	MyListStatus           *ListStatus        `json:"my_list_status,omitempty"`
}

// RankedAnime couples an anime node with its position in a ranking.
type RankedAnime struct {
	Anime
	Rank int
}

// ListStatus is the user-specific state of one list entry.
type ListStatus struct {
	Status             ListStatusKind `json:"status"`
	Score              int            `json:"score"`
	NumEpisodesWatched int            `json:"num_episodes_watched"`
	IsRewatching       bool           `json:"is_rewatching"`
	UpdatedAt          string         `json:"updated_at"`
}

// UserListEntry is one row of the user's anime list.
type UserListEntry struct {
	Node       Anime       `json:"node"`
	ListStatus *ListStatus `json:"list_status,omitempty"`
}

// AnimeStatistics summarizes a user's list activity.
type AnimeStatistics struct {
	NumItemsWatching    int     `json:"num_items_watching"`
	NumItemsCompleted   int     `json:"num_items_completed"`
	NumItemsOnHold      int     `json:"num_items_on_hold"`
	NumItemsDropped     int     `json:"num_items_dropped"`
	NumItemsPlanToWatch int     `json:"num_items_plan_to_watch"`
	NumItems            int     `json:"num_items"`
	NumDaysWatched      float64 `json:"num_days_watched"`
	NumEpisodes         int     `json:"num_episodes"`
	MeanScore           float64 `json:"mean_score"`
}

// User is the authenticated user's profile.
type User struct {
	ID              int              `json:"id"`
	Name            string           `json:"name"`
	Location        *string          `json:"location,omitempty"`
	JoinedAt        *string          `json:"joined_at,omitempty"`
	AnimeStatistics *AnimeStatistics `json:"anime_statistics,omitempty"`
}

// ForumBoard is a single discussion board.
type ForumBoard struct {
	ID          int             `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Subboards   []ForumSubboard `json:"subboards,omitempty"`
}

// ForumSubboard is a nested board.
type ForumSubboard struct {
	ID    int    `json:"id"`
	Title string `json:"title"`
}

// ForumBoardCategory groups the boards as presented by the API.
type ForumBoardCategory struct {
	Title  string       `json:"title"`
	Boards []ForumBoard `json:"boards"`
}

// ForumTopic is one row of a topic listing.
type ForumTopic struct {
	ID                int    `json:"id"`
	Title             string `json:"title"`
	CreatedAt         string `json:"created_at"`
	NumberOfPosts     int    `json:"number_of_posts"`
	LastPostCreatedAt string `json:"last_post_created_at"`
	IsLocked          bool   `json:"is_locked"`
}

// ForumPost is a single post inside a topic.
type ForumPost struct {
	ID        int    `json:"id"`
	Number    int    `json:"number"`
	CreatedAt string `json:"created_at"`
	Body      string `json:"body"`
	CreatedBy struct {
		ID   int    `json:"id"`
		Name string `json:"name"`
	} `json:"created_by"`
}

// TopicDetail is the full content of one forum topic.
type TopicDetail struct {
	Title string      `json:"title"`
	Posts []ForumPost `json:"posts"`
}
