// Package mal provides an OAuth2 (PKCE) client for the MyAnimeList REST API.
package mal

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
)

// nodeList is the paginated envelope shared by most listing endpoints.
type nodeList struct {
	Data []struct {
		Node    Anime `json:"node"`
		Ranking *struct {
			Rank int `json:"rank"`
		} `json:"ranking,omitempty"`
	} `json:"data"`
}

func (l nodeList) animes() []Anime {
	animes := make([]Anime, 0, len(l.Data))
	for _, entry := range l.Data {
		animes = append(animes, entry.Node)
	}
	return animes
}

// SearchAnime looks up anime titles matching the query string.
func (c *Client) SearchAnime(ctx context.Context, query string, limit int) ([]Anime, error) {
	q := url.Values{}
	q.Set("q", query)
	q.Set("limit", strconv.Itoa(clampLimit(limit)))

	var result nodeList
	if err := c.get(ctx, "/anime", q, &result); err != nil {
		return nil, fmt.Errorf("search anime: %w", err)
	}
	return result.animes(), nil
}

// AnimeDetails fetches the detail record for a show by its ID. With no
// explicit fields the full attribute set is requested, matching the behavior
// most callers expect from a detail view.
func (c *Client) AnimeDetails(ctx context.Context, id int, fields ...Field) (*AnimeDetails, error) {
	if len(fields) == 0 {
		fields = AllFields
	}

	q := url.Values{}
	q.Set("fields", joinFields(fields))

	var details AnimeDetails
	if err := c.get(ctx, "/anime/"+strconv.Itoa(id), q, &details); err != nil {
		return nil, fmt.Errorf("anime details %d: %w", id, err)
	}
	return &details, nil
}

// AnimeRanking fetches a ranking chart.
func (c *Client) AnimeRanking(ctx context.Context, ranking RankingType, limit int) ([]RankedAnime, error) {
	q := url.Values{}
	q.Set("ranking_type", string(ranking))
	q.Set("limit", strconv.Itoa(clampLimit(limit)))

	var result nodeList
	if err := c.get(ctx, "/anime/ranking", q, &result); err != nil {
		return nil, fmt.Errorf("anime ranking: %w", err)
	}

	ranked := make([]RankedAnime, 0, len(result.Data))
	for _, entry := range result.Data {
		r := RankedAnime{Anime: entry.Node}
		if entry.Ranking != nil {
			r.Rank = entry.Ranking.Rank
		}
		ranked = append(ranked, r)
	}
	return ranked, nil
}

// SeasonalAnime fetches the shows airing in a given year and season.
func (c *Client) SeasonalAnime(ctx context.Context, year int, season Season, limit int) ([]Anime, error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(clampLimit(limit)))

	path := fmt.Sprintf("/anime/season/%d/%s", year, season)

	var result nodeList
	if err := c.get(ctx, path, q, &result); err != nil {
		return nil, fmt.Errorf("seasonal anime %d/%s: %w", year, season, err)
	}
	return result.animes(), nil
}

// SuggestedAnime fetches suggestions for the authenticated user. The list can
// legitimately be empty for fresh accounts.
func (c *Client) SuggestedAnime(ctx context.Context, limit int) ([]Anime, error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(clampLimit(limit)))

	var result nodeList
	if err := c.get(ctx, "/anime/suggestions", q, &result); err != nil {
		return nil, fmt.Errorf("suggested anime: %w", err)
	}
	return result.animes(), nil
}

// clampLimit normalizes a result limit to the API's accepted 1..100 range,
// defaulting to the maximum the way the original endpoints do.
func clampLimit(limit int) int {
	if limit <= 0 || limit > 100 {
		return 100
	}
	return limit
}
