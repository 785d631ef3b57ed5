// Package mal provides an OAuth2 (PKCE) client for the MyAnimeList REST API.
package mal

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/samber/mo"
)

// ListUpdate describes a partial update of one list entry. Absent options
// leave the corresponding attribute untouched server-side, which is why
// explicit optionals are used instead of zero values.
type ListUpdate struct {
	Status          mo.Option[ListStatusKind]
	Score           mo.Option[int]
	EpisodesWatched mo.Option[int]
	IsRewatching    mo.Option[bool]
}

// values renders the update as form parameters.
func (u ListUpdate) values() url.Values {
	form := url.Values{}
	if status, ok := u.Status.Get(); ok {
		form.Set("status", string(status))
	}
	if score, ok := u.Score.Get(); ok {
		form.Set("score", strconv.Itoa(score))
	}
	if eps, ok := u.EpisodesWatched.Get(); ok {
		form.Set("num_watched_episodes", strconv.Itoa(eps))
	}
	if re, ok := u.IsRewatching.Get(); ok {
		form.Set("is_rewatching", strconv.FormatBool(re))
	}
	return form
}

// UserAnimeList fetches the authenticated user's anime list, optionally
// filtered to a single status bucket (empty kind means all).
func (c *Client) UserAnimeList(ctx context.Context, status ListStatusKind, limit int) ([]UserListEntry, error) {
	q := url.Values{}
	if status != "" {
		q.Set("status", string(status))
	}
	q.Set("fields", "list_status")
	q.Set("limit", strconv.Itoa(clampLimit(limit)))

	var result struct {
		Data []UserListEntry `json:"data"`
	}
	if err := c.get(ctx, "/users/@me/animelist", q, &result); err != nil {
		return nil, fmt.Errorf("user anime list: %w", err)
	}
	return result.Data, nil
}

// UpdateListStatus adds the anime to the user's list or updates the existing
// entry, returning the resulting list state.
func (c *Client) UpdateListStatus(ctx context.Context, id int, update ListUpdate) (*ListStatus, error) {
	var status ListStatus
	path := "/anime/" + strconv.Itoa(id) + "/my_list_status"
	if err := c.do(ctx, http.MethodPatch, path, nil, update.values(), &status); err != nil {
		return nil, fmt.Errorf("update list status %d: %w", id, err)
	}
	return &status, nil
}

// DeleteListItem removes the anime from the user's list. Deleting an entry
// that is not on the list yields ErrNotFound.
func (c *Client) DeleteListItem(ctx context.Context, id int) error {
	path := "/anime/" + strconv.Itoa(id) + "/my_list_status"
	if err := c.do(ctx, http.MethodDelete, path, nil, nil, nil); err != nil {
		return fmt.Errorf("delete list item %d: %w", id, err)
	}
	return nil
}
