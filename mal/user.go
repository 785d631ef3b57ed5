// Package mal provides an OAuth2 (PKCE) client for the MyAnimeList REST API.
package mal

import (
	"context"
	"fmt"
	"net/url"
)

// MyUserInfo fetches the authenticated user's profile, including list
// statistics.
func (c *Client) MyUserInfo(ctx context.Context) (*User, error) {
	q := url.Values{}
	q.Set("fields", "anime_statistics")

	var user User
	if err := c.get(ctx, "/users/@me", q, &user); err != nil {
		return nil, fmt.Errorf("user info: %w", err)
	}
	return &user, nil
}
