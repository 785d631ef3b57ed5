// Package mal provides an OAuth2 (PKCE) client for the MyAnimeList REST API.
package mal

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
)

// ForumTopicsOptions narrows a forum topic listing. Zero values are omitted
// from the request.
type ForumTopicsOptions struct {
	BoardID       int
	SubboardID    int
	Query         string
	TopicUserName string
	UserName      string
	Limit         int
}

// ForumBoards fetches every discussion board, grouped by category.
func (c *Client) ForumBoards(ctx context.Context) ([]ForumBoardCategory, error) {
	var result struct {
		Categories []ForumBoardCategory `json:"categories"`
	}
	if err := c.get(ctx, "/forum/boards", nil, &result); err != nil {
		return nil, fmt.Errorf("forum boards: %w", err)
	}
	return result.Categories, nil
}

// ForumTopics fetches the topics matching the given options.
func (c *Client) ForumTopics(ctx context.Context, opts ForumTopicsOptions) ([]ForumTopic, error) {
	q := url.Values{}
	if opts.BoardID != 0 {
		q.Set("board_id", strconv.Itoa(opts.BoardID))
	}
	if opts.SubboardID != 0 {
		q.Set("subboard_id", strconv.Itoa(opts.SubboardID))
	}
	if opts.Query != "" {
		q.Set("q", opts.Query)
	}
	if opts.TopicUserName != "" {
		q.Set("topic_user_name", opts.TopicUserName)
	}
	if opts.UserName != "" {
		q.Set("user_name", opts.UserName)
	}
	q.Set("limit", strconv.Itoa(clampLimit(opts.Limit)))

	var result struct {
		Data []ForumTopic `json:"data"`
	}
	if err := c.get(ctx, "/forum/topics", q, &result); err != nil {
		return nil, fmt.Errorf("forum topics: %w", err)
	}
	return result.Data, nil
}

// ForumTopicDetail fetches the posts of a single topic.
func (c *Client) ForumTopicDetail(ctx context.Context, topicID, limit int) (*TopicDetail, error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(clampLimit(limit)))

	var result struct {
		Data TopicDetail `json:"data"`
	}
	if err := c.get(ctx, "/forum/topic/"+strconv.Itoa(topicID), q, &result); err != nil {
		return nil, fmt.Errorf("forum topic %d: %w", topicID, err)
	}
	return &result.Data, nil
}
