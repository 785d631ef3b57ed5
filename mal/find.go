// Package mal provides an OAuth2 (PKCE) client for the MyAnimeList REST API.
package mal

import (
	"context"
	"fmt"
	"strings"

	"github.com/malgo-cli/malgo/log"
	"github.com/malgo-cli/malgo/util"
	levenshtein "github.com/ka-weihe/fast-levenshtein"
	"github.com/samber/lo"
)

// normalizedTitle returns a lowercased, trimmed string for consistent comparison.
func normalizedTitle(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// SetRelation persists a mapping between a free-form title and its
// MyAnimeList record so later lookups skip the search round trip.
func SetRelation(name string, to *Anime) error {
	if err := relationCacher.Set(name, to.ID); err != nil {
		return err
	}

	if cached := idCacher.Get(to.ID); cached.IsAbsent() {
		return idCacher.Set(to.ID, to)
	}

	return nil
}

// FindClosest resolves a free-form title to the closest matching anime,
// consulting the local relation caches before hitting the search endpoint.
func (c *Client) FindClosest(ctx context.Context, name string) (*Anime, error) {
	name = normalizedTitle(name)
	return c.findClosest(ctx, name, name, 0, 3)
}

// findClosest performs the cached lookup with a word-dropping retry: when a
// title yields nothing, the last word is shaved off and the search repeated,
// up to the attempt limit.
func (c *Client) findClosest(ctx context.Context, name, originalName string, try, limit int) (*Anime, error) {
	if try >= limit {
		err := fmt.Errorf("no results found on MAL for anime %s", name)
		log.Error(err)
		// Cache the miss so repeated lookups don't burn API calls.
		_ = relationCacher.Set(originalName, -1)
		return nil, err
	}

	id := relationCacher.Get(name)
	if id.IsPresent() {
		if id.MustGet() == -1 {
			return nil, fmt.Errorf("no results found on MAL for anime %s", name)
		}

		if anime, ok := idCacher.Get(id.MustGet()).Get(); ok {
			if try > 0 {
				_ = relationCacher.Set(originalName, anime.ID)
			}
			return anime, nil
		}
	}

	animes, err := c.SearchAnime(ctx, name, 0)
	if err != nil {
		log.Error(err)
		return nil, err
	}

	if id.IsPresent() {
		found, ok := lo.Find(animes, func(item Anime) bool {
			return item.ID == id.MustGet()
		})

		if ok {
			return &found, nil
		}

		// The bound record no longer exists on MAL; drop the stale binding.
		_ = relationCacher.Delete(name)
		log.Infof("anime with id %d was deleted from MAL", id.MustGet())
	}

	if len(animes) == 0 {
		words := strings.Split(name, " ")
		if len(words) <= 2 {
			return c.findClosest(ctx, name, originalName, limit, limit)
		}

		// one word less
		alternateName := strings.Join(words[:util.Max(len(words)-1, 1)], " ")
		log.Infof(`no results found on MAL for anime "%s", trying "%s"`, name, alternateName)
		return c.findClosest(ctx, alternateName, originalName, try+1, limit)
	}

	closest := lo.MinBy(animes, func(a, b Anime) bool {
		return levenshtein.Distance(
			name,
			normalizedTitle(a.Title),
		) < levenshtein.Distance(
			name,
			normalizedTitle(b.Title),
		)
	})

	log.Info("found closest match: " + closest.Title)

	save := func(n string) {
		if id := relationCacher.Get(n); id.IsAbsent() {
			_ = relationCacher.Set(n, closest.ID)
		}
	}

	save(name)
	save(originalName)

	_ = idCacher.Set(closest.ID, &closest)
	return &closest, nil
}
