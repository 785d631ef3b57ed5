// Package mal provides an OAuth2 (PKCE) client for the MyAnimeList REST API.
package mal

import (
	"path/filepath"
	"time"

	"github.com/malgo-cli/malgo/filesystem"
	"github.com/malgo-cli/malgo/where"
	"github.com/metafates/gache"
	"github.com/samber/mo"
)

// cacheData defines the structured format for persisting cached lookup
// records to disk.
type cacheData[K comparable, T any] struct {
	Animes map[K]T `json:"animes"`
}

// cacher provides a generic wrapper for the file-backed lookup caches.
type cacher[K comparable, T any] struct {
	internal   *gache.Cache[*cacheData[K, T]]
	keyWrapper func(K) K
}

// Get retrieves a value from the cache associated with the specified key.
func (c *cacher[K, T]) Get(key K) mo.Option[T] {
	data, expired, err := c.internal.Get()
	if err != nil || expired || data == nil {
		return mo.None[T]()
	}

	cached, ok := data.Animes[c.keyWrapper(key)]
	if ok {
		return mo.Some(cached)
	}

	return mo.None[T]()
}

// Set persists a key-value pair to the cache.
func (c *cacher[K, T]) Set(key K, t T) error {
	data, expired, err := c.internal.Get()
	if err != nil {
		return err
	}

	if !expired && data != nil {
		data.Animes[c.keyWrapper(key)] = t
		return c.internal.Set(data)
	}

	internal := &cacheData[K, T]{Animes: make(map[K]T)}
	internal.Animes[c.keyWrapper(key)] = t
	return c.internal.Set(internal)
}

// Delete removes the entry associated with the specified key from the cache.
func (c *cacher[K, T]) Delete(key K) error {
	data, expired, err := c.internal.Get()
	if err != nil {
		return err
	}

	if !expired && data != nil {
		delete(data.Animes, c.keyWrapper(key))
		return c.internal.Set(data)
	}

	return nil
}

// relationCacher persists title-to-ID mappings. It lives in the config
// directory since the bindings are user data, not disposable cache.
var relationCacher = &cacher[string, int]{
	internal: gache.New[*cacheData[string, int]](
		&gache.Options{
			Path:       where.AnimeBinds(),
			FileSystem: &filesystem.GacheFs{},
		},
	),
	keyWrapper: normalizedTitle,
}

// idCacher persists ID-to-record lookups for two days.
var idCacher = &cacher[int, *Anime]{
	internal: gache.New[*cacheData[int, *Anime]](
		&gache.Options{
			Path:       filepath.Join(where.Cache(), "mal_id_cache.json"),
			Lifetime:   time.Hour * 24 * 2,
			FileSystem: &filesystem.GacheFs{},
		},
	),
	keyWrapper: func(id int) int { return id },
}
