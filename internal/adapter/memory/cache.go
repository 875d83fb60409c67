// Package memory provides in-process adapters for development, the CLI and tests.
package memory

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

const DefaultCleanupInterval = 30 * time.Minute

// Cache is an in-process domain.Cache backed by go-cache.
type Cache struct {
	cache *gocache.Cache
}

func NewCache(cleanupInterval time.Duration) *Cache {
	return &Cache{cache: gocache.New(gocache.NoExpiration, cleanupInterval)}
}

func (c *Cache) Get(_ context.Context, key string) ([]byte, bool, error) {
	value, found := c.cache.Get(key)
	if !found {
		return nil, false, nil
	}

	data, ok := value.([]byte)
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), data...), true, nil
}

// Set stores a copy of data. A non-positive ttl never expires.
func (c *Cache) Set(_ context.Context, key string, data []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = gocache.NoExpiration
	}
	c.cache.Set(key, append([]byte(nil), data...), ttl)
	return nil
}

func (c *Cache) Delete(_ context.Context, key string) error {
	c.cache.Delete(key)
	return nil
}

func (c *Cache) Flush() {
	c.cache.Flush()
}
