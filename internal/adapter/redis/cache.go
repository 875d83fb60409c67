package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// DefaultInvalidationChannel carries the cache key of every deleted snapshot.
const DefaultInvalidationChannel = "scopeconf:invalidate"

// Cache is the shared domain.Cache. Delete also announces the invalidation so other
// processes drop their in-process snapshot.
type Cache struct {
	rdb     goredis.Cmdable
	channel string
}

func NewCache(rdb goredis.Cmdable, channel string) *Cache {
	if channel == "" {
		channel = DefaultInvalidationChannel
	}
	return &Cache{rdb: rdb, channel: channel}
}

func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis GET %s failed: %w", key, err)
	}
	return data, true, nil
}

func (c *Cache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}
	if err := c.rdb.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("redis SET %s failed: %w", key, err)
	}
	return nil
}

// Delete removes the entry, then publishes its key. A failed publish is reported but the
// entry is already gone.
func (c *Cache) Delete(ctx context.Context, key string) error {
	if err := c.rdb.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis DEL %s failed: %w", key, err)
	}
	if err := c.rdb.Publish(ctx, c.channel, key).Err(); err != nil {
		return fmt.Errorf("failed to publish invalidation of %s: %w", key, err)
	}
	return nil
}
