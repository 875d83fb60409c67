package redis

import (
	"context"
	"log/slog"

	goredis "github.com/redis/go-redis/v9"
)

// Forgetter drops in-process state on a remote invalidation. storage.Storage implements it.
type Forgetter interface {
	Forget()
}

// InvalidationSubscriber listens on the invalidation channel and forgets the local
// snapshot whenever any process deletes the shared cache entry.
type InvalidationSubscriber struct {
	rdb     *goredis.Client
	channel string
	key     string
	target  Forgetter
}

func NewInvalidationSubscriber(rdb *goredis.Client, channel, key string, target Forgetter) *InvalidationSubscriber {
	if channel == "" {
		channel = DefaultInvalidationChannel
	}
	return &InvalidationSubscriber{rdb: rdb, channel: channel, key: key, target: target}
}

// Start blocks until ctx is cancelled or the subscription is closed.
func (s *InvalidationSubscriber) Start(ctx context.Context) {
	pubsub := s.rdb.Subscribe(ctx, s.channel)
	defer func() { _ = pubsub.Close() }()

	ch := pubsub.Channel()
	for {
		select {
		case msg, ok := <-ch:
			if !ok || msg == nil {
				return
			}
			s.handleInvalidation(msg.Payload)
		case <-ctx.Done():
			return
		}
	}
}

func (s *InvalidationSubscriber) handleInvalidation(payload string) {
	if payload == "" {
		slog.Warn("Empty config invalidation message")
		return
	}
	if s.key != "" && payload != s.key {
		return
	}

	s.target.Forget()
	slog.Debug("Config snapshot forgotten via pub/sub", "key", payload)
}
