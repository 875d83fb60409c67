package redis

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingForgetter struct {
	calls atomic.Int32
}

func (f *countingForgetter) Forget() { f.calls.Add(1) }

func TestInvalidationSubscriber_HandleInvalidation(t *testing.T) {
	target := &countingForgetter{}
	sub := NewInvalidationSubscriber(nil, "", "scopeconf:resolved_values", target)

	sub.handleInvalidation("scopeconf:resolved_values")
	sub.handleInvalidation("")
	sub.handleInvalidation("other:key")

	assert.Equal(t, int32(1), target.calls.Load())
}

func TestCache_Integration(t *testing.T) {
	client := setupTestClient(t)
	ctx := context.Background()
	cache := NewCache(client, "")

	_, ok, err := cache.Get(ctx, "snapshot")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, cache.Set(ctx, "snapshot", []byte{0xa1, 0x01}, time.Hour))

	data, ok, err := cache.Get(ctx, "snapshot")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte{0xa1, 0x01}, data)

	ttl, err := client.TTL(ctx, "snapshot").Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, 59*time.Minute)

	require.NoError(t, cache.Delete(ctx, "snapshot"))
	_, ok, err = cache.Get(ctx, "snapshot")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestInvalidation_MultiInstance(t *testing.T) {
	client := setupTestClient(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	targets := []*countingForgetter{{}, {}}
	for _, target := range targets {
		sub := NewInvalidationSubscriber(client, "", "snapshot", target)
		go sub.Start(ctx)
	}

	// Wait until both subscriptions are registered.
	require.Eventually(t, func() bool {
		counts, err := client.PubSubNumSub(ctx, DefaultInvalidationChannel).Result()
		return err == nil && counts[DefaultInvalidationChannel] == 2
	}, 5*time.Second, 20*time.Millisecond)

	require.NoError(t, NewCache(client, "").Delete(ctx, "snapshot"))

	for _, target := range targets {
		assert.Eventually(t, func() bool { return target.calls.Load() == 1 }, 5*time.Second, 20*time.Millisecond)
	}
}
