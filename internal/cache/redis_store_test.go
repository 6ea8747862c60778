package cache

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pageza/macrosync/backend/internal/testhelpers"
)

func setupRedis(t *testing.T) *redis.Client {
	return testhelpers.SetupRedis(t).Client
}

func TestRedisStore(t *testing.T) {
	client := setupRedis(t)
	store := NewRedisStore(client)
	ctx := context.Background()

	_, err := store.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.Set(ctx, "k", "v1"))
	v, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v1", v)

	ttl, err := client.TTL(ctx, "k").Result()
	require.NoError(t, err)
	assert.Equal(t, time.Duration(-1), ttl, "entries must not expire")

	require.NoError(t, store.Delete(ctx, "k"))
	_, err = store.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStore_FetchRoundTrip(t *testing.T) {
	client := setupRedis(t)
	c := New(NewRedisStore(client))
	ctx := context.Background()
	req := Request{Feature: FeatureWorkout, ContextKey: "dashboard"}

	first := Fetch(ctx, c, req, func(context.Context) (fakeWorkout, error) {
		return fakeWorkout{Name: "Row"}, nil
	}, fakeWorkout{Name: "fallback"})
	second := Fetch(ctx, c, req, func(context.Context) (fakeWorkout, error) {
		return fakeWorkout{}, fmt.Errorf("should not be called")
	}, fakeWorkout{Name: "fallback"})

	assert.Equal(t, SourceLive, first.Source)
	assert.Equal(t, SourceCache, second.Source)
	assert.Equal(t, "Row", second.Value.Name)
}

type fakeWorkout struct {
	Name string `json:"name"`
}
