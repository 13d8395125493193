package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRecentStore(t *testing.T, limit int, ttl time.Duration) (*RedisRecentStore, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewRedisRecentStore(client, limit, ttl), mr
}

func TestRedisRecentStore_KeepsNewestFive(t *testing.T) {
	store, _ := newTestRecentStore(t, 5, 24*time.Hour)
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	for i := 1; i <= 6; i++ {
		err := store.Add(ctx, "u1", fmt.Sprintf("p%d", i), base.Add(time.Duration(i)*time.Second))
		require.NoError(t, err)
	}

	ids, err := store.List(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"p6", "p5", "p4", "p3", "p2"}, ids)
}

func TestRedisRecentStore_RepeatViewMovesToFront(t *testing.T) {
	store, _ := newTestRecentStore(t, 5, time.Hour)
	ctx := context.Background()
	base := time.Now()

	require.NoError(t, store.Add(ctx, "u1", "a", base))
	require.NoError(t, store.Add(ctx, "u1", "b", base.Add(time.Second)))
	require.NoError(t, store.Add(ctx, "u1", "a", base.Add(2*time.Second)))

	ids, err := store.List(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ids)
}

func TestRedisRecentStore_SameMillisecondKeepsCallOrder(t *testing.T) {
	store, _ := newTestRecentStore(t, 5, time.Hour)
	ctx := context.Background()
	at := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	// "b" sorts after "a", so a plain score tie would list "b" first
	require.NoError(t, store.Add(ctx, "u1", "b", at))
	require.NoError(t, store.Add(ctx, "u1", "a", at))
	require.NoError(t, store.Add(ctx, "u1", "c", at))

	ids, err := store.List(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "a", "b"}, ids)

	// a repeat of the newest view stays in front
	require.NoError(t, store.Add(ctx, "u1", "c", at))
	ids, err = store.List(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "a", "b"}, ids)
}

func TestRedisRecentStore_FullSetRepeatDoesNotEvict(t *testing.T) {
	store, _ := newTestRecentStore(t, 3, time.Hour)
	ctx := context.Background()
	base := time.Now()

	for i, id := range []string{"a", "b", "c"} {
		require.NoError(t, store.Add(ctx, "u1", id, base.Add(time.Duration(i)*time.Second)))
	}
	require.NoError(t, store.Add(ctx, "u1", "a", base.Add(10*time.Second)))

	ids, err := store.List(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c", "b"}, ids)
}

func TestRedisRecentStore_ExpiresAfterTTL(t *testing.T) {
	store, mr := newTestRecentStore(t, 5, time.Minute)
	ctx := context.Background()

	require.NoError(t, store.Add(ctx, "u1", "a", time.Now()))
	assert.Equal(t, time.Minute, mr.TTL(recentKey("u1")))

	mr.FastForward(2 * time.Minute)

	ids, err := store.List(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestRedisRecentStore_UsersAreIsolated(t *testing.T) {
	store, _ := newTestRecentStore(t, 5, time.Hour)
	ctx := context.Background()

	require.NoError(t, store.Add(ctx, "u1", "a", time.Now()))

	ids, err := store.List(ctx, "u2")
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestRedisRecentStore_Unavailable(t *testing.T) {
	store, mr := newTestRecentStore(t, 5, time.Hour)
	mr.Close()

	err := store.Add(context.Background(), "u1", "a", time.Now())
	assert.Error(t, err)

	_, err = store.List(context.Background(), "u1")
	assert.Error(t, err)
}
