package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// exerciseStore runs the behaviour every Store implementation shares.
func exerciseStore(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Millisecond)

	t.Run("missing session", func(t *testing.T) {
		s, err := store.Get(ctx, "00000000-0000-0000-0000-000000000000")
		assert.ErrorIs(t, err, ErrNotFound)
		assert.Nil(t, s)
	})

	t.Run("save and get", func(t *testing.T) {
		s := New(now)
		s.AccessToken = "access"
		s.RefreshToken = "refresh"
		s.RetailerID = 12
		require.NoError(t, store.Save(ctx, s))

		got, err := store.Get(ctx, s.ID)
		require.NoError(t, err)
		assert.Equal(t, s.ID, got.ID)
		assert.Equal(t, "access", got.AccessToken)
		assert.Equal(t, "refresh", got.RefreshToken)
		assert.Equal(t, int64(12), got.RetailerID)
		assert.True(t, got.Authenticated())
		assert.WithinDuration(t, now, got.CreatedAt, time.Millisecond)
	})

	t.Run("save replaces", func(t *testing.T) {
		s := New(now)
		s.AccessToken = "access"
		require.NoError(t, store.Save(ctx, s))

		s.ClearTokens()
		s.DeviceToken = "fcm-token"
		s.UpdatedAt = now.Add(time.Second)
		require.NoError(t, store.Save(ctx, s))

		got, err := store.Get(ctx, s.ID)
		require.NoError(t, err)
		assert.False(t, got.Authenticated())
		assert.Equal(t, "fcm-token", got.DeviceToken)
	})

	t.Run("returned session is a copy", func(t *testing.T) {
		s := New(now)
		require.NoError(t, store.Save(ctx, s))

		got, err := store.Get(ctx, s.ID)
		require.NoError(t, err)
		got.AccessToken = "mutated"

		again, err := store.Get(ctx, s.ID)
		require.NoError(t, err)
		assert.Empty(t, again.AccessToken)
	})

	t.Run("touch keeps fields", func(t *testing.T) {
		s := New(now)
		s.AccessToken = "access"
		s.RefreshToken = "refresh"
		s.RetailerID = 3
		require.NoError(t, store.Save(ctx, s))

		require.NoError(t, store.Touch(ctx, s.ID, now.Add(time.Minute)))

		got, err := store.Get(ctx, s.ID)
		require.NoError(t, err)
		assert.Equal(t, "access", got.AccessToken)
		assert.Equal(t, "refresh", got.RefreshToken)
		assert.Equal(t, int64(3), got.RetailerID)
	})

	t.Run("touch missing session", func(t *testing.T) {
		err := store.Touch(ctx, "00000000-0000-0000-0000-000000000000", now)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("delete", func(t *testing.T) {
		s := New(now)
		require.NoError(t, store.Save(ctx, s))
		require.NoError(t, store.Delete(ctx, s.ID))

		_, err := store.Get(ctx, s.ID)
		assert.ErrorIs(t, err, ErrNotFound)

		// Deleting again is fine.
		assert.NoError(t, store.Delete(ctx, s.ID))
	})
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
}

func TestMemoryStore_Purge(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	now := time.Now()

	old := New(now.Add(-time.Hour))
	fresh := New(now)
	require.NoError(t, store.Save(ctx, old))
	require.NoError(t, store.Save(ctx, fresh))

	removed, err := store.Purge(ctx, now.Add(-30*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	_, err = store.Get(ctx, old.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = store.Get(ctx, fresh.ID)
	assert.NoError(t, err)
}

func TestMemoryStore_TouchMovesUpdatedAt(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	now := time.Now()

	s := New(now.Add(-time.Hour))
	require.NoError(t, store.Save(ctx, s))
	require.NoError(t, store.Touch(ctx, s.ID, now))

	removed, err := store.Purge(ctx, now.Add(-30*time.Minute))
	require.NoError(t, err)
	assert.Zero(t, removed)

	got, err := store.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.True(t, now.Equal(got.UpdatedAt))
}

func setupRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return mr, client
}

func TestRedisStore(t *testing.T) {
	_, client := setupRedis(t)
	exerciseStore(t, NewRedisStore(client, time.Hour, zerolog.Nop()))
}

func TestRedisStore_IdleExpiry(t *testing.T) {
	mr, client := setupRedis(t)
	store := NewRedisStore(client, 30*time.Minute, zerolog.Nop())
	ctx := context.Background()

	s := New(time.Now())
	require.NoError(t, store.Save(ctx, s))
	assert.Equal(t, 30*time.Minute, mr.TTL(redisKey(s.ID)))

	mr.FastForward(31 * time.Minute)

	_, err := store.Get(ctx, s.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	removed, err := store.Purge(ctx, time.Now())
	require.NoError(t, err)
	assert.Zero(t, removed)
}

func TestRedisStore_TouchRefreshesTTL(t *testing.T) {
	mr, client := setupRedis(t)
	store := NewRedisStore(client, 30*time.Minute, zerolog.Nop())
	ctx := context.Background()

	s := New(time.Now())
	s.AccessToken = "access"
	require.NoError(t, store.Save(ctx, s))

	mr.FastForward(20 * time.Minute)
	require.NoError(t, store.Touch(ctx, s.ID, time.Now()))
	assert.Equal(t, 30*time.Minute, mr.TTL(redisKey(s.ID)))

	mr.FastForward(20 * time.Minute)
	got, err := store.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, "access", got.AccessToken)
}

func TestRedisStore_CorruptValue(t *testing.T) {
	mr, client := setupRedis(t)
	store := NewRedisStore(client, 0, zerolog.Nop())

	require.NoError(t, mr.Set(redisKey("broken"), "{not json"))

	_, err := store.Get(context.Background(), "broken")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to decode session")
}

func TestValidID(t *testing.T) {
	assert.True(t, ValidID(New(time.Now()).ID))
	assert.False(t, ValidID("not-a-session"))
	assert.False(t, ValidID(""))
}
