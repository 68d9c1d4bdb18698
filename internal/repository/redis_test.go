package repository

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisStore(t *testing.T) {
	s, err := miniredis.Run()
	require.NoError(t, err)
	defer s.Close()

	client := redis.NewClient(&redis.Options{
		Addr: s.Addr(),
	})
	defer client.Close()

	store := NewRedisStore(client, "test:bookings")
	ctx := context.Background()

	t.Run("LoadEmpty", func(t *testing.T) {
		payload, err := store.Load(ctx)
		require.NoError(t, err)
		assert.Nil(t, payload)
	})

	t.Run("SaveAndLoad", func(t *testing.T) {
		err := store.Save(ctx, []byte(`[{"booking_id":"b1"}]`))
		require.NoError(t, err)

		payload, err := store.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, []byte(`[{"booking_id":"b1"}]`), payload)
	})

	t.Run("Clear", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, []byte(`[]`)))
		require.NoError(t, store.Clear(ctx))

		payload, err := store.Load(ctx)
		require.NoError(t, err)
		assert.Nil(t, payload)
	})

	t.Run("NoTTL", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, []byte(`[]`)))
		assert.Equal(t, int64(0), int64(s.TTL("test:bookings")))
	})

	t.Run("NilClient", func(t *testing.T) {
		store := NewRedisStore(nil, "test:bookings")
		_, err := store.Load(ctx)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "redis client is nil")
	})

	t.Run("Ping", func(t *testing.T) {
		assert.NoError(t, Ping(ctx, client))
	})
}
