package database

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *KVStore {
	t.Helper()
	logger := zerolog.Nop()
	store, err := NewKVStore(filepath.Join(t.TempDir(), "velora.db"), "bookings", &logger)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestKVStore(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	t.Run("LoadEmpty", func(t *testing.T) {
		payload, err := store.Load(ctx)
		require.NoError(t, err)
		assert.Nil(t, payload)
	})

	t.Run("SaveAndLoad", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, []byte(`[{"booking_id":"b1"}]`)))

		payload, err := store.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, []byte(`[{"booking_id":"b1"}]`), payload)
	})

	t.Run("SaveOverwrites", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, []byte("first")))
		require.NoError(t, store.Save(ctx, []byte("second")))

		payload, err := store.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, []byte("second"), payload)
	})

	t.Run("Clear", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, []byte("data")))
		require.NoError(t, store.Clear(ctx))

		payload, err := store.Load(ctx)
		require.NoError(t, err)
		assert.Nil(t, payload)
	})
}

func TestKVStore_KeysAreIsolated(t *testing.T) {
	ctx := context.Background()
	logger := zerolog.Nop()
	path := filepath.Join(t.TempDir(), "velora.db")

	a, err := NewKVStore(path, "slot-a", &logger)
	require.NoError(t, err)
	defer a.Close()

	b, err := NewKVStore(path, "slot-b", &logger)
	require.NoError(t, err)
	defer b.Close()

	require.NoError(t, a.Save(ctx, []byte("payload-a")))

	got, err := b.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, got)
}
