package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingStore struct {
	err   error
	calls int
}

func (s *failingStore) Load(ctx context.Context) ([]byte, error) {
	s.calls++
	return nil, s.err
}

func (s *failingStore) Save(ctx context.Context, payload []byte) error {
	s.calls++
	return s.err
}

func (s *failingStore) Clear(ctx context.Context) error {
	s.calls++
	return s.err
}

func TestFailoverStore(t *testing.T) {
	ctx := context.Background()
	logger := zerolog.Nop()

	t.Run("PrimaryHealthy", func(t *testing.T) {
		primary := NewMemoryStore()
		fallback := NewMemoryStore()
		f := NewFailoverStore(primary, fallback, &logger)

		require.NoError(t, f.Save(ctx, []byte("abc")))

		got, err := f.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, []byte("abc"), got)

		// Save mirrors into the fallback.
		mirrored, err := fallback.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, []byte("abc"), mirrored)
	})

	t.Run("FallsBackOnPrimaryError", func(t *testing.T) {
		primary := &failingStore{err: errors.New("connection refused")}
		fallback := NewMemoryStore()
		f := NewFailoverStore(primary, fallback, &logger)

		require.NoError(t, f.Save(ctx, []byte("kept")))

		got, err := f.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, []byte("kept"), got)
	})

	t.Run("PrimarySkippedWhileDown", func(t *testing.T) {
		primary := &failingStore{err: errors.New("down")}
		f := NewFailoverStore(primary, NewMemoryStore(), &logger)

		_ = f.Save(ctx, []byte("x"))
		callsAfterFirst := primary.calls

		_, _ = f.Load(ctx)
		_ = f.Save(ctx, []byte("y"))
		assert.Equal(t, callsAfterFirst, primary.calls, "primary should be skipped inside the recovery interval")
	})

	t.Run("ClearClearsBoth", func(t *testing.T) {
		primary := NewMemoryStore()
		fallback := NewMemoryStore()
		f := NewFailoverStore(primary, fallback, &logger)

		require.NoError(t, f.Save(ctx, []byte("abc")))
		require.NoError(t, f.Clear(ctx))

		got, err := primary.Load(ctx)
		require.NoError(t, err)
		assert.Nil(t, got)

		got, err = fallback.Load(ctx)
		require.NoError(t, err)
		assert.Nil(t, got)
	})
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()

	got, err := m.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, m.Save(ctx, []byte("payload")))

	got, err = m.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), got)

	// Returned slice is a copy, mutating it must not affect the store.
	got[0] = 'X'
	again, _ := m.Load(ctx)
	assert.Equal(t, []byte("payload"), again)

	require.NoError(t, m.Clear(ctx))
	got, err = m.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, got)
}
