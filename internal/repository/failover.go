package repository

import (
	"context"
	"sync/atomic"
	"time"

	"velora/internal/domain"

	"github.com/rs/zerolog"
)

const recoveryInterval = time.Minute

// FailoverStore fronts a primary persistence store with an in-process
// fallback. After a primary failure every call goes to the fallback until
// the recovery interval elapses, then the primary gets one more chance.
type FailoverStore struct {
	primary   domain.PersistenceStore
	fallback  domain.PersistenceStore
	logger    *zerolog.Logger
	isDown    atomic.Bool
	lastCheck atomic.Int64
}

func NewFailoverStore(primary, fallback domain.PersistenceStore, logger *zerolog.Logger) *FailoverStore {
	return &FailoverStore{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
}

func (f *FailoverStore) Load(ctx context.Context) ([]byte, error) {
	if f.tryPrimary() {
		payload, err := f.primary.Load(ctx)
		if err == nil {
			f.isDown.Store(false)
			return payload, nil
		}
		f.markDown(err)
	}
	return f.fallback.Load(ctx)
}

func (f *FailoverStore) Save(ctx context.Context, payload []byte) error {
	if f.tryPrimary() {
		err := f.primary.Save(ctx, payload)
		if err == nil {
			f.isDown.Store(false)
			// Mirror into the fallback so a later primary outage still
			// sees the current reservation set.
			_ = f.fallback.Save(ctx, payload)
			return nil
		}
		f.markDown(err)
	}
	return f.fallback.Save(ctx, payload)
}

func (f *FailoverStore) Clear(ctx context.Context) error {
	var primaryErr error
	if f.tryPrimary() {
		primaryErr = f.primary.Clear(ctx)
		if primaryErr != nil {
			f.markDown(primaryErr)
		}
	}
	if err := f.fallback.Clear(ctx); err != nil {
		return err
	}
	return primaryErr
}

func (f *FailoverStore) tryPrimary() bool {
	if !f.isDown.Load() {
		return true
	}
	last := time.Unix(0, f.lastCheck.Load())
	return time.Since(last) > recoveryInterval
}

func (f *FailoverStore) markDown(err error) {
	f.logger.Error().Err(err).Msg("Primary persistence store failed, falling back to memory")
	f.isDown.Store(true)
	f.lastCheck.Store(time.Now().UnixNano())
}
