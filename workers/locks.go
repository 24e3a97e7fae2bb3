package workers

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// LockStore is the lease primitive backing job exclusivity across
// instances.
type LockStore interface {
	TryAcquire(ctx context.Context, jobName, holder string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, jobName, holder string) error
}

// withLock runs fn only when the lease for jobName is free, releasing it
// afterwards. A held lease means another instance is on it; skip quietly.
func withLock(ctx context.Context, locks LockStore, log *zap.Logger, jobName, holder string, ttl time.Duration, fn func(context.Context)) {
	ok, err := locks.TryAcquire(ctx, jobName, holder, ttl)
	if err != nil {
		log.Error("failed to acquire job lock", zap.String("job", jobName), zap.Error(err))
		return
	}
	if !ok {
		log.Debug("job lock held elsewhere, skipping", zap.String("job", jobName))
		return
	}
	defer func() {
		if err := locks.Release(ctx, jobName, holder); err != nil {
			log.Warn("failed to release job lock", zap.String("job", jobName), zap.Error(err))
		}
	}()
	fn(ctx)
}
