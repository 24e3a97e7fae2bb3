package workers

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"squadbase/models"
)

// memLocks mirrors the lease semantics of the Mongo implementation: one
// document per job name, claimable only when missing or expired.
type memLocks struct {
	mu    sync.Mutex
	locks map[string]models.JobLock
}

func newMemLocks() *memLocks {
	return &memLocks{locks: make(map[string]models.JobLock)}
}

func (m *memLocks) TryAcquire(_ context.Context, jobName, holder string, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	if lock, ok := m.locks[jobName]; ok && lock.ExpiresAt.After(now) {
		return false, nil
	}
	m.locks[jobName] = models.JobLock{
		JobName:   jobName,
		LockedBy:  holder,
		LockedAt:  now,
		ExpiresAt: now.Add(ttl),
	}
	return true, nil
}

func (m *memLocks) Release(_ context.Context, jobName, holder string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if lock, ok := m.locks[jobName]; ok && lock.LockedBy == holder {
		delete(m.locks, jobName)
	}
	return nil
}

func TestWithLockRunsAndReleases(t *testing.T) {
	locks := newMemLocks()
	ran := false
	withLock(context.Background(), locks, zap.NewNop(), "job", "me", time.Minute, func(context.Context) {
		ran = true
	})
	require.True(t, ran)

	// Released: a second run acquires again.
	ran = false
	withLock(context.Background(), locks, zap.NewNop(), "job", "me", time.Minute, func(context.Context) {
		ran = true
	})
	require.True(t, ran)
}

func TestWithLockSkipsWhileHeld(t *testing.T) {
	locks := newMemLocks()
	ok, err := locks.TryAcquire(context.Background(), "job", "other", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	ran := false
	withLock(context.Background(), locks, zap.NewNop(), "job", "me", time.Minute, func(context.Context) {
		ran = true
	})
	require.False(t, ran)
}

func TestExpiredLeaseIsClaimable(t *testing.T) {
	locks := newMemLocks()
	ok, err := locks.TryAcquire(context.Background(), "job", "crashed", time.Millisecond)
	require.NoError(t, err)
	require.True(t, ok)

	time.Sleep(5 * time.Millisecond)

	ok, err = locks.TryAcquire(context.Background(), "job", "me", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestReleaseByNonHolderIsNoop(t *testing.T) {
	locks := newMemLocks()
	ok, _ := locks.TryAcquire(context.Background(), "job", "me", time.Minute)
	require.True(t, ok)

	require.NoError(t, locks.Release(context.Background(), "job", "someone-else"))

	ok, _ = locks.TryAcquire(context.Background(), "job", "third", time.Minute)
	require.False(t, ok)
}
