package workflow

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLocker(t *testing.T) *WeekLocker {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	locker := NewWeekLocker(client)
	locker.retry = redislock.NoRetry()
	return locker
}

func TestEmployeeWeekKey(t *testing.T) {
	key := EmployeeWeekKey(42, time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, "timesheets:employee:42:week:2025-06-15:lock", key)
}

func TestWeekLockerAcquireRelease(t *testing.T) {
	locker := newTestLocker(t)
	ctx := context.Background()
	week := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)

	lock, err := locker.Acquire(ctx, 1, week)
	require.NoError(t, err)

	// same employee week is held, a different week is not
	_, err = locker.Acquire(ctx, 1, week)
	assert.ErrorIs(t, err, redislock.ErrNotObtained)
	other, err := locker.Acquire(ctx, 1, week.AddDate(0, 0, 7))
	require.NoError(t, err)
	require.NoError(t, other.Release(ctx))

	require.NoError(t, lock.Release(ctx))
	lock, err = locker.Acquire(ctx, 1, week)
	require.NoError(t, err)
	require.NoError(t, lock.Release(ctx))
}
