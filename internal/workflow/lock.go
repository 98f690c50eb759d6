package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/bsm/redislock"
)

// EmployeeWeekKey builds the redis key serializing one employee week.
func EmployeeWeekKey(employeeID int64, weekStart time.Time) string {
	return fmt.Sprintf("timesheets:employee:%d:week:%s:lock", employeeID, weekStart.Format("2006-01-02"))
}

// WeekLocker narrows the window in which concurrent writers of the same
// employee week can race on the aggregate recomputes. Consistency stays
// best effort: callers proceed when the lock cannot be obtained.
type WeekLocker struct {
	locks *redislock.Client
	ttl   time.Duration
	retry redislock.RetryStrategy
}

// NewWeekLocker builds a locker on the given redis client.
func NewWeekLocker(client redislock.RedisClient) *WeekLocker {
	return &WeekLocker{
		locks: redislock.New(client),
		ttl:   5 * time.Second,
		retry: redislock.LimitRetry(redislock.LinearBackoff(50*time.Millisecond), 20),
	}
}

// Acquire obtains the employee-week lock, retrying briefly.
func (l *WeekLocker) Acquire(ctx context.Context, employeeID int64, weekStart time.Time) (*redislock.Lock, error) {
	return l.locks.Obtain(ctx, EmployeeWeekKey(employeeID, weekStart), l.ttl, &redislock.Options{
		RetryStrategy: l.retry,
	})
}
