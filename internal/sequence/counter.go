package sequence

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Counter hands out monotonically increasing values per named sequence.
// Implementations must be safe for concurrent callers; two concurrent
// creations may never observe the same value.
type Counter interface {
	Next(ctx context.Context, name string) (int64, error)
}

// Names of the sequences the application maintains.
const (
	CounterCustomers = "customers"
	CounterProjects  = "projects"
)

// PostgresCounter implements Counter on a counters table using a single
// atomic increment-and-get statement.
type PostgresCounter struct {
	pool *pgxpool.Pool
}

// NewPostgresCounter returns a store-backed counter.
func NewPostgresCounter(pool *pgxpool.Pool) *PostgresCounter {
	return &PostgresCounter{pool: pool}
}

// Next increments the named counter and returns the new value.
func (c *PostgresCounter) Next(ctx context.Context, name string) (int64, error) {
	var value int64
	err := c.pool.QueryRow(ctx, `
		INSERT INTO counters (name, value) VALUES ($1, 1)
		ON CONFLICT (name) DO UPDATE SET value = counters.value + 1
		RETURNING value`, name).Scan(&value)
	if err != nil {
		return 0, fmt.Errorf("sequence: next %s: %w", name, err)
	}
	return value, nil
}
