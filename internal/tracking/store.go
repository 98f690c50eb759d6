package tracking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Recorder appends change records to an entity's history. Records are
// append-only; nothing edits or removes them.
type Recorder interface {
	Append(ctx context.Context, entity string, entityID int64, rec ChangeRecord) error
	History(ctx context.Context, entity string, entityID int64) ([]ChangeRecord, error)
}

// PostgresRecorder persists change records in the change_records table.
type PostgresRecorder struct {
	pool *pgxpool.Pool
}

// NewPostgresRecorder returns a store-backed Recorder.
func NewPostgresRecorder(pool *pgxpool.Pool) *PostgresRecorder {
	return &PostgresRecorder{pool: pool}
}

// Append persists one record.
func (r *PostgresRecorder) Append(ctx context.Context, entity string, entityID int64, rec ChangeRecord) error {
	if rec.Module == "" || rec.Method == "" {
		return errors.New("tracking: record requires module and method")
	}
	fields, err := json.Marshal(rec.ChangedFields)
	if err != nil {
		return fmt.Errorf("tracking: marshal changed fields: %w", err)
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO change_records (id, entity, entity_id, module, method, user_id, user_name, modified_at, changed_fields)
		VALUES ($1, $2, $3, $4, $5, $6, $7, COALESCE($8, NOW()), $9)`,
		rec.ID, entity, entityID, rec.Module, rec.Method, rec.UserID, rec.UserName, rec.ModifiedAt, fields)
	if err != nil {
		return fmt.Errorf("tracking: append: %w", err)
	}
	return nil
}

// History returns the records for one entity, oldest first.
func (r *PostgresRecorder) History(ctx context.Context, entity string, entityID int64) ([]ChangeRecord, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, module, method, user_id, user_name, modified_at, changed_fields
		FROM change_records
		WHERE entity = $1 AND entity_id = $2
		ORDER BY modified_at, id`, entity, entityID)
	if err != nil {
		return nil, fmt.Errorf("tracking: history: %w", err)
	}
	defer rows.Close()

	var records []ChangeRecord
	for rows.Next() {
		var rec ChangeRecord
		var fields []byte
		var at time.Time
		if err := rows.Scan(&rec.ID, &rec.Module, &rec.Method, &rec.UserID, &rec.UserName, &at, &fields); err != nil {
			return nil, err
		}
		rec.ModifiedAt = at
		if err := json.Unmarshal(fields, &rec.ChangedFields); err != nil {
			return nil, fmt.Errorf("tracking: unmarshal changed fields: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
