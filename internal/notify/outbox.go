package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound indicates an unknown notification id.
var ErrNotFound = errors.New("notify: notification not found")

// Outbox persists intents with their delivery state so failures can be
// inspected and retried independently of the triggering write.
type Outbox struct {
	pool *pgxpool.Pool
}

// NewOutbox returns a store-backed outbox.
func NewOutbox(pool *pgxpool.Pool) *Outbox {
	return &Outbox{pool: pool}
}

// Create persists an intent as pending and returns its id.
func (o *Outbox) Create(ctx context.Context, intent Intent, triggeredBy int64) (int64, error) {
	var id int64
	err := o.pool.QueryRow(ctx, `
		INSERT INTO notifications (recipient, subject, body, module, action, status, triggered_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		RETURNING id`,
		intent.To, intent.Subject, intent.Body, intent.Module, intent.Action, StatusPending, triggeredBy).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("notify: create: %w", err)
	}
	return id, nil
}

// Get loads one notification.
func (o *Outbox) Get(ctx context.Context, id int64) (Notification, error) {
	var n Notification
	err := o.pool.QueryRow(ctx, `
		SELECT id, recipient, subject, body, module, action, status, COALESCE(error_message, ''), triggered_by, created_at, sent_at
		FROM notifications WHERE id = $1`, id).Scan(
		&n.ID, &n.Intent.To, &n.Intent.Subject, &n.Intent.Body, &n.Intent.Module, &n.Intent.Action,
		&n.Status, &n.ErrorMessage, &n.TriggeredBy, &n.CreatedAt, &n.SentAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Notification{}, ErrNotFound
		}
		return Notification{}, fmt.Errorf("notify: get: %w", err)
	}
	return n, nil
}

// MarkSent flips a pending notification to sent.
func (o *Outbox) MarkSent(ctx context.Context, id int64) error {
	tag, err := o.pool.Exec(ctx,
		`UPDATE notifications SET status = $2, sent_at = NOW(), error_message = NULL WHERE id = $1`,
		id, StatusSent)
	if err != nil {
		return fmt.Errorf("notify: mark sent: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkFailed records a delivery failure for later retry.
func (o *Outbox) MarkFailed(ctx context.Context, id int64, cause string) error {
	tag, err := o.pool.Exec(ctx,
		`UPDATE notifications SET status = $2, error_message = $3 WHERE id = $1`,
		id, StatusFailed, cause)
	if err != nil {
		return fmt.Errorf("notify: mark failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
