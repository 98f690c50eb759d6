package jobs

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/crewdesk/crewdesk/internal/notify"
	"github.com/crewdesk/crewdesk/internal/shared"
)

// OutboxCreator persists an intent as a pending notification.
type OutboxCreator interface {
	Create(ctx context.Context, intent notify.Intent, triggeredBy int64) (int64, error)
	MarkFailed(ctx context.Context, id int64, cause string) error
}

// Dispatcher queues notification intents: outbox row first, then the
// notify:send task. An enqueue failure leaves the row failed so the
// reconcile of the outbox stays possible by hand.
type Dispatcher struct {
	outbox OutboxCreator
	client *Client
	logger *slog.Logger
}

// NewDispatcher wires the outbox-backed dispatcher.
func NewDispatcher(outbox OutboxCreator, client *Client, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{outbox: outbox, client: client, logger: logger}
}

// Dispatch implements notify.Dispatcher.
func (d *Dispatcher) Dispatch(ctx context.Context, intent notify.Intent) error {
	var triggeredBy int64
	if identity, ok := shared.IdentityFromContext(ctx); ok {
		triggeredBy = identity.UserID
	}

	id, err := d.outbox.Create(ctx, intent, triggeredBy)
	if err != nil {
		return fmt.Errorf("queue notification: %w", err)
	}

	task, err := NewNotifySendTask(NotifySendPayload{
		NotificationID: id,
		To:             intent.To,
		Subject:        intent.Subject,
		Body:           intent.Body,
		Module:         intent.Module,
		Action:         intent.Action,
	})
	if err != nil {
		return fmt.Errorf("queue notification: %w", err)
	}

	if _, err := d.client.Enqueue(ctx, task); err != nil {
		if markErr := d.outbox.MarkFailed(ctx, id, err.Error()); markErr != nil {
			d.logger.Warn("mark failed", slog.Int64("notification_id", id), slog.Any("error", markErr))
		}
		return fmt.Errorf("queue notification: %w", err)
	}
	return nil
}
