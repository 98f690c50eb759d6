package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/crewdesk/crewdesk/internal/jobs"
)

// OutboxStore is the delivery-state slice of the notification outbox.
type OutboxStore interface {
	MarkSent(ctx context.Context, id int64) error
	MarkFailed(ctx context.Context, id int64, cause string) error
}

// Deliverer hands a finished notification to the mail transport. The
// default implementation logs the delivery; SMTP is out of scope.
type Deliverer interface {
	Deliver(ctx context.Context, payload NotifySendPayload) error
}

// LogDeliverer writes deliveries to the log instead of a mail transport.
type LogDeliverer struct {
	Logger *slog.Logger
}

func (d LogDeliverer) Deliver(_ context.Context, payload NotifySendPayload) error {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("notification delivered",
		slog.Int64("notification_id", payload.NotificationID),
		slog.String("to", payload.To),
		slog.String("subject", payload.Subject),
		slog.String("module", payload.Module),
		slog.String("action", payload.Action),
	)
	return nil
}

// NotifySendJob delivers queued notifications and settles their outbox
// status.
type NotifySendJob struct {
	Outbox    OutboxStore
	Deliverer Deliverer
	Logger    *slog.Logger
	Metrics   *jobmetrics.Metrics
	clock     func() time.Time
}

// NewNotifySendJob initialises the notification delivery handler.
func NewNotifySendJob(outbox OutboxStore, deliverer Deliverer, logger *slog.Logger, metrics *jobmetrics.Metrics) *NotifySendJob {
	if deliverer == nil {
		deliverer = LogDeliverer{Logger: logger}
	}
	return &NotifySendJob{
		Outbox:    outbox,
		Deliverer: deliverer,
		Logger:    logger,
		Metrics:   metrics,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle executes one delivery. A delivery failure marks the outbox row
// failed and returns the error so asynq retries it.
func (j *NotifySendJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil {
		return errors.New("notify send: handler not configured")
	}
	var payload NotifySendPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	tracker := j.metrics().Track(TaskNotifySend)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.logger().With(
		slog.Int64("notification_id", payload.NotificationID),
		slog.String("action", payload.Action),
	)

	if err := j.Deliverer.Deliver(ctx, payload); err != nil {
		resultErr = err
		logger.Error("delivery failed", slog.Any("error", err))
		if j.Outbox != nil {
			if markErr := j.Outbox.MarkFailed(ctx, payload.NotificationID, err.Error()); markErr != nil {
				logger.Warn("mark failed", slog.Any("error", markErr))
			}
		}
		return resultErr
	}

	if j.Outbox != nil {
		if err := j.Outbox.MarkSent(ctx, payload.NotificationID); err != nil {
			logger.Warn("mark sent", slog.Any("error", err))
		}
	}
	return nil
}

func (j *NotifySendJob) metrics() *jobmetrics.Metrics {
	return j.Metrics
}

func (j *NotifySendJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskNotifySend))
	}
	return slog.Default().With(slog.String("job", TaskNotifySend))
}
