package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// QueueNotify carries notification deliveries. It drains ahead of the
	// default queue so status emails stay close to the triggering write.
	QueueNotify = "notify"

	// TaskNotifySend delivers one outbox notification.
	TaskNotifySend = "notify:send"
	// TaskAggregatesReconcile re-runs the weekly and project hour
	// recomputes over recently touched rows.
	TaskAggregatesReconcile = "aggregates:reconcile"
)

// NotifySendPayload carries a queued notification to the worker. The
// outbox row is the source of truth; the intent fields ride along so the
// worker can deliver without a read.
type NotifySendPayload struct {
	NotificationID int64  `json:"notification_id"`
	To             string `json:"to"`
	Subject        string `json:"subject"`
	Body           string `json:"body"`
	Module         string `json:"module"`
	Action         string `json:"action"`
}

// NewNotifySendTask constructs the delivery task for one outbox row.
func NewNotifySendTask(payload NotifySendPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskNotifySend, data, asynq.Queue(QueueNotify), asynq.MaxRetry(5)), nil
}

// AggregatesReconcilePayload bounds the reconcile sweep.
type AggregatesReconcilePayload struct {
	WindowHours int `json:"window_hours"`
}

// NewAggregatesReconcileTask constructs the nightly reconcile task.
func NewAggregatesReconcileTask(windowHours int) (*asynq.Task, error) {
	data, err := json.Marshal(AggregatesReconcilePayload{WindowHours: windowHours})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskAggregatesReconcile, data, asynq.Queue(QueueDefault)), nil
}
