// Package notify defines the notification intents the workflow emits and
// the outbox that tracks their delivery. Actual delivery happens in the
// background worker; a failed notification never affects entity state.
package notify

import (
	"context"
	"time"
)

// Actions stamped on intents so the audit side can group them.
const (
	ActionProjectAssignment  = "project_assignment"
	ActionStatusChange       = "status_change"
	ActionSubmittedForReview = "submitted_for_review"
	ActionLimitReached       = "limit_reached"
	ActionRoleChange         = "role_change"
)

// Delivery states of an outbox row.
const (
	StatusPending = "pending"
	StatusSent    = "sent"
	StatusFailed  = "failed"
)

// Intent is the "notify X of event Y" payload handed to the dispatcher.
type Intent struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
	Module  string `json:"module"`
	Action  string `json:"action"`
}

// Notification is a persisted intent plus its delivery state.
type Notification struct {
	ID           int64
	Intent       Intent
	Status       string
	ErrorMessage string
	TriggeredBy  int64
	CreatedAt    time.Time
	SentAt       *time.Time
}

// Dispatcher accepts intents for asynchronous delivery. Implementations
// must be fire-and-forget from the caller's perspective.
type Dispatcher interface {
	Dispatch(ctx context.Context, intent Intent) error
}
