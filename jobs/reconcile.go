package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/crewdesk/crewdesk/internal/hours"
	jobmetrics "github.com/crewdesk/crewdesk/internal/jobs"
	"github.com/crewdesk/crewdesk/internal/timesheets"
)

// AggregateSource lists the employee weeks and projects touched within a
// window.
type AggregateSource interface {
	RecentWeeks(ctx context.Context, since time.Time) ([]timesheets.WeekRef, error)
	RecentProjects(ctx context.Context, since time.Time) ([]int64, error)
}

// Accounting re-runs the idempotent aggregate recomputes.
type Accounting interface {
	RecomputeWeeklyTotals(ctx context.Context, employeeID int64, weekStart time.Time) (hours.WeekSummary, error)
	RecomputeProjectHours(ctx context.Context, projectID int64) (float64, error)
}

// ReconcileJob sweeps recently touched rows and rewrites their weekly and
// project hour aggregates. Per-write recomputes are best effort; this is
// the backstop that repairs whatever they missed.
type ReconcileJob struct {
	Source     AggregateSource
	Accounting Accounting
	Logger     *slog.Logger
	Metrics    *jobmetrics.Metrics
	clock      func() time.Time
}

// NewReconcileJob initialises the aggregate reconcile handler.
func NewReconcileJob(source AggregateSource, accounting Accounting, logger *slog.Logger, metrics *jobmetrics.Metrics) *ReconcileJob {
	return &ReconcileJob{
		Source:     source,
		Accounting: accounting,
		Logger:     logger,
		Metrics:    metrics,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle executes one sweep. Individual recompute failures are logged and
// counted but do not stop the sweep.
func (j *ReconcileJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Source == nil || j.Accounting == nil {
		return errors.New("aggregates reconcile: handler not configured")
	}
	var payload AggregatesReconcilePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if payload.WindowHours <= 0 {
		payload.WindowHours = 48
	}

	tracker := j.metrics().Track(TaskAggregatesReconcile)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	since := j.clock().Add(-time.Duration(payload.WindowHours) * time.Hour)
	logger := j.logger().With(slog.Time("since", since))
	logger.Info("starting aggregate reconcile")

	var failures int

	weeks, err := j.Source.RecentWeeks(ctx, since)
	if err != nil {
		resultErr = err
		logger.Error("list recent weeks", slog.Any("error", err))
		return resultErr
	}
	for _, ref := range weeks {
		if _, err := j.Accounting.RecomputeWeeklyTotals(ctx, ref.EmployeeID, ref.WeekStart); err != nil {
			failures++
			logger.Warn("recompute weekly totals",
				slog.Int64("employee_id", ref.EmployeeID),
				slog.Time("week_start", ref.WeekStart),
				slog.Any("error", err))
		}
	}
	j.metrics().AddReconciled("week", len(weeks)-failures)

	projectFailures := 0
	projects, err := j.Source.RecentProjects(ctx, since)
	if err != nil {
		resultErr = err
		logger.Error("list recent projects", slog.Any("error", err))
		return resultErr
	}
	for _, id := range projects {
		if _, err := j.Accounting.RecomputeProjectHours(ctx, id); err != nil {
			projectFailures++
			logger.Warn("recompute project hours",
				slog.Int64("project_id", id), slog.Any("error", err))
		}
	}
	j.metrics().AddReconciled("project", len(projects)-projectFailures)

	logger.Info("aggregate reconcile finished",
		slog.Int("weeks", len(weeks)),
		slog.Int("projects", len(projects)),
		slog.Int("failures", failures+projectFailures))
	if failures+projectFailures > 0 {
		resultErr = errors.New("aggregates reconcile: some recomputes failed")
		return resultErr
	}
	return nil
}

func (j *ReconcileJob) metrics() *jobmetrics.Metrics {
	return j.Metrics
}

func (j *ReconcileJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskAggregatesReconcile))
	}
	return slog.Default().With(slog.String("job", TaskAggregatesReconcile))
}
