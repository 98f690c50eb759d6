package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/crewdesk/crewdesk/internal/hours"
	"github.com/crewdesk/crewdesk/internal/observability"
)

// WeeklyCompletionEntries is the entry count at which an employee week is
// treated as complete regardless of hours.
const WeeklyCompletionEntries = 5

// TimesheetRecord is the engine's projection of a timesheet.
type TimesheetRecord struct {
	ID         int64
	EmployeeID int64
	ProjectID  int64
	Date       time.Time
	WeekStart  time.Time
	Hours      float64
	Status     TimesheetStatus
}

// ProjectRecord is the engine's projection of a project. BudgetHours is the
// assignment-derived hour budget the auto-completion threshold compares
// against.
type ProjectRecord struct {
	ID          int64
	Status      ProjectStatus
	BudgetHours float64
	Locked      bool
}

// TimesheetStore is the timesheet persistence surface the engine drives.
// Batch operations are explicit so cascades stay unit-testable.
type TimesheetStore interface {
	GetRecord(ctx context.Context, id int64) (TimesheetRecord, error)
	// MarkAutoSubmitted transitions one Open entry to Submitted with
	// autoTransitioned set and transitionedAt = at.
	MarkAutoSubmitted(ctx context.Context, id int64, at time.Time) error
	// SubmitOpenWeek transitions every Open entry of the employee week to
	// Submitted with weekCompleted and autoTransitioned set, returning the
	// number of entries changed.
	SubmitOpenWeek(ctx context.Context, employeeID int64, weekStart time.Time, at time.Time) (int64, error)
	// ApproveSubmittedByProject transitions the project's Submitted entries
	// to Approved. Only Submitted ones; the auto path is conservative.
	ApproveSubmittedByProject(ctx context.Context, projectID int64, at time.Time) (int64, error)
	// ForceCompleteByProject transitions every non-Completed entry of the
	// project to Completed and locks it. No further validation.
	ForceCompleteByProject(ctx context.Context, projectID int64, at time.Time) (int64, error)
	// MarkCompleted completes and locks a single entry.
	MarkCompleted(ctx context.Context, id int64, at time.Time) error
}

// ProjectStore is the project persistence surface the engine drives.
type ProjectStore interface {
	GetRecord(ctx context.Context, id int64) (ProjectRecord, error)
	// MarkAutoCompleted records an automatic completion: status, actual
	// hours, completedAt, autoTransitioned. The auto path does not lock.
	MarkAutoCompleted(ctx context.Context, id int64, actualHours float64, at time.Time) error
	// MarkCompleted records an explicit completion and locks the project.
	MarkCompleted(ctx context.Context, id int64, at time.Time) error
}

// Accounting is the recompute surface, implemented by hours.Accountant.
type Accounting interface {
	RecomputeWeeklyTotals(ctx context.Context, employeeID int64, weekStart time.Time) (hours.WeekSummary, error)
	RecomputeProjectHours(ctx context.Context, projectID int64) (float64, error)
}

// Result reports what a pipeline run changed so callers can notify.
type Result struct {
	Week               hours.WeekSummary
	ProjectLoggedHours float64
	TimesheetSubmitted bool
	WeekCompleted      bool
	WeekSubmitted      int64
	ProjectCompleted   bool
	TimesheetsApproved int64
}

// Engine evaluates entity state against the transition rules and applies
// cascades. One Engine serves both entity kinds.
type Engine struct {
	logger     *slog.Logger
	timesheets TimesheetStore
	projects   ProjectStore
	accounting Accounting
	locker     *WeekLocker
	metrics    *observability.Metrics
	now        func() time.Time
}

// NewEngine constructs the engine. locker and metrics may be nil.
func NewEngine(logger *slog.Logger, timesheets TimesheetStore, projects ProjectStore, accounting Accounting, locker *WeekLocker, metrics *observability.Metrics) *Engine {
	return &Engine{
		logger:     logger,
		timesheets: timesheets,
		projects:   projects,
		accounting: accounting,
		locker:     locker,
		metrics:    metrics,
		now:        time.Now,
	}
}

// AfterTimesheetWrite runs the post-persist pipeline for a timesheet
// create/update: recompute weekly totals, recompute project hours,
// evaluate the entry transition, weekly completion, and project
// auto-completion, in that order. Each step sees the previous step's
// writes and no step is skipped. Step failures are collected and returned
// joined; the triggering write already happened, so callers log them as
// consistency warnings rather than failing the request.
func (e *Engine) AfterTimesheetWrite(ctx context.Context, timesheetID int64) (Result, error) {
	ts, err := e.timesheets.GetRecord(ctx, timesheetID)
	if err != nil {
		return Result{}, fmt.Errorf("workflow: load timesheet %d: %w", timesheetID, err)
	}

	if e.locker != nil {
		lock, err := e.locker.Acquire(ctx, ts.EmployeeID, ts.WeekStart)
		if err != nil {
			// Serialization is best effort; proceed without it.
			e.logger.Warn("employee-week lock not obtained",
				slog.Int64("employee_id", ts.EmployeeID), slog.Any("error", err))
		} else {
			defer func() {
				if err := lock.Release(ctx); err != nil {
					e.logger.Warn("employee-week lock release", slog.Any("error", err))
				}
			}()
		}
	}

	var res Result
	var warnings []error
	warn := func(step string, err error) {
		err = fmt.Errorf("workflow: %s: %w", step, err)
		e.logger.Warn("consistency warning",
			slog.String("step", step), slog.Int64("timesheet_id", ts.ID), slog.Any("error", err))
		warnings = append(warnings, err)
	}

	week, err := e.accounting.RecomputeWeeklyTotals(ctx, ts.EmployeeID, ts.WeekStart)
	if err != nil {
		warn("recompute weekly totals", err)
	}
	res.Week = week

	logged, err := e.accounting.RecomputeProjectHours(ctx, ts.ProjectID)
	if err != nil {
		warn("recompute project hours", err)
	}
	res.ProjectLoggedHours = logged

	if ts.Status == TimesheetOpen && ts.Hours >= hours.MaxDailyHours {
		if err := e.timesheets.MarkAutoSubmitted(ctx, ts.ID, e.now()); err != nil {
			warn("auto-submit entry", err)
		} else {
			res.TimesheetSubmitted = true
			e.metrics.ObserveTransition("timesheet", string(TimesheetSubmitted))
		}
	}

	if week.TotalWeekHours >= hours.MaxWeeklyHours || week.Entries >= WeeklyCompletionEntries {
		n, err := e.timesheets.SubmitOpenWeek(ctx, ts.EmployeeID, ts.WeekStart, e.now())
		if err != nil {
			warn("weekly completion", err)
		} else {
			res.WeekCompleted = true
			res.WeekSubmitted = n
		}
	}

	completed, approved, err := e.evaluateProjectCompletion(ctx, ts.ProjectID, logged)
	if err != nil {
		warn("project auto-completion", err)
	}
	res.ProjectCompleted = completed
	res.TimesheetsApproved = approved

	return res, errors.Join(warnings...)
}

// evaluateProjectCompletion auto-completes a project whose logged hours
// reached its budget and approves its Submitted timesheets. Open and
// InProgress entries are deliberately left alone on this path; only the
// explicit completion cascade touches them.
func (e *Engine) evaluateProjectCompletion(ctx context.Context, projectID int64, logged float64) (bool, int64, error) {
	p, err := e.projects.GetRecord(ctx, projectID)
	if err != nil {
		return false, 0, err
	}
	if p.Status == ProjectCompleted || p.BudgetHours <= 0 || logged < p.BudgetHours {
		return false, 0, nil
	}

	at := e.now()
	if err := e.projects.MarkAutoCompleted(ctx, projectID, logged, at); err != nil {
		return false, 0, err
	}
	e.metrics.ObserveTransition("project", string(ProjectCompleted))

	approved, err := e.timesheets.ApproveSubmittedByProject(ctx, projectID, at)
	if err != nil {
		return true, 0, err
	}
	if approved > 0 {
		e.metrics.ObserveTransition("timesheet", string(TimesheetApproved))
	}
	return true, approved, nil
}

// CompleteProject applies an explicit completion: the project is locked
// and every non-Completed timesheet of the project is force-completed and
// locked. Completing an already Completed project is a no-op.
func (e *Engine) CompleteProject(ctx context.Context, id int64) error {
	p, err := e.projects.GetRecord(ctx, id)
	if err != nil {
		return fmt.Errorf("workflow: load project %d: %w", id, err)
	}
	if p.Status == ProjectCompleted {
		return nil
	}

	at := e.now()
	if err := e.projects.MarkCompleted(ctx, id, at); err != nil {
		return fmt.Errorf("workflow: complete project %d: %w", id, err)
	}
	if _, err := e.timesheets.ForceCompleteByProject(ctx, id, at); err != nil {
		return fmt.Errorf("workflow: cascade project %d completion: %w", id, err)
	}
	return nil
}

// CompleteTimesheet applies an explicit completion to a single timesheet,
// locking it. Already Completed entries are a no-op.
func (e *Engine) CompleteTimesheet(ctx context.Context, id int64) error {
	ts, err := e.timesheets.GetRecord(ctx, id)
	if err != nil {
		return fmt.Errorf("workflow: load timesheet %d: %w", id, err)
	}
	if ts.Status == TimesheetCompleted {
		return nil
	}
	if err := e.timesheets.MarkCompleted(ctx, id, e.now()); err != nil {
		return fmt.Errorf("workflow: complete timesheet %d: %w", id, err)
	}
	return nil
}
