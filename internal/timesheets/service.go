package timesheets

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/crewdesk/crewdesk/internal/employees"
	"github.com/crewdesk/crewdesk/internal/hours"
	"github.com/crewdesk/crewdesk/internal/notify"
	"github.com/crewdesk/crewdesk/internal/projects"
	"github.com/crewdesk/crewdesk/internal/shared"
	"github.com/crewdesk/crewdesk/internal/tracking"
	"github.com/crewdesk/crewdesk/internal/users"
	"github.com/crewdesk/crewdesk/internal/workflow"
)

const trackingModule = "Timesheet"

const dateLayout = "2006-01-02"

// ProjectDirectory is the project lookup the timesheet writes need.
type ProjectDirectory interface {
	Get(ctx context.Context, id int64) (*projects.Project, error)
}

// EmployeeDirectory resolves employees for scoping and notification.
type EmployeeDirectory interface {
	Get(ctx context.Context, id int64) (*employees.Employee, error)
}

// UserDirectory resolves the calling user's employee link and the
// reviewer addresses.
type UserDirectory interface {
	Get(ctx context.Context, id int64) (*users.User, error)
	EmailsByRole(ctx context.Context, role string) ([]string, error)
}

// Pipeline is the post-write slice of the workflow engine.
type Pipeline interface {
	AfterTimesheetWrite(ctx context.Context, timesheetID int64) (workflow.Result, error)
	CompleteTimesheet(ctx context.Context, id int64) error
}

// Accounting recomputes aggregates after a delete, when the pipeline has
// no entry left to anchor on.
type Accounting interface {
	RecomputeWeeklyTotals(ctx context.Context, employeeID int64, weekStart time.Time) (hours.WeekSummary, error)
	RecomputeProjectHours(ctx context.Context, projectID int64) (float64, error)
}

type Service struct {
	logger       *slog.Logger
	repo         Repository
	tracker      tracking.Recorder
	dispatcher   notify.Dispatcher
	pipeline     Pipeline
	accounting   Accounting
	projects     ProjectDirectory
	employees    EmployeeDirectory
	users        UserDirectory
	weekStartDay time.Weekday
	validate     *validator.Validate
}

func NewService(
	logger *slog.Logger,
	repo Repository,
	tracker tracking.Recorder,
	dispatcher notify.Dispatcher,
	pipeline Pipeline,
	accounting Accounting,
	projectDir ProjectDirectory,
	employeeDir EmployeeDirectory,
	userDir UserDirectory,
	weekStartDay time.Weekday,
) *Service {
	return &Service{
		logger:       logger,
		repo:         repo,
		tracker:      tracker,
		dispatcher:   dispatcher,
		pipeline:     pipeline,
		accounting:   accounting,
		projects:     projectDir,
		employees:    employeeDir,
		users:        userDir,
		weekStartDay: weekStartDay,
		validate:     validator.New(),
	}
}

// Create validates the entry against the daily and weekly caps, persists
// it Open, and runs the workflow pipeline. Pipeline warnings do not fail
// the create: the entry is already persisted.
func (s *Service) Create(ctx context.Context, req CreateTimesheetRequest, actor shared.Identity) (*Timesheet, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrValidation, err)
	}
	if err := s.authorizeEmployee(ctx, actor, req.EmployeeID); err != nil {
		return nil, err
	}

	date, err := time.Parse(dateLayout, req.Date)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid date", shared.ErrValidation)
	}

	project, err := s.projects.Get(ctx, req.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("project %d: %w", req.ProjectID, err)
	}
	if project.Status == workflow.ProjectCompleted || project.Locked {
		return nil, fmt.Errorf("%w: project %s is completed", shared.ErrLocked, project.Code)
	}

	weekStart := hours.WeekStart(date, s.weekStartDay)
	current, _, err := s.repo.SumWeek(ctx, req.EmployeeID, weekStart)
	if err != nil {
		return nil, fmt.Errorf("sum week: %w", err)
	}
	if _, err := hours.ValidateEntry(req.Hours, current); err != nil {
		return nil, err
	}

	ts := Timesheet{
		EmployeeID:  req.EmployeeID,
		ProjectID:   req.ProjectID,
		Date:        date,
		WeekStart:   weekStart,
		Hours:       req.Hours,
		Description: req.Description,
		Status:      workflow.TimesheetOpen,
	}

	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		id, err := repo.Create(ctx, ts)
		if err != nil {
			return err
		}
		ts.ID = id
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("create timesheet: %w", err)
	}

	s.recordChange(ctx, ts.ID, nil, &ts, tracking.MethodCreate, actor)
	s.runPipeline(ctx, ts.ID, project)

	return s.repo.Get(ctx, ts.ID)
}

// Update edits hours or description on an Open or Rejected entry, then
// re-runs the pipeline.
func (s *Service) Update(ctx context.Context, id int64, req UpdateTimesheetRequest, actor shared.Identity) (*Timesheet, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrValidation, err)
	}

	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get timesheet: %w", err)
	}
	if err := s.authorizeEmployee(ctx, actor, existing.EmployeeID); err != nil {
		return nil, err
	}
	if existing.Locked || existing.Status == workflow.TimesheetCompleted {
		return nil, fmt.Errorf("%w: timesheet %d is locked", shared.ErrLocked, id)
	}
	if existing.Status != workflow.TimesheetOpen && existing.Status != workflow.TimesheetRejected {
		return nil, fmt.Errorf("%w: timesheet %d is %s and no longer editable", shared.ErrLocked, id, existing.Status)
	}

	updates := make(map[string]any)
	if req.Hours != nil && *req.Hours != existing.Hours {
		rest, err := s.repo.SumWeekExcluding(ctx, existing.EmployeeID, existing.WeekStart, id)
		if err != nil {
			return nil, fmt.Errorf("sum week: %w", err)
		}
		if _, err := hours.ValidateEntry(*req.Hours, rest); err != nil {
			return nil, err
		}
		updates["hours"] = *req.Hours
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if len(updates) == 0 {
		return existing, nil
	}

	// an edited rejected entry goes back to Open for re-review
	if existing.Status == workflow.TimesheetRejected {
		updates["status"] = workflow.TimesheetOpen
		updates["auto_transitioned"] = false
	}

	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		return repo.Update(ctx, id, updates)
	})
	if err != nil {
		return nil, fmt.Errorf("update timesheet: %w", err)
	}

	updated, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("reload timesheet: %w", err)
	}
	s.recordChange(ctx, id, existing, updated, tracking.MethodUpdate, actor)

	if _, ok := updates["hours"]; ok {
		project, err := s.projects.Get(ctx, existing.ProjectID)
		if err != nil {
			s.logger.Warn("project lookup for pipeline failed", slog.Any("error", err))
			project = nil
		}
		s.runPipeline(ctx, id, project)
		return s.repo.Get(ctx, id)
	}
	return updated, nil
}

// UpdateStatus applies a manual review transition. Completion goes
// through the engine so the entry locks.
func (s *Service) UpdateStatus(ctx context.Context, id int64, req UpdateStatusRequest, actor shared.Identity) (*Timesheet, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrValidation, err)
	}

	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get timesheet: %w", err)
	}
	if existing.Locked || existing.Status == workflow.TimesheetCompleted {
		return nil, fmt.Errorf("%w: timesheet %d is locked", shared.ErrLocked, id)
	}

	status := workflow.TimesheetStatus(req.Status)
	if status == existing.Status {
		return existing, nil
	}

	if status == workflow.TimesheetCompleted {
		if err := s.pipeline.CompleteTimesheet(ctx, id); err != nil {
			return nil, err
		}
	} else {
		now := time.Now()
		updates := map[string]any{
			"status":            status,
			"transitioned_at":   now,
			"auto_transitioned": false,
		}
		switch status {
		case workflow.TimesheetSubmitted:
			updates["submitted_at"] = now
		case workflow.TimesheetApproved:
			updates["approved_at"] = now
		}
		err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
			return repo.Update(ctx, id, updates)
		})
		if err != nil {
			return nil, fmt.Errorf("update timesheet status: %w", err)
		}
	}

	updated, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("reload timesheet: %w", err)
	}
	s.recordChange(ctx, id, existing, updated, tracking.MethodUpdate, actor)
	s.notifyStatusChange(ctx, updated)
	return updated, nil
}

// Delete removes an entry and recomputes the aggregates it contributed
// to. Locked entries cannot be deleted.
func (s *Service) Delete(ctx context.Context, id int64, actor shared.Identity) error {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("get timesheet: %w", err)
	}
	if err := s.authorizeEmployee(ctx, actor, existing.EmployeeID); err != nil {
		return err
	}
	if existing.Locked || existing.Status == workflow.TimesheetCompleted {
		return fmt.Errorf("%w: timesheet %d is locked", shared.ErrLocked, id)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete timesheet: %w", err)
	}
	s.recordChange(ctx, id, existing, nil, tracking.MethodDelete, actor)

	if _, err := s.accounting.RecomputeWeeklyTotals(ctx, existing.EmployeeID, existing.WeekStart); err != nil {
		s.logger.Warn("consistency warning",
			slog.String("step", "recompute weekly totals"), slog.Int64("timesheet_id", id), slog.Any("error", err))
	}
	if _, err := s.accounting.RecomputeProjectHours(ctx, existing.ProjectID); err != nil {
		s.logger.Warn("consistency warning",
			slog.String("step", "recompute project hours"), slog.Int64("timesheet_id", id), slog.Any("error", err))
	}
	return nil
}

func (s *Service) Get(ctx context.Context, id int64, actor shared.Identity) (*Timesheet, error) {
	ts, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeEmployee(ctx, actor, ts.EmployeeID); err != nil {
		return nil, err
	}
	return ts, nil
}

// List returns timesheets. Employees only ever see their own entries;
// the filter is forced to their linked employee id.
func (s *Service) List(ctx context.Context, req ListTimesheetsRequest, actor shared.Identity) ([]Timesheet, int, error) {
	if actor.Role == shared.RoleEmployee {
		employeeID, err := s.linkedEmployeeID(ctx, actor)
		if err != nil {
			return nil, 0, err
		}
		req.EmployeeID = &employeeID
	}
	return s.repo.List(ctx, req)
}

// Week assembles the week rollup for an employee around the given date.
func (s *Service) Week(ctx context.Context, employeeID int64, date time.Time, actor shared.Identity) (*WeekView, error) {
	if err := s.authorizeEmployee(ctx, actor, employeeID); err != nil {
		return nil, err
	}

	weekStart := hours.WeekStart(date, s.weekStartDay)
	entries, err := s.repo.ListWeek(ctx, employeeID, weekStart)
	if err != nil {
		return nil, fmt.Errorf("list week: %w", err)
	}

	view := &WeekView{
		EmployeeID: employeeID,
		WeekStart:  weekStart.Format(dateLayout),
		WeekEnd:    hours.WeekEnd(weekStart).Format(dateLayout),
		Entries:    entries,
	}
	for _, e := range entries {
		view.TotalWeekHours += e.Hours
		if e.WeekCompleted {
			view.WeekCompleted = true
		}
	}
	view.Remaining = hours.MaxWeeklyHours - view.TotalWeekHours
	if view.Remaining < 0 {
		view.Remaining = 0
	}
	return view, nil
}

func (s *Service) History(ctx context.Context, id int64) ([]tracking.ChangeRecord, error) {
	return s.tracker.History(ctx, "timesheets", id)
}

// runPipeline executes the post-write cascade and dispatches the
// notifications its transitions call for.
func (s *Service) runPipeline(ctx context.Context, timesheetID int64, project *projects.Project) {
	res, err := s.pipeline.AfterTimesheetWrite(ctx, timesheetID)
	if err != nil {
		s.logger.Warn("consistency warning",
			slog.Int64("timesheet_id", timesheetID), slog.Any("error", err))
	}
	s.dispatchPipelineNotifications(ctx, timesheetID, project, res)
}

func (s *Service) dispatchPipelineNotifications(ctx context.Context, timesheetID int64, project *projects.Project, res workflow.Result) {
	if s.dispatcher == nil {
		return
	}

	ts, err := s.repo.Get(ctx, timesheetID)
	if err != nil {
		s.logger.Warn("notification lookup failed", slog.Any("error", err))
		return
	}
	emp, err := s.employees.Get(ctx, ts.EmployeeID)
	if err != nil {
		s.logger.Warn("notification lookup failed", slog.Any("error", err))
		return
	}
	projectName := ""
	if project != nil {
		projectName = project.Name
	}
	date := ts.Date.Format(dateLayout)

	if res.TimesheetSubmitted || res.WeekCompleted {
		s.dispatch(ctx, notify.TimesheetStatus(emp.CompanyEmail, emp.Name, projectName, date, string(ts.Status)))

		reviewers, err := s.users.EmailsByRole(ctx, shared.RolePrincipal)
		if err != nil {
			s.logger.Warn("reviewer lookup failed", slog.Any("error", err))
		}
		for _, to := range reviewers {
			s.dispatch(ctx, notify.TimesheetSubmitted(to, emp.Name, projectName, date, ts.Hours))
		}
	}
	if res.WeekCompleted {
		s.dispatch(ctx, notify.WeeklyLimitReached(emp.CompanyEmail, emp.Name, res.Week.TotalWeekHours))
	}
	if res.ProjectCompleted {
		s.dispatch(ctx, notify.TimesheetStatus(emp.CompanyEmail, emp.Name, projectName, date, string(workflow.ProjectCompleted)))
	}
}

func (s *Service) notifyStatusChange(ctx context.Context, ts *Timesheet) {
	if s.dispatcher == nil {
		return
	}
	emp, err := s.employees.Get(ctx, ts.EmployeeID)
	if err != nil {
		s.logger.Warn("notification lookup failed", slog.Any("error", err))
		return
	}
	projectName := ""
	if p, err := s.projects.Get(ctx, ts.ProjectID); err == nil {
		projectName = p.Name
	}
	s.dispatch(ctx, notify.TimesheetStatus(emp.CompanyEmail, emp.Name, projectName, ts.Date.Format(dateLayout), string(ts.Status)))
}

func (s *Service) dispatch(ctx context.Context, intent notify.Intent) {
	if err := s.dispatcher.Dispatch(ctx, intent); err != nil {
		s.logger.Warn("notification dispatch failed",
			slog.String("action", intent.Action), slog.Any("error", err))
	}
}

// authorizeEmployee allows admins and principals through; employees must
// be acting on their own linked record.
func (s *Service) authorizeEmployee(ctx context.Context, actor shared.Identity, employeeID int64) error {
	if actor.Role != shared.RoleEmployee {
		return nil
	}
	linked, err := s.linkedEmployeeID(ctx, actor)
	if err != nil {
		return err
	}
	if linked != employeeID {
		return fmt.Errorf("%w: timesheet belongs to another employee", shared.ErrForbidden)
	}
	return nil
}

func (s *Service) linkedEmployeeID(ctx context.Context, actor shared.Identity) (int64, error) {
	user, err := s.users.Get(ctx, actor.UserID)
	if err != nil {
		return 0, fmt.Errorf("resolve user: %w", err)
	}
	if user.EmployeeID == nil {
		return 0, fmt.Errorf("%w: user has no employee record", shared.ErrForbidden)
	}
	return *user.EmployeeID, nil
}

func (s *Service) recordChange(ctx context.Context, id int64, before, after *Timesheet, method string, actor shared.Identity) {
	rec := tracking.Diff(snapshot(before), snapshot(after), trackingModule, method, actor, time.Now())
	if len(rec.ChangedFields) == 0 {
		return
	}
	if err := s.tracker.Append(ctx, "timesheets", id, rec); err != nil {
		s.logger.Warn("change record append failed",
			slog.String("module", trackingModule), slog.Int64("id", id), slog.Any("error", err))
	}
}

func snapshot(ts *Timesheet) map[string]any {
	if ts == nil {
		return nil
	}
	m, err := tracking.ToMap(ts)
	if err != nil {
		return nil
	}
	return m
}
