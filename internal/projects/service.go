package projects

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/crewdesk/crewdesk/internal/customers"
	"github.com/crewdesk/crewdesk/internal/employees"
	"github.com/crewdesk/crewdesk/internal/hours"
	"github.com/crewdesk/crewdesk/internal/notify"
	"github.com/crewdesk/crewdesk/internal/sequence"
	"github.com/crewdesk/crewdesk/internal/shared"
	"github.com/crewdesk/crewdesk/internal/tracking"
	"github.com/crewdesk/crewdesk/internal/workflow"
)

const trackingModule = "Project"

// CustomerDirectory is the slice of the customer service the projects
// need: code lookup for project code derivation.
type CustomerDirectory interface {
	Get(ctx context.Context, id int64) (*customers.Customer, error)
}

// EmployeeDirectory resolves assignment employees to their rate and email.
type EmployeeDirectory interface {
	Get(ctx context.Context, id int64) (*employees.Employee, error)
}

// WorkflowPort is the slice of the workflow engine used for explicit
// project completion.
type WorkflowPort interface {
	CompleteProject(ctx context.Context, id int64) error
}

type Service struct {
	logger     *slog.Logger
	repo       Repository
	counter    sequence.Counter
	tracker    tracking.Recorder
	dispatcher notify.Dispatcher
	engine     WorkflowPort
	customers  CustomerDirectory
	employees  EmployeeDirectory
	validate   *validator.Validate
}

func NewService(
	logger *slog.Logger,
	repo Repository,
	counter sequence.Counter,
	tracker tracking.Recorder,
	dispatcher notify.Dispatcher,
	engine WorkflowPort,
	customerDir CustomerDirectory,
	employeeDir EmployeeDirectory,
) *Service {
	return &Service{
		logger:     logger,
		repo:       repo,
		counter:    counter,
		tracker:    tracker,
		dispatcher: dispatcher,
		engine:     engine,
		customers:  customerDir,
		employees:  employeeDir,
		validate:   validator.New(),
	}
}

// Create derives the project code from the owning customer's code plus
// the next serial, costs the assignments, and persists the project Open.
func (s *Service) Create(ctx context.Context, req CreateProjectRequest, actor shared.Identity) (*Project, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrValidation, err)
	}

	customer, err := s.customers.Get(ctx, req.CustomerID)
	if err != nil {
		return nil, fmt.Errorf("customer %d: %w", req.CustomerID, err)
	}

	assignments, resolved, err := s.buildAssignments(ctx, req.Assignments)
	if err != nil {
		return nil, err
	}
	cost := hours.ComputeAssignmentCost(assignments)

	serial, err := s.counter.Next(ctx, sequence.CounterProjects)
	if err != nil {
		return nil, fmt.Errorf("next project serial: %w", err)
	}

	project := Project{
		Code:        sequence.ProjectCode(customer.Code, serial-1),
		Name:        req.Name,
		Description: req.Description,
		CustomerID:  req.CustomerID,
		Status:      workflow.ProjectOpen,
		Assignments: cost.Assignments,
		BudgetHours: cost.TotalHours,
		TotalAmount: cost.TotalCost,
	}

	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		id, err := repo.Create(ctx, project)
		if err != nil {
			return err
		}
		project.ID = id
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("create project: %w", err)
	}

	s.recordChange(ctx, project.ID, nil, &project, tracking.MethodCreate, actor)
	s.notifyAssigned(ctx, &project, cost.Assignments, resolved)
	return &project, nil
}

// Update applies field changes. A material change, meaning a new name or
// a structurally different assignment set, bumps the project code.
// Locked projects reject every update.
func (s *Service) Update(ctx context.Context, id int64, req UpdateProjectRequest, actor shared.Identity) (*Project, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrValidation, err)
	}

	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get project: %w", err)
	}
	if existing.Locked {
		return nil, fmt.Errorf("%w: project %s is locked", shared.ErrLocked, existing.Code)
	}

	updates := make(map[string]any)
	material := false
	var newAssignments []hours.Assignment
	var resolved map[int64]*employees.Employee

	if req.Name != nil && *req.Name != existing.Name {
		updates["name"] = *req.Name
		material = true
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Assignments != nil {
		assignments, lookup, err := s.buildAssignments(ctx, req.Assignments)
		if err != nil {
			return nil, err
		}
		cost := hours.ComputeAssignmentCost(assignments)
		newAssignments = cost.Assignments
		resolved = lookup
		updates["assignments"] = cost.Assignments
		updates["total_hours"] = cost.TotalHours
		updates["total_amount"] = cost.TotalCost
		if assignmentsChanged(existing.Assignments, cost.Assignments) {
			material = true
		}
	}

	if len(updates) == 0 {
		return existing, nil
	}

	if material {
		bumped, err := sequence.BumpCode(existing.Code)
		if err != nil {
			return nil, fmt.Errorf("bump project code: %w", err)
		}
		updates["code"] = bumped
	}

	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		return repo.Update(ctx, id, updates)
	})
	if err != nil {
		return nil, fmt.Errorf("update project: %w", err)
	}

	updated, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("reload project: %w", err)
	}

	s.recordChange(ctx, id, existing, updated, tracking.MethodUpdate, actor)

	if newAssignments != nil {
		s.notifyAssigned(ctx, updated, newlyAssigned(existing.Assignments, newAssignments), resolved)
	}
	return updated, nil
}

// UpdateStatus moves the project along Open, InProgress, Completed.
// Completion goes through the workflow engine so the timesheet cascade
// and lock apply.
func (s *Service) UpdateStatus(ctx context.Context, id int64, req UpdateStatusRequest, actor shared.Identity) (*Project, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrValidation, err)
	}

	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get project: %w", err)
	}
	if existing.Locked {
		return nil, fmt.Errorf("%w: project %s is locked", shared.ErrLocked, existing.Code)
	}

	status := workflow.ProjectStatus(req.Status)
	if status == existing.Status {
		return existing, nil
	}

	if status == workflow.ProjectCompleted {
		if err := s.engine.CompleteProject(ctx, id); err != nil {
			return nil, err
		}
	} else {
		err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
			return repo.Update(ctx, id, map[string]any{"status": status})
		})
		if err != nil {
			return nil, fmt.Errorf("update project status: %w", err)
		}
	}

	updated, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("reload project: %w", err)
	}
	s.recordChange(ctx, id, existing, updated, tracking.MethodUpdate, actor)
	return updated, nil
}

func (s *Service) Delete(ctx context.Context, id int64, actor shared.Identity) error {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("get project: %w", err)
	}
	if existing.Locked {
		return fmt.Errorf("%w: project %s is locked", shared.ErrLocked, existing.Code)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	s.recordChange(ctx, id, existing, nil, tracking.MethodDelete, actor)
	return nil
}

func (s *Service) Get(ctx context.Context, id int64) (*Project, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, req ListProjectsRequest) ([]Project, int, error) {
	return s.repo.List(ctx, req)
}

// ListForEmployee returns the employee's assigned projects that have not
// been completed yet, the set an employee can still log hours against.
func (s *Service) ListForEmployee(ctx context.Context, employeeID int64) ([]Project, error) {
	if _, err := s.employees.Get(ctx, employeeID); err != nil {
		return nil, fmt.Errorf("employee %d: %w", employeeID, err)
	}
	return s.repo.ListByEmployee(ctx, employeeID)
}

func (s *Service) History(ctx context.Context, id int64) ([]tracking.ChangeRecord, error) {
	return s.tracker.History(ctx, "projects", id)
}

// buildAssignments resolves assignment inputs against the employee
// directory, filling in names and hourly rates.
func (s *Service) buildAssignments(ctx context.Context, inputs []AssignmentInput) ([]hours.Assignment, map[int64]*employees.Employee, error) {
	assignments := make([]hours.Assignment, 0, len(inputs))
	resolved := make(map[int64]*employees.Employee, len(inputs))
	for _, in := range inputs {
		emp, err := s.employees.Get(ctx, in.EmployeeID)
		if err != nil {
			return nil, nil, fmt.Errorf("employee %d: %w", in.EmployeeID, err)
		}
		resolved[emp.ID] = emp
		assignments = append(assignments, hours.Assignment{
			EmployeeID:   emp.ID,
			EmployeeName: emp.Name,
			PerHour:      emp.PerHourCharge,
			EmpHours:     in.EmpHours,
		})
	}
	return assignments, resolved, nil
}

func (s *Service) notifyAssigned(ctx context.Context, project *Project, assignments []hours.Assignment, resolved map[int64]*employees.Employee) {
	if s.dispatcher == nil {
		return
	}
	for _, a := range assignments {
		emp, ok := resolved[a.EmployeeID]
		if !ok {
			continue
		}
		intent := notify.ProjectAssignment(emp.CompanyEmail, a.EmployeeName, project.Name, project.Code, a.EmpHours)
		if err := s.dispatcher.Dispatch(ctx, intent); err != nil {
			s.logger.Warn("assignment notification failed",
				slog.Int64("project_id", project.ID), slog.Int64("employee_id", a.EmployeeID), slog.Any("error", err))
		}
	}
}

// assignmentsChanged compares assignment sets structurally via their
// serialized form.
func assignmentsChanged(before, after []hours.Assignment) bool {
	b, _ := json.Marshal(before)
	a, _ := json.Marshal(after)
	return string(b) != string(a)
}

// newlyAssigned returns assignments whose employee was not on the project
// before the update.
func newlyAssigned(before, after []hours.Assignment) []hours.Assignment {
	known := make(map[int64]bool, len(before))
	for _, a := range before {
		known[a.EmployeeID] = true
	}
	var fresh []hours.Assignment
	for _, a := range after {
		if !known[a.EmployeeID] {
			fresh = append(fresh, a)
		}
	}
	return fresh
}

func (s *Service) recordChange(ctx context.Context, id int64, before, after *Project, method string, actor shared.Identity) {
	rec := tracking.Diff(snapshot(before), snapshot(after), trackingModule, method, actor, time.Now())
	if len(rec.ChangedFields) == 0 {
		return
	}
	if err := s.tracker.Append(ctx, "projects", id, rec); err != nil {
		s.logger.Warn("change record append failed",
			slog.String("module", trackingModule), slog.Int64("id", id), slog.Any("error", err))
	}
}

func snapshot(p *Project) map[string]any {
	if p == nil {
		return nil
	}
	m, err := tracking.ToMap(p)
	if err != nil {
		return nil
	}
	return m
}
