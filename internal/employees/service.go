package employees

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/crewdesk/crewdesk/internal/shared"
	"github.com/crewdesk/crewdesk/internal/tracking"
)

const trackingModule = "Employee"

type Service struct {
	logger   *slog.Logger
	repo     Repository
	tracker  tracking.Recorder
	validate *validator.Validate
}

func NewService(logger *slog.Logger, repo Repository, tracker tracking.Recorder) *Service {
	return &Service{
		logger:   logger,
		repo:     repo,
		tracker:  tracker,
		validate: validator.New(),
	}
}

func (s *Service) Create(ctx context.Context, req CreateEmployeeRequest, actor shared.Identity) (*Employee, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrValidation, err)
	}

	existing, err := s.repo.GetByEmail(ctx, req.CompanyEmail)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return nil, fmt.Errorf("check existing employee: %w", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: company email already in use", shared.ErrValidation)
	}

	employee := Employee{
		Name:          req.Name,
		Designation:   req.Designation,
		CompanyEmail:  req.CompanyEmail,
		PersonalEmail: req.PersonalEmail,
		Phone:         req.Phone,
		PerHourCharge: req.PerHourCharge,
		IsActive:      true,
	}

	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		id, err := repo.Create(ctx, employee)
		if err != nil {
			return err
		}
		employee.ID = id
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("create employee: %w", err)
	}

	s.recordChange(ctx, employee.ID, nil, &employee, tracking.MethodCreate, actor)
	return &employee, nil
}

func (s *Service) Update(ctx context.Context, id int64, req UpdateEmployeeRequest, actor shared.Identity) (*Employee, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrValidation, err)
	}

	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get employee: %w", err)
	}

	updates := make(map[string]any)
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Designation != nil {
		updates["designation"] = *req.Designation
	}
	if req.CompanyEmail != nil {
		updates["company_email"] = *req.CompanyEmail
	}
	if req.PersonalEmail != nil {
		updates["personal_email"] = *req.PersonalEmail
	}
	if req.Phone != nil {
		updates["phone"] = *req.Phone
	}
	if req.PerHourCharge != nil {
		updates["per_hour_charge"] = *req.PerHourCharge
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}
	if len(updates) == 0 {
		return existing, nil
	}

	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		return repo.Update(ctx, id, updates)
	})
	if err != nil {
		return nil, fmt.Errorf("update employee: %w", err)
	}

	updated, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("reload employee: %w", err)
	}

	s.recordChange(ctx, id, existing, updated, tracking.MethodUpdate, actor)
	return updated, nil
}

func (s *Service) Delete(ctx context.Context, id int64, actor shared.Identity) error {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("get employee: %w", err)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete employee: %w", err)
	}
	s.recordChange(ctx, id, existing, nil, tracking.MethodDelete, actor)
	return nil
}

func (s *Service) Get(ctx context.Context, id int64) (*Employee, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, req ListEmployeesRequest) ([]Employee, int, error) {
	return s.repo.List(ctx, req)
}

func (s *Service) History(ctx context.Context, id int64) ([]tracking.ChangeRecord, error) {
	return s.tracker.History(ctx, "employees", id)
}

func (s *Service) recordChange(ctx context.Context, id int64, before, after *Employee, method string, actor shared.Identity) {
	rec := tracking.Diff(snapshot(before), snapshot(after), trackingModule, method, actor, time.Now())
	if len(rec.ChangedFields) == 0 {
		return
	}
	if err := s.tracker.Append(ctx, "employees", id, rec); err != nil {
		s.logger.Warn("change record append failed",
			slog.String("module", trackingModule), slog.Int64("id", id), slog.Any("error", err))
	}
}

func snapshot(e *Employee) map[string]any {
	if e == nil {
		return nil
	}
	m, err := tracking.ToMap(e)
	if err != nil {
		return nil
	}
	return m
}
