package users

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/crewdesk/crewdesk/internal/notify"
	"github.com/crewdesk/crewdesk/internal/shared"
	"github.com/crewdesk/crewdesk/internal/tracking"
)

const trackingModule = "User"

type Service struct {
	logger     *slog.Logger
	repo       Repository
	tracker    tracking.Recorder
	dispatcher notify.Dispatcher
	validate   *validator.Validate
}

// NewService builds the user service. dispatcher may be nil; role change
// notifications are then skipped.
func NewService(logger *slog.Logger, repo Repository, tracker tracking.Recorder, dispatcher notify.Dispatcher) *Service {
	return &Service{
		logger:     logger,
		repo:       repo,
		tracker:    tracker,
		dispatcher: dispatcher,
		validate:   validator.New(),
	}
}

func (s *Service) Create(ctx context.Context, req CreateUserRequest, actor shared.Identity) (*User, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrValidation, err)
	}

	existing, err := s.repo.GetByEmail(ctx, req.Email)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return nil, fmt.Errorf("check existing user: %w", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: email already in use", shared.ErrValidation)
	}

	user := User{
		UserName:   req.UserName,
		Email:      req.Email,
		Role:       req.Role,
		EmployeeID: req.EmployeeID,
		IsActive:   true,
	}

	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		id, err := repo.Create(ctx, user)
		if err != nil {
			return err
		}
		user.ID = id
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.recordChange(ctx, user.ID, nil, &user, tracking.MethodCreate, actor)
	return &user, nil
}

func (s *Service) Update(ctx context.Context, id int64, req UpdateUserRequest, actor shared.Identity) (*User, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrValidation, err)
	}

	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}

	updates := make(map[string]any)
	if req.UserName != nil {
		updates["user_name"] = *req.UserName
	}
	if req.Email != nil {
		updates["email"] = *req.Email
	}
	if req.Role != nil {
		updates["role"] = *req.Role
	}
	if req.EmployeeID != nil {
		updates["employee_id"] = *req.EmployeeID
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
		return nil, fmt.Errorf("update user: %w", err)
	}

	updated, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("reload user: %w", err)
	}

	s.recordChange(ctx, id, existing, updated, tracking.MethodUpdate, actor)

	if req.Role != nil && *req.Role != existing.Role {
		s.notifyRoleChange(ctx, updated, existing.Role)
	}
	return updated, nil
}

func (s *Service) Delete(ctx context.Context, id int64, actor shared.Identity) error {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("get user: %w", err)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	s.recordChange(ctx, id, existing, nil, tracking.MethodDelete, actor)
	return nil
}

func (s *Service) Get(ctx context.Context, id int64) (*User, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, req ListUsersRequest) ([]User, int, error) {
	return s.repo.List(ctx, req)
}

// EmailsByRole returns active user emails holding the given role. The
// timesheet review notifications use this to reach Principals.
func (s *Service) EmailsByRole(ctx context.Context, role string) ([]string, error) {
	active := true
	list, _, err := s.repo.List(ctx, ListUsersRequest{Role: &role, IsActive: &active, Limit: 1000})
	if err != nil {
		return nil, err
	}
	emails := make([]string, 0, len(list))
	for _, u := range list {
		emails = append(emails, u.Email)
	}
	return emails, nil
}

func (s *Service) History(ctx context.Context, id int64) ([]tracking.ChangeRecord, error) {
	return s.tracker.History(ctx, "users", id)
}

func (s *Service) notifyRoleChange(ctx context.Context, user *User, oldRole string) {
	if s.dispatcher == nil {
		return
	}
	intent := notify.RoleChange(user.Email, user.UserName, oldRole, user.Role)
	if err := s.dispatcher.Dispatch(ctx, intent); err != nil {
		s.logger.Warn("role change notification failed",
			slog.Int64("user_id", user.ID), slog.Any("error", err))
	}
}

func (s *Service) recordChange(ctx context.Context, id int64, before, after *User, method string, actor shared.Identity) {
	rec := tracking.Diff(snapshot(before), snapshot(after), trackingModule, method, actor, time.Now())
	if len(rec.ChangedFields) == 0 {
		return
	}
	if err := s.tracker.Append(ctx, "users", id, rec); err != nil {
		s.logger.Warn("change record append failed",
			slog.String("module", trackingModule), slog.Int64("id", id), slog.Any("error", err))
	}
}

func snapshot(u *User) map[string]any {
	if u == nil {
		return nil
	}
	m, err := tracking.ToMap(u)
	if err != nil {
		return nil
	}
	return m
}
