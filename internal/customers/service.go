package customers

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/crewdesk/crewdesk/internal/sequence"
	"github.com/crewdesk/crewdesk/internal/shared"
	"github.com/crewdesk/crewdesk/internal/tracking"
)

const trackingModule = "Customer"

type Service struct {
	logger   *slog.Logger
	repo     Repository
	counter  sequence.Counter
	tracker  tracking.Recorder
	validate *validator.Validate
}

func NewService(logger *slog.Logger, repo Repository, counter sequence.Counter, tracker tracking.Recorder) *Service {
	return &Service{
		logger:   logger,
		repo:     repo,
		counter:  counter,
		tracker:  tracker,
		validate: validator.New(),
	}
}

// Create assigns the next customer code from the shared counter and
// persists the customer. Codes are never reused, including after deletes.
func (s *Service) Create(ctx context.Context, req CreateCustomerRequest, actor shared.Identity) (*Customer, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrValidation, err)
	}

	serial, err := s.counter.Next(ctx, sequence.CounterCustomers)
	if err != nil {
		return nil, fmt.Errorf("next customer code: %w", err)
	}

	customer := Customer{
		Code:        sequence.CustomerCode(serial),
		Name:        req.Name,
		ContactName: req.ContactName,
		Email:       req.Email,
		Phone:       req.Phone,
		Address:     req.Address,
		IsActive:    true,
	}

	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		id, err := repo.Create(ctx, customer)
		if err != nil {
			return err
		}
		customer.ID = id
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("create customer: %w", err)
	}

	s.recordChange(ctx, customer.ID, nil, &customer, tracking.MethodCreate, actor)
	return &customer, nil
}

func (s *Service) Update(ctx context.Context, id int64, req UpdateCustomerRequest, actor shared.Identity) (*Customer, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrValidation, err)
	}

	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get customer: %w", err)
	}

	updates := make(map[string]any)
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.ContactName != nil {
		updates["contact_name"] = *req.ContactName
	}
	if req.Email != nil {
		updates["email"] = *req.Email
	}
	if req.Phone != nil {
		updates["phone"] = *req.Phone
	}
	if req.Address != nil {
		updates["address"] = *req.Address
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
		return nil, fmt.Errorf("update customer: %w", err)
	}

	updated, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("reload customer: %w", err)
	}

	s.recordChange(ctx, id, existing, updated, tracking.MethodUpdate, actor)
	return updated, nil
}

// Delete removes the customer and appends a final change record. The
// customer's code stays burned in the counter.
func (s *Service) Delete(ctx context.Context, id int64, actor shared.Identity) error {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("get customer: %w", err)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete customer: %w", err)
	}
	s.recordChange(ctx, id, existing, nil, tracking.MethodDelete, actor)
	return nil
}

func (s *Service) Get(ctx context.Context, id int64) (*Customer, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, req ListCustomersRequest) ([]Customer, int, error) {
	return s.repo.List(ctx, req)
}

func (s *Service) History(ctx context.Context, id int64) ([]tracking.ChangeRecord, error) {
	return s.tracker.History(ctx, "customers", id)
}

// recordChange appends a change record. Tracking is best effort; a failed
// append is logged, not returned.
func (s *Service) recordChange(ctx context.Context, id int64, before, after *Customer, method string, actor shared.Identity) {
	original, incoming := snapshot(before), snapshot(after)
	rec := tracking.Diff(original, incoming, trackingModule, method, actor, time.Now())
	if len(rec.ChangedFields) == 0 {
		return
	}
	if err := s.tracker.Append(ctx, "customers", id, rec); err != nil {
		s.logger.Warn("change record append failed",
			slog.String("module", trackingModule), slog.Int64("id", id), slog.Any("error", err))
	}
}

func snapshot(c *Customer) map[string]any {
	if c == nil {
		return nil
	}
	m, err := tracking.ToMap(c)
	if err != nil {
		return nil
	}
	return m
}
