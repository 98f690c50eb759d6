package hours

import (
	"context"
	"fmt"
	"time"
)

// WeekSummary describes one employee week after recomputation.
type WeekSummary struct {
	EmployeeID     int64
	WeekStart      time.Time
	TotalWeekHours float64
	Entries        int
}

// Store is the persistence surface the accountant needs. Implemented by
// the timesheets repository.
type Store interface {
	// SumWeek returns the hour total and entry count for the employee's
	// timesheets with date in [weekStart, weekStart+6].
	SumWeek(ctx context.Context, employeeID int64, weekStart time.Time) (total float64, entries int, err error)
	// SetWeekTotals fans the recomputed total out onto every timesheet in
	// that range.
	SetWeekTotals(ctx context.Context, employeeID int64, weekStart time.Time, total float64) error
	// SumProjectHours returns the hour total across all timesheets
	// referencing the project.
	SumProjectHours(ctx context.Context, projectID int64) (float64, error)
	// SetProjectLoggedHours writes the recomputed total onto the project.
	SetProjectLoggedHours(ctx context.Context, projectID int64, total float64) error
}

// Accountant maintains the derived hour aggregates. Every recompute reads
// fresh and rewrites the aggregate in full, so re-running with unchanged
// inputs is a no-op.
type Accountant struct {
	store Store
}

// NewAccountant constructs an Accountant.
func NewAccountant(store Store) *Accountant {
	return &Accountant{store: store}
}

// ValidateWeek checks incomingHours against the caps given what is already
// persisted for the employee week. No mutation.
func (a *Accountant) ValidateWeek(ctx context.Context, employeeID int64, weekStart time.Time, incomingHours float64) (WeekValidation, error) {
	current, _, err := a.store.SumWeek(ctx, employeeID, weekStart)
	if err != nil {
		return WeekValidation{}, fmt.Errorf("hours: sum week: %w", err)
	}
	return ValidateEntry(incomingHours, current)
}

// RecomputeWeeklyTotals recomputes totalWeekHours for the employee week and
// writes it onto every timesheet in the week.
func (a *Accountant) RecomputeWeeklyTotals(ctx context.Context, employeeID int64, weekStart time.Time) (WeekSummary, error) {
	total, entries, err := a.store.SumWeek(ctx, employeeID, weekStart)
	if err != nil {
		return WeekSummary{}, fmt.Errorf("hours: sum week: %w", err)
	}
	if err := a.store.SetWeekTotals(ctx, employeeID, weekStart, total); err != nil {
		return WeekSummary{}, fmt.Errorf("hours: set week totals: %w", err)
	}
	return WeekSummary{
		EmployeeID:     employeeID,
		WeekStart:      weekStart,
		TotalWeekHours: total,
		Entries:        entries,
	}, nil
}

// RecomputeProjectHours recomputes the project's logged hours from its
// timesheets. Timesheet-logged hours are the source of truth once logging
// begins, regardless of what the assignments declared.
func (a *Accountant) RecomputeProjectHours(ctx context.Context, projectID int64) (float64, error) {
	total, err := a.store.SumProjectHours(ctx, projectID)
	if err != nil {
		return 0, fmt.Errorf("hours: sum project: %w", err)
	}
	if err := a.store.SetProjectLoggedHours(ctx, projectID, total); err != nil {
		return 0, fmt.Errorf("hours: set project hours: %w", err)
	}
	return total, nil
}
