package timesheets

import (
	"time"

	"github.com/crewdesk/crewdesk/internal/workflow"
)

// Timesheet is one day's entry of an employee against a project.
// TotalWeekHours is denormalized onto every entry of the week by the
// recompute pipeline so week state is readable without aggregation.
type Timesheet struct {
	ID               int64                    `json:"id" db:"id"`
	EmployeeID       int64                    `json:"employee_id" db:"employee_id"`
	ProjectID        int64                    `json:"project_id" db:"project_id"`
	Date             time.Time                `json:"date" db:"date"`
	WeekStart        time.Time                `json:"week_start" db:"week_start"`
	Hours            float64                  `json:"hours" db:"hours"`
	Description      *string                  `json:"description,omitempty" db:"description"`
	Status           workflow.TimesheetStatus `json:"status" db:"status"`
	TotalWeekHours   float64                  `json:"total_week_hours" db:"total_week_hours"`
	WeekCompleted    bool                     `json:"week_completed" db:"week_completed"`
	AutoTransitioned bool                     `json:"auto_transitioned" db:"auto_transitioned"`
	Locked           bool                     `json:"locked" db:"locked"`
	SubmittedAt      *time.Time               `json:"submitted_at,omitempty" db:"submitted_at"`
	ApprovedAt       *time.Time               `json:"approved_at,omitempty" db:"approved_at"`
	CompletedAt      *time.Time               `json:"completed_at,omitempty" db:"completed_at"`
	TransitionedAt   *time.Time               `json:"transitioned_at,omitempty" db:"transitioned_at"`
	CreatedAt        time.Time                `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time                `json:"updated_at" db:"updated_at"`
}
