package projects

import (
	"time"

	"github.com/crewdesk/crewdesk/internal/hours"
	"github.com/crewdesk/crewdesk/internal/workflow"
)

// Project carries two hour figures: BudgetHours is the sum of assignment
// allocations and the auto-completion threshold, LoggedHours is what the
// timesheets have actually recorded against it.
type Project struct {
	ID               int64                  `json:"id" db:"id"`
	Code             string                 `json:"code" db:"code"`
	Name             string                 `json:"name" db:"name"`
	Description      *string                `json:"description,omitempty" db:"description"`
	CustomerID       int64                  `json:"customer_id" db:"customer_id"`
	Status           workflow.ProjectStatus `json:"status" db:"status"`
	Assignments      []hours.Assignment     `json:"assignments" db:"assignments"`
	BudgetHours      float64                `json:"budget_hours" db:"total_hours"`
	LoggedHours      float64                `json:"logged_hours" db:"logged_hours"`
	ActualHours      float64                `json:"actual_hours" db:"actual_hours"`
	TotalAmount      float64                `json:"total_amount" db:"total_amount"`
	Locked           bool                   `json:"locked" db:"locked"`
	AutoTransitioned bool                   `json:"auto_transitioned" db:"auto_transitioned"`
	CompletedAt      *time.Time             `json:"completed_at,omitempty" db:"completed_at"`
	CreatedAt        time.Time              `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time              `json:"updated_at" db:"updated_at"`
}
