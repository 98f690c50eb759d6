package projects

type AssignmentInput struct {
	EmployeeID int64   `json:"employee_id" validate:"required,gt=0"`
	EmpHours   float64 `json:"emp_hours" validate:"required,gt=0"`
}

type CreateProjectRequest struct {
	Name        string            `json:"name" validate:"required,max=200"`
	Description *string           `json:"description,omitempty" validate:"omitempty,max=1000"`
	CustomerID  int64             `json:"customer_id" validate:"required,gt=0"`
	Assignments []AssignmentInput `json:"assignments" validate:"dive"`
}

type UpdateProjectRequest struct {
	Name        *string           `json:"name,omitempty" validate:"omitempty,max=200"`
	Description *string           `json:"description,omitempty" validate:"omitempty,max=1000"`
	Assignments []AssignmentInput `json:"assignments,omitempty" validate:"omitempty,dive"`
}

type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=Open InProgress Completed"`
}

type ListProjectsRequest struct {
	CustomerID *int64  `json:"customer_id,omitempty" validate:"omitempty,gt=0"`
	Status     *string `json:"status,omitempty" validate:"omitempty,oneof=Open InProgress Completed"`
	Search     *string `json:"search,omitempty"`
	Limit      int     `json:"limit" validate:"gte=0,lte=1000"`
	Offset     int     `json:"offset" validate:"gte=0"`
}
