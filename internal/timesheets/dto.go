package timesheets

type CreateTimesheetRequest struct {
	EmployeeID  int64   `json:"employee_id" validate:"required,gt=0"`
	ProjectID   int64   `json:"project_id" validate:"required,gt=0"`
	Date        string  `json:"date" validate:"required,datetime=2006-01-02"`
	Hours       float64 `json:"hours" validate:"required,gt=0"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=1000"`
}

type UpdateTimesheetRequest struct {
	Hours       *float64 `json:"hours,omitempty" validate:"omitempty,gt=0"`
	Description *string  `json:"description,omitempty" validate:"omitempty,max=1000"`
}

type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=Open InProgress Submitted Approved Rejected Completed"`
}

type ListTimesheetsRequest struct {
	EmployeeID *int64  `json:"employee_id,omitempty" validate:"omitempty,gt=0"`
	ProjectID  *int64  `json:"project_id,omitempty" validate:"omitempty,gt=0"`
	Status     *string `json:"status,omitempty" validate:"omitempty,oneof=Open InProgress Submitted Approved Rejected Completed"`
	From       *string `json:"from,omitempty" validate:"omitempty,datetime=2006-01-02"`
	To         *string `json:"to,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Limit      int     `json:"limit" validate:"gte=0,lte=1000"`
	Offset     int     `json:"offset" validate:"gte=0"`
}

// WeekView is the per-week rollup returned by the week endpoint.
type WeekView struct {
	EmployeeID     int64       `json:"employee_id"`
	WeekStart      string      `json:"week_start"`
	WeekEnd        string      `json:"week_end"`
	TotalWeekHours float64     `json:"total_week_hours"`
	Remaining      float64     `json:"remaining_hours"`
	WeekCompleted  bool        `json:"week_completed"`
	Entries        []Timesheet `json:"entries"`
}
