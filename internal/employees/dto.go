package employees

type CreateEmployeeRequest struct {
	Name          string  `json:"name" validate:"required,max=200"`
	Designation   string  `json:"designation" validate:"required,max=100"`
	CompanyEmail  string  `json:"company_email" validate:"required,email"`
	PersonalEmail *string `json:"personal_email,omitempty" validate:"omitempty,email"`
	Phone         *string `json:"phone,omitempty" validate:"omitempty,max=50"`
	PerHourCharge float64 `json:"per_hour_charge" validate:"gte=0"`
}

type UpdateEmployeeRequest struct {
	Name          *string  `json:"name,omitempty" validate:"omitempty,max=200"`
	Designation   *string  `json:"designation,omitempty" validate:"omitempty,max=100"`
	CompanyEmail  *string  `json:"company_email,omitempty" validate:"omitempty,email"`
	PersonalEmail *string  `json:"personal_email,omitempty" validate:"omitempty,email"`
	Phone         *string  `json:"phone,omitempty" validate:"omitempty,max=50"`
	PerHourCharge *float64 `json:"per_hour_charge,omitempty" validate:"omitempty,gte=0"`
	IsActive      *bool    `json:"is_active,omitempty"`
}

type ListEmployeesRequest struct {
	IsActive *bool   `json:"is_active,omitempty"`
	Search   *string `json:"search,omitempty"`
	Limit    int     `json:"limit" validate:"gte=0,lte=1000"`
	Offset   int     `json:"offset" validate:"gte=0"`
}
