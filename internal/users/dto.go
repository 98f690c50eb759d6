package users

type CreateUserRequest struct {
	UserName   string `json:"user_name" validate:"required,max=100"`
	Email      string `json:"email" validate:"required,email"`
	Role       string `json:"role" validate:"required,oneof=Admin Principal Employee"`
	EmployeeID *int64 `json:"employee_id,omitempty" validate:"omitempty,gt=0"`
}

type UpdateUserRequest struct {
	UserName   *string `json:"user_name,omitempty" validate:"omitempty,max=100"`
	Email      *string `json:"email,omitempty" validate:"omitempty,email"`
	Role       *string `json:"role,omitempty" validate:"omitempty,oneof=Admin Principal Employee"`
	EmployeeID *int64  `json:"employee_id,omitempty" validate:"omitempty,gt=0"`
	IsActive   *bool   `json:"is_active,omitempty"`
}

type ListUsersRequest struct {
	Role     *string `json:"role,omitempty" validate:"omitempty,oneof=Admin Principal Employee"`
	IsActive *bool   `json:"is_active,omitempty"`
	Limit    int     `json:"limit" validate:"gte=0,lte=1000"`
	Offset   int     `json:"offset" validate:"gte=0"`
}
