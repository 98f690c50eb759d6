package users

import "time"

type User struct {
	ID         int64     `json:"id" db:"id"`
	UserName   string    `json:"user_name" db:"user_name"`
	Email      string    `json:"email" db:"email"`
	Role       string    `json:"role" db:"role"`
	EmployeeID *int64    `json:"employee_id,omitempty" db:"employee_id"`
	IsActive   bool      `json:"is_active" db:"is_active"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"`
}
