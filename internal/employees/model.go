package employees

import "time"

type Employee struct {
	ID            int64     `json:"id" db:"id"`
	Name          string    `json:"name" db:"name"`
	Designation   string    `json:"designation" db:"designation"`
	CompanyEmail  string    `json:"company_email" db:"company_email"`
	PersonalEmail *string   `json:"personal_email,omitempty" db:"personal_email"`
	Phone         *string   `json:"phone,omitempty" db:"phone"`
	PerHourCharge float64   `json:"per_hour_charge" db:"per_hour_charge"`
	IsActive      bool      `json:"is_active" db:"is_active"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}
