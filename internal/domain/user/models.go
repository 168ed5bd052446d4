package user

import (
	"time"

	"github.com/shopspring/decimal"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

const (
	DefaultAnnualLeaveDays = 21
	DefaultMonthlyHours    = 3
)

type User struct {
	ID                 string          `json:"id"`
	Name               string          `json:"name"`
	Email              string          `json:"email"`
	Role               Role            `json:"role"`
	DepartmentID       string          `json:"departmentId,omitempty"`
	AnnualLeaveBalance decimal.Decimal `json:"annualLeaveBalance"`
	MonthlyHourBalance decimal.Decimal `json:"monthlyHourBalance"`
	HiringDate         *time.Time      `json:"hiringDate,omitempty"`
	CreatedAt          time.Time       `json:"createdAt"`
}

// New returns a user carrying the default entitlements.
func New(id, name, email string) User {
	return User{
		ID:                 id,
		Name:               name,
		Email:              email,
		Role:               RoleUser,
		AnnualLeaveBalance: decimal.NewFromInt(DefaultAnnualLeaveDays),
		MonthlyHourBalance: decimal.NewFromInt(DefaultMonthlyHours),
	}
}
