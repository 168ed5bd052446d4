package leave

import (
	"time"

	"github.com/shopspring/decimal"
)

type DayType string

const (
	FullDay DayType = "FULL_DAY"
	HalfDay DayType = "HALF_DAY"
)

type Status string

const (
	StatusPending  Status = "PENDING"
	StatusApproved Status = "APPROVED"
	StatusRejected Status = "REJECTED"
)

type LeaveRequest struct {
	ID            string          `json:"id"`
	UserID        string          `json:"userId"`
	StartDate     time.Time       `json:"startDate"`
	EndDate       time.Time       `json:"endDate"`
	DayType       DayType         `json:"dayType"`
	RequestedDays decimal.Decimal `json:"requestedDays"`
	Reason        string          `json:"reason,omitempty"`
	Status        Status          `json:"status"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

// SubmitInput is a new leave request as entered by its owner. A zero EndDate
// means a single day.
type SubmitInput struct {
	StartDate time.Time `validate:"required"`
	EndDate   time.Time
	DayType   DayType `validate:"omitempty,oneof=FULL_DAY HALF_DAY"`
	Reason    string  `validate:"omitempty,min=5,max=500"`
}

// Patch carries the fields an owner wants to change; nil fields keep the
// stored value.
type Patch struct {
	StartDate *time.Time
	EndDate   *time.Time
	DayType   *DayType
	Reason    *string
}

// Apply merges the present fields of p over r.
func (p Patch) Apply(r LeaveRequest) SubmitInput {
	in := SubmitInput{
		StartDate: r.StartDate,
		EndDate:   r.EndDate,
		DayType:   r.DayType,
		Reason:    r.Reason,
	}
	if p.StartDate != nil {
		in.StartDate = *p.StartDate
	}
	if p.EndDate != nil {
		in.EndDate = *p.EndDate
	}
	if p.DayType != nil {
		in.DayType = *p.DayType
	}
	if p.Reason != nil {
		in.Reason = *p.Reason
	}
	return in
}

// SettleFunc decides an approval under lock: given the locked request and the
// owner's current annual balance it returns the balance to write, or an error
// to abort the transaction.
type SettleFunc func(req LeaveRequest, balance decimal.Decimal) (decimal.Decimal, error)
