package hour

import (
	"time"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

const (
	MinRequestedHours = 1
	MaxRequestedHours = 3
)

type HourRequest struct {
	ID             string    `json:"id"`
	UserID         string    `json:"userId"`
	Date           time.Time `json:"date"`
	RequestedHours int       `json:"requestedHours"`
	Status         Status    `json:"status"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

type SubmitInput struct {
	Date           time.Time `validate:"required"`
	RequestedHours int
}

type Patch struct {
	Date           *time.Time
	RequestedHours *int
}

func (p Patch) Apply(r HourRequest) SubmitInput {
	in := SubmitInput{Date: r.Date, RequestedHours: r.RequestedHours}
	if p.Date != nil {
		in.Date = *p.Date
	}
	if p.RequestedHours != nil {
		in.RequestedHours = *p.RequestedHours
	}
	return in
}

// SettleFunc decides an approval under lock and returns the monthly hour
// balance to write.
type SettleFunc func(req HourRequest, balance decimal.Decimal) (decimal.Decimal, error)
