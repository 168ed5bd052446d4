package attendance

import "time"

type Status string

const (
	StatusPresent     Status = "Present"
	StatusOnLeave     Status = "On_Leave"
	StatusAnnualLeave Status = "Annual_Leave"
	StatusHalfDay     Status = "Half_Day"
	StatusHourlyLeave Status = "Hourly_Leave"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPresent, StatusOnLeave, StatusAnnualLeave, StatusHalfDay, StatusHourlyLeave:
		return true
	}
	return false
}

type Record struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Date      time.Time `json:"date"`
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
