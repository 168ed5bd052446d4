package attendance

import (
	"context"
	"time"

	"hrops/internal/domain/hour"
	"hrops/internal/domain/leave"
)

// Claim is a processor's decision for one user on the swept day.
type Claim struct {
	UserID string
	Status Status
	Source string
}

// Processor derives attendance from one kind of approved request.
type Processor interface {
	Name() string
	Claims(ctx context.Context, day time.Time) ([]Claim, error)
}

type LeaveReader interface {
	FindApprovedOn(ctx context.Context, day time.Time) ([]leave.LeaveRequest, error)
}

// LeaveProcessor stamps Annual_Leave, or Half_Day for half-day leave, on
// users with approved leave covering the day.
type LeaveProcessor struct {
	Leaves LeaveReader
}

func (LeaveProcessor) Name() string { return "leave" }

func (p LeaveProcessor) Claims(ctx context.Context, day time.Time) ([]Claim, error) {
	reqs, err := p.Leaves.FindApprovedOn(ctx, day)
	if err != nil {
		return nil, err
	}
	claims := make([]Claim, 0, len(reqs))
	for _, r := range reqs {
		status := StatusAnnualLeave
		if r.DayType == leave.HalfDay {
			status = StatusHalfDay
		}
		claims = append(claims, Claim{UserID: r.UserID, Status: status, Source: r.ID})
	}
	return claims, nil
}

type HourReader interface {
	FindApprovedOn(ctx context.Context, day time.Time) ([]hour.HourRequest, error)
}

// HourProcessor stamps Hourly_Leave on users with an approved hour request
// for the day.
type HourProcessor struct {
	Hours HourReader
}

func (HourProcessor) Name() string { return "hour" }

func (p HourProcessor) Claims(ctx context.Context, day time.Time) ([]Claim, error) {
	reqs, err := p.Hours.FindApprovedOn(ctx, day)
	if err != nil {
		return nil, err
	}
	claims := make([]Claim, 0, len(reqs))
	for _, r := range reqs {
		claims = append(claims, Claim{UserID: r.UserID, Status: StatusHourlyLeave, Source: r.ID})
	}
	return claims, nil
}
