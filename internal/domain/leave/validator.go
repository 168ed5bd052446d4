package leave

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"hrops/internal/domain/apperr"
	"hrops/internal/domain/datecalc"
	"hrops/internal/platform/clock"
)

// Validator holds the date and balance rules for leave requests. It reads the
// store but never writes to it.
type Validator struct {
	store StoreAPI
	clock clock.Clock
}

func NewValidator(store StoreAPI, clk clock.Clock) *Validator {
	return &Validator{store: store, clock: clk}
}

// ValidateDates checks, in order: start not in the past, the day-type span
// rule, and overlap with the user's pending or approved requests.
func (v *Validator) ValidateDates(ctx context.Context, userID string, start, end time.Time, dayType DayType, excludeID string) error {
	start, end = datecalc.Normalize(start), datecalc.Normalize(end)
	if start.Before(datecalc.Today(v.clock.Now())) {
		return ErrStartInPast
	}
	switch dayType {
	case HalfDay:
		if !start.Equal(end) {
			return ErrHalfDaySpan
		}
	default:
		if end.Before(start) {
			return ErrEndBeforeStart
		}
	}

	existing, err := v.store.FindOverlapping(ctx, userID, start, end, excludeID)
	if err != nil {
		return apperr.Persistence("find overlapping leave", err)
	}
	for _, other := range existing {
		if other.ID == excludeID {
			continue
		}
		if conflicts(start, end, other) {
			return ErrOverlap
		}
	}
	return nil
}

// conflicts reports whether a candidate range collides with an existing
// request. Half days carry no morning or afternoon slot, so two half days on
// the same date collide just like a half day inside a full-day range.
func conflicts(start, end time.Time, other LeaveRequest) bool {
	if other.Status != StatusPending && other.Status != StatusApproved {
		return false
	}
	return datecalc.Overlaps(start, end, other.StartDate, other.EndDate)
}

// ValidateBalance requires a positive day count that fits the available
// balance.
func (v *Validator) ValidateBalance(requested, available decimal.Decimal) error {
	if !requested.IsPositive() {
		return ErrNoBusinessDays
	}
	if requested.GreaterThan(available) {
		return ErrInsufficientBalance
	}
	return nil
}

// RequestedDays is 0.5 for a half day on a business day and the business-day
// count of the range otherwise.
func RequestedDays(start, end time.Time, dayType DayType) decimal.Decimal {
	if dayType == HalfDay {
		if datecalc.IsRestDay(start) {
			return decimal.Zero
		}
		return decimal.NewFromFloat(0.5)
	}
	return decimal.NewFromInt(int64(datecalc.BusinessDays(start, end)))
}
