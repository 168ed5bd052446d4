package hour

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"hrops/internal/domain/apperr"
	"hrops/internal/domain/datecalc"
	"hrops/internal/platform/clock"
)

type Validator struct {
	store StoreAPI
	clock clock.Clock
}

func NewValidator(store StoreAPI, clk clock.Clock) *Validator {
	return &Validator{store: store, clock: clk}
}

// ValidateDates rejects past dates and a second active request on the same
// day.
func (v *Validator) ValidateDates(ctx context.Context, userID string, date time.Time, excludeID string) error {
	date = datecalc.Normalize(date)
	if date.Before(datecalc.Today(v.clock.Now())) {
		return ErrDateInPast
	}
	_, err := v.store.FindActiveByUserIDAndDate(ctx, userID, date, excludeID)
	switch {
	case err == nil:
		return ErrDuplicateDate
	case errors.Is(err, ErrRequestNotFound):
		return nil
	default:
		return apperr.Persistence("find hour request by date", err)
	}
}

func (v *Validator) ValidateBalance(requested int, available decimal.Decimal) error {
	if requested < MinRequestedHours || requested > MaxRequestedHours {
		return ErrHoursOutOfRange
	}
	if decimal.NewFromInt(int64(requested)).GreaterThan(available) {
		return ErrInsufficientBalance
	}
	return nil
}
