package leave

import "hrops/internal/domain/apperr"

var (
	ErrRequestNotFound     = apperr.New(apperr.KindNotFound, "leave request not found")
	ErrNotOwner            = apperr.New(apperr.KindForbidden, "you can only modify your own requests")
	ErrNotPending          = apperr.New(apperr.KindBadRequest, "only pending requests can be modified")
	ErrAlreadyProcessed    = apperr.New(apperr.KindBadRequest, "request has already been processed")
	ErrStartInPast         = apperr.New(apperr.KindValidation, "start date cannot be in the past")
	ErrHalfDaySpan         = apperr.New(apperr.KindValidation, "half-day leave must start and end on the same day")
	ErrEndBeforeStart      = apperr.New(apperr.KindValidation, "end date cannot be before start date")
	ErrNoBusinessDays      = apperr.New(apperr.KindValidation, "leave request must include at least one business day")
	ErrInsufficientBalance = apperr.New(apperr.KindValidation, "insufficient leave balance")
	ErrOverlap             = apperr.New(apperr.KindConflict, "leave request overlaps an existing request")
)
