package hour

import "hrops/internal/domain/apperr"

var (
	ErrRequestNotFound     = apperr.New(apperr.KindNotFound, "hour request not found")
	ErrNotOwner            = apperr.New(apperr.KindForbidden, "you can only modify your own requests")
	ErrNotPending          = apperr.New(apperr.KindBadRequest, "only pending requests can be modified")
	ErrAlreadyProcessed    = apperr.New(apperr.KindBadRequest, "request has already been processed")
	ErrDateInPast          = apperr.New(apperr.KindValidation, "cannot submit hour request for past dates")
	ErrHoursOutOfRange     = apperr.New(apperr.KindValidation, "requested hours must be between 1 and 3")
	ErrInsufficientBalance = apperr.New(apperr.KindValidation, "insufficient hour balance")
	ErrDuplicateDate       = apperr.New(apperr.KindConflict, "an hour request already exists for this date")
)
