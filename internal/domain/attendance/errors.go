package attendance

import "hrops/internal/domain/apperr"

var (
	ErrRecordNotFound = apperr.New(apperr.KindNotFound, "no attendance record for this day")
	ErrInvalidStatus  = apperr.New(apperr.KindValidation, "invalid attendance status")
)
