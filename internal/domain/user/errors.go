package user

import "hrops/internal/domain/apperr"

var ErrNotFound = apperr.New(apperr.KindNotFound, "user not found")
