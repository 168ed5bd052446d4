package attendance

import (
	"context"

	"hrops/internal/domain/apperr"
	"hrops/internal/domain/datecalc"
	"hrops/internal/domain/user"
	"hrops/internal/platform/clock"
)

// Service records attendance marked by hand for the current day.
type Service struct {
	store StoreAPI
	users user.StoreAPI
	clock clock.Clock
}

func NewService(store StoreAPI, users user.StoreAPI, clk clock.Clock) *Service {
	if clk == nil {
		clk = clock.System
	}
	return &Service{store: store, users: users, clock: clk}
}

// Mark sets today's status for the user, replacing any earlier mark.
func (s *Service) Mark(ctx context.Context, userID string, status Status) (Record, error) {
	if !status.Valid() {
		return Record{}, ErrInvalidStatus
	}
	if _, err := s.users.FindByID(ctx, userID); err != nil {
		return Record{}, apperr.Persistence("load user", err)
	}
	rec, err := s.store.Upsert(ctx, userID, datecalc.Today(s.clock.Now()), status)
	if err != nil {
		return Record{}, apperr.Persistence("mark attendance", err)
	}
	return rec, nil
}

// Today returns the user's record for the current day.
func (s *Service) Today(ctx context.Context, userID string) (Record, error) {
	rec, err := s.store.Find(ctx, userID, datecalc.Today(s.clock.Now()))
	if err != nil {
		return Record{}, apperr.Persistence("find attendance", err)
	}
	return rec, nil
}
