package hour

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"hrops/internal/domain/apperr"
	"hrops/internal/domain/datecalc"
	"hrops/internal/domain/events"
	"hrops/internal/domain/user"
	"hrops/internal/platform/clock"
	"hrops/internal/platform/validate"
)

// balancePlaces is the precision hour balances are rounded to on approval.
const balancePlaces = 2

type Service struct {
	store     StoreAPI
	users     user.StoreAPI
	validator *Validator
	clock     clock.Clock
	events    events.Publisher
}

func NewService(store StoreAPI, users user.StoreAPI, clk clock.Clock, pub events.Publisher) *Service {
	if clk == nil {
		clk = clock.System
	}
	if pub == nil {
		pub = events.Nop{}
	}
	return &Service{
		store:     store,
		users:     users,
		validator: NewValidator(store, clk),
		clock:     clk,
		events:    pub,
	}
}

func (s *Service) Submit(ctx context.Context, userID string, in SubmitInput) (HourRequest, error) {
	owner, err := s.loadUser(ctx, userID)
	if err != nil {
		return HourRequest{}, err
	}
	req, err := s.prepare(ctx, owner, in, "")
	if err != nil {
		return HourRequest{}, err
	}
	req.UserID = owner.ID
	req.Status = StatusPending

	created, err := s.store.Create(ctx, req)
	if err != nil {
		return HourRequest{}, apperr.Persistence("create hour request", err)
	}
	events.Emit(ctx, s.events, events.New(events.HourSubmitted, created.ID, created.UserID, s.clock.Now()))
	return created, nil
}

func (s *Service) Update(ctx context.Context, userID, requestID string, patch Patch) (HourRequest, error) {
	existing, err := s.ownedPending(ctx, userID, requestID)
	if err != nil {
		return HourRequest{}, err
	}
	owner, err := s.loadUser(ctx, userID)
	if err != nil {
		return HourRequest{}, err
	}
	next, err := s.prepare(ctx, owner, patch.Apply(existing), existing.ID)
	if err != nil {
		return HourRequest{}, err
	}
	next.ID = existing.ID
	next.UserID = existing.UserID
	next.Status = StatusPending
	next.CreatedAt = existing.CreatedAt

	ok, err := s.store.Update(ctx, next)
	if err != nil {
		return HourRequest{}, apperr.Persistence("update hour request", err)
	}
	if !ok {
		return HourRequest{}, ErrNotPending
	}
	next.UpdatedAt = s.clock.Now()
	return next, nil
}

// Approve deducts the requested hours, rounded to two places, and marks the
// request approved in one store transaction.
func (s *Service) Approve(ctx context.Context, requestID string) (HourRequest, error) {
	approved, err := s.store.Settle(ctx, requestID, func(req HourRequest, balance decimal.Decimal) (decimal.Decimal, error) {
		if req.Status != StatusPending {
			return decimal.Zero, ErrAlreadyProcessed
		}
		if err := s.validator.ValidateBalance(req.RequestedHours, balance); err != nil {
			return decimal.Zero, err
		}
		return balance.Sub(decimal.NewFromInt(int64(req.RequestedHours))).Round(balancePlaces), nil
	})
	if err != nil {
		return HourRequest{}, apperr.Persistence("approve hour request", err)
	}
	events.Emit(ctx, s.events, events.New(events.HourApproved, approved.ID, approved.UserID, s.clock.Now()))
	return approved, nil
}

func (s *Service) Reject(ctx context.Context, requestID string) (HourRequest, error) {
	req, err := s.store.FindByID(ctx, requestID)
	if err != nil {
		return HourRequest{}, apperr.Persistence("find hour request", err)
	}
	if req.Status != StatusPending {
		return HourRequest{}, ErrAlreadyProcessed
	}
	ok, err := s.store.TransitionFromPending(ctx, requestID, StatusRejected)
	if err != nil {
		return HourRequest{}, apperr.Persistence("reject hour request", err)
	}
	if !ok {
		return HourRequest{}, ErrAlreadyProcessed
	}
	req.Status = StatusRejected
	events.Emit(ctx, s.events, events.New(events.HourRejected, req.ID, req.UserID, s.clock.Now()))
	return req, nil
}

func (s *Service) DeleteOwn(ctx context.Context, userID, requestID string) error {
	if _, err := s.ownedPending(ctx, userID, requestID); err != nil {
		return err
	}
	ok, err := s.store.Delete(ctx, requestID)
	if err != nil {
		return apperr.Persistence("delete hour request", err)
	}
	if !ok {
		return ErrNotPending
	}
	return nil
}

func (s *Service) PendingRequests(ctx context.Context) ([]HourRequest, error) {
	out, err := s.store.FindByStatus(ctx, StatusPending)
	if err != nil {
		return nil, apperr.Persistence("list pending hour requests", err)
	}
	return out, nil
}

func (s *Service) RequestsForUser(ctx context.Context, userID string) ([]HourRequest, error) {
	if _, err := s.loadUser(ctx, userID); err != nil {
		return nil, err
	}
	out, err := s.store.FindByUserID(ctx, userID)
	if err != nil {
		return nil, apperr.Persistence("list user hour requests", err)
	}
	return out, nil
}

func (s *Service) PendingCount(ctx context.Context) (int, error) {
	n, err := s.store.Count(ctx, StatusPending)
	if err != nil {
		return 0, apperr.Persistence("count pending hour requests", err)
	}
	return n, nil
}

func (s *Service) Kind() string { return "hour" }

func (s *Service) StalePending(ctx context.Context, cutoff time.Time) ([]string, error) {
	reqs, err := s.store.FindPendingCreatedBefore(ctx, cutoff)
	if err != nil {
		return nil, apperr.Persistence("list stale hour requests", err)
	}
	ids := make([]string, 0, len(reqs))
	for _, r := range reqs {
		ids = append(ids, r.ID)
	}
	return ids, nil
}

func (s *Service) Expire(ctx context.Context, requestID string) (bool, error) {
	req, err := s.store.FindByID(ctx, requestID)
	if err != nil {
		return false, apperr.Persistence("find hour request", err)
	}
	if req.Status != StatusPending {
		return false, nil
	}
	ok, err := s.store.TransitionFromPending(ctx, requestID, StatusRejected)
	if err != nil {
		return false, apperr.Persistence("expire hour request", err)
	}
	if ok {
		events.Emit(ctx, s.events, events.New(events.HourExpired, req.ID, req.UserID, s.clock.Now()))
	}
	return ok, nil
}

func (s *Service) loadUser(ctx context.Context, userID string) (user.User, error) {
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return user.User{}, apperr.Persistence("load user", err)
	}
	return u, nil
}

func (s *Service) ownedPending(ctx context.Context, userID, requestID string) (HourRequest, error) {
	req, err := s.store.FindByID(ctx, requestID)
	if err != nil {
		return HourRequest{}, apperr.Persistence("find hour request", err)
	}
	if req.UserID != userID {
		return HourRequest{}, ErrNotOwner
	}
	if req.Status != StatusPending {
		return HourRequest{}, ErrNotPending
	}
	return req, nil
}

func (s *Service) prepare(ctx context.Context, owner user.User, in SubmitInput, excludeID string) (HourRequest, error) {
	if err := validate.Struct(in); err != nil {
		return HourRequest{}, err
	}
	date := datecalc.Normalize(in.Date)
	if err := s.validator.ValidateDates(ctx, owner.ID, date, excludeID); err != nil {
		return HourRequest{}, err
	}
	if err := s.validator.ValidateBalance(in.RequestedHours, owner.MonthlyHourBalance); err != nil {
		return HourRequest{}, err
	}
	return HourRequest{Date: date, RequestedHours: in.RequestedHours}, nil
}
