package leave

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"hrops/internal/domain/apperr"
	"hrops/internal/domain/datecalc"
	"hrops/internal/domain/events"
	"hrops/internal/domain/user"
	"hrops/internal/platform/clock"
	"hrops/internal/platform/validate"
)

// Service is the only path that changes leave request status or the annual
// leave balance.
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

// Submit validates in against the user's current state and stores it as
// pending. The balance check here is advisory; Approve re-checks it.
func (s *Service) Submit(ctx context.Context, userID string, in SubmitInput) (LeaveRequest, error) {
	owner, err := s.loadUser(ctx, userID)
	if err != nil {
		return LeaveRequest{}, err
	}
	req, err := s.prepare(ctx, owner, in, "")
	if err != nil {
		return LeaveRequest{}, err
	}
	req.UserID = owner.ID
	req.Status = StatusPending

	created, err := s.store.Create(ctx, req)
	if err != nil {
		return LeaveRequest{}, apperr.Persistence("create leave request", err)
	}
	events.Emit(ctx, s.events, events.New(events.LeaveSubmitted, created.ID, created.UserID, s.clock.Now()))
	return created, nil
}

// Update re-runs the submit pipeline over the merged fields of a pending
// request owned by userID.
func (s *Service) Update(ctx context.Context, userID, requestID string, patch Patch) (LeaveRequest, error) {
	existing, err := s.ownedPending(ctx, userID, requestID)
	if err != nil {
		return LeaveRequest{}, err
	}
	owner, err := s.loadUser(ctx, userID)
	if err != nil {
		return LeaveRequest{}, err
	}
	next, err := s.prepare(ctx, owner, patch.Apply(existing), existing.ID)
	if err != nil {
		return LeaveRequest{}, err
	}
	next.ID = existing.ID
	next.UserID = existing.UserID
	next.Status = StatusPending
	next.CreatedAt = existing.CreatedAt

	ok, err := s.store.Update(ctx, next)
	if err != nil {
		return LeaveRequest{}, apperr.Persistence("update leave request", err)
	}
	if !ok {
		return LeaveRequest{}, ErrNotPending
	}
	next.UpdatedAt = s.clock.Now()
	return next, nil
}

// Approve deducts the requested days and marks the request approved in one
// store transaction. The balance is checked against its value under lock.
func (s *Service) Approve(ctx context.Context, requestID string) (LeaveRequest, error) {
	approved, err := s.store.Settle(ctx, requestID, func(req LeaveRequest, balance decimal.Decimal) (decimal.Decimal, error) {
		if req.Status != StatusPending {
			return decimal.Zero, ErrAlreadyProcessed
		}
		if err := s.validator.ValidateBalance(req.RequestedDays, balance); err != nil {
			return decimal.Zero, err
		}
		return balance.Sub(req.RequestedDays), nil
	})
	if err != nil {
		return LeaveRequest{}, apperr.Persistence("approve leave request", err)
	}
	events.Emit(ctx, s.events, events.New(events.LeaveApproved, approved.ID, approved.UserID, s.clock.Now()))
	return approved, nil
}

func (s *Service) Reject(ctx context.Context, requestID string) (LeaveRequest, error) {
	req, err := s.store.FindByID(ctx, requestID)
	if err != nil {
		return LeaveRequest{}, apperr.Persistence("find leave request", err)
	}
	if req.Status != StatusPending {
		return LeaveRequest{}, ErrAlreadyProcessed
	}
	ok, err := s.store.TransitionFromPending(ctx, requestID, StatusRejected)
	if err != nil {
		return LeaveRequest{}, apperr.Persistence("reject leave request", err)
	}
	if !ok {
		return LeaveRequest{}, ErrAlreadyProcessed
	}
	req.Status = StatusRejected
	events.Emit(ctx, s.events, events.New(events.LeaveRejected, req.ID, req.UserID, s.clock.Now()))
	return req, nil
}

func (s *Service) DeleteOwn(ctx context.Context, userID, requestID string) error {
	if _, err := s.ownedPending(ctx, userID, requestID); err != nil {
		return err
	}
	ok, err := s.store.Delete(ctx, requestID)
	if err != nil {
		return apperr.Persistence("delete leave request", err)
	}
	if !ok {
		return ErrNotPending
	}
	return nil
}

func (s *Service) PendingRequests(ctx context.Context) ([]LeaveRequest, error) {
	out, err := s.store.FindByStatus(ctx, StatusPending)
	if err != nil {
		return nil, apperr.Persistence("list pending leave requests", err)
	}
	return out, nil
}

func (s *Service) RequestsForUser(ctx context.Context, userID string) ([]LeaveRequest, error) {
	if _, err := s.loadUser(ctx, userID); err != nil {
		return nil, err
	}
	out, err := s.store.FindByUserID(ctx, userID)
	if err != nil {
		return nil, apperr.Persistence("list user leave requests", err)
	}
	return out, nil
}

func (s *Service) PendingCount(ctx context.Context) (int, error) {
	n, err := s.store.Count(ctx, StatusPending)
	if err != nil {
		return 0, apperr.Persistence("count pending leave requests", err)
	}
	return n, nil
}

// Kind names this source in expiry summaries.
func (s *Service) Kind() string { return "leave" }

// StalePending lists pending requests created before cutoff.
func (s *Service) StalePending(ctx context.Context, cutoff time.Time) ([]string, error) {
	reqs, err := s.store.FindPendingCreatedBefore(ctx, cutoff)
	if err != nil {
		return nil, apperr.Persistence("list stale leave requests", err)
	}
	ids := make([]string, 0, len(reqs))
	for _, r := range reqs {
		ids = append(ids, r.ID)
	}
	return ids, nil
}

// Expire rejects a request that is still pending. It reports false when the
// request was decided in the meantime.
func (s *Service) Expire(ctx context.Context, requestID string) (bool, error) {
	req, err := s.store.FindByID(ctx, requestID)
	if err != nil {
		return false, apperr.Persistence("find leave request", err)
	}
	if req.Status != StatusPending {
		return false, nil
	}
	ok, err := s.store.TransitionFromPending(ctx, requestID, StatusRejected)
	if err != nil {
		return false, apperr.Persistence("expire leave request", err)
	}
	if ok {
		events.Emit(ctx, s.events, events.New(events.LeaveExpired, req.ID, req.UserID, s.clock.Now()))
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

func (s *Service) ownedPending(ctx context.Context, userID, requestID string) (LeaveRequest, error) {
	req, err := s.store.FindByID(ctx, requestID)
	if err != nil {
		return LeaveRequest{}, apperr.Persistence("find leave request", err)
	}
	if req.UserID != userID {
		return LeaveRequest{}, ErrNotOwner
	}
	if req.Status != StatusPending {
		return LeaveRequest{}, ErrNotPending
	}
	return req, nil
}

// prepare normalizes in, applies the date and balance rules and returns the
// request fields to persist.
func (s *Service) prepare(ctx context.Context, owner user.User, in SubmitInput, excludeID string) (LeaveRequest, error) {
	in.Reason = strings.TrimSpace(in.Reason)
	if err := validate.Struct(in); err != nil {
		return LeaveRequest{}, err
	}
	dayType := in.DayType
	if dayType == "" {
		dayType = FullDay
	}
	start := datecalc.Normalize(in.StartDate)
	end := start
	if !in.EndDate.IsZero() {
		end = datecalc.Normalize(in.EndDate)
	}

	if err := s.validator.ValidateDates(ctx, owner.ID, start, end, dayType, excludeID); err != nil {
		return LeaveRequest{}, err
	}
	days := RequestedDays(start, end, dayType)
	if err := s.validator.ValidateBalance(days, owner.AnnualLeaveBalance); err != nil {
		return LeaveRequest{}, err
	}
	return LeaveRequest{
		StartDate:     start,
		EndDate:       end,
		DayType:       dayType,
		RequestedDays: days,
		Reason:        in.Reason,
	}, nil
}
