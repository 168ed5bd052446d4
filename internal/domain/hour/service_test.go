package hour_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"hrops/internal/domain/apperr"
	"hrops/internal/domain/hour"
	"hrops/internal/domain/user"
	"hrops/internal/platform/clock"
	"hrops/internal/platform/memstore"
)

var now = time.Date(2025, 1, 12, 9, 0, 0, 0, time.UTC)

func day(d int) time.Time {
	return time.Date(2025, 1, d, 0, 0, 0, 0, time.UTC)
}

func setup(t *testing.T, hours string) (*hour.Service, *memstore.DB, *clock.Fixed) {
	t.Helper()
	clk := clock.NewFixed(now)
	db := memstore.New(clk)
	u := user.New("u1", "Dana", "dana@example.com")
	u.MonthlyHourBalance = decimal.RequireFromString(hours)
	db.PutUser(u)
	db.PutUser(user.New("u2", "Sami", "sami@example.com"))
	return hour.NewService(db.Hours(), db.Users(), clk, nil), db, clk
}

func hourBalance(t *testing.T, db *memstore.DB, id string) decimal.Decimal {
	t.Helper()
	u, err := db.Users().FindByID(context.Background(), id)
	if err != nil {
		t.Fatalf("load user: %v", err)
	}
	return u.MonthlyHourBalance
}

func TestSubmitInsufficientHours(t *testing.T) {
	svc, _, _ := setup(t, "2")
	_, err := svc.Submit(context.Background(), "u1", hour.SubmitInput{Date: day(13), RequestedHours: 3})
	if !errors.Is(err, hour.ErrInsufficientBalance) || !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected insufficient hour balance, got %v", err)
	}
}

func TestSubmitHoursRange(t *testing.T) {
	svc, _, _ := setup(t, "3")
	ctx := context.Background()
	for _, hours := range []int{0, 4, -1} {
		if _, err := svc.Submit(ctx, "u1", hour.SubmitInput{Date: day(13), RequestedHours: hours}); !errors.Is(err, hour.ErrHoursOutOfRange) {
			t.Fatalf("hours %d: expected out of range, got %v", hours, err)
		}
	}
	if _, err := svc.Submit(ctx, "u1", hour.SubmitInput{Date: day(13), RequestedHours: 3}); err != nil {
		t.Fatalf("expected 3 of 3 hours to pass, got %v", err)
	}
}

func TestSubmitDateRules(t *testing.T) {
	svc, _, _ := setup(t, "3")
	ctx := context.Background()
	if _, err := svc.Submit(ctx, "u1", hour.SubmitInput{Date: day(11), RequestedHours: 1}); !errors.Is(err, hour.ErrDateInPast) {
		t.Fatalf("expected past date error, got %v", err)
	}
	if _, err := svc.Submit(ctx, "u1", hour.SubmitInput{Date: day(12), RequestedHours: 1}); err != nil {
		t.Fatalf("expected today to pass, got %v", err)
	}
	_, err := svc.Submit(ctx, "u1", hour.SubmitInput{Date: time.Date(2025, 1, 12, 15, 0, 0, 0, time.UTC), RequestedHours: 1})
	if !errors.Is(err, hour.ErrDuplicateDate) || !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("expected duplicate date conflict, got %v", err)
	}
	if _, err := svc.Submit(ctx, "u2", hour.SubmitInput{Date: day(12), RequestedHours: 1}); err != nil {
		t.Fatalf("other user on same date: %v", err)
	}
	if _, err := svc.Submit(ctx, "u1", hour.SubmitInput{RequestedHours: 1}); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected missing date to fail validation, got %v", err)
	}
}

func TestRejectedFreesDate(t *testing.T) {
	svc, _, _ := setup(t, "3")
	ctx := context.Background()
	req, err := svc.Submit(ctx, "u1", hour.SubmitInput{Date: day(13), RequestedHours: 1})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if _, err := svc.Reject(ctx, req.ID); err != nil {
		t.Fatalf("reject: %v", err)
	}
	if _, err := svc.Submit(ctx, "u1", hour.SubmitInput{Date: day(13), RequestedHours: 2}); err != nil {
		t.Fatalf("expected resubmission after reject, got %v", err)
	}
}

func TestApproveDeductsHours(t *testing.T) {
	svc, db, _ := setup(t, "2.5")
	ctx := context.Background()
	req, err := svc.Submit(ctx, "u1", hour.SubmitInput{Date: day(13), RequestedHours: 2})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	approved, err := svc.Approve(ctx, req.ID)
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if approved.Status != hour.StatusApproved {
		t.Fatalf("expected approved, got %s", approved.Status)
	}
	if got := hourBalance(t, db, "u1"); !got.Equal(decimal.RequireFromString("0.5")) {
		t.Fatalf("expected 0.5 hours left, got %s", got)
	}
	if _, err := svc.Approve(ctx, req.ID); !errors.Is(err, hour.ErrAlreadyProcessed) {
		t.Fatalf("expected already processed, got %v", err)
	}
	if got := hourBalance(t, db, "u1"); !got.Equal(decimal.RequireFromString("0.5")) {
		t.Fatalf("expected balance deducted once, got %s", got)
	}
}

func TestConcurrentHourApprovals(t *testing.T) {
	svc, db, _ := setup(t, "3")
	ctx := context.Background()
	a, err := svc.Submit(ctx, "u1", hour.SubmitInput{Date: day(13), RequestedHours: 2})
	if err != nil {
		t.Fatalf("submit a: %v", err)
	}
	b, err := svc.Submit(ctx, "u1", hour.SubmitInput{Date: day(14), RequestedHours: 2})
	if err != nil {
		t.Fatalf("submit b: %v", err)
	}

	var wg sync.WaitGroup
	results := make(chan error, 2)
	for _, id := range []string{a.ID, b.ID} {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			_, err := svc.Approve(ctx, id)
			results <- err
		}(id)
	}
	wg.Wait()
	close(results)

	ok := 0
	for err := range results {
		if err == nil {
			ok++
		} else if !errors.Is(err, hour.ErrInsufficientBalance) {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if ok != 1 {
		t.Fatalf("expected one approval, got %d", ok)
	}
	if got := hourBalance(t, db, "u1"); !got.Equal(decimal.NewFromInt(1)) {
		t.Fatalf("expected 1 hour left, got %s", got)
	}
}

func TestHourUpdateAndDelete(t *testing.T) {
	svc, db, _ := setup(t, "3")
	ctx := context.Background()
	req, err := svc.Submit(ctx, "u1", hour.SubmitInput{Date: day(13), RequestedHours: 1})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if _, err := svc.Submit(ctx, "u1", hour.SubmitInput{Date: day(14), RequestedHours: 1}); err != nil {
		t.Fatalf("submit: %v", err)
	}

	hours := 2
	if _, err := svc.Update(ctx, "u2", req.ID, hour.Patch{RequestedHours: &hours}); !errors.Is(err, hour.ErrNotOwner) {
		t.Fatalf("expected forbidden, got %v", err)
	}
	updated, err := svc.Update(ctx, "u1", req.ID, hour.Patch{RequestedHours: &hours})
	if err != nil {
		t.Fatalf("update on same date: %v", err)
	}
	if updated.RequestedHours != 2 || !updated.Date.Equal(day(13)) {
		t.Fatalf("unexpected update %+v", updated)
	}
	moved := day(14)
	if _, err := svc.Update(ctx, "u1", req.ID, hour.Patch{Date: &moved}); !errors.Is(err, hour.ErrDuplicateDate) {
		t.Fatalf("expected duplicate date on move, got %v", err)
	}

	if err := svc.DeleteOwn(ctx, "u2", req.ID); !errors.Is(err, hour.ErrNotOwner) {
		t.Fatalf("expected forbidden delete, got %v", err)
	}
	if err := svc.DeleteOwn(ctx, "u1", req.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := db.Hours().FindByID(ctx, req.ID); !errors.Is(err, hour.ErrRequestNotFound) {
		t.Fatalf("expected deleted request gone, got %v", err)
	}
}

func TestHourReadsAndExpire(t *testing.T) {
	svc, _, clk := setup(t, "3")
	ctx := context.Background()
	old, err := svc.Submit(ctx, "u1", hour.SubmitInput{Date: day(20), RequestedHours: 1})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	clk.Advance(8 * 24 * time.Hour)
	if _, err := svc.Submit(ctx, "u2", hour.SubmitInput{Date: day(21), RequestedHours: 1}); err != nil {
		t.Fatalf("submit: %v", err)
	}

	if n, err := svc.PendingCount(ctx); err != nil || n != 2 {
		t.Fatalf("expected 2 pending, got %d (%v)", n, err)
	}
	ids, err := svc.StalePending(ctx, clk.Now().Add(-7*24*time.Hour))
	if err != nil || len(ids) != 1 || ids[0] != old.ID {
		t.Fatalf("expected only old request stale, got %v (%v)", ids, err)
	}
	if ok, err := svc.Expire(ctx, old.ID); err != nil || !ok {
		t.Fatalf("expire: %v %v", ok, err)
	}
	pending, err := svc.PendingRequests(ctx)
	if err != nil || len(pending) != 1 {
		t.Fatalf("expected 1 pending after expiry, got %d (%v)", len(pending), err)
	}
	mine, err := svc.RequestsForUser(ctx, "u1")
	if err != nil || len(mine) != 1 || mine[0].Status != hour.StatusRejected {
		t.Fatalf("expected expired request rejected, got %+v (%v)", mine, err)
	}
}
