package expiry_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"hrops/internal/domain/events"
	"hrops/internal/domain/expiry"
	"hrops/internal/domain/hour"
	"hrops/internal/domain/leave"
	"hrops/internal/domain/user"
	"hrops/internal/platform/clock"
	"hrops/internal/platform/memstore"
)

func TestExpirerRejectsStalePending(t *testing.T) {
	start := time.Date(2025, 1, 12, 9, 0, 0, 0, time.UTC)
	clk := clock.NewFixed(start)
	db := memstore.New(clk)
	db.PutUser(user.New("u1", "Dana", "dana@example.com"))
	rec := &events.Recorder{}
	leaves := leave.NewService(db.Leaves(), db.Users(), clk, rec)
	hours := hour.NewService(db.Hours(), db.Users(), clk, rec)
	ctx := context.Background()

	stale, err := leaves.Submit(ctx, "u1", leave.SubmitInput{StartDate: time.Date(2025, 2, 2, 0, 0, 0, 0, time.UTC)})
	if err != nil {
		t.Fatalf("submit leave: %v", err)
	}
	staleHour, err := hours.Submit(ctx, "u1", hour.SubmitInput{Date: time.Date(2025, 2, 3, 0, 0, 0, 0, time.UTC), RequestedHours: 1})
	if err != nil {
		t.Fatalf("submit hour: %v", err)
	}
	decided, err := leaves.Submit(ctx, "u1", leave.SubmitInput{StartDate: time.Date(2025, 2, 4, 0, 0, 0, 0, time.UTC)})
	if err != nil {
		t.Fatalf("submit leave: %v", err)
	}
	if _, err := leaves.Approve(ctx, decided.ID); err != nil {
		t.Fatalf("approve: %v", err)
	}

	clk.Advance(8 * 24 * time.Hour)
	fresh, err := leaves.Submit(ctx, "u1", leave.SubmitInput{StartDate: time.Date(2025, 2, 5, 0, 0, 0, 0, time.UTC)})
	if err != nil {
		t.Fatalf("submit fresh: %v", err)
	}

	before, _ := db.Users().FindByID(ctx, "u1")
	summary, err := expiry.New(7*24*time.Hour, clk, leaves, hours).Run(ctx)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if summary.Expired["leave"] != 1 || summary.Expired["hour"] != 1 {
		t.Fatalf("unexpected summary %+v", summary)
	}

	check := func(id string, want leave.Status) {
		t.Helper()
		got, err := db.Leaves().FindByID(ctx, id)
		if err != nil {
			t.Fatalf("find %s: %v", id, err)
		}
		if got.Status != want {
			t.Fatalf("%s: expected %s, got %s", id, want, got.Status)
		}
	}
	check(stale.ID, leave.StatusRejected)
	check(decided.ID, leave.StatusApproved)
	check(fresh.ID, leave.StatusPending)

	h, _ := db.Hours().FindByID(ctx, staleHour.ID)
	if h.Status != hour.StatusRejected {
		t.Fatalf("expected stale hour request rejected, got %s", h.Status)
	}

	after, _ := db.Users().FindByID(ctx, "u1")
	if !after.AnnualLeaveBalance.Equal(before.AnnualLeaveBalance) || !after.MonthlyHourBalance.Equal(before.MonthlyHourBalance) {
		t.Fatalf("expiry must not touch balances: before %+v after %+v", before, after)
	}
	if !after.AnnualLeaveBalance.Equal(decimal.NewFromInt(20)) {
		t.Fatalf("expected only the approved day deducted, got %s", after.AnnualLeaveBalance)
	}

	again, err := expiry.New(7*24*time.Hour, clk, leaves, hours).Run(ctx)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if again.Expired["leave"] != 0 || again.Expired["hour"] != 0 {
		t.Fatalf("expected nothing left to expire, got %+v", again)
	}
}

type failingSource struct{}

func (failingSource) Kind() string { return "broken" }

func (failingSource) StalePending(context.Context, time.Time) ([]string, error) {
	return []string{"a", "b"}, nil
}

func (failingSource) Expire(_ context.Context, id string) (bool, error) {
	if id == "a" {
		return false, errors.New("timeout")
	}
	return true, nil
}

func TestExpirerContinuesPastFailures(t *testing.T) {
	clk := clock.NewFixed(time.Date(2025, 1, 12, 0, 0, 0, 0, time.UTC))
	summary, err := expiry.New(0, clk, failingSource{}).Run(context.Background())
	if err == nil {
		t.Fatal("expected joined error")
	}
	if summary.Failed != 1 || summary.Expired["broken"] != 1 {
		t.Fatalf("unexpected summary %+v", summary)
	}
	if want := clk.Now().Add(-expiry.DefaultMaxAge); !summary.Cutoff.Equal(want) {
		t.Fatalf("expected default cutoff %v, got %v", want, summary.Cutoff)
	}
}
