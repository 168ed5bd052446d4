package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"hrops/internal/domain/attendance"
	"hrops/internal/domain/leave"
	"hrops/internal/domain/user"
	"hrops/internal/platform/clock"
	"hrops/internal/platform/config"
	"hrops/internal/platform/jobs"
)

func memoryConfig() config.Config {
	return config.Config{
		Environment:           "test",
		Addr:                  ":0",
		ShutdownTimeout:       time.Second,
		StoreBackend:          config.BackendMemory,
		DBMaxConns:            1,
		AttendanceRunHour:     1,
		PendingExpiryInterval: 12 * time.Hour,
		PendingMaxAge:         168 * time.Hour,
		OpsToken:              "s3cret",
	}
}

func newTestApp(t *testing.T, clk clock.Clock) *App {
	t.Helper()
	app, err := New(context.Background(), memoryConfig(), clk)
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	t.Cleanup(app.Close)
	return app
}

func TestHealthAndReady(t *testing.T) {
	app := newTestApp(t, clock.NewFixed(time.Date(2025, 1, 12, 9, 0, 0, 0, time.UTC)))

	for _, path := range []string{"/healthz", "/readyz"} {
		rec := httptest.NewRecorder()
		app.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", path, rec.Code)
		}
		if rec.Header().Get("X-Request-ID") == "" {
			t.Fatalf("%s: expected request id header", path)
		}
	}
}

func TestOpsRequiresToken(t *testing.T) {
	app := newTestApp(t, clock.NewFixed(time.Date(2025, 1, 12, 9, 0, 0, 0, time.UTC)))

	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/ops/jobs/pending_expiry/run", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/ops/jobs/pending_expiry/run", nil)
	req.Header.Set("Authorization", "Bearer s3cret")
	rec = httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestApprovedLeaveReachesAttendance(t *testing.T) {
	clk := clock.NewFixed(time.Date(2025, 1, 12, 9, 0, 0, 0, time.UTC))
	app := newTestApp(t, clk)
	app.Memory.PutUser(user.New("u1", "Ana", "ana@example.com"))
	app.Memory.PutUser(user.New("u2", "Ben", "ben@example.com"))
	ctx := context.Background()

	req, err := app.Leaves.Submit(ctx, "u1", leave.SubmitInput{
		StartDate: time.Date(2025, 1, 13, 0, 0, 0, 0, time.UTC),
		DayType:   leave.FullDay,
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if _, err := app.Leaves.Approve(ctx, req.ID); err != nil {
		t.Fatalf("approve: %v", err)
	}

	clk.Set(time.Date(2025, 1, 13, 1, 0, 0, 0, time.UTC))
	if _, err := app.Jobs.RunNow(ctx, jobs.JobAttendance); err != nil {
		t.Fatalf("run attendance: %v", err)
	}

	onLeave, err := app.Attendance.Today(ctx, "u1")
	if err != nil {
		t.Fatalf("today u1: %v", err)
	}
	if onLeave.Status != attendance.StatusAnnualLeave {
		t.Fatalf("expected Annual_Leave, got %s", onLeave.Status)
	}
	present, err := app.Attendance.Today(ctx, "u2")
	if err != nil {
		t.Fatalf("today u2: %v", err)
	}
	if present.Status != attendance.StatusPresent {
		t.Fatalf("expected Present, got %s", present.Status)
	}

	statuses := app.Memory.JobRuns().Statuses(jobs.JobAttendance)
	if len(statuses) != 1 || statuses[0] != jobs.StatusCompleted {
		t.Fatalf("expected one completed run, got %v", statuses)
	}
}
