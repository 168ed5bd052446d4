package ops

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"hrops/internal/domain/apperr"
	"hrops/internal/platform/jobs"
	"hrops/internal/platform/metrics"
	"hrops/internal/transport/http/api"
)

type fakeRunner struct {
	err   error
	calls []string
}

func (f *fakeRunner) RunNow(_ context.Context, name string) (any, error) {
	f.calls = append(f.calls, name)
	if f.err != nil {
		return nil, f.err
	}
	return map[string]int{"expired": 2}, nil
}

func (f *fakeRunner) Names() []string { return []string{jobs.JobAttendance, jobs.JobPendingExpiry} }

type fakePending struct {
	kind string
	n    int
	err  error
}

func (f fakePending) Kind() string { return f.kind }

func (f fakePending) PendingCount(context.Context) (int, error) { return f.n, f.err }

func newRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Get("/metrics", h.HandleMetrics)
	r.Route("/ops", h.RegisterRoutes)
	return r
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) api.Envelope {
	t.Helper()
	var env api.Envelope
	if err := json.NewDecoder(rec.Body).Decode(&env); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	return env
}

func TestRunJob(t *testing.T) {
	runner := &fakeRunner{}
	router := newRouter(NewHandler(runner, metrics.New()))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/ops/jobs/pending_expiry/run", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if len(runner.calls) != 1 || runner.calls[0] != jobs.JobPendingExpiry {
		t.Fatalf("unexpected calls %v", runner.calls)
	}
	if env := decode(t, rec); !env.Success {
		t.Fatalf("expected success envelope, got %+v", env)
	}
}

func TestRunJobErrors(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{jobs.ErrUnknownJob, http.StatusNotFound},
		{jobs.ErrAlreadyRunning, http.StatusConflict},
		{apperr.Persistence("list users", errors.New("boom")), http.StatusServiceUnavailable},
	}
	for _, tc := range cases {
		router := newRouter(NewHandler(&fakeRunner{err: tc.err}, metrics.New()))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/ops/jobs/x/run", nil))
		if rec.Code != tc.want {
			t.Fatalf("%v: expected %d, got %d", tc.err, tc.want, rec.Code)
		}
		if env := decode(t, rec); env.Success || env.Error == nil {
			t.Fatalf("expected failure envelope, got %+v", env)
		}
	}
}

func TestPendingCounts(t *testing.T) {
	h := NewHandler(&fakeRunner{}, metrics.New(), fakePending{kind: "leave", n: 3}, fakePending{kind: "hour", n: 1})
	rec := httptest.NewRecorder()
	newRouter(h).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ops/pending", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body struct {
		Data map[string]int `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Data["leave"] != 3 || body.Data["hour"] != 1 {
		t.Fatalf("unexpected counts %v", body.Data)
	}
}

func TestMetricsSnapshot(t *testing.T) {
	collector := metrics.New()
	collector.RecordJob(jobs.JobAttendance, jobs.StatusCompleted, 0)
	rec := httptest.NewRecorder()
	newRouter(NewHandler(&fakeRunner{}, collector)).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body struct {
		Data struct {
			Jobs map[string]struct {
				Runs uint64 `json:"runs"`
			} `json:"jobs"`
		} `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Data.Jobs[jobs.JobAttendance].Runs != 1 {
		t.Fatalf("expected one attendance run, got %+v", body.Data.Jobs)
	}
}
