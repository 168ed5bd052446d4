package ops

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"hrops/internal/platform/jobs"
	"hrops/internal/platform/metrics"
	"hrops/internal/transport/http/api"
	"hrops/internal/transport/http/middleware"
)

type JobRunner interface {
	RunNow(ctx context.Context, name string) (any, error)
	Names() []string
}

type PendingCounter interface {
	Kind() string
	PendingCount(ctx context.Context) (int, error)
}

type Handler struct {
	Jobs    JobRunner
	Metrics *metrics.Collector
	Pending []PendingCounter
}

func NewHandler(runner JobRunner, collector *metrics.Collector, pending ...PendingCounter) *Handler {
	return &Handler{Jobs: runner, Metrics: collector, Pending: pending}
}

// RegisterRoutes mounts the guarded routes on r. Callers wrap r with the
// ops token middleware.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/jobs", h.handleListJobs)
	r.Post("/jobs/{job}/run", h.handleRunJob)
	r.Get("/pending", h.handlePending)
}

func (h *Handler) HandleMetrics(w http.ResponseWriter, r *http.Request) {
	api.Success(w, h.Metrics.Snapshot(), middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleListJobs(w http.ResponseWriter, r *http.Request) {
	api.Success(w, h.Jobs.Names(), middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleRunJob(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	name := chi.URLParam(r, "job")
	details, err := h.Jobs.RunNow(r.Context(), name)
	switch {
	case errors.Is(err, jobs.ErrUnknownJob):
		api.Fail(w, http.StatusNotFound, "not_found", "unknown job", reqID)
		return
	case errors.Is(err, jobs.ErrAlreadyRunning):
		api.Fail(w, http.StatusConflict, "conflict", "job already running", reqID)
		return
	case err != nil:
		api.FailErr(w, err, reqID)
		return
	}
	api.Success(w, map[string]any{"job": name, "result": details}, reqID)
}

func (h *Handler) handlePending(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	out := make(map[string]int, len(h.Pending))
	for _, p := range h.Pending {
		n, err := p.PendingCount(r.Context())
		if err != nil {
			api.FailErr(w, err, reqID)
			return
		}
		out[p.Kind()] = n
	}
	api.Success(w, out, reqID)
}
