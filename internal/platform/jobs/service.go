package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sort"
	"sync"
	"time"

	"hrops/internal/platform/metrics"
)

const (
	JobAttendance    = "attendance_reconcile"
	JobPendingExpiry = "pending_expiry"
	lockKeyPrefix    = "hrops:job:"
)

var (
	ErrAlreadyRunning = errors.New("job already running")
	ErrUnknownJob     = errors.New("unknown job")
)

type Func func(ctx context.Context) (any, error)

type Job struct {
	Name     string
	Schedule Schedule
	Run      Func
}

// Locker guards a job across processes. release must be called once the run
// is over.
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (release func(context.Context) error, ok bool, err error)
}

type Service struct {
	Runs    RunStore
	Locker  Locker
	LockTTL time.Duration
	Metrics *metrics.Collector

	mu   sync.Mutex
	jobs map[string]*entry
}

type entry struct {
	job     Job
	running sync.Mutex
}

func New(runs RunStore, locker Locker, lockTTL time.Duration, collector *metrics.Collector) *Service {
	return &Service{
		Runs:    runs,
		Locker:  locker,
		LockTTL: lockTTL,
		Metrics: collector,
		jobs:    make(map[string]*entry),
	}
}

func (s *Service) Register(j Job) {
	s.mu.Lock()
	s.jobs[j.Name] = &entry{job: j}
	s.mu.Unlock()
}

func (s *Service) Names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.jobs))
	for name := range s.jobs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Start launches one timer loop per scheduled job. Loops stop with ctx.
func (s *Service) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.jobs {
		if e.job.Schedule == nil {
			continue
		}
		go s.schedule(ctx, e)
	}
}

// RunNow runs a registered job immediately under the same guard as its
// scheduled firings.
func (s *Service) RunNow(ctx context.Context, name string) (any, error) {
	s.mu.Lock()
	e, ok := s.jobs[name]
	s.mu.Unlock()
	if !ok {
		return nil, ErrUnknownJob
	}
	return s.runJob(ctx, e)
}

func (s *Service) schedule(ctx context.Context, e *entry) {
	for {
		next := e.job.Schedule.Next(time.Now())
		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
		if _, err := s.runJob(ctx, e); err != nil {
			if errors.Is(err, ErrAlreadyRunning) {
				slog.Info("job firing skipped", "jobType", e.job.Name)
				continue
			}
			slog.Warn("job run failed", "jobType", e.job.Name, "err", err)
		}
	}
}

func (s *Service) runJob(ctx context.Context, e *entry) (any, error) {
	name := e.job.Name
	if !e.running.TryLock() {
		s.record(name, StatusSkipped, 0)
		return nil, ErrAlreadyRunning
	}
	defer e.running.Unlock()

	if s.Locker != nil {
		release, ok, err := s.Locker.TryLock(ctx, lockKeyPrefix+name, s.LockTTL)
		if err != nil {
			return nil, err
		}
		if !ok {
			s.record(name, StatusSkipped, 0)
			return nil, ErrAlreadyRunning
		}
		defer func() {
			if err := release(context.WithoutCancel(ctx)); err != nil {
				slog.Warn("job lock release failed", "jobType", name, "err", err)
			}
		}()
	}

	started := time.Now()
	runID := ""
	if s.Runs != nil {
		id, err := s.Runs.CreateRun(ctx, name, started.UTC())
		if err != nil {
			slog.Warn("job run insert failed", "jobType", name, "err", err)
		}
		runID = id
	}

	details, err := e.job.Run(ctx)
	status := StatusCompleted
	if err != nil {
		status = StatusFailed
	}
	s.record(name, status, time.Since(started))

	if runID != "" {
		detailsJSON, marshalErr := json.Marshal(runDetails(details, err))
		if marshalErr != nil {
			slog.Warn("job details marshal failed", "jobType", name, "err", marshalErr)
			detailsJSON = []byte("{}")
		}
		if updErr := s.Runs.FinishRun(context.WithoutCancel(ctx), runID, status, detailsJSON, time.Now().UTC()); updErr != nil {
			slog.Warn("job run update failed", "jobType", name, "err", updErr)
		}
	}
	return details, err
}

func (s *Service) record(name, status string, d time.Duration) {
	if s.Metrics != nil {
		s.Metrics.RecordJob(name, status, d)
	}
}

func runDetails(details any, err error) map[string]any {
	out := map[string]any{"result": details}
	if err != nil {
		out["error"] = err.Error()
	}
	return out
}
