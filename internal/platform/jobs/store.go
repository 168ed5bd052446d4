package jobs

import (
	"context"
	"time"

	"github.com/google/uuid"

	"hrops/internal/platform/querier"
)

const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
	StatusSkipped   = "skipped"
)

type RunStore interface {
	CreateRun(ctx context.Context, jobType string, startedAt time.Time) (string, error)
	FinishRun(ctx context.Context, id, status string, details []byte, completedAt time.Time) error
}

// Store records sweep runs in job_runs.
type Store struct {
	DB querier.Querier
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db}
}

func (s *Store) CreateRun(ctx context.Context, jobType string, startedAt time.Time) (string, error) {
	id := uuid.NewString()
	_, err := s.DB.Exec(ctx, `
    INSERT INTO job_runs (id, job_type, status, started_at)
    VALUES ($1,$2,$3,$4)
  `, id, jobType, StatusRunning, startedAt)
	if err != nil {
		return "", err
	}
	return id, nil
}

func (s *Store) FinishRun(ctx context.Context, id, status string, details []byte, completedAt time.Time) error {
	_, err := s.DB.Exec(ctx, `
    UPDATE job_runs
    SET status = $1, details_json = $2, completed_at = $3
    WHERE id = $4
  `, status, details, completedAt, id)
	return err
}
