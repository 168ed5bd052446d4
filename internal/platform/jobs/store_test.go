package jobs

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"hrops/internal/platform/db/dbtest"
)

func TestPostgresRunLifecycle(t *testing.T) {
	pool := dbtest.Open(t)
	ctx := context.Background()
	store := NewStore(pool)

	id, err := store.CreateRun(ctx, JobPendingExpiry, time.Now().UTC())
	if err != nil {
		t.Fatalf("create run: %v", err)
	}
	details, _ := json.Marshal(map[string]any{"result": map[string]int{"expired": 2}})
	if err := store.FinishRun(ctx, id, StatusCompleted, details, time.Now().UTC()); err != nil {
		t.Fatalf("finish run: %v", err)
	}

	var status string
	var expired int
	var completed *time.Time
	err = pool.QueryRow(ctx, `
    SELECT status, (details_json->'result'->>'expired')::int, completed_at
    FROM job_runs WHERE id = $1
  `, id).Scan(&status, &expired, &completed)
	if err != nil {
		t.Fatalf("load run: %v", err)
	}
	if status != StatusCompleted || expired != 2 || completed == nil {
		t.Fatalf("unexpected run status=%s expired=%d completed=%v", status, expired, completed)
	}
}
