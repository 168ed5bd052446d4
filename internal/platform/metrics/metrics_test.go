package metrics

import (
	"testing"
	"time"
)

func TestRecordCountsErrors(t *testing.T) {
	c := New()
	c.Record(200, 10*time.Millisecond)
	c.Record(503, 30*time.Millisecond)

	snap := c.Snapshot()
	if snap["requestsTotal"].(uint64) != 2 {
		t.Fatalf("expected 2 requests, got %v", snap["requestsTotal"])
	}
	if snap["errorsTotal"].(uint64) != 1 {
		t.Fatalf("expected 1 error, got %v", snap["errorsTotal"])
	}
	if snap["avgDurationMs"].(float64) != 20 {
		t.Fatalf("expected avg 20ms, got %v", snap["avgDurationMs"])
	}
}

func TestRecordJob(t *testing.T) {
	c := New()
	c.RecordJob("attendance", "completed", time.Second)
	c.RecordJob("attendance", "skipped", 0)
	c.RecordJob("attendance", "failed", 2*time.Second)

	jobs := c.Snapshot()["jobs"].(map[string]jobStats)
	st := jobs["attendance"]
	if st.Runs != 2 || st.Failures != 1 || st.Skipped != 1 {
		t.Fatalf("unexpected stats %+v", st)
	}
	if st.LastStatus != "failed" || st.LastDurationMs != 2000 {
		t.Fatalf("unexpected last run %+v", st)
	}
}
