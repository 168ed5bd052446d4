package metrics

import (
	"sync"
	"sync/atomic"
	"time"
)

type Collector struct {
	totalRequests   uint64
	errorRequests   uint64
	totalDurationMs uint64

	mu   sync.Mutex
	jobs map[string]*jobStats
}

type jobStats struct {
	Runs           uint64 `json:"runs"`
	Failures       uint64 `json:"failures"`
	Skipped        uint64 `json:"skipped"`
	LastStatus     string `json:"lastStatus"`
	LastDurationMs int64  `json:"lastDurationMs"`
}

func New() *Collector {
	return &Collector{jobs: make(map[string]*jobStats)}
}

func (c *Collector) Record(status int, duration time.Duration) {
	atomic.AddUint64(&c.totalRequests, 1)
	if status >= 500 {
		atomic.AddUint64(&c.errorRequests, 1)
	}
	atomic.AddUint64(&c.totalDurationMs, uint64(duration.Milliseconds()))
}

// RecordJob counts one sweep invocation. status is completed, failed or
// skipped.
func (c *Collector) RecordJob(name, status string, duration time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	st, ok := c.jobs[name]
	if !ok {
		st = &jobStats{}
		c.jobs[name] = st
	}
	switch status {
	case "skipped":
		st.Skipped++
		return
	case "failed":
		st.Failures++
	}
	st.Runs++
	st.LastStatus = status
	st.LastDurationMs = duration.Milliseconds()
}

func (c *Collector) Snapshot() map[string]any {
	total := atomic.LoadUint64(&c.totalRequests)
	errs := atomic.LoadUint64(&c.errorRequests)
	totalMs := atomic.LoadUint64(&c.totalDurationMs)
	avg := float64(0)
	if total > 0 {
		avg = float64(totalMs) / float64(total)
	}

	c.mu.Lock()
	jobs := make(map[string]jobStats, len(c.jobs))
	for name, st := range c.jobs {
		jobs[name] = *st
	}
	c.mu.Unlock()

	return map[string]any{
		"requestsTotal":   total,
		"errorsTotal":     errs,
		"avgDurationMs":   avg,
		"totalDurationMs": totalMs,
		"jobs":            jobs,
	}
}
