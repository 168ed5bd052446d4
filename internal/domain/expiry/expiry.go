// Package expiry rejects requests that stayed pending past a maximum age.
package expiry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"hrops/internal/platform/clock"
)

const DefaultMaxAge = 7 * 24 * time.Hour

// Source is one kind of request the expirer can sweep.
type Source interface {
	Kind() string
	StalePending(ctx context.Context, cutoff time.Time) ([]string, error)
	// Expire rejects the request if it is still pending and reports whether
	// it did.
	Expire(ctx context.Context, id string) (bool, error)
}

type Summary struct {
	Cutoff  time.Time      `json:"cutoff"`
	Expired map[string]int `json:"expired"`
	Skipped int            `json:"skipped"`
	Failed  int            `json:"failed"`
}

type Expirer struct {
	sources []Source
	maxAge  time.Duration
	clock   clock.Clock
}

func New(maxAge time.Duration, clk clock.Clock, sources ...Source) *Expirer {
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}
	if clk == nil {
		clk = clock.System
	}
	return &Expirer{sources: sources, maxAge: maxAge, clock: clk}
}

// Run expires every pending request created before now minus the max age.
// A failure on one request or source does not stop the others.
func (e *Expirer) Run(ctx context.Context) (Summary, error) {
	cutoff := e.clock.Now().Add(-e.maxAge)
	summary := Summary{Cutoff: cutoff, Expired: make(map[string]int, len(e.sources))}

	var failures []error
	for _, src := range e.sources {
		ids, err := src.StalePending(ctx, cutoff)
		if err != nil {
			slog.Warn("pending expiry scan failed", "kind", src.Kind(), "err", err)
			failures = append(failures, fmt.Errorf("%s: %w", src.Kind(), err))
			continue
		}
		for _, id := range ids {
			ok, err := src.Expire(ctx, id)
			if err != nil {
				slog.Warn("pending expiry failed", "kind", src.Kind(), "requestId", id, "err", err)
				failures = append(failures, fmt.Errorf("%s %s: %w", src.Kind(), id, err))
				summary.Failed++
				continue
			}
			if !ok {
				summary.Skipped++
				continue
			}
			summary.Expired[src.Kind()]++
		}
	}

	slog.Info("pending expiry finished", "cutoff", cutoff, "expired", summary.Expired, "skipped", summary.Skipped, "failed", summary.Failed)
	return summary, errors.Join(failures...)
}
