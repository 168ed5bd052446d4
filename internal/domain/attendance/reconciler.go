package attendance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"hrops/internal/domain/datecalc"
	"hrops/internal/domain/user"
	"hrops/internal/platform/clock"
)

type Summary struct {
	Day       time.Time `json:"day"`
	Skipped   bool      `json:"skipped"`
	Users     int       `json:"users"`
	Stamped   int       `json:"stamped"`
	Present   int       `json:"present"`
	Untouched int       `json:"untouched"`
	Failed    int       `json:"failed"`
}

type UserLister interface {
	FindAll(ctx context.Context) ([]user.User, error)
}

// Reconciler derives each user's attendance for the current day. Processors
// run in order and the first one to claim a user wins; every unclaimed user
// without a record gets Present.
type Reconciler struct {
	store      StoreAPI
	users      UserLister
	processors []Processor
	clock      clock.Clock
}

func NewReconciler(store StoreAPI, users UserLister, clk clock.Clock, processors ...Processor) *Reconciler {
	if clk == nil {
		clk = clock.System
	}
	return &Reconciler{store: store, users: users, processors: processors, clock: clk}
}

// Run sweeps today. Failures for single users or processors are logged and
// counted without stopping the sweep; they are returned joined.
func (r *Reconciler) Run(ctx context.Context) (Summary, error) {
	day := datecalc.Today(r.clock.Now())
	summary := Summary{Day: day}
	if datecalc.IsRestDay(day) {
		summary.Skipped = true
		slog.Info("attendance sweep skipped on rest day", "day", day.Format(time.DateOnly))
		return summary, nil
	}

	users, err := r.users.FindAll(ctx)
	if err != nil {
		return summary, fmt.Errorf("list users: %w", err)
	}
	summary.Users = len(users)

	var failures []error
	processed := make(map[string]bool, len(users))
	for _, p := range r.processors {
		claims, err := p.Claims(ctx, day)
		if err != nil {
			slog.Warn("attendance processor failed", "processor", p.Name(), "err", err)
			failures = append(failures, fmt.Errorf("processor %s: %w", p.Name(), err))
			continue
		}
		for _, c := range claims {
			if processed[c.UserID] {
				continue
			}
			processed[c.UserID] = true
			if _, err := r.store.Upsert(ctx, c.UserID, day, c.Status); err != nil {
				slog.Warn("attendance upsert failed", "processor", p.Name(), "userId", c.UserID, "requestId", c.Source, "err", err)
				failures = append(failures, fmt.Errorf("user %s: %w", c.UserID, err))
				summary.Failed++
				continue
			}
			summary.Stamped++
		}
	}

	for _, u := range users {
		if processed[u.ID] {
			continue
		}
		created, err := r.store.CreateIfAbsent(ctx, u.ID, day, StatusPresent)
		if err != nil {
			slog.Warn("attendance default failed", "userId", u.ID, "err", err)
			failures = append(failures, fmt.Errorf("user %s: %w", u.ID, err))
			summary.Failed++
			continue
		}
		if created {
			summary.Present++
		} else {
			summary.Untouched++
		}
	}

	slog.Info("attendance sweep finished",
		"day", day.Format(time.DateOnly),
		"users", summary.Users,
		"stamped", summary.Stamped,
		"present", summary.Present,
		"untouched", summary.Untouched,
		"failed", summary.Failed,
	)
	return summary, errors.Join(failures...)
}
