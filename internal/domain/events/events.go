// Package events describes the lifecycle notifications emitted after a
// request changes state.
package events

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

type Type string

const (
	LeaveSubmitted Type = "leave.submitted"
	LeaveApproved  Type = "leave.approved"
	LeaveRejected  Type = "leave.rejected"
	LeaveExpired   Type = "leave.expired"
	HourSubmitted  Type = "hour.submitted"
	HourApproved   Type = "hour.approved"
	HourRejected   Type = "hour.rejected"
	HourExpired    Type = "hour.expired"
)

type Event struct {
	ID         string    `json:"id"`
	Type       Type      `json:"type"`
	RequestID  string    `json:"requestId"`
	UserID     string    `json:"userId"`
	OccurredAt time.Time `json:"occurredAt"`
}

func New(t Type, requestID, userID string, at time.Time) Event {
	return Event{ID: uuid.NewString(), Type: t, RequestID: requestID, UserID: userID, OccurredAt: at.UTC()}
}

type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Nop drops every event.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }

// Emit publishes e and logs a failure instead of returning it; the state
// change that produced the event is already committed.
func Emit(ctx context.Context, p Publisher, e Event) {
	if p == nil {
		return
	}
	if err := p.Publish(ctx, e); err != nil {
		slog.Warn("event publish failed", "type", e.Type, "requestId", e.RequestID, "err", err)
	}
}

// Recorder keeps published events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Publish(_ context.Context, e Event) error {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
	return nil
}

func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// Types lists the recorded event types in publish order.
func (r *Recorder) Types() []Type {
	var out []Type
	for _, e := range r.Events() {
		out = append(out, e.Type)
	}
	return out
}
