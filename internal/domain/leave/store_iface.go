package leave

import (
	"context"
	"time"
)

type StoreAPI interface {
	Create(ctx context.Context, r LeaveRequest) (LeaveRequest, error)
	// Update and Delete only touch a request that is still pending; false
	// means it was not.
	Update(ctx context.Context, r LeaveRequest) (bool, error)
	Delete(ctx context.Context, id string) (bool, error)
	FindByID(ctx context.Context, id string) (LeaveRequest, error)
	FindByUserID(ctx context.Context, userID string) ([]LeaveRequest, error)
	FindByStatus(ctx context.Context, status Status) ([]LeaveRequest, error)
	// FindOverlapping returns the user's pending and approved requests sharing
	// a day with [start, end], except excludeID.
	FindOverlapping(ctx context.Context, userID string, start, end time.Time, excludeID string) ([]LeaveRequest, error)
	FindApprovedOn(ctx context.Context, day time.Time) ([]LeaveRequest, error)
	FindPendingCreatedBefore(ctx context.Context, cutoff time.Time) ([]LeaveRequest, error)
	Count(ctx context.Context, status Status) (int, error)
	// Settle approves a request atomically with the owner's balance write.
	Settle(ctx context.Context, id string, decide SettleFunc) (LeaveRequest, error)
	TransitionFromPending(ctx context.Context, id string, to Status) (bool, error)
}
