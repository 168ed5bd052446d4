package hour

import (
	"context"
	"time"
)

type StoreAPI interface {
	Create(ctx context.Context, r HourRequest) (HourRequest, error)
	Update(ctx context.Context, r HourRequest) (bool, error)
	Delete(ctx context.Context, id string) (bool, error)
	FindByID(ctx context.Context, id string) (HourRequest, error)
	FindByUserID(ctx context.Context, userID string) ([]HourRequest, error)
	FindByStatus(ctx context.Context, status Status) ([]HourRequest, error)
	// FindActiveByUserIDAndDate returns the user's request on date that is not
	// rejected, ignoring excludeID. ErrRequestNotFound when there is none.
	FindActiveByUserIDAndDate(ctx context.Context, userID string, date time.Time, excludeID string) (HourRequest, error)
	FindApprovedOn(ctx context.Context, day time.Time) ([]HourRequest, error)
	FindPendingCreatedBefore(ctx context.Context, cutoff time.Time) ([]HourRequest, error)
	Count(ctx context.Context, status Status) (int, error)
	Settle(ctx context.Context, id string, decide SettleFunc) (HourRequest, error)
	TransitionFromPending(ctx context.Context, id string, to Status) (bool, error)
}
