package attendance

import (
	"context"
	"time"
)

// StoreAPI keys every record by (userID, date).
type StoreAPI interface {
	Upsert(ctx context.Context, userID string, date time.Time, status Status) (Record, error)
	Find(ctx context.Context, userID string, date time.Time) (Record, error)
	// CreateIfAbsent writes a record only when none exists for the day and
	// reports whether it did.
	CreateIfAbsent(ctx context.Context, userID string, date time.Time, status Status) (bool, error)
}
