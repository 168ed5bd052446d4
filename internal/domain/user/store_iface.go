package user

import (
	"context"

	"github.com/shopspring/decimal"
)

// StoreAPI is the balance ledger. Balance writes are only issued by the
// approval transactions of the leave and hour services.
type StoreAPI interface {
	FindByID(ctx context.Context, id string) (User, error)
	FindAll(ctx context.Context) ([]User, error)
	UpdateAnnualLeaveBalance(ctx context.Context, id string, value decimal.Decimal) error
	UpdateMonthlyHourBalance(ctx context.Context, id string, value decimal.Decimal) error
}
