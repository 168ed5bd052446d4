// Package dbtest opens the database named by TEST_DATABASE_URL for store
// tests and skips them when it is unset.
package dbtest

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"hrops/internal/domain/user"
	"hrops/internal/platform/config"
	"hrops/internal/platform/db"
)

func Open(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if strings.TrimSpace(dbURL) == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	pool, err := db.Connect(ctx, config.Config{DatabaseURL: dbURL, DBMaxConns: 4})
	if err != nil {
		t.Fatalf("db connect failed: %v", err)
	}
	t.Cleanup(pool.Close)

	if err := db.Migrate(ctx, pool); err != nil {
		t.Fatalf("migrations failed: %v", err)
	}
	return pool
}

// CreateUser inserts a user with a unique id and email and the given
// balances.
func CreateUser(t *testing.T, pool *pgxpool.Pool, leaveDays, hours int64) user.User {
	t.Helper()
	id := uuid.NewString()
	u := user.New(id, "Store Test", "store-"+id+"@example.com")
	u.AnnualLeaveBalance = decimal.NewFromInt(leaveDays)
	u.MonthlyHourBalance = decimal.NewFromInt(hours)
	if err := user.NewStore(pool).Create(context.Background(), u); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}
