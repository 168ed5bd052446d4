package hour

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestMapWriteErrUniqueViolation(t *testing.T) {
	wrapped := fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"})
	if err := mapWriteErr(wrapped); !errors.Is(err, ErrDuplicateDate) {
		t.Fatalf("expected ErrDuplicateDate, got %v", err)
	}
	other := &pgconn.PgError{Code: "23503"}
	if err := mapWriteErr(other); err != other {
		t.Fatalf("expected other codes unchanged, got %v", err)
	}
}
