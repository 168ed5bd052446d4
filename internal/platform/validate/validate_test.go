package validate

import (
	"errors"
	"testing"

	"hrops/internal/domain/apperr"
)

type sample struct {
	Reason  string `validate:"omitempty,min=5,max=500"`
	DayType string `validate:"omitempty,oneof=FULL_DAY HALF_DAY"`
	UserID  string `validate:"required"`
}

func TestStructPasses(t *testing.T) {
	if err := Struct(sample{UserID: "u1"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestStructReportsFirstField(t *testing.T) {
	err := Struct(sample{UserID: "u1", Reason: "abc"})
	if !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if err.Error() != "reason must be at least 5 characters" {
		t.Fatalf("unexpected message %q", err.Error())
	}

	err = Struct(sample{UserID: "u1", DayType: "MORNING"})
	if err == nil || err.Error() != "dayType must be one of: FULL_DAY, HALF_DAY" {
		t.Fatalf("unexpected error %v", err)
	}

	err = Struct(sample{})
	if err == nil || err.Error() != "userID is required" {
		t.Fatalf("unexpected error %v", err)
	}
}
