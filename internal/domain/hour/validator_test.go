package hour

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestValidateBalance(t *testing.T) {
	v := &Validator{}
	cases := []struct {
		hours     int
		available string
		want      error
	}{
		{1, "3", nil},
		{3, "3", nil},
		{3, "2", ErrInsufficientBalance},
		{2, "1.5", ErrInsufficientBalance},
		{0, "3", ErrHoursOutOfRange},
		{4, "10", ErrHoursOutOfRange},
	}
	for _, tc := range cases {
		if got := v.ValidateBalance(tc.hours, decimal.RequireFromString(tc.available)); got != tc.want {
			t.Fatalf("%d hours on %s: expected %v, got %v", tc.hours, tc.available, tc.want, got)
		}
	}
}
