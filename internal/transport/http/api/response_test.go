package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"hrops/internal/domain/apperr"
)

func TestFailErrStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{apperr.New(apperr.KindNotFound, "request not found"), http.StatusNotFound},
		{fmt.Errorf("approve: %w", apperr.New(apperr.KindBadRequest, "request has already been processed")), http.StatusBadRequest},
		{apperr.New(apperr.KindValidation, "hours must be between 1 and 3"), http.StatusUnprocessableEntity},
		{apperr.New(apperr.KindConflict, "duplicate"), http.StatusConflict},
		{errors.New("plain"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		FailErr(rec, tc.err, "req-1")
		if rec.Code != tc.want {
			t.Fatalf("%v: expected %d, got %d", tc.err, tc.want, rec.Code)
		}
	}
}

func TestFailErrHidesInternalDetail(t *testing.T) {
	rec := httptest.NewRecorder()
	FailErr(rec, errors.New("dial tcp 10.0.0.1:5432: refused"), "req-2")

	var env Envelope
	if err := json.NewDecoder(rec.Body).Decode(&env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if env.Error == nil || env.Error.Message != "internal error" {
		t.Fatalf("expected generic message, got %+v", env.Error)
	}
	if env.RequestID != "req-2" {
		t.Fatalf("expected request id, got %q", env.RequestID)
	}
}

func TestFailErrUsesMessage(t *testing.T) {
	rec := httptest.NewRecorder()
	FailErr(rec, apperr.New(apperr.KindBadRequest, "only pending requests can be modified"), "")

	var env Envelope
	if err := json.NewDecoder(rec.Body).Decode(&env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if env.Error.Code != "bad_request" || env.Error.Message != "only pending requests can be modified" {
		t.Fatalf("unexpected error %+v", env.Error)
	}
}
