package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"hrops/internal/domain/apperr"
)

type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type Envelope struct {
	Success   bool   `json:"success"`
	Data      any    `json:"data,omitempty"`
	Error     *Error `json:"error,omitempty"`
	RequestID string `json:"requestId,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, payload Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Warn("write json failed", "err", err)
	}
}

func Success(w http.ResponseWriter, data any, requestID string) {
	WriteJSON(w, http.StatusOK, Envelope{Success: true, Data: data, RequestID: requestID})
}

func Created(w http.ResponseWriter, data any, requestID string) {
	WriteJSON(w, http.StatusCreated, Envelope{Success: true, Data: data, RequestID: requestID})
}

func Fail(w http.ResponseWriter, status int, code, message, requestID string) {
	WriteJSON(w, status, Envelope{Success: false, Error: &Error{Code: code, Message: message}, RequestID: requestID})
}

// FailErr maps err to a status code by its apperr kind. Internal and
// persistence failures are logged and reported without detail.
func FailErr(w http.ResponseWriter, err error, requestID string) {
	kind := apperr.KindOf(err)
	status, ok := kindStatus[kind]
	if !ok {
		status = http.StatusInternalServerError
	}
	if status >= http.StatusInternalServerError {
		slog.Warn("request failed", "err", err, "requestId", requestID)
		Fail(w, status, string(kind), "internal error", requestID)
		return
	}
	var appErr *apperr.Error
	message := err.Error()
	if errors.As(err, &appErr) && appErr.Message != "" {
		message = appErr.Message
	}
	Fail(w, status, string(kind), message, requestID)
}

var kindStatus = map[apperr.Kind]int{
	apperr.KindNotFound:    http.StatusNotFound,
	apperr.KindValidation:  http.StatusUnprocessableEntity,
	apperr.KindForbidden:   http.StatusForbidden,
	apperr.KindBadRequest:  http.StatusBadRequest,
	apperr.KindConflict:    http.StatusConflict,
	apperr.KindPersistence: http.StatusServiceUnavailable,
	apperr.KindInternal:    http.StatusInternalServerError,
}
