package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"hrops/internal/transport/http/api"
)

// OpsToken requires "Authorization: Bearer <token>". An empty token disables
// the guarded routes entirely.
func OpsToken(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqID := GetRequestID(r.Context())
			if token == "" {
				api.Fail(w, http.StatusNotFound, "not_found", "ops endpoints are disabled", reqID)
				return
			}
			parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				api.Fail(w, http.StatusUnauthorized, "unauthorized", "missing bearer token", reqID)
				return
			}
			if subtle.ConstantTimeCompare([]byte(parts[1]), []byte(token)) != 1 {
				api.Fail(w, http.StatusForbidden, "forbidden", "invalid ops token", reqID)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
