package auth

import (
	"encoding/json"
	"errors"
	"net/http"
)

// Middleware authenticates every request with authn and attaches the
// resulting identity to the request context. Requests that fail
// authentication get a 401 with a JSON error body. Internal authenticator
// errors get a 500.
//
// Usage:
//
//	mux.Handle("/tenants/", auth.Middleware(authn)(adminHandler))
func Middleware(authn Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			req := RequestFromHTTP(r)
			if !authn.Supports(r.Context(), req) {
				writeAuthError(w, http.StatusUnauthorized, ErrMissingCredentials)
				return
			}

			result, err := authn.Authenticate(r.Context(), req)
			if err != nil {
				writeAuthError(w, http.StatusInternalServerError, errors.New("auth: authenticator unavailable"))
				return
			}
			if !result.Authenticated {
				cause := result.Error
				if cause == nil {
					cause = ErrInvalidCredentials
				}
				writeAuthError(w, http.StatusUnauthorized, cause)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), result.Identity)))
		})
	}
}

// StatusFor maps an authorization error to an HTTP status.
func StatusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrMissingCredentials), errors.Is(err, ErrInvalidCredentials),
		errors.Is(err, ErrTokenExpired), errors.Is(err, ErrTokenMalformed):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

func writeAuthError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	if status == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", `Bearer realm="fragcache"`)
	}
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
