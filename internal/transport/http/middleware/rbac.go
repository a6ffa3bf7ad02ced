package middleware

import (
	"errors"
	"net/http"

	"holidayhub/internal/domain/auth"
	"holidayhub/internal/transport/http/api"
)

func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := GetUser(r.Context()); !ok {
			failUnauthenticated(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func RequireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := GetUser(r.Context())
			if !ok {
				failUnauthenticated(w, r)
				return
			}
			if user.Role != role {
				api.Fail(w, http.StatusForbidden, "forbidden", role+" role required", GetRequestID(r.Context()))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func failUnauthenticated(w http.ResponseWriter, r *http.Request) {
	if errors.Is(authError(r.Context()), auth.ErrSessionExpired) {
		api.Fail(w, http.StatusUnauthorized, "session_expired", "session expired", GetRequestID(r.Context()))
		return
	}
	api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", GetRequestID(r.Context()))
}
