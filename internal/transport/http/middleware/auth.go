package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"holidayhub/internal/domain/auth"
	"holidayhub/internal/domain/leave"
	"holidayhub/internal/domain/users"
)

const SessionCookie = "session_token"

type UserLookup interface {
	Get(ctx context.Context, id string) (users.User, error)
}

// Auth resolves the session token from the cookie or a bearer header.
// Requests without a usable token continue anonymously; RequireAuth decides.
func Auth(secret string, lookup UserLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := sessionToken(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := auth.ParseToken(secret, token)
			if err != nil {
				next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKeyAuthErr, err)))
				return
			}

			user, err := lookup.Get(r.Context(), claims.UserID)
			if err != nil {
				if !errors.Is(err, leave.ErrNotFound) {
					slog.Warn("session user lookup failed", "user_id", claims.UserID, "err", err)
				}
				next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKeyAuthErr, auth.ErrUnauthenticated)))
				return
			}

			ctx := WithUser(r.Context(), auth.Identity{
				ID:    user.ID,
				Name:  user.Name,
				Email: user.Email,
				Role:  user.Role,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func sessionToken(r *http.Request) string {
	if cookie, err := r.Cookie(SessionCookie); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	parts := strings.Fields(r.Header.Get("Authorization"))
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return ""
	}
	return parts[1]
}
