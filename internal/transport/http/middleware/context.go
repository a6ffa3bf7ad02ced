package middleware

import (
	"context"

	"holidayhub/internal/domain/auth"
)

type ctxKey int

const (
	ctxKeyUser ctxKey = iota
	ctxKeyAuthErr
	ctxKeyRequestID
)

func GetUser(ctx context.Context) (auth.Identity, bool) {
	user, ok := ctx.Value(ctxKeyUser).(auth.Identity)
	return user, ok
}

// WithUser is used by tests and the CLI to act as a known identity.
func WithUser(ctx context.Context, user auth.Identity) context.Context {
	return context.WithValue(ctx, ctxKeyUser, user)
}

func authError(ctx context.Context) error {
	err, _ := ctx.Value(ctxKeyAuthErr).(error)
	return err
}

func GetRequestID(ctx context.Context) string {
	if value, ok := ctx.Value(ctxKeyRequestID).(string); ok {
		return value
	}
	return ""
}
