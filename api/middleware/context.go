package middleware

import (
	"context"

	"github.com/teelab/storefront/pkg/auth"
)

type contextKey string

const ctxSession contextKey = "session"

// SessionFromContext returns the acting-user session, zero when anonymous.
func SessionFromContext(ctx context.Context) auth.Session {
	if ctx == nil {
		return auth.Session{}
	}
	if v, ok := ctx.Value(ctxSession).(auth.Session); ok {
		return v
	}
	return auth.Session{}
}

// WithSession injects the acting-user session into the context.
func WithSession(ctx context.Context, sess auth.Session) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxSession, sess)
}
