package http

import (
	"context"

	"lendhub-backend/internal/domain"
)

type contextKey int

const callerKey contextKey = iota

func withCaller(ctx context.Context, user *domain.User) context.Context {
	return context.WithValue(ctx, callerKey, user)
}

// callerFrom returns the authenticated user placed in the context by the
// auth middleware.
func callerFrom(ctx context.Context) (*domain.User, bool) {
	user, ok := ctx.Value(callerKey).(*domain.User)
	return user, ok
}
