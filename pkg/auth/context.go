package auth

import (
	"context"
	"errors"
)

type contextKey string

const userContextKey contextKey = "auth.user"

// UserContext is the authenticated caller attached to a request context.
type UserContext struct {
	UserID string
	Email  string
	Role   string
}

// WithUser returns a context carrying the authenticated user.
func WithUser(ctx context.Context, user UserContext) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// GetUserFromContext extracts the authenticated user from the context.
func GetUserFromContext(ctx context.Context) (UserContext, error) {
	user, ok := ctx.Value(userContextKey).(UserContext)
	if !ok {
		return UserContext{}, errors.New("no authenticated user in context")
	}
	return user, nil
}
