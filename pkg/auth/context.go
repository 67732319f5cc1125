package auth

import (
	"context"
)

type contextKey string

// ContextKeyUserID is the context key for the authenticated user ID.
const ContextKeyUserID contextKey = "user_id"

// WithUserID adds the user ID to the context.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, ContextKeyUserID, userID)
}

// UserIDFromContext retrieves the user ID from the context.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(ContextKeyUserID).(string)
	return id, ok
}
