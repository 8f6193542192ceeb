// Package auth provides bearer token verification, password hashing and
// the request-scoped identity used by the kittens API.
package auth

import (
	"context"

	"github.com/cyberkittens/kittens/internal/model"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const (
	// userContextKey is the context key for the authenticated user.
	userContextKey contextKey = "auth_user"
)

// ContextWithUser attaches the authenticated user to the context.
func ContextWithUser(ctx context.Context, user *model.User) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// UserFromContext retrieves the authenticated user from the context.
// Returns nil if the auth middleware has not run.
func UserFromContext(ctx context.Context) *model.User {
	user, ok := ctx.Value(userContextKey).(*model.User)
	if !ok {
		return nil
	}
	return user
}

// UserIDFromContext is a convenience function to get the user ID from context.
// Returns empty string if not authenticated.
func UserIDFromContext(ctx context.Context) string {
	user := UserFromContext(ctx)
	if user == nil {
		return ""
	}
	return user.ID
}

// IsOwner reports whether user owns kitten.
// A nil user or kitten never owns anything.
func IsOwner(user *model.User, kitten *model.Kitten) bool {
	if user == nil || kitten == nil || user.ID == "" {
		return false
	}
	return kitten.OwnerID == user.ID
}
