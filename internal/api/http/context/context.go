package context

import (
	"context"

	"github.com/dtroode/accounts-server/internal/model"
)

type userKey struct{}

// Manager represents an HTTP request context manager for the authenticated user.
type Manager struct{}

var _ model.ContextManager = (*Manager)(nil)

// NewManager creates a new context manager instance.
//
// Returns a pointer to the newly created Manager instance.
func NewManager() *Manager {
	return &Manager{}
}

// SetUserToContext stores the authenticated user in the context.
//
// Parameters:
//   - ctx: The request context
//   - user: The user resolved from the bearer token
//
// Returns a new context carrying the user.
func (m *Manager) SetUserToContext(ctx context.Context, user model.User) context.Context {
	return context.WithValue(ctx, userKey{}, user)
}

// GetUserFromContext retrieves the authenticated user from the context.
//
// Returns the user and a boolean indicating if a user was found.
func (m *Manager) GetUserFromContext(ctx context.Context) (model.User, bool) {
	user, ok := ctx.Value(userKey{}).(model.User)
	return user, ok
}
