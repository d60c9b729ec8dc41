package model

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// UserStore defines persistence operations for users.
//
// Implementations enforce uniqueness of email, username and federated id at
// write time and report violations as a *ConflictError.
type UserStore interface {
	Create(ctx context.Context, user User) (User, error)
	GetByID(ctx context.Context, id uuid.UUID) (User, error)
	GetByEmail(ctx context.Context, email string) (User, error)
	GetByUsername(ctx context.Context, username string) (User, error)
	GetByFederatedID(ctx context.Context, federatedID string) (User, error)
	// LinkFederatedID attaches federatedID to the user only if the user has
	// none yet. It returns the stored user after the call.
	LinkFederatedID(ctx context.Context, id uuid.UUID, federatedID string) (User, error)
	SetProfilePic(ctx context.Context, id uuid.UUID, profilePic string) (User, error)
	Ping(ctx context.Context) error
}

// Provider records how an account was first created.
type Provider string

const (
	// ProviderLocal is an account registered with a password.
	ProviderLocal Provider = "local"
	// ProviderFederated is an account created by a federated login.
	ProviderFederated Provider = "federated"
)

// User represents a stored user account.
type User struct {
	ID           uuid.UUID
	Email        string
	Username     string
	DisplayName  string
	PasswordHash *string
	FederatedID  *string
	Provider     Provider
	ProfilePic   *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// HasPassword reports whether the user can log in with a password.
func (u User) HasPassword() bool {
	return u.PasswordHash != nil && *u.PasswordHash != ""
}

// HasFederatedID reports whether a federated identity is linked.
func (u User) HasFederatedID() bool {
	return u.FederatedID != nil && *u.FederatedID != ""
}

// Public returns a copy of the user without credential material.
func (u User) Public() User {
	u.PasswordHash = nil
	return u
}
