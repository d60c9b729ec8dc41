package model

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUser_Public(t *testing.T) {
	hash := "$2a$04$abc"
	u := User{Username: "alice", PasswordHash: &hash}

	pub := u.Public()
	assert.Nil(t, pub.PasswordHash)
	assert.Equal(t, "alice", pub.Username)
	assert.NotNil(t, u.PasswordHash)
}

func TestUser_CredentialFlags(t *testing.T) {
	empty := ""
	fid := "uid-1"

	assert.False(t, User{}.HasPassword())
	assert.False(t, User{PasswordHash: &empty}.HasPassword())
	assert.False(t, User{}.HasFederatedID())
	assert.True(t, User{FederatedID: &fid}.HasFederatedID())
}

func TestConflictField(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		err       error
		wantField string
		wantOK    bool
	}{
		{name: "typed", err: &ConflictError{Field: FieldEmail}, wantField: FieldEmail, wantOK: true},
		{name: "wrapped", err: fmt.Errorf("create: %w", &ConflictError{Field: FieldUsername}), wantField: FieldUsername, wantOK: true},
		{name: "sentinel", err: ErrConflict, wantField: "", wantOK: true},
		{name: "other", err: errors.New("boom"), wantOK: false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			field, ok := ConflictField(tt.err)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantField, field)
		})
	}

	assert.ErrorIs(t, &ConflictError{Field: FieldEmail}, ErrConflict)
}
