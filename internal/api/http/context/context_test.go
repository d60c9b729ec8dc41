package context

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/dtroode/accounts-server/internal/model"
)

func TestManager_RoundTrip(t *testing.T) {
	m := NewManager()
	user := model.User{ID: uuid.New(), Username: "alice"}

	ctx := m.SetUserToContext(context.Background(), user)
	got, ok := m.GetUserFromContext(ctx)

	assert.True(t, ok)
	assert.Equal(t, user, got)
}

func TestManager_Missing(t *testing.T) {
	m := NewManager()

	_, ok := m.GetUserFromContext(context.Background())
	assert.False(t, ok)
}
