package mongo

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/dtroode/accounts-server/internal/model"
)

func duplicateKey(index string) error {
	return mongo.WriteException{
		WriteErrors: mongo.WriteErrors{{
			Code:    11000,
			Message: "E11000 duplicate key error collection: accounts.users index: " + index + " dup key: { x: \"y\" }",
		}},
	}
}

func TestMapError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		err       error
		wantIs    error
		wantField string
	}{
		{name: "no documents", err: mongo.ErrNoDocuments, wantIs: model.ErrNotFound},
		{name: "duplicate email", err: duplicateKey(indexEmail), wantIs: model.ErrConflict, wantField: model.FieldEmail},
		{name: "duplicate username", err: duplicateKey(indexUsername), wantIs: model.ErrConflict, wantField: model.FieldUsername},
		{name: "duplicate federated id", err: duplicateKey(indexFederatedID), wantIs: model.ErrConflict, wantField: model.FieldFederatedID},
		{name: "duplicate unknown index", err: duplicateKey("other_1"), wantIs: model.ErrConflict},
		{name: "timeout", err: context.DeadlineExceeded, wantIs: model.ErrUnavailable},
		{name: "disconnected", err: mongo.ErrClientDisconnected, wantIs: model.ErrUnavailable},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := mapError("op", tt.err)
			require.ErrorIs(t, err, tt.wantIs)
			if errors.Is(tt.wantIs, model.ErrConflict) {
				field, ok := model.ConflictField(err)
				assert.True(t, ok)
				assert.Equal(t, tt.wantField, field)
			}
		})
	}
}

func TestMapError_Other(t *testing.T) {
	err := mapError("op", errors.New("boom"))
	assert.EqualError(t, err, "failed to op: boom")
	assert.NotErrorIs(t, err, model.ErrUnavailable)
}
