package mongo

import (
	"errors"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/dtroode/accounts-server/internal/model"
)

// Ordered so that longer names are tried before names they contain.
var indexFields = []struct {
	index string
	field string
}{
	{index: indexFederatedID, field: model.FieldFederatedID},
	{index: indexUsername, field: model.FieldUsername},
	{index: indexEmail, field: model.FieldEmail},
}

// mapError translates driver errors into model errors.
func mapError(op string, err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return model.ErrNotFound
	}

	if mongo.IsDuplicateKeyError(err) {
		return &model.ConflictError{Field: conflictField(err.Error())}
	}

	if mongo.IsTimeout(err) || mongo.IsNetworkError(err) || errors.Is(err, mongo.ErrClientDisconnected) {
		return fmt.Errorf("failed to %s: %w: %w", op, model.ErrUnavailable, err)
	}

	return fmt.Errorf("failed to %s: %w", op, err)
}

// conflictField reads the index name out of an E11000 message, which looks
// like "... index: email_1 dup key: { ... }".
func conflictField(msg string) string {
	for _, f := range indexFields {
		if strings.Contains(msg, "index: "+f.index+" ") {
			return f.field
		}
	}
	return ""
}
