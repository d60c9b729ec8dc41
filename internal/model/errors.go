package model

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound    = errors.New("not found")
	ErrConflict    = errors.New("unique constraint violation")
	ErrUnavailable = errors.New("store unavailable")
)

// Conflicting fields reported by stores.
const (
	FieldEmail       = "email"
	FieldUsername    = "username"
	FieldFederatedID = "federated_id"
)

// ConflictError reports which unique field rejected a write.
// Field is empty when the store could not tell.
type ConflictError struct {
	Field string
}

func (e *ConflictError) Error() string {
	if e.Field == "" {
		return ErrConflict.Error()
	}
	return fmt.Sprintf("%s: %s", ErrConflict.Error(), e.Field)
}

func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}

// ConflictField returns the conflicting field of err, if err is a conflict.
func ConflictField(err error) (string, bool) {
	var ce *ConflictError
	if errors.As(err, &ce) {
		return ce.Field, true
	}
	if errors.Is(err, ErrConflict) {
		return "", true
	}
	return "", false
}
