package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dtroode/accounts-server/internal/model"
)

const uniqueViolation = "23505"

var constraintFields = map[string]string{
	"users_email_key":        model.FieldEmail,
	"users_username_key":     model.FieldUsername,
	"users_federated_id_key": model.FieldFederatedID,
}

// mapError translates driver errors into model errors.
func mapError(op string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return model.ErrNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return &model.ConflictError{Field: constraintFields[pgErr.ConstraintName]}
	}

	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) ||
		pgconn.Timeout(err) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, driver.ErrBadConn) {
		return fmt.Errorf("failed to %s: %w: %w", op, model.ErrUnavailable, err)
	}

	return fmt.Errorf("failed to %s: %w", op, err)
}
