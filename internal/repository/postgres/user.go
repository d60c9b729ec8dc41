package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/dtroode/accounts-server/internal/model"
)

var _ model.UserStore = (*UserRepository)(nil)

const userColumns = `id, email, username, display_name, password_hash, federated_id, provider, profile_pic, created_at, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

type UserRepository struct {
	db Querier
}

func NewUserRepository(db Querier) *UserRepository {
	return &UserRepository{
		db: db,
	}
}

func scanUser(row scanner) (model.User, error) {
	var user model.User
	err := row.Scan(
		&user.ID, &user.Email, &user.Username, &user.DisplayName, &user.PasswordHash,
		&user.FederatedID, &user.Provider, &user.ProfilePic, &user.CreatedAt, &user.UpdatedAt,
	)
	return user, err
}

func (r *UserRepository) Create(ctx context.Context, user model.User) (model.User, error) {
	query := `INSERT INTO users (` + userColumns + `)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			  RETURNING ` + userColumns

	saved, err := scanUser(r.db.QueryRowContext(ctx, query,
		user.ID, user.Email, user.Username, user.DisplayName, user.PasswordHash,
		user.FederatedID, string(user.Provider), user.ProfilePic, user.CreatedAt, user.UpdatedAt,
	))
	if err != nil {
		return model.User{}, mapError("create user", err)
	}

	return saved, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (model.User, error) {
	return r.getBy(ctx, "id", id)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (model.User, error) {
	return r.getBy(ctx, "email", email)
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (model.User, error) {
	return r.getBy(ctx, "username", username)
}

func (r *UserRepository) GetByFederatedID(ctx context.Context, federatedID string) (model.User, error) {
	return r.getBy(ctx, "federated_id", federatedID)
}

// getBy is only called with column names defined in this file.
func (r *UserRepository) getBy(ctx context.Context, column string, value any) (model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE ` + column + ` = $1`

	user, err := scanUser(r.db.QueryRowContext(ctx, query, value))
	if err != nil {
		return model.User{}, mapError("get user by "+column, err)
	}

	return user, nil
}

func (r *UserRepository) LinkFederatedID(ctx context.Context, id uuid.UUID, federatedID string) (model.User, error) {
	query := `UPDATE users SET federated_id = $2, updated_at = now()
			  WHERE id = $1 AND federated_id IS NULL
			  RETURNING ` + userColumns

	user, err := scanUser(r.db.QueryRowContext(ctx, query, id, federatedID))
	if err == nil {
		return user, nil
	}

	mapped := mapError("link federated id", err)
	if errors.Is(mapped, model.ErrNotFound) {
		// Already linked, or gone.
		return r.GetByID(ctx, id)
	}

	return model.User{}, mapped
}

func (r *UserRepository) SetProfilePic(ctx context.Context, id uuid.UUID, profilePic string) (model.User, error) {
	query := `UPDATE users SET profile_pic = $2, updated_at = now()
			  WHERE id = $1
			  RETURNING ` + userColumns

	user, err := scanUser(r.db.QueryRowContext(ctx, query, id, profilePic))
	if err != nil {
		return model.User{}, mapError("set profile pic", err)
	}

	return user, nil
}

func (r *UserRepository) Ping(ctx context.Context) error {
	if err := r.db.PingContext(ctx); err != nil {
		return mapError("ping database", err)
	}
	return nil
}
