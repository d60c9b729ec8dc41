// Package memory is a process-local UserStore. It enforces the same unique
// constraints as the database stores and is used for development and tests.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dtroode/accounts-server/internal/model"
)

var _ model.UserStore = (*UserRepository)(nil)

type UserRepository struct {
	mu          sync.RWMutex
	byID        map[uuid.UUID]model.User
	byEmail     map[string]uuid.UUID
	byUsername  map[string]uuid.UUID
	byFederated map[string]uuid.UUID
	now         func() time.Time
}

func NewUserRepository() *UserRepository {
	return &UserRepository{
		byID:        make(map[uuid.UUID]model.User),
		byEmail:     make(map[string]uuid.UUID),
		byUsername:  make(map[string]uuid.UUID),
		byFederated: make(map[string]uuid.UUID),
		now:         time.Now,
	}
}

func (r *UserRepository) Create(_ context.Context, user model.User) (model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byEmail[user.Email]; ok {
		return model.User{}, &model.ConflictError{Field: model.FieldEmail}
	}
	if _, ok := r.byUsername[user.Username]; ok {
		return model.User{}, &model.ConflictError{Field: model.FieldUsername}
	}
	if user.HasFederatedID() {
		if _, ok := r.byFederated[*user.FederatedID]; ok {
			return model.User{}, &model.ConflictError{Field: model.FieldFederatedID}
		}
	}
	if _, ok := r.byID[user.ID]; ok {
		return model.User{}, &model.ConflictError{}
	}

	user = clone(user)
	r.byID[user.ID] = user
	r.byEmail[user.Email] = user.ID
	r.byUsername[user.Username] = user.ID
	if user.HasFederatedID() {
		r.byFederated[*user.FederatedID] = user.ID
	}

	return clone(user), nil
}

func (r *UserRepository) GetByID(_ context.Context, id uuid.UUID) (model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.byID[id]
	if !ok {
		return model.User{}, model.ErrNotFound
	}
	return clone(user), nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (model.User, error) {
	return r.lookup(ctx, r.byEmail, email)
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (model.User, error) {
	return r.lookup(ctx, r.byUsername, username)
}

func (r *UserRepository) GetByFederatedID(ctx context.Context, federatedID string) (model.User, error) {
	return r.lookup(ctx, r.byFederated, federatedID)
}

func (r *UserRepository) lookup(_ context.Context, index map[string]uuid.UUID, key string) (model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := index[key]
	if !ok {
		return model.User{}, model.ErrNotFound
	}
	return clone(r.byID[id]), nil
}

func (r *UserRepository) LinkFederatedID(_ context.Context, id uuid.UUID, federatedID string) (model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.byID[id]
	if !ok {
		return model.User{}, model.ErrNotFound
	}
	if user.HasFederatedID() {
		return clone(user), nil
	}
	if _, taken := r.byFederated[federatedID]; taken {
		return model.User{}, &model.ConflictError{Field: model.FieldFederatedID}
	}

	user.FederatedID = &federatedID
	user.UpdatedAt = r.now().UTC()
	r.byID[id] = user
	r.byFederated[federatedID] = id

	return clone(user), nil
}

func (r *UserRepository) SetProfilePic(_ context.Context, id uuid.UUID, profilePic string) (model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.byID[id]
	if !ok {
		return model.User{}, model.ErrNotFound
	}

	user.ProfilePic = &profilePic
	user.UpdatedAt = r.now().UTC()
	r.byID[id] = user

	return clone(user), nil
}

func (r *UserRepository) Ping(context.Context) error {
	return nil
}

// clone copies pointer fields so callers cannot mutate stored state.
func clone(u model.User) model.User {
	u.PasswordHash = copyString(u.PasswordHash)
	u.FederatedID = copyString(u.FederatedID)
	u.ProfilePic = copyString(u.ProfilePic)
	return u
}

func copyString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
