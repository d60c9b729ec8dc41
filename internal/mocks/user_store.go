package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/dtroode/accounts-server/internal/model"
)

// UserStore is a mock type for the model.UserStore type.
type UserStore struct {
	mock.Mock
}

var _ model.UserStore = (*UserStore)(nil)

// Create provides a mock function with given fields: ctx, user
func (_m *UserStore) Create(ctx context.Context, user model.User) (model.User, error) {
	ret := _m.Called(ctx, user)
	if rf, ok := ret.Get(0).(func(context.Context, model.User) (model.User, error)); ok {
		return rf(ctx, user)
	}
	return userOf(ret)
}

// GetByID provides a mock function with given fields: ctx, id
func (_m *UserStore) GetByID(ctx context.Context, id uuid.UUID) (model.User, error) {
	ret := _m.Called(ctx, id)
	return userOf(ret)
}

// GetByEmail provides a mock function with given fields: ctx, email
func (_m *UserStore) GetByEmail(ctx context.Context, email string) (model.User, error) {
	ret := _m.Called(ctx, email)
	return userOf(ret)
}

// GetByUsername provides a mock function with given fields: ctx, username
func (_m *UserStore) GetByUsername(ctx context.Context, username string) (model.User, error) {
	ret := _m.Called(ctx, username)
	return userOf(ret)
}

// GetByFederatedID provides a mock function with given fields: ctx, federatedID
func (_m *UserStore) GetByFederatedID(ctx context.Context, federatedID string) (model.User, error) {
	ret := _m.Called(ctx, federatedID)
	return userOf(ret)
}

// LinkFederatedID provides a mock function with given fields: ctx, id, federatedID
func (_m *UserStore) LinkFederatedID(ctx context.Context, id uuid.UUID, federatedID string) (model.User, error) {
	ret := _m.Called(ctx, id, federatedID)
	return userOf(ret)
}

// SetProfilePic provides a mock function with given fields: ctx, id, profilePic
func (_m *UserStore) SetProfilePic(ctx context.Context, id uuid.UUID, profilePic string) (model.User, error) {
	ret := _m.Called(ctx, id, profilePic)
	return userOf(ret)
}

// Ping provides a mock function with given fields: ctx
func (_m *UserStore) Ping(ctx context.Context) error {
	ret := _m.Called(ctx)
	return ret.Error(0)
}

// NewUserStore creates a new instance of UserStore. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
func NewUserStore(t interface {
	mock.TestingT
	Cleanup(func())
}) *UserStore {
	m := &UserStore{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}
