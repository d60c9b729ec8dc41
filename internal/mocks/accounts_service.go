package mocks

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"

	"github.com/dtroode/accounts-server/internal/model"
)

// AccountsService is a mock type for the handler.AccountsService type.
type AccountsService struct {
	mock.Mock
}

func userOf(ret mock.Arguments) (model.User, error) {
	var r0 model.User
	if v, ok := ret.Get(0).(model.User); ok {
		r0 = v
	}
	return r0, ret.Error(1)
}

func tokenOf(ret mock.Arguments) (model.AccessToken, error) {
	var r0 model.AccessToken
	if v, ok := ret.Get(0).(model.AccessToken); ok {
		r0 = v
	}
	return r0, ret.Error(1)
}

// Register provides a mock function with given fields: ctx, params
func (_m *AccountsService) Register(ctx context.Context, params model.RegisterParams) (model.User, error) {
	return userOf(_m.Called(ctx, params))
}

// LoginLocal provides a mock function with given fields: ctx, username, password
func (_m *AccountsService) LoginLocal(ctx context.Context, username, password string) (model.AccessToken, error) {
	return tokenOf(_m.Called(ctx, username, password))
}

// LoginFederated provides a mock function with given fields: ctx, rawAssertion
func (_m *AccountsService) LoginFederated(ctx context.Context, rawAssertion string) (model.AccessToken, error) {
	return tokenOf(_m.Called(ctx, rawAssertion))
}

// SetProfilePicture provides a mock function with given fields: ctx, user, contentType, r, size
func (_m *AccountsService) SetProfilePicture(ctx context.Context, user model.User, contentType string, r io.Reader, size int64) (model.User, error) {
	return userOf(_m.Called(ctx, user, contentType, r, size))
}

// ProfilePicture provides a mock function with given fields: ctx, user
func (_m *AccountsService) ProfilePicture(ctx context.Context, user model.User) (model.Object, error) {
	ret := _m.Called(ctx, user)

	var r0 model.Object
	if v, ok := ret.Get(0).(model.Object); ok {
		r0 = v
	}
	return r0, ret.Error(1)
}

// Health provides a mock function with given fields: ctx
func (_m *AccountsService) Health(ctx context.Context) error {
	return _m.Called(ctx).Error(0)
}

// NewAccountsService creates a new instance of AccountsService. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
func NewAccountsService(t interface {
	mock.TestingT
	Cleanup(func())
}) *AccountsService {
	m := &AccountsService{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

// Authenticator is a mock type for the middleware.Authenticator type.
type Authenticator struct {
	mock.Mock
}

// Authenticate provides a mock function with given fields: ctx, token
func (_m *Authenticator) Authenticate(ctx context.Context, token string) (model.User, error) {
	return userOf(_m.Called(ctx, token))
}

// NewAuthenticator creates a new instance of Authenticator. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
func NewAuthenticator(t interface {
	mock.TestingT
	Cleanup(func())
}) *Authenticator {
	m := &Authenticator{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}
