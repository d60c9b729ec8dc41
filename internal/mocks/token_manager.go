package mocks

import (
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/dtroode/accounts-server/internal/model"
)

// TokenManager is a mock type for the model.TokenManager type.
type TokenManager struct {
	mock.Mock
}

var _ model.TokenManager = (*TokenManager)(nil)

// Issue provides a mock function with given fields: subject, ttl
func (_m *TokenManager) Issue(subject string, ttl time.Duration) (model.AccessToken, error) {
	ret := _m.Called(subject, ttl)

	var r0 model.AccessToken
	if v, ok := ret.Get(0).(model.AccessToken); ok {
		r0 = v
	}
	return r0, ret.Error(1)
}

// Validate provides a mock function with given fields: token
func (_m *TokenManager) Validate(token string) (string, error) {
	ret := _m.Called(token)
	return ret.String(0), ret.Error(1)
}

// NewTokenManager creates a new instance of TokenManager. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
func NewTokenManager(t interface {
	mock.TestingT
	Cleanup(func())
}) *TokenManager {
	m := &TokenManager{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}
