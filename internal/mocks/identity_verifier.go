package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/dtroode/accounts-server/internal/model"
)

// IdentityVerifier is a mock type for the model.IdentityVerifier type.
type IdentityVerifier struct {
	mock.Mock
}

var _ model.IdentityVerifier = (*IdentityVerifier)(nil)

// Verify provides a mock function with given fields: ctx, rawAssertion
func (_m *IdentityVerifier) Verify(ctx context.Context, rawAssertion string) (model.FederatedClaims, error) {
	ret := _m.Called(ctx, rawAssertion)

	var r0 model.FederatedClaims
	if v, ok := ret.Get(0).(model.FederatedClaims); ok {
		r0 = v
	}
	return r0, ret.Error(1)
}

// NewIdentityVerifier creates a new instance of IdentityVerifier. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
func NewIdentityVerifier(t interface {
	mock.TestingT
	Cleanup(func())
}) *IdentityVerifier {
	m := &IdentityVerifier{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}
