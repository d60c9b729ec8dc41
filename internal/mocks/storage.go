package mocks

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"

	"github.com/dtroode/accounts-server/internal/model"
)

// Storage is a mock type for the model.Storage type.
type Storage struct {
	mock.Mock
}

var _ model.Storage = (*Storage)(nil)

// Upload provides a mock function with given fields: ctx, key, contentType, reader, size
func (_m *Storage) Upload(ctx context.Context, key, contentType string, reader io.Reader, size int64) error {
	ret := _m.Called(ctx, key, contentType, reader, size)
	return ret.Error(0)
}

// Download provides a mock function with given fields: ctx, key
func (_m *Storage) Download(ctx context.Context, key string) (model.Object, error) {
	ret := _m.Called(ctx, key)

	var r0 model.Object
	if v, ok := ret.Get(0).(model.Object); ok {
		r0 = v
	}
	return r0, ret.Error(1)
}

// Delete provides a mock function with given fields: ctx, key
func (_m *Storage) Delete(ctx context.Context, key string) error {
	ret := _m.Called(ctx, key)
	return ret.Error(0)
}

// Exists provides a mock function with given fields: ctx, key
func (_m *Storage) Exists(ctx context.Context, key string) (bool, error) {
	ret := _m.Called(ctx, key)
	return ret.Bool(0), ret.Error(1)
}

// NewStorage creates a new instance of Storage. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
func NewStorage(t interface {
	mock.TestingT
	Cleanup(func())
}) *Storage {
	m := &Storage{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}
