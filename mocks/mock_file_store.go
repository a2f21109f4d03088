package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockFileStore is a mock implementation of port.FileStore.
type MockFileStore struct {
	mock.Mock
}

func (m *MockFileStore) Localize(ctx context.Context, ref string) (string, func(), error) {
	args := m.Called(ctx, ref)
	release, _ := args.Get(1).(func())
	if release == nil {
		release = func() {}
	}
	return args.String(0), release, args.Error(2)
}

func (m *MockFileStore) Exists(ctx context.Context, ref string) (bool, error) {
	args := m.Called(ctx, ref)
	return args.Bool(0), args.Error(1)
}
