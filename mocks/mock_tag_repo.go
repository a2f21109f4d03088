package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"paperledger/internal/domain"
)

// MockTagRepo is a mock implementation of port.TagRepository.
type MockTagRepo struct {
	mock.Mock
}

func (m *MockTagRepo) ListByUser(ctx context.Context, userID int64) ([]domain.Tag, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Tag), args.Error(1)
}

func (m *MockTagRepo) ListByDocument(ctx context.Context, docID int64) ([]domain.Tag, error) {
	args := m.Called(ctx, docID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Tag), args.Error(1)
}
