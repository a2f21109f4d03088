package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"paperledger/internal/domain"
)

// MockItemRepo is a mock implementation of port.ItemRepository.
type MockItemRepo struct {
	mock.Mock
}

func (m *MockItemRepo) ListByDocument(ctx context.Context, docID int64) ([]domain.Item, error) {
	args := m.Called(ctx, docID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Item), args.Error(1)
}
