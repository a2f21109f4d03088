package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"paperledger/internal/domain"
)

// MockPipelineService is a mock implementation of service.PipelineService.
type MockPipelineService struct {
	mock.Mock
}

func (m *MockPipelineService) Process(ctx context.Context, docID int64) (*domain.Document, error) {
	args := m.Called(ctx, docID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Document), args.Error(1)
}

func (m *MockPipelineService) Reprocess(ctx context.Context, docID, userID int64) (*domain.Document, error) {
	args := m.Called(ctx, docID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Document), args.Error(1)
}

func (m *MockPipelineService) GetStatus(ctx context.Context, docID, userID int64) (*domain.Document, error) {
	args := m.Called(ctx, docID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Document), args.Error(1)
}

func (m *MockPipelineService) RecordFailure(ctx context.Context, docID int64, cause error) {
	m.Called(ctx, docID, cause)
}
