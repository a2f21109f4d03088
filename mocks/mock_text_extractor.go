package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"paperledger/internal/port"
)

// MockTextExtractor is a mock implementation of port.TextExtractor.
type MockTextExtractor struct {
	mock.Mock
}

func (m *MockTextExtractor) Extract(ctx context.Context, filePath string) (*port.OCRResult, error) {
	args := m.Called(ctx, filePath)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*port.OCRResult), args.Error(1)
}

func (m *MockTextExtractor) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
