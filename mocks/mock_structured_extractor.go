package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockStructuredExtractor is a mock implementation of port.StructuredExtractor.
type MockStructuredExtractor struct {
	mock.Mock
}

func (m *MockStructuredExtractor) Extract(ctx context.Context, ocrText string, tagNames []string) (string, error) {
	args := m.Called(ctx, ocrText, tagNames)
	return args.String(0), args.Error(1)
}

func (m *MockStructuredExtractor) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockStructuredExtractor) Model() string {
	args := m.Called()
	return args.String(0)
}
