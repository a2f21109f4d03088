package mocks

import "github.com/stretchr/testify/mock"

// MockSubmitter is a mock implementation of service.Submitter.
type MockSubmitter struct {
	mock.Mock
}

func (m *MockSubmitter) Enqueue(docID int64) error {
	args := m.Called(docID)
	return args.Error(0)
}
