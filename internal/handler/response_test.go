package handler_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"paperledger/internal/domain"
	"paperledger/internal/handler"
)

func TestMapDomainError(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{domain.ErrDocumentNotFound, http.StatusNotFound, "DOCUMENT_NOT_FOUND"},
		{fmt.Errorf("documentRepo.GetByID: %w", domain.ErrDocumentNotFound), http.StatusNotFound, "DOCUMENT_NOT_FOUND"},
		{domain.ErrUnauthorized, http.StatusUnauthorized, "UNAUTHORIZED"},
		{domain.ErrNoSourceFile, http.StatusBadRequest, "NO_SOURCE_FILE"},
		{domain.ErrSourceFileMissing, http.StatusBadRequest, "SOURCE_FILE_MISSING"},
		{domain.ErrDocumentBusy, http.StatusConflict, "DOCUMENT_BUSY"},
		{domain.ErrQueueStopped, http.StatusServiceUnavailable, "QUEUE_STOPPED"},
		{domain.NewPipelineError(domain.StepOCR, errors.New("no text extracted")), http.StatusBadGateway, "EXTRACTION_FAILED"},
		{errors.New("boom"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			status, code, _ := handler.MapDomainError(tt.err)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.code, code)
		})
	}
}
