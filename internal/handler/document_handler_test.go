package handler_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"paperledger/internal/domain"
	"paperledger/internal/handler"
	"paperledger/internal/middleware"
	"paperledger/mocks"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newDocumentHandler() (*handler.DocumentHandler, *mocks.MockPipelineService, *mocks.MockSubmitter) {
	mockSvc := new(mocks.MockPipelineService)
	mockQueue := new(mocks.MockSubmitter)
	return handler.NewDocumentHandler(mockSvc, mockQueue), mockSvc, mockQueue
}

func newRequestContext(method string, docID string, userID int64) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(method, "/api/v1/documents/"+docID, http.NoBody)
	c.Params = gin.Params{{Key: "id", Value: docID}}
	if userID != 0 {
		c.Set(middleware.ContextKeyUserID, userID)
	}
	return c, w
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func strPtr(s string) *string { return &s }

func docWithStatus(id int64, status domain.ProcessingStatus) *domain.Document {
	return &domain.Document{
		ID:               id,
		UserID:           7,
		FilePath:         strPtr("receipts/" + strconv.FormatInt(id, 10) + ".jpg"),
		Currency:         "EUR",
		ProcessingStatus: status,
	}
}

func TestDocumentHandler_Get_Completed(t *testing.T) {
	h, mockSvc, _ := newDocumentHandler()
	doc := docWithStatus(1, domain.StatusCompleted)
	doc.Merchant = strPtr("Carrefour")
	doc.Items = []domain.Item{{Name: "Pain"}}
	mockSvc.On("GetStatus", mock.Anything, int64(1), int64(7)).Return(doc, nil)

	c, w := newRequestContext(http.MethodGet, "1", 7)
	h.Get(c)

	assert.Equal(t, http.StatusOK, w.Code)
	data := decodeResponse(t, w)["data"].(map[string]interface{})
	assert.Equal(t, "Carrefour", data["merchant"])
	assert.Len(t, data["items"], 1)
	mockSvc.AssertExpectations(t)
}

func TestDocumentHandler_Get_ErrorShowsReason(t *testing.T) {
	h, mockSvc, _ := newDocumentHandler()
	doc := docWithStatus(1, domain.StatusError)
	doc.ProcessingError = strPtr("ocr: OCR backend unreachable: connection refused")
	doc.Merchant = strPtr("stale")
	mockSvc.On("GetStatus", mock.Anything, int64(1), int64(7)).Return(doc, nil)

	c, w := newRequestContext(http.MethodGet, "1", 7)
	h.Get(c)

	assert.Equal(t, http.StatusOK, w.Code)
	data := decodeResponse(t, w)["data"].(map[string]interface{})
	assert.Equal(t, "error", data["processing_status"])
	assert.Equal(t, "ocr: OCR backend unreachable: connection refused", data["processing_error"])
	assert.NotContains(t, data, "merchant")
}

func TestDocumentHandler_Get_Pending(t *testing.T) {
	h, mockSvc, _ := newDocumentHandler()
	mockSvc.On("GetStatus", mock.Anything, int64(1), int64(7)).Return(docWithStatus(1, domain.StatusPending), nil)

	c, w := newRequestContext(http.MethodGet, "1", 7)
	h.Get(c)

	data := decodeResponse(t, w)["data"].(map[string]interface{})
	assert.Equal(t, "pending", data["processing_status"])
	assert.NotContains(t, data, "processing_error")
}

func TestDocumentHandler_Get_NotFound(t *testing.T) {
	h, mockSvc, _ := newDocumentHandler()
	mockSvc.On("GetStatus", mock.Anything, int64(1), int64(7)).Return(nil, domain.ErrDocumentNotFound)

	c, w := newRequestContext(http.MethodGet, "1", 7)
	h.Get(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
	errBody := decodeResponse(t, w)["error"].(map[string]interface{})
	assert.Equal(t, "DOCUMENT_NOT_FOUND", errBody["code"])
}

func TestDocumentHandler_Get_InvalidID(t *testing.T) {
	h, mockSvc, _ := newDocumentHandler()

	c, w := newRequestContext(http.MethodGet, "abc", 7)
	h.Get(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockSvc.AssertNotCalled(t, "GetStatus", mock.Anything, mock.Anything, mock.Anything)
}

func TestDocumentHandler_Get_Unauthenticated(t *testing.T) {
	h, _, _ := newDocumentHandler()

	c, w := newRequestContext(http.MethodGet, "1", 0)
	h.Get(c)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestDocumentHandler_Process_Enqueues(t *testing.T) {
	h, mockSvc, mockQueue := newDocumentHandler()
	mockSvc.On("GetStatus", mock.Anything, int64(3), int64(7)).Return(docWithStatus(3, domain.StatusPending), nil)
	mockQueue.On("Enqueue", int64(3)).Return(nil)

	c, w := newRequestContext(http.MethodPost, "3", 7)
	h.Process(c)

	assert.Equal(t, http.StatusAccepted, w.Code)
	data := decodeResponse(t, w)["data"].(map[string]interface{})
	assert.Equal(t, float64(3), data["id"])
	assert.Equal(t, true, data["queued"])
	mockQueue.AssertExpectations(t)
}

func TestDocumentHandler_Process_Busy(t *testing.T) {
	h, mockSvc, mockQueue := newDocumentHandler()
	mockSvc.On("GetStatus", mock.Anything, int64(3), int64(7)).Return(docWithStatus(3, domain.StatusProcessing), nil)

	c, w := newRequestContext(http.MethodPost, "3", 7)
	h.Process(c)

	assert.Equal(t, http.StatusConflict, w.Code)
	mockQueue.AssertNotCalled(t, "Enqueue", mock.Anything)
}

func TestDocumentHandler_Process_NoFile(t *testing.T) {
	h, mockSvc, mockQueue := newDocumentHandler()
	doc := docWithStatus(3, domain.StatusPending)
	doc.FilePath = nil
	mockSvc.On("GetStatus", mock.Anything, int64(3), int64(7)).Return(doc, nil)

	c, w := newRequestContext(http.MethodPost, "3", 7)
	h.Process(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockQueue.AssertNotCalled(t, "Enqueue", mock.Anything)
}

func TestDocumentHandler_Process_QueueStopped(t *testing.T) {
	h, mockSvc, mockQueue := newDocumentHandler()
	mockSvc.On("GetStatus", mock.Anything, int64(3), int64(7)).Return(docWithStatus(3, domain.StatusError), nil)
	mockQueue.On("Enqueue", int64(3)).Return(domain.ErrQueueStopped)

	c, w := newRequestContext(http.MethodPost, "3", 7)
	h.Process(c)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestDocumentHandler_Reprocess_Success(t *testing.T) {
	h, mockSvc, _ := newDocumentHandler()
	mockSvc.On("Reprocess", mock.Anything, int64(5), int64(7)).Return(docWithStatus(5, domain.StatusCompleted), nil)

	c, w := newRequestContext(http.MethodPost, "5", 7)
	h.Reprocess(c)

	assert.Equal(t, http.StatusOK, w.Code)
	data := decodeResponse(t, w)["data"].(map[string]interface{})
	assert.Equal(t, "completed", data["processing_status"])
}

func TestDocumentHandler_Reprocess_PipelineFailure(t *testing.T) {
	h, mockSvc, _ := newDocumentHandler()
	perr := domain.NewPipelineError(domain.StepAI, errors.New("ollama request timed out"))
	mockSvc.On("Reprocess", mock.Anything, int64(5), int64(7)).Return(nil, perr)

	c, w := newRequestContext(http.MethodPost, "5", 7)
	h.Reprocess(c)

	assert.Equal(t, http.StatusBadGateway, w.Code)
	errBody := decodeResponse(t, w)["error"].(map[string]interface{})
	assert.Equal(t, "EXTRACTION_FAILED", errBody["code"])
	assert.Equal(t, "ai: ollama request timed out", errBody["message"])
}

func TestDocumentHandler_Reprocess_Preconditions(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantErr  string
	}{
		{"no source file", domain.ErrNoSourceFile, http.StatusBadRequest, "NO_SOURCE_FILE"},
		{"file missing", domain.ErrSourceFileMissing, http.StatusBadRequest, "SOURCE_FILE_MISSING"},
		{"not owner", domain.ErrDocumentNotFound, http.StatusNotFound, "DOCUMENT_NOT_FOUND"},
		{"unexpected", errors.New("db down"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, mockSvc, _ := newDocumentHandler()
			mockSvc.On("Reprocess", mock.Anything, int64(5), int64(7)).Return(nil, tt.err)

			c, w := newRequestContext(http.MethodPost, "5", 7)
			h.Reprocess(c)

			assert.Equal(t, tt.wantCode, w.Code)
			errBody := decodeResponse(t, w)["error"].(map[string]interface{})
			assert.Equal(t, tt.wantErr, errBody["code"])
		})
	}
}
