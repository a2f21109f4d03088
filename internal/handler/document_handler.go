package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"paperledger/internal/domain"
	"paperledger/internal/service"
)

// DocumentHandler exposes document processing status and triggers.
type DocumentHandler struct {
	pipeline service.PipelineService
	queue    service.Submitter
}

// NewDocumentHandler creates a new DocumentHandler.
func NewDocumentHandler(pipeline service.PipelineService, queue service.Submitter) *DocumentHandler {
	return &DocumentHandler{pipeline: pipeline, queue: queue}
}

// statusResponse is returned while a document is not completed.
type statusResponse struct {
	ID               int64                   `json:"id"`
	ProcessingStatus domain.ProcessingStatus `json:"processing_status"`
	ProcessingError  *string                 `json:"processing_error,omitempty"`
	UpdatedAt        time.Time               `json:"updated_at"`
}

// queuedResponse is returned when a document has been accepted for processing.
type queuedResponse struct {
	ID     int64 `json:"id"`
	Queued bool  `json:"queued"`
}

// Get handles GET /api/v1/documents/:id.
// Completed documents are returned in full with items and tags; others
// report only their status.
func (h *DocumentHandler) Get(c *gin.Context) {
	userID, ok := extractUserID(c)
	if !ok {
		return
	}
	docID, ok := parseDocumentID(c)
	if !ok {
		return
	}

	doc, err := h.pipeline.GetStatus(c.Request.Context(), docID, userID)
	if err != nil {
		HandleError(c, err)
		return
	}

	if doc.ProcessingStatus == domain.StatusCompleted {
		RespondOK(c, doc)
		return
	}
	resp := statusResponse{
		ID:               doc.ID,
		ProcessingStatus: doc.ProcessingStatus,
		UpdatedAt:        doc.UpdatedAt,
	}
	if doc.ProcessingStatus == domain.StatusError {
		resp.ProcessingError = doc.ProcessingError
	}
	RespondOK(c, resp)
}

// Process handles POST /api/v1/documents/:id/process.
func (h *DocumentHandler) Process(c *gin.Context) {
	userID, ok := extractUserID(c)
	if !ok {
		return
	}
	docID, ok := parseDocumentID(c)
	if !ok {
		return
	}

	doc, err := h.pipeline.GetStatus(c.Request.Context(), docID, userID)
	if err != nil {
		HandleError(c, err)
		return
	}
	if doc.FilePath == nil || *doc.FilePath == "" {
		HandleError(c, domain.ErrNoSourceFile)
		return
	}
	if doc.ProcessingStatus == domain.StatusProcessing {
		HandleError(c, domain.ErrDocumentBusy)
		return
	}

	if err := h.queue.Enqueue(docID); err != nil {
		HandleError(c, err)
		return
	}
	RespondAccepted(c, queuedResponse{ID: docID, Queued: true})
}

// Reprocess handles POST /api/v1/documents/:id/reprocess.
// The pipeline runs synchronously and its failure is returned to the caller.
func (h *DocumentHandler) Reprocess(c *gin.Context) {
	userID, ok := extractUserID(c)
	if !ok {
		return
	}
	docID, ok := parseDocumentID(c)
	if !ok {
		return
	}

	doc, err := h.pipeline.Reprocess(c.Request.Context(), docID, userID)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, doc)
}
