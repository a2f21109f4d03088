package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound                = errors.New("resource not found")
	ErrUnauthorized            = errors.New("unauthorized")
	ErrForbidden               = errors.New("forbidden")
	ErrDocumentNotFound        = errors.New("document not found")
	ErrNoSourceFile            = errors.New("document has no source file")
	ErrSourceFileMissing       = errors.New("source file no longer exists")
	ErrDocumentBusy            = errors.New("document is being processed")
	ErrUnsupportedFileType     = errors.New("unsupported file type")
	ErrQueueStopped            = errors.New("processing queue is stopped")
	ErrInvalidStatusTransition = errors.New("invalid processing status transition")
)

// PipelineError is a recoverable failure of one pipeline step. Its rendered
// form is what gets stored in the document's processing_error column.
type PipelineError struct {
	Step    PipelineStep
	Message string
	Err     error
}

// NewPipelineError creates a PipelineError for step wrapping err.
func NewPipelineError(step PipelineStep, err error) *PipelineError {
	return &PipelineError{Step: step, Message: err.Error(), Err: err}
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("%s: %s", e.Step, e.Message)
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}
