package ocr

import (
	"errors"
	"fmt"
)

// Reason classifies why text extraction failed.
type Reason string

const (
	ReasonFileMissing       Reason = "file_missing"
	ReasonUnsupportedFormat Reason = "unsupported_format"
	ReasonUnreachable       Reason = "unreachable"
	ReasonBackend           Reason = "backend"
	ReasonNoPages           Reason = "no_pages"
)

// Error is the typed failure returned by the text extractor.
type Error struct {
	Reason Reason
	Err    error
}

func (e *Error) Error() string {
	switch e.Reason {
	case ReasonFileMissing:
		return fmt.Sprintf("file not found: %v", e.Err)
	case ReasonUnsupportedFormat:
		return fmt.Sprintf("unsupported format: %v", e.Err)
	case ReasonUnreachable:
		return fmt.Sprintf("OCR backend unreachable: %v", e.Err)
	case ReasonNoPages:
		return fmt.Sprintf("no extractable pages: %v", e.Err)
	default:
		return fmt.Sprintf("OCR failed: %v", e.Err)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsReason reports whether err is an *Error with the given reason.
func IsReason(err error, reason Reason) bool {
	var oe *Error
	return errors.As(err, &oe) && oe.Reason == reason
}

func newError(reason Reason, err error) *Error {
	return &Error{Reason: reason, Err: err}
}
