package domain

import "strings"

// FileType is the coarse kind of source file attached to a document.
type FileType string

const (
	FileTypeImage FileType = "image"
	FileTypePDF   FileType = "pdf"
)

// AllowedExtensions maps file extensions (without dot) to FileType.
var AllowedExtensions = map[string]FileType{
	"jpg":  FileTypeImage,
	"jpeg": FileTypeImage,
	"png":  FileTypeImage,
	"gif":  FileTypeImage,
	"webp": FileTypeImage,
	"pdf":  FileTypePDF,
}

// FileTypeFromPath returns the FileType for a path based on its extension.
func FileTypeFromPath(path string) (FileType, bool) {
	idx := strings.LastIndex(path, ".")
	if idx < 0 || idx == len(path)-1 {
		return "", false
	}
	ft, ok := AllowedExtensions[strings.ToLower(path[idx+1:])]
	return ft, ok
}

// DocumentKind classifies a financial document.
type DocumentKind string

const (
	DocumentKindReceipt DocumentKind = "receipt"
	DocumentKindInvoice DocumentKind = "invoice"
	DocumentKindPayslip DocumentKind = "payslip"
	DocumentKindOther   DocumentKind = "other"
)

// ParseDocumentKind accepts only the known kinds, case-insensitively.
func ParseDocumentKind(s string) (DocumentKind, bool) {
	switch k := DocumentKind(strings.ToLower(strings.TrimSpace(s))); k {
	case DocumentKindReceipt, DocumentKindInvoice, DocumentKindPayslip, DocumentKindOther:
		return k, true
	}
	return "", false
}

// ProcessingStatus tracks a document through the extraction pipeline.
type ProcessingStatus string

const (
	StatusPending    ProcessingStatus = "pending"
	StatusProcessing ProcessingStatus = "processing"
	StatusCompleted  ProcessingStatus = "completed"
	StatusError      ProcessingStatus = "error"
)

var validTransitions = map[ProcessingStatus][]ProcessingStatus{
	StatusPending:    {StatusProcessing},
	StatusProcessing: {StatusCompleted, StatusError},
	StatusCompleted:  {StatusProcessing},
	StatusError:      {StatusProcessing},
}

// CanTransitionTo reports whether moving from s to next is a legal pipeline transition.
func (s ProcessingStatus) CanTransitionTo(next ProcessingStatus) bool {
	for _, allowed := range validTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// PipelineStep labels the stage at which a pipeline run failed.
type PipelineStep string

const (
	StepOCR PipelineStep = "ocr"
	StepAI  PipelineStep = "ai"
)
