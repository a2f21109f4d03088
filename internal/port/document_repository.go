package port

import (
	"context"

	"paperledger/internal/domain"
)

// DocumentRepository defines the contract for document persistence used by
// the extraction pipeline.
type DocumentRepository interface {
	GetByID(ctx context.Context, docID int64) (*domain.Document, error)
	// UpdateStatus persists processing_status and processing_error.
	UpdateStatus(ctx context.Context, doc *domain.Document) error
	// UpdateOCR persists ocr_raw_text and ocr_confidence.
	UpdateOCR(ctx context.Context, doc *domain.Document) error
	// CompleteExtraction writes the merged fields, replaces the document's items,
	// attaches tagIDs and persists the completed status in a single transaction.
	CompleteExtraction(ctx context.Context, doc *domain.Document, items []domain.Item, tagIDs []int64) error
}

// ItemRepository defines read access to a document's items.
type ItemRepository interface {
	ListByDocument(ctx context.Context, docID int64) ([]domain.Item, error)
}

// TagRepository defines read access to tags. Tags are never created by the pipeline.
type TagRepository interface {
	ListByUser(ctx context.Context, userID int64) ([]domain.Tag, error)
	ListByDocument(ctx context.Context, docID int64) ([]domain.Tag, error)
}
