package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"paperledger/internal/domain"
	"paperledger/internal/port"
)

const documentColumns = `id, user_id, file_path, original_name, file_type,
	doc_type, doc_date, doc_time, merchant, location,
	total_amount, currency, is_income, is_recurring,
	ocr_raw_text, ocr_confidence, processing_status, processing_error,
	created_at, updated_at`

type documentRepo struct {
	db *sqlx.DB
}

// NewDocumentRepo creates a new PostgreSQL-backed DocumentRepository.
func NewDocumentRepo(db *sqlx.DB) port.DocumentRepository {
	return &documentRepo{db: db}
}

func (r *documentRepo) GetByID(ctx context.Context, docID int64) (*domain.Document, error) {
	var doc domain.Document
	err := r.db.GetContext(ctx, &doc,
		"SELECT "+documentColumns+" FROM documents WHERE id = $1", docID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrDocumentNotFound
		}
		return nil, fmt.Errorf("documentRepo.GetByID: %w", err)
	}
	return &doc, nil
}

func (r *documentRepo) UpdateStatus(ctx context.Context, doc *domain.Document) error {
	doc.UpdatedAt = time.Now().UTC()
	result, err := r.db.ExecContext(ctx,
		`UPDATE documents SET processing_status = $2, processing_error = $3, updated_at = $4
		 WHERE id = $1`,
		doc.ID, doc.ProcessingStatus, doc.ProcessingError, doc.UpdatedAt)
	if err != nil {
		return fmt.Errorf("documentRepo.UpdateStatus: %w", err)
	}
	return requireRow(result, "documentRepo.UpdateStatus")
}

func (r *documentRepo) UpdateOCR(ctx context.Context, doc *domain.Document) error {
	doc.UpdatedAt = time.Now().UTC()
	result, err := r.db.ExecContext(ctx,
		`UPDATE documents SET ocr_raw_text = $2, ocr_confidence = $3, updated_at = $4
		 WHERE id = $1`,
		doc.ID, doc.OCRRawText, doc.OCRConfidence, doc.UpdatedAt)
	if err != nil {
		return fmt.Errorf("documentRepo.UpdateOCR: %w", err)
	}
	return requireRow(result, "documentRepo.UpdateOCR")
}

func (r *documentRepo) CompleteExtraction(ctx context.Context, doc *domain.Document, items []domain.Item, tagIDs []int64) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("documentRepo.CompleteExtraction: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC()
	doc.UpdatedAt = now

	result, err := tx.ExecContext(ctx,
		`UPDATE documents SET
			doc_type = $2, doc_date = $3, doc_time = $4, merchant = $5, location = $6,
			total_amount = $7, currency = $8, is_income = $9,
			processing_status = $10, processing_error = $11, updated_at = $12
		 WHERE id = $1`,
		doc.ID, doc.DocKind, doc.Date, doc.Time, doc.Merchant, doc.Location,
		doc.TotalAmount, doc.Currency, doc.IsIncome,
		doc.ProcessingStatus, doc.ProcessingError, doc.UpdatedAt)
	if err != nil {
		return fmt.Errorf("documentRepo.CompleteExtraction: update: %w", err)
	}
	if err := requireRow(result, "documentRepo.CompleteExtraction"); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM items WHERE document_id = $1", doc.ID); err != nil {
		return fmt.Errorf("documentRepo.CompleteExtraction: delete items: %w", err)
	}

	for i := range items {
		items[i].DocumentID = doc.ID
		items[i].CreatedAt = now
		err := tx.QueryRowxContext(ctx,
			`INSERT INTO items (document_id, name, quantity, unit, unit_price, total_price, category, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			 RETURNING id`,
			items[i].DocumentID, items[i].Name, items[i].Quantity, items[i].Unit,
			items[i].UnitPrice, items[i].TotalPrice, items[i].Category, items[i].CreatedAt,
		).Scan(&items[i].ID)
		if err != nil {
			return fmt.Errorf("documentRepo.CompleteExtraction: insert item: %w", err)
		}
	}

	for _, tagID := range tagIDs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO document_tags (document_id, tag_id) VALUES ($1, $2)
			 ON CONFLICT DO NOTHING`, doc.ID, tagID); err != nil {
			return fmt.Errorf("documentRepo.CompleteExtraction: attach tag: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("documentRepo.CompleteExtraction: commit: %w", err)
	}
	return nil
}

func requireRow(result sql.Result, op string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: rows affected: %w", op, err)
	}
	if rows == 0 {
		return domain.ErrDocumentNotFound
	}
	return nil
}
