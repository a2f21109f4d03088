package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"paperledger/internal/domain"
	"paperledger/internal/port"
)

type itemRepo struct {
	db *sqlx.DB
}

// NewItemRepo creates a new PostgreSQL-backed ItemRepository.
func NewItemRepo(db *sqlx.DB) port.ItemRepository {
	return &itemRepo{db: db}
}

func (r *itemRepo) ListByDocument(ctx context.Context, docID int64) ([]domain.Item, error) {
	var items []domain.Item
	err := r.db.SelectContext(ctx, &items,
		`SELECT id, document_id, name, quantity, unit, unit_price, total_price, category, created_at
		 FROM items WHERE document_id = $1 ORDER BY id`, docID)
	if err != nil {
		return nil, fmt.Errorf("itemRepo.ListByDocument: %w", err)
	}
	return items, nil
}
