package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"paperledger/internal/domain"
	"paperledger/internal/port"
)

type tagRepo struct {
	db *sqlx.DB
}

// NewTagRepo creates a new PostgreSQL-backed TagRepository.
func NewTagRepo(db *sqlx.DB) port.TagRepository {
	return &tagRepo{db: db}
}

func (r *tagRepo) ListByUser(ctx context.Context, userID int64) ([]domain.Tag, error) {
	var tags []domain.Tag
	err := r.db.SelectContext(ctx, &tags,
		`SELECT id, user_id, name, color, icon, created_at
		 FROM tags WHERE user_id = $1 ORDER BY name`, userID)
	if err != nil {
		return nil, fmt.Errorf("tagRepo.ListByUser: %w", err)
	}
	return tags, nil
}

func (r *tagRepo) ListByDocument(ctx context.Context, docID int64) ([]domain.Tag, error) {
	var tags []domain.Tag
	err := r.db.SelectContext(ctx, &tags,
		`SELECT t.id, t.user_id, t.name, t.color, t.icon, t.created_at
		 FROM tags t
		 JOIN document_tags dt ON dt.tag_id = t.id
		 WHERE dt.document_id = $1
		 ORDER BY t.name`, docID)
	if err != nil {
		return nil, fmt.Errorf("tagRepo.ListByDocument: %w", err)
	}
	return tags, nil
}
