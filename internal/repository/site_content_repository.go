package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/kodkids/site-api/internal/models"
)

const upsertSiteContent = `INSERT INTO site_content (key, value, updated_by, updated_at)
VALUES (:key, :value, :updated_by, :updated_at)
ON CONFLICT (key)
DO UPDATE SET value = EXCLUDED.value, updated_by = EXCLUDED.updated_by, updated_at = EXCLUDED.updated_at`

// SiteContentRepository persists editable site copy.
type SiteContentRepository struct {
	db *sqlx.DB
}

// NewSiteContentRepository constructs the repository.
func NewSiteContentRepository(db *sqlx.DB) *SiteContentRepository {
	return &SiteContentRepository{db: db}
}

// List returns all stored entries ordered by key.
func (r *SiteContentRepository) List(ctx context.Context) ([]models.SiteContent, error) {
	const query = `SELECT key, value, updated_by, updated_at FROM site_content ORDER BY key ASC`
	var items []models.SiteContent
	if err := r.db.SelectContext(ctx, &items, query); err != nil {
		return nil, fmt.Errorf("list site content: %w", err)
	}
	return items, nil
}

// BulkUpsert writes all entries in one transaction.
func (r *SiteContentRepository) BulkUpsert(ctx context.Context, items []models.SiteContent) error {
	if len(items) == 0 {
		return nil
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin site content tx: %w", err)
	}
	now := time.Now().UTC()
	for i := range items {
		items[i].UpdatedAt = now
		if _, err := tx.NamedExecContext(ctx, upsertSiteContent, items[i]); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("upsert site content %s: %w", items[i].Key, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit site content tx: %w", err)
	}
	return nil
}
