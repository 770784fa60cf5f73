package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/kodkids/site-api/internal/models"
)

const materialColumns = `id, lesson_id, title, file_path, file_name, mime_type, size_bytes, uploaded_by, uploaded_at, deleted_at`

// MaterialRepository persists lesson material metadata. File contents live in storage.
type MaterialRepository struct {
	db *sqlx.DB
}

// NewMaterialRepository constructs the repository.
func NewMaterialRepository(db *sqlx.DB) *MaterialRepository {
	return &MaterialRepository{db: db}
}

// Create stores metadata for an uploaded file.
func (r *MaterialRepository) Create(ctx context.Context, m *models.LessonMaterial) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.UploadedAt.IsZero() {
		m.UploadedAt = time.Now().UTC()
	}
	const query = `INSERT INTO lesson_materials (` + materialColumns + `)
	VALUES (:id, :lesson_id, :title, :file_path, :file_name, :mime_type, :size_bytes, :uploaded_by, :uploaded_at, :deleted_at)`
	if _, err := r.db.NamedExecContext(ctx, query, m); err != nil {
		return fmt.Errorf("create lesson material: %w", err)
	}
	return nil
}

// FindByID returns a material that has not been deleted.
func (r *MaterialRepository) FindByID(ctx context.Context, id string) (*models.LessonMaterial, error) {
	const query = `SELECT ` + materialColumns + ` FROM lesson_materials WHERE id = $1 AND deleted_at IS NULL`
	var m models.LessonMaterial
	if err := r.db.GetContext(ctx, &m, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find lesson material: %w", err)
	}
	return &m, nil
}

// ListByLesson returns a lesson's materials in upload order.
func (r *MaterialRepository) ListByLesson(ctx context.Context, lessonID string) ([]models.LessonMaterial, error) {
	const query = `SELECT ` + materialColumns + ` FROM lesson_materials
	WHERE lesson_id = $1 AND deleted_at IS NULL ORDER BY uploaded_at ASC`
	var materials []models.LessonMaterial
	if err := r.db.SelectContext(ctx, &materials, query, lessonID); err != nil {
		return nil, fmt.Errorf("list lesson materials: %w", err)
	}
	return materials, nil
}

// SoftDelete marks a material as deleted.
func (r *MaterialRepository) SoftDelete(ctx context.Context, id string, deletedAt time.Time) error {
	const query = `UPDATE lesson_materials SET deleted_at = $2 WHERE id = $1 AND deleted_at IS NULL`
	res, err := r.db.ExecContext(ctx, query, id, deletedAt)
	if err != nil {
		return fmt.Errorf("delete lesson material: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("check lesson material delete: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
