package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/kodkids/site-api/internal/models"
)

const periodColumns = `id, course_id, name, start_date, end_date, is_active, created_at`

// PeriodRepository persists learning periods.
type PeriodRepository struct {
	db *sqlx.DB
}

// NewPeriodRepository constructs the repository.
func NewPeriodRepository(db *sqlx.DB) *PeriodRepository {
	return &PeriodRepository{db: db}
}

// ListActiveByCourse returns the active periods of a course, earliest start first.
func (r *PeriodRepository) ListActiveByCourse(ctx context.Context, courseID string) ([]models.LearningPeriod, error) {
	const query = `SELECT ` + periodColumns + ` FROM course_periods
WHERE course_id = $1 AND is_active = TRUE ORDER BY start_date ASC`
	var periods []models.LearningPeriod
	if err := r.db.SelectContext(ctx, &periods, query, courseID); err != nil {
		return nil, fmt.Errorf("list active course periods: %w", err)
	}
	return periods, nil
}

// ListByCourse returns every period of a course for the back office.
func (r *PeriodRepository) ListByCourse(ctx context.Context, courseID string) ([]models.LearningPeriod, error) {
	const query = `SELECT ` + periodColumns + ` FROM course_periods WHERE course_id = $1 ORDER BY start_date ASC`
	var periods []models.LearningPeriod
	if err := r.db.SelectContext(ctx, &periods, query, courseID); err != nil {
		return nil, fmt.Errorf("list course periods: %w", err)
	}
	return periods, nil
}

// Create inserts a period.
func (r *PeriodRepository) Create(ctx context.Context, period *models.LearningPeriod) error {
	if period.ID == "" {
		period.ID = uuid.NewString()
	}
	period.CreatedAt = time.Now().UTC()
	const query = `INSERT INTO course_periods (` + periodColumns + `)
VALUES (:id, :course_id, :name, :start_date, :end_date, :is_active, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, period); err != nil {
		return fmt.Errorf("create course period: %w", err)
	}
	return nil
}

// Update overwrites a period's name, dates and active flag.
func (r *PeriodRepository) Update(ctx context.Context, period *models.LearningPeriod) error {
	const query = `UPDATE course_periods SET name = :name, start_date = :start_date, end_date = :end_date,
is_active = :is_active WHERE id = :id AND course_id = :course_id`
	res, err := r.db.NamedExecContext(ctx, query, period)
	if err != nil {
		return fmt.Errorf("update course period: %w", err)
	}
	return expectAffected(res)
}

// Delete removes a period from a course.
func (r *PeriodRepository) Delete(ctx context.Context, courseID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM course_periods WHERE id = $1 AND course_id = $2`, id, courseID)
	if err != nil {
		return fmt.Errorf("delete course period: %w", err)
	}
	return expectAffected(res)
}
