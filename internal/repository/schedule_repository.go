package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/kodkids/site-api/internal/models"
)

// ScheduleRepository persists course schedule slots.
type ScheduleRepository struct {
	db *sqlx.DB
}

// NewScheduleRepository constructs the repository.
func NewScheduleRepository(db *sqlx.DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

// ListByCourse returns the slots of a course in insertion order. Display order of locations and
// times follows this order.
func (r *ScheduleRepository) ListByCourse(ctx context.Context, courseID string) ([]models.ScheduleSlot, error) {
	const query = `SELECT id, course_id, location, day_of_week, start_time, end_time, created_at
FROM course_schedules WHERE course_id = $1 ORDER BY created_at ASC, id ASC`
	var slots []models.ScheduleSlot
	if err := r.db.SelectContext(ctx, &slots, query, courseID); err != nil {
		return nil, fmt.Errorf("list course schedules: %w", err)
	}
	return slots, nil
}

// Create inserts a slot.
func (r *ScheduleRepository) Create(ctx context.Context, slot *models.ScheduleSlot) error {
	if slot.ID == "" {
		slot.ID = uuid.NewString()
	}
	slot.CreatedAt = time.Now().UTC()
	const query = `INSERT INTO course_schedules (id, course_id, location, day_of_week, start_time, end_time, created_at)
VALUES (:id, :course_id, :location, :day_of_week, :start_time, :end_time, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, slot); err != nil {
		return fmt.Errorf("create course schedule: %w", err)
	}
	return nil
}

// Delete removes a slot from a course.
func (r *ScheduleRepository) Delete(ctx context.Context, courseID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM course_schedules WHERE id = $1 AND course_id = $2`, id, courseID)
	if err != nil {
		return fmt.Errorf("delete course schedule: %w", err)
	}
	return expectAffected(res)
}
