package models

import "time"

// Lesson is a unit of course material shown to enrolled students.
type Lesson struct {
	ID          string    `db:"id" json:"id"`
	CourseID    string    `db:"course_id" json:"course_id"`
	Title       string    `db:"title" json:"title"`
	Summary     string    `db:"summary" json:"summary"`
	Content     string    `db:"content" json:"content"`
	VideoURL    *string   `db:"video_url" json:"video_url,omitempty"`
	Position    int       `db:"position" json:"position"`
	IsPublished bool      `db:"is_published" json:"is_published"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}
