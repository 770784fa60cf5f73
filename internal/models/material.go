package models

import "time"

// LessonMaterial is a downloadable file attached to a lesson, such as a worksheet.
type LessonMaterial struct {
	ID         string     `db:"id" json:"id"`
	LessonID   string     `db:"lesson_id" json:"lesson_id"`
	Title      string     `db:"title" json:"title"`
	FilePath   string     `db:"file_path" json:"-"`
	FileName   string     `db:"file_name" json:"file_name"`
	MimeType   string     `db:"mime_type" json:"mime_type"`
	SizeBytes  int64      `db:"size_bytes" json:"size_bytes"`
	UploadedBy string     `db:"uploaded_by" json:"uploaded_by"`
	UploadedAt time.Time  `db:"uploaded_at" json:"uploaded_at"`
	DeletedAt  *time.Time `db:"deleted_at" json:"-"`
}
