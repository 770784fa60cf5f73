package dto

// LessonRequest creates or replaces a lesson.
type LessonRequest struct {
	Title       string  `json:"title" validate:"required,max=160"`
	Summary     string  `json:"summary" validate:"max=500"`
	Content     string  `json:"content"`
	VideoURL    *string `json:"video_url" validate:"omitempty,url"`
	Position    int     `json:"position" validate:"gte=0"`
	IsPublished bool    `json:"is_published"`
}
