package dto

import (
	"time"

	"github.com/kodkids/site-api/internal/models"
)

// MaterialUploadRequest is the form metadata sent with a material file.
type MaterialUploadRequest struct {
	Title string `form:"title" json:"title" validate:"required,max=160"`
}

// MaterialResponse adds a time-limited download link to a material.
type MaterialResponse struct {
	models.LessonMaterial
	DownloadURL string    `json:"download_url"`
	ExpiresAt   time.Time `json:"expires_at"`
}
