package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kodkids/site-api/internal/dto"
	"github.com/kodkids/site-api/internal/models"
	"github.com/kodkids/site-api/pkg/response"
)

type lessonService interface {
	ListPublished(ctx context.Context, courseID string) ([]models.Lesson, error)
	ListAll(ctx context.Context, courseID string) ([]models.Lesson, error)
	Get(ctx context.Context, id string, includeDrafts bool) (*models.Lesson, error)
	Create(ctx context.Context, courseID string, req dto.LessonRequest) (*models.Lesson, error)
	Update(ctx context.Context, id string, req dto.LessonRequest) (*models.Lesson, error)
	Delete(ctx context.Context, id string) error
}

// LessonHandler exposes course lessons. Admins also see unpublished drafts.
type LessonHandler struct {
	service lessonService
}

// NewLessonHandler builds a new handler.
func NewLessonHandler(service lessonService) *LessonHandler {
	return &LessonHandler{service: service}
}

// ListByCourse godoc
// @Summary List lessons of a course
// @Tags Lessons
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Router /courses/{id}/lessons [get]
func (h *LessonHandler) ListByCourse(c *gin.Context) {
	var (
		lessons []models.Lesson
		err     error
	)
	if isAdmin(c) {
		lessons, err = h.service.ListAll(c.Request.Context(), c.Param("id"))
	} else {
		lessons, err = h.service.ListPublished(c.Request.Context(), c.Param("id"))
	}
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, lessons, nil)
}

// Get godoc
// @Summary Get a lesson
// @Tags Lessons
// @Produce json
// @Param lessonId path string true "Lesson ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /lessons/{lessonId} [get]
func (h *LessonHandler) Get(c *gin.Context) {
	lesson, err := h.service.Get(c.Request.Context(), c.Param("lessonId"), isAdmin(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, lesson, nil)
}

// Create godoc
// @Summary Create a lesson
// @Tags Admin Lessons
// @Accept json
// @Produce json
// @Param id path string true "Course ID"
// @Param payload body dto.LessonRequest true "Lesson payload"
// @Success 201 {object} response.Envelope
// @Security BearerAuth
// @Router /admin/courses/{id}/lessons [post]
func (h *LessonHandler) Create(c *gin.Context) {
	var req dto.LessonRequest
	if !bindJSON(c, &req, "invalid lesson payload") {
		return
	}
	lesson, err := h.service.Create(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, lesson)
}

// Update godoc
// @Summary Replace a lesson
// @Tags Admin Lessons
// @Accept json
// @Produce json
// @Param lessonId path string true "Lesson ID"
// @Param payload body dto.LessonRequest true "Lesson payload"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /admin/lessons/{lessonId} [put]
func (h *LessonHandler) Update(c *gin.Context) {
	var req dto.LessonRequest
	if !bindJSON(c, &req, "invalid lesson payload") {
		return
	}
	lesson, err := h.service.Update(c.Request.Context(), c.Param("lessonId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, lesson, nil)
}

// Delete godoc
// @Summary Delete a lesson
// @Tags Admin Lessons
// @Param lessonId path string true "Lesson ID"
// @Success 204
// @Security BearerAuth
// @Router /admin/lessons/{lessonId} [delete]
func (h *LessonHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("lessonId")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
