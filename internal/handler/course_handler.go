package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kodkids/site-api/internal/dto"
	"github.com/kodkids/site-api/internal/middleware"
	"github.com/kodkids/site-api/internal/models"
	"github.com/kodkids/site-api/pkg/response"
)

type courseService interface {
	List(ctx context.Context) ([]models.Course, bool, error)
	ListAll(ctx context.Context, search string) ([]models.Course, error)
	Get(ctx context.Context, id string) (*models.CourseDetail, bool, error)
	Create(ctx context.Context, req dto.CourseRequest) (*models.Course, error)
	Update(ctx context.Context, id string, req dto.CourseRequest) (*models.Course, error)
	Delete(ctx context.Context, id string) error
	AddSchedule(ctx context.Context, courseID string, req dto.ScheduleSlotRequest) (*models.ScheduleSlot, error)
	DeleteSchedule(ctx context.Context, courseID, slotID string) error
	ListPeriods(ctx context.Context, courseID string) ([]models.LearningPeriod, error)
	CreatePeriod(ctx context.Context, courseID string, req dto.PeriodRequest) (*models.LearningPeriod, error)
	UpdatePeriod(ctx context.Context, courseID, periodID string, req dto.PeriodRequest) (*models.LearningPeriod, error)
	DeletePeriod(ctx context.Context, courseID, periodID string) error
}

// CourseHandler exposes the course catalog and its management endpoints.
type CourseHandler struct {
	service courseService
}

// NewCourseHandler builds a new handler.
func NewCourseHandler(service courseService) *CourseHandler {
	return &CourseHandler{service: service}
}

// List godoc
// @Summary List active courses
// @Tags Courses
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /courses [get]
func (h *CourseHandler) List(c *gin.Context) {
	courses, hit, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	respondOK(c, courses)
}

// Get godoc
// @Summary Get a course with its schedule and open periods
// @Tags Courses
// @Produce json
// @Param id path string true "Course ID or slug"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /courses/{id} [get]
func (h *CourseHandler) Get(c *gin.Context) {
	detail, hit, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	respondOK(c, detail)
}

// ListAll godoc
// @Summary List all courses including inactive ones
// @Tags Admin Courses
// @Produce json
// @Param q query string false "Search in title and slug"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /admin/courses [get]
func (h *CourseHandler) ListAll(c *gin.Context) {
	courses, err := h.service.ListAll(c.Request.Context(), c.Query("q"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, courses, nil)
}

// Create godoc
// @Summary Create a course
// @Tags Admin Courses
// @Accept json
// @Produce json
// @Param payload body dto.CourseRequest true "Course payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Security BearerAuth
// @Router /admin/courses [post]
func (h *CourseHandler) Create(c *gin.Context) {
	var req dto.CourseRequest
	if !bindJSON(c, &req, "invalid course payload") {
		return
	}
	course, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, course)
}

// Update godoc
// @Summary Replace a course
// @Tags Admin Courses
// @Accept json
// @Produce json
// @Param id path string true "Course ID"
// @Param payload body dto.CourseRequest true "Course payload"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /admin/courses/{id} [put]
func (h *CourseHandler) Update(c *gin.Context) {
	var req dto.CourseRequest
	if !bindJSON(c, &req, "invalid course payload") {
		return
	}
	course, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, course, nil)
}

// Delete godoc
// @Summary Delete a course
// @Tags Admin Courses
// @Param id path string true "Course ID"
// @Success 204
// @Security BearerAuth
// @Router /admin/courses/{id} [delete]
func (h *CourseHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// AddSchedule godoc
// @Summary Add a schedule slot
// @Tags Admin Courses
// @Accept json
// @Produce json
// @Param id path string true "Course ID"
// @Param payload body dto.ScheduleSlotRequest true "Slot payload"
// @Success 201 {object} response.Envelope
// @Security BearerAuth
// @Router /admin/courses/{id}/schedules [post]
func (h *CourseHandler) AddSchedule(c *gin.Context) {
	var req dto.ScheduleSlotRequest
	if !bindJSON(c, &req, "invalid schedule payload") {
		return
	}
	slot, err := h.service.AddSchedule(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, slot)
}

// DeleteSchedule godoc
// @Summary Remove a schedule slot
// @Tags Admin Courses
// @Param id path string true "Course ID"
// @Param slotId path string true "Slot ID"
// @Success 204
// @Security BearerAuth
// @Router /admin/courses/{id}/schedules/{slotId} [delete]
func (h *CourseHandler) DeleteSchedule(c *gin.Context) {
	if err := h.service.DeleteSchedule(c.Request.Context(), c.Param("id"), c.Param("slotId")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListPeriods godoc
// @Summary List all learning periods of a course
// @Tags Admin Courses
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /admin/courses/{id}/periods [get]
func (h *CourseHandler) ListPeriods(c *gin.Context) {
	periods, err := h.service.ListPeriods(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, periods, nil)
}

// CreatePeriod godoc
// @Summary Add a learning period
// @Tags Admin Courses
// @Accept json
// @Produce json
// @Param id path string true "Course ID"
// @Param payload body dto.PeriodRequest true "Period payload"
// @Success 201 {object} response.Envelope
// @Security BearerAuth
// @Router /admin/courses/{id}/periods [post]
func (h *CourseHandler) CreatePeriod(c *gin.Context) {
	var req dto.PeriodRequest
	if !bindJSON(c, &req, "invalid period payload") {
		return
	}
	period, err := h.service.CreatePeriod(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, period)
}

// UpdatePeriod godoc
// @Summary Replace a learning period
// @Tags Admin Courses
// @Accept json
// @Produce json
// @Param id path string true "Course ID"
// @Param periodId path string true "Period ID"
// @Param payload body dto.PeriodRequest true "Period payload"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /admin/courses/{id}/periods/{periodId} [put]
func (h *CourseHandler) UpdatePeriod(c *gin.Context) {
	var req dto.PeriodRequest
	if !bindJSON(c, &req, "invalid period payload") {
		return
	}
	period, err := h.service.UpdatePeriod(c.Request.Context(), c.Param("id"), c.Param("periodId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, period, nil)
}

// DeletePeriod godoc
// @Summary Remove a learning period
// @Tags Admin Courses
// @Param id path string true "Course ID"
// @Param periodId path string true "Period ID"
// @Success 204
// @Security BearerAuth
// @Router /admin/courses/{id}/periods/{periodId} [delete]
func (h *CourseHandler) DeletePeriod(c *gin.Context) {
	if err := h.service.DeletePeriod(c.Request.Context(), c.Param("id"), c.Param("periodId")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
