package handler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kodkids/site-api/internal/dto"
	"github.com/kodkids/site-api/internal/models"
	"github.com/kodkids/site-api/internal/registration"
	appErrors "github.com/kodkids/site-api/pkg/errors"
	"github.com/kodkids/site-api/pkg/export"
	"github.com/kodkids/site-api/pkg/response"
)

type registrationService interface {
	Options(ctx context.Context, courseID, location string) (*registration.Options, error)
	Submit(ctx context.Context, values registration.Values) (*models.Registration, error)
	List(ctx context.Context, filter models.RegistrationFilter) ([]models.Registration, int, error)
	Get(ctx context.Context, id string) (*models.Registration, error)
	UpdateStatus(ctx context.Context, id string, status models.RegistrationStatus) (*models.Registration, error)
	Export(ctx context.Context, filter models.RegistrationFilter, format export.Format) ([]byte, error)
}

// RegistrationHandler serves the registration dialog and the back-office registration list.
type RegistrationHandler struct {
	service registrationService
	now     func() time.Time
}

// NewRegistrationHandler builds a new handler.
func NewRegistrationHandler(service registrationService) *RegistrationHandler {
	return &RegistrationHandler{service: service, now: time.Now}
}

// Options godoc
// @Summary Registration options for a course
// @Description Locations, time slots for the chosen location and open periods, with placeholder reasons for empty lists
// @Tags Registrations
// @Produce json
// @Param id path string true "Course ID"
// @Param location query string false "Selected location"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /courses/{id}/registration-options [get]
func (h *RegistrationHandler) Options(c *gin.Context) {
	opts, err := h.service.Options(c.Request.Context(), c.Param("id"), c.Query("location"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, opts, nil)
}

// Submit godoc
// @Summary Submit a course registration
// @Tags Registrations
// @Accept json
// @Produce json
// @Param payload body registration.Values true "Registration form"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 500 {object} response.Envelope
// @Router /registrations [post]
func (h *RegistrationHandler) Submit(c *gin.Context) {
	var values registration.Values
	if !bindJSON(c, &values, "invalid registration payload") {
		return
	}
	reg, err := h.service.Submit(c.Request.Context(), values)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, reg)
}

// List godoc
// @Summary List registrations
// @Tags Admin Registrations
// @Produce json
// @Param status query string false "new, contacted, enrolled or cancelled"
// @Param course query string false "Course title"
// @Param q query string false "Search name, email or phone"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /admin/registrations [get]
func (h *RegistrationHandler) List(c *gin.Context) {
	filter := registrationFilter(c)
	filter.Page, filter.PageSize = pagingFromQuery(c)
	regs, total, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, regs, &response.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total})
}

// Get godoc
// @Summary Get a registration
// @Tags Admin Registrations
// @Produce json
// @Param id path string true "Registration ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /admin/registrations/{id} [get]
func (h *RegistrationHandler) Get(c *gin.Context) {
	reg, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, reg, nil)
}

// UpdateStatus godoc
// @Summary Update registration follow-up status
// @Tags Admin Registrations
// @Accept json
// @Produce json
// @Param id path string true "Registration ID"
// @Param payload body dto.UpdateRegistrationStatusRequest true "Status payload"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /admin/registrations/{id}/status [patch]
func (h *RegistrationHandler) UpdateStatus(c *gin.Context) {
	var req dto.UpdateRegistrationStatusRequest
	if !bindJSON(c, &req, "invalid status payload") {
		return
	}
	reg, err := h.service.UpdateStatus(c.Request.Context(), c.Param("id"), models.RegistrationStatus(req.Status))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, reg, nil)
}

// Export godoc
// @Summary Export registrations
// @Tags Admin Registrations
// @Produce text/csv
// @Produce application/pdf
// @Param format query string false "csv (default) or pdf"
// @Param status query string false "Status filter"
// @Param course query string false "Course filter"
// @Success 200 {file} file
// @Security BearerAuth
// @Router /admin/registrations/export [get]
func (h *RegistrationHandler) Export(c *gin.Context) {
	format, err := export.ParseFormat(c.Query("format"))
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "unsupported export format"))
		return
	}
	body, err := h.service.Export(c.Request.Context(), registrationFilter(c), format)
	if err != nil {
		response.Error(c, err)
		return
	}
	filename := fmt.Sprintf("registrations-%s.%s", h.now().Format("20060102"), format)
	response.Attachment(c, filename, format.ContentType(), body)
}

func registrationFilter(c *gin.Context) models.RegistrationFilter {
	return models.RegistrationFilter{
		Status: models.RegistrationStatus(c.Query("status")),
		Course: c.Query("course"),
		Search: c.Query("q"),
	}
}
