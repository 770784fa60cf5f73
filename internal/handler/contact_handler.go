package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/kodkids/site-api/internal/dto"
	"github.com/kodkids/site-api/internal/models"
	"github.com/kodkids/site-api/pkg/response"
)

type contactService interface {
	Submit(ctx context.Context, req dto.ContactRequest) (*models.ContactMessage, error)
	List(ctx context.Context, limit int) ([]models.ContactMessage, error)
}

// ContactHandler receives contact form messages.
type ContactHandler struct {
	service contactService
}

// NewContactHandler builds a new handler.
func NewContactHandler(service contactService) *ContactHandler {
	return &ContactHandler{service: service}
}

// Submit godoc
// @Summary Send a contact message
// @Tags Contact
// @Accept json
// @Produce json
// @Param payload body dto.ContactRequest true "Contact form"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 429 {object} response.Envelope
// @Router /contact [post]
func (h *ContactHandler) Submit(c *gin.Context) {
	var req dto.ContactRequest
	if !bindJSON(c, &req, "invalid contact payload") {
		return
	}
	msg, err := h.service.Submit(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, msg)
}

// List godoc
// @Summary Recent contact messages
// @Tags Admin Contact
// @Produce json
// @Param limit query int false "Maximum messages (default 50)"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /admin/contact-messages [get]
func (h *ContactHandler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	messages, err := h.service.List(c.Request.Context(), limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, messages, nil)
}
