package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kodkids/site-api/internal/dto"
	"github.com/kodkids/site-api/internal/models"
	"github.com/kodkids/site-api/pkg/response"
)

type siteContentService interface {
	All(ctx context.Context) (map[string]string, error)
	Update(ctx context.Context, actor models.UserInfo, req dto.BulkSiteContentRequest) (map[string]string, error)
}

// SiteContentHandler serves editable site texts.
type SiteContentHandler struct {
	service siteContentService
}

// NewSiteContentHandler builds a new handler.
func NewSiteContentHandler(service siteContentService) *SiteContentHandler {
	return &SiteContentHandler{service: service}
}

// Get godoc
// @Summary Site texts
// @Tags Site Content
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /site-content [get]
func (h *SiteContentHandler) Get(c *gin.Context) {
	content, err := h.service.All(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, content, nil)
}

// Update godoc
// @Summary Update site texts
// @Tags Admin Site Content
// @Accept json
// @Produce json
// @Param payload body dto.BulkSiteContentRequest true "Texts to store"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Security BearerAuth
// @Router /admin/site-content [put]
func (h *SiteContentHandler) Update(c *gin.Context) {
	var req dto.BulkSiteContentRequest
	if !bindJSON(c, &req, "invalid site content payload") {
		return
	}
	content, err := h.service.Update(c.Request.Context(), actorFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, content, nil)
}
