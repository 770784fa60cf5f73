package handler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/kodkids/site-api/internal/dto"
	"github.com/kodkids/site-api/internal/models"
	"github.com/kodkids/site-api/internal/service"
	appErrors "github.com/kodkids/site-api/pkg/errors"
	"github.com/kodkids/site-api/pkg/response"
)

type materialService interface {
	Upload(ctx context.Context, lessonID string, req dto.MaterialUploadRequest, upload service.MaterialUpload, actor models.UserInfo) (*models.LessonMaterial, error)
	List(ctx context.Context, lessonID string, includeDrafts bool) ([]dto.MaterialResponse, error)
	Download(ctx context.Context, id, token string) (*service.MaterialDownload, error)
	Delete(ctx context.Context, id string) error
}

// multipartOverhead is the room left for form fields and part headers on top of the file limit.
const multipartOverhead = 1 << 20

// MaterialHandler serves lesson files.
type MaterialHandler struct {
	service    materialService
	maxRequest int64
}

// NewMaterialHandler constructs the handler. Upload bodies larger than maxFileSize plus a small
// allowance for the multipart envelope are cut off before they are parsed.
func NewMaterialHandler(service materialService, maxFileSize int64) *MaterialHandler {
	if maxFileSize <= 0 {
		maxFileSize = 10 << 20
	}
	return &MaterialHandler{service: service, maxRequest: maxFileSize + multipartOverhead}
}

// Upload godoc
// @Summary Attach a file to a lesson
// @Tags Admin Lessons
// @Accept multipart/form-data
// @Produce json
// @Param lessonId path string true "Lesson ID"
// @Param title formData string true "Title"
// @Param file formData file true "File"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Security BearerAuth
// @Router /admin/lessons/{lessonId}/materials [post]
func (h *MaterialHandler) Upload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxRequest)

	var req dto.MaterialUploadRequest
	if err := c.ShouldBind(&req); err != nil {
		if tooLarge(err) {
			response.Error(c, h.tooLargeError())
			return
		}
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid material payload"))
		return
	}
	fileHeader, err := c.FormFile("file")
	if err != nil {
		if tooLarge(err) {
			response.Error(c, h.tooLargeError())
			return
		}
		response.Error(c, appErrors.WithFields(appErrors.ErrValidation, map[string]string{"file": "file is required"}))
		return
	}
	src, err := fileHeader.Open()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open upload"))
		return
	}
	defer src.Close()

	reader, ok := src.(io.ReadSeeker)
	if !ok {
		buf, readErr := io.ReadAll(src)
		if readErr != nil {
			response.Error(c, appErrors.Wrap(readErr, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read upload"))
			return
		}
		reader = bytes.NewReader(buf)
	}
	upload := service.MaterialUpload{
		Filename: fileHeader.Filename,
		Size:     fileHeader.Size,
		MimeType: fileHeader.Header.Get("Content-Type"),
		Content:  reader,
	}
	material, err := h.service.Upload(c.Request.Context(), c.Param("lessonId"), req, upload, actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, material)
}

// List godoc
// @Summary Files attached to a lesson
// @Description Each item carries a short-lived download link
// @Tags Lessons
// @Produce json
// @Param lessonId path string true "Lesson ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /lessons/{lessonId}/materials [get]
func (h *MaterialHandler) List(c *gin.Context) {
	materials, err := h.service.List(c.Request.Context(), c.Param("lessonId"), isAdmin(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, materials, nil)
}

// Download godoc
// @Summary Download a lesson file
// @Tags Lessons
// @Produce octet-stream
// @Param materialId path string true "Material ID"
// @Param token query string true "Signed token from the download link"
// @Success 200 {file} file
// @Failure 403 {object} response.Envelope
// @Router /materials/{materialId}/download [get]
func (h *MaterialHandler) Download(c *gin.Context) {
	token := strings.TrimSpace(c.Query("token"))
	if token == "" {
		response.Error(c, appErrors.WithFields(appErrors.ErrValidation, map[string]string{"token": "token is required"}))
		return
	}
	result, err := h.service.Download(c.Request.Context(), c.Param("materialId"), token)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer result.File.Close() //nolint:errcheck
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.Filename))
	c.Header("Cache-Control", "private, no-store")
	c.DataFromReader(http.StatusOK, result.SizeBytes, result.MimeType, result.File, nil)
}

// Delete godoc
// @Summary Remove a lesson file
// @Tags Admin Lessons
// @Param materialId path string true "Material ID"
// @Success 204
// @Security BearerAuth
// @Router /admin/materials/{materialId} [delete]
func (h *MaterialHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("materialId")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

func (h *MaterialHandler) tooLargeError() error {
	return appErrors.WithFields(appErrors.ErrPayloadTooLarge, map[string]string{
		"file": fmt.Sprintf("file exceeds %d bytes", h.maxRequest-multipartOverhead),
	})
}

func tooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr)
}
