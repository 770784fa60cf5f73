package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kodkids/site-api/internal/dto"
	"github.com/kodkids/site-api/internal/models"
	"github.com/kodkids/site-api/pkg/response"
)

type forumService interface {
	ListThreads(ctx context.Context, lessonID string) ([]models.ForumThreadDetail, error)
	CreateThread(ctx context.Context, actor models.UserInfo, lessonID string, req dto.ThreadRequest) (*models.ForumThread, error)
	UpdateThread(ctx context.Context, actor models.UserInfo, threadID string, req dto.ThreadRequest) (*models.ForumThread, error)
	DeleteThread(ctx context.Context, actor models.UserInfo, threadID string) error
	Reply(ctx context.Context, actor models.UserInfo, threadID string, req dto.ReplyRequest) (*models.ForumReply, error)
	DeleteReply(ctx context.Context, actor models.UserInfo, replyID string) error
}

// ForumHandler exposes lesson discussion threads.
type ForumHandler struct {
	service forumService
}

// NewForumHandler builds a new handler.
func NewForumHandler(service forumService) *ForumHandler {
	return &ForumHandler{service: service}
}

// ListThreads godoc
// @Summary List a lesson's threads with replies
// @Tags Forum
// @Produce json
// @Param lessonId path string true "Lesson ID"
// @Success 200 {object} response.Envelope
// @Router /lessons/{lessonId}/threads [get]
func (h *ForumHandler) ListThreads(c *gin.Context) {
	threads, err := h.service.ListThreads(c.Request.Context(), c.Param("lessonId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, threads, nil)
}

// CreateThread godoc
// @Summary Start a thread
// @Tags Forum
// @Accept json
// @Produce json
// @Param lessonId path string true "Lesson ID"
// @Param payload body dto.ThreadRequest true "Thread payload"
// @Success 201 {object} response.Envelope
// @Security BearerAuth
// @Router /lessons/{lessonId}/threads [post]
func (h *ForumHandler) CreateThread(c *gin.Context) {
	var req dto.ThreadRequest
	if !bindJSON(c, &req, "invalid thread payload") {
		return
	}
	thread, err := h.service.CreateThread(c.Request.Context(), actorFromContext(c), c.Param("lessonId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, thread)
}

// UpdateThread godoc
// @Summary Edit a thread
// @Tags Forum
// @Accept json
// @Produce json
// @Param threadId path string true "Thread ID"
// @Param payload body dto.ThreadRequest true "Thread payload"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Security BearerAuth
// @Router /threads/{threadId} [put]
func (h *ForumHandler) UpdateThread(c *gin.Context) {
	var req dto.ThreadRequest
	if !bindJSON(c, &req, "invalid thread payload") {
		return
	}
	thread, err := h.service.UpdateThread(c.Request.Context(), actorFromContext(c), c.Param("threadId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, thread, nil)
}

// DeleteThread godoc
// @Summary Delete a thread
// @Tags Forum
// @Param threadId path string true "Thread ID"
// @Success 204
// @Failure 403 {object} response.Envelope
// @Security BearerAuth
// @Router /threads/{threadId} [delete]
func (h *ForumHandler) DeleteThread(c *gin.Context) {
	if err := h.service.DeleteThread(c.Request.Context(), actorFromContext(c), c.Param("threadId")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Reply godoc
// @Summary Reply to a thread
// @Tags Forum
// @Accept json
// @Produce json
// @Param threadId path string true "Thread ID"
// @Param payload body dto.ReplyRequest true "Reply payload"
// @Success 201 {object} response.Envelope
// @Security BearerAuth
// @Router /threads/{threadId}/replies [post]
func (h *ForumHandler) Reply(c *gin.Context) {
	var req dto.ReplyRequest
	if !bindJSON(c, &req, "invalid reply payload") {
		return
	}
	reply, err := h.service.Reply(c.Request.Context(), actorFromContext(c), c.Param("threadId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, reply)
}

// DeleteReply godoc
// @Summary Delete a reply
// @Tags Forum
// @Param replyId path string true "Reply ID"
// @Success 204
// @Security BearerAuth
// @Router /replies/{replyId} [delete]
func (h *ForumHandler) DeleteReply(c *gin.Context) {
	if err := h.service.DeleteReply(c.Request.Context(), actorFromContext(c), c.Param("replyId")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
