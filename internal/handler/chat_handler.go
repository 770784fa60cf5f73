package handler

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kodkids/site-api/internal/dto"
	"github.com/kodkids/site-api/internal/models"
	"github.com/kodkids/site-api/pkg/response"
)

const chatHeartbeat = 25 * time.Second

type chatService interface {
	StartSession(ctx context.Context, req dto.StartChatRequest) (*models.ChatSession, error)
	PostVisitorMessage(ctx context.Context, sessionID string, req dto.ChatMessageRequest) (*models.ChatMessage, error)
	Reply(ctx context.Context, sessionID string, req dto.ChatMessageRequest) (*models.ChatMessage, error)
	History(ctx context.Context, sessionID string) ([]models.ChatMessage, error)
	Subscribe(ctx context.Context, sessionID string) (<-chan models.ChatMessage, func(), error)
	ListOpen(ctx context.Context) ([]models.ChatSession, error)
	Close(ctx context.Context, sessionID string) error
}

// ChatHandler serves the chat widget and the staff inbox.
type ChatHandler struct {
	service   chatService
	heartbeat time.Duration
}

// NewChatHandler builds a new handler.
func NewChatHandler(service chatService) *ChatHandler {
	return &ChatHandler{service: service, heartbeat: chatHeartbeat}
}

// Start godoc
// @Summary Open a chat session
// @Description The returned id identifies the session in later calls and should be kept by the client
// @Tags Chat
// @Accept json
// @Produce json
// @Param payload body dto.StartChatRequest false "Visitor details"
// @Success 201 {object} response.Envelope
// @Router /chat/sessions [post]
func (h *ChatHandler) Start(c *gin.Context) {
	var req dto.StartChatRequest
	if c.Request.ContentLength != 0 && !bindJSON(c, &req, "invalid chat payload") {
		return
	}
	session, err := h.service.StartSession(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, session)
}

// PostMessage godoc
// @Summary Send a visitor message
// @Tags Chat
// @Accept json
// @Produce json
// @Param sessionId path string true "Session ID"
// @Param payload body dto.ChatMessageRequest true "Message"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /chat/sessions/{sessionId}/messages [post]
func (h *ChatHandler) PostMessage(c *gin.Context) {
	var req dto.ChatMessageRequest
	if !bindJSON(c, &req, "invalid chat message") {
		return
	}
	msg, err := h.service.PostVisitorMessage(c.Request.Context(), c.Param("sessionId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, msg)
}

// History godoc
// @Summary Recent messages of a session
// @Tags Chat
// @Produce json
// @Param sessionId path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Router /chat/sessions/{sessionId}/messages [get]
func (h *ChatHandler) History(c *gin.Context) {
	messages, err := h.service.History(c.Request.Context(), c.Param("sessionId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, messages, nil)
}

// Stream godoc
// @Summary Live messages of a session
// @Description Server-Sent Events; each "message" event carries one chat message as JSON
// @Tags Chat
// @Produce text/event-stream
// @Param sessionId path string true "Session ID"
// @Success 200 {string} string "event stream"
// @Router /chat/sessions/{sessionId}/stream [get]
func (h *ChatHandler) Stream(c *gin.Context) {
	ctx := c.Request.Context()
	messages, release, err := h.service.Subscribe(ctx, c.Param("sessionId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	defer release()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()
	c.SSEvent("ready", gin.H{"session_id": c.Param("sessionId")})
	c.Writer.Flush()

	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case msg, ok := <-messages:
			if !ok {
				return false
			}
			c.SSEvent("message", msg)
			return true
		case <-ticker.C:
			c.SSEvent("ping", time.Now().UTC().Unix())
			return true
		}
	})
}

// ListOpen godoc
// @Summary Sessions waiting for staff
// @Tags Admin Chat
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /admin/chat/sessions [get]
func (h *ChatHandler) ListOpen(c *gin.Context) {
	sessions, err := h.service.ListOpen(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sessions, nil)
}

// Reply godoc
// @Summary Answer a visitor
// @Tags Admin Chat
// @Accept json
// @Produce json
// @Param sessionId path string true "Session ID"
// @Param payload body dto.ChatMessageRequest true "Message"
// @Success 201 {object} response.Envelope
// @Security BearerAuth
// @Router /admin/chat/sessions/{sessionId}/messages [post]
func (h *ChatHandler) Reply(c *gin.Context) {
	var req dto.ChatMessageRequest
	if !bindJSON(c, &req, "invalid chat message") {
		return
	}
	msg, err := h.service.Reply(c.Request.Context(), c.Param("sessionId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, msg)
}

// Close godoc
// @Summary Close a session
// @Tags Admin Chat
// @Param sessionId path string true "Session ID"
// @Success 204
// @Security BearerAuth
// @Router /admin/chat/sessions/{sessionId}/close [post]
func (h *ChatHandler) Close(c *gin.Context) {
	if err := h.service.Close(c.Request.Context(), c.Param("sessionId")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
