package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kodkids/site-api/internal/dto"
	"github.com/kodkids/site-api/internal/models"
	appErrors "github.com/kodkids/site-api/pkg/errors"
)

type chatServiceMock struct {
	posted    dto.ChatMessageRequest
	postErr   error
	stream    chan models.ChatMessage
	released  bool
	subscribe error
}

func (m *chatServiceMock) StartSession(ctx context.Context, req dto.StartChatRequest) (*models.ChatSession, error) {
	return &models.ChatSession{ID: "s1", Status: models.ChatSessionOpen, VisitorName: &req.VisitorName}, nil
}

func (m *chatServiceMock) PostVisitorMessage(ctx context.Context, sessionID string, req dto.ChatMessageRequest) (*models.ChatMessage, error) {
	m.posted = req
	if m.postErr != nil {
		return nil, m.postErr
	}
	return &models.ChatMessage{ID: "m1", SessionID: sessionID, Sender: models.ChatSenderVisitor, Body: req.Body}, nil
}

func (m *chatServiceMock) Reply(ctx context.Context, sessionID string, req dto.ChatMessageRequest) (*models.ChatMessage, error) {
	return &models.ChatMessage{ID: "m2", SessionID: sessionID, Sender: models.ChatSenderStaff, Body: req.Body}, nil
}

func (m *chatServiceMock) History(ctx context.Context, sessionID string) ([]models.ChatMessage, error) {
	return []models.ChatMessage{}, nil
}

func (m *chatServiceMock) Subscribe(ctx context.Context, sessionID string) (<-chan models.ChatMessage, func(), error) {
	if m.subscribe != nil {
		return nil, nil, m.subscribe
	}
	return m.stream, func() { m.released = true }, nil
}

func (m *chatServiceMock) ListOpen(ctx context.Context) ([]models.ChatSession, error) {
	return nil, nil
}

func (m *chatServiceMock) Close(ctx context.Context, sessionID string) error { return nil }

func TestChatHandlerStart(t *testing.T) {
	h := NewChatHandler(&chatServiceMock{})
	c, w := newTestContext(t, http.MethodPost, "/chat/sessions", map[string]string{"visitor_name": "Sari"})

	h.Start(c)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), `"id":"s1"`)
}

func TestChatHandlerPostMessageClosedSession(t *testing.T) {
	svc := &chatServiceMock{postErr: appErrors.Clone(appErrors.ErrConflict, "chat session is closed")}
	h := NewChatHandler(svc)
	c, w := newTestContext(t, http.MethodPost, "/chat/sessions/s1/messages", map[string]string{"body": "halo"})
	c.Params = append(c.Params, ginParam("sessionId", "s1"))

	h.PostMessage(c)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "halo", svc.posted.Body)
}

func TestChatHandlerStreamWritesEvents(t *testing.T) {
	stream := make(chan models.ChatMessage, 1)
	stream <- models.ChatMessage{ID: "m9", SessionID: "s1", Sender: models.ChatSenderStaff, Body: "Hi there"}
	close(stream)

	svc := &chatServiceMock{stream: stream}
	h := NewChatHandler(svc)
	h.heartbeat = time.Hour

	gin.SetMode(gin.TestMode)
	w := newStreamRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/chat/sessions/s1/stream", nil)
	c.Params = gin.Params{ginParam("sessionId", "s1")}

	h.Stream(c)

	body := w.Body.String()
	assert.Contains(t, body, "event:ready")
	assert.Contains(t, body, "event:message")
	assert.Contains(t, body, "Hi there")
	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))
	assert.True(t, svc.released)
}

func TestChatHandlerStreamUnknownSession(t *testing.T) {
	h := NewChatHandler(&chatServiceMock{subscribe: appErrors.Clone(appErrors.ErrNotFound, "chat session not found")})
	c, w := newTestContext(t, http.MethodGet, "/chat/sessions/nope/stream", nil)
	c.Params = append(c.Params, ginParam("sessionId", "nope"))

	h.Stream(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
