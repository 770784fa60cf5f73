package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kodkids/site-api/internal/dto"
	"github.com/kodkids/site-api/internal/models"
	"github.com/kodkids/site-api/internal/repository"
	appErrors "github.com/kodkids/site-api/pkg/errors"
)

type mockChatRepo struct {
	sessions map[string]models.ChatSession
	messages []models.ChatMessage
}

func (m *mockChatRepo) CreateSession(ctx context.Context, session *models.ChatSession) error {
	session.ID = "session-1"
	session.Status = models.ChatSessionOpen
	m.sessions[session.ID] = *session
	return nil
}

func (m *mockChatRepo) FindSession(ctx context.Context, id string) (*models.ChatSession, error) {
	session, ok := m.sessions[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &session, nil
}

func (m *mockChatRepo) ListSessions(ctx context.Context, status models.ChatSessionStatus) ([]models.ChatSession, error) {
	var out []models.ChatSession
	for _, session := range m.sessions {
		if session.Status == status {
			out = append(out, session)
		}
	}
	return out, nil
}

func (m *mockChatRepo) UpdateSessionStatus(ctx context.Context, id string, status models.ChatSessionStatus) error {
	session, ok := m.sessions[id]
	if !ok {
		return sql.ErrNoRows
	}
	session.Status = status
	m.sessions[id] = session
	return nil
}

func (m *mockChatRepo) AddMessage(ctx context.Context, msg *models.ChatMessage) error {
	msg.ID = "msg-" + string(rune('a'+len(m.messages)))
	m.messages = append(m.messages, *msg)
	return nil
}

func (m *mockChatRepo) ListMessages(ctx context.Context, sessionID string, limit int) ([]models.ChatMessage, error) {
	var out []models.ChatMessage
	for _, msg := range m.messages {
		if msg.SessionID == sessionID {
			out = append(out, msg)
		}
	}
	if len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

type staticCopy map[string]string

func (s staticCopy) Value(ctx context.Context, key string) string { return s[key] }

func newChatServiceForTest() (*ChatService, *mockChatRepo) {
	repo := &mockChatRepo{sessions: map[string]models.ChatSession{}}
	broker := repository.NewLocalChatBroker(nil)
	return NewChatService(repo, broker, staticCopy{SiteKeyChatWelcome: "Hello!"}, 2, nil, NewMetricsService(), nil), repo
}

func TestChatServiceStartPostsWelcome(t *testing.T) {
	svc, repo := newChatServiceForTest()

	session, err := svc.StartSession(context.Background(), dto.StartChatRequest{VisitorName: " Ana "})
	require.NoError(t, err)
	assert.Equal(t, "session-1", session.ID)
	require.NotNil(t, session.VisitorName)
	assert.Equal(t, "Ana", *session.VisitorName)

	require.Len(t, repo.messages, 1)
	assert.Equal(t, models.ChatSenderStaff, repo.messages[0].Sender)
	assert.Equal(t, "Hello!", repo.messages[0].Body)
}

func TestChatServiceMessagesReachSubscribers(t *testing.T) {
	svc, _ := newChatServiceForTest()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	session, err := svc.StartSession(ctx, dto.StartChatRequest{})
	require.NoError(t, err)

	stream, release, err := svc.Subscribe(ctx, session.ID)
	require.NoError(t, err)
	defer release()

	_, err = svc.PostVisitorMessage(ctx, session.ID, dto.ChatMessageRequest{Body: "Is there a trial class?"})
	require.NoError(t, err)
	_, err = svc.Reply(ctx, session.ID, dto.ChatMessageRequest{Body: "Yes, every Saturday."})
	require.NoError(t, err)

	for _, want := range []models.ChatSender{models.ChatSenderVisitor, models.ChatSenderStaff} {
		select {
		case msg := <-stream:
			assert.Equal(t, want, msg.Sender)
		case <-time.After(time.Second):
			t.Fatalf("no %s message received", want)
		}
	}
}

func TestChatServiceHistoryIsLimited(t *testing.T) {
	svc, _ := newChatServiceForTest()
	ctx := context.Background()
	session, err := svc.StartSession(ctx, dto.StartChatRequest{})
	require.NoError(t, err)

	for _, body := range []string{"one", "two", "three"} {
		_, err := svc.PostVisitorMessage(ctx, session.ID, dto.ChatMessageRequest{Body: body})
		require.NoError(t, err)
	}

	history, err := svc.History(ctx, session.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "two", history[0].Body)
	assert.Equal(t, "three", history[1].Body)
}

func TestChatServiceClosedSessionRejectsMessages(t *testing.T) {
	svc, _ := newChatServiceForTest()
	ctx := context.Background()
	session, err := svc.StartSession(ctx, dto.StartChatRequest{})
	require.NoError(t, err)

	open, err := svc.ListOpen(ctx)
	require.NoError(t, err)
	assert.Len(t, open, 1)

	require.NoError(t, svc.Close(ctx, session.ID))
	_, err = svc.PostVisitorMessage(ctx, session.ID, dto.ChatMessageRequest{Body: "hello?"})
	assert.True(t, errors.Is(err, appErrors.ErrConflict))

	open, err = svc.ListOpen(ctx)
	require.NoError(t, err)
	assert.Empty(t, open)

	assert.True(t, errors.Is(svc.Close(ctx, "missing"), appErrors.ErrNotFound))
}

func TestChatServiceValidatesMessages(t *testing.T) {
	svc, _ := newChatServiceForTest()
	ctx := context.Background()
	session, err := svc.StartSession(ctx, dto.StartChatRequest{})
	require.NoError(t, err)

	_, err = svc.PostVisitorMessage(ctx, session.ID, dto.ChatMessageRequest{Body: "   "})
	require.Error(t, err)
	assert.Contains(t, appErrors.FromError(err).Fields, "body")

	_, err = svc.PostVisitorMessage(ctx, "missing", dto.ChatMessageRequest{Body: "hi"})
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))

	_, _, err = svc.Subscribe(ctx, "missing")
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
}
