package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/kodkids/site-api/internal/dto"
	"github.com/kodkids/site-api/internal/models"
	appErrors "github.com/kodkids/site-api/pkg/errors"
	"github.com/kodkids/site-api/pkg/validation"
)

type chatRepository interface {
	CreateSession(ctx context.Context, session *models.ChatSession) error
	FindSession(ctx context.Context, id string) (*models.ChatSession, error)
	ListSessions(ctx context.Context, status models.ChatSessionStatus) ([]models.ChatSession, error)
	UpdateSessionStatus(ctx context.Context, id string, status models.ChatSessionStatus) error
	AddMessage(ctx context.Context, msg *models.ChatMessage) error
	ListMessages(ctx context.Context, sessionID string, limit int) ([]models.ChatMessage, error)
}

// ChatBroker fans out new messages to live subscribers of a session.
type ChatBroker interface {
	Publish(ctx context.Context, msg models.ChatMessage) error
	Subscribe(ctx context.Context, sessionID string) (<-chan models.ChatMessage, func(), error)
}

type siteCopyReader interface {
	Value(ctx context.Context, key string) string
}

// ChatService runs the site chat widget.
type ChatService struct {
	repo         chatRepository
	broker       ChatBroker
	copy         siteCopyReader
	historyLimit int
	validator    *validation.Validator
	metrics      *MetricsService
	logger       *zap.Logger
}

// NewChatService constructs the service. copy may be nil, in which case no welcome message is sent.
func NewChatService(repo chatRepository, broker ChatBroker, copy siteCopyReader, historyLimit int, validator *validation.Validator, metrics *MetricsService, logger *zap.Logger) *ChatService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validator == nil {
		validator = validation.New("en")
	}
	if historyLimit <= 0 {
		historyLimit = 100
	}
	return &ChatService{repo: repo, broker: broker, copy: copy, historyLimit: historyLimit, validator: validator, metrics: metrics, logger: logger}
}

// StartSession opens a session for a visitor. The configured welcome text is posted as the
// first staff message.
func (s *ChatService) StartSession(ctx context.Context, req dto.StartChatRequest) (*models.ChatSession, error) {
	if err := validateStruct(s.validator, req, "invalid chat payload"); err != nil {
		return nil, err
	}
	session := &models.ChatSession{
		VisitorName:  optional(strings.TrimSpace(req.VisitorName)),
		VisitorEmail: optional(strings.TrimSpace(req.VisitorEmail)),
	}
	if err := s.repo.CreateSession(ctx, session); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to start chat")
	}
	if s.copy != nil {
		if welcome := s.copy.Value(ctx, SiteKeyChatWelcome); welcome != "" {
			msg := &models.ChatMessage{SessionID: session.ID, Sender: models.ChatSenderStaff, Body: welcome}
			if err := s.repo.AddMessage(ctx, msg); err != nil {
				s.logger.Warn("failed to post chat welcome", zap.String("session_id", session.ID), zap.Error(err))
			}
		}
	}
	return session, nil
}

// PostVisitorMessage adds a visitor message to an open session.
func (s *ChatService) PostVisitorMessage(ctx context.Context, sessionID string, req dto.ChatMessageRequest) (*models.ChatMessage, error) {
	return s.post(ctx, sessionID, models.ChatSenderVisitor, req)
}

// Reply adds a staff message to an open session.
func (s *ChatService) Reply(ctx context.Context, sessionID string, req dto.ChatMessageRequest) (*models.ChatMessage, error) {
	return s.post(ctx, sessionID, models.ChatSenderStaff, req)
}

// History returns the latest messages of a session in chronological order.
func (s *ChatService) History(ctx context.Context, sessionID string) ([]models.ChatMessage, error) {
	if _, err := s.findSession(ctx, sessionID); err != nil {
		return nil, err
	}
	messages, err := s.repo.ListMessages(ctx, sessionID, s.historyLimit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load chat history")
	}
	if messages == nil {
		messages = []models.ChatMessage{}
	}
	return messages, nil
}

// Subscribe streams new messages of a session. The returned func releases the subscription and
// must be called.
func (s *ChatService) Subscribe(ctx context.Context, sessionID string) (<-chan models.ChatMessage, func(), error) {
	if _, err := s.findSession(ctx, sessionID); err != nil {
		return nil, nil, err
	}
	ch, cancel, err := s.broker.Subscribe(ctx, sessionID)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to subscribe to chat")
	}
	closed := s.metrics.ChatStreamOpened()
	return ch, func() {
		cancel()
		closed()
	}, nil
}

// ListOpen returns sessions still waiting for staff, most recently active first.
func (s *ChatService) ListOpen(ctx context.Context) ([]models.ChatSession, error) {
	sessions, err := s.repo.ListSessions(ctx, models.ChatSessionOpen)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list chat sessions")
	}
	if sessions == nil {
		sessions = []models.ChatSession{}
	}
	return sessions, nil
}

// Close marks a session closed. Further messages are rejected.
func (s *ChatService) Close(ctx context.Context, sessionID string) error {
	if err := s.repo.UpdateSessionStatus(ctx, sessionID, models.ChatSessionClosed); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "chat session not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to close chat session")
	}
	return nil
}

func (s *ChatService) post(ctx context.Context, sessionID string, sender models.ChatSender, req dto.ChatMessageRequest) (*models.ChatMessage, error) {
	req.Body = strings.TrimSpace(req.Body)
	if err := validateStruct(s.validator, req, "invalid chat message"); err != nil {
		return nil, err
	}
	session, err := s.findSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status == models.ChatSessionClosed {
		return nil, appErrors.Clone(appErrors.ErrConflict, "chat session is closed")
	}
	msg := &models.ChatMessage{SessionID: session.ID, Sender: sender, Body: req.Body}
	if err := s.repo.AddMessage(ctx, msg); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to send chat message")
	}
	if err := s.broker.Publish(ctx, *msg); err != nil {
		s.logger.Warn("failed to publish chat message", zap.String("session_id", session.ID), zap.Error(err))
	}
	return msg, nil
}

func (s *ChatService) findSession(ctx context.Context, id string) (*models.ChatSession, error) {
	session, err := s.repo.FindSession(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "chat session not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load chat session")
	}
	return session, nil
}
