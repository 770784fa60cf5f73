package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/kodkids/site-api/internal/models"
)

// ChatRepository persists chat sessions and their messages.
type ChatRepository struct {
	db *sqlx.DB
}

// NewChatRepository constructs the repository.
func NewChatRepository(db *sqlx.DB) *ChatRepository {
	return &ChatRepository{db: db}
}

// CreateSession opens a session.
func (r *ChatRepository) CreateSession(ctx context.Context, session *models.ChatSession) error {
	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	session.Status = models.ChatSessionOpen
	session.CreatedAt = now
	session.LastMessageAt = now
	const query = `INSERT INTO chat_sessions (id, visitor_name, visitor_email, status, created_at, last_message_at)
VALUES (:id, :visitor_name, :visitor_email, :status, :created_at, :last_message_at)`
	if _, err := r.db.NamedExecContext(ctx, query, session); err != nil {
		return fmt.Errorf("create chat session: %w", err)
	}
	return nil
}

// FindSession returns a session.
func (r *ChatRepository) FindSession(ctx context.Context, id string) (*models.ChatSession, error) {
	const query = `SELECT id, visitor_name, visitor_email, status, created_at, last_message_at FROM chat_sessions WHERE id = $1`
	var session models.ChatSession
	if err := r.db.GetContext(ctx, &session, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find chat session: %w", err)
	}
	return &session, nil
}

// ListSessions returns sessions in the given status, most recently active first.
func (r *ChatRepository) ListSessions(ctx context.Context, status models.ChatSessionStatus) ([]models.ChatSession, error) {
	const query = `SELECT id, visitor_name, visitor_email, status, created_at, last_message_at
FROM chat_sessions WHERE status = $1 ORDER BY last_message_at DESC`
	var sessions []models.ChatSession
	if err := r.db.SelectContext(ctx, &sessions, query, status); err != nil {
		return nil, fmt.Errorf("list chat sessions: %w", err)
	}
	return sessions, nil
}

// UpdateSessionStatus opens or closes a session.
func (r *ChatRepository) UpdateSessionStatus(ctx context.Context, id string, status models.ChatSessionStatus) error {
	res, err := r.db.ExecContext(ctx, `UPDATE chat_sessions SET status = $2 WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("update chat session status: %w", err)
	}
	return expectAffected(res)
}

// AddMessage stores a message and bumps the session's activity time in one transaction.
func (r *ChatRepository) AddMessage(ctx context.Context, msg *models.ChatMessage) error {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	msg.CreatedAt = time.Now().UTC()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin chat message tx: %w", err)
	}
	const insert = `INSERT INTO chat_messages (id, session_id, sender, body, created_at)
VALUES (:id, :session_id, :sender, :body, :created_at)`
	if _, err := tx.NamedExecContext(ctx, insert, msg); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("create chat message: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `UPDATE chat_sessions SET last_message_at = $2 WHERE id = $1`, msg.SessionID, msg.CreatedAt); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("touch chat session: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit chat message tx: %w", err)
	}
	return nil
}

// ListMessages returns the latest limit messages of a session in chronological order.
func (r *ChatRepository) ListMessages(ctx context.Context, sessionID string, limit int) ([]models.ChatMessage, error) {
	const query = `SELECT id, session_id, sender, body, created_at FROM (
SELECT id, session_id, sender, body, created_at FROM chat_messages
WHERE session_id = $1 ORDER BY created_at DESC LIMIT $2
) recent ORDER BY created_at ASC`
	var messages []models.ChatMessage
	if err := r.db.SelectContext(ctx, &messages, query, sessionID, limit); err != nil {
		return nil, fmt.Errorf("list chat messages: %w", err)
	}
	return messages, nil
}
