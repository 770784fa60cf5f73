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

// ForumRepository persists lesson forum threads and replies.
type ForumRepository struct {
	db *sqlx.DB
}

// NewForumRepository constructs the repository.
func NewForumRepository(db *sqlx.DB) *ForumRepository {
	return &ForumRepository{db: db}
}

// ListThreads returns a lesson's threads, newest first.
func (r *ForumRepository) ListThreads(ctx context.Context, lessonID string) ([]models.ForumThread, error) {
	const query = `SELECT t.id, t.lesson_id, t.author_id, u.full_name AS author_name, t.title, t.body, t.created_at, t.updated_at
FROM forum_threads t JOIN users u ON u.id = t.author_id
WHERE t.lesson_id = $1 ORDER BY t.created_at DESC`
	var threads []models.ForumThread
	if err := r.db.SelectContext(ctx, &threads, query, lessonID); err != nil {
		return nil, fmt.Errorf("list forum threads: %w", err)
	}
	return threads, nil
}

// FindThread returns a thread.
func (r *ForumRepository) FindThread(ctx context.Context, id string) (*models.ForumThread, error) {
	const query = `SELECT t.id, t.lesson_id, t.author_id, u.full_name AS author_name, t.title, t.body, t.created_at, t.updated_at
FROM forum_threads t JOIN users u ON u.id = t.author_id WHERE t.id = $1`
	var thread models.ForumThread
	if err := r.db.GetContext(ctx, &thread, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find forum thread: %w", err)
	}
	return &thread, nil
}

// ListReplies returns the replies of the given threads, oldest first.
func (r *ForumRepository) ListReplies(ctx context.Context, threadIDs []string) ([]models.ForumReply, error) {
	if len(threadIDs) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In(`SELECT r.id, r.thread_id, r.author_id, u.full_name AS author_name, r.body, r.created_at
FROM forum_replies r JOIN users u ON u.id = r.author_id
WHERE r.thread_id IN (?) ORDER BY r.created_at ASC`, threadIDs)
	if err != nil {
		return nil, fmt.Errorf("build forum replies query: %w", err)
	}
	var replies []models.ForumReply
	if err := r.db.SelectContext(ctx, &replies, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("list forum replies: %w", err)
	}
	return replies, nil
}

// FindReply returns a reply.
func (r *ForumRepository) FindReply(ctx context.Context, id string) (*models.ForumReply, error) {
	const query = `SELECT r.id, r.thread_id, r.author_id, u.full_name AS author_name, r.body, r.created_at
FROM forum_replies r JOIN users u ON u.id = r.author_id WHERE r.id = $1`
	var reply models.ForumReply
	if err := r.db.GetContext(ctx, &reply, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find forum reply: %w", err)
	}
	return &reply, nil
}

// CreateThread inserts a thread.
func (r *ForumRepository) CreateThread(ctx context.Context, thread *models.ForumThread) error {
	if thread.ID == "" {
		thread.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	thread.CreatedAt = now
	thread.UpdatedAt = now
	const query = `INSERT INTO forum_threads (id, lesson_id, author_id, title, body, created_at, updated_at)
VALUES (:id, :lesson_id, :author_id, :title, :body, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, thread); err != nil {
		return fmt.Errorf("create forum thread: %w", err)
	}
	return nil
}

// UpdateThread changes a thread's title and body.
func (r *ForumRepository) UpdateThread(ctx context.Context, thread *models.ForumThread) error {
	thread.UpdatedAt = time.Now().UTC()
	const query = `UPDATE forum_threads SET title = :title, body = :body, updated_at = :updated_at WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, thread)
	if err != nil {
		return fmt.Errorf("update forum thread: %w", err)
	}
	return expectAffected(res)
}

// DeleteThread removes a thread with its replies.
func (r *ForumRepository) DeleteThread(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM forum_threads WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete forum thread: %w", err)
	}
	return expectAffected(res)
}

// CreateReply inserts a reply.
func (r *ForumRepository) CreateReply(ctx context.Context, reply *models.ForumReply) error {
	if reply.ID == "" {
		reply.ID = uuid.NewString()
	}
	reply.CreatedAt = time.Now().UTC()
	const query = `INSERT INTO forum_replies (id, thread_id, author_id, body, created_at)
VALUES (:id, :thread_id, :author_id, :body, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, reply); err != nil {
		return fmt.Errorf("create forum reply: %w", err)
	}
	return nil
}

// DeleteReply removes a reply.
func (r *ForumRepository) DeleteReply(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM forum_replies WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete forum reply: %w", err)
	}
	return expectAffected(res)
}
