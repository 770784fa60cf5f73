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

type forumRepository interface {
	ListThreads(ctx context.Context, lessonID string) ([]models.ForumThread, error)
	FindThread(ctx context.Context, id string) (*models.ForumThread, error)
	ListReplies(ctx context.Context, threadIDs []string) ([]models.ForumReply, error)
	FindReply(ctx context.Context, id string) (*models.ForumReply, error)
	CreateThread(ctx context.Context, thread *models.ForumThread) error
	UpdateThread(ctx context.Context, thread *models.ForumThread) error
	DeleteThread(ctx context.Context, id string) error
	CreateReply(ctx context.Context, reply *models.ForumReply) error
	DeleteReply(ctx context.Context, id string) error
}

type lessonGetter interface {
	Get(ctx context.Context, id string, includeDrafts bool) (*models.Lesson, error)
}

// ForumService runs the per-lesson discussion threads.
type ForumService struct {
	repo      forumRepository
	lessons   lessonGetter
	validator *validation.Validator
	logger    *zap.Logger
}

// NewForumService constructs the service.
func NewForumService(repo forumRepository, lessons lessonGetter, validator *validation.Validator, logger *zap.Logger) *ForumService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validator == nil {
		validator = validation.New("en")
	}
	return &ForumService{repo: repo, lessons: lessons, validator: validator, logger: logger}
}

// ListThreads returns a lesson's threads newest first, each with its replies oldest first.
func (s *ForumService) ListThreads(ctx context.Context, lessonID string) ([]models.ForumThreadDetail, error) {
	if _, err := s.lessons.Get(ctx, lessonID, false); err != nil {
		return nil, err
	}
	threads, err := s.repo.ListThreads(ctx, lessonID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list threads")
	}
	ids := make([]string, 0, len(threads))
	for _, thread := range threads {
		ids = append(ids, thread.ID)
	}
	replies, err := s.repo.ListReplies(ctx, ids)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list replies")
	}
	byThread := make(map[string][]models.ForumReply, len(threads))
	for _, reply := range replies {
		byThread[reply.ThreadID] = append(byThread[reply.ThreadID], reply)
	}

	result := make([]models.ForumThreadDetail, 0, len(threads))
	for _, thread := range threads {
		threadReplies := byThread[thread.ID]
		if threadReplies == nil {
			threadReplies = []models.ForumReply{}
		}
		result = append(result, models.ForumThreadDetail{ForumThread: thread, Replies: threadReplies})
	}
	return result, nil
}

// CreateThread starts a thread under a published lesson.
func (s *ForumService) CreateThread(ctx context.Context, actor models.UserInfo, lessonID string, req dto.ThreadRequest) (*models.ForumThread, error) {
	if err := validateStruct(s.validator, req, "invalid thread payload"); err != nil {
		return nil, err
	}
	if _, err := s.lessons.Get(ctx, lessonID, false); err != nil {
		return nil, err
	}
	thread := &models.ForumThread{
		LessonID:   lessonID,
		AuthorID:   actor.ID,
		AuthorName: actor.FullName,
		Title:      strings.TrimSpace(req.Title),
		Body:       strings.TrimSpace(req.Body),
	}
	if err := s.repo.CreateThread(ctx, thread); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create thread")
	}
	return thread, nil
}

// UpdateThread edits a thread. Only its author or an admin may edit.
func (s *ForumService) UpdateThread(ctx context.Context, actor models.UserInfo, threadID string, req dto.ThreadRequest) (*models.ForumThread, error) {
	if err := validateStruct(s.validator, req, "invalid thread payload"); err != nil {
		return nil, err
	}
	thread, err := s.findThread(ctx, threadID)
	if err != nil {
		return nil, err
	}
	if !canModerate(actor, thread.AuthorID) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the author can edit this thread")
	}
	thread.Title = strings.TrimSpace(req.Title)
	thread.Body = strings.TrimSpace(req.Body)
	if err := s.repo.UpdateThread(ctx, thread); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update thread")
	}
	return thread, nil
}

// DeleteThread removes a thread with its replies.
func (s *ForumService) DeleteThread(ctx context.Context, actor models.UserInfo, threadID string) error {
	thread, err := s.findThread(ctx, threadID)
	if err != nil {
		return err
	}
	if !canModerate(actor, thread.AuthorID) {
		return appErrors.Clone(appErrors.ErrForbidden, "only the author can delete this thread")
	}
	if err := s.repo.DeleteThread(ctx, threadID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete thread")
	}
	return nil
}

// Reply answers a thread.
func (s *ForumService) Reply(ctx context.Context, actor models.UserInfo, threadID string, req dto.ReplyRequest) (*models.ForumReply, error) {
	if err := validateStruct(s.validator, req, "invalid reply payload"); err != nil {
		return nil, err
	}
	thread, err := s.findThread(ctx, threadID)
	if err != nil {
		return nil, err
	}
	reply := &models.ForumReply{
		ThreadID:   thread.ID,
		AuthorID:   actor.ID,
		AuthorName: actor.FullName,
		Body:       strings.TrimSpace(req.Body),
	}
	if err := s.repo.CreateReply(ctx, reply); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create reply")
	}
	return reply, nil
}

// DeleteReply removes a reply. Only its author or an admin may delete.
func (s *ForumService) DeleteReply(ctx context.Context, actor models.UserInfo, replyID string) error {
	reply, err := s.repo.FindReply(ctx, replyID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "reply not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load reply")
	}
	if !canModerate(actor, reply.AuthorID) {
		return appErrors.Clone(appErrors.ErrForbidden, "only the author can delete this reply")
	}
	if err := s.repo.DeleteReply(ctx, replyID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete reply")
	}
	return nil
}

func (s *ForumService) findThread(ctx context.Context, id string) (*models.ForumThread, error) {
	thread, err := s.repo.FindThread(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "thread not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load thread")
	}
	return thread, nil
}

func canModerate(actor models.UserInfo, authorID string) bool {
	return actor.Role == models.RoleAdmin || (actor.ID != "" && actor.ID == authorID)
}
