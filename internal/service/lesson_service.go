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

type lessonRepository interface {
	ListByCourse(ctx context.Context, courseID string, includeDrafts bool) ([]models.Lesson, error)
	FindByID(ctx context.Context, id string) (*models.Lesson, error)
	Create(ctx context.Context, lesson *models.Lesson) error
	Update(ctx context.Context, lesson *models.Lesson) error
	Delete(ctx context.Context, id string) error
}

type courseFinder interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
}

// LessonService manages course lessons.
type LessonService struct {
	repo      lessonRepository
	courses   courseFinder
	validator *validation.Validator
	logger    *zap.Logger
}

// NewLessonService constructs the service.
func NewLessonService(repo lessonRepository, courses courseFinder, validator *validation.Validator, logger *zap.Logger) *LessonService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validator == nil {
		validator = validation.New("en")
	}
	return &LessonService{repo: repo, courses: courses, validator: validator, logger: logger}
}

// ListPublished returns a course's published lessons by position.
func (s *LessonService) ListPublished(ctx context.Context, courseID string) ([]models.Lesson, error) {
	return s.list(ctx, courseID, false)
}

// ListAll returns every lesson of a course including drafts.
func (s *LessonService) ListAll(ctx context.Context, courseID string) ([]models.Lesson, error) {
	return s.list(ctx, courseID, true)
}

// Get returns a lesson. Drafts are visible only when includeDrafts is set.
func (s *LessonService) Get(ctx context.Context, id string, includeDrafts bool) (*models.Lesson, error) {
	lesson, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "lesson not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lesson")
	}
	if !lesson.IsPublished && !includeDrafts {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "lesson not found")
	}
	return lesson, nil
}

// Create adds a lesson to a course.
func (s *LessonService) Create(ctx context.Context, courseID string, req dto.LessonRequest) (*models.Lesson, error) {
	if err := validateStruct(s.validator, req, "invalid lesson payload"); err != nil {
		return nil, err
	}
	if _, err := s.courses.FindByID(ctx, courseID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	lesson := lessonFromRequest(req)
	lesson.CourseID = courseID
	if err := s.repo.Create(ctx, lesson); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create lesson")
	}
	return lesson, nil
}

// Update replaces a lesson's content.
func (s *LessonService) Update(ctx context.Context, id string, req dto.LessonRequest) (*models.Lesson, error) {
	if err := validateStruct(s.validator, req, "invalid lesson payload"); err != nil {
		return nil, err
	}
	existing, err := s.Get(ctx, id, true)
	if err != nil {
		return nil, err
	}
	lesson := lessonFromRequest(req)
	lesson.ID = existing.ID
	lesson.CourseID = existing.CourseID
	lesson.CreatedAt = existing.CreatedAt
	if err := s.repo.Update(ctx, lesson); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update lesson")
	}
	return lesson, nil
}

// Delete removes a lesson.
func (s *LessonService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "lesson not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete lesson")
	}
	return nil
}

func (s *LessonService) list(ctx context.Context, courseID string, includeDrafts bool) ([]models.Lesson, error) {
	lessons, err := s.repo.ListByCourse(ctx, courseID, includeDrafts)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list lessons")
	}
	if lessons == nil {
		lessons = []models.Lesson{}
	}
	return lessons, nil
}

func lessonFromRequest(req dto.LessonRequest) *models.Lesson {
	return &models.Lesson{
		Title:       strings.TrimSpace(req.Title),
		Summary:     strings.TrimSpace(req.Summary),
		Content:     req.Content,
		VideoURL:    trimmedOrNil(req.VideoURL),
		Position:    req.Position,
		IsPublished: req.IsPublished,
	}
}
