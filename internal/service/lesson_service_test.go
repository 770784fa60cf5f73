package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kodkids/site-api/internal/dto"
	"github.com/kodkids/site-api/internal/models"
	appErrors "github.com/kodkids/site-api/pkg/errors"
)

type mockLessonRepo struct {
	items     map[string]models.Lesson
	listErr   error
	updateErr error
	drafts    []bool
}

func (m *mockLessonRepo) ListByCourse(ctx context.Context, courseID string, includeDrafts bool) ([]models.Lesson, error) {
	m.drafts = append(m.drafts, includeDrafts)
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []models.Lesson
	for _, lesson := range m.items {
		if lesson.CourseID == courseID && (lesson.IsPublished || includeDrafts) {
			out = append(out, lesson)
		}
	}
	return out, nil
}

func (m *mockLessonRepo) FindByID(ctx context.Context, id string) (*models.Lesson, error) {
	lesson, ok := m.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &lesson, nil
}

func (m *mockLessonRepo) Create(ctx context.Context, lesson *models.Lesson) error {
	lesson.ID = "lesson-new"
	m.items[lesson.ID] = *lesson
	return nil
}

func (m *mockLessonRepo) Update(ctx context.Context, lesson *models.Lesson) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	m.items[lesson.ID] = *lesson
	return nil
}

func (m *mockLessonRepo) Delete(ctx context.Context, id string) error {
	if _, ok := m.items[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.items, id)
	return nil
}

func newLessonServiceForTest() (*LessonService, *mockLessonRepo) {
	repo := &mockLessonRepo{items: map[string]models.Lesson{
		"l-1": {ID: "l-1", CourseID: "c-1", Title: "Sprites", IsPublished: true},
		"l-2": {ID: "l-2", CourseID: "c-1", Title: "Loops", IsPublished: false},
	}}
	courses := &mockCourseRepo{items: map[string]models.Course{"c-1": {ID: "c-1", Slug: "scratch", IsActive: true}}}
	return NewLessonService(repo, courses, nil, nil), repo
}

func TestLessonServiceListPublishedHidesDrafts(t *testing.T) {
	svc, repo := newLessonServiceForTest()

	published, err := svc.ListPublished(context.Background(), "c-1")
	require.NoError(t, err)
	require.Len(t, published, 1)
	assert.Equal(t, "l-1", published[0].ID)

	all, err := svc.ListAll(context.Background(), "c-1")
	require.NoError(t, err)
	assert.Len(t, all, 2)
	assert.Equal(t, []bool{false, true}, repo.drafts)

	empty, err := svc.ListPublished(context.Background(), "c-unknown")
	require.NoError(t, err)
	require.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestLessonServiceListFailure(t *testing.T) {
	svc, repo := newLessonServiceForTest()
	repo.listErr = errors.New("connection reset")

	_, err := svc.ListPublished(context.Background(), "c-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInternal.Code, appErrors.FromError(err).Code)
}

func TestLessonServiceGetDraftVisibility(t *testing.T) {
	svc, _ := newLessonServiceForTest()

	_, err := svc.Get(context.Background(), "l-2", false)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)

	lesson, err := svc.Get(context.Background(), "l-2", true)
	require.NoError(t, err)
	assert.Equal(t, "Loops", lesson.Title)

	_, err = svc.Get(context.Background(), "missing", true)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestLessonServiceCreate(t *testing.T) {
	svc, repo := newLessonServiceForTest()
	video := "https://videos.example.com/loops"

	lesson, err := svc.Create(context.Background(), "c-1", dto.LessonRequest{
		Title:    "  Broadcast messages ",
		VideoURL: &video,
		Position: 3,
	})
	require.NoError(t, err)
	assert.Equal(t, "c-1", lesson.CourseID)
	assert.Equal(t, "Broadcast messages", lesson.Title)
	require.NotNil(t, lesson.VideoURL)
	assert.Equal(t, "https://videos.example.com/loops", *lesson.VideoURL)
	assert.Contains(t, repo.items, "lesson-new")
}

func TestLessonServiceCreateRejectsInvalidPayload(t *testing.T) {
	svc, repo := newLessonServiceForTest()

	_, err := svc.Create(context.Background(), "c-1", dto.LessonRequest{Position: -1})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	assert.Contains(t, appErr.Fields, "title")
	assert.Len(t, repo.items, 2)
}

func TestLessonServiceCreateUnknownCourse(t *testing.T) {
	svc, _ := newLessonServiceForTest()

	_, err := svc.Create(context.Background(), "c-404", dto.LessonRequest{Title: "Orphan"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestLessonServiceUpdateKeepsOwnership(t *testing.T) {
	svc, repo := newLessonServiceForTest()

	lesson, err := svc.Update(context.Background(), "l-2", dto.LessonRequest{Title: "Loops and timers", IsPublished: true})
	require.NoError(t, err)
	assert.Equal(t, "l-2", lesson.ID)
	assert.Equal(t, "c-1", lesson.CourseID)
	assert.True(t, repo.items["l-2"].IsPublished)

	repo.updateErr = errors.New("deadlock")
	_, err = svc.Update(context.Background(), "l-2", dto.LessonRequest{Title: "Again"})
	assert.Equal(t, appErrors.ErrInternal.Code, appErrors.FromError(err).Code)
}

func TestLessonServiceDelete(t *testing.T) {
	svc, repo := newLessonServiceForTest()

	require.NoError(t, svc.Delete(context.Background(), "l-1"))
	assert.NotContains(t, repo.items, "l-1")

	err := svc.Delete(context.Background(), "l-1")
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
