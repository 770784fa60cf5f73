package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kodkids/site-api/internal/dto"
	"github.com/kodkids/site-api/internal/middleware"
	"github.com/kodkids/site-api/internal/models"
	appErrors "github.com/kodkids/site-api/pkg/errors"
)

type courseServiceMock struct {
	courses []models.Course
	hit     bool
	created dto.CourseRequest
}

func (m *courseServiceMock) List(ctx context.Context) ([]models.Course, bool, error) {
	return m.courses, m.hit, nil
}

func (m *courseServiceMock) ListAll(ctx context.Context, search string) ([]models.Course, error) {
	return m.courses, nil
}

func (m *courseServiceMock) Get(ctx context.Context, id string) (*models.CourseDetail, bool, error) {
	for _, course := range m.courses {
		if course.ID == id || course.Slug == id {
			return &models.CourseDetail{Course: course}, m.hit, nil
		}
	}
	return nil, false, appErrors.Clone(appErrors.ErrNotFound, "course not found")
}

func (m *courseServiceMock) Create(ctx context.Context, req dto.CourseRequest) (*models.Course, error) {
	m.created = req
	return &models.Course{ID: "new", Slug: req.Slug, Title: req.Title}, nil
}

func (m *courseServiceMock) Update(ctx context.Context, id string, req dto.CourseRequest) (*models.Course, error) {
	return &models.Course{ID: id, Title: req.Title}, nil
}

func (m *courseServiceMock) Delete(ctx context.Context, id string) error { return nil }

func (m *courseServiceMock) AddSchedule(ctx context.Context, courseID string, req dto.ScheduleSlotRequest) (*models.ScheduleSlot, error) {
	return &models.ScheduleSlot{CourseID: courseID, Location: req.Location}, nil
}

func (m *courseServiceMock) DeleteSchedule(ctx context.Context, courseID, slotID string) error {
	return nil
}

func (m *courseServiceMock) ListPeriods(ctx context.Context, courseID string) ([]models.LearningPeriod, error) {
	return nil, nil
}

func (m *courseServiceMock) CreatePeriod(ctx context.Context, courseID string, req dto.PeriodRequest) (*models.LearningPeriod, error) {
	return &models.LearningPeriod{CourseID: courseID, Name: req.Name}, nil
}

func (m *courseServiceMock) UpdatePeriod(ctx context.Context, courseID, periodID string, req dto.PeriodRequest) (*models.LearningPeriod, error) {
	return &models.LearningPeriod{ID: periodID, CourseID: courseID, Name: req.Name}, nil
}

func (m *courseServiceMock) DeletePeriod(ctx context.Context, courseID, periodID string) error {
	return nil
}

func TestCourseHandlerListReportsCacheHit(t *testing.T) {
	h := NewCourseHandler(&courseServiceMock{courses: []models.Course{{ID: "c1", Title: "Scratch Junior"}}, hit: true})
	c, w := newTestContext(t, http.MethodGet, "/courses", nil)
	middleware.WithResponseMeta()(c)

	h.List(c)

	require.Equal(t, http.StatusOK, w.Code)
	env := decodeEnvelope(t, w)
	assert.Equal(t, true, env.Meta["cache_hit"])
	assert.Contains(t, env.Meta, "processing_time_ms")
	assert.Contains(t, string(env.Data), "Scratch Junior")
}

func TestCourseHandlerGetBySlug(t *testing.T) {
	h := NewCourseHandler(&courseServiceMock{courses: []models.Course{{ID: "c1", Slug: "scratch-junior", Title: "Scratch Junior"}}})
	c, w := newTestContext(t, http.MethodGet, "/courses/scratch-junior", nil)
	c.Params = append(c.Params, ginParam("id", "scratch-junior"))

	h.Get(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"id":"c1"`)
}

func TestCourseHandlerGetMissing(t *testing.T) {
	h := NewCourseHandler(&courseServiceMock{})
	c, w := newTestContext(t, http.MethodGet, "/courses/nope", nil)
	c.Params = append(c.Params, ginParam("id", "nope"))

	h.Get(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCourseHandlerCreateRejectsBadJSON(t *testing.T) {
	svc := &courseServiceMock{}
	h := NewCourseHandler(svc)
	c, w := newTestContext(t, http.MethodPost, "/admin/courses", `{"title": 12}`)

	h.Create(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, svc.created.Title)
}
