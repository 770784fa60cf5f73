package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kodkids/site-api/internal/models"
	"github.com/kodkids/site-api/internal/registration"
	appErrors "github.com/kodkids/site-api/pkg/errors"
	"github.com/kodkids/site-api/pkg/export"
)

type registrationServiceMock struct {
	options      *registration.Options
	optionsErr   error
	submitted    registration.Values
	submitErr    error
	listFilter   models.RegistrationFilter
	list         []models.Registration
	total        int
	exportFormat export.Format
}

func (m *registrationServiceMock) Options(ctx context.Context, courseID, location string) (*registration.Options, error) {
	if m.optionsErr != nil {
		return nil, m.optionsErr
	}
	opts := *m.options
	opts.CourseID = courseID
	opts.Location = location
	return &opts, nil
}

func (m *registrationServiceMock) Submit(ctx context.Context, values registration.Values) (*models.Registration, error) {
	m.submitted = values
	if m.submitErr != nil {
		return nil, m.submitErr
	}
	return &models.Registration{ID: "reg-1", Name: values.Name, Course: values.Course, Status: models.RegistrationStatusNew}, nil
}

func (m *registrationServiceMock) List(ctx context.Context, filter models.RegistrationFilter) ([]models.Registration, int, error) {
	m.listFilter = filter
	return m.list, m.total, nil
}

func (m *registrationServiceMock) Get(ctx context.Context, id string) (*models.Registration, error) {
	return nil, appErrors.Clone(appErrors.ErrNotFound, "registration not found")
}

func (m *registrationServiceMock) UpdateStatus(ctx context.Context, id string, status models.RegistrationStatus) (*models.Registration, error) {
	return &models.Registration{ID: id, Status: status}, nil
}

func (m *registrationServiceMock) Export(ctx context.Context, filter models.RegistrationFilter, format export.Format) ([]byte, error) {
	m.exportFormat = format
	return []byte("id,name\n"), nil
}

func TestRegistrationHandlerOptionsPassesLocation(t *testing.T) {
	svc := &registrationServiceMock{options: &registration.Options{
		Locations: []string{"Center A"},
		TimeSlots: []string{"Sunday 17:00"},
		Periods:   []string{},
		Placeholders: registration.Placeholders{
			Period: registration.PlaceholderNoPeriods,
		},
	}}
	h := NewRegistrationHandler(svc)
	c, w := newTestContext(t, http.MethodGet, "/courses/c1/registration-options?location=Center+A", nil)
	c.Params = append(c.Params, ginParam("id", "c1"))

	h.Options(c)

	require.Equal(t, http.StatusOK, w.Code)
	env := decodeEnvelope(t, w)
	assert.Contains(t, string(env.Data), `"location":"Center A"`)
	assert.Contains(t, string(env.Data), `"period":"no_periods_for_course"`)
}

func TestRegistrationHandlerOptionsNotFound(t *testing.T) {
	h := NewRegistrationHandler(&registrationServiceMock{optionsErr: appErrors.Clone(appErrors.ErrNotFound, "course not found")})
	c, w := newTestContext(t, http.MethodGet, "/courses/missing/registration-options", nil)
	c.Params = append(c.Params, ginParam("id", "missing"))

	h.Options(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRegistrationHandlerSubmitCreated(t *testing.T) {
	svc := &registrationServiceMock{}
	h := NewRegistrationHandler(svc)
	body := map[string]string{
		"name": "Budi", "phone": "081234567890", "email": "budi@example.com", "course": "Scratch Junior",
		"location": "Center A", "grade": "3", "time": "Sunday 17:00", "gender": "male",
	}
	c, w := newTestContext(t, http.MethodPost, "/registrations", body)

	h.Submit(c)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "Scratch Junior", svc.submitted.Course)
	assert.Equal(t, "Sunday 17:00", svc.submitted.Time)
}

func TestRegistrationHandlerSubmitValidationFields(t *testing.T) {
	svc := &registrationServiceMock{submitErr: appErrors.WithFields(appErrors.ErrValidation, map[string]string{"phone": "invalid phone number"})}
	h := NewRegistrationHandler(svc)
	c, w := newTestContext(t, http.MethodPost, "/registrations", map[string]string{"name": "Budi"})

	h.Submit(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
	env := decodeEnvelope(t, w)
	require.NotNil(t, env.Error)
	assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)
	assert.Equal(t, "invalid phone number", env.Error.Fields["phone"])
}

func TestRegistrationHandlerSubmitMalformedBody(t *testing.T) {
	svc := &registrationServiceMock{}
	h := NewRegistrationHandler(svc)
	c, w := newTestContext(t, http.MethodPost, "/registrations", "{not json")

	h.Submit(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, svc.submitted.Name)
}

func TestRegistrationHandlerListPagination(t *testing.T) {
	svc := &registrationServiceMock{list: []models.Registration{{ID: "r1"}}, total: 41}
	h := NewRegistrationHandler(svc)
	c, w := newTestContext(t, http.MethodGet, "/admin/registrations?status=new&page=3&page_size=500", nil)

	h.List(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.RegistrationStatusNew, svc.listFilter.Status)
	assert.Equal(t, 3, svc.listFilter.Page)
	assert.Equal(t, defaultPageSize, svc.listFilter.PageSize)
	env := decodeEnvelope(t, w)
	assert.Equal(t, 41, env.Pagination["total_count"])
}

func TestRegistrationHandlerExportCSV(t *testing.T) {
	svc := &registrationServiceMock{}
	h := NewRegistrationHandler(svc)
	c, w := newTestContext(t, http.MethodGet, "/admin/registrations/export?format=csv", nil)

	h.Export(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, export.FormatCSV, svc.exportFormat)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "registrations-")
	assert.Contains(t, w.Header().Get("Content-Disposition"), ".csv")
}
