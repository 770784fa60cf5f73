package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kodkids/site-api/internal/models"
	"github.com/kodkids/site-api/internal/registration"
	appErrors "github.com/kodkids/site-api/pkg/errors"
	"github.com/kodkids/site-api/pkg/export"
	"github.com/kodkids/site-api/pkg/validation"
)

// optionsTimeout bounds how long the options endpoint waits for schedules and periods. Whatever
// has not arrived by then is treated like a failed fetch.
const optionsTimeout = 3 * time.Second

type registrationRepository interface {
	Create(ctx context.Context, reg *models.Registration) error
	List(ctx context.Context, filter models.RegistrationFilter) ([]models.Registration, int, error)
	ListAll(ctx context.Context, filter models.RegistrationFilter) ([]models.Registration, error)
	FindByID(ctx context.Context, id string) (*models.Registration, error)
	UpdateStatus(ctx context.Context, id string, status models.RegistrationStatus) error
}

type courseCatalog interface {
	List(ctx context.Context) ([]models.Course, bool, error)
	ListSchedules(ctx context.Context, courseID string) ([]models.ScheduleSlot, error)
	ListActivePeriods(ctx context.Context, courseID string) ([]models.LearningPeriod, error)
}

type registrationNotifier interface {
	RegistrationSubmitted(ctx context.Context, reg models.Registration) error
}

// RegistrationService validates and stores course registrations and serves the back office.
type RegistrationService struct {
	repo      registrationRepository
	catalog   courseCatalog
	notifier  registrationNotifier
	validator *validation.Validator
	exporters map[export.Format]export.Renderer
	metrics   *MetricsService
	logger    *zap.Logger
}

// NewRegistrationService constructs the service.
func NewRegistrationService(repo registrationRepository, catalog courseCatalog, notifier registrationNotifier, validator *validation.Validator, metrics *MetricsService, logger *zap.Logger) *RegistrationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validator == nil {
		validator = validation.New("en")
	}
	return &RegistrationService{
		repo:      repo,
		catalog:   catalog,
		notifier:  notifier,
		validator: validator,
		exporters: map[export.Format]export.Renderer{
			export.FormatCSV: export.NewCSVExporter(),
			export.FormatPDF: export.NewPDFExporter(),
		},
		metrics: metrics,
		logger:  logger,
	}
}

// Options opens a registration form for courseID, selects location when given and returns the
// resulting option lists.
func (s *RegistrationService) Options(ctx context.Context, courseID, location string) (*registration.Options, error) {
	courses, _, err := s.catalog.List(ctx)
	if err != nil {
		return nil, err
	}
	form := registration.NewForm(s.catalog, registration.Config{SelectedCourseID: courseID, Courses: courses}, s.logger)
	defer form.Close()

	if err := form.Open(ctx); err != nil {
		if errors.Is(err, registration.ErrUnknownCourse) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open registration form")
	}

	waitCtx, cancel := context.WithTimeout(ctx, optionsTimeout)
	defer cancel()
	if err := form.Wait(waitCtx); err != nil {
		s.logger.Warn("registration options incomplete", zap.String("course_id", courseID), zap.Error(err))
	}

	form.SelectLocation(strings.TrimSpace(location))
	opts := form.Options()
	return &opts, nil
}

// Submit validates values and stores them as a new registration. Validation failures carry one
// message per field and nothing is written. Storage failures surface as a single generic error.
func (s *RegistrationService) Submit(ctx context.Context, values registration.Values) (*models.Registration, error) {
	values = values.Normalize()
	if err := validateStruct(s.validator, values, "please check the highlighted fields"); err != nil {
		s.metrics.RecordRegistration("invalid")
		return nil, err
	}

	reg := &models.Registration{
		Name:     values.Name,
		Phone:    values.Phone,
		Email:    values.Email,
		Course:   values.Course,
		Location: values.Location,
		Grade:    values.Grade,
		Time:     values.Time,
		Gender:   values.Gender,
		Period:   optional(values.Period),
		Message:  optional(values.Message),
		Status:   models.RegistrationStatusNew,
	}
	if err := s.repo.Create(ctx, reg); err != nil {
		s.metrics.RecordRegistration("failed")
		s.logger.Error("failed to store registration", zap.String("course", reg.Course), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrRegistrationFailed.Code, appErrors.ErrRegistrationFailed.Status, appErrors.ErrRegistrationFailed.Message)
	}
	s.metrics.RecordRegistration("accepted")

	if s.notifier != nil {
		if err := s.notifier.RegistrationSubmitted(ctx, *reg); err != nil {
			s.logger.Warn("failed to enqueue registration notification", zap.String("registration_id", reg.ID), zap.Error(err))
		}
	}
	return reg, nil
}

// List returns registrations for the back office.
func (s *RegistrationService) List(ctx context.Context, filter models.RegistrationFilter) ([]models.Registration, int, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, 0, appErrors.Clone(appErrors.ErrValidation, "unknown registration status")
	}
	regs, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list registrations")
	}
	if regs == nil {
		regs = []models.Registration{}
	}
	return regs, total, nil
}

// Get returns a single registration.
func (s *RegistrationService) Get(ctx context.Context, id string) (*models.Registration, error) {
	reg, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "registration not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load registration")
	}
	return reg, nil
}

// UpdateStatus records office follow-up and returns the updated registration.
func (s *RegistrationService) UpdateStatus(ctx context.Context, id string, status models.RegistrationStatus) (*models.Registration, error) {
	if !status.Valid() {
		return nil, appErrors.WithFields(appErrors.ErrValidation, map[string]string{"status": "must be one of: new contacted enrolled cancelled"})
	}
	if err := s.repo.UpdateStatus(ctx, id, status); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "registration not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update registration")
	}
	return s.Get(ctx, id)
}

// Export renders the filtered registrations as CSV or PDF.
func (s *RegistrationService) Export(ctx context.Context, filter models.RegistrationFilter, format export.Format) ([]byte, error) {
	renderer, ok := s.exporters[format]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported export format")
	}
	regs, err := s.repo.ListAll(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load registrations")
	}
	body, err := renderer.Render(registrationDataset(regs))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}
	return body, nil
}

var registrationExportHeaders = []string{"Submitted", "Name", "Phone", "Email", "Course", "Location", "Time", "Period", "Grade", "Gender", "Status", "Message"}

func registrationDataset(regs []models.Registration) export.Dataset {
	rows := make([]map[string]string, 0, len(regs))
	for _, reg := range regs {
		rows = append(rows, map[string]string{
			"Submitted": reg.CreatedAt.Format("2006-01-02 15:04"),
			"Name":      reg.Name,
			"Phone":     reg.Phone,
			"Email":     reg.Email,
			"Course":    reg.Course,
			"Location":  reg.Location,
			"Time":      reg.Time,
			"Period":    deref(reg.Period),
			"Grade":     reg.Grade,
			"Gender":    reg.Gender,
			"Status":    string(reg.Status),
			"Message":   deref(reg.Message),
		})
	}
	return export.Dataset{Title: "Registrations", Headers: registrationExportHeaders, Rows: rows}
}

func optional(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}

func deref(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
