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

const (
	catalogListKey    = "catalog:courses"
	catalogDetailKey  = "catalog:course:"
	catalogKeyPattern = "catalog:*"
)

type courseRepository interface {
	List(ctx context.Context, filter models.CourseFilter) ([]models.Course, error)
	FindByID(ctx context.Context, id string) (*models.Course, error)
	Create(ctx context.Context, course *models.Course) error
	Update(ctx context.Context, course *models.Course) error
	Delete(ctx context.Context, id string) error
}

type scheduleRepository interface {
	ListByCourse(ctx context.Context, courseID string) ([]models.ScheduleSlot, error)
	Create(ctx context.Context, slot *models.ScheduleSlot) error
	Delete(ctx context.Context, courseID, id string) error
}

type periodRepository interface {
	ListActiveByCourse(ctx context.Context, courseID string) ([]models.LearningPeriod, error)
	ListByCourse(ctx context.Context, courseID string) ([]models.LearningPeriod, error)
	Create(ctx context.Context, period *models.LearningPeriod) error
	Update(ctx context.Context, period *models.LearningPeriod) error
	Delete(ctx context.Context, courseID, id string) error
}

// CourseService serves the course catalog and its back-office management.
type CourseService struct {
	courses   courseRepository
	schedules scheduleRepository
	periods   periodRepository
	cache     *CacheService
	validator *validation.Validator
	logger    *zap.Logger
}

// NewCourseService constructs the service.
func NewCourseService(courses courseRepository, schedules scheduleRepository, periods periodRepository, cache *CacheService, validator *validation.Validator, logger *zap.Logger) *CourseService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validator == nil {
		validator = validation.New("en")
	}
	return &CourseService{courses: courses, schedules: schedules, periods: periods, cache: cache, validator: validator, logger: logger}
}

// List returns the active courses. The bool reports whether the result came from cache.
func (s *CourseService) List(ctx context.Context) ([]models.Course, bool, error) {
	courses, hit, err := cached(ctx, s.cache, catalogListKey, func(ctx context.Context) ([]models.Course, error) {
		return s.courses.List(ctx, models.CourseFilter{})
	})
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
	}
	if courses == nil {
		courses = []models.Course{}
	}
	return courses, hit, nil
}

// ListAll returns every course including inactive ones, for the back office.
func (s *CourseService) ListAll(ctx context.Context, search string) ([]models.Course, error) {
	courses, err := s.courses.List(ctx, models.CourseFilter{IncludeInactive: true, Search: strings.TrimSpace(search)})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
	}
	return courses, nil
}

// Get returns an active course with its schedule and active periods.
func (s *CourseService) Get(ctx context.Context, id string) (*models.CourseDetail, bool, error) {
	detail, hit, err := cached(ctx, s.cache, catalogDetailKey+id, func(ctx context.Context) (*models.CourseDetail, error) {
		course, err := s.findCourse(ctx, id)
		if err != nil {
			return nil, err
		}
		if !course.IsActive {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		slots, err := s.schedules.ListByCourse(ctx, course.ID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course schedule")
		}
		periods, err := s.periods.ListActiveByCourse(ctx, course.ID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course periods")
		}
		if slots == nil {
			slots = []models.ScheduleSlot{}
		}
		if periods == nil {
			periods = []models.LearningPeriod{}
		}
		return &models.CourseDetail{Course: *course, Schedules: slots, Periods: periods}, nil
	})
	if err != nil {
		return nil, false, err
	}
	return detail, hit, nil
}

// ListSchedules loads a course's slots. Always read from the store so the registration form sees
// fresh data for every course selection.
func (s *CourseService) ListSchedules(ctx context.Context, courseID string) ([]models.ScheduleSlot, error) {
	return s.schedules.ListByCourse(ctx, courseID)
}

// ListActivePeriods loads a course's active periods ordered by start date.
func (s *CourseService) ListActivePeriods(ctx context.Context, courseID string) ([]models.LearningPeriod, error) {
	return s.periods.ListActiveByCourse(ctx, courseID)
}

// Create adds a course.
func (s *CourseService) Create(ctx context.Context, req dto.CourseRequest) (*models.Course, error) {
	if err := validateStruct(s.validator, req, "invalid course payload"); err != nil {
		return nil, err
	}
	course := courseFromRequest(req)
	if err := s.courses.Create(ctx, course); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create course")
	}
	s.invalidate(ctx)
	return course, nil
}

// Update replaces a course's fields.
func (s *CourseService) Update(ctx context.Context, id string, req dto.CourseRequest) (*models.Course, error) {
	if err := validateStruct(s.validator, req, "invalid course payload"); err != nil {
		return nil, err
	}
	existing, err := s.findCourse(ctx, id)
	if err != nil {
		return nil, err
	}
	course := courseFromRequest(req)
	course.ID = existing.ID
	course.CreatedAt = existing.CreatedAt
	if req.IsActive == nil {
		course.IsActive = existing.IsActive
	}
	if err := s.courses.Update(ctx, course); err != nil {
		return nil, s.writeError(err, "course not found", "failed to update course")
	}
	s.invalidate(ctx)
	return course, nil
}

// Delete removes a course.
func (s *CourseService) Delete(ctx context.Context, id string) error {
	if err := s.courses.Delete(ctx, id); err != nil {
		return s.writeError(err, "course not found", "failed to delete course")
	}
	s.invalidate(ctx)
	return nil
}

// AddSchedule adds a slot to a course.
func (s *CourseService) AddSchedule(ctx context.Context, courseID string, req dto.ScheduleSlotRequest) (*models.ScheduleSlot, error) {
	if err := validateStruct(s.validator, req, "invalid schedule payload"); err != nil {
		return nil, err
	}
	course, err := s.findCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	slot := &models.ScheduleSlot{
		CourseID:  course.ID,
		Location:  strings.TrimSpace(req.Location),
		DayOfWeek: strings.TrimSpace(req.DayOfWeek),
		StartTime: strings.TrimSpace(req.StartTime),
		EndTime:   trimmedOrNil(req.EndTime),
	}
	if err := s.schedules.Create(ctx, slot); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create schedule")
	}
	s.invalidate(ctx)
	return slot, nil
}

// DeleteSchedule removes a slot from a course.
func (s *CourseService) DeleteSchedule(ctx context.Context, courseID, slotID string) error {
	if err := s.schedules.Delete(ctx, courseID, slotID); err != nil {
		return s.writeError(err, "schedule not found", "failed to delete schedule")
	}
	s.invalidate(ctx)
	return nil
}

// ListPeriods returns every period of a course, including inactive ones.
func (s *CourseService) ListPeriods(ctx context.Context, courseID string) ([]models.LearningPeriod, error) {
	periods, err := s.periods.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list periods")
	}
	return periods, nil
}

// CreatePeriod adds a learning period to a course.
func (s *CourseService) CreatePeriod(ctx context.Context, courseID string, req dto.PeriodRequest) (*models.LearningPeriod, error) {
	if err := validateStruct(s.validator, req, "invalid period payload"); err != nil {
		return nil, err
	}
	course, err := s.findCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	period := periodFromRequest(req)
	period.CourseID = course.ID
	if err := s.periods.Create(ctx, period); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create period")
	}
	s.invalidate(ctx)
	return period, nil
}

// UpdatePeriod replaces a learning period.
func (s *CourseService) UpdatePeriod(ctx context.Context, courseID, periodID string, req dto.PeriodRequest) (*models.LearningPeriod, error) {
	if err := validateStruct(s.validator, req, "invalid period payload"); err != nil {
		return nil, err
	}
	period := periodFromRequest(req)
	period.ID = periodID
	period.CourseID = courseID
	if err := s.periods.Update(ctx, period); err != nil {
		return nil, s.writeError(err, "period not found", "failed to update period")
	}
	s.invalidate(ctx)
	return period, nil
}

// DeletePeriod removes a learning period.
func (s *CourseService) DeletePeriod(ctx context.Context, courseID, periodID string) error {
	if err := s.periods.Delete(ctx, courseID, periodID); err != nil {
		return s.writeError(err, "period not found", "failed to delete period")
	}
	s.invalidate(ctx)
	return nil
}

func (s *CourseService) findCourse(ctx context.Context, id string) (*models.Course, error) {
	course, err := s.courses.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	return course, nil
}

func (s *CourseService) writeError(err error, notFound, failed string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrNotFound, notFound)
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, failed)
}

func (s *CourseService) invalidate(ctx context.Context) {
	_ = s.cache.Invalidate(ctx, catalogKeyPattern)
}

func courseFromRequest(req dto.CourseRequest) *models.Course {
	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	return &models.Course{
		Slug:              strings.TrimSpace(req.Slug),
		Title:             strings.TrimSpace(req.Title),
		Subtitle:          strings.TrimSpace(req.Subtitle),
		Description:       req.Description,
		ImageURL:          trimmedOrNil(req.ImageURL),
		PriceIDR:          req.PriceIDR,
		FallbackLocations: nonNil(req.FallbackLocations),
		FallbackTimeSlots: nonNil(req.FallbackTimeSlots),
		IsActive:          active,
	}
}

func periodFromRequest(req dto.PeriodRequest) *models.LearningPeriod {
	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	return &models.LearningPeriod{
		Name:      strings.TrimSpace(req.Name),
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
		IsActive:  active,
	}
}

func trimmedOrNil(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
