package registration

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/kodkids/site-api/internal/models"
)

// Placeholder reasons reported when an option list is empty.
const (
	PlaceholderSelectCourse   = "select_course_first"
	PlaceholderSelectLocation = "select_location_first"
	PlaceholderNoneDefined    = "none_defined"
	PlaceholderNoPeriods      = "no_periods_for_course"
)

// ErrUnknownCourse is returned when selecting a course the form was not opened with.
var ErrUnknownCourse = errors.New("course is not offered in this form")

// Loader fetches the per-course data the option lists are derived from. Periods must already be
// limited to active ones and ordered by start date.
type Loader interface {
	ListSchedules(ctx context.Context, courseID string) ([]models.ScheduleSlot, error)
	ListActivePeriods(ctx context.Context, courseID string) ([]models.LearningPeriod, error)
}

// Config is what the registration dialog is opened with.
type Config struct {
	SelectedCourseID string
	Courses          []models.Course
}

// Placeholders explain why a list is empty so the client can pick the right text.
type Placeholders struct {
	Location string `json:"location,omitempty"`
	Time     string `json:"time,omitempty"`
	Period   string `json:"period,omitempty"`
}

// Options is a render-ready snapshot of the form's derived lists.
type Options struct {
	CourseID     string       `json:"course_id,omitempty"`
	Location     string       `json:"location,omitempty"`
	Locations    []string     `json:"locations"`
	TimeSlots    []string     `json:"time_slots"`
	Periods      []string     `json:"periods"`
	Loading      bool         `json:"loading"`
	Placeholders Placeholders `json:"placeholders"`
}

// Form holds the registration form's selections and the schedules and periods loaded for the
// selected course.
//
// Every course selection starts a new generation. Loads belonging to an older generation are
// cancelled and their results discarded, so a slow response can never repopulate the lists with
// another course's data. Load failures degrade to "no data" and are only logged.
type Form struct {
	loader      Loader
	logger      *zap.Logger
	preselected string
	courses     map[string]models.Course

	mu         sync.Mutex
	courseID   string
	values     Values
	schedules  []models.ScheduleSlot
	periods    []models.LearningPeriod
	generation uint64
	cancel     context.CancelFunc
	settled    chan struct{}
}

// NewForm builds a form over the given course list. Call Open to apply the preselected course.
func NewForm(loader Loader, cfg Config, logger *zap.Logger) *Form {
	if logger == nil {
		logger = zap.NewNop()
	}
	courses := make(map[string]models.Course, len(cfg.Courses))
	for _, course := range cfg.Courses {
		courses[course.ID] = course
	}
	return &Form{
		loader:      loader,
		logger:      logger,
		preselected: cfg.SelectedCourseID,
		courses:     courses,
		settled:     closedChannel(),
	}
}

// Open selects the preselected course, if any.
func (f *Form) Open(ctx context.Context) error {
	if f.preselected == "" {
		return nil
	}
	return f.SelectCourse(ctx, f.preselected)
}

// SelectCourse switches the course. Location and time are always cleared; data is fetched again
// only when the course actually changes. An empty id deselects the course.
func (f *Form) SelectCourse(ctx context.Context, courseID string) error {
	course, ok := f.courses[courseID]
	if courseID != "" && !ok {
		return ErrUnknownCourse
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.values.Location = ""
	f.values.Time = ""
	if courseID == f.courseID {
		return nil
	}

	gen := f.restartLocked()
	f.courseID = courseID
	f.values.Course = course.Title
	if courseID == "" {
		return nil
	}

	loadCtx, cancel := context.WithCancel(ctx)
	f.cancel = cancel
	settled := make(chan struct{})
	f.settled = settled

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		slots, err := f.loader.ListSchedules(loadCtx, courseID)
		if err != nil {
			f.degrade("schedules", courseID, err)
			slots = nil
		}
		f.apply(gen, func() { f.schedules = slots })
	}()
	go func() {
		defer wg.Done()
		periods, err := f.loader.ListActivePeriods(loadCtx, courseID)
		if err != nil {
			f.degrade("periods", courseID, err)
			periods = nil
		}
		f.apply(gen, func() { f.periods = periods })
	}()
	go func() {
		wg.Wait()
		cancel()
		close(settled)
	}()
	return nil
}

// SelectLocation sets the location. The time is cleared only when the location changes.
func (f *Form) SelectLocation(location string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if location == f.values.Location {
		return
	}
	f.values.Location = location
	f.values.Time = ""
}

// SelectTime sets the time slot.
func (f *Form) SelectTime(slot string) {
	f.mu.Lock()
	f.values.Time = slot
	f.mu.Unlock()
}

// SelectPeriod sets the learning period.
func (f *Form) SelectPeriod(period string) {
	f.mu.Lock()
	f.values.Period = period
	f.mu.Unlock()
}

// SetDetails fills the contact and student fields.
func (f *Form) SetDetails(d Details) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.values.Name = d.Name
	f.values.Phone = d.Phone
	f.values.Email = d.Email
	f.values.Grade = d.Grade
	f.values.Gender = d.Gender
	f.values.Message = d.Message
}

// CourseID returns the selected course.
func (f *Form) CourseID() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.courseID
}

// Values returns a copy of the current form values.
func (f *Form) Values() Values {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.values
}

// Options derives the option lists from whatever has loaded so far.
func (f *Form) Options() Options {
	f.mu.Lock()
	defer f.mu.Unlock()

	opts := Options{
		CourseID:  f.courseID,
		Location:  f.values.Location,
		Locations: []string{},
		TimeSlots: []string{},
		Periods:   []string{},
	}
	select {
	case <-f.settled:
	default:
		opts.Loading = true
	}

	if f.courseID == "" {
		opts.Placeholders = Placeholders{
			Location: PlaceholderSelectCourse,
			Time:     PlaceholderSelectLocation,
			Period:   PlaceholderSelectCourse,
		}
		return opts
	}

	course := f.courses[f.courseID]
	opts.Locations = append(opts.Locations, ResolveLocations(f.schedules, course.FallbackLocations)...)
	opts.TimeSlots = append(opts.TimeSlots, ResolveTimeSlotsForLocation(f.schedules, course.FallbackTimeSlots, f.values.Location)...)
	opts.Periods = append(opts.Periods, ResolvePeriods(f.periods)...)

	if len(opts.Locations) == 0 {
		opts.Placeholders.Location = PlaceholderNoneDefined
	}
	switch {
	case f.values.Location == "":
		opts.Placeholders.Time = PlaceholderSelectLocation
	case len(opts.TimeSlots) == 0:
		opts.Placeholders.Time = PlaceholderNoneDefined
	}
	if len(opts.Periods) == 0 {
		opts.Placeholders.Period = PlaceholderNoPeriods
	}
	return opts
}

// Wait blocks until the loads of the current course selection have finished or ctx ends.
func (f *Form) Wait(ctx context.Context) error {
	f.mu.Lock()
	settled := f.settled
	f.mu.Unlock()

	select {
	case <-settled:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Submit hands the values to s. On success the form is reset; on failure the values are kept so
// the user can retry.
func (f *Form) Submit(ctx context.Context, s Submitter) (*models.Registration, error) {
	registration, err := s.Submit(ctx, f.Values())
	if err != nil {
		return nil, err
	}
	if err := f.Reset(ctx); err != nil {
		f.logger.Warn("reset after submit failed", zap.Error(err))
	}
	return registration, nil
}

// Reset returns the form to its initial state, reapplying the preselected course.
func (f *Form) Reset(ctx context.Context) error {
	f.clear()
	return f.Open(ctx)
}

// Close discards the form state and abandons in-flight loads.
func (f *Form) Close() {
	f.clear()
}

func (f *Form) clear() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.restartLocked()
	f.courseID = ""
	f.values = Values{}
}

// restartLocked abandons the current generation and returns the next one.
func (f *Form) restartLocked() uint64 {
	f.generation++
	if f.cancel != nil {
		f.cancel()
		f.cancel = nil
	}
	f.schedules = nil
	f.periods = nil
	f.settled = closedChannel()
	return f.generation
}

func (f *Form) apply(gen uint64, fn func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if gen != f.generation {
		f.logger.Debug("discarding stale registration options", zap.Uint64("generation", gen))
		return
	}
	fn()
}

func (f *Form) degrade(what, courseID string, err error) {
	if errors.Is(err, context.Canceled) {
		return
	}
	f.logger.Warn("registration options unavailable",
		zap.String("data", what),
		zap.String("course_id", courseID),
		zap.Error(err),
	)
}

func closedChannel() chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}
