package models

import (
	"time"

	"github.com/lib/pq"
)

// Course is a registerable course offering. FallbackLocations and FallbackTimeSlots are coarse
// scheduling data used only while the course has no schedule slots.
type Course struct {
	ID                string         `db:"id" json:"id"`
	Slug              string         `db:"slug" json:"slug"`
	Title             string         `db:"title" json:"title"`
	Subtitle          string         `db:"subtitle" json:"subtitle"`
	Description       string         `db:"description" json:"description"`
	ImageURL          *string        `db:"image_url" json:"image_url,omitempty"`
	PriceIDR          int64          `db:"price_idr" json:"price_idr"`
	FallbackLocations pq.StringArray `db:"locations" json:"locations"`
	FallbackTimeSlots pq.StringArray `db:"time_slots" json:"time_slots"`
	IsActive          bool           `db:"is_active" json:"is_active"`
	CreatedAt         time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time      `db:"updated_at" json:"updated_at"`
}

// CourseFilter defines filters supported by course listings.
type CourseFilter struct {
	IncludeInactive bool
	Search          string
}

// ScheduleSlot is a concrete (location, day, time) offering of a course. Day and times are
// free text as entered by staff.
type ScheduleSlot struct {
	ID        string    `db:"id" json:"id"`
	CourseID  string    `db:"course_id" json:"course_id"`
	Location  string    `db:"location" json:"location"`
	DayOfWeek string    `db:"day_of_week" json:"day_of_week"`
	StartTime string    `db:"start_time" json:"start_time"`
	EndTime   *string   `db:"end_time" json:"end_time,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// LearningPeriod is a named enrollment window for a course.
type LearningPeriod struct {
	ID        string    `db:"id" json:"id"`
	CourseID  string    `db:"course_id" json:"course_id"`
	Name      string    `db:"name" json:"name"`
	StartDate time.Time `db:"start_date" json:"start_date"`
	EndDate   time.Time `db:"end_date" json:"end_date"`
	IsActive  bool      `db:"is_active" json:"is_active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// CourseDetail bundles a course with its schedule slots and active periods.
type CourseDetail struct {
	Course
	Schedules []ScheduleSlot   `json:"schedules"`
	Periods   []LearningPeriod `json:"periods"`
}
