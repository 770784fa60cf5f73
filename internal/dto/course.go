package dto

import "time"

// CourseRequest creates or replaces a course.
type CourseRequest struct {
	Slug              string   `json:"slug" validate:"required,max=80"`
	Title             string   `json:"title" validate:"required,max=120"`
	Subtitle          string   `json:"subtitle" validate:"max=200"`
	Description       string   `json:"description"`
	ImageURL          *string  `json:"image_url" validate:"omitempty,url"`
	PriceIDR          int64    `json:"price_idr" validate:"gte=0"`
	FallbackLocations []string `json:"locations" validate:"dive,required"`
	FallbackTimeSlots []string `json:"time_slots" validate:"dive,required"`
	IsActive          *bool    `json:"is_active"`
}

// ScheduleSlotRequest adds a schedule slot to a course.
type ScheduleSlotRequest struct {
	Location  string  `json:"location" validate:"required,max=120"`
	DayOfWeek string  `json:"day_of_week" validate:"required,max=20"`
	StartTime string  `json:"start_time" validate:"required,max=20"`
	EndTime   *string `json:"end_time" validate:"omitempty,max=20"`
}

// PeriodRequest creates or replaces a learning period.
type PeriodRequest struct {
	Name      string    `json:"name" validate:"required,max=120"`
	StartDate time.Time `json:"start_date" validate:"required"`
	EndDate   time.Time `json:"end_date" validate:"required,gtefield=StartDate"`
	IsActive  *bool     `json:"is_active"`
}
