// Package registration derives the option lists of the course registration form and keeps the
// form's selections consistent as they change.
package registration

import "github.com/kodkids/site-api/internal/models"

// FormatSlot renders a slot as "{day} {start}" or "{day} {start} - {end}".
func FormatSlot(slot models.ScheduleSlot) string {
	label := slot.DayOfWeek + " " + slot.StartTime
	if slot.EndTime != nil && *slot.EndTime != "" {
		label += " - " + *slot.EndTime
	}
	return label
}

// ResolveLocations returns the distinct slot locations in first-seen order. Without slots the
// course's fallback locations are returned as given.
func ResolveLocations(slots []models.ScheduleSlot, fallback []string) []string {
	if len(slots) == 0 {
		return fallback
	}
	seen := make(map[string]struct{}, len(slots))
	locations := make([]string, 0, len(slots))
	for _, slot := range slots {
		if _, ok := seen[slot.Location]; ok {
			continue
		}
		seen[slot.Location] = struct{}{}
		locations = append(locations, slot.Location)
	}
	return locations
}

// ResolveTimeSlotsForLocation lists the time options for location. Slots at the location win and
// keep their order, identical labels included. Otherwise every fallback time is offered for every
// location since fallback data carries no per-location times.
func ResolveTimeSlotsForLocation(slots []models.ScheduleSlot, fallbackTimes []string, location string) []string {
	if location == "" {
		return []string{}
	}
	times := make([]string, 0)
	for _, slot := range slots {
		if slot.Location == location {
			times = append(times, FormatSlot(slot))
		}
	}
	if len(times) > 0 {
		return times
	}
	if len(fallbackTimes) > 0 {
		return fallbackTimes
	}
	return times
}

// ResolvePeriods maps already filtered and ordered periods to their names.
func ResolvePeriods(periods []models.LearningPeriod) []string {
	names := make([]string, 0, len(periods))
	for _, period := range periods {
		names = append(names, period.Name)
	}
	return names
}
