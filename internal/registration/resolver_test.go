package registration

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/kodkids/site-api/internal/models"
)

func strPtr(s string) *string { return &s }

func slot(location, day, start string) models.ScheduleSlot {
	return models.ScheduleSlot{Location: location, DayOfWeek: day, StartTime: start}
}

func TestFormatSlot(t *testing.T) {
	withEnd := models.ScheduleSlot{Location: "Online", DayOfWeek: "Monday", StartTime: "16:00", EndTime: strPtr("17:00")}
	assert.Equal(t, "Monday 16:00 - 17:00", FormatSlot(withEnd))

	withoutEnd := models.ScheduleSlot{Location: "Online", DayOfWeek: "Monday", StartTime: "16:00"}
	assert.Equal(t, "Monday 16:00", FormatSlot(withoutEnd))

	emptyEnd := withoutEnd
	emptyEnd.EndTime = strPtr("")
	assert.Equal(t, "Monday 16:00", FormatSlot(emptyEnd))
}

func TestResolveLocations(t *testing.T) {
	tests := []struct {
		name     string
		slots    []models.ScheduleSlot
		fallback []string
		want     []string
	}{
		{
			name:  "distinct in first seen order",
			slots: []models.ScheduleSlot{slot("A", "Mon", "10:00"), slot("A", "Tue", "11:00"), slot("B", "Wed", "12:00")},
			want:  []string{"A", "B"},
		},
		{
			name:     "slots win over fallback",
			slots:    []models.ScheduleSlot{slot("B", "Mon", "10:00"), slot("A", "Mon", "11:00")},
			fallback: []string{"X"},
			want:     []string{"B", "A"},
		},
		{
			name:     "fallback when no slots",
			fallback: []string{"X", "Y"},
			want:     []string{"X", "Y"},
		},
		{
			name: "empty",
			want: nil,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ResolveLocations(tc.slots, tc.fallback))
		})
	}
}

func TestResolveTimeSlotsForLocation(t *testing.T) {
	slots := []models.ScheduleSlot{
		slot("Center A", "Sunday", "17:00"),
		slot("Center A", "Tuesday", "18:00"),
		slot("Center B", "Monday", "16:00"),
		slot("Center A", "Sunday", "17:00"),
	}

	assert.Equal(t, []string{"Sunday 17:00", "Tuesday 18:00", "Sunday 17:00"},
		ResolveTimeSlotsForLocation(slots, nil, "Center A"))
	assert.Equal(t, []string{"Monday 16:00"}, ResolveTimeSlotsForLocation(slots, []string{"ignored"}, "Center B"))
	assert.Equal(t, []string{"Mon 10:00"}, ResolveTimeSlotsForLocation(slots, []string{"Mon 10:00"}, "Center C"))
	assert.Empty(t, ResolveTimeSlotsForLocation(slots, nil, "Center C"))

	noLocation := ResolveTimeSlotsForLocation(slots, []string{"Mon 10:00"}, "")
	require.NotNil(t, noLocation)
	assert.Empty(t, noLocation)
}

func TestResolveTimeSlotsFallbackCrossProduct(t *testing.T) {
	fallbackTimes := []string{"Mon 10:00", "Wed 14:00"}
	for _, location := range []string{"Home", "Studio"} {
		assert.Equal(t, fallbackTimes, ResolveTimeSlotsForLocation(nil, fallbackTimes, location))
	}
}

func TestResolvePeriods(t *testing.T) {
	periods := []models.LearningPeriod{{Name: "Spring 2025"}, {Name: "Summer 2025"}, {Name: "Autumn 2025"}}
	assert.Equal(t, []string{"Spring 2025", "Summer 2025", "Autumn 2025"}, ResolvePeriods(periods))

	empty := ResolvePeriods(nil)
	require.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestProperty_ResolveLocationsIsDistinctSubsequence(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(1, 30).Draw(rt, "n")
		slots := make([]models.ScheduleSlot, n)
		for i := range slots {
			slots[i] = slot(rapid.SampledFrom([]string{"A", "B", "C", "D"}).Draw(rt, "location"), "Mon", "10:00")
		}

		got := ResolveLocations(slots, []string{"fallback"})

		seen := map[string]bool{}
		for _, location := range got {
			require.False(t, seen[location], "duplicate location %q", location)
			seen[location] = true
		}
		for _, s := range slots {
			require.True(t, seen[s.Location], "missing location %q", s.Location)
		}
		require.Equal(t, slots[0].Location, got[0], "first location must be first seen")
	})
}

func TestProperty_TimeSlotsMatchSelectedLocation(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(0, 20).Draw(rt, "n")
		slots := make([]models.ScheduleSlot, n)
		for i := range slots {
			slots[i] = slot(
				rapid.SampledFrom([]string{"A", "B"}).Draw(rt, "location"),
				rapid.SampledFrom([]string{"Mon", "Tue", "Wed"}).Draw(rt, "day"),
				rapid.StringMatching(`[0-2][0-9]:[0-5][0-9]`).Draw(rt, "start"),
			)
		}
		location := rapid.SampledFrom([]string{"A", "B"}).Draw(rt, "selected")

		var want []string
		for _, s := range slots {
			if s.Location == location {
				want = append(want, FormatSlot(s))
			}
		}
		got := ResolveTimeSlotsForLocation(slots, nil, location)
		require.Len(t, got, len(want))
		for i := range want {
			require.Equal(t, want[i], got[i])
		}
	})
}

func TestProperty_ResolvePeriodsKeepsOrder(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		names := rapid.SliceOf(rapid.StringMatching(`[A-Za-z ]{1,12}`)).Draw(rt, "names")
		periods := make([]models.LearningPeriod, len(names))
		for i, name := range names {
			periods[i] = models.LearningPeriod{Name: name, IsActive: true}
		}
		got := ResolvePeriods(periods)
		require.Len(t, got, len(names))
		for i := range names {
			require.Equal(t, names[i], got[i])
		}
	})
}
