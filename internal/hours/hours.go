// Package hours computes and validates daily, weekly, and per-project hour
// aggregates from raw timesheet entries.
package hours

import (
	"fmt"
	"time"

	"github.com/crewdesk/crewdesk/internal/shared"
)

// Fixed caps; domain policy, not configuration.
const (
	MaxDailyHours  = 8.0
	MaxWeeklyHours = 40.0
	MinDailyHours  = 0.0
)

// WeekValidation reports the headroom left in an employee week.
type WeekValidation struct {
	CurrentWeekHours float64
	RemainingHours   float64
}

// ValidateEntry checks an incoming entry against the daily and weekly caps.
// Checks run in order: daily, then weekly. It is pure; callers must not
// persist an entry that fails here.
func ValidateEntry(incoming, currentWeekHours float64) (WeekValidation, error) {
	if incoming < MinDailyHours {
		return WeekValidation{}, fmt.Errorf("%w: hours cannot be negative", shared.ErrValidation)
	}
	if incoming > MaxDailyHours {
		return WeekValidation{}, fmt.Errorf("%w: daily hours cannot exceed %g", shared.ErrDailyLimitExceeded, MaxDailyHours)
	}
	if currentWeekHours+incoming > MaxWeeklyHours {
		return WeekValidation{}, fmt.Errorf("%w: weekly hours cannot exceed %g. Current: %g, Attempting to add: %g",
			shared.ErrWeeklyLimitExceeded, MaxWeeklyHours, currentWeekHours, incoming)
	}
	return WeekValidation{
		CurrentWeekHours: currentWeekHours,
		RemainingHours:   MaxWeeklyHours - currentWeekHours,
	}, nil
}

// WeekStart truncates date to the start of its week given the configured
// first weekday. The result is midnight UTC of that day.
func WeekStart(date time.Time, startDay time.Weekday) time.Time {
	d := date.UTC()
	d = time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
	offset := (int(d.Weekday()) - int(startDay) + 7) % 7
	return d.AddDate(0, 0, -offset)
}

// WeekEnd returns the last day of the week starting at weekStart.
func WeekEnd(weekStart time.Time) time.Time {
	return weekStart.AddDate(0, 0, 6)
}
