package ledger

import (
	"time"

	"github.com/Veraticus/tithe/internal/model"
)

// Week is a Monday-through-Sunday reporting week.
type Week struct {
	Start time.Time // Monday
	End   time.Time // Sunday
}

// WeekEnding returns the week whose last day is date, which should be a Sunday.
func WeekEnding(sunday time.Time) Week {
	end := model.DateOf(sunday)
	return Week{Start: end.AddDate(0, 0, -6), End: end}
}

// WeekContaining returns the week holding date. Weeks end on Sunday, so a
// weekday snaps forward to the following Sunday; snapped reports that it did.
func WeekContaining(date time.Time) (week Week, snapped bool) {
	day := model.DateOf(date)
	offset := (int(time.Sunday) - int(day.Weekday()) + 7) % 7
	return WeekEnding(day.AddDate(0, 0, offset)), offset != 0
}

// YearStart returns January 1 of date's year.
func YearStart(date time.Time) time.Time {
	return time.Date(date.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
}

// YearEnd returns December 31 of date's year.
func YearEnd(date time.Time) time.Time {
	return time.Date(date.Year(), time.December, 31, 0, 0, 0, 0, time.UTC)
}
