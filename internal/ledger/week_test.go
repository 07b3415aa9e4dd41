package ledger

import (
	"testing"
	"time"

	"github.com/Veraticus/tithe/internal/model"
	"github.com/stretchr/testify/assert"
)

func TestWeekContaining(t *testing.T) {
	tests := []struct {
		date        string
		wantStart   string
		wantEnd     string
		wantSnapped bool
	}{
		{date: "2024-03-10", wantStart: "2024-03-04", wantEnd: "2024-03-10", wantSnapped: false}, // Sunday
		{date: "2024-03-04", wantStart: "2024-03-04", wantEnd: "2024-03-10", wantSnapped: true},  // Monday
		{date: "2024-03-09", wantStart: "2024-03-04", wantEnd: "2024-03-10", wantSnapped: true},  // Saturday
		{date: "2024-12-30", wantStart: "2024-12-30", wantEnd: "2025-01-05", wantSnapped: true},  // crosses the year
		{date: "2024-02-27", wantStart: "2024-02-26", wantEnd: "2024-03-03", wantSnapped: true},  // leap month
	}

	for _, tt := range tests {
		t.Run(tt.date, func(t *testing.T) {
			d, err := model.ParseDate(tt.date)
			assert.NoError(t, err)

			week, snapped := WeekContaining(d)
			assert.Equal(t, tt.wantStart, model.FormatDate(week.Start))
			assert.Equal(t, tt.wantEnd, model.FormatDate(week.End))
			assert.Equal(t, tt.wantSnapped, snapped)
			assert.Equal(t, time.Monday, week.Start.Weekday())
			assert.Equal(t, time.Sunday, week.End.Weekday())
		})
	}
}

func TestWeekContaining_IgnoresClock(t *testing.T) {
	local := time.Date(2024, 3, 10, 23, 59, 0, 0, time.FixedZone("KST", 9*60*60))
	week, snapped := WeekContaining(local)
	assert.False(t, snapped)
	assert.Equal(t, "2024-03-10", model.FormatDate(week.End))
}

func TestYearBounds(t *testing.T) {
	d := time.Date(2024, 7, 15, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "2024-01-01", model.FormatDate(YearStart(d)))
	assert.Equal(t, "2024-12-31", model.FormatDate(YearEnd(d)))
}
