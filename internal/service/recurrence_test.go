package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/attendance-tracker/internal/models"
)

func collectDates(tpl models.Template, start, end models.Date) []models.Date {
	var dates []models.Date
	for d := range DatesInRange(tpl, start, end) {
		dates = append(dates, d)
	}
	return dates
}

func TestOccursOn(t *testing.T) {
	monday := models.NewDate(2025, time.January, 6)
	tpl := models.Template{Weekday: models.Monday, Active: true}

	assert.True(t, OccursOn(tpl, monday))
	assert.False(t, OccursOn(tpl, monday.AddDays(1)))

	tpl.Active = false
	assert.False(t, OccursOn(tpl, monday))
}

func TestDatesInRangeJanuaryMondays(t *testing.T) {
	tpl := models.Template{Weekday: models.Monday, Active: true}
	dates := collectDates(tpl, models.NewDate(2025, time.January, 1), models.NewDate(2025, time.January, 31))

	require.Len(t, dates, 4)
	assert.Equal(t, "2025-01-06", dates[0].String())
	assert.Equal(t, "2025-01-27", dates[3].String())
}

func TestDatesInRangeIncludesBounds(t *testing.T) {
	monday := models.NewDate(2025, time.January, 6)
	tpl := models.Template{Weekday: models.Monday}

	dates := collectDates(tpl, monday, monday.AddDays(7))
	require.Len(t, dates, 2)
	assert.True(t, dates[0].Equal(monday))
	assert.True(t, dates[1].Equal(monday.AddDays(7)))

	assert.Len(t, collectDates(tpl, monday, monday), 1)
}

func TestDatesInRangeInvertedRangeIsEmpty(t *testing.T) {
	tpl := models.Template{Weekday: models.Friday}
	start := models.NewDate(2025, time.March, 1)
	assert.Empty(t, collectDates(tpl, start, start.AddDays(-30)))
	assert.Equal(t, 0, CountInRange(tpl, start, start.AddDays(-30)))
}

func TestDatesInRangeStopsEarlyAndRestarts(t *testing.T) {
	tpl := models.Template{Weekday: models.Sunday}
	start := models.NewDate(2024, time.January, 1)
	end := models.NewDate(2024, time.December, 31)
	seq := DatesInRange(tpl, start, end)

	var first []models.Date
	for d := range seq {
		first = append(first, d)
		if len(first) == 2 {
			break
		}
	}
	require.Len(t, first, 2)

	var again []models.Date
	for d := range seq {
		again = append(again, d)
	}
	assert.Len(t, again, 52)
	assert.Equal(t, first, again[:2])
}

func TestDatesInRangeMatchesBruteForce(t *testing.T) {
	origin := models.NewDate(2024, time.February, 20)
	for weekday := models.Monday; weekday <= models.Sunday; weekday++ {
		tpl := models.Template{Weekday: weekday, Active: true}
		for offset := 0; offset < 7; offset++ {
			start := origin.AddDays(offset)
			for span := 0; span < 40; span += 3 {
				end := start.AddDays(span)

				var want []models.Date
				for d := start; !d.After(end); d = d.AddDays(1) {
					if d.Weekday() == weekday {
						want = append(want, d)
					}
				}

				got := collectDates(tpl, start, end)
				assert.Equal(t, want, got, "weekday %s from %s to %s", weekday, start, end)
				assert.Equal(t, len(want), CountInRange(tpl, start, end))
				for i := 1; i < len(got); i++ {
					assert.True(t, got[i-1].Before(got[i]))
				}
			}
		}
	}
}

func TestCountInRangeMatchesDatesOverCenturies(t *testing.T) {
	tpl := models.Template{Weekday: models.Monday, Active: true}
	start := models.NewDate(1700, time.January, 1)
	end := models.NewDate(2025, time.January, 6)

	dates := collectDates(tpl, start, end)
	require.Len(t, dates, 16959)
	assert.Equal(t, len(dates), CountInRange(tpl, start, end))
	assert.True(t, dates[len(dates)-1].Equal(end))
}

func TestCountInRangeRejectsInvalidWeekday(t *testing.T) {
	tpl := models.Template{Weekday: models.Weekday(9)}
	start := models.NewDate(2025, time.January, 1)
	assert.Equal(t, 0, CountInRange(tpl, start, start.AddDays(30)))
	assert.Empty(t, collectDates(tpl, start, start.AddDays(30)))
}
