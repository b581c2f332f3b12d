package service

import (
	"iter"

	"github.com/noah-isme/attendance-tracker/internal/models"
)

// OccursOn reports whether an active template produces a session on date.
func OccursOn(tpl models.Template, date models.Date) bool {
	return tpl.Active && !date.IsZero() && date.Weekday() == tpl.Weekday
}

// DatesInRange yields, in ascending order, every date between start and end
// inclusive that falls on the template's weekday. The active flag is not
// consulted so historical spans of deactivated slots can still be walked.
// An inverted range yields nothing.
func DatesInRange(tpl models.Template, start, end models.Date) iter.Seq[models.Date] {
	return func(yield func(models.Date) bool) {
		first, ok := firstOnOrAfter(tpl.Weekday, start, end)
		if !ok {
			return
		}
		for d := first; !d.After(end); d = d.AddDays(7) {
			if !yield(d) {
				return
			}
		}
	}
}

// CountInRange returns the number of dates DatesInRange would yield.
func CountInRange(tpl models.Template, start, end models.Date) int {
	first, ok := firstOnOrAfter(tpl.Weekday, start, end)
	if !ok {
		return 0
	}
	return first.DaysUntil(end)/7 + 1
}

func firstOnOrAfter(weekday models.Weekday, start, end models.Date) (models.Date, bool) {
	if !weekday.Valid() || start.IsZero() || end.IsZero() || end.Before(start) {
		return models.Date{}, false
	}
	offset := (int(weekday) - int(start.Weekday()) + 7) % 7
	first := start.AddDays(offset)
	if first.After(end) {
		return models.Date{}, false
	}
	return first, true
}
