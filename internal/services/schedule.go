package services

import (
	"fmt"
	"time"

	"github.com/ByMatthewNeal/Arkline-sub006/internal/models"
)

// ParseFrequency maps a raw frequency string to its canonical value.
// Plans created before twice-weekly shipped could carry "custom"; those
// behave as weekly. Any other unknown value is rejected rather than
// reinterpreted.
func ParseFrequency(raw string) (models.Frequency, error) {
	switch f := models.Frequency(raw); f {
	case models.FrequencyDaily,
		models.FrequencyTwiceWeekly,
		models.FrequencyWeekly,
		models.FrequencyBiweekly,
		models.FrequencyMonthly:
		return f, nil
	}
	if raw == "custom" {
		return models.FrequencyWeekly, nil
	}
	return "", fmt.Errorf("unrecognized frequency %q", raw)
}

// NextOccurrence computes the next reminder date strictly after last for the
// given frequency. Clock-of-day components of last are preserved.
func NextOccurrence(freq models.Frequency, last time.Time) (time.Time, error) {
	switch freq {
	case models.FrequencyDaily:
		return last.AddDate(0, 0, 1), nil
	case models.FrequencyTwiceWeekly:
		return nextTuesdayOrFriday(last), nil
	case models.FrequencyWeekly:
		return last.AddDate(0, 0, 7), nil
	case models.FrequencyBiweekly:
		return last.AddDate(0, 0, 14), nil
	case models.FrequencyMonthly:
		return addMonthClamped(last), nil
	default:
		return time.Time{}, fmt.Errorf("unrecognized frequency %q", freq)
	}
}

// nextTuesdayOrFriday returns the nearer of the next Tuesday and the next
// Friday strictly after t.
func nextTuesdayOrFriday(t time.Time) time.Time {
	for {
		t = t.AddDate(0, 0, 1)
		if wd := t.Weekday(); wd == time.Tuesday || wd == time.Friday {
			return t
		}
	}
}

// addMonthClamped advances t by one calendar month, clamping the day to the
// last valid day of the target month (Jan 31 -> Feb 28, or Feb 29 in leap
// years). time.AddDate(0, 1, 0) would normalize the overflow into the month
// after, so the date is built explicitly.
func addMonthClamped(t time.Time) time.Time {
	year, month, day := t.Date()
	hour, min, sec := t.Clock()

	firstOfTarget := time.Date(year, month+1, 1, 0, 0, 0, 0, t.Location())
	if last := lastDayOfMonth(firstOfTarget); day > last {
		day = last
	}
	return time.Date(firstOfTarget.Year(), firstOfTarget.Month(), day,
		hour, min, sec, t.Nanosecond(), t.Location())
}

// lastDayOfMonth returns the number of days in t's month.
func lastDayOfMonth(t time.Time) int {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC).
		AddDate(0, 1, -1).Day()
}

// FirstOccurrence seeds a new plan: a start date that is today or later is
// itself the first occurrence; a start in the past advances along the cadence
// until it reaches today or a future date.
func FirstOccurrence(freq models.Frequency, start, now time.Time) (time.Time, error) {
	occurrence := start
	for !occurrence.After(now) && !sameDay(occurrence, now) {
		next, err := NextOccurrence(freq, occurrence)
		if err != nil {
			return time.Time{}, err
		}
		occurrence = next
	}
	return occurrence, nil
}

// IsDueToday reports whether the reminder should fire on the calendar day of
// now. Inactive reminders and bounded plans that reached their total are
// never due.
func IsDueToday(r *models.DCAReminder, now time.Time) bool {
	if !r.Active {
		return false
	}
	if r.TotalPurchases != nil && r.CompletedPurchases >= *r.TotalPurchases {
		return false
	}
	return sameDay(r.NextOccurrence, now)
}

// AdvanceReminder moves a reminder past its current occurrence once the user
// marks it invested or skipped. The next date is computed from the scheduled
// occurrence rather than from now, then advanced until it lands in the
// future, so a plan ignored for several periods resumes on the next upcoming
// date. Invested occurrences count toward a bounded plan's total; reaching
// the total deactivates the reminder. A plan that already reached its total
// has no occurrence left to advance and is rejected.
func AdvanceReminder(r *models.DCAReminder, invested bool, now time.Time) error {
	if r.TotalPurchases != nil && r.CompletedPurchases >= *r.TotalPurchases {
		return fmt.Errorf("plan already completed %d of %d purchases",
			r.CompletedPurchases, *r.TotalPurchases)
	}

	next, err := NextOccurrence(r.Frequency, r.NextOccurrence)
	if err != nil {
		return err
	}
	for !next.After(now) {
		next, err = NextOccurrence(r.Frequency, next)
		if err != nil {
			return err
		}
	}

	if invested {
		r.CompletedPurchases++
	}
	r.NextOccurrence = next

	if r.TotalPurchases != nil && r.CompletedPurchases >= *r.TotalPurchases {
		r.Active = false
	}
	return nil
}

// sameDay compares calendar days in UTC.
func sameDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}
