package services

import (
	"testing"
	"time"

	"github.com/ByMatthewNeal/Arkline-sub006/internal/models"
)

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func TestParseFrequency(t *testing.T) {
	tests := []struct {
		raw     string
		want    models.Frequency
		wantErr bool
	}{
		{"daily", models.FrequencyDaily, false},
		{"twice_weekly", models.FrequencyTwiceWeekly, false},
		{"weekly", models.FrequencyWeekly, false},
		{"biweekly", models.FrequencyBiweekly, false},
		{"monthly", models.FrequencyMonthly, false},
		{"custom", models.FrequencyWeekly, false}, // legacy value falls back to weekly
		{"", "", true},
		{"hourly", "", true},
		{"Daily", "", true},
		{"fortnightly", "", true},
	}

	for _, tt := range tests {
		got, err := ParseFrequency(tt.raw)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseFrequency(%q) expected error, got %q", tt.raw, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseFrequency(%q) error = %v", tt.raw, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseFrequency(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestNextOccurrence_FixedIntervals(t *testing.T) {
	last := date(2026, time.August, 10)

	tests := []struct {
		freq models.Frequency
		want time.Time
	}{
		{models.FrequencyDaily, date(2026, time.August, 11)},
		{models.FrequencyWeekly, date(2026, time.August, 17)},
		{models.FrequencyBiweekly, date(2026, time.August, 24)},
	}

	for _, tt := range tests {
		got, err := NextOccurrence(tt.freq, last)
		if err != nil {
			t.Errorf("NextOccurrence(%s) error = %v", tt.freq, err)
			continue
		}
		if !got.Equal(tt.want) {
			t.Errorf("NextOccurrence(%s, %v) = %v, want %v", tt.freq, last, got, tt.want)
		}
	}
}

func TestNextOccurrence_TwiceWeekly(t *testing.T) {
	// Aug 2026: 24th is a Monday, 25th Tuesday, 28th Friday, Sep 1st Tuesday.
	tests := []struct {
		last time.Time
		want time.Time
	}{
		{date(2026, time.August, 24), date(2026, time.August, 25)},    // Mon -> Tue
		{date(2026, time.August, 25), date(2026, time.August, 28)},    // Tue -> Fri
		{date(2026, time.August, 26), date(2026, time.August, 28)},    // Wed -> Fri
		{date(2026, time.August, 27), date(2026, time.August, 28)},    // Thu -> Fri
		{date(2026, time.August, 28), date(2026, time.September, 1)},  // Fri -> next Tue
		{date(2026, time.August, 29), date(2026, time.September, 1)},  // Sat -> Tue
		{date(2026, time.August, 30), date(2026, time.September, 1)},  // Sun -> Tue
	}

	for _, tt := range tests {
		got, err := NextOccurrence(models.FrequencyTwiceWeekly, tt.last)
		if err != nil {
			t.Fatalf("NextOccurrence(twice_weekly, %v) error = %v", tt.last, err)
		}
		if !got.Equal(tt.want) {
			t.Errorf("NextOccurrence(twice_weekly, %v %s) = %v, want %v",
				tt.last, tt.last.Weekday(), got, tt.want)
		}
		if wd := got.Weekday(); wd != time.Tuesday && wd != time.Friday {
			t.Errorf("NextOccurrence(twice_weekly, %v) landed on %s", tt.last, wd)
		}
	}
}

func TestNextOccurrence_MonthlyClampsToMonthEnd(t *testing.T) {
	tests := []struct {
		last time.Time
		want time.Time
	}{
		{date(2026, time.January, 31), date(2026, time.February, 28)},  // clamp, non-leap
		{date(2024, time.January, 31), date(2024, time.February, 29)},  // clamp, leap year
		{date(2026, time.March, 31), date(2026, time.April, 30)},       // 31 -> 30
		{date(2026, time.August, 31), date(2026, time.September, 30)},  // 31 -> 30
		{date(2026, time.December, 31), date(2027, time.January, 31)},  // year rollover, no clamp
		{date(2026, time.January, 15), date(2026, time.February, 15)},  // mid-month, no clamp
		{date(2026, time.February, 28), date(2026, time.March, 28)},    // day carries, no snap-back
		{date(2026, time.November, 30), date(2026, time.December, 30)}, // no clamp needed
	}

	for _, tt := range tests {
		got, err := NextOccurrence(models.FrequencyMonthly, tt.last)
		if err != nil {
			t.Fatalf("NextOccurrence(monthly, %v) error = %v", tt.last, err)
		}
		if !got.Equal(tt.want) {
			t.Errorf("NextOccurrence(monthly, %v) = %v, want %v", tt.last, got, tt.want)
		}
	}
}

func TestNextOccurrence_AlwaysStrictlyAfter(t *testing.T) {
	frequencies := []models.Frequency{
		models.FrequencyDaily,
		models.FrequencyTwiceWeekly,
		models.FrequencyWeekly,
		models.FrequencyBiweekly,
		models.FrequencyMonthly,
	}
	// Walk each frequency a year forward from an awkward anchor.
	for _, freq := range frequencies {
		last := time.Date(2026, time.January, 31, 9, 30, 0, 0, time.UTC)
		for i := 0; i < 60; i++ {
			next, err := NextOccurrence(freq, last)
			if err != nil {
				t.Fatalf("NextOccurrence(%s, %v) error = %v", freq, last, err)
			}
			if !next.After(last) {
				t.Fatalf("NextOccurrence(%s, %v) = %v, not strictly after", freq, last, next)
			}
			last = next
		}
	}
}

func TestNextOccurrence_PreservesClock(t *testing.T) {
	last := time.Date(2026, time.January, 31, 18, 45, 12, 0, time.UTC)

	got, err := NextOccurrence(models.FrequencyMonthly, last)
	if err != nil {
		t.Fatalf("NextOccurrence() error = %v", err)
	}
	hour, min, sec := got.Clock()
	if hour != 18 || min != 45 || sec != 12 {
		t.Errorf("NextOccurrence() clock = %02d:%02d:%02d, want 18:45:12", hour, min, sec)
	}
}

func TestNextOccurrence_UnknownFrequency(t *testing.T) {
	if _, err := NextOccurrence(models.Frequency("yearly"), date(2026, time.August, 10)); err == nil {
		t.Error("NextOccurrence() accepted an unknown frequency")
	}
}

func TestFirstOccurrence(t *testing.T) {
	now := time.Date(2026, time.August, 25, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		freq  models.Frequency
		start time.Time
		want  time.Time
	}{
		{"future start is kept", models.FrequencyWeekly, date(2026, time.September, 3), date(2026, time.September, 3)},
		{"start today is due today", models.FrequencyDaily, date(2026, time.August, 25), date(2026, time.August, 25)},
		{"past start advances to today", models.FrequencyDaily, date(2026, time.August, 20), date(2026, time.August, 25)},
		{"past weekly start keeps its cadence", models.FrequencyWeekly, date(2026, time.August, 6), date(2026, time.August, 27)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FirstOccurrence(tt.freq, tt.start, now)
			if err != nil {
				t.Fatalf("FirstOccurrence() error = %v", err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("FirstOccurrence(%s, %v) = %v, want %v", tt.freq, tt.start, got, tt.want)
			}
		})
	}
}

func TestIsDueToday(t *testing.T) {
	now := time.Date(2026, time.August, 25, 10, 0, 0, 0, time.UTC)
	three := 3

	tests := []struct {
		name     string
		reminder models.DCAReminder
		want     bool
	}{
		{
			"active and scheduled today",
			models.DCAReminder{Active: true, NextOccurrence: date(2026, time.August, 25)},
			true,
		},
		{
			"scheduled today at a later hour still counts",
			models.DCAReminder{Active: true, NextOccurrence: time.Date(2026, time.August, 25, 23, 0, 0, 0, time.UTC)},
			true,
		},
		{
			"inactive is never due",
			models.DCAReminder{Active: false, NextOccurrence: date(2026, time.August, 25)},
			false,
		},
		{
			"scheduled tomorrow",
			models.DCAReminder{Active: true, NextOccurrence: date(2026, time.August, 26)},
			false,
		},
		{
			"bounded plan with purchases left",
			models.DCAReminder{Active: true, NextOccurrence: date(2026, time.August, 25), TotalPurchases: &three, CompletedPurchases: 2},
			true,
		},
		{
			"bounded plan already complete",
			models.DCAReminder{Active: true, NextOccurrence: date(2026, time.August, 25), TotalPurchases: &three, CompletedPurchases: 3},
			false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsDueToday(&tt.reminder, now); got != tt.want {
				t.Errorf("IsDueToday() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAdvanceReminder_Invest(t *testing.T) {
	now := time.Date(2026, time.August, 25, 10, 0, 0, 0, time.UTC)
	r := models.DCAReminder{
		Active:         true,
		Frequency:      models.FrequencyWeekly,
		NextOccurrence: date(2026, time.August, 25),
	}

	if err := AdvanceReminder(&r, true, now); err != nil {
		t.Fatalf("AdvanceReminder() error = %v", err)
	}
	if r.CompletedPurchases != 1 {
		t.Errorf("CompletedPurchases = %d, want 1", r.CompletedPurchases)
	}
	if want := date(2026, time.September, 1); !r.NextOccurrence.Equal(want) {
		t.Errorf("NextOccurrence = %v, want %v", r.NextOccurrence, want)
	}
	if !r.Active {
		t.Error("open-ended reminder was deactivated")
	}
}

func TestAdvanceReminder_SkipDoesNotCount(t *testing.T) {
	now := time.Date(2026, time.August, 25, 10, 0, 0, 0, time.UTC)
	r := models.DCAReminder{
		Active:             true,
		Frequency:          models.FrequencyDaily,
		NextOccurrence:     date(2026, time.August, 25),
		CompletedPurchases: 4,
	}

	if err := AdvanceReminder(&r, false, now); err != nil {
		t.Fatalf("AdvanceReminder() error = %v", err)
	}
	if r.CompletedPurchases != 4 {
		t.Errorf("CompletedPurchases = %d, want 4 (skip must not count)", r.CompletedPurchases)
	}
	if want := date(2026, time.August, 26); !r.NextOccurrence.Equal(want) {
		t.Errorf("NextOccurrence = %v, want %v", r.NextOccurrence, want)
	}
}

func TestAdvanceReminder_CatchesUpMissedPeriods(t *testing.T) {
	// Scheduled three weeks ago; a single advance lands on the next future date.
	now := time.Date(2026, time.August, 25, 10, 0, 0, 0, time.UTC)
	r := models.DCAReminder{
		Active:         true,
		Frequency:      models.FrequencyWeekly,
		NextOccurrence: date(2026, time.August, 4),
	}

	if err := AdvanceReminder(&r, true, now); err != nil {
		t.Fatalf("AdvanceReminder() error = %v", err)
	}
	if want := date(2026, time.September, 1); !r.NextOccurrence.Equal(want) {
		t.Errorf("NextOccurrence = %v, want %v", r.NextOccurrence, want)
	}
	if r.CompletedPurchases != 1 {
		t.Errorf("CompletedPurchases = %d, want 1 (missed periods must not count)", r.CompletedPurchases)
	}
}

func TestAdvanceReminder_CompletingPlanDeactivates(t *testing.T) {
	now := time.Date(2026, time.August, 25, 10, 0, 0, 0, time.UTC)
	total := 3
	r := models.DCAReminder{
		Active:             true,
		Frequency:          models.FrequencyMonthly,
		NextOccurrence:     date(2026, time.August, 25),
		TotalPurchases:     &total,
		CompletedPurchases: 2,
	}

	if err := AdvanceReminder(&r, true, now); err != nil {
		t.Fatalf("AdvanceReminder() error = %v", err)
	}
	if r.CompletedPurchases != 3 {
		t.Errorf("CompletedPurchases = %d, want 3", r.CompletedPurchases)
	}
	if r.Active {
		t.Error("reminder still active after the final planned purchase")
	}
}

func TestAdvanceReminder_CompletedPlanRejected(t *testing.T) {
	now := time.Date(2026, time.August, 25, 10, 0, 0, 0, time.UTC)
	total := 3
	r := models.DCAReminder{
		Active:             true, // reactivated after completing
		Frequency:          models.FrequencyWeekly,
		NextOccurrence:     date(2026, time.August, 25),
		TotalPurchases:     &total,
		CompletedPurchases: 3,
	}

	if err := AdvanceReminder(&r, true, now); err == nil {
		t.Error("AdvanceReminder() advanced a plan that already reached its total")
	}
	if r.CompletedPurchases != 3 {
		t.Errorf("CompletedPurchases = %d, want 3 (must never exceed the total)", r.CompletedPurchases)
	}
}

func TestAdvanceReminder_UnknownFrequency(t *testing.T) {
	r := models.DCAReminder{
		Active:         true,
		Frequency:      models.Frequency("sometimes"),
		NextOccurrence: date(2026, time.August, 25),
	}
	if err := AdvanceReminder(&r, true, time.Now()); err == nil {
		t.Error("AdvanceReminder() accepted an unknown frequency")
	}
}
