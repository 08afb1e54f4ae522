package services

import (
	"testing"
	"time"

	"github.com/ByMatthewNeal/Arkline-sub006/internal/models"
)

func TestShouldTrigger(t *testing.T) {
	tests := []struct {
		score     float64
		threshold float64
		direction models.RiskDirection
		want      bool
	}{
		{29, 30, models.RiskBelow, true},
		{30, 30, models.RiskBelow, false}, // equality never fires
		{31, 30, models.RiskBelow, false},
		{71, 70, models.RiskAbove, true},
		{70, 70, models.RiskAbove, false}, // equality never fires
		{69, 70, models.RiskAbove, false},
		{0, 0, models.RiskBelow, false},
		{100, 100, models.RiskAbove, false},
		{50, 30, models.RiskDirection("sideways"), false},
	}

	for _, tt := range tests {
		got := ShouldTrigger(tt.score, tt.threshold, tt.direction)
		if got != tt.want {
			t.Errorf("ShouldTrigger(%v, %v, %s) = %v, want %v",
				tt.score, tt.threshold, tt.direction, got, tt.want)
		}
	}
}

// A "below 30" reminder watching scores 35 -> 29 -> 40 must fire at 29 and
// stay triggered at 40 until the user dismisses it.
func TestEvaluateRisk_TriggerLatches(t *testing.T) {
	now := time.Date(2026, time.August, 25, 10, 0, 0, 0, time.UTC)
	r := models.RiskReminder{
		Symbol:    "BTC",
		Threshold: 30,
		Direction: models.RiskBelow,
		State:     models.RiskMonitoring,
	}

	if EvaluateRisk(&r, 35, now) {
		t.Fatal("EvaluateRisk(35) fired below-30 trigger")
	}
	if r.State != models.RiskMonitoring {
		t.Fatalf("State = %s, want monitoring", r.State)
	}

	if !EvaluateRisk(&r, 29, now) {
		t.Fatal("EvaluateRisk(29) did not fire below-30 trigger")
	}
	if r.State != models.RiskTriggered {
		t.Fatalf("State = %s, want triggered", r.State)
	}
	if r.LastTriggeredScore == nil || *r.LastTriggeredScore != 29 {
		t.Errorf("LastTriggeredScore = %v, want 29", r.LastTriggeredScore)
	}
	if r.LastTriggeredAt == nil || !r.LastTriggeredAt.Equal(now) {
		t.Errorf("LastTriggeredAt = %v, want %v", r.LastTriggeredAt, now)
	}

	// Score recovering does not clear the trigger.
	if EvaluateRisk(&r, 40, now.Add(time.Hour)) {
		t.Error("EvaluateRisk() fired again while already triggered")
	}
	if r.State != models.RiskTriggered {
		t.Errorf("State = %s after recovery, want triggered (no auto-clear)", r.State)
	}

	if err := DismissRiskTrigger(&r); err != nil {
		t.Fatalf("DismissRiskTrigger() error = %v", err)
	}
	if r.State != models.RiskMonitoring {
		t.Errorf("State = %s after dismiss, want monitoring", r.State)
	}

	// Rearmed: the same crossing fires again.
	if !EvaluateRisk(&r, 25, now.Add(2*time.Hour)) {
		t.Error("EvaluateRisk() did not fire after dismiss rearmed the reminder")
	}
}

func TestEvaluateRisk_PausedIsSkipped(t *testing.T) {
	r := models.RiskReminder{
		Threshold: 70,
		Direction: models.RiskAbove,
		State:     models.RiskPaused,
	}
	if EvaluateRisk(&r, 90, time.Now()) {
		t.Error("EvaluateRisk() fired on a paused reminder")
	}
	if r.State != models.RiskPaused {
		t.Errorf("State = %s, want paused", r.State)
	}
}

func TestInvestRiskTrigger(t *testing.T) {
	r := models.RiskReminder{State: models.RiskTriggered}
	if err := InvestRiskTrigger(&r); err != nil {
		t.Fatalf("InvestRiskTrigger() error = %v", err)
	}
	if r.State != models.RiskMonitoring {
		t.Errorf("State = %s, want monitoring", r.State)
	}

	if err := InvestRiskTrigger(&r); err == nil {
		t.Error("InvestRiskTrigger() accepted a reminder that is not triggered")
	}
}

func TestDismissRiskTrigger_NotTriggered(t *testing.T) {
	r := models.RiskReminder{State: models.RiskMonitoring}
	if err := DismissRiskTrigger(&r); err == nil {
		t.Error("DismissRiskTrigger() accepted a monitoring reminder")
	}
}

func TestPauseAndResume(t *testing.T) {
	now := time.Date(2026, time.August, 25, 10, 0, 0, 0, time.UTC)

	// Pause from monitoring, resume with a calm score.
	r := models.RiskReminder{Threshold: 30, Direction: models.RiskBelow, State: models.RiskMonitoring}
	if err := PauseRiskReminder(&r); err != nil {
		t.Fatalf("PauseRiskReminder() error = %v", err)
	}
	if err := PauseRiskReminder(&r); err == nil {
		t.Error("PauseRiskReminder() accepted an already paused reminder")
	}
	score := 55.0
	if err := ResumeRiskReminder(&r, &score, now); err != nil {
		t.Fatalf("ResumeRiskReminder() error = %v", err)
	}
	if r.State != models.RiskMonitoring {
		t.Errorf("State = %s after calm resume, want monitoring", r.State)
	}

	// Resume while the score crosses the threshold re-triggers immediately.
	if err := PauseRiskReminder(&r); err != nil {
		t.Fatalf("PauseRiskReminder() error = %v", err)
	}
	crossing := 12.0
	if err := ResumeRiskReminder(&r, &crossing, now); err != nil {
		t.Fatalf("ResumeRiskReminder() error = %v", err)
	}
	if r.State != models.RiskTriggered {
		t.Errorf("State = %s after crossing resume, want triggered", r.State)
	}
	if r.LastTriggeredScore == nil || *r.LastTriggeredScore != 12 {
		t.Errorf("LastTriggeredScore = %v, want 12", r.LastTriggeredScore)
	}
}

func TestPauseFromTriggeredAbandonsTrigger(t *testing.T) {
	now := time.Date(2026, time.August, 25, 10, 0, 0, 0, time.UTC)
	r := models.RiskReminder{Threshold: 30, Direction: models.RiskBelow, State: models.RiskTriggered}

	if err := PauseRiskReminder(&r); err != nil {
		t.Fatalf("PauseRiskReminder() error = %v", err)
	}

	// Resuming with the score back above the threshold lands on monitoring,
	// not on the stale trigger.
	score := 45.0
	if err := ResumeRiskReminder(&r, &score, now); err != nil {
		t.Fatalf("ResumeRiskReminder() error = %v", err)
	}
	if r.State != models.RiskMonitoring {
		t.Errorf("State = %s, want monitoring", r.State)
	}
}

func TestResumeWithoutScore(t *testing.T) {
	r := models.RiskReminder{Threshold: 30, Direction: models.RiskBelow, State: models.RiskPaused}
	if err := ResumeRiskReminder(&r, nil, time.Now()); err != nil {
		t.Fatalf("ResumeRiskReminder() error = %v", err)
	}
	if r.State != models.RiskMonitoring {
		t.Errorf("State = %s, want monitoring when no score is available", r.State)
	}

	if err := ResumeRiskReminder(&r, nil, time.Now()); err == nil {
		t.Error("ResumeRiskReminder() accepted a reminder that is not paused")
	}
}

func TestValidateRiskReminder(t *testing.T) {
	tests := []struct {
		threshold float64
		direction models.RiskDirection
		wantErr   bool
	}{
		{30, models.RiskBelow, false},
		{0, models.RiskAbove, false},
		{100, models.RiskBelow, false},
		{-1, models.RiskBelow, true},
		{101, models.RiskAbove, true},
		{50, models.RiskDirection("near"), true},
	}

	for _, tt := range tests {
		err := ValidateRiskReminder(tt.threshold, tt.direction)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateRiskReminder(%v, %s) error = %v, wantErr %v",
				tt.threshold, tt.direction, err, tt.wantErr)
		}
	}
}
