package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/ByMatthewNeal/Arkline-sub006/internal/models"
)

// ShouldTrigger reports whether a risk score crosses the reminder threshold.
// The comparison is strict: a score exactly equal to the threshold never
// fires.
func ShouldTrigger(score, threshold float64, direction models.RiskDirection) bool {
	switch direction {
	case models.RiskAbove:
		return score > threshold
	case models.RiskBelow:
		return score < threshold
	default:
		return false
	}
}

// EvaluateRisk arms a monitoring reminder whose threshold the score crosses,
// recording when and at what score it fired. Returns true when a new trigger
// fired. A reminder already triggered stays triggered no matter where the
// score moves afterwards; only an explicit dismiss or invest clears it.
// Paused reminders are not evaluated.
func EvaluateRisk(r *models.RiskReminder, score float64, now time.Time) bool {
	if r.State != models.RiskMonitoring {
		return false
	}
	if !ShouldTrigger(score, r.Threshold, r.Direction) {
		return false
	}

	r.State = models.RiskTriggered
	r.LastTriggeredAt = &now
	r.LastTriggeredScore = &score
	return true
}

// DismissRiskTrigger clears a fired trigger back to monitoring without
// recording a purchase.
func DismissRiskTrigger(r *models.RiskReminder) error {
	if r.State != models.RiskTriggered {
		return fmt.Errorf("reminder is %s, not triggered", r.State)
	}
	r.State = models.RiskMonitoring
	return nil
}

// InvestRiskTrigger acknowledges a fired trigger as acted on and returns the
// reminder to monitoring.
func InvestRiskTrigger(r *models.RiskReminder) error {
	if r.State != models.RiskTriggered {
		return fmt.Errorf("reminder is %s, not triggered", r.State)
	}
	r.State = models.RiskMonitoring
	return nil
}

// PauseRiskReminder suspends evaluation. Pausing is allowed from monitoring
// and from triggered; a pending trigger is abandoned.
func PauseRiskReminder(r *models.RiskReminder) error {
	if r.State == models.RiskPaused {
		return errors.New("reminder is already paused")
	}
	r.State = models.RiskPaused
	return nil
}

// ResumeRiskReminder returns a paused reminder to service. The current score
// decides where it lands: still crossing the threshold re-triggers with fresh
// trigger fields, otherwise it resumes monitoring. A nil score (asset without
// risk coverage) resumes monitoring.
func ResumeRiskReminder(r *models.RiskReminder, score *float64, now time.Time) error {
	if r.State != models.RiskPaused {
		return errors.New("reminder is not paused")
	}
	r.State = models.RiskMonitoring
	if score != nil {
		EvaluateRisk(r, *score, now)
	}
	return nil
}

// ValidateRiskReminder checks the threshold range and direction on create
// and update.
func ValidateRiskReminder(threshold float64, direction models.RiskDirection) error {
	if threshold < 0 || threshold > 100 {
		return fmt.Errorf("threshold must be between 0 and 100, got %v", threshold)
	}
	switch direction {
	case models.RiskAbove, models.RiskBelow:
		return nil
	default:
		return fmt.Errorf("unrecognized direction %q", direction)
	}
}
