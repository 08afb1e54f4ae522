package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/ByMatthewNeal/Arkline-sub006/internal/config"
	"github.com/ByMatthewNeal/Arkline-sub006/internal/middleware"
	"github.com/ByMatthewNeal/Arkline-sub006/internal/models"
	"github.com/ByMatthewNeal/Arkline-sub006/internal/services"
)

// ReminderHandler handles DCA reminder requests
type ReminderHandler struct {
	db     *gorm.DB
	cfg    *config.Config
	logger zerolog.Logger
}

// NewReminderHandler creates a new reminder handler
func NewReminderHandler(db *gorm.DB, cfg *config.Config, logger zerolog.Logger) *ReminderHandler {
	return &ReminderHandler{
		db:     db,
		cfg:    cfg,
		logger: logger,
	}
}

// loadReminder fetches a reminder scoped to its owner.
func loadReminder(db *gorm.DB, id string, userID uint) (*models.DCAReminder, error) {
	var reminder models.DCAReminder
	if err := db.Where("id = ? AND user_id = ?", id, userID).First(&reminder).Error; err != nil {
		return nil, err
	}
	return &reminder, nil
}

// parseDate accepts RFC 3339 timestamps and plain dates; an empty string
// falls back to the given default.
func parseDate(raw string, fallback time.Time) (time.Time, error) {
	if raw == "" {
		return fallback, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q, use YYYY-MM-DD", raw)
}

// validNotifyAt checks the "HH:MM" clock format.
func validNotifyAt(raw string) bool {
	_, err := time.Parse("15:04", raw)
	return err == nil
}

// GetAllReminders returns the user's DCA reminders, soonest first
func (h *ReminderHandler) GetAllReminders(c *gin.Context) {
	var reminders []models.DCAReminder
	if err := h.db.Where("user_id = ?", middleware.UserID(c)).Order("next_occurrence ASC").Find(&reminders).Error; err != nil {
		h.logger.Error().Err(err).Msg("Failed to fetch reminders")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch reminders"})
		return
	}

	c.JSON(http.StatusOK, reminders)
}

// GetReminder returns a single reminder
func (h *ReminderHandler) GetReminder(c *gin.Context) {
	reminder, err := loadReminder(h.db, c.Param("id"), middleware.UserID(c))
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Reminder not found"})
		} else {
			h.logger.Error().Err(err).Msg("Failed to fetch reminder")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch reminder"})
		}
		return
	}

	c.JSON(http.StatusOK, reminder)
}

// CreateReminderRequest represents request to create a DCA reminder
type CreateReminderRequest struct {
	Symbol         string          `json:"symbol" binding:"required"`
	Name           string          `json:"name"`
	Amount         decimal.Decimal `json:"amount"`
	Currency       string          `json:"currency"`
	Frequency      string          `json:"frequency" binding:"required"`
	TotalPurchases *int            `json:"total_purchases"`
	NotifyAt       string          `json:"notify_at"`
	StartDate      string          `json:"start_date"`
}

// CreateReminder creates a DCA reminder and schedules its first occurrence.
// A start date today or in the future is itself the first occurrence; a past
// start advances along the cadence into the present.
func (h *ReminderHandler) CreateReminder(c *gin.Context) {
	var req CreateReminderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	frequency, err := services.ParseFrequency(req.Frequency)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !req.Amount.IsPositive() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Amount must be positive"})
		return
	}
	if req.TotalPurchases != nil && *req.TotalPurchases <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Total purchases must be positive"})
		return
	}
	if req.NotifyAt != "" && !validNotifyAt(req.NotifyAt) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Notify time must be HH:MM"})
		return
	}

	now := time.Now().UTC()
	start, err := parseDate(req.StartDate, now)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	next, err := services.FirstOccurrence(frequency, start, now)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	reminder := models.DCAReminder{
		UserID:         middleware.UserID(c),
		Symbol:         req.Symbol,
		Name:           req.Name,
		Amount:         req.Amount,
		Currency:       req.Currency,
		Frequency:      frequency,
		TotalPurchases: req.TotalPurchases,
		NotifyAt:       req.NotifyAt,
		StartDate:      start,
		NextOccurrence: next,
		Active:         true,
	}
	if err := h.db.Create(&reminder).Error; err != nil {
		h.logger.Error().Err(err).Msg("Failed to create reminder")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create reminder"})
		return
	}

	h.logger.Info().Str("reminder", reminder.ID).Str("symbol", reminder.Symbol).Str("frequency", string(frequency)).Msg("Reminder created")

	c.JSON(http.StatusCreated, reminder)
}

// UpdateReminderRequest represents request to update a reminder. Setting
// total_purchases to 0 makes the plan open-ended.
type UpdateReminderRequest struct {
	Name           *string          `json:"name"`
	Amount         *decimal.Decimal `json:"amount"`
	Currency       *string          `json:"currency"`
	Frequency      *string          `json:"frequency"`
	TotalPurchases *int             `json:"total_purchases"`
	NotifyAt       *string          `json:"notify_at"`
}

// UpdateReminder updates a reminder. A frequency change re-anchors the next
// occurrence on the plan's start date under the new cadence.
func (h *ReminderHandler) UpdateReminder(c *gin.Context) {
	reminder, err := loadReminder(h.db, c.Param("id"), middleware.UserID(c))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Reminder not found"})
		return
	}

	var req UpdateReminderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	if req.Name != nil {
		reminder.Name = *req.Name
	}
	if req.Amount != nil {
		if !req.Amount.IsPositive() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Amount must be positive"})
			return
		}
		reminder.Amount = *req.Amount
	}
	if req.Currency != nil && *req.Currency != "" {
		reminder.Currency = *req.Currency
	}
	if req.NotifyAt != nil {
		if !validNotifyAt(*req.NotifyAt) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Notify time must be HH:MM"})
			return
		}
		reminder.NotifyAt = *req.NotifyAt
	}
	if req.TotalPurchases != nil {
		switch {
		case *req.TotalPurchases == 0:
			reminder.TotalPurchases = nil
		case *req.TotalPurchases < reminder.CompletedPurchases:
			c.JSON(http.StatusBadRequest, gin.H{
				"error": fmt.Sprintf("Total purchases cannot be below the %d already completed", reminder.CompletedPurchases),
			})
			return
		default:
			reminder.TotalPurchases = req.TotalPurchases
		}
	}
	if req.Frequency != nil {
		frequency, err := services.ParseFrequency(*req.Frequency)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if frequency != reminder.Frequency {
			next, err := services.FirstOccurrence(frequency, reminder.StartDate, time.Now().UTC())
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			reminder.Frequency = frequency
			reminder.NextOccurrence = next
		}
	}

	if err := h.db.Save(reminder).Error; err != nil {
		h.logger.Error().Err(err).Msg("Failed to update reminder")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update reminder"})
		return
	}

	c.JSON(http.StatusOK, reminder)
}

// DeleteReminder archives the reminder to the deletion log and removes it
func (h *ReminderHandler) DeleteReminder(c *gin.Context) {
	reminder, err := loadReminder(h.db, c.Param("id"), middleware.UserID(c))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Reminder not found"})
		return
	}

	reminderData, err := json.Marshal(reminder)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to serialize reminder")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete reminder"})
		return
	}

	deleted := models.DeletedReminder{
		ReminderData: string(reminderData),
		ReminderID:   reminder.ID,
		Symbol:       reminder.Symbol,
		DeletedBy:    middleware.Username(c),
		DeletedAt:    time.Now().UTC(),
	}

	err = h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&deleted).Error; err != nil {
			return err
		}
		return tx.Delete(reminder).Error
	})
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to delete reminder")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete reminder"})
		return
	}

	h.logger.Info().Str("reminder", reminder.ID).Str("symbol", reminder.Symbol).Msg("Reminder deleted")

	c.JSON(http.StatusOK, gin.H{"message": "Reminder deleted successfully"})
}

// InvestReminder marks the current occurrence invested and schedules the next
func (h *ReminderHandler) InvestReminder(c *gin.Context) {
	h.advanceReminder(c, true)
}

// SkipReminder moves past the current occurrence without counting it
func (h *ReminderHandler) SkipReminder(c *gin.Context) {
	h.advanceReminder(c, false)
}

func (h *ReminderHandler) advanceReminder(c *gin.Context, invested bool) {
	reminder, err := loadReminder(h.db, c.Param("id"), middleware.UserID(c))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Reminder not found"})
		return
	}
	if !reminder.Active {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Reminder is not active"})
		return
	}

	if err := services.AdvanceReminder(reminder, invested, time.Now().UTC()); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.db.Save(reminder).Error; err != nil {
		h.logger.Error().Err(err).Msg("Failed to save reminder")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save reminder"})
		return
	}

	h.logger.Info().
		Str("reminder", reminder.ID).
		Str("symbol", reminder.Symbol).
		Bool("invested", invested).
		Time("next_occurrence", reminder.NextOccurrence).
		Msg("Reminder advanced")

	c.JSON(http.StatusOK, reminder)
}

// ToggleReminder flips a reminder between active and paused. Reactivating a
// reminder whose scheduled date went stale advances it forward on cadence.
func (h *ReminderHandler) ToggleReminder(c *gin.Context) {
	reminder, err := loadReminder(h.db, c.Param("id"), middleware.UserID(c))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Reminder not found"})
		return
	}

	reminder.Active = !reminder.Active
	if reminder.Active {
		next, err := services.FirstOccurrence(reminder.Frequency, reminder.NextOccurrence, time.Now().UTC())
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		reminder.NextOccurrence = next
	}

	if err := h.db.Save(reminder).Error; err != nil {
		h.logger.Error().Err(err).Msg("Failed to toggle reminder")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to toggle reminder"})
		return
	}

	c.JSON(http.StatusOK, reminder)
}

// GetDeletedReminders returns the user's deletion log entries still awaiting
// restore, newest first
func (h *ReminderHandler) GetDeletedReminders(c *gin.Context) {
	var deleted []models.DeletedReminder
	if err := h.db.Where("deleted_by = ? AND restored_at IS NULL", middleware.Username(c)).
		Order("deleted_at DESC").Find(&deleted).Error; err != nil {
		h.logger.Error().Err(err).Msg("Failed to fetch deleted reminders")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch deleted reminders"})
		return
	}

	c.JSON(http.StatusOK, deleted)
}

// RestoreReminder re-creates a deleted reminder under a fresh ID. The
// notification dedup stamp is cleared and a stale next occurrence advances
// forward on cadence before the reminder goes live again.
func (h *ReminderHandler) RestoreReminder(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ID"})
		return
	}

	var deleted models.DeletedReminder
	if err := h.db.Where("id = ? AND deleted_by = ?", id, middleware.Username(c)).First(&deleted).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Deleted reminder not found"})
		return
	}
	if deleted.RestoredAt != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "Reminder already restored"})
		return
	}

	var reminder models.DCAReminder
	if err := json.Unmarshal([]byte(deleted.ReminderData), &reminder); err != nil {
		h.logger.Error().Err(err).Msg("Failed to deserialize reminder")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to restore reminder"})
		return
	}

	now := time.Now().UTC()

	reminder.ID = "" // fresh ID on insert
	reminder.UserID = middleware.UserID(c)
	reminder.LastNotifiedAt = nil
	reminder.CreatedAt = time.Time{}
	reminder.UpdatedAt = time.Time{}

	next, err := services.FirstOccurrence(reminder.Frequency, reminder.NextOccurrence, now)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	reminder.NextOccurrence = next

	err = h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&reminder).Error; err != nil {
			return err
		}
		deleted.RestoredAt = &now
		return tx.Save(&deleted).Error
	})
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to restore reminder")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to restore reminder"})
		return
	}

	h.logger.Info().Str("reminder", reminder.ID).Str("symbol", reminder.Symbol).Msg("Reminder restored")

	c.JSON(http.StatusOK, reminder)
}
