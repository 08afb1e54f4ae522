package handlers

import (
	"net/http"
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

// RiskHandler handles risk-based buy trigger requests
type RiskHandler struct {
	db     *gorm.DB
	cfg    *config.Config
	logger zerolog.Logger
}

// NewRiskHandler creates a new risk handler
func NewRiskHandler(db *gorm.DB, cfg *config.Config, logger zerolog.Logger) *RiskHandler {
	return &RiskHandler{
		db:     db,
		cfg:    cfg,
		logger: logger,
	}
}

func loadRiskReminder(db *gorm.DB, id string, userID uint) (*models.RiskReminder, error) {
	var reminder models.RiskReminder
	if err := db.Where("id = ? AND user_id = ?", id, userID).First(&reminder).Error; err != nil {
		return nil, err
	}
	return &reminder, nil
}

// GetAllRiskReminders returns the user's risk reminders, newest first
func (h *RiskHandler) GetAllRiskReminders(c *gin.Context) {
	var reminders []models.RiskReminder
	if err := h.db.Where("user_id = ?", middleware.UserID(c)).Order("created_at DESC").Find(&reminders).Error; err != nil {
		h.logger.Error().Err(err).Msg("Failed to fetch risk reminders")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch risk reminders"})
		return
	}

	c.JSON(http.StatusOK, reminders)
}

// GetRiskReminder returns a single risk reminder
func (h *RiskHandler) GetRiskReminder(c *gin.Context) {
	reminder, err := loadRiskReminder(h.db, c.Param("id"), middleware.UserID(c))
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Risk reminder not found"})
		} else {
			h.logger.Error().Err(err).Msg("Failed to fetch risk reminder")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch risk reminder"})
		}
		return
	}

	c.JSON(http.StatusOK, reminder)
}

// CreateRiskReminderRequest represents request to create a risk reminder
type CreateRiskReminderRequest struct {
	Symbol    string          `json:"symbol" binding:"required"`
	Name      string          `json:"name"`
	Amount    decimal.Decimal `json:"amount"`
	Currency  string          `json:"currency"`
	Threshold float64         `json:"threshold"`
	Direction string          `json:"direction" binding:"required"`
}

// CreateRiskReminder arms a new risk trigger in the monitoring state
func (h *RiskHandler) CreateRiskReminder(c *gin.Context) {
	var req CreateRiskReminderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	direction := models.RiskDirection(req.Direction)
	if err := services.ValidateRiskReminder(req.Threshold, direction); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !req.Amount.IsPositive() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Amount must be positive"})
		return
	}

	reminder := models.RiskReminder{
		UserID:    middleware.UserID(c),
		Symbol:    req.Symbol,
		Name:      req.Name,
		Amount:    req.Amount,
		Currency:  req.Currency,
		Threshold: req.Threshold,
		Direction: direction,
		State:     models.RiskMonitoring,
	}
	if err := h.db.Create(&reminder).Error; err != nil {
		h.logger.Error().Err(err).Msg("Failed to create risk reminder")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create risk reminder"})
		return
	}

	h.logger.Info().
		Str("reminder", reminder.ID).
		Str("symbol", reminder.Symbol).
		Float64("threshold", reminder.Threshold).
		Str("direction", string(reminder.Direction)).
		Msg("Risk reminder created")

	c.JSON(http.StatusCreated, reminder)
}

// UpdateRiskReminderRequest represents request to update a risk reminder
type UpdateRiskReminderRequest struct {
	Name      *string          `json:"name"`
	Amount    *decimal.Decimal `json:"amount"`
	Currency  *string          `json:"currency"`
	Threshold *float64         `json:"threshold"`
	Direction *string          `json:"direction"`
}

// UpdateRiskReminder updates trigger parameters. Changing the threshold or
// direction does not clear a fired trigger; dismiss or invest does that.
func (h *RiskHandler) UpdateRiskReminder(c *gin.Context) {
	reminder, err := loadRiskReminder(h.db, c.Param("id"), middleware.UserID(c))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Risk reminder not found"})
		return
	}

	var req UpdateRiskReminderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	threshold := reminder.Threshold
	if req.Threshold != nil {
		threshold = *req.Threshold
	}
	direction := reminder.Direction
	if req.Direction != nil {
		direction = models.RiskDirection(*req.Direction)
	}
	if err := services.ValidateRiskReminder(threshold, direction); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
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
	reminder.Threshold = threshold
	reminder.Direction = direction

	if err := h.db.Save(reminder).Error; err != nil {
		h.logger.Error().Err(err).Msg("Failed to update risk reminder")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update risk reminder"})
		return
	}

	c.JSON(http.StatusOK, reminder)
}

// DeleteRiskReminder removes a risk reminder
func (h *RiskHandler) DeleteRiskReminder(c *gin.Context) {
	reminder, err := loadRiskReminder(h.db, c.Param("id"), middleware.UserID(c))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Risk reminder not found"})
		return
	}

	if err := h.db.Delete(reminder).Error; err != nil {
		h.logger.Error().Err(err).Msg("Failed to delete risk reminder")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete risk reminder"})
		return
	}

	h.logger.Info().Str("reminder", reminder.ID).Str("symbol", reminder.Symbol).Msg("Risk reminder deleted")

	c.JSON(http.StatusOK, gin.H{"message": "Risk reminder deleted successfully"})
}

// DismissRiskReminder clears a fired trigger back to monitoring
func (h *RiskHandler) DismissRiskReminder(c *gin.Context) {
	h.transitionRisk(c, func(r *models.RiskReminder) error {
		return services.DismissRiskTrigger(r)
	}, "Risk trigger dismissed")
}

// InvestRiskReminder acknowledges a fired trigger as acted on
func (h *RiskHandler) InvestRiskReminder(c *gin.Context) {
	h.transitionRisk(c, func(r *models.RiskReminder) error {
		return services.InvestRiskTrigger(r)
	}, "Risk trigger invested")
}

// PauseRiskReminder suspends threshold evaluation
func (h *RiskHandler) PauseRiskReminder(c *gin.Context) {
	h.transitionRisk(c, func(r *models.RiskReminder) error {
		return services.PauseRiskReminder(r)
	}, "Risk reminder paused")
}

// ResumeRiskReminder returns a paused reminder to service, re-armed against
// the current cached risk score
func (h *RiskHandler) ResumeRiskReminder(c *gin.Context) {
	h.transitionRisk(c, func(r *models.RiskReminder) error {
		score := services.CachedRiskScore(h.db, r.Symbol)
		return services.ResumeRiskReminder(r, score, time.Now().UTC())
	}, "Risk reminder resumed")
}

func (h *RiskHandler) transitionRisk(c *gin.Context, transition func(*models.RiskReminder) error, event string) {
	reminder, err := loadRiskReminder(h.db, c.Param("id"), middleware.UserID(c))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Risk reminder not found"})
		return
	}

	if err := transition(reminder); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.db.Save(reminder).Error; err != nil {
		h.logger.Error().Err(err).Msg("Failed to save risk reminder")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save risk reminder"})
		return
	}

	h.logger.Info().
		Str("reminder", reminder.ID).
		Str("symbol", reminder.Symbol).
		Str("state", string(reminder.State)).
		Msg(event)

	c.JSON(http.StatusOK, reminder)
}
