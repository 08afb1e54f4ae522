package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/ByMatthewNeal/Arkline-sub006/internal/config"
	"github.com/ByMatthewNeal/Arkline-sub006/internal/middleware"
	"github.com/ByMatthewNeal/Arkline-sub006/internal/models"
)

// NotificationHandler serves the in-app notification feed
type NotificationHandler struct {
	db     *gorm.DB
	cfg    *config.Config
	logger zerolog.Logger
}

// NewNotificationHandler creates a new notification handler
func NewNotificationHandler(db *gorm.DB, cfg *config.Config, logger zerolog.Logger) *NotificationHandler {
	return &NotificationHandler{
		db:     db,
		cfg:    cfg,
		logger: logger,
	}
}

// GetNotifications returns the user's notifications, newest first
func (h *NotificationHandler) GetNotifications(c *gin.Context) {
	var notifications []models.Notification
	if err := h.db.Where("user_id = ?", middleware.UserID(c)).
		Order("created_at DESC").Limit(100).Find(&notifications).Error; err != nil {
		h.logger.Error().Err(err).Msg("Failed to fetch notifications")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch notifications"})
		return
	}

	c.JSON(http.StatusOK, notifications)
}

// DeleteNotification removes a notification from the feed
func (h *NotificationHandler) DeleteNotification(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ID"})
		return
	}

	var notification models.Notification
	if err := h.db.Where("id = ? AND user_id = ?", id, middleware.UserID(c)).First(&notification).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Notification not found"})
		return
	}

	if err := h.db.Delete(&notification).Error; err != nil {
		h.logger.Error().Err(err).Msg("Failed to delete notification")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete notification"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Notification deleted successfully"})
}
