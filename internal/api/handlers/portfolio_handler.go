package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/ByMatthewNeal/Arkline-sub006/internal/config"
	"github.com/ByMatthewNeal/Arkline-sub006/internal/middleware"
	"github.com/ByMatthewNeal/Arkline-sub006/internal/models"
	"github.com/ByMatthewNeal/Arkline-sub006/internal/services"
)

// PortfolioHandler handles portfolio-related requests
type PortfolioHandler struct {
	db     *gorm.DB
	cfg    *config.Config
	logger zerolog.Logger
}

// NewPortfolioHandler creates a new portfolio handler
func NewPortfolioHandler(db *gorm.DB, cfg *config.Config, logger zerolog.Logger) *PortfolioHandler {
	return &PortfolioHandler{
		db:     db,
		cfg:    cfg,
		logger: logger,
	}
}

// loadPortfolio fetches a portfolio scoped to its owner. Every portfolio,
// holding and transaction route goes through this so one user can never read
// another's data.
func loadPortfolio(db *gorm.DB, id string, userID uint) (*models.Portfolio, error) {
	var portfolio models.Portfolio
	if err := db.Where("id = ? AND user_id = ?", id, userID).First(&portfolio).Error; err != nil {
		return nil, err
	}
	return &portfolio, nil
}

// GetAllPortfolios returns the user's portfolios
func (h *PortfolioHandler) GetAllPortfolios(c *gin.Context) {
	var portfolios []models.Portfolio
	if err := h.db.Where("user_id = ?", middleware.UserID(c)).Order("created_at ASC").Find(&portfolios).Error; err != nil {
		h.logger.Error().Err(err).Msg("Failed to fetch portfolios")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch portfolios"})
		return
	}

	c.JSON(http.StatusOK, portfolios)
}

// GetPortfolio returns a single portfolio
func (h *PortfolioHandler) GetPortfolio(c *gin.Context) {
	portfolio, err := loadPortfolio(h.db, c.Param("id"), middleware.UserID(c))
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Portfolio not found"})
		} else {
			h.logger.Error().Err(err).Msg("Failed to fetch portfolio")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch portfolio"})
		}
		return
	}

	c.JSON(http.StatusOK, portfolio)
}

// CreatePortfolioRequest represents request to create a portfolio
type CreatePortfolioRequest struct {
	Name         string `json:"name" binding:"required"`
	BaseCurrency string `json:"base_currency"`
}

// CreatePortfolio creates a new portfolio
func (h *PortfolioHandler) CreatePortfolio(c *gin.Context) {
	var req CreatePortfolioRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	portfolio := models.Portfolio{
		UserID:       middleware.UserID(c),
		Name:         req.Name,
		BaseCurrency: req.BaseCurrency,
	}
	if err := h.db.Create(&portfolio).Error; err != nil {
		h.logger.Error().Err(err).Msg("Failed to create portfolio")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create portfolio"})
		return
	}

	h.logger.Info().Str("portfolio", portfolio.ID).Str("name", portfolio.Name).Msg("Portfolio created")

	c.JSON(http.StatusCreated, portfolio)
}

// UpdatePortfolioRequest represents request to update a portfolio
type UpdatePortfolioRequest struct {
	Name         *string `json:"name"`
	BaseCurrency *string `json:"base_currency"`
}

// UpdatePortfolio updates a portfolio's name or display currency
func (h *PortfolioHandler) UpdatePortfolio(c *gin.Context) {
	portfolio, err := loadPortfolio(h.db, c.Param("id"), middleware.UserID(c))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Portfolio not found"})
		return
	}

	var req UpdatePortfolioRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	if req.Name != nil {
		portfolio.Name = *req.Name
	}
	if req.BaseCurrency != nil {
		portfolio.BaseCurrency = *req.BaseCurrency
	}

	if err := h.db.Save(portfolio).Error; err != nil {
		h.logger.Error().Err(err).Msg("Failed to update portfolio")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update portfolio"})
		return
	}

	c.JSON(http.StatusOK, portfolio)
}

// DeletePortfolio deletes a portfolio along with its holdings, ledger and
// snapshots
func (h *PortfolioHandler) DeletePortfolio(c *gin.Context) {
	portfolio, err := loadPortfolio(h.db, c.Param("id"), middleware.UserID(c))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Portfolio not found"})
		return
	}

	err = h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("portfolio_id = ?", portfolio.ID).Delete(&models.Holding{}).Error; err != nil {
			return err
		}
		if err := tx.Where("portfolio_id = ?", portfolio.ID).Delete(&models.Transaction{}).Error; err != nil {
			return err
		}
		if err := tx.Where("portfolio_id = ?", portfolio.ID).Delete(&models.PortfolioSnapshot{}).Error; err != nil {
			return err
		}
		return tx.Delete(portfolio).Error
	})
	if err != nil {
		h.logger.Error().Err(err).Str("portfolio", portfolio.ID).Msg("Failed to delete portfolio")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete portfolio"})
		return
	}

	h.logger.Info().Str("portfolio", portfolio.ID).Str("name", portfolio.Name).Msg("Portfolio deleted")

	c.JSON(http.StatusOK, gin.H{"message": "Portfolio deleted successfully"})
}

// GetPortfolioMetrics returns aggregate metrics and the allocation breakdown
func (h *PortfolioHandler) GetPortfolioMetrics(c *gin.Context) {
	portfolio, err := loadPortfolio(h.db, c.Param("id"), middleware.UserID(c))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Portfolio not found"})
		return
	}

	var holdings []models.Holding
	if err := h.db.Where("portfolio_id = ?", portfolio.ID).Find(&holdings).Error; err != nil {
		h.logger.Error().Err(err).Msg("Failed to fetch holdings")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch holdings"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"portfolio_id": portfolio.ID,
		"metrics":      services.CalculatePortfolioMetrics(holdings),
		"allocation":   services.CalculateAllocation(holdings),
	})
}

// GetPortfolioHistory returns the portfolio's daily snapshots, newest first
func (h *PortfolioHandler) GetPortfolioHistory(c *gin.Context) {
	portfolio, err := loadPortfolio(h.db, c.Param("id"), middleware.UserID(c))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Portfolio not found"})
		return
	}

	var history []models.PortfolioSnapshot
	if err := h.db.Where("portfolio_id = ?", portfolio.ID).Order("recorded_at DESC").Limit(100).Find(&history).Error; err != nil {
		h.logger.Error().Err(err).Msg("Failed to fetch portfolio history")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch history"})
		return
	}

	c.JSON(http.StatusOK, history)
}
