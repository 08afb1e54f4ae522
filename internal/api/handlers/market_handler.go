package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/ByMatthewNeal/Arkline-sub006/internal/config"
	"github.com/ByMatthewNeal/Arkline-sub006/internal/models"
	"github.com/ByMatthewNeal/Arkline-sub006/internal/services"
)

// MarketHandler serves the quote cache and manual refreshes
type MarketHandler struct {
	db         *gorm.DB
	cfg        *config.Config
	logger     zerolog.Logger
	marketData *services.MarketDataService
}

// NewMarketHandler creates a new market handler
func NewMarketHandler(db *gorm.DB, cfg *config.Config, logger zerolog.Logger) *MarketHandler {
	return &MarketHandler{
		db:         db,
		cfg:        cfg,
		logger:     logger,
		marketData: services.NewMarketDataService(cfg, logger),
	}
}

// GetQuotes returns every cached quote
func (h *MarketHandler) GetQuotes(c *gin.Context) {
	var quotes []models.Quote
	if err := h.db.Order("symbol ASC").Find(&quotes).Error; err != nil {
		h.logger.Error().Err(err).Msg("Failed to fetch quotes")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch quotes"})
		return
	}

	c.JSON(http.StatusOK, quotes)
}

// GetQuote returns the cached quote for one symbol
func (h *MarketHandler) GetQuote(c *gin.Context) {
	symbol := strings.ToUpper(c.Param("symbol"))

	quote, err := services.GetCachedQuote(h.db, symbol)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Quote not found"})
		} else {
			h.logger.Error().Err(err).Msg("Failed to fetch quote")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch quote"})
		}
		return
	}

	c.JSON(http.StatusOK, quote)
}

// RefreshQuotes pulls the market data feed on demand
func (h *MarketHandler) RefreshQuotes(c *gin.Context) {
	if err := h.marketData.RefreshQuotes(h.db); err != nil {
		h.logger.Error().Err(err).Msg("Quote refresh failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": "Quote refresh failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Quotes refreshed successfully"})
}
