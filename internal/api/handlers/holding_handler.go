package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/ByMatthewNeal/Arkline-sub006/internal/config"
	"github.com/ByMatthewNeal/Arkline-sub006/internal/middleware"
	"github.com/ByMatthewNeal/Arkline-sub006/internal/models"
	"github.com/ByMatthewNeal/Arkline-sub006/internal/services"
)

// HoldingHandler handles holding-related requests
type HoldingHandler struct {
	db     *gorm.DB
	cfg    *config.Config
	logger zerolog.Logger
}

// NewHoldingHandler creates a new holding handler
func NewHoldingHandler(db *gorm.DB, cfg *config.Config, logger zerolog.Logger) *HoldingHandler {
	return &HoldingHandler{
		db:     db,
		cfg:    cfg,
		logger: logger,
	}
}

// loadHolding fetches a holding after verifying the enclosing portfolio
// belongs to the user.
func loadHolding(db *gorm.DB, portfolioID, holdingID string, userID uint) (*models.Holding, error) {
	if _, err := loadPortfolio(db, portfolioID, userID); err != nil {
		return nil, err
	}

	var holding models.Holding
	if err := db.Where("id = ? AND portfolio_id = ?", holdingID, portfolioID).First(&holding).Error; err != nil {
		return nil, err
	}
	return &holding, nil
}

// GetHoldings returns a portfolio's holdings
func (h *HoldingHandler) GetHoldings(c *gin.Context) {
	portfolio, err := loadPortfolio(h.db, c.Param("id"), middleware.UserID(c))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Portfolio not found"})
		return
	}

	var holdings []models.Holding
	if err := h.db.Where("portfolio_id = ?", portfolio.ID).Order("symbol ASC").Find(&holdings).Error; err != nil {
		h.logger.Error().Err(err).Msg("Failed to fetch holdings")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch holdings"})
		return
	}

	c.JSON(http.StatusOK, holdings)
}

// GetHolding returns a single holding
func (h *HoldingHandler) GetHolding(c *gin.Context) {
	holding, err := loadHolding(h.db, c.Param("id"), c.Param("holdingID"), middleware.UserID(c))
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Holding not found"})
		} else {
			h.logger.Error().Err(err).Msg("Failed to fetch holding")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch holding"})
		}
		return
	}

	c.JSON(http.StatusOK, holding)
}

// CreateHoldingRequest represents request to create a holding
type CreateHoldingRequest struct {
	Symbol      string  `json:"symbol" binding:"required"`
	Name        string  `json:"name"`
	AssetClass  string  `json:"asset_class"`
	Quantity    float64 `json:"quantity" binding:"required,gt=0"`
	AvgBuyPrice float64 `json:"avg_buy_price" binding:"gte=0"`
}

// CreateHolding opens a position and records the opening entry in the ledger
func (h *HoldingHandler) CreateHolding(c *gin.Context) {
	portfolio, err := loadPortfolio(h.db, c.Param("id"), middleware.UserID(c))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Portfolio not found"})
		return
	}

	var req CreateHoldingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	// One row per symbol and portfolio; buys fold into the existing position.
	var existing models.Holding
	if err := h.db.Where("portfolio_id = ? AND symbol = ?", portfolio.ID, req.Symbol).First(&existing).Error; err == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "Holding for this symbol already exists, use buy instead"})
		return
	}

	now := time.Now().UTC()
	holding := models.Holding{
		PortfolioID: portfolio.ID,
		AssetClass:  req.AssetClass,
		Symbol:      req.Symbol,
		Name:        req.Name,
		Quantity:    req.Quantity,
		AvgBuyPrice: req.AvgBuyPrice,
		LastUpdated: now,
	}

	err = h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&holding).Error; err != nil {
			return err
		}
		entry := models.Transaction{
			PortfolioID:  portfolio.ID,
			Type:         models.TransactionBuy,
			AssetClass:   holding.AssetClass,
			Symbol:       holding.Symbol,
			Quantity:     req.Quantity,
			PricePerUnit: req.AvgBuyPrice,
			ExecutedAt:   now,
		}
		return tx.Create(&entry).Error
	})
	if err != nil {
		h.logger.Error().Err(err).Str("symbol", req.Symbol).Msg("Failed to create holding")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create holding"})
		return
	}

	h.logger.Info().Str("portfolio", portfolio.ID).Str("symbol", holding.Symbol).Msg("Holding created")

	c.JSON(http.StatusCreated, holding)
}

// UpdateHoldingRequest represents request to update a holding's descriptive
// fields. Quantity and cost basis only move through buy and sell.
type UpdateHoldingRequest struct {
	Name         *string  `json:"name"`
	AssetClass   *string  `json:"asset_class"`
	CurrentPrice *float64 `json:"current_price"`
}

// UpdateHolding updates name, asset class or a manual price for assets the
// quote feed does not cover
func (h *HoldingHandler) UpdateHolding(c *gin.Context) {
	holding, err := loadHolding(h.db, c.Param("id"), c.Param("holdingID"), middleware.UserID(c))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Holding not found"})
		return
	}

	var req UpdateHoldingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	if req.Name != nil {
		holding.Name = *req.Name
	}
	if req.AssetClass != nil {
		if *req.AssetClass == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Asset class cannot be empty"})
			return
		}
		holding.AssetClass = *req.AssetClass
	}
	if req.CurrentPrice != nil {
		if *req.CurrentPrice < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Price cannot be negative"})
			return
		}
		holding.CurrentPrice = *req.CurrentPrice
		holding.LastUpdated = time.Now().UTC()
	}

	if err := h.db.Save(holding).Error; err != nil {
		h.logger.Error().Err(err).Msg("Failed to update holding")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update holding"})
		return
	}

	c.JSON(http.StatusOK, holding)
}

// DeleteHolding removes a position without touching the ledger
func (h *HoldingHandler) DeleteHolding(c *gin.Context) {
	holding, err := loadHolding(h.db, c.Param("id"), c.Param("holdingID"), middleware.UserID(c))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Holding not found"})
		return
	}

	if err := h.db.Delete(holding).Error; err != nil {
		h.logger.Error().Err(err).Msg("Failed to delete holding")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete holding"})
		return
	}

	h.logger.Info().Str("holding", holding.ID).Str("symbol", holding.Symbol).Msg("Holding deleted")

	c.JSON(http.StatusOK, gin.H{"message": "Holding deleted successfully"})
}

// BuyRequest represents a purchase folded into an existing holding
type BuyRequest struct {
	Quantity float64 `json:"quantity"`
	Price    float64 `json:"price"`
	Fee      float64 `json:"fee"`
}

// Buy adds to a position at a price, recomputing the weighted-average cost
// and recording the ledger entry
func (h *HoldingHandler) Buy(c *gin.Context) {
	holding, err := loadHolding(h.db, c.Param("id"), c.Param("holdingID"), middleware.UserID(c))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Holding not found"})
		return
	}

	var req BuyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	if req.Fee < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Fee cannot be negative"})
		return
	}

	if err := services.ApplyBuy(holding, req.Quantity, req.Price); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	now := time.Now().UTC()
	holding.LastUpdated = now

	entry := models.Transaction{
		PortfolioID:  holding.PortfolioID,
		Type:         models.TransactionBuy,
		AssetClass:   holding.AssetClass,
		Symbol:       holding.Symbol,
		Quantity:     req.Quantity,
		PricePerUnit: req.Price,
		Fee:          req.Fee,
		ExecutedAt:   now,
	}

	err = h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(holding).Error; err != nil {
			return err
		}
		return tx.Create(&entry).Error
	})
	if err != nil {
		h.logger.Error().Err(err).Str("symbol", holding.Symbol).Msg("Failed to record buy")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record buy"})
		return
	}

	h.logger.Info().Str("symbol", holding.Symbol).Float64("quantity", req.Quantity).Float64("price", req.Price).Msg("Buy recorded")

	c.JSON(http.StatusOK, gin.H{
		"holding":     holding,
		"transaction": entry,
	})
}

// SellRequest represents a sale of part or all of a holding. Proceeds can
// optionally be posted into a second portfolio, either as cash at the net
// amount or as the asset itself at the sell price.
type SellRequest struct {
	Quantity               float64 `json:"quantity"`
	Price                  float64 `json:"price"`
	Fee                    float64 `json:"fee"`
	DestinationPortfolioID string  `json:"destination_portfolio_id"`
	ProceedsMode           string  `json:"proceeds_mode"`
}

// Sell validates and executes a sale: ledger entry with realized P/L,
// quantity reduction or removal, and optional proceeds posting. All writes
// happen in one database transaction; a failed validation leaves everything
// untouched.
func (h *HoldingHandler) Sell(c *gin.Context) {
	userID := middleware.UserID(c)

	holding, err := loadHolding(h.db, c.Param("id"), c.Param("holdingID"), userID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Holding not found"})
		return
	}

	var req SellRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	plan, err := services.PlanSell(holding, req.Quantity, req.Price, req.Fee)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var destination *models.Portfolio
	mode := req.ProceedsMode
	if req.DestinationPortfolioID != "" {
		if mode == "" {
			mode = "cash" // selling into cash is the default posting
		}
		if mode != "cash" && mode != "asset" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Proceeds mode must be cash or asset"})
			return
		}
		destination, err = loadPortfolio(h.db, req.DestinationPortfolioID, userID)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Destination portfolio not found"})
			return
		}
	}

	now := time.Now().UTC()
	sale := models.Transaction{
		PortfolioID:  holding.PortfolioID,
		Type:         models.TransactionSell,
		AssetClass:   holding.AssetClass,
		Symbol:       holding.Symbol,
		Quantity:     plan.Quantity,
		PricePerUnit: plan.Price,
		Fee:          plan.Fee,
		RealizedPL:   &plan.RealizedPL,
		ExecutedAt:   now,
	}
	if destination != nil {
		sale.DestinationPortfolioID = &destination.ID
	}

	err = h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&sale).Error; err != nil {
			return err
		}

		if plan.RemoveHolding {
			if err := tx.Delete(holding).Error; err != nil {
				return err
			}
		} else {
			holding.Quantity = plan.RemainingQuantity
			holding.LastUpdated = now
			if err := tx.Save(holding).Error; err != nil {
				return err
			}
		}

		if destination == nil {
			return nil
		}
		if mode == "cash" {
			return postCashProceeds(tx, destination, plan.NetProceeds, now)
		}
		return postAssetProceeds(tx, destination, holding, plan, now)
	})
	if err != nil {
		h.logger.Error().Err(err).Str("symbol", holding.Symbol).Msg("Failed to execute sell")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to execute sell"})
		return
	}

	h.logger.Info().
		Str("symbol", holding.Symbol).
		Float64("quantity", plan.Quantity).
		Float64("realized_pl", plan.RealizedPL).
		Bool("removed", plan.RemoveHolding).
		Msg("Sell executed")

	c.JSON(http.StatusOK, gin.H{
		"plan":            plan,
		"transaction":     sale,
		"holding_removed": plan.RemoveHolding,
	})
}

// postCashProceeds books the net proceeds as a cash position in the
// destination portfolio, in the portfolio's display currency at price 1.
func postCashProceeds(tx *gorm.DB, dest *models.Portfolio, amount float64, now time.Time) error {
	symbol := dest.BaseCurrency
	if symbol == "" {
		symbol = "USD"
	}

	var cash models.Holding
	err := tx.Where("portfolio_id = ? AND symbol = ?", dest.ID, symbol).First(&cash).Error
	switch {
	case err == gorm.ErrRecordNotFound:
		cash = models.Holding{
			PortfolioID:  dest.ID,
			AssetClass:   "cash",
			Symbol:       symbol,
			Name:         symbol,
			Quantity:     amount,
			AvgBuyPrice:  1,
			CurrentPrice: 1,
			LastUpdated:  now,
		}
		if err := tx.Create(&cash).Error; err != nil {
			return err
		}
	case err != nil:
		return err
	default:
		if err := services.ApplyBuy(&cash, amount, 1); err != nil {
			return err
		}
		cash.CurrentPrice = 1
		cash.LastUpdated = now
		if err := tx.Save(&cash).Error; err != nil {
			return err
		}
	}

	entry := models.Transaction{
		PortfolioID:  dest.ID,
		Type:         models.TransactionTransferIn,
		AssetClass:   "cash",
		Symbol:       symbol,
		Quantity:     amount,
		PricePerUnit: 1,
		ExecutedAt:   now,
	}
	return tx.Create(&entry).Error
}

// postAssetProceeds moves the sold quantity into the destination portfolio at
// the sell price, averaging into an existing same-symbol position.
func postAssetProceeds(tx *gorm.DB, dest *models.Portfolio, sold *models.Holding, plan *services.SellPlan, now time.Time) error {
	var target models.Holding
	err := tx.Where("portfolio_id = ? AND symbol = ?", dest.ID, sold.Symbol).First(&target).Error
	switch {
	case err == gorm.ErrRecordNotFound:
		target = models.Holding{
			PortfolioID:  dest.ID,
			AssetClass:   sold.AssetClass,
			Symbol:       sold.Symbol,
			Name:         sold.Name,
			Quantity:     plan.Quantity,
			AvgBuyPrice:  plan.Price,
			CurrentPrice: sold.CurrentPrice,
			Change24h:    sold.Change24h,
			LastUpdated:  now,
		}
		if err := tx.Create(&target).Error; err != nil {
			return err
		}
	case err != nil:
		return err
	default:
		if err := services.ApplyBuy(&target, plan.Quantity, plan.Price); err != nil {
			return err
		}
		target.LastUpdated = now
		if err := tx.Save(&target).Error; err != nil {
			return err
		}
	}

	entry := models.Transaction{
		PortfolioID:  dest.ID,
		Type:         models.TransactionTransferIn,
		AssetClass:   sold.AssetClass,
		Symbol:       sold.Symbol,
		Quantity:     plan.Quantity,
		PricePerUnit: plan.Price,
		ExecutedAt:   now,
	}
	return tx.Create(&entry).Error
}
