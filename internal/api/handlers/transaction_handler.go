package handlers

import (
	"encoding/csv"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/ByMatthewNeal/Arkline-sub006/internal/config"
	"github.com/ByMatthewNeal/Arkline-sub006/internal/middleware"
	"github.com/ByMatthewNeal/Arkline-sub006/internal/models"
)

// TransactionHandler serves the read side of the ledger. Writes happen only
// through the buy, sell and transfer flows.
type TransactionHandler struct {
	db     *gorm.DB
	cfg    *config.Config
	logger zerolog.Logger
}

// NewTransactionHandler creates a new transaction handler
func NewTransactionHandler(db *gorm.DB, cfg *config.Config, logger zerolog.Logger) *TransactionHandler {
	return &TransactionHandler{
		db:     db,
		cfg:    cfg,
		logger: logger,
	}
}

// GetTransactions returns a portfolio's ledger, newest first, optionally
// filtered by symbol and type
func (h *TransactionHandler) GetTransactions(c *gin.Context) {
	portfolio, err := loadPortfolio(h.db, c.Param("id"), middleware.UserID(c))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Portfolio not found"})
		return
	}

	query := h.db.Where("portfolio_id = ?", portfolio.ID)
	if symbol := c.Query("symbol"); symbol != "" {
		query = query.Where("symbol = ?", symbol)
	}
	if txType := c.Query("type"); txType != "" {
		switch models.TransactionType(txType) {
		case models.TransactionBuy, models.TransactionSell, models.TransactionTransferIn:
			query = query.Where("type = ?", txType)
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": "Unrecognized transaction type " + strconv.Quote(txType)})
			return
		}
	}

	var transactions []models.Transaction
	if err := query.Order("executed_at DESC").Limit(500).Find(&transactions).Error; err != nil {
		h.logger.Error().Err(err).Msg("Failed to fetch transactions")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch transactions"})
		return
	}

	c.JSON(http.StatusOK, transactions)
}

// ExportCSV downloads the full ledger of a portfolio as CSV
func (h *TransactionHandler) ExportCSV(c *gin.Context) {
	portfolio, err := loadPortfolio(h.db, c.Param("id"), middleware.UserID(c))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Portfolio not found"})
		return
	}

	var transactions []models.Transaction
	if err := h.db.Where("portfolio_id = ?", portfolio.ID).Order("executed_at ASC").Find(&transactions).Error; err != nil {
		h.logger.Error().Err(err).Msg("Failed to fetch transactions")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch transactions"})
		return
	}

	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", "attachment;filename=transactions_export.csv")

	writer := csv.NewWriter(c.Writer)
	defer writer.Flush()

	writer.Write([]string{
		"Executed At", "Type", "Symbol", "Asset Class", "Quantity",
		"Price Per Unit", "Fee", "Gross Value", "Realized P/L", "Destination Portfolio",
	})

	for _, t := range transactions {
		realized := ""
		if t.RealizedPL != nil {
			realized = strconv.FormatFloat(*t.RealizedPL, 'f', 2, 64)
		}
		destination := ""
		if t.DestinationPortfolioID != nil {
			destination = *t.DestinationPortfolioID
		}

		writer.Write([]string{
			t.ExecutedAt.Format("2006-01-02 15:04:05"),
			string(t.Type),
			t.Symbol,
			t.AssetClass,
			// Quantities keep full precision; crypto amounts round to dust
			// at two decimals.
			strconv.FormatFloat(t.Quantity, 'f', -1, 64),
			strconv.FormatFloat(t.PricePerUnit, 'f', 2, 64),
			strconv.FormatFloat(t.Fee, 'f', 2, 64),
			strconv.FormatFloat(t.Quantity*t.PricePerUnit, 'f', 2, 64),
			realized,
			destination,
		})
	}

	h.logger.Info().Str("portfolio", portfolio.ID).Int("rows", len(transactions)).Msg("Ledger exported")
}
