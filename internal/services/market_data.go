package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
	"gorm.io/gorm"

	"github.com/ByMatthewNeal/Arkline-sub006/internal/config"
	"github.com/ByMatthewNeal/Arkline-sub006/internal/models"
)

// MarketDataService talks to the quote provider feed
type MarketDataService struct {
	cfg     *config.Config
	client  *http.Client
	limiter *rate.Limiter
	logger  zerolog.Logger
}

// QuoteData is one symbol's entry in the provider feed
type QuoteData struct {
	Symbol    string   `json:"symbol"`
	Price     float64  `json:"price"`
	Change24h *float64 `json:"change_24h"`
	RiskScore *float64 `json:"risk_score"`
}

// NewMarketDataService creates a new market data service
func NewMarketDataService(cfg *config.Config, logger zerolog.Logger) *MarketDataService {
	return &MarketDataService{
		cfg:    cfg,
		client: &http.Client{Timeout: 10 * time.Second},
		// The provider allows 2 sustained requests per second.
		limiter: rate.NewLimiter(rate.Limit(2), 4),
		logger:  logger,
	}
}

// FetchQuotes fetches price, 24h change and risk score for the given symbols.
// Transient failures are retried with exponential backoff.
func (s *MarketDataService) FetchQuotes(symbols []string) ([]QuoteData, error) {
	if len(symbols) == 0 {
		return nil, nil
	}
	if s.cfg.QuoteAPIBaseURL == "" {
		return nil, fmt.Errorf("quote API not configured")
	}

	if err := s.limiter.Wait(context.Background()); err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/v1/quotes?symbols=%s",
		strings.TrimRight(s.cfg.QuoteAPIBaseURL, "/"),
		url.QueryEscape(strings.Join(symbols, ",")))

	req, err := http.NewRequest(http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build quote request: %w", err)
	}
	if s.cfg.QuoteAPIKey != "" {
		req.Header.Set("X-API-Key", s.cfg.QuoteAPIKey)
	}

	var resp *http.Response
	for attempt := 0; ; attempt++ {
		resp, err = s.client.Do(req)
		if err == nil && resp.StatusCode == http.StatusOK {
			break
		}
		if resp != nil {
			resp.Body.Close()
			if err == nil {
				err = fmt.Errorf("quote API returned status %d", resp.StatusCode)
			}
		}
		if attempt == 2 {
			return nil, fmt.Errorf("failed to fetch quotes: %w", err)
		}
		time.Sleep(time.Duration(1<<uint(attempt)) * time.Second)
	}
	defer resp.Body.Close()

	var quotes []QuoteData
	if err := json.NewDecoder(resp.Body).Decode(&quotes); err != nil {
		return nil, fmt.Errorf("failed to decode quotes: %w", err)
	}
	return quotes, nil
}

// RefreshQuotes pulls the feed for every symbol in use, upserts the quote
// cache and pushes fresh prices into holdings.
func (s *MarketDataService) RefreshQuotes(db *gorm.DB) error {
	symbols, err := trackedSymbols(db)
	if err != nil {
		return fmt.Errorf("failed to collect tracked symbols: %w", err)
	}
	if len(symbols) == 0 {
		return nil
	}

	quotes, err := s.FetchQuotes(symbols)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	for _, q := range quotes {
		if err := s.upsertQuote(db, q, now); err != nil {
			s.logger.Error().Err(err).Str("symbol", q.Symbol).Msg("Failed to cache quote")
			continue
		}

		var holdings []models.Holding
		if err := db.Where("symbol = ?", q.Symbol).Find(&holdings).Error; err != nil {
			s.logger.Error().Err(err).Str("symbol", q.Symbol).Msg("Failed to load holdings for price push")
			continue
		}
		for i := range holdings {
			h := &holdings[i]
			h.CurrentPrice = q.Price
			h.Change24h = q.Change24h
			h.LastUpdated = now
			if err := db.Save(h).Error; err != nil {
				s.logger.Error().Err(err).Str("holding", h.ID).Msg("Failed to update holding price")
			}
		}
	}

	s.logger.Info().Int("symbols", len(quotes)).Msg("Quote refresh complete")
	return nil
}

// GetCachedQuote returns the cached feed entry for a symbol.
func GetCachedQuote(db *gorm.DB, symbol string) (*models.Quote, error) {
	var quote models.Quote
	if err := db.Where("symbol = ?", symbol).First(&quote).Error; err != nil {
		return nil, err
	}
	return &quote, nil
}

// CachedRiskScore returns the cached risk score for a symbol, nil when the
// symbol is unknown or has no coverage.
func CachedRiskScore(db *gorm.DB, symbol string) *float64 {
	quote, err := GetCachedQuote(db, symbol)
	if err != nil {
		return nil
	}
	return quote.RiskScore
}

func (s *MarketDataService) upsertQuote(db *gorm.DB, q QuoteData, now time.Time) error {
	var quote models.Quote
	err := db.Where("symbol = ?", q.Symbol).First(&quote).Error
	if err == gorm.ErrRecordNotFound {
		quote = models.Quote{
			Symbol:      q.Symbol,
			Price:       q.Price,
			Change24h:   q.Change24h,
			RiskScore:   q.RiskScore,
			LastUpdated: now,
		}
		return db.Create(&quote).Error
	}
	if err != nil {
		return err
	}

	quote.Price = q.Price
	quote.Change24h = q.Change24h
	quote.RiskScore = q.RiskScore
	quote.LastUpdated = now
	return db.Save(&quote).Error
}

// trackedSymbols returns the distinct symbols referenced by holdings and
// reminders, sorted for stable request URLs.
func trackedSymbols(db *gorm.DB) ([]string, error) {
	seen := make(map[string]bool)

	for _, model := range []interface{}{
		&models.Holding{},
		&models.DCAReminder{},
		&models.RiskReminder{},
	} {
		var symbols []string
		if err := db.Model(model).Distinct().Pluck("symbol", &symbols).Error; err != nil {
			return nil, err
		}
		for _, symbol := range symbols {
			if symbol != "" {
				seen[symbol] = true
			}
		}
	}

	out := make([]string, 0, len(seen))
	for symbol := range seen {
		out = append(out, symbol)
	}
	sort.Strings(out)
	return out, nil
}
