package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Frequency is the recurrence cadence of a DCA reminder.
type Frequency string

const (
	FrequencyDaily       Frequency = "daily"
	FrequencyTwiceWeekly Frequency = "twice_weekly"
	FrequencyWeekly      Frequency = "weekly"
	FrequencyBiweekly    Frequency = "biweekly"
	FrequencyMonthly     Frequency = "monthly"
)

// TransactionType classifies ledger entries.
type TransactionType string

const (
	TransactionBuy        TransactionType = "buy"
	TransactionSell       TransactionType = "sell"
	TransactionTransferIn TransactionType = "transfer_in"
)

// RiskDirection is the side of the threshold a risk reminder watches.
type RiskDirection string

const (
	RiskAbove RiskDirection = "above"
	RiskBelow RiskDirection = "below"
)

// RiskState is the lifecycle state of a risk reminder.
type RiskState string

const (
	RiskMonitoring RiskState = "monitoring"
	RiskTriggered  RiskState = "triggered"
	RiskPaused     RiskState = "paused"
)

// NotificationKind tags what produced a notification.
type NotificationKind string

const (
	NotificationDCADue      NotificationKind = "dca_due"
	NotificationRiskTrigger NotificationKind = "risk_trigger"
)

// User represents an account holder
type User struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	Username  string    `gorm:"unique;not null" json:"username"`
	Email     string    `gorm:"index" json:"email"`
	Password  string    `gorm:"not null" json:"-"` // Password hash, never expose in JSON
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Portfolio groups holdings under a user-chosen name
type Portfolio struct {
	ID           string    `gorm:"primarykey;size:36" json:"id"`
	UserID       uint      `gorm:"not null;index" json:"user_id"`
	Name         string    `gorm:"not null" json:"name"`
	BaseCurrency string    `json:"base_currency"` // Display currency (USD, EUR, ...)
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Holding represents a position in a portfolio
type Holding struct {
	ID           string    `gorm:"primarykey;size:36" json:"id"`
	PortfolioID  string    `gorm:"not null;index;size:36" json:"portfolio_id"`
	AssetClass   string    `gorm:"not null;index" json:"asset_class"` // crypto, stablecoin, cash, ...
	Symbol       string    `gorm:"not null;index" json:"symbol"`
	Name         string    `json:"name"`
	Quantity     float64   `json:"quantity"`
	AvgBuyPrice  float64   `json:"avg_buy_price"`
	CurrentPrice float64   `json:"current_price"`
	Change24h    *float64  `json:"change_24h,omitempty"` // Percentage, nil when the feed has none
	LastUpdated  time.Time `json:"last_updated"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// CurrentValue is the market value of the position.
func (h *Holding) CurrentValue() float64 {
	return h.Quantity * h.CurrentPrice
}

// TotalCost is the invested amount at the weighted-average buy price.
func (h *Holding) TotalCost() float64 {
	return h.Quantity * h.AvgBuyPrice
}

// ProfitLoss is the unrealized gain or loss of the position.
func (h *Holding) ProfitLoss() float64 {
	return h.CurrentValue() - h.TotalCost()
}

// ProfitLossPercentage is the unrealized gain relative to cost, 0 for zero cost.
func (h *Holding) ProfitLossPercentage() float64 {
	cost := h.TotalCost()
	if cost == 0 {
		return 0
	}
	return h.ProfitLoss() / cost * 100
}

// Transaction is an immutable ledger entry. Corrections are made with
// compensating entries, never by editing a recorded row.
type Transaction struct {
	ID                     string          `gorm:"primarykey;size:36" json:"id"`
	PortfolioID            string          `gorm:"not null;index;size:36" json:"portfolio_id"`
	Type                   TransactionType `gorm:"not null;index" json:"type"`
	AssetClass             string          `json:"asset_class"`
	Symbol                 string          `gorm:"not null;index" json:"symbol"`
	Quantity               float64         `json:"quantity"`
	PricePerUnit           float64         `json:"price_per_unit"`
	Fee                    float64         `json:"fee"`
	RealizedPL             *float64        `json:"realized_pl,omitempty"` // Sells only
	DestinationPortfolioID *string         `gorm:"size:36" json:"destination_portfolio_id,omitempty"` // Set when sell proceeds were posted elsewhere
	ExecutedAt             time.Time       `gorm:"index" json:"executed_at"`
	CreatedAt              time.Time       `json:"created_at"`
}

// DCAReminder is a recurring purchase reminder
type DCAReminder struct {
	ID                 string          `gorm:"primarykey;size:36" json:"id"`
	UserID             uint            `gorm:"not null;index" json:"user_id"`
	Symbol             string          `gorm:"not null;index" json:"symbol"`
	Name               string          `json:"name"`
	Amount             decimal.Decimal `gorm:"type:decimal(18,2)" json:"amount"` // Fiat amount per purchase
	Currency           string          `json:"currency"`
	Frequency          Frequency       `gorm:"not null" json:"frequency"`
	TotalPurchases     *int            `json:"total_purchases,omitempty"` // nil = open-ended plan
	CompletedPurchases int             `json:"completed_purchases"`
	NotifyAt           string          `json:"notify_at"` // "HH:MM" clock time
	StartDate          time.Time       `json:"start_date"`
	NextOccurrence     time.Time       `gorm:"index" json:"next_occurrence"`
	LastNotifiedAt     *time.Time      `json:"last_notified_at,omitempty"`
	Active             bool            `gorm:"default:true" json:"active"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

// RiskReminder is a buy trigger armed on a market risk score threshold
type RiskReminder struct {
	ID                 string          `gorm:"primarykey;size:36" json:"id"`
	UserID             uint            `gorm:"not null;index" json:"user_id"`
	Symbol             string          `gorm:"not null;index" json:"symbol"`
	Name               string          `json:"name"`
	Amount             decimal.Decimal `gorm:"type:decimal(18,2)" json:"amount"`
	Currency           string          `json:"currency"`
	Threshold          float64         `json:"threshold"` // Risk score 0-100
	Direction          RiskDirection   `gorm:"not null" json:"direction"`
	State              RiskState       `gorm:"default:monitoring;index" json:"state"`
	LastTriggeredAt    *time.Time      `json:"last_triggered_at,omitempty"`
	LastTriggeredScore *float64        `json:"last_triggered_score,omitempty"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

// Notification is a pending or delivered user notification
type Notification struct {
	ID         uint             `gorm:"primarykey" json:"id"`
	UserID     uint             `gorm:"index" json:"user_id"`
	ReminderID string           `gorm:"index;size:36" json:"reminder_id"`
	Kind       NotificationKind `json:"kind"`
	Symbol     string           `json:"symbol"`
	Message    string           `json:"message"`
	EmailSent  bool             `json:"email_sent"`
	CreatedAt  time.Time        `json:"created_at"`
}

// Quote caches the market data feed per symbol
type Quote struct {
	ID          uint      `gorm:"primarykey" json:"id"`
	Symbol      string    `gorm:"unique;not null" json:"symbol"`
	Price       float64   `json:"price"`
	Change24h   *float64  `json:"change_24h,omitempty"` // Percentage over the last 24h
	RiskScore   *float64  `json:"risk_score,omitempty"` // 0-100, nil for uncovered assets
	LastUpdated time.Time `json:"last_updated"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// PortfolioSnapshot stores daily aggregate metrics per portfolio
type PortfolioSnapshot struct {
	ID                        uint      `gorm:"primarykey" json:"id"`
	PortfolioID               string    `gorm:"not null;index;size:36" json:"portfolio_id"`
	TotalValue                float64   `json:"total_value"`
	TotalCost                 float64   `json:"total_cost"`
	TotalProfitLoss           float64   `json:"total_profit_loss"`
	TotalProfitLossPercentage float64   `json:"total_profit_loss_percentage"`
	DayChange                 float64   `json:"day_change"`
	DayChangePercentage       float64   `json:"day_change_percentage"`
	RecordedAt                time.Time `gorm:"index" json:"recorded_at"`
}

// DeletedReminder stores deleted DCA reminders in a restorable log
type DeletedReminder struct {
	ID           uint       `gorm:"primarykey" json:"id"`
	ReminderData string     `gorm:"type:text" json:"reminder_data"` // JSON serialized DCAReminder
	ReminderID   string     `gorm:"index;size:36" json:"reminder_id"`
	Symbol       string     `json:"symbol"`
	DeletedBy    string     `json:"deleted_by"` // Username
	DeletedAt    time.Time  `json:"deleted_at"`
	RestoredAt   *time.Time `json:"restored_at,omitempty"`
}

// BeforeCreate hook for Portfolio to assign an ID and defaults
func (p *Portfolio) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.BaseCurrency == "" {
		p.BaseCurrency = "USD"
	}
	return nil
}

// BeforeCreate hook for Holding to assign an ID
func (h *Holding) BeforeCreate(tx *gorm.DB) error {
	if h.ID == "" {
		h.ID = uuid.NewString()
	}
	if h.AssetClass == "" {
		h.AssetClass = "crypto"
	}
	return nil
}

// BeforeCreate hook for Transaction to assign an ID and timestamp
func (t *Transaction) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.ExecutedAt.IsZero() {
		t.ExecutedAt = time.Now().UTC()
	}
	return nil
}

// BeforeUpdate rejects edits: the ledger is append-only.
func (t *Transaction) BeforeUpdate(tx *gorm.DB) error {
	return errors.New("transactions are immutable")
}

// BeforeCreate hook for DCAReminder to assign an ID and defaults
func (r *DCAReminder) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.Currency == "" {
		r.Currency = "USD"
	}
	if r.NotifyAt == "" {
		r.NotifyAt = "09:00"
	}
	return nil
}

// BeforeCreate hook for RiskReminder to assign an ID and defaults
func (r *RiskReminder) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.Currency == "" {
		r.Currency = "USD"
	}
	if r.State == "" {
		r.State = RiskMonitoring
	}
	return nil
}
