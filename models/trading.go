package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Trade sides and statuses used by the portfolio-conflict check
const (
	TradeSideSellToOpen  = "SELL_TO_OPEN"
	TradeSideBuyToClose  = "BUY_TO_CLOSE"
	TradeStatusOpen      = "OPEN"
	TradeStatusClosed    = "CLOSED"
	OptionTypePut        = "PUT"
	OptionTypeCall       = "CALL"
	PositionStatusOpen   = "OPEN"
	PositionStatusClosed = "CLOSED"
)

// OptionTrade represents an options trade the user has placed (the wheel's
// short puts and covered calls). The scanner only reads these to flag
// tickers the user already has exposure to.
type OptionTrade struct {
	ID         uint            `gorm:"primaryKey" json:"id"`
	UserID     uint            `gorm:"index:idx_trade_user_ticker" json:"user_id"`
	Ticker     string          `gorm:"index:idx_trade_user_ticker" json:"ticker"`
	Side       string          `json:"side"`        // SELL_TO_OPEN, BUY_TO_CLOSE
	OptionType string          `json:"option_type"` // PUT, CALL
	Strike     decimal.Decimal `gorm:"type:decimal(15,4)" json:"strike"`
	Expiration time.Time       `json:"expiration"`
	Contracts  int             `json:"contracts"`
	Premium    decimal.Decimal `gorm:"type:decimal(15,4)" json:"premium"`
	Status     string          `gorm:"index" json:"status"` // OPEN, CLOSED
	OpenedAt   time.Time       `json:"opened_at"`
	ClosedAt   *time.Time      `json:"closed_at"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// Position represents assigned shares held from a wheel put assignment
type Position struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	UserID    uint            `gorm:"index:idx_pos_user_ticker" json:"user_id"`
	Ticker    string          `gorm:"index:idx_pos_user_ticker" json:"ticker"`
	Quantity  int64           `json:"quantity"`
	AvgPrice  decimal.Decimal `gorm:"type:decimal(15,4)" json:"avg_price"`
	Status    string          `gorm:"index" json:"status"` // OPEN, CLOSED
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// MigrateTradingModels runs database migrations for trading-related models
func MigrateTradingModels(db *gorm.DB) error {
	return db.AutoMigrate(
		&OptionTrade{},
		&Position{},
	)
}
