package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Scan outcome statuses. A ticker either falls out of the funnel at a
// specific phase or survives the whole thing.
const (
	ScanStatusFailedPhase1 = "FAILED_PHASE_1"
	ScanStatusFailedPhase2 = "FAILED_PHASE_2"
	ScanStatusFailedPhase3 = "FAILED_PHASE_3"
	ScanStatusPassed       = "PASSED"
)

// WatchlistItem is one ticker on a user's scan watchlist
type WatchlistItem struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"index:idx_user_ticker,unique" json:"user_id"`
	Ticker    string    `gorm:"index:idx_user_ticker,unique;not null" json:"ticker"`
	CreatedAt time.Time `json:"created_at"`
}

// StockPrice is one trading day's OHLCV bar for a ticker. The stored rows
// are a rolling snapshot: each scan replaces the ticker's window wholesale
// (delete-then-insert), so the table always holds exactly the latest bars.
type StockPrice struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	Ticker    string          `gorm:"index:idx_ticker_date" json:"ticker"`
	Date      time.Time       `gorm:"index:idx_ticker_date" json:"date"`
	Open      decimal.Decimal `gorm:"type:decimal(15,4)" json:"open"`
	High      decimal.Decimal `gorm:"type:decimal(15,4)" json:"high"`
	Low       decimal.Decimal `gorm:"type:decimal(15,4)" json:"low"`
	Close     decimal.Decimal `gorm:"type:decimal(15,4)" json:"close"`
	Volume    int64           `json:"volume"`
	CreatedAt time.Time       `json:"created_at"`
}

// ScanResult is the persisted outcome for one ticker in one scan run.
// Metrics from phases that never ran stay at their zero value; Status and
// FailureReason say how far the ticker got.
type ScanResult struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	UserID        uint      `gorm:"index" json:"user_id"`
	ScanRunID     string    `gorm:"index" json:"scan_run_id"`
	Ticker        string    `gorm:"index" json:"ticker"`
	Status        string    `json:"status"` // FAILED_PHASE_1..3, PASSED
	FailureReason string    `json:"failure_reason"`
	ScanDate      time.Time `json:"scan_date"`

	// Phase 1 metrics
	StockPrice decimal.Decimal `gorm:"type:decimal(15,4)" json:"stock_price"`
	SMA200     decimal.Decimal `gorm:"type:decimal(15,4)" json:"sma_200"`
	SMA50      decimal.Decimal `gorm:"type:decimal(15,4)" json:"sma_50"`
	AvgVolume  int64           `json:"avg_volume"`
	SMATrend   string          `json:"sma_trend"` // rising, flat, falling

	// Phase 2 metrics
	IVRank    decimal.Decimal `gorm:"type:decimal(10,4)" json:"iv_rank"`
	CurrentIV decimal.Decimal `gorm:"type:decimal(10,6)" json:"current_iv"`

	// Phase 3: selected contract and its metrics
	ContractID   string          `json:"contract_id"`
	Strike       decimal.Decimal `gorm:"type:decimal(15,4)" json:"strike"`
	Expiration   *time.Time      `json:"expiration"`
	DTE          int             `json:"dte"`
	Bid          decimal.Decimal `gorm:"type:decimal(15,4)" json:"bid"`
	Delta        decimal.Decimal `gorm:"type:decimal(10,6)" json:"delta"`
	OpenInterest int64           `json:"open_interest"`
	PremiumYield decimal.Decimal `gorm:"type:decimal(10,4)" json:"premium_yield"`

	// Phase 4
	CompositeScore decimal.Decimal `gorm:"type:decimal(10,4)" json:"composite_score"`

	// Phase 5: annotation only, never fails the ticker
	PortfolioConflict bool `json:"portfolio_conflict"`

	CreatedAt time.Time `json:"created_at"`
}

// MigrateScanModels runs database migrations for scan-related models
func MigrateScanModels(db *gorm.DB) error {
	return db.AutoMigrate(
		&WatchlistItem{},
		&StockPrice{},
		&ScanResult{},
	)
}
