package scanner

import (
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"wheelscan_backend/models"
	"wheelscan_backend/services/marketdata"
)

// Store is the scanner's narrow persistence gateway. The wider application
// owns the schema; the scanner only needs watchlist reads, the two
// replace-style writes, and the portfolio-conflict lookups.
type Store struct {
	db *gorm.DB
}

// NewStore creates a persistence gateway over an existing gorm connection
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// WatchlistTickers returns the tickers on a user's watchlist
func (s *Store) WatchlistTickers(userID uint) ([]string, error) {
	var tickers []string
	err := s.db.Model(&models.WatchlistItem{}).
		Where("user_id = ?", userID).
		Order("ticker ASC").
		Pluck("ticker", &tickers).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load watchlist for user %d: %w", userID, err)
	}
	return tickers, nil
}

// ReplacePriceHistory swaps a ticker's stored bar window for the given
// bars. Delete and insert run in one transaction so a crash mid-replace
// can never leave the ticker with an empty or partial history.
func (s *Store) ReplacePriceHistory(ticker string, bars []marketdata.PriceBar) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("ticker = ?", ticker).Delete(&models.StockPrice{}).Error; err != nil {
			return err
		}

		if len(bars) == 0 {
			return nil
		}

		rows := make([]models.StockPrice, 0, len(bars))
		for _, bar := range bars {
			rows = append(rows, models.StockPrice{
				Ticker: ticker,
				Date:   bar.Date,
				Open:   decimal.NewFromFloat(bar.Open),
				High:   decimal.NewFromFloat(bar.High),
				Low:    decimal.NewFromFloat(bar.Low),
				Close:  decimal.NewFromFloat(bar.Close),
				Volume: bar.Volume,
			})
		}
		return tx.Create(&rows).Error
	})
	if err != nil {
		return fmt.Errorf("failed to replace price history for %s: %w", ticker, err)
	}
	return nil
}

// ReplaceScanResults replaces all of a user's scan results with the new
// batch in a single transaction. A scan run is authoritative for "now":
// full replace, never a merge.
func (s *Store) ReplaceScanResults(userID uint, results []models.ScanResult) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", userID).Delete(&models.ScanResult{}).Error; err != nil {
			return err
		}

		if len(results) == 0 {
			return nil
		}
		return tx.Create(&results).Error
	})
	if err != nil {
		return fmt.Errorf("failed to replace scan results for user %d: %w", userID, err)
	}
	return nil
}

// PriceHistory returns the stored bar window for a ticker, newest first
func (s *Store) PriceHistory(ticker string) ([]models.StockPrice, error) {
	var bars []models.StockPrice
	err := s.db.Where("ticker = ?", ticker).Order("date DESC").Find(&bars).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load price history for %s: %w", ticker, err)
	}
	return bars, nil
}

// ScanResults returns a user's latest persisted results, best score first
func (s *Store) ScanResults(userID uint) ([]models.ScanResult, error) {
	var results []models.ScanResult
	err := s.db.Where("user_id = ?", userID).
		Order("composite_score DESC, ticker ASC").
		Find(&results).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load scan results for user %d: %w", userID, err)
	}
	return results, nil
}

// HasOpenPutTrade reports whether the user already has an open short put
// on the ticker
func (s *Store) HasOpenPutTrade(userID uint, ticker string) (bool, error) {
	var count int64
	err := s.db.Model(&models.OptionTrade{}).
		Where("user_id = ? AND ticker = ? AND side = ? AND option_type = ? AND status = ?",
			userID, ticker, models.TradeSideSellToOpen, models.OptionTypePut, models.TradeStatusOpen).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check open put trades for %s: %w", ticker, err)
	}
	return count > 0, nil
}

// HasOpenPosition reports whether the user holds assigned shares of the
// ticker
func (s *Store) HasOpenPosition(userID uint, ticker string) (bool, error) {
	var count int64
	err := s.db.Model(&models.Position{}).
		Where("user_id = ? AND ticker = ? AND status = ?", userID, ticker, models.PositionStatusOpen).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check open positions for %s: %w", ticker, err)
	}
	return count > 0, nil
}

// ActiveScanUsers returns the IDs of every user with at least one
// watchlist entry; the nightly job scans each of them.
func (s *Store) ActiveScanUsers() ([]uint, error) {
	var userIDs []uint
	err := s.db.Model(&models.WatchlistItem{}).
		Distinct("user_id").
		Order("user_id ASC").
		Pluck("user_id", &userIDs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load scan users: %w", err)
	}
	return userIDs, nil
}
