package scanner

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"wheelscan_backend/models"
)

// Orchestrator runs the funnel across a user's whole watchlist and
// persists the batch as one authoritative result set.
type Orchestrator struct {
	scanner *TickerScanner
	store   *Store
	now     func() time.Time
}

// NewOrchestrator wires a full-scan runner over a ticker scanner and its
// store
func NewOrchestrator(scanner *TickerScanner, store *Store) *Orchestrator {
	return &Orchestrator{
		scanner: scanner,
		store:   store,
		now:     time.Now,
	}
}

// ScanSummary is what a completed full scan reports back
type ScanSummary struct {
	RunID        string    `json:"run_id"`
	UserID       uint      `json:"user_id"`
	TotalScanned int       `json:"total_scanned"`
	TotalPassed  int       `json:"total_passed"`
	ScanDate     time.Time `json:"scan_date"`
}

// RunFullScan scans every ticker on the user's watchlist sequentially.
// One ticker's failure never aborts the run; its rejection is recorded and
// the loop moves on. Results are written in a single replace at the end,
// so readers see either the previous complete run or this one, never a
// mix.
func (o *Orchestrator) RunFullScan(ctx context.Context, userID uint) (*ScanSummary, error) {
	tickers, err := o.store.WatchlistTickers(userID)
	if err != nil {
		return nil, err
	}
	if len(tickers) == 0 {
		return nil, fmt.Errorf("watchlist for user %d is empty, nothing to scan", userID)
	}

	runID := uuid.NewString()
	scanDate := o.now()

	log.Infof("scan run %s: starting for user %d, %d tickers", runID, userID, len(tickers))

	results := make([]models.ScanResult, 0, len(tickers))
	passed := 0

	for _, ticker := range tickers {
		// A cancelled run writes nothing: partial batches are worse than
		// stale ones.
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("scan run %s aborted: %w", runID, err)
		}

		outcome, err := o.scanner.Scan(ctx, userID, ticker)
		if err != nil {
			return nil, fmt.Errorf("scan run %s: ticker %s: %w", runID, ticker, err)
		}

		if outcome.Status == models.ScanStatusPassed {
			passed++
			log.Infof("scan run %s: %s passed, score %.1f", runID, ticker, outcome.Score.Composite)
		} else {
			log.Infof("scan run %s: %s rejected at %s: %s", runID, ticker, outcome.Status, outcome.FailureReason)
		}

		results = append(results, outcome.ToScanResult(userID, runID, scanDate))
	}

	if err := o.store.ReplaceScanResults(userID, results); err != nil {
		return nil, fmt.Errorf("scan run %s: %w", runID, err)
	}

	log.Infof("scan run %s: finished, %d/%d passed", runID, passed, len(tickers))

	return &ScanSummary{
		RunID:        runID,
		UserID:       userID,
		TotalScanned: len(tickers),
		TotalPassed:  passed,
		ScanDate:     scanDate,
	}, nil
}
