package scanner

import (
	"time"

	"github.com/shopspring/decimal"

	"wheelscan_backend/models"
	"wheelscan_backend/services/marketdata"
)

// Phase1Metrics is what the stock universe filter computed. Present on
// every outcome that got through the initial price fetch, even when a
// later phase rejected the ticker.
type Phase1Metrics struct {
	StockPrice float64
	SMA200     float64
	SMA50      float64
	AvgVolume  int64
	SMATrend   string
}

// Phase2Metrics is the IV screen's output
type Phase2Metrics struct {
	CurrentIV     float64
	IVHigh52w     float64
	IVLow52w      float64
	IVRank        float64
	ATMContractID string
}

// Candidate is one contract that made it through the phase-3 filter,
// carrying the live metrics the filter and scorer read.
type Candidate struct {
	Contract     marketdata.OptionContract
	Bid          float64
	Delta        float64
	OpenInterest int64
	Volume       int64
	DTE          int
	IV           float64
	PremiumYield float64
}

// Outcome is the result of scanning one ticker. Status says how far the
// ticker got; the metric blocks are nil until their phase actually ran, so
// a phase-1 reject can never carry phase-2 numbers.
type Outcome struct {
	Ticker        string
	Status        string
	FailureReason string

	Phase1   *Phase1Metrics
	Phase2   *Phase2Metrics
	Selected *Candidate
	Score    *ScoreBreakdown

	PortfolioConflict bool
}

// failPhase1 builds a phase-1 rejection. Metrics may be nil when the
// failure happened before anything was computed (e.g. the fetch itself).
func failPhase1(ticker, reason string, metrics *Phase1Metrics) *Outcome {
	return &Outcome{
		Ticker:        ticker,
		Status:        models.ScanStatusFailedPhase1,
		FailureReason: reason,
		Phase1:        metrics,
	}
}

func failPhase2(ticker, reason string, p1 *Phase1Metrics, p2 *Phase2Metrics) *Outcome {
	return &Outcome{
		Ticker:        ticker,
		Status:        models.ScanStatusFailedPhase2,
		FailureReason: reason,
		Phase1:        p1,
		Phase2:        p2,
	}
}

func failPhase3(ticker, reason string, p1 *Phase1Metrics, p2 *Phase2Metrics) *Outcome {
	return &Outcome{
		Ticker:        ticker,
		Status:        models.ScanStatusFailedPhase3,
		FailureReason: reason,
		Phase1:        p1,
		Phase2:        p2,
	}
}

// ToScanResult flattens the outcome into the persisted row shape
func (o *Outcome) ToScanResult(userID uint, runID string, scanDate time.Time) models.ScanResult {
	result := models.ScanResult{
		UserID:            userID,
		ScanRunID:         runID,
		Ticker:            o.Ticker,
		Status:            o.Status,
		FailureReason:     o.FailureReason,
		ScanDate:          scanDate,
		PortfolioConflict: o.PortfolioConflict,
	}

	if o.Phase1 != nil {
		result.StockPrice = decimal.NewFromFloat(o.Phase1.StockPrice)
		result.SMA200 = decimal.NewFromFloat(o.Phase1.SMA200)
		result.SMA50 = decimal.NewFromFloat(o.Phase1.SMA50)
		result.AvgVolume = o.Phase1.AvgVolume
		result.SMATrend = o.Phase1.SMATrend
	}

	if o.Phase2 != nil {
		result.IVRank = decimal.NewFromFloat(o.Phase2.IVRank)
		result.CurrentIV = decimal.NewFromFloat(o.Phase2.CurrentIV)
	}

	if o.Selected != nil {
		expiration := o.Selected.Contract.Expiration
		result.ContractID = o.Selected.Contract.ID
		result.Strike = decimal.NewFromFloat(o.Selected.Contract.Strike)
		result.Expiration = &expiration
		result.DTE = o.Selected.DTE
		result.Bid = decimal.NewFromFloat(o.Selected.Bid)
		result.Delta = decimal.NewFromFloat(o.Selected.Delta)
		result.OpenInterest = o.Selected.OpenInterest
		result.PremiumYield = decimal.NewFromFloat(o.Selected.PremiumYield)
	}

	if o.Score != nil {
		result.CompositeScore = decimal.NewFromFloat(o.Score.Composite)
	}

	return result
}
