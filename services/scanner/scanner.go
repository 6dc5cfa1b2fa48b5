// Package scanner implements the wheel-strategy options screening
// pipeline: a five-phase funnel that filters a watchlist ticker down to at
// most one sellable put contract, scores it, and flags portfolio overlap.
package scanner

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"wheelscan_backend/models"
	"wheelscan_backend/services/analysis"
	"wheelscan_backend/services/marketdata"
	"wheelscan_backend/services/pricing"
)

// MarketData is the slice of the market data client the scanner consumes
type MarketData interface {
	GetStockPrices(ctx context.Context, ticker string) ([]marketdata.PriceBar, error)
	GetOptionChain(ctx context.Context, ticker string) ([]marketdata.OptionContract, error)
	GetOptionGreeks(ctx context.Context, contractID string) ([]marketdata.GreeksRecord, error)
	GetOptionPrices(ctx context.Context, contractID string) ([]marketdata.OptionPriceRecord, error)
}

// TickerScanner runs the five-phase funnel for one ticker at a time
type TickerScanner struct {
	data       MarketData
	store      *Store
	thresholds Thresholds
	riskFree   float64

	// now is swappable for deterministic DTE math in tests
	now func() time.Time
}

// NewTickerScanner creates a scanner. riskFree is the annualized risk-free
// rate used by the implied volatility inversion.
func NewTickerScanner(data MarketData, store *Store, thresholds Thresholds, riskFree float64) *TickerScanner {
	return &TickerScanner{
		data:       data,
		store:      store,
		thresholds: thresholds,
		riskFree:   riskFree,
		now:        time.Now,
	}
}

// Scan runs the funnel for one ticker. Phase rejections and fetch failures
// come back as a tagged Outcome; the error return is reserved for
// infrastructure failures (persistence) that make the ticker's result
// untrustworthy.
func (ts *TickerScanner) Scan(ctx context.Context, userID uint, ticker string) (*Outcome, error) {
	// ---- Phase 1: stock universe filter ----

	bars, err := ts.data.GetStockPrices(ctx, ticker)
	if err != nil {
		log.Warnf("scan %s: price fetch failed: %v", ticker, err)
		return failPhase1(ticker, fmt.Sprintf("fetch error: price history: %v", err), nil), nil
	}

	sortBarsDescending(bars)

	// Persist the charting window before filtering: the UI shows the chart
	// for rejected tickers too. A write failure here is fatal for the
	// ticker, not a phase rejection.
	chartBars := bars
	if len(chartBars) > ts.thresholds.ChartBars {
		chartBars = chartBars[:ts.thresholds.ChartBars]
	}
	if err := ts.store.ReplacePriceHistory(ticker, chartBars); err != nil {
		return nil, err
	}

	if len(bars) < ts.thresholds.MinHistoryBars {
		reason := fmt.Sprintf("insufficient history: %d bars, need %d", len(bars), ts.thresholds.MinHistoryBars)
		return failPhase1(ticker, reason, nil), nil
	}

	closes := make([]float64, len(bars))
	volumes := make([]int64, len(bars))
	for i, bar := range bars {
		closes[i] = bar.Close
		volumes[i] = bar.Volume
	}

	stockPrice := closes[0]

	sma200, ok := analysis.SMA(closes, 200)
	if !ok {
		return failPhase1(ticker, "insufficient history for SMA-200", nil), nil
	}
	sma50, _ := analysis.SMA(closes, 50)

	avgVolume, ok := analysis.AverageVolume(volumes, 20)
	if !ok {
		return failPhase1(ticker, "insufficient history for average volume", nil), nil
	}

	trend, ok := analysis.SMATrend(closes, 200)
	if !ok {
		return failPhase1(ticker, "insufficient history for SMA trend", nil), nil
	}

	p1 := &Phase1Metrics{
		StockPrice: stockPrice,
		SMA200:     sma200,
		SMA50:      sma50,
		AvgVolume:  avgVolume,
		SMATrend:   trend,
	}

	if reason := ts.phase1Reject(p1); reason != "" {
		return failPhase1(ticker, reason, p1), nil
	}

	// ---- Phase 2: IV screen ----

	chain, err := ts.data.GetOptionChain(ctx, ticker)
	if err != nil {
		return failPhase2(ticker, fmt.Sprintf("fetch error: option chain: %v", err), p1, nil), nil
	}

	otmPuts := filterOTMPuts(chain, stockPrice)
	if len(otmPuts) == 0 {
		return failPhase2(ticker, "no out-of-the-money puts in chain", p1, nil), nil
	}

	atmPut := nearestStrike(otmPuts, stockPrice)

	_, prices, err := ts.fetchContractHistory(ctx, atmPut.ID)
	if err != nil {
		return failPhase2(ticker, fmt.Sprintf("fetch error: ATM put history: %v", err), p1, nil), nil
	}

	ivSeries := ts.buildIVSeries(atmPut, prices, bars)
	if len(ivSeries) == 0 {
		return failPhase2(ticker, "no implied volatility points could be computed", p1, nil), nil
	}

	p2, ok := summarizeIVSeries(ivSeries, atmPut.ID)
	if !ok {
		// 52-week high equals low: the rank is undefined, and the screen
		// fails closed rather than waving the ticker through.
		return failPhase2(ticker, "IV rank unavailable: flat 52-week IV range", p1, nil), nil
	}

	if p2.IVRank < ts.thresholds.MinIVRank {
		reason := fmt.Sprintf("IV rank %.2f below minimum %.2f", p2.IVRank, ts.thresholds.MinIVRank)
		return failPhase2(ticker, reason, p1, p2), nil
	}

	// ---- Phase 3: option selection ----

	selected, reason, err := ts.selectContract(ctx, otmPuts, stockPrice)
	if err != nil {
		return failPhase3(ticker, fmt.Sprintf("fetch error: contract data: %v", err), p1, p2), nil
	}
	if selected == nil {
		return failPhase3(ticker, reason, p1, p2), nil
	}

	// ---- Phase 4: composite scoring (pure, never fails) ----

	score := ComputeScore(selected.PremiumYield, p2.IVRank, selected.Delta, selected.OpenInterest, stockPrice, sma200)

	// ---- Phase 5: portfolio conflict annotation ----

	openPut, err := ts.store.HasOpenPutTrade(userID, ticker)
	if err != nil {
		return nil, err
	}
	openPos, err := ts.store.HasOpenPosition(userID, ticker)
	if err != nil {
		return nil, err
	}

	return &Outcome{
		Ticker:            ticker,
		Status:            models.ScanStatusPassed,
		Phase1:            p1,
		Phase2:            p2,
		Selected:          selected,
		Score:             &score,
		PortfolioConflict: openPut || openPos,
	}, nil
}

// phase1Reject returns a reason string when the stock fails the universe
// filter, empty when it passes. All boundaries are inclusive.
func (ts *TickerScanner) phase1Reject(m *Phase1Metrics) string {
	t := ts.thresholds

	if m.StockPrice < t.MinStockPrice || m.StockPrice > t.MaxStockPrice {
		return fmt.Sprintf("stock price %.2f outside [%.2f, %.2f]", m.StockPrice, t.MinStockPrice, t.MaxStockPrice)
	}
	if m.AvgVolume < t.MinAvgVolume {
		return fmt.Sprintf("average volume %d below minimum %d", m.AvgVolume, t.MinAvgVolume)
	}
	if m.StockPrice <= m.SMA200 {
		return fmt.Sprintf("stock price %.2f not above SMA-200 %.2f", m.StockPrice, m.SMA200)
	}
	if m.SMATrend == analysis.TrendFalling {
		return "SMA-200 trend is falling"
	}
	return ""
}

// selectContract runs the phase-3 candidate filter and argmax. It returns
// (nil, reason, nil) when no contract qualifies and a non-nil error only
// for fetch failures.
func (ts *TickerScanner) selectContract(ctx context.Context, otmPuts []marketdata.OptionContract, stockPrice float64) (*Candidate, string, error) {
	t := ts.thresholds
	now := ts.now()

	inWindow := make([]marketdata.OptionContract, 0, len(otmPuts))
	for _, contract := range otmPuts {
		dte := contract.DTE(now)
		if dte >= t.MinDTE && dte <= t.MaxDTE {
			inWindow = append(inWindow, contract)
		}
	}
	if len(inWindow) == 0 {
		return nil, fmt.Sprintf("no OTM puts expiring in %d-%d days", t.MinDTE, t.MaxDTE), nil
	}

	var best *Candidate
	for _, contract := range inWindow {
		greeks, prices, err := ts.fetchContractHistory(ctx, contract.ID)
		if err != nil {
			return nil, "", err
		}

		latestGreeks, ok := marketdata.MostRecentGreeks(greeks)
		if !ok {
			continue // no greeks on record, nothing to filter on
		}
		latestPrice, ok := marketdata.MostRecentPrice(prices)
		if !ok {
			continue
		}

		dte := contract.DTE(now)
		candidate := Candidate{
			Contract:     contract,
			Bid:          latestPrice.Bid,
			Delta:        latestGreeks.Delta,
			OpenInterest: latestPrice.OpenInterest,
			Volume:       latestPrice.Volume,
			DTE:          dte,
			PremiumYield: premiumYield(latestPrice.Bid, contract.Strike, dte),
		}

		if iv, ok := pricing.ImpliedVolatility(latestPrice.Close, stockPrice, contract.Strike, pricing.DTEToYears(dte), ts.riskFree); ok {
			candidate.IV = iv
		}

		if candidate.Delta < t.MinDelta || candidate.Delta > t.MaxDelta {
			continue
		}
		if candidate.OpenInterest < t.MinOpenInterest {
			continue
		}
		if candidate.Volume < t.MinOptionVolume {
			continue
		}
		if candidate.PremiumYield < t.MinPremiumYield {
			continue
		}

		// Deterministic argmax: strictly higher yield wins, so reordering
		// the chain can't change the selection.
		if best == nil || candidate.PremiumYield > best.PremiumYield {
			c := candidate
			best = &c
		}
	}

	if best == nil {
		return nil, "no contract passed the candidate filter", nil
	}
	return best, "", nil
}

// fetchContractHistory loads a contract's greeks and price series
// concurrently. The two reads are independent; the shared limiter still
// bounds their combined request rate.
func (ts *TickerScanner) fetchContractHistory(ctx context.Context, contractID string) ([]marketdata.GreeksRecord, []marketdata.OptionPriceRecord, error) {
	var (
		wg        sync.WaitGroup
		greeks    []marketdata.GreeksRecord
		prices    []marketdata.OptionPriceRecord
		greeksErr error
		pricesErr error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		greeks, greeksErr = ts.data.GetOptionGreeks(ctx, contractID)
	}()
	go func() {
		defer wg.Done()
		prices, pricesErr = ts.data.GetOptionPrices(ctx, contractID)
	}()
	wg.Wait()

	if greeksErr != nil {
		return nil, nil, greeksErr
	}
	if pricesErr != nil {
		return nil, nil, pricesErr
	}
	return greeks, prices, nil
}

// IVPoint is one derived implied-volatility observation. Ephemeral:
// computed in memory per scan, never persisted.
type IVPoint struct {
	Date time.Time
	IV   float64
}

// buildIVSeries inverts Black-Scholes for every historical option price
// record that has a matching stock close on the same date. Records whose
// inversion fails (stale quote, expired date, degenerate vega) are
// silently skipped; the series is what could be computed.
func (ts *TickerScanner) buildIVSeries(contract marketdata.OptionContract, prices []marketdata.OptionPriceRecord, bars []marketdata.PriceBar) []IVPoint {
	closeByDate := make(map[string]float64, len(bars))
	for _, bar := range bars {
		closeByDate[bar.Date.Format("2006-01-02")] = bar.Close
	}

	series := make([]IVPoint, 0, len(prices))
	for _, record := range prices {
		stockClose, ok := closeByDate[record.Date.Format("2006-01-02")]
		if !ok {
			continue
		}

		days := int(contract.Expiration.Sub(record.Date).Hours() / 24)
		if days <= 0 {
			continue
		}

		iv, ok := pricing.ImpliedVolatility(record.Close, stockClose, contract.Strike, pricing.DTEToYears(days), ts.riskFree)
		if !ok {
			continue
		}

		series = append(series, IVPoint{Date: record.Date, IV: iv})
	}

	sort.Slice(series, func(i, j int) bool {
		return series[i].Date.Before(series[j].Date)
	})
	return series
}

// summarizeIVSeries derives the current IV, the 52-week extremes, and the
// IV rank. ok is false when the rank is undefined (high == low), which the
// phase-2 gate treats as a rejection, never a pass.
func summarizeIVSeries(series []IVPoint, contractID string) (*Phase2Metrics, bool) {
	current := series[len(series)-1].IV
	high := series[0].IV
	low := series[0].IV
	for _, point := range series {
		if point.IV > high {
			high = point.IV
		}
		if point.IV < low {
			low = point.IV
		}
	}

	metrics := &Phase2Metrics{
		CurrentIV:     current,
		IVHigh52w:     high,
		IVLow52w:      low,
		ATMContractID: contractID,
	}

	if high == low {
		return metrics, false
	}

	metrics.IVRank = (current - low) / (high - low) * 100
	return metrics, true
}

// filterOTMPuts keeps put contracts struck at or below the current price
func filterOTMPuts(chain []marketdata.OptionContract, stockPrice float64) []marketdata.OptionContract {
	out := make([]marketdata.OptionContract, 0, len(chain))
	for _, contract := range chain {
		if contract.Type == marketdata.OptionTypePut && contract.Strike <= stockPrice {
			out = append(out, contract)
		}
	}
	return out
}

// nearestStrike picks the contract whose strike is closest to price.
// Equidistant strikes resolve to the lower one: for a put seller the lower
// strike is the conservative pick, and the rule keeps selection
// deterministic.
func nearestStrike(contracts []marketdata.OptionContract, price float64) marketdata.OptionContract {
	best := contracts[0]
	bestDist := math.Abs(best.Strike - price)
	for _, contract := range contracts[1:] {
		dist := math.Abs(contract.Strike - price)
		if dist < bestDist || (dist == bestDist && contract.Strike < best.Strike) {
			best = contract
			bestDist = dist
		}
	}
	return best
}

// premiumYield annualizes the bid as a percentage of strike:
// (bid/strike) * (365/dte) * 100
func premiumYield(bid, strike float64, dte int) float64 {
	if strike <= 0 || dte <= 0 {
		return 0
	}
	return (bid / strike) * (365.0 / float64(dte)) * 100
}

// sortBarsDescending orders bars newest first, the convention every
// downstream consumer assumes
func sortBarsDescending(bars []marketdata.PriceBar) {
	sort.Slice(bars, func(i, j int) bool {
		return bars[i].Date.After(bars[j].Date)
	})
}
