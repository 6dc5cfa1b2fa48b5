package marketdata

import (
	"fmt"
	"time"
)

// Option contract types as the provider reports them
const (
	OptionTypePut  = "put"
	OptionTypeCall = "call"
)

// PriceBar is one trading day's OHLCV for a stock
type PriceBar struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume int64     `json:"volume"`
}

// OptionContract identifies a single listed option. The identity is
// immutable; market state for the contract is fetched separately.
type OptionContract struct {
	ID         string    `json:"id"`
	Ticker     string    `json:"underlying_ticker"`
	Type       string    `json:"contract_type"` // put, call
	Strike     float64   `json:"strike_price"`
	Expiration time.Time `json:"expiration_date"`
}

// DTE returns the contract's days to expiration as of now, rounding up so
// a contract expiring later today still counts as one day.
func (c OptionContract) DTE(now time.Time) int {
	return int(c.Expiration.Sub(now).Hours()/24 + 0.999)
}

// GreeksRecord is one day's greeks for a contract
type GreeksRecord struct {
	Date  time.Time `json:"date"`
	Delta float64   `json:"delta"`
	Gamma float64   `json:"gamma"`
	Theta float64   `json:"theta"`
	Vega  float64   `json:"vega"`
	Rho   float64   `json:"rho"`
}

// OptionPriceRecord is one day's market state for a contract
type OptionPriceRecord struct {
	Date         time.Time `json:"date"`
	Open         float64   `json:"open"`
	High         float64   `json:"high"`
	Low          float64   `json:"low"`
	Close        float64   `json:"close"`
	Bid          float64   `json:"bid"`
	Ask          float64   `json:"ask"`
	Volume       int64     `json:"volume"`
	OpenInterest int64     `json:"open_interest"`
}

// FetchError is the typed failure every client call surfaces on a network
// error or non-2xx response. The client never retries; that decision
// belongs to the orchestrator.
type FetchError struct {
	Endpoint   string
	StatusCode int // 0 when the request never produced a response
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("market data %s returned status %d", e.Endpoint, e.StatusCode)
	}
	return fmt.Sprintf("market data %s failed: %v", e.Endpoint, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// MostRecentGreeks returns the newest record by date. The ordering rule
// lives here, not inline at call sites, so the "latest record wins"
// behavior stays auditable. ok is false for an empty series.
func MostRecentGreeks(records []GreeksRecord) (GreeksRecord, bool) {
	if len(records) == 0 {
		return GreeksRecord{}, false
	}
	latest := records[0]
	for _, r := range records[1:] {
		if r.Date.After(latest.Date) {
			latest = r
		}
	}
	return latest, true
}

// MostRecentPrice returns the newest option price record by date.
func MostRecentPrice(records []OptionPriceRecord) (OptionPriceRecord, bool) {
	if len(records) == 0 {
		return OptionPriceRecord{}, false
	}
	latest := records[0]
	for _, r := range records[1:] {
		if r.Date.After(latest.Date) {
			latest = r
		}
	}
	return latest, true
}
