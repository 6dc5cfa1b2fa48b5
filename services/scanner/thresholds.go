package scanner

// Thresholds holds the business rules the funnel filters on. These are
// screening policy, not derived constants, so they live on a struct the
// caller can tune instead of being buried in the phase code.
type Thresholds struct {
	// Phase 1: stock universe
	MinStockPrice  float64 // lowest share price worth selling puts on
	MaxStockPrice  float64 // cap keeps one assignment affordable
	MinAvgVolume   int64   // 20-day average share volume floor
	MinHistoryBars int     // bars required for SMA-200
	ChartBars      int     // bars persisted for the UI chart

	// Phase 2: IV screen
	MinIVRank float64

	// Phase 3: option selection
	MinDTE          int
	MaxDTE          int
	MinDelta        float64 // most negative delta accepted
	MaxDelta        float64 // least negative delta accepted
	MinOpenInterest int64
	MinOptionVolume int64
	MinPremiumYield float64 // annualized, percent
}

// DefaultThresholds returns the wheel screening rules the product ships
// with.
func DefaultThresholds() Thresholds {
	return Thresholds{
		MinStockPrice:  13,
		MaxStockPrice:  150,
		MinAvgVolume:   1_000_000,
		MinHistoryBars: 200,
		ChartBars:      60,

		MinIVRank: 20,

		MinDTE:          5,
		MaxDTE:          45,
		MinDelta:        -0.30,
		MaxDelta:        -0.02,
		MinOpenInterest: 100,
		MinOptionVolume: 20,
		MinPremiumYield: 8,
	}
}
