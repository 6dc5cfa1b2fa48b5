package scanner

// Composite weights. They sum to 1 so a fully saturated candidate scores
// exactly 100.
const (
	weightYield     = 0.30
	weightIVRank    = 0.25
	weightDelta     = 0.15
	weightLiquidity = 0.15
	weightTrend     = 0.15
)

const (
	yieldScoreFloor = 8.0  // minimum acceptable annualized yield scores 0
	yieldScoreCeil  = 24.0 // 3x the floor saturates the sub-score

	ivRankScoreFloor = 20.0
	ivRankScoreCeil  = 70.0

	// The sweet spot for short put delta. Inside the band scores 100;
	// outside, the score falls off linearly to 0 over deltaFalloff.
	deltaBandLow  = -0.25
	deltaBandHigh = -0.22
	deltaFalloff  = 0.05

	liquiditySaturationOI = 500 // open interest at which liquidity maxes out

	trendSaturationPct = 20.0 // percent above SMA-200 at which trend maxes out
)

// ScoreBreakdown carries the five sub-scores and the weighted composite,
// all on a 0-100 scale.
type ScoreBreakdown struct {
	Yield     float64
	IVRank    float64
	Delta     float64
	Liquidity float64
	Trend     float64
	Composite float64
}

// ComputeScore ranks a passing candidate. Pure arithmetic over metrics the
// earlier phases already validated, so it cannot fail.
func ComputeScore(premiumYield, ivRank, delta float64, openInterest int64, stockPrice, sma200 float64) ScoreBreakdown {
	b := ScoreBreakdown{
		Yield:     linearScore(premiumYield, yieldScoreFloor, yieldScoreCeil),
		IVRank:    linearScore(ivRank, ivRankScoreFloor, ivRankScoreCeil),
		Delta:     deltaScore(delta),
		Liquidity: liquidityScore(openInterest),
		Trend:     trendScore(stockPrice, sma200),
	}
	b.Composite = weightYield*b.Yield +
		weightIVRank*b.IVRank +
		weightDelta*b.Delta +
		weightLiquidity*b.Liquidity +
		weightTrend*b.Trend
	return b
}

// linearScore maps [floor, ceil] onto [0, 100], clamped at both ends
func linearScore(value, floor, ceil float64) float64 {
	if value <= floor {
		return 0
	}
	if value >= ceil {
		return 100
	}
	return (value - floor) / (ceil - floor) * 100
}

// deltaScore is 100 inside the sweet-spot band and decays linearly to 0
// over deltaFalloff on either side
func deltaScore(delta float64) float64 {
	var dist float64
	switch {
	case delta < deltaBandLow:
		dist = deltaBandLow - delta
	case delta > deltaBandHigh:
		dist = delta - deltaBandHigh
	default:
		return 100
	}
	if dist >= deltaFalloff {
		return 0
	}
	return (1 - dist/deltaFalloff) * 100
}

// liquidityScore scales open interest against the saturation point
func liquidityScore(openInterest int64) float64 {
	if openInterest <= 0 {
		return 0
	}
	score := float64(openInterest) / liquiditySaturationOI * 100
	if score > 100 {
		return 100
	}
	return score
}

// trendScore rewards distance above the SMA-200, saturating at
// trendSaturationPct percent
func trendScore(stockPrice, sma200 float64) float64 {
	if sma200 <= 0 || stockPrice <= sma200 {
		return 0
	}
	pctAbove := (stockPrice - sma200) / sma200 * 100
	if pctAbove >= trendSaturationPct {
		return 100
	}
	return pctAbove / trendSaturationPct * 100
}
