// Package analysis computes the technical indicators the scanner's stock
// universe filter runs on. All inputs are ordered most-recent-first, the
// same convention the price store returns bars in.
package analysis

import "math"

// Trend classifications for the long-term moving average
const (
	TrendRising  = "rising"
	TrendFlat    = "flat"
	TrendFalling = "falling"
)

// TrendTolerance is the relative SMA-200 change over the lookback window
// that still counts as flat. At 0.005, the average has to move more than
// 0.5% in 20 trading days before we call a direction.
const TrendTolerance = 0.005

// TrendLookbackDays is how many trading days back the second SMA-200 is
// anchored when classifying the trend.
const TrendLookbackDays = 20

// SMA returns the arithmetic mean of the most recent window closes.
// ok is false when there is not enough history; callers treat that as a
// rejection upstream, never as a zero value.
func SMA(closes []float64, window int) (float64, bool) {
	if window <= 0 || len(closes) < window {
		return 0, false
	}

	sum := 0.0
	for i := 0; i < window; i++ {
		sum += closes[i]
	}
	return sum / float64(window), true
}

// AverageVolume returns the mean of the most recent window daily volumes.
func AverageVolume(volumes []int64, window int) (int64, bool) {
	if window <= 0 || len(volumes) < window {
		return 0, false
	}

	sum := 0.0
	for i := 0; i < window; i++ {
		sum += float64(volumes[i])
	}
	return int64(math.Round(sum / float64(window))), true
}

// SMATrend classifies the direction of the 200-day average by comparing the
// current SMA-200 against the SMA-200 as of TrendLookbackDays trading days
// earlier. Changes within TrendTolerance of zero are flat.
//
// ok is false when the series is too short to compute both averages.
func SMATrend(closes []float64, window int) (string, bool) {
	current, ok := SMA(closes, window)
	if !ok {
		return "", false
	}

	past, ok := SMA(closes[TrendLookbackDays:], window)
	if !ok {
		return "", false
	}

	if past == 0 {
		return "", false
	}

	change := (current - past) / past
	switch {
	case change > TrendTolerance:
		return TrendRising, true
	case change < -TrendTolerance:
		return TrendFalling, true
	default:
		return TrendFlat, true
	}
}
