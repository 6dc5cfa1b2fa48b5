package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSMA(t *testing.T) {
	closes := []float64{10, 20, 30, 40}

	sma, ok := SMA(closes, 2)
	assert.True(t, ok)
	assert.Equal(t, 15.0, sma)

	sma, ok = SMA(closes, 4)
	assert.True(t, ok)
	assert.Equal(t, 25.0, sma)
}

func TestSMAInsufficientHistory(t *testing.T) {
	_, ok := SMA([]float64{10, 20}, 3)
	assert.False(t, ok)

	_, ok = SMA(nil, 1)
	assert.False(t, ok)

	_, ok = SMA([]float64{10}, 0)
	assert.False(t, ok)
}

func TestAverageVolume(t *testing.T) {
	volumes := []int64{1_000_000, 2_000_000, 3_000_000, 500}

	avg, ok := AverageVolume(volumes, 3)
	assert.True(t, ok)
	assert.Equal(t, int64(2_000_000), avg)

	_, ok = AverageVolume(volumes, 5)
	assert.False(t, ok)
}

// flatSeries returns n identical closes at the given price, most recent first.
func flatSeries(price float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = price
	}
	return out
}

func TestSMATrendFlat(t *testing.T) {
	closes := flatSeries(100, 240)

	trend, ok := SMATrend(closes, 200)
	assert.True(t, ok)
	assert.Equal(t, TrendFlat, trend)
}

func TestSMATrendRising(t *testing.T) {
	// Most recent 200 closes average well above the window 20 days back
	closes := make([]float64, 240)
	for i := range closes {
		// Steady climb: newest close highest
		closes[i] = 200 - float64(i)*0.5
	}

	trend, ok := SMATrend(closes, 200)
	assert.True(t, ok)
	assert.Equal(t, TrendRising, trend)
}

func TestSMATrendFalling(t *testing.T) {
	closes := make([]float64, 240)
	for i := range closes {
		closes[i] = 100 + float64(i)*0.5
	}

	trend, ok := SMATrend(closes, 200)
	assert.True(t, ok)
	assert.Equal(t, TrendFalling, trend)
}

// Moves inside the tolerance band classify as flat on both sides of zero.
func TestSMATrendToleranceBand(t *testing.T) {
	// 220 bars: first 200 at 100.2, shifting the older window mean barely
	// below the current one (~0.2% change, inside the 0.5% band).
	closes := make([]float64, 240)
	for i := range closes {
		if i < 20 {
			closes[i] = 100.4
		} else {
			closes[i] = 100.0
		}
	}

	trend, ok := SMATrend(closes, 200)
	assert.True(t, ok)
	assert.Equal(t, TrendFlat, trend)
}

func TestSMATrendInsufficientHistory(t *testing.T) {
	_, ok := SMATrend(flatSeries(100, 210), 200)
	assert.False(t, ok, "needs window+lookback bars")
}
