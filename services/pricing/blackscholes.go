// Package pricing implements the closed-form Black-Scholes math the scanner
// needs: European put pricing, vega, and a Newton-Raphson implied volatility
// solver. Everything here is pure and does no I/O.
package pricing

import "math"

const sqrt2Pi = 2.5066282746310002

// Newton-Raphson solver parameters
const (
	ivInitialGuess = 0.30
	ivMin          = 0.001
	ivMax          = 5.0
	ivMaxIter      = 100
	ivTolerance    = 1e-8
	vegaFloor      = 1e-12
)

// NormCDF computes the standard normal cumulative distribution function
// using the Abramowitz-Stegun polynomial approximation (accurate to ~1e-7).
func NormCDF(x float64) float64 {
	if x < 0 {
		return 1 - NormCDF(-x)
	}

	k := 1.0 / (1.0 + 0.2316419*x)
	poly := k * (0.319381530 + k*(-0.356563782+k*(1.781477937+k*(-1.821255978+k*1.330274429))))
	return 1 - NormPDF(x)*poly
}

// NormPDF computes the standard normal probability density at x.
func NormPDF(x float64) float64 {
	return math.Exp(-0.5*x*x) / sqrt2Pi
}

// PutPrice calculates the Black-Scholes price of a European put.
//
// S is the spot price, K the strike, T the time to expiry in years, r the
// annual risk-free rate and sigma the annualized volatility. Callers must
// pass S, K, T, sigma > 0 for a meaningful result; input validation lives
// in ImpliedVolatility, which is the only production entry point.
func PutPrice(S, K, T, r, sigma float64) float64 {
	d1 := (math.Log(S/K) + (r+0.5*sigma*sigma)*T) / (sigma * math.Sqrt(T))
	d2 := d1 - sigma*math.Sqrt(T)

	return K*math.Exp(-r*T)*NormCDF(-d2) - S*NormCDF(-d1)
}

// Vega calculates the sensitivity of the option price to sigma. It is the
// derivative used by the Newton-Raphson iteration.
func Vega(S, K, T, r, sigma float64) float64 {
	d1 := (math.Log(S/K) + (r+0.5*sigma*sigma)*T) / (sigma * math.Sqrt(T))
	return S * NormPDF(d1) * math.Sqrt(T)
}

// ImpliedVolatility inverts PutPrice via Newton-Raphson, solving for the
// sigma at which the model price matches marketPrice.
//
// It is total over its numeric domain: every reachable input yields either
// a sigma with ok=true, or ok=false when no volatility can be recovered.
// ok is false when any of marketPrice, S, K or T is non-positive, when vega
// collapses below 1e-12 mid-iteration (solver stuck), or when the iteration
// budget runs out without converging. It never panics.
func ImpliedVolatility(marketPrice, S, K, T, r float64) (sigma float64, ok bool) {
	if marketPrice <= 0 || S <= 0 || K <= 0 || T <= 0 {
		return 0, false
	}

	sigma = ivInitialGuess

	for i := 0; i < ivMaxIter; i++ {
		price := PutPrice(S, K, T, r, sigma)
		diff := price - marketPrice

		if math.Abs(diff) < ivTolerance {
			return sigma, true
		}

		vega := Vega(S, K, T, r, sigma)
		if vega < vegaFloor {
			return 0, false
		}

		sigma -= diff / vega

		// Guardrails: keep the iterate inside a sane volatility range
		if sigma < ivMin {
			sigma = ivMin
		}
		if sigma > ivMax {
			sigma = ivMax
		}
	}

	return 0, false
}

// DTEToYears converts days-to-expiration to the year fraction T used by the
// Black-Scholes formulas.
func DTEToYears(days int) float64 {
	return float64(days) / 365.0
}
