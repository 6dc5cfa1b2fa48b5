package marketdata

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Limiter is the process-wide token bucket every market data call passes
// through. It is constructed once at startup, sized to the provider's
// documented quota, and handed to the client explicitly. Concurrent scans
// must collectively respect one budget, so there is exactly one instance
// with no reset during a run.
type Limiter struct {
	bucket *rate.Limiter
}

// NewLimiter builds a token bucket allowing requestsPerMinute sustained
// throughput. The burst equals one minute's quota so a freshly started
// process doesn't crawl through its first page fetches.
func NewLimiter(requestsPerMinute int) *Limiter {
	if requestsPerMinute <= 0 {
		requestsPerMinute = 1
	}
	return &Limiter{
		bucket: rate.NewLimiter(rate.Every(time.Minute/time.Duration(requestsPerMinute)), requestsPerMinute),
	}
}

// Acquire blocks the caller until a token is available or ctx is done.
// Callers never fail on an empty bucket; they wait.
func (l *Limiter) Acquire(ctx context.Context) error {
	return l.bucket.Wait(ctx)
}
