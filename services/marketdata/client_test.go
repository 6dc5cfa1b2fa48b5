package marketdata

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client := NewClient(srv.URL, "test-key", NewLimiter(6000), 5*time.Second)
	return client, srv
}

func TestGetStockPrices(t *testing.T) {
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/stock-prices", r.URL.Path)
		assert.Equal(t, "AAPL", r.URL.Query().Get("identifier"))
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		fmt.Fprint(w, `{"results":[
			{"date":"2025-08-29T00:00:00Z","open":100,"high":105,"low":99,"close":104,"volume":2000000},
			{"date":"2025-08-28T00:00:00Z","open":98,"high":101,"low":97,"close":100,"volume":1500000}
		]}`)
	}))

	bars, err := client.GetStockPrices(context.Background(), "AAPL")
	require.NoError(t, err)
	require.Len(t, bars, 2)
	assert.Equal(t, 104.0, bars[0].Close)
	assert.Equal(t, int64(1500000), bars[1].Volume)
}

func TestGetOptionChainPagination(t *testing.T) {
	var srv *httptest.Server
	var calls int32

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		switch n {
		case 1:
			assert.Equal(t, "300", r.URL.Query().Get("limit"))
			fmt.Fprintf(w, `{"results":[{"id":"OPT1","underlying_ticker":"AAPL","contract_type":"put","strike_price":95,"expiration_date":"2025-10-17T00:00:00Z"}],"next_url":"%s/option-chain?identifier=AAPL&page=2"}`, srv.URL)
		case 2:
			fmt.Fprint(w, `{"results":[{"id":"OPT2","underlying_ticker":"AAPL","contract_type":"call","strike_price":110,"expiration_date":"2025-10-17T00:00:00Z"}],"next_url":""}`)
		default:
			t.Errorf("unexpected extra page request %d", n)
		}
	})

	srv = httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client := NewClient(srv.URL, "test-key", NewLimiter(6000), 5*time.Second)

	contracts, err := client.GetOptionChain(context.Background(), "AAPL")
	require.NoError(t, err)
	require.Len(t, contracts, 2)
	assert.Equal(t, "OPT1", contracts[0].ID)
	assert.Equal(t, "OPT2", contracts[1].ID)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestNon2xxSurfacesTypedError(t *testing.T) {
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream broken", http.StatusBadGateway)
	}))

	_, err := client.GetOptionGreeks(context.Background(), "OPT1")
	require.Error(t, err)

	var fetchErr *FetchError
	require.True(t, errors.As(err, &fetchErr))
	assert.Equal(t, http.StatusBadGateway, fetchErr.StatusCode)
	assert.Equal(t, "option-greeks", fetchErr.Endpoint)
}

func TestNetworkFailureSurfacesTypedError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	client := NewClient(srv.URL, "test-key", NewLimiter(6000), 2*time.Second)
	_, err := client.GetOptionPrices(context.Background(), "OPT1")

	var fetchErr *FetchError
	require.True(t, errors.As(err, &fetchErr))
	assert.Zero(t, fetchErr.StatusCode)
	assert.Error(t, fetchErr.Err)
}

// The limiter must make callers wait, not fail, when the bucket is empty.
func TestLimiterBlocksUntilToken(t *testing.T) {
	// 60/min = 1 token per second, burst 60; drain the burst first
	limiter := NewLimiter(60)
	ctx := context.Background()
	for i := 0; i < 60; i++ {
		require.NoError(t, limiter.Acquire(ctx))
	}

	start := time.Now()
	require.NoError(t, limiter.Acquire(ctx))
	assert.GreaterOrEqual(t, time.Since(start), 500*time.Millisecond)
}

func TestLimiterAcquireHonorsContext(t *testing.T) {
	limiter := NewLimiter(60)
	for i := 0; i < 60; i++ {
		require.NoError(t, limiter.Acquire(context.Background()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err := limiter.Acquire(ctx)
	assert.Error(t, err)
}

func TestMostRecentHelpers(t *testing.T) {
	day := func(d int) time.Time { return time.Date(2025, 8, d, 0, 0, 0, 0, time.UTC) }

	greeks := []GreeksRecord{
		{Date: day(10), Delta: -0.30},
		{Date: day(12), Delta: -0.25},
		{Date: day(11), Delta: -0.28},
	}
	g, ok := MostRecentGreeks(greeks)
	require.True(t, ok)
	assert.Equal(t, -0.25, g.Delta)

	prices := []OptionPriceRecord{
		{Date: day(12), Bid: 1.10},
		{Date: day(13), Bid: 1.20},
	}
	p, ok := MostRecentPrice(prices)
	require.True(t, ok)
	assert.Equal(t, 1.20, p.Bid)

	_, ok = MostRecentGreeks(nil)
	assert.False(t, ok)
	_, ok = MostRecentPrice(nil)
	assert.False(t, ok)
}
