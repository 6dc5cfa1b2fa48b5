// Package marketdata wraps the external market data provider's read API
// behind a shared token-bucket limiter. Four operations: stock price
// history, option chain, option greeks history, option price history.
package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	log "github.com/sirupsen/logrus"
)

// chainPageSize is the provider's page size for option chain requests
const chainPageSize = 300

// Client is the rate-limited market data client. All four read operations
// acquire a token from the shared limiter before dialing, carry a
// per-request timeout, and surface failures as *FetchError without
// retrying.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *Limiter
	timeout    time.Duration
}

// NewClient creates a market data client. The limiter is passed in rather
// than created here: it is shared process-wide state with a single
// lifecycle owned by main.
func NewClient(baseURL, apiKey string, limiter *Limiter, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		limiter: limiter,
		timeout: timeout,
	}
}

type stockPricesResponse struct {
	Results []PriceBar `json:"results"`
}

type optionChainResponse struct {
	Results []OptionContract `json:"results"`
	NextURL string           `json:"next_url"`
}

type greeksResponse struct {
	Results []GreeksRecord `json:"results"`
}

type optionPricesResponse struct {
	Results []OptionPriceRecord `json:"results"`
}

// GetStockPrices returns the daily OHLCV history for a ticker, most recent
// first (provider ordering).
func (c *Client) GetStockPrices(ctx context.Context, ticker string) ([]PriceBar, error) {
	var resp stockPricesResponse
	if err := c.getJSON(ctx, "stock-prices", ticker, nil, &resp); err != nil {
		return nil, err
	}
	log.Debugf("fetched %d price bars for %s", len(resp.Results), ticker)
	return resp.Results, nil
}

// GetOptionChain returns the full option chain for a ticker, looping the
// provider's 300-per-page pagination until exhausted.
func (c *Client) GetOptionChain(ctx context.Context, ticker string) ([]OptionContract, error) {
	out := []OptionContract{}

	query := url.Values{}
	query.Set("limit", strconv.Itoa(chainPageSize))

	reqURL, err := c.buildURL("option-chain", ticker, query)
	if err != nil {
		return nil, &FetchError{Endpoint: "option-chain", Err: err}
	}

	for reqURL != "" {
		var page optionChainResponse
		if err := c.getJSONURL(ctx, "option-chain", reqURL, &page); err != nil {
			return nil, err
		}
		out = append(out, page.Results...)
		reqURL = page.NextURL
	}

	log.Debugf("fetched option chain for %s: %d contracts", ticker, len(out))
	return out, nil
}

// GetOptionGreeks returns the greeks time series for one contract.
func (c *Client) GetOptionGreeks(ctx context.Context, contractID string) ([]GreeksRecord, error) {
	var resp greeksResponse
	if err := c.getJSON(ctx, "option-greeks", contractID, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Results, nil
}

// GetOptionPrices returns the OHLCV/open-interest time series for one
// contract.
func (c *Client) GetOptionPrices(ctx context.Context, contractID string) ([]OptionPriceRecord, error) {
	var resp optionPricesResponse
	if err := c.getJSON(ctx, "option-prices", contractID, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Results, nil
}

// buildURL assembles an endpoint URL with the identifier query parameter
func (c *Client) buildURL(endpoint, identifier string, extra url.Values) (string, error) {
	u, err := url.Parse(c.baseURL + "/" + endpoint)
	if err != nil {
		return "", err
	}

	query := u.Query()
	query.Set("identifier", identifier)
	for k, vs := range extra {
		for _, v := range vs {
			query.Add(k, v)
		}
	}
	u.RawQuery = query.Encode()
	return u.String(), nil
}

func (c *Client) getJSON(ctx context.Context, endpoint, identifier string, extra url.Values, out interface{}) error {
	reqURL, err := c.buildURL(endpoint, identifier, extra)
	if err != nil {
		return &FetchError{Endpoint: endpoint, Err: err}
	}
	return c.getJSONURL(ctx, endpoint, reqURL, out)
}

// getJSONURL performs one rate-limited GET. It blocks on the token bucket
// first (no timeout on the wait itself, only ctx cancellation), then runs
// the request under the per-request timeout.
func (c *Client) getJSONURL(ctx context.Context, endpoint, reqURL string, out interface{}) error {
	if err := c.limiter.Acquire(ctx); err != nil {
		return &FetchError{Endpoint: endpoint, Err: fmt.Errorf("rate limiter wait: %w", err)}
	}

	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, reqURL, nil)
	if err != nil {
		return &FetchError{Endpoint: endpoint, Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &FetchError{Endpoint: endpoint, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain for connection reuse; the body content is not part of the
		// error contract.
		io.Copy(io.Discard, resp.Body)
		log.Warnf("market data %s returned status %d", endpoint, resp.StatusCode)
		return &FetchError{Endpoint: endpoint, StatusCode: resp.StatusCode}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &FetchError{Endpoint: endpoint, Err: fmt.Errorf("decode: %w", err)}
	}

	return nil
}
