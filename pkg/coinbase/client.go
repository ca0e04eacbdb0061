// Package coinbase is a minimal client for the Coinbase Advanced Trade
// REST API. It covers the endpoints the trading bot needs: product
// listing, historical candles, account balances and limit orders.
//
// Authentication uses the legacy API key scheme: every request carries
// CB-ACCESS-KEY, CB-ACCESS-TIMESTAMP and an HMAC-SHA256 signature over
// timestamp + method + path + body.
package coinbase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"time"
)

const (
	defaultBaseURL = "https://api.coinbase.com"
	apiPrefix      = "/api/v3/brokerage"

	// WSURL is the Advanced Trade market data websocket endpoint.
	WSURL = "wss://advanced-trade-ws.coinbase.com"
)

// granularitySeconds maps API granularity names to bucket lengths.
var granularitySeconds = map[string]int64{
	"ONE_MINUTE":     60,
	"FIVE_MINUTE":    300,
	"FIFTEEN_MINUTE": 900,
	"THIRTY_MINUTE":  1800,
	"ONE_HOUR":       3600,
	"TWO_HOUR":       7200,
	"SIX_HOUR":       21600,
	"ONE_DAY":        86400,
}

// Config holds client settings. BaseURL is overridable for tests.
type Config struct {
	APIKey    string
	APISecret string
	BaseURL   string
	Timeout   time.Duration // default: 10s
}

// Client talks to the Advanced Trade REST API.
type Client struct {
	apiKey     string
	apiSecret  string
	baseURL    string
	httpClient *http.Client
	clock      func() time.Time
}

// New creates a Coinbase client.
func New(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Client{
		apiKey:    cfg.APIKey,
		apiSecret: cfg.APISecret,
		baseURL:   cfg.BaseURL,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		clock: defaultClock,
	}
}

// do issues a signed request and decodes the JSON response into out.
// path must start with the API prefix and exclude the query string.
func (c *Client) do(ctx context.Context, method, path, query string, body []byte, out interface{}) error {
	url := c.baseURL + path
	if query != "" {
		url += "?" + query
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return fmt.Errorf("coinbase: create request: %w", err)
	}
	c.authorize(req, method, path, string(body))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("coinbase: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("coinbase: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("coinbase: %s %s: status %d: %s", method, path, resp.StatusCode, truncate(data, 200))
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("coinbase: decode response: %w", err)
	}
	return nil
}

// ListProducts returns all products known to the brokerage.
func (c *Client) ListProducts(ctx context.Context) ([]Product, error) {
	var resp productsResponse
	if err := c.do(ctx, http.MethodGet, apiPrefix+"/products", "", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Products, nil
}

// GetCandles fetches up to limit historical candles for the product and
// returns them ordered oldest to newest. The API returns newest-first;
// this method reverses into chronological order and parses the string
// fields into floats.
func (c *Client) GetCandles(ctx context.Context, productID, granularity string, limit int) ([]ParsedCandle, error) {
	secs, ok := granularitySeconds[granularity]
	if !ok {
		return nil, fmt.Errorf("coinbase: unknown granularity %q", granularity)
	}

	end := c.clock().Unix()
	start := end - secs*int64(limit)
	query := fmt.Sprintf("start=%d&end=%d&granularity=%s", start, end, granularity)

	var resp candlesResponse
	path := fmt.Sprintf("%s/products/%s/candles", apiPrefix, productID)
	if err := c.do(ctx, http.MethodGet, path, query, nil, &resp); err != nil {
		return nil, err
	}

	out := make([]ParsedCandle, 0, len(resp.Candles))
	for _, raw := range resp.Candles {
		pc, err := parseCandle(raw)
		if err != nil {
			return nil, fmt.Errorf("coinbase: candle for %s: %w", productID, err)
		}
		out = append(out, pc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start < out[j].Start })
	return out, nil
}

// LatestClose returns the close of the most recent one-minute candle.
func (c *Client) LatestClose(ctx context.Context, productID string) (float64, error) {
	candles, err := c.GetCandles(ctx, productID, "ONE_MINUTE", 5)
	if err != nil {
		return 0, err
	}
	if len(candles) == 0 {
		return 0, fmt.Errorf("coinbase: no recent candles for %s", productID)
	}
	return candles[len(candles)-1].Close, nil
}

// AvailableBalance returns the available balance for a currency, walking
// account pagination. Returns 0 if no account holds the currency.
func (c *Client) AvailableBalance(ctx context.Context, currency string) (float64, error) {
	cursor := ""
	for {
		query := "limit=250"
		if cursor != "" {
			query += "&cursor=" + cursor
		}
		var resp accountsResponse
		if err := c.do(ctx, http.MethodGet, apiPrefix+"/accounts", query, nil, &resp); err != nil {
			return 0, err
		}
		for _, acct := range resp.Accounts {
			if acct.Currency == currency {
				v, err := strconv.ParseFloat(acct.AvailableBalance.Value, 64)
				if err != nil {
					return 0, fmt.Errorf("coinbase: balance for %s: %w", currency, err)
				}
				return v, nil
			}
		}
		if !resp.HasNext || resp.Cursor == "" {
			return 0, nil
		}
		cursor = resp.Cursor
	}
}

// CreateLimitOrder places a good-till-cancelled limit order and returns
// the exchange order ID.
func (c *Client) CreateLimitOrder(ctx context.Context, productID, side string, baseSize, limitPrice float64) (string, error) {
	reqBody := orderRequest{
		ClientOrderID: fmt.Sprintf("bot-%d", c.clock().UnixNano()),
		ProductID:     productID,
		Side:          side,
		OrderConfiguration: orderConfiguration{
			LimitLimitGTC: limitLimitGTC{
				BaseSize:   strconv.FormatFloat(baseSize, 'f', -1, 64),
				LimitPrice: strconv.FormatFloat(limitPrice, 'f', -1, 64),
				PostOnly:   false,
			},
		},
	}
	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("coinbase: marshal order: %w", err)
	}

	var resp orderResponse
	if err := c.do(ctx, http.MethodPost, apiPrefix+"/orders", "", body, &resp); err != nil {
		return "", err
	}
	if !resp.Success {
		return "", fmt.Errorf("coinbase: order rejected: %s (%s)",
			resp.ErrorResponse.Error, resp.ErrorResponse.Message)
	}
	orderID := resp.SuccessResponse.OrderID
	if orderID == "" {
		orderID = resp.OrderID
	}
	return orderID, nil
}

// ParsedCandle is a candle with numeric fields decoded.
type ParsedCandle struct {
	Start  int64
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

func parseCandle(raw Candle) (ParsedCandle, error) {
	var pc ParsedCandle
	var err error
	if pc.Start, err = strconv.ParseInt(raw.Start, 10, 64); err != nil {
		return pc, fmt.Errorf("start %q: %w", raw.Start, err)
	}
	fields := []struct {
		dst *float64
		src string
	}{
		{&pc.Open, raw.Open},
		{&pc.High, raw.High},
		{&pc.Low, raw.Low},
		{&pc.Close, raw.Close},
		{&pc.Volume, raw.Volume},
	}
	for _, f := range fields {
		if *f.dst, err = strconv.ParseFloat(f.src, 64); err != nil {
			return pc, fmt.Errorf("numeric field %q: %w", f.src, err)
		}
	}
	return pc, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
