package markets

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"

	"github.com/mselser95/crossarb/pkg/types"
)

// Provider answers trading-rules lookups for a market symbol. Rules back
// the quantize_order_amount primitive: lot-size rounding and the minimum
// quantity/notional constraints.
type Provider interface {
	Rules(ctx context.Context, symbol string) (types.TradingRules, error)
}

// Client fetches trading rules from the venue's REST API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	attempts   int
}

// NewClient creates a rules client for the given API base URL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		attempts: 3,
	}
}

type rulesResponse struct {
	Symbol      string `json:"symbol"`
	TickSize    string `json:"tick_size"`
	StepSize    string `json:"step_size"`
	MinQuantity string `json:"min_quantity"`
	MinNotional string `json:"min_notional"`
}

// Rules fetches the trading rules for one symbol, retrying transient
// failures a fixed number of times.
func (c *Client) Rules(ctx context.Context, symbol string) (types.TradingRules, error) {
	var lastErr error

	for attempt := 1; attempt <= c.attempts; attempt++ {
		rules, err := c.fetch(ctx, symbol)
		if err == nil {
			return rules, nil
		}
		lastErr = err

		select {
		case <-ctx.Done():
			return types.TradingRules{}, ctx.Err()
		case <-time.After(time.Duration(attempt) * 200 * time.Millisecond):
		}
	}

	RulesFetchErrorsTotal.Inc()
	return types.TradingRules{}, fmt.Errorf("fetch rules for %s: %w", symbol, lastErr)
}

func (c *Client) fetch(ctx context.Context, symbol string) (types.TradingRules, error) {
	start := time.Now()
	defer func() {
		RulesFetchDuration.Observe(time.Since(start).Seconds())
	}()

	u := fmt.Sprintf("%s/rules?symbol=%s", c.baseURL, url.QueryEscape(symbol))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return types.TradingRules{}, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return types.TradingRules{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return types.TradingRules{}, fmt.Errorf("rules API: status %d", resp.StatusCode)
	}

	var data rulesResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return types.TradingRules{}, fmt.Errorf("decode rules: %w", err)
	}

	return parseRules(symbol, data)
}

func parseRules(symbol string, data rulesResponse) (types.TradingRules, error) {
	rules := types.TradingRules{Symbol: symbol}

	fields := []struct {
		name string
		raw  string
		dst  *decimal.Decimal
	}{
		{"tick_size", data.TickSize, &rules.TickSize},
		{"step_size", data.StepSize, &rules.StepSize},
		{"min_quantity", data.MinQuantity, &rules.MinQuantity},
		{"min_notional", data.MinNotional, &rules.MinNotional},
	}

	for _, f := range fields {
		if f.raw == "" {
			continue
		}
		v, err := decimal.NewFromString(f.raw)
		if err != nil {
			return types.TradingRules{}, fmt.Errorf("parse %s %q: %w", f.name, f.raw, err)
		}
		*f.dst = v
	}

	return rules, nil
}
