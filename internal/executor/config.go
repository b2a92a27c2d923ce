package executor

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mselser95/crossarb/internal/connector"
	"github.com/mselser95/crossarb/internal/pricing"
	"github.com/mselser95/crossarb/pkg/types"
)

// Gate can veto maker order placement. The balance circuit breaker
// implements it; a nil gate always allows.
type Gate interface {
	Allow() bool
	RecordTrade(notionalQuote float64)
}

// Config is the immutable per-instance executor configuration. Each
// executor holds its own copy; there is no shared mutable configuration.
type Config struct {
	MakerMarket  types.MarketPair
	TakerMarkets []types.MarketPair // 1 = two-market form, 2 = triangular
	MakerSides   []types.Side       // sides to quote; default both

	OrderAmount            decimal.Decimal // maker order size, base units
	TargetProfitabilityPct decimal.Decimal
	ProfitabilityRangePct  decimal.Decimal // cancel band around the target
	MinHedgeNotional       decimal.Decimal // maker fills below this are dust

	MaxOrderAge    time.Duration // maker orders older than this repost
	RetryDelay     time.Duration // wait between taker-leg (re)submissions
	MaxRetries     int           // per-leg trial ceiling
	CompletionWait time.Duration // quiet window before settling a batch
	Interval       time.Duration // control cycle interval

	MakerFeePct decimal.Decimal
	TakerFeePct decimal.Decimal

	// ReferencePriceType selects the maker book price used to convert
	// base amounts to quote notionals (dust checks, breaker trade sizes).
	ReferencePriceType types.PriceType

	OneShot bool // stop after the first settled batch

	Connector  connector.Connector
	Calculator *pricing.Calculator
	Storage    Storage // optional
	Breaker    Gate    // optional
	Logger     *zap.Logger
}

// Validate checks the configuration and fills defaults.
func (c *Config) Validate() error {
	if c.Connector == nil {
		return fmt.Errorf("connector cannot be nil")
	}
	if c.Calculator == nil {
		return fmt.Errorf("calculator cannot be nil")
	}
	if c.Logger == nil {
		return fmt.Errorf("logger cannot be nil")
	}

	if n := len(c.TakerMarkets); n < 1 || n > 2 {
		return fmt.Errorf("need 1 or 2 taker markets, got %d", n)
	}

	if c.OrderAmount.Sign() <= 0 {
		return fmt.Errorf("order amount must be positive")
	}

	if len(c.MakerSides) == 0 {
		c.MakerSides = []types.Side{types.SideBuy, types.SideSell}
	}

	if c.MaxOrderAge <= 0 {
		c.MaxOrderAge = 60 * time.Second
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = 10 * time.Second
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = 10
	}
	if c.CompletionWait <= 0 {
		c.CompletionWait = 5 * time.Second
	}
	if c.Interval <= 0 {
		c.Interval = time.Second
	}
	if c.ReferencePriceType == "" {
		c.ReferencePriceType = types.PriceTypeMid
	}

	return nil
}

// TotalFeePct returns the combined maker and taker fee percentage.
func (c *Config) TotalFeePct() decimal.Decimal {
	return c.MakerFeePct.Add(c.TakerFeePct)
}
