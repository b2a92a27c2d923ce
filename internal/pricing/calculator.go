package pricing

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mselser95/crossarb/pkg/types"
)

var oneHundred = decimal.NewFromInt(100)

// Quoter is the read-only slice of the trading runtime the calculator
// consumes: expected execution prices for a hypothetical order size, and
// top-of-book reference prices.
type Quoter interface {
	Quote(ctx context.Context, market types.MarketPair, side types.Side, amount decimal.Decimal) (decimal.Decimal, error)
	GetPrice(ctx context.Context, market types.MarketPair, priceType types.PriceType) (decimal.Decimal, error)
}

// Calculator derives the synthetic cross price of hedging an amount across
// one or two taker markets and compares it against maker prices. It never
// mutates order state; it is recomputed from fresh quotes every cycle.
type Calculator struct {
	makerMarket  types.MarketPair
	takerMarkets []types.MarketPair
	mode         CombineMode
	totalFeePct  decimal.Decimal
	quoter       Quoter
	logger       *zap.Logger
}

// Config holds calculator configuration.
type Config struct {
	MakerMarket  types.MarketPair
	TakerMarkets []types.MarketPair
	TotalFeePct  decimal.Decimal // maker + taker fee percentages summed
	Quoter       Quoter
	Logger       *zap.Logger
}

// New creates a calculator. One taker market gives the two-market form
// (spot vs. perpetual, cross-exchange); two give the triangular form.
func New(cfg Config) (*Calculator, error) {
	if cfg.Quoter == nil {
		return nil, fmt.Errorf("quoter cannot be nil")
	}

	n := len(cfg.TakerMarkets)
	if n < 1 || n > 2 {
		return nil, fmt.Errorf("need 1 or 2 taker markets, got %d", n)
	}

	c := &Calculator{
		makerMarket:  cfg.MakerMarket,
		takerMarkets: cfg.TakerMarkets,
		totalFeePct:  cfg.TotalFeePct,
		quoter:       cfg.Quoter,
		logger:       cfg.Logger,
	}

	if n == 2 {
		c.mode = InferCombineMode(cfg.TakerMarkets[0], cfg.TakerMarkets[1])
		cfg.Logger.Info("combine-mode-inferred",
			zap.String("leg1", cfg.TakerMarkets[0].Symbol()),
			zap.String("leg2", cfg.TakerMarkets[1].Symbol()),
			zap.String("mode", c.mode.String()))
	}

	return c, nil
}

// Mode returns the combine mode. Meaningful only for the triangular form.
func (c *Calculator) Mode() CombineMode {
	return c.mode
}

// LegSides returns the taker-leg sides that flatten a maker fill on
// makerSide. The first leg always trades opposite the maker. In divide
// mode the second leg re-acquires the maker quote side, so it trades the
// maker's own direction; in multiply mode it passes the intermediate
// currency through, trading opposite.
func (c *Calculator) LegSides(makerSide types.Side) []types.Side {
	if len(c.takerMarkets) == 1 {
		return []types.Side{makerSide.Opposite()}
	}

	leg2 := makerSide.Opposite()
	if c.mode == CombineDivide {
		leg2 = makerSide
	}

	return []types.Side{makerSide.Opposite(), leg2}
}

// HedgePrice returns the expected synthetic execution price of hedging
// `amount` (maker base units) of a maker fill on makerSide, walked from the
// current taker order books.
func (c *Calculator) HedgePrice(ctx context.Context, makerSide types.Side, amount decimal.Decimal) (decimal.Decimal, error) {
	sides := c.LegSides(makerSide)

	p1, err := c.quoter.Quote(ctx, c.takerMarkets[0], sides[0], amount)
	if err != nil {
		return decimal.Zero, fmt.Errorf("quote %s: %w", c.takerMarkets[0].Symbol(), err)
	}

	if len(c.takerMarkets) == 1 {
		return p1, nil
	}

	derived, err := c.deriveLeg2Amount(ctx, amount, p1)
	if err != nil {
		return decimal.Zero, err
	}

	p2, err := c.quoter.Quote(ctx, c.takerMarkets[1], sides[1], derived)
	if err != nil {
		return decimal.Zero, fmt.Errorf("quote %s: %w", c.takerMarkets[1].Symbol(), err)
	}

	return c.mode.Combine(p1, p2), nil
}

// deriveLeg2Amount converts the intermediate-currency proceeds of leg 1
// into leg 2's base units. In multiply mode the intermediate currency is
// leg 2's base, so the proceeds pass through directly; in divide mode they
// are converted via leg 2's reference price.
func (c *Calculator) deriveLeg2Amount(ctx context.Context, amount, p1 decimal.Decimal) (decimal.Decimal, error) {
	proceeds := amount.Mul(p1)
	if c.mode == CombineMultiply {
		return proceeds, nil
	}

	ref, err := c.quoter.GetPrice(ctx, c.takerMarkets[1], types.PriceTypeMid)
	if err != nil {
		return decimal.Zero, fmt.Errorf("reference price %s: %w", c.takerMarkets[1].Symbol(), err)
	}
	if ref.Sign() == 0 {
		return decimal.Zero, fmt.Errorf("reference price %s: %w", c.takerMarkets[1].Symbol(), types.ErrInsufficientLiquidity)
	}

	return proceeds.Div(ref), nil
}

// TargetMakerPrice returns the maker limit price at which hedging `amount`
// nets targetPct profitability after the configured fees. A maker bid is
// shaded below the hedge price, a maker ask above it, so the resting order
// only fills at a profitable level.
func (c *Calculator) TargetMakerPrice(ctx context.Context, makerSide types.Side, amount, targetPct decimal.Decimal) (decimal.Decimal, error) {
	hedgePrice, err := c.HedgePrice(ctx, makerSide, amount)
	if err != nil {
		return decimal.Zero, err
	}

	spread := targetPct.Add(c.totalFeePct).Div(oneHundred)

	if makerSide == types.SideBuy {
		return hedgePrice.Mul(decimal.NewFromInt(1).Sub(spread)), nil
	}
	return hedgePrice.Mul(decimal.NewFromInt(1).Add(spread)), nil
}

// Profitability returns the fee-adjusted profitability percentage of a
// maker order priced at makerPrice, hedged at the current books.
func (c *Calculator) Profitability(ctx context.Context, makerSide types.Side, makerPrice, amount decimal.Decimal) (decimal.Decimal, error) {
	hedgePrice, err := c.HedgePrice(ctx, makerSide, amount)
	if err != nil {
		return decimal.Zero, err
	}

	return ProfitabilityPct(makerSide, makerPrice, hedgePrice, c.totalFeePct), nil
}

// ProfitabilityPct computes 100*(favorable-unfavorable)/unfavorable minus
// the total fee percentage. For a maker buy the hedge sells higher than the
// maker paid; for a maker sell the maker sells higher than the hedge costs.
func ProfitabilityPct(makerSide types.Side, makerPrice, hedgePrice, totalFeePct decimal.Decimal) decimal.Decimal {
	var favorable, unfavorable decimal.Decimal
	if makerSide == types.SideBuy {
		favorable, unfavorable = hedgePrice, makerPrice
	} else {
		favorable, unfavorable = makerPrice, hedgePrice
	}

	if unfavorable.Sign() == 0 {
		return decimal.Zero
	}

	gross := oneHundred.Mul(favorable.Sub(unfavorable)).Div(unfavorable)
	return gross.Sub(totalFeePct)
}
