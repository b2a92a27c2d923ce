package types

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Side is the direction of an order.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// Opposite returns the other side. Hedging a maker fill always trades the
// opposite direction on the taker market.
func (s Side) Opposite() Side {
	if s == SideBuy {
		return SideSell
	}
	return SideBuy
}

// PriceType selects which price get_price style lookups return.
type PriceType string

const (
	PriceTypeBestBid PriceType = "best_bid"
	PriceTypeBestAsk PriceType = "best_ask"
	PriceTypeMid     PriceType = "mid"
	PriceTypeLast    PriceType = "last"
)

// OrderType is the venue order type.
type OrderType string

const (
	OrderTypeLimit  OrderType = "LIMIT"
	OrderTypeMarket OrderType = "MARKET"
)

// MarketPair identifies one tradable pair on one venue.
type MarketPair struct {
	Venue string
	Base  string
	Quote string
}

// ParseMarketPair parses "venue:BASE-QUOTE" (venue optional) into a MarketPair.
func ParseMarketPair(s string) (MarketPair, error) {
	var pair MarketPair

	rest := s
	if idx := strings.IndexByte(s, ':'); idx >= 0 {
		pair.Venue = s[:idx]
		rest = s[idx+1:]
	}

	parts := strings.Split(rest, "-")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return MarketPair{}, fmt.Errorf("invalid market pair %q: want BASE-QUOTE", s)
	}

	pair.Base = strings.ToUpper(parts[0])
	pair.Quote = strings.ToUpper(parts[1])
	return pair, nil
}

// Symbol returns the BASE-QUOTE symbol without the venue prefix.
func (p MarketPair) Symbol() string {
	return p.Base + "-" + p.Quote
}

func (p MarketPair) String() string {
	if p.Venue == "" {
		return p.Symbol()
	}
	return p.Venue + ":" + p.Symbol()
}

// IsZero reports whether the pair is unset.
func (p MarketPair) IsZero() bool {
	return p.Base == "" && p.Quote == ""
}

// PriceLevel is one level of an order book side.
type PriceLevel struct {
	Price decimal.Decimal `json:"price"`
	Size  decimal.Decimal `json:"size"`
}

// BookMessage is a normalized market-data event delivered by the feed.
type BookMessage struct {
	EventType string          `json:"event_type"` // "book", "price_change", "last_trade_price"
	Symbol    string          `json:"symbol"`
	Bids      []PriceLevel    `json:"bids"`
	Asks      []PriceLevel    `json:"asks"`
	LastPrice decimal.Decimal `json:"last_price"`
}

// TradingRules are the venue trading constraints for one market.
type TradingRules struct {
	Symbol      string
	TickSize    decimal.Decimal
	StepSize    decimal.Decimal
	MinQuantity decimal.Decimal
	MinNotional decimal.Decimal
}

// QuantizeAmount rounds an amount down to the market's step size.
// Amounts below the minimum quantity quantize to zero.
func (r TradingRules) QuantizeAmount(amount decimal.Decimal) decimal.Decimal {
	if r.StepSize.Sign() > 0 {
		steps := amount.Div(r.StepSize).Floor()
		amount = steps.Mul(r.StepSize)
	}

	if r.MinQuantity.Sign() > 0 && amount.LessThan(r.MinQuantity) {
		return decimal.Zero
	}

	return amount
}

// QuantizePrice rounds a price to the market's tick size, away from the
// spread for the given side so the quantized order stays marketable.
func (r TradingRules) QuantizePrice(price decimal.Decimal, side Side) decimal.Decimal {
	if r.TickSize.Sign() <= 0 {
		return price
	}

	ticks := price.Div(r.TickSize)
	if side == SideBuy {
		ticks = ticks.Floor()
	} else {
		ticks = ticks.Ceil()
	}

	return ticks.Mul(r.TickSize)
}
