package testutil

import (
	"github.com/shopspring/decimal"

	"github.com/mselser95/crossarb/pkg/types"
)

// Dec parses a decimal literal, panicking on malformed input. Test use
// only.
func Dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// Market builds a market pair without going through the parser.
func Market(venue, base, quote string) types.MarketPair {
	return types.MarketPair{Venue: venue, Base: base, Quote: quote}
}

// Levels builds price levels from (price, size) string pairs.
func Levels(pairs ...string) []types.PriceLevel {
	if len(pairs)%2 != 0 {
		panic("Levels wants price,size pairs")
	}
	out := make([]types.PriceLevel, 0, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		out = append(out, types.PriceLevel{
			Price: Dec(pairs[i]),
			Size:  Dec(pairs[i+1]),
		})
	}
	return out
}

// BookMessage builds a full-snapshot book message for a symbol.
func BookMessage(symbol string, bids, asks []types.PriceLevel) *types.BookMessage {
	return &types.BookMessage{
		EventType: "book",
		Symbol:    symbol,
		Bids:      bids,
		Asks:      asks,
	}
}

// DefaultRules returns permissive trading rules for paper tests.
func DefaultRules(symbol string) types.TradingRules {
	return types.TradingRules{
		Symbol:      symbol,
		TickSize:    Dec("0.01"),
		StepSize:    Dec("0.001"),
		MinQuantity: Dec("0.001"),
		MinNotional: Dec("1"),
	}
}
