package orderbook

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mselser95/crossarb/pkg/types"
)

// Book is the depth book for one market. Bids are sorted descending by
// price, asks ascending. Not safe for concurrent use; the Manager
// serializes access.
type Book struct {
	Symbol      string
	Bids        []types.PriceLevel
	Asks        []types.PriceLevel
	LastPrice   decimal.Decimal
	LastUpdated time.Time
}

// Replace installs a full snapshot for both sides.
func (b *Book) Replace(bids, asks []types.PriceLevel, now time.Time) {
	b.Bids = sortLevels(bids, true)
	b.Asks = sortLevels(asks, false)
	b.LastUpdated = now
}

// ApplyChanges upserts incremental level changes. A zero size removes the
// level.
func (b *Book) ApplyChanges(bids, asks []types.PriceLevel, now time.Time) {
	for _, lvl := range bids {
		b.Bids = upsertLevel(b.Bids, lvl, true)
	}
	for _, lvl := range asks {
		b.Asks = upsertLevel(b.Asks, lvl, false)
	}
	b.LastUpdated = now
}

// BestBid returns the highest bid level.
func (b *Book) BestBid() (types.PriceLevel, bool) {
	if len(b.Bids) == 0 {
		return types.PriceLevel{}, false
	}
	return b.Bids[0], true
}

// BestAsk returns the lowest ask level.
func (b *Book) BestAsk() (types.PriceLevel, bool) {
	if len(b.Asks) == 0 {
		return types.PriceLevel{}, false
	}
	return b.Asks[0], true
}

// Mid returns the bid/ask midpoint.
func (b *Book) Mid() (decimal.Decimal, bool) {
	bid, okB := b.BestBid()
	ask, okA := b.BestAsk()
	if !okB || !okA {
		return decimal.Zero, false
	}
	return bid.Price.Add(ask.Price).Div(decimal.NewFromInt(2)), true
}

// QuoteForAmount walks the book and returns the volume-weighted execution
// price of a hypothetical order for `amount` base units. A buy consumes
// asks, a sell consumes bids. Returns ErrInsufficientLiquidity when the
// book holds less than the requested amount.
func (b *Book) QuoteForAmount(side types.Side, amount decimal.Decimal) (decimal.Decimal, error) {
	levels := b.Asks
	if side == types.SideSell {
		levels = b.Bids
	}

	remaining := amount
	var notional decimal.Decimal

	for _, lvl := range levels {
		if remaining.Sign() <= 0 {
			break
		}

		take := lvl.Size
		if take.GreaterThan(remaining) {
			take = remaining
		}

		notional = notional.Add(take.Mul(lvl.Price))
		remaining = remaining.Sub(take)
	}

	if remaining.Sign() > 0 || amount.Sign() <= 0 {
		return decimal.Zero, types.ErrInsufficientLiquidity
	}

	return notional.Div(amount), nil
}

func sortLevels(levels []types.PriceLevel, descending bool) []types.PriceLevel {
	out := make([]types.PriceLevel, len(levels))
	copy(out, levels)
	sort.Slice(out, func(i, j int) bool {
		if descending {
			return out[i].Price.GreaterThan(out[j].Price)
		}
		return out[i].Price.LessThan(out[j].Price)
	})
	return out
}

func upsertLevel(levels []types.PriceLevel, lvl types.PriceLevel, descending bool) []types.PriceLevel {
	for i := range levels {
		if levels[i].Price.Equal(lvl.Price) {
			if lvl.Size.Sign() == 0 {
				return append(levels[:i], levels[i+1:]...)
			}
			levels[i].Size = lvl.Size
			return levels
		}
	}

	if lvl.Size.Sign() == 0 {
		return levels
	}

	levels = append(levels, lvl)
	return sortLevels(levels, descending)
}
