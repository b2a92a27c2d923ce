package executor

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mselser95/crossarb/pkg/types"
)

// Storage persists settled hedge rounds.
type Storage interface {
	// StoreRound stores one settled round.
	StoreRound(ctx context.Context, record *RoundRecord) error

	// Close closes the storage connection.
	Close() error
}

// LegRecord is the settled summary of one taker leg.
type LegRecord struct {
	Market string
	Side   types.Side
	VWAP   decimal.Decimal
	Amount decimal.Decimal
}

// RoundRecord is the settled summary of one hedge round.
type RoundRecord struct {
	ID          string
	MakerMarket string
	MakerSide   types.Side
	MakerPrice  decimal.Decimal
	MakerAmount decimal.Decimal
	Legs        []LegRecord
	PnLPct      decimal.Decimal
	PnLQuote    decimal.Decimal
	FeesQuote   decimal.Decimal
	CreatedAt   time.Time
	SettledAt   time.Time
}

// MakerNotional returns the maker leg's notional in quote units.
func (r *RoundRecord) MakerNotional() decimal.Decimal {
	return r.MakerPrice.Mul(r.MakerAmount)
}
