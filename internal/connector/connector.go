// Package connector defines the trading-runtime primitives the executor
// consumes: quoting, order placement and cancellation, balances, lot-size
// quantization, and budget adjustment of order candidates. Order outcomes
// are delivered asynchronously on the event channel.
package connector

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/mselser95/crossarb/pkg/types"
)

// Connector is the venue abstraction. Blocking calls take a context; order
// placement returns the venue order ID synchronously while creation,
// fills, completion, cancellation, and failure arrive as events.
type Connector interface {
	// Quote returns the expected execution price of a hypothetical order
	// for `amount` base units, walking the order book.
	Quote(ctx context.Context, market types.MarketPair, side types.Side, amount decimal.Decimal) (decimal.Decimal, error)

	// GetPrice returns a top-of-book reference price.
	GetPrice(ctx context.Context, market types.MarketPair, priceType types.PriceType) (decimal.Decimal, error)

	// PlaceOrder submits an order and returns its venue order ID.
	PlaceOrder(ctx context.Context, candidate types.OrderCandidate) (string, error)

	// CancelOrder requests cancellation. Confirmation arrives as an
	// OrderCancelled event; callers must not clear their handles before it.
	CancelOrder(ctx context.Context, market types.MarketPair, orderID string) error

	// GetBalance returns the total balance of `asset`.
	GetBalance(ctx context.Context, market types.MarketPair, asset string) (decimal.Decimal, error)

	// GetAvailableBalance returns the balance of `asset` not locked by
	// open orders.
	GetAvailableBalance(ctx context.Context, market types.MarketPair, asset string) (decimal.Decimal, error)

	// QuantizeOrderAmount rounds an amount down to the market's lot size.
	QuantizeOrderAmount(ctx context.Context, market types.MarketPair, amount decimal.Decimal) (decimal.Decimal, error)

	// AdjustCandidateToBudget shrinks a candidate to what the available
	// balance affords. With allOrNone the candidate is zeroed instead of
	// shrunk when the budget does not cover it.
	AdjustCandidateToBudget(ctx context.Context, candidate types.OrderCandidate, allOrNone bool) (types.OrderCandidate, error)

	// Events returns the order lifecycle event stream.
	Events() <-chan types.OrderEvent
}
