package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderCandidate is an order the executor intends to place. Candidates are
// adjusted for budget and lot size before submission.
type OrderCandidate struct {
	Market MarketPair
	Side   Side
	Type   OrderType
	Amount decimal.Decimal
	Price  decimal.Decimal // zero for market orders
}

// Notional returns the quote-currency value of the candidate at its price,
// or at refPrice when the candidate has no price (market orders).
func (c OrderCandidate) Notional(refPrice decimal.Decimal) decimal.Decimal {
	price := c.Price
	if price.Sign() == 0 {
		price = refPrice
	}
	return c.Amount.Mul(price)
}

// TrackedOrder is the in-memory handle for a live order. The maker lifecycle
// manager owns exactly one of these per quoted side; it is cleared only on a
// cancel/fail/complete confirmation event, never on intent.
type TrackedOrder struct {
	ID           string
	Market       MarketPair
	Side         Side
	Type         OrderType
	Price        decimal.Decimal
	Amount       decimal.Decimal
	FilledAmount decimal.Decimal
	CreatedAt    time.Time
}

// Age returns how long the order has been resting.
func (o *TrackedOrder) Age(now time.Time) time.Duration {
	return now.Sub(o.CreatedAt)
}

// Fill is one partial execution of an order.
type Fill struct {
	Price  decimal.Decimal
	Amount decimal.Decimal
}
