package types

import (
	"errors"
	"fmt"
)

// ErrInsufficientLiquidity is returned when an order book does not hold
// enough volume to quote the requested amount.
var ErrInsufficientLiquidity = errors.New("insufficient liquidity")

// ErrUnknownMarket is returned when no order book exists for a symbol.
var ErrUnknownMarket = errors.New("unknown market")

// OrderError represents a venue rejection during order placement.
type OrderError struct {
	Code    string // venue error code or internal error code
	Message string // human-readable error message
	OrderID string // order ID if available
	Market  string // market symbol
}

func (e *OrderError) Error() string {
	if e.OrderID != "" {
		return fmt.Sprintf("%s order failed (ID: %s): %s (%s)", e.Market, e.OrderID, e.Message, e.Code)
	}

	return fmt.Sprintf("%s order failed: %s (%s)", e.Market, e.Message, e.Code)
}

// Internal order error codes.
const (
	ErrNotEnoughBalance = "NOT_ENOUGH_BALANCE"
	ErrBelowMinQuantity = "BELOW_MIN_QUANTITY"
	ErrNoLiquidity      = "NO_LIQUIDITY"
	ErrRejected         = "REJECTED"
)
