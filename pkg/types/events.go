package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderEventKind enumerates the closed set of order lifecycle events the
// venue delivers. Dispatch is a switch on this kind; unknown kinds are
// logged and dropped, never fatal.
type OrderEventKind int

const (
	OrderCreated OrderEventKind = iota + 1
	OrderCancelled
	OrderFilled
	OrderCompleted
	OrderFailed
)

func (k OrderEventKind) String() string {
	switch k {
	case OrderCreated:
		return "created"
	case OrderCancelled:
		return "cancelled"
	case OrderFilled:
		return "filled"
	case OrderCompleted:
		return "completed"
	case OrderFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// OrderEvent is one order lifecycle event. Which fields are meaningful
// depends on Kind:
//
//	OrderCreated:   OrderID, Market, Side
//	OrderCancelled: OrderID
//	OrderFilled:    OrderID, Price, Amount (one trade)
//	OrderCompleted: OrderID, BaseTotal, QuoteTotal (final fill summary)
//	OrderFailed:    OrderID (may be empty), Reason
type OrderEvent struct {
	Kind       OrderEventKind
	OrderID    string
	Market     MarketPair
	Side       Side
	Price      decimal.Decimal
	Amount     decimal.Decimal
	BaseTotal  decimal.Decimal
	QuoteTotal decimal.Decimal
	Reason     string
	Timestamp  time.Time
}
