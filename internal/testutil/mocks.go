package testutil

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mselser95/crossarb/pkg/types"
)

// MockConnector is a scriptable venue for executor and calculator tests.
// Quotes come from a per-market price table; placed orders are recorded
// and fills are injected by the test through the event channel.
type MockConnector struct {
	mu             sync.Mutex
	quotes         map[string]decimal.Decimal // symbol|side -> price
	prices         map[string]decimal.Decimal // symbol|priceType -> price
	balances       map[string]decimal.Decimal
	stepSizes      map[string]decimal.Decimal
	placedOrders   []types.OrderCandidate
	placedIDs      []string
	cancelled      []string
	placeErr       error
	quoteErr       error
	orderIDCounter int
	events         chan types.OrderEvent
}

// NewMockConnector creates a mock connector with empty tables.
func NewMockConnector() *MockConnector {
	return &MockConnector{
		quotes:         make(map[string]decimal.Decimal),
		prices:         make(map[string]decimal.Decimal),
		balances:       make(map[string]decimal.Decimal),
		stepSizes:      make(map[string]decimal.Decimal),
		orderIDCounter: 1,
		events:         make(chan types.OrderEvent, 64),
	}
}

// SetQuote scripts the book-walk price for one market and side.
func (m *MockConnector) SetQuote(market types.MarketPair, side types.Side, price decimal.Decimal) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.quotes[market.Symbol()+"|"+string(side)] = price
}

// SetPrice scripts a reference price for one market.
func (m *MockConnector) SetPrice(market types.MarketPair, priceType types.PriceType, price decimal.Decimal) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prices[market.Symbol()+"|"+string(priceType)] = price
}

// SetBalance scripts the free balance of one asset.
func (m *MockConnector) SetBalance(asset string, amount decimal.Decimal) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.balances[asset] = amount
}

// SetStepSize scripts the lot size of one market. Markets without a step
// size quantize to themselves.
func (m *MockConnector) SetStepSize(market types.MarketPair, step decimal.Decimal) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stepSizes[market.Symbol()] = step
}

// SetPlaceError makes subsequent PlaceOrder calls fail.
func (m *MockConnector) SetPlaceError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.placeErr = err
}

// SetQuoteError makes subsequent Quote calls fail.
func (m *MockConnector) SetQuoteError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.quoteErr = err
}

// PlacedOrders returns all recorded order candidates.
func (m *MockConnector) PlacedOrders() []types.OrderCandidate {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]types.OrderCandidate, len(m.placedOrders))
	copy(out, m.placedOrders)
	return out
}

// PlacedIDs returns the order IDs assigned to recorded orders, in order.
func (m *MockConnector) PlacedIDs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.placedIDs))
	copy(out, m.placedIDs)
	return out
}

// CancelledIDs returns the order IDs cancellation was requested for.
func (m *MockConnector) CancelledIDs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.cancelled))
	copy(out, m.cancelled)
	return out
}

// Emit injects an order event as if the venue sent it.
func (m *MockConnector) Emit(ev types.OrderEvent) {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}
	m.events <- ev
}

// Quote implements connector.Connector.
func (m *MockConnector) Quote(_ context.Context, market types.MarketPair, side types.Side, _ decimal.Decimal) (decimal.Decimal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.quoteErr != nil {
		return decimal.Zero, m.quoteErr
	}

	price, ok := m.quotes[market.Symbol()+"|"+string(side)]
	if !ok {
		return decimal.Zero, types.ErrInsufficientLiquidity
	}
	return price, nil
}

// GetPrice implements connector.Connector.
func (m *MockConnector) GetPrice(_ context.Context, market types.MarketPair, priceType types.PriceType) (decimal.Decimal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	price, ok := m.prices[market.Symbol()+"|"+string(priceType)]
	if !ok {
		return decimal.Zero, types.ErrUnknownMarket
	}
	return price, nil
}

// PlaceOrder implements connector.Connector.
func (m *MockConnector) PlaceOrder(_ context.Context, candidate types.OrderCandidate) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.placeErr != nil {
		return "", m.placeErr
	}

	orderID := fmt.Sprintf("mock-order-%d", m.orderIDCounter)
	m.orderIDCounter++

	m.placedOrders = append(m.placedOrders, candidate)
	m.placedIDs = append(m.placedIDs, orderID)
	return orderID, nil
}

// CancelOrder implements connector.Connector. Confirmation events are not
// emitted automatically; tests inject them with Emit.
func (m *MockConnector) CancelOrder(_ context.Context, _ types.MarketPair, orderID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cancelled = append(m.cancelled, orderID)
	return nil
}

// GetBalance implements connector.Connector.
func (m *MockConnector) GetBalance(_ context.Context, _ types.MarketPair, asset string) (decimal.Decimal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.balances[asset], nil
}

// GetAvailableBalance implements connector.Connector.
func (m *MockConnector) GetAvailableBalance(_ context.Context, _ types.MarketPair, asset string) (decimal.Decimal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.balances[asset], nil
}

// QuantizeOrderAmount implements connector.Connector.
func (m *MockConnector) QuantizeOrderAmount(_ context.Context, market types.MarketPair, amount decimal.Decimal) (decimal.Decimal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	step, ok := m.stepSizes[market.Symbol()]
	if !ok || step.Sign() == 0 {
		return amount, nil
	}
	return amount.Div(step).Floor().Mul(step), nil
}

// AdjustCandidateToBudget implements connector.Connector. The mock applies
// no budget constraint unless a balance was scripted for the relevant
// asset; scripting is done per test through SetBalance.
func (m *MockConnector) AdjustCandidateToBudget(_ context.Context, candidate types.OrderCandidate, allOrNone bool) (types.OrderCandidate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var asset string
	var required decimal.Decimal
	if candidate.Side == types.SideBuy {
		asset = candidate.Market.Quote
		required = candidate.Amount.Mul(candidate.Price)
	} else {
		asset = candidate.Market.Base
		required = candidate.Amount
	}

	available, ok := m.balances[asset]
	if !ok {
		return candidate, nil
	}

	if available.GreaterThanOrEqual(required) {
		return candidate, nil
	}

	if allOrNone {
		candidate.Amount = decimal.Zero
		return candidate, nil
	}

	if candidate.Side == types.SideBuy && candidate.Price.Sign() > 0 {
		candidate.Amount = available.Div(candidate.Price)
	} else {
		candidate.Amount = available
	}
	return candidate, nil
}

// Events implements connector.Connector.
func (m *MockConnector) Events() <-chan types.OrderEvent {
	return m.events
}

// MockGate is a settable executor gate.
type MockGate struct {
	mu      sync.Mutex
	allowed bool
	trades  []float64
}

// NewMockGate creates a gate that allows by default.
func NewMockGate() *MockGate {
	return &MockGate{allowed: true}
}

// SetAllow sets the gate decision.
func (g *MockGate) SetAllow(allowed bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.allowed = allowed
}

// Allow implements executor.Gate.
func (g *MockGate) Allow() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.allowed
}

// RecordTrade implements executor.Gate.
func (g *MockGate) RecordTrade(size float64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.trades = append(g.trades, size)
}

// RecordedTrades returns the trade notionals seen by the gate.
func (g *MockGate) RecordedTrades() []float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]float64, len(g.trades))
	copy(out, g.trades)
	return out
}
