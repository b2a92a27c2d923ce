package connector

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mselser95/crossarb/internal/markets"
	"github.com/mselser95/crossarb/internal/orderbook"
	"github.com/mselser95/crossarb/pkg/types"
)

// Paper is a simulated venue over the live depth books. Market orders fill
// immediately at the book-walked price; limit orders rest and fill when the
// opposite side of the book crosses their price. Balances are a simple
// in-memory ledger.
type Paper struct {
	books  *orderbook.Manager
	rules  markets.Provider
	logger *zap.Logger
	events chan types.OrderEvent
	clock  func() time.Time

	mu       sync.Mutex
	balances map[string]decimal.Decimal
	locked   map[string]decimal.Decimal
	open     map[string]*restingOrder

	ctx context.Context
	wg  sync.WaitGroup
}

type restingOrder struct {
	order        types.TrackedOrder
	lockedAsset  string
	lockedAmount decimal.Decimal
}

// PaperConfig holds paper connector configuration.
type PaperConfig struct {
	Books    *orderbook.Manager
	Rules    markets.Provider
	Balances map[string]decimal.Decimal // initial ledger, asset -> amount
	Logger   *zap.Logger
}

// NewPaper creates a paper connector.
func NewPaper(cfg *PaperConfig) *Paper {
	balances := make(map[string]decimal.Decimal, len(cfg.Balances))
	for asset, amount := range cfg.Balances {
		balances[asset] = amount
	}

	return &Paper{
		books:    cfg.Books,
		rules:    cfg.Rules,
		logger:   cfg.Logger,
		events:   make(chan types.OrderEvent, 1024),
		clock:    time.Now,
		balances: balances,
		locked:   make(map[string]decimal.Decimal),
		open:     make(map[string]*restingOrder),
	}
}

// Start begins watching book updates to fill resting limit orders.
func (p *Paper) Start(ctx context.Context) error {
	p.ctx = ctx
	p.logger.Info("paper-connector-starting")

	p.wg.Add(1)
	go p.watchBooks()

	return nil
}

func (p *Paper) watchBooks() {
	defer p.wg.Done()

	for {
		select {
		case <-p.ctx.Done():
			p.logger.Info("paper-connector-stopping")
			return
		case ticker, ok := <-p.books.UpdateChan():
			if !ok {
				return
			}
			p.checkResting(ticker)
		}
	}
}

// checkResting fills any resting limit order crossed by the new top of
// book: a resting bid fills when the ask trades down through it, a resting
// ask when the bid trades up through it.
func (p *Paper) checkResting(ticker orderbook.Ticker) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for id, r := range p.open {
		if r.order.Market.Symbol() != ticker.Symbol {
			continue
		}

		crossed := false
		switch r.order.Side {
		case types.SideBuy:
			crossed = ticker.BestAsk.Price.Sign() > 0 && ticker.BestAsk.Price.LessThanOrEqual(r.order.Price)
		case types.SideSell:
			crossed = ticker.BestBid.Price.Sign() > 0 && ticker.BestBid.Price.GreaterThanOrEqual(r.order.Price)
		}

		if crossed {
			p.fillLocked(id, r)
		}
	}
}

// fillLocked fills a resting order fully at its limit price. Caller holds
// the mutex.
func (p *Paper) fillLocked(id string, r *restingOrder) {
	delete(p.open, id)
	p.locked[r.lockedAsset] = p.locked[r.lockedAsset].Sub(r.lockedAmount)

	p.settleLocked(r.order.Market, r.order.Side, r.order.Amount, r.order.Price)

	now := p.clock()
	p.emit(types.OrderEvent{
		Kind:      types.OrderFilled,
		OrderID:   id,
		Market:    r.order.Market,
		Side:      r.order.Side,
		Price:     r.order.Price,
		Amount:    r.order.Amount,
		Timestamp: now,
	})
	p.emit(types.OrderEvent{
		Kind:       types.OrderCompleted,
		OrderID:    id,
		Market:     r.order.Market,
		Side:       r.order.Side,
		Price:      r.order.Price,
		BaseTotal:  r.order.Amount,
		QuoteTotal: r.order.Amount.Mul(r.order.Price),
		Timestamp:  now,
	})

	OrdersFilledTotal.WithLabelValues(string(r.order.Side)).Inc()
	p.logger.Info("paper-order-filled",
		zap.String("order-id", id),
		zap.String("market", r.order.Market.Symbol()),
		zap.String("side", string(r.order.Side)),
		zap.String("price", r.order.Price.String()),
		zap.String("amount", r.order.Amount.String()))
}

// settleLocked moves balances for a fill. Caller holds the mutex.
func (p *Paper) settleLocked(market types.MarketPair, side types.Side, amount, price decimal.Decimal) {
	notional := amount.Mul(price)
	if side == types.SideBuy {
		p.balances[market.Base] = p.balances[market.Base].Add(amount)
		p.balances[market.Quote] = p.balances[market.Quote].Sub(notional)
	} else {
		p.balances[market.Base] = p.balances[market.Base].Sub(amount)
		p.balances[market.Quote] = p.balances[market.Quote].Add(notional)
	}
}

// Quote implements Connector.
func (p *Paper) Quote(_ context.Context, market types.MarketPair, side types.Side, amount decimal.Decimal) (decimal.Decimal, error) {
	return p.books.QuoteForAmount(market.Symbol(), side, amount)
}

// GetPrice implements Connector.
func (p *Paper) GetPrice(_ context.Context, market types.MarketPair, priceType types.PriceType) (decimal.Decimal, error) {
	return p.books.GetPrice(market.Symbol(), priceType)
}

// PlaceOrder implements Connector. Market orders fill synchronously with
// events emitted before the order ID is returned; limit orders rest.
func (p *Paper) PlaceOrder(ctx context.Context, candidate types.OrderCandidate) (string, error) {
	amount, err := p.QuantizeOrderAmount(ctx, candidate.Market, candidate.Amount)
	if err != nil {
		return "", err
	}
	if amount.Sign() <= 0 {
		return "", &types.OrderError{
			Code:    types.ErrBelowMinQuantity,
			Message: "quantized amount is zero",
			Market:  candidate.Market.Symbol(),
		}
	}

	if candidate.Type == types.OrderTypeMarket {
		return p.placeMarket(candidate, amount)
	}
	return p.placeLimit(candidate, amount)
}

func (p *Paper) placeMarket(candidate types.OrderCandidate, amount decimal.Decimal) (string, error) {
	price, err := p.books.QuoteForAmount(candidate.Market.Symbol(), candidate.Side, amount)
	if err != nil {
		OrdersRejectedTotal.WithLabelValues(types.ErrNoLiquidity).Inc()
		return "", &types.OrderError{
			Code:    types.ErrNoLiquidity,
			Message: err.Error(),
			Market:  candidate.Market.Symbol(),
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	asset, needed := requiredFunds(candidate.Market, candidate.Side, amount, price)
	if p.availableLocked(asset).LessThan(needed) {
		OrdersRejectedTotal.WithLabelValues(types.ErrNotEnoughBalance).Inc()
		return "", &types.OrderError{
			Code:    types.ErrNotEnoughBalance,
			Message: fmt.Sprintf("need %s %s", needed.String(), asset),
			Market:  candidate.Market.Symbol(),
		}
	}

	id := uuid.NewString()
	now := p.clock()

	p.settleLocked(candidate.Market, candidate.Side, amount, price)

	p.emit(types.OrderEvent{
		Kind:      types.OrderCreated,
		OrderID:   id,
		Market:    candidate.Market,
		Side:      candidate.Side,
		Timestamp: now,
	})
	p.emit(types.OrderEvent{
		Kind:      types.OrderFilled,
		OrderID:   id,
		Market:    candidate.Market,
		Side:      candidate.Side,
		Price:     price,
		Amount:    amount,
		Timestamp: now,
	})
	p.emit(types.OrderEvent{
		Kind:       types.OrderCompleted,
		OrderID:    id,
		Market:     candidate.Market,
		Side:       candidate.Side,
		Price:      price,
		BaseTotal:  amount,
		QuoteTotal: amount.Mul(price),
		Timestamp:  now,
	})

	OrdersFilledTotal.WithLabelValues(string(candidate.Side)).Inc()
	return id, nil
}

func (p *Paper) placeLimit(candidate types.OrderCandidate, amount decimal.Decimal) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	asset, needed := requiredFunds(candidate.Market, candidate.Side, amount, candidate.Price)
	if p.availableLocked(asset).LessThan(needed) {
		OrdersRejectedTotal.WithLabelValues(types.ErrNotEnoughBalance).Inc()
		return "", &types.OrderError{
			Code:    types.ErrNotEnoughBalance,
			Message: fmt.Sprintf("need %s %s", needed.String(), asset),
			Market:  candidate.Market.Symbol(),
		}
	}

	id := uuid.NewString()
	now := p.clock()

	r := &restingOrder{
		order: types.TrackedOrder{
			ID:        id,
			Market:    candidate.Market,
			Side:      candidate.Side,
			Type:      types.OrderTypeLimit,
			Price:     candidate.Price,
			Amount:    amount,
			CreatedAt: now,
		},
		lockedAsset:  asset,
		lockedAmount: needed,
	}

	p.open[id] = r
	p.locked[asset] = p.locked[asset].Add(needed)

	p.emit(types.OrderEvent{
		Kind:      types.OrderCreated,
		OrderID:   id,
		Market:    candidate.Market,
		Side:      candidate.Side,
		Timestamp: now,
	})

	// A marketable limit fills straight away at its own price.
	if p.isMarketable(r.order) {
		p.fillLocked(id, r)
	}

	return id, nil
}

func (p *Paper) isMarketable(order types.TrackedOrder) bool {
	book, ok := p.books.Snapshot(order.Market.Symbol())
	if !ok {
		return false
	}

	switch order.Side {
	case types.SideBuy:
		if ask, ok := book.BestAsk(); ok {
			return ask.Price.LessThanOrEqual(order.Price)
		}
	case types.SideSell:
		if bid, ok := book.BestBid(); ok {
			return bid.Price.GreaterThanOrEqual(order.Price)
		}
	}
	return false
}

// CancelOrder implements Connector. The cancellation event is emitted
// before the call returns.
func (p *Paper) CancelOrder(_ context.Context, market types.MarketPair, orderID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	r, ok := p.open[orderID]
	if !ok {
		return fmt.Errorf("cancel %s: order not open", orderID)
	}

	delete(p.open, orderID)
	p.locked[r.lockedAsset] = p.locked[r.lockedAsset].Sub(r.lockedAmount)

	p.emit(types.OrderEvent{
		Kind:      types.OrderCancelled,
		OrderID:   orderID,
		Market:    market,
		Side:      r.order.Side,
		Timestamp: p.clock(),
	})

	return nil
}

// GetBalance implements Connector.
func (p *Paper) GetBalance(_ context.Context, _ types.MarketPair, asset string) (decimal.Decimal, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.balances[asset], nil
}

// GetAvailableBalance implements Connector.
func (p *Paper) GetAvailableBalance(_ context.Context, _ types.MarketPair, asset string) (decimal.Decimal, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.availableLocked(asset), nil
}

func (p *Paper) availableLocked(asset string) decimal.Decimal {
	return p.balances[asset].Sub(p.locked[asset])
}

// QuantizeOrderAmount implements Connector.
func (p *Paper) QuantizeOrderAmount(ctx context.Context, market types.MarketPair, amount decimal.Decimal) (decimal.Decimal, error) {
	rules, err := p.rules.Rules(ctx, market.Symbol())
	if err != nil {
		return decimal.Zero, fmt.Errorf("rules %s: %w", market.Symbol(), err)
	}
	return rules.QuantizeAmount(amount), nil
}

// AdjustCandidateToBudget implements Connector.
func (p *Paper) AdjustCandidateToBudget(ctx context.Context, candidate types.OrderCandidate, allOrNone bool) (types.OrderCandidate, error) {
	price := candidate.Price
	if price.Sign() == 0 {
		ref, err := p.GetPrice(ctx, candidate.Market, types.PriceTypeMid)
		if err != nil {
			return candidate, fmt.Errorf("reference price %s: %w", candidate.Market.Symbol(), err)
		}
		price = ref
	}

	asset, needed := requiredFunds(candidate.Market, candidate.Side, candidate.Amount, price)

	p.mu.Lock()
	available := p.availableLocked(asset)
	p.mu.Unlock()

	if available.GreaterThanOrEqual(needed) {
		return candidate, nil
	}

	if allOrNone {
		candidate.Amount = decimal.Zero
		return candidate, nil
	}

	if candidate.Side == types.SideBuy {
		if price.Sign() == 0 {
			candidate.Amount = decimal.Zero
			return candidate, nil
		}
		candidate.Amount = available.Div(price)
	} else {
		candidate.Amount = available
	}

	amount, err := p.QuantizeOrderAmount(ctx, candidate.Market, candidate.Amount)
	if err != nil {
		return candidate, err
	}
	candidate.Amount = amount

	return candidate, nil
}

// Events implements Connector.
func (p *Paper) Events() <-chan types.OrderEvent {
	return p.events
}

func (p *Paper) emit(ev types.OrderEvent) {
	select {
	case p.events <- ev:
	default:
		EventsDroppedTotal.Inc()
		p.logger.Warn("paper-event-channel-full",
			zap.String("kind", ev.Kind.String()),
			zap.String("order-id", ev.OrderID))
	}
}

// Close waits for the book watcher to stop.
func (p *Paper) Close() error {
	p.logger.Info("closing-paper-connector")
	p.wg.Wait()
	close(p.events)
	return nil
}

// requiredFunds returns the asset and amount a fill would debit.
func requiredFunds(market types.MarketPair, side types.Side, amount, price decimal.Decimal) (string, decimal.Decimal) {
	if side == types.SideBuy {
		return market.Quote, amount.Mul(price)
	}
	return market.Base, amount
}
