package orderbook

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mselser95/crossarb/pkg/types"
)

// Ticker is a top-of-book notification pushed to subscribers after every
// applied update.
type Ticker struct {
	Symbol  string
	BestBid types.PriceLevel
	BestAsk types.PriceLevel
	Last    decimal.Decimal
}

// Manager maintains depth books for all tracked markets and answers price
// and quote lookups over them.
type Manager struct {
	books      map[string]*Book // key: market symbol
	mu         sync.RWMutex
	logger     *zap.Logger
	msgChan    <-chan *types.BookMessage
	updateChan chan Ticker
	ctx        context.Context
	wg         sync.WaitGroup
}

// Config holds orderbook manager configuration.
type Config struct {
	Logger         *zap.Logger
	MessageChannel <-chan *types.BookMessage
}

// New creates a new orderbook manager.
func New(cfg *Config) *Manager {
	return &Manager{
		books:      make(map[string]*Book),
		logger:     cfg.Logger,
		msgChan:    cfg.MessageChannel,
		updateChan: make(chan Ticker, 4096),
	}
}

// Start starts the orderbook manager.
func (m *Manager) Start(ctx context.Context) error {
	m.ctx = ctx
	m.logger.Info("orderbook-manager-starting")

	m.wg.Add(1)
	go m.processMessages()

	return nil
}

func (m *Manager) processMessages() {
	defer m.wg.Done()

	for {
		select {
		case <-m.ctx.Done():
			m.logger.Info("orderbook-manager-stopping")
			return
		case msg, ok := <-m.msgChan:
			if !ok {
				m.logger.Info("message-channel-closed")
				return
			}
			m.handleMessage(msg)
		}
	}
}

func (m *Manager) handleMessage(msg *types.BookMessage) {
	start := time.Now()
	UpdatesTotal.WithLabelValues(msg.EventType).Inc()

	m.mu.Lock()
	book, exists := m.books[msg.Symbol]
	if !exists {
		book = &Book{Symbol: msg.Symbol}
		m.books[msg.Symbol] = book
		BooksTracked.Set(float64(len(m.books)))
	}

	now := time.Now()
	switch msg.EventType {
	case "book":
		book.Replace(msg.Bids, msg.Asks, now)
	case "price_change":
		book.ApplyChanges(msg.Bids, msg.Asks, now)
	case "last_trade_price":
		book.LastPrice = msg.LastPrice
		book.LastUpdated = now
	default:
		m.mu.Unlock()
		m.logger.Debug("unknown-book-event", zap.String("event-type", msg.EventType))
		return
	}

	ticker := Ticker{Symbol: book.Symbol, Last: book.LastPrice}
	if bid, ok := book.BestBid(); ok {
		ticker.BestBid = bid
	}
	if ask, ok := book.BestAsk(); ok {
		ticker.BestAsk = ask
	}
	m.mu.Unlock()

	UpdateProcessingDuration.Observe(time.Since(start).Seconds())

	select {
	case m.updateChan <- ticker:
	default:
		UpdatesDroppedTotal.Inc()
		m.logger.Warn("orderbook-update-channel-full",
			zap.String("symbol", msg.Symbol),
			zap.Int("buffer-size", cap(m.updateChan)))
	}
}

// QuoteForAmount walks the book for `symbol` and returns the expected
// execution price of an order for `amount` base units on `side`.
func (m *Manager) QuoteForAmount(symbol string, side types.Side, amount decimal.Decimal) (decimal.Decimal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	book, exists := m.books[symbol]
	if !exists {
		return decimal.Zero, types.ErrUnknownMarket
	}

	return book.QuoteForAmount(side, amount)
}

// GetPrice returns the requested top-of-book price for `symbol`.
func (m *Manager) GetPrice(symbol string, priceType types.PriceType) (decimal.Decimal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	book, exists := m.books[symbol]
	if !exists {
		return decimal.Zero, types.ErrUnknownMarket
	}

	switch priceType {
	case types.PriceTypeBestBid:
		if bid, ok := book.BestBid(); ok {
			return bid.Price, nil
		}
	case types.PriceTypeBestAsk:
		if ask, ok := book.BestAsk(); ok {
			return ask.Price, nil
		}
	case types.PriceTypeMid:
		if mid, ok := book.Mid(); ok {
			return mid, nil
		}
	case types.PriceTypeLast:
		if book.LastPrice.Sign() > 0 {
			return book.LastPrice, nil
		}
	}

	return decimal.Zero, types.ErrInsufficientLiquidity
}

// Snapshot returns a copy of the book for `symbol`.
func (m *Manager) Snapshot(symbol string) (*Book, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	book, exists := m.books[symbol]
	if !exists {
		return nil, false
	}

	cp := &Book{
		Symbol:      book.Symbol,
		Bids:        append([]types.PriceLevel(nil), book.Bids...),
		Asks:        append([]types.PriceLevel(nil), book.Asks...),
		LastPrice:   book.LastPrice,
		LastUpdated: book.LastUpdated,
	}
	return cp, true
}

// UpdateChan returns the channel of top-of-book updates.
func (m *Manager) UpdateChan() <-chan Ticker {
	return m.updateChan
}

// Close gracefully closes the orderbook manager.
func (m *Manager) Close() error {
	m.logger.Info("closing-orderbook-manager")
	m.wg.Wait()
	close(m.updateChan)
	return nil
}
