package orderbook

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/mselser95/crossarb/internal/testutil"
	"github.com/mselser95/crossarb/pkg/types"
)

func startManager(t *testing.T) (*Manager, chan *types.BookMessage, context.CancelFunc) {
	t.Helper()

	msgChan := make(chan *types.BookMessage, 16)
	manager := New(&Config{
		Logger:         zap.NewNop(),
		MessageChannel: msgChan,
	})

	ctx, cancel := context.WithCancel(context.Background())
	if err := manager.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	return manager, msgChan, cancel
}

// waitForBook polls until the manager has ingested a book for symbol.
func waitForBook(t *testing.T, manager *Manager, symbol string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if _, ok := manager.Snapshot(symbol); ok {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("book for %s never appeared", symbol)
}

func TestManager_SnapshotAndPrices(t *testing.T) {
	manager, msgChan, cancel := startManager(t)
	defer func() {
		cancel()
		manager.Close()
	}()

	msgChan <- testutil.BookMessage("BTC-USDT",
		testutil.Levels("100", "1"),
		testutil.Levels("101", "1"))
	waitForBook(t, manager, "BTC-USDT")

	bid, err := manager.GetPrice("BTC-USDT", types.PriceTypeBestBid)
	if err != nil || !bid.Equal(testutil.Dec("100")) {
		t.Errorf("expected best bid 100, got %s (%v)", bid, err)
	}
	ask, err := manager.GetPrice("BTC-USDT", types.PriceTypeBestAsk)
	if err != nil || !ask.Equal(testutil.Dec("101")) {
		t.Errorf("expected best ask 101, got %s (%v)", ask, err)
	}
	mid, err := manager.GetPrice("BTC-USDT", types.PriceTypeMid)
	if err != nil || !mid.Equal(testutil.Dec("100.5")) {
		t.Errorf("expected mid 100.5, got %s (%v)", mid, err)
	}

	snap, ok := manager.Snapshot("BTC-USDT")
	if !ok || len(snap.Bids) != 1 || len(snap.Asks) != 1 {
		t.Errorf("unexpected snapshot: %+v", snap)
	}
}

func TestManager_IncrementalAndTradeEvents(t *testing.T) {
	manager, msgChan, cancel := startManager(t)
	defer func() {
		cancel()
		manager.Close()
	}()

	msgChan <- testutil.BookMessage("BTC-USDT",
		testutil.Levels("100", "1"),
		testutil.Levels("101", "1"))
	waitForBook(t, manager, "BTC-USDT")

	change := testutil.BookMessage("BTC-USDT", testutil.Levels("100.2", "2"), nil)
	change.EventType = "price_change"
	msgChan <- change

	trade := &types.BookMessage{
		EventType: "last_trade_price",
		Symbol:    "BTC-USDT",
		LastPrice: testutil.Dec("100.7"),
	}
	msgChan <- trade

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		last, err := manager.GetPrice("BTC-USDT", types.PriceTypeLast)
		if err == nil && last.Equal(testutil.Dec("100.7")) {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	bid, err := manager.GetPrice("BTC-USDT", types.PriceTypeBestBid)
	if err != nil || !bid.Equal(testutil.Dec("100.2")) {
		t.Errorf("expected best bid 100.2 after change, got %s (%v)", bid, err)
	}
	last, err := manager.GetPrice("BTC-USDT", types.PriceTypeLast)
	if err != nil || !last.Equal(testutil.Dec("100.7")) {
		t.Errorf("expected last 100.7, got %s (%v)", last, err)
	}
}

func TestManager_QuoteForAmount(t *testing.T) {
	manager, msgChan, cancel := startManager(t)
	defer func() {
		cancel()
		manager.Close()
	}()

	msgChan <- testutil.BookMessage("ETH-USDT",
		testutil.Levels("150", "10"),
		testutil.Levels("151", "10"))
	waitForBook(t, manager, "ETH-USDT")

	price, err := manager.QuoteForAmount("ETH-USDT", types.SideBuy, testutil.Dec("5"))
	if err != nil || !price.Equal(testutil.Dec("151")) {
		t.Errorf("expected 151, got %s (%v)", price, err)
	}
}

func TestManager_UnknownMarket(t *testing.T) {
	manager, _, cancel := startManager(t)
	defer func() {
		cancel()
		manager.Close()
	}()

	_, err := manager.GetPrice("NOPE-USDT", types.PriceTypeMid)
	if !errors.Is(err, types.ErrUnknownMarket) {
		t.Errorf("expected ErrUnknownMarket, got %v", err)
	}
	_, err = manager.QuoteForAmount("NOPE-USDT", types.SideBuy, testutil.Dec("1"))
	if !errors.Is(err, types.ErrUnknownMarket) {
		t.Errorf("expected ErrUnknownMarket, got %v", err)
	}
	if _, ok := manager.Snapshot("NOPE-USDT"); ok {
		t.Error("expected no snapshot for unknown market")
	}
}

func TestManager_PublishesTickers(t *testing.T) {
	manager, msgChan, cancel := startManager(t)
	defer func() {
		cancel()
		manager.Close()
	}()

	msgChan <- testutil.BookMessage("BTC-USDT",
		testutil.Levels("100", "1"),
		testutil.Levels("101", "1"))

	select {
	case ticker := <-manager.UpdateChan():
		if ticker.Symbol != "BTC-USDT" {
			t.Errorf("expected BTC-USDT ticker, got %s", ticker.Symbol)
		}
		if !ticker.BestBid.Price.Equal(testutil.Dec("100")) {
			t.Errorf("expected ticker bid 100, got %s", ticker.BestBid.Price)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no ticker published")
	}
}
