package feed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

type subscribeFrame struct {
	Op      string   `json:"op"`
	Channel string   `json:"channel"`
	Symbols []string `json:"symbols"`
}

// feedServer is a minimal WebSocket endpoint that records subscribe frames
// and lets tests push raw frames back to the client.
type feedServer struct {
	srv        *httptest.Server
	subscribes chan subscribeFrame
	conns      chan *websocket.Conn
}

func newFeedServer(t *testing.T) *feedServer {
	t.Helper()

	fs := &feedServer{
		subscribes: make(chan subscribeFrame, 4),
		conns:      make(chan *websocket.Conn, 4),
	}

	upgrader := websocket.Upgrader{}
	fs.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		fs.conns <- conn

		for {
			_, payload, err := conn.ReadMessage()
			if err != nil {
				return
			}
			var frame subscribeFrame
			if json.Unmarshal(payload, &frame) == nil {
				fs.subscribes <- frame
			}
		}
	}))
	t.Cleanup(fs.srv.Close)

	return fs
}

func (fs *feedServer) url() string {
	return "ws" + strings.TrimPrefix(fs.srv.URL, "http")
}

func newTestClient(url string) *Client {
	return New(Config{
		URL:                   url,
		DialTimeout:           time.Second,
		PongTimeout:           time.Second,
		PingInterval:          time.Hour, // keep pings out of the tests
		ReconnectInitialDelay: 10 * time.Millisecond,
		ReconnectMaxDelay:     100 * time.Millisecond,
		ReconnectBackoffMult:  2.0,
		MessageBufferSize:     16,
		Logger:                zap.NewNop(),
	})
}

func TestNew(t *testing.T) {
	client := newTestClient("ws://unused")

	if cap(client.messageChan) != 16 {
		t.Errorf("expected message channel capacity 16, got %d", cap(client.messageChan))
	}
	if client.backoff == nil {
		t.Error("expected backoff to be initialized")
	}
	if client.subscribed == nil {
		t.Error("expected subscribed map to be initialized")
	}
	if client.connected.Load() {
		t.Error("expected client to start disconnected")
	}
}

func TestSubscribe_EmptySymbols(t *testing.T) {
	client := newTestClient("ws://unused")

	// No connection is needed when there is nothing to subscribe to.
	if err := client.Subscribe(context.Background(), nil); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
}

func TestSubscribe_SendsFrameAndDedupes(t *testing.T) {
	fs := newFeedServer(t)

	client := newTestClient(fs.url())
	if err := client.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer client.Close()

	err := client.Subscribe(context.Background(), []string{"BTC-USDT", "ETH-USDT", "BTC-USDT"})
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	select {
	case frame := <-fs.subscribes:
		if frame.Op != "subscribe" || frame.Channel != "book" {
			t.Errorf("unexpected frame: %+v", frame)
		}
		if len(frame.Symbols) != 2 {
			t.Errorf("expected 2 deduped symbols, got %v", frame.Symbols)
		}
	case <-time.After(time.Second):
		t.Fatal("no subscribe frame received")
	}

	// Symbols already subscribed produce no second frame.
	err = client.Subscribe(context.Background(), []string{"BTC-USDT"})
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	select {
	case frame := <-fs.subscribes:
		t.Errorf("unexpected duplicate subscribe frame: %+v", frame)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestUnsubscribe(t *testing.T) {
	fs := newFeedServer(t)

	client := newTestClient(fs.url())
	if err := client.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer client.Close()

	if err := client.Subscribe(context.Background(), []string{"BTC-USDT"}); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	<-fs.subscribes

	if err := client.Unsubscribe(context.Background(), []string{"BTC-USDT", "ETH-USDT"}); err != nil {
		t.Fatalf("Unsubscribe: %v", err)
	}

	select {
	case frame := <-fs.subscribes:
		if frame.Op != "unsubscribe" {
			t.Errorf("expected unsubscribe op, got %q", frame.Op)
		}
		// Only the symbol actually subscribed is sent.
		if len(frame.Symbols) != 1 || frame.Symbols[0] != "BTC-USDT" {
			t.Errorf("unexpected symbols: %v", frame.Symbols)
		}
	case <-time.After(time.Second):
		t.Fatal("no unsubscribe frame received")
	}

	client.mu.RLock()
	subscribed := client.subscribed["BTC-USDT"]
	client.mu.RUnlock()
	if subscribed {
		t.Error("expected BTC-USDT to be removed from subscription state")
	}

	// Unsubscribing symbols that were never subscribed is a no-op.
	if err := client.Unsubscribe(context.Background(), []string{"SOL-USDT"}); err != nil {
		t.Fatalf("Unsubscribe: %v", err)
	}
}

func TestReadLoop_DeliversBookMessages(t *testing.T) {
	fs := newFeedServer(t)

	client := newTestClient(fs.url())
	if err := client.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer client.Close()

	conn := <-fs.conns

	// Heartbeats and control frames are skipped, batches are fanned out
	// one message at a time.
	frames := []string{
		"[]",
		`{"type":"subscribed"}`,
		`[{"event_type":"book","symbol":"BTC-USDT","bids":[{"price":"100","size":"1"}],"asks":[{"price":"101","size":"2"}]},` +
			`{"event_type":"last_trade_price","symbol":"BTC-USDT","last_price":"100.5"}]`,
	}
	for _, frame := range frames {
		if err := conn.WriteMessage(websocket.TextMessage, []byte(frame)); err != nil {
			t.Fatalf("write frame: %v", err)
		}
	}

	var got []string
	for len(got) < 2 {
		select {
		case msg := <-client.MessageChan():
			got = append(got, msg.EventType)
			if msg.Symbol != "BTC-USDT" {
				t.Errorf("unexpected symbol %q", msg.Symbol)
			}
			if msg.EventType == "book" {
				if len(msg.Bids) != 1 || !msg.Bids[0].Price.Equal(dec("100")) {
					t.Errorf("unexpected bids: %+v", msg.Bids)
				}
				if len(msg.Asks) != 1 || !msg.Asks[0].Size.Equal(dec("2")) {
					t.Errorf("unexpected asks: %+v", msg.Asks)
				}
			}
			if msg.EventType == "last_trade_price" && !msg.LastPrice.Equal(dec("100.5")) {
				t.Errorf("unexpected last price %s", msg.LastPrice)
			}
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for messages, got %v", got)
		}
	}

	if got[0] != "book" || got[1] != "last_trade_price" {
		t.Errorf("expected [book last_trade_price], got %v", got)
	}
}

func TestClose_ShutsDownCleanly(t *testing.T) {
	fs := newFeedServer(t)

	client := newTestClient(fs.url())
	if err := client.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	if err := client.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	// The message channel is closed so downstream ranges terminate.
	if _, ok := <-client.MessageChan(); ok {
		t.Error("expected message channel to be closed")
	}
}
