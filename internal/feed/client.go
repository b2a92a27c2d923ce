package feed

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	json "github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/mselser95/crossarb/pkg/types"
)

// Client maintains one WebSocket connection to a venue's market-data feed
// and turns its frames into book messages.
type Client struct {
	url             string
	conn            *websocket.Conn
	logger          *zap.Logger
	backoff         *Backoff
	config          Config
	messageChan     chan *types.BookMessage
	ctx             context.Context
	cancel          context.CancelFunc
	wg              sync.WaitGroup
	mu              sync.RWMutex
	subscribed      map[string]bool // symbols with a live subscription
	connected       atomic.Bool
	lastPongTime    atomic.Int64
	connectionStart atomic.Int64
}

// Config holds feed client configuration.
type Config struct {
	URL                   string
	DialTimeout           time.Duration
	PongTimeout           time.Duration
	PingInterval          time.Duration
	ReconnectInitialDelay time.Duration
	ReconnectMaxDelay     time.Duration
	ReconnectBackoffMult  float64
	MessageBufferSize     int
	Logger                *zap.Logger
}

// New creates a feed client. Call Start to connect.
func New(cfg Config) *Client {
	ctx, cancel := context.WithCancel(context.Background())

	backoffCfg := BackoffConfig{
		InitialDelay:      cfg.ReconnectInitialDelay,
		MaxDelay:          cfg.ReconnectMaxDelay,
		BackoffMultiplier: cfg.ReconnectBackoffMult,
		JitterPercent:     0.2,
	}

	return &Client{
		url:         cfg.URL,
		logger:      cfg.Logger,
		backoff:     NewBackoff(backoffCfg, cfg.Logger),
		config:      cfg,
		messageChan: make(chan *types.BookMessage, cfg.MessageBufferSize),
		ctx:         ctx,
		cancel:      cancel,
		subscribed:  make(map[string]bool),
	}
}

// Start connects and launches the read, ping and reconnect loops.
func (c *Client) Start() error {
	c.logger.Info("feed-client-starting", zap.String("url", c.url))

	err := c.connect(c.ctx)
	if err != nil {
		return fmt.Errorf("initial connection: %w", err)
	}

	c.wg.Add(3)
	go c.readLoop()
	go c.pingLoop()
	go c.reconnectLoop()

	return nil
}

func (c *Client) connect(ctx context.Context) error {
	dialer := websocket.Dialer{
		HandshakeTimeout: c.config.DialTimeout,
	}

	c.logger.Info("connecting-to-feed", zap.String("url", c.url))

	conn, _, err := dialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}

	conn.SetPongHandler(func(string) error {
		c.lastPongTime.Store(time.Now().Unix())
		return nil
	})

	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()

	now := time.Now()
	c.connected.Store(true)
	c.lastPongTime.Store(now.Unix())
	c.connectionStart.Store(now.Unix())
	ActiveConnections.Set(1)

	c.logger.Info("feed-connected")

	return nil
}

// Subscribe subscribes to book updates for the given symbols.
func (c *Client) Subscribe(ctx context.Context, symbols []string) error {
	if len(symbols) == 0 {
		return nil
	}

	c.mu.Lock()

	newSymbols := make([]string, 0, len(symbols))
	for _, symbol := range symbols {
		if !c.subscribed[symbol] {
			newSymbols = append(newSymbols, symbol)
			c.subscribed[symbol] = true
		}
	}

	if len(newSymbols) == 0 {
		c.mu.Unlock()
		c.logger.Debug("all-symbols-already-subscribed")
		return nil
	}

	subscribeMsg := map[string]interface{}{
		"op":      "subscribe",
		"channel": "book",
		"symbols": newSymbols,
	}

	totalSubscribed := len(c.subscribed)
	c.mu.Unlock()

	// Network I/O without holding the lock.
	err := c.conn.WriteJSON(subscribeMsg)
	if err != nil {
		// Rollback subscription state on failure.
		c.mu.Lock()
		for _, symbol := range newSymbols {
			delete(c.subscribed, symbol)
		}
		totalSubscribed = len(c.subscribed)
		c.mu.Unlock()

		SubscriptionCount.Set(float64(totalSubscribed))
		return fmt.Errorf("write subscribe message: %w", err)
	}

	SubscriptionCount.Set(float64(totalSubscribed))

	c.logger.Info("subscribed-to-symbols",
		zap.Int("new-count", len(newSymbols)),
		zap.Int("total-count", totalSubscribed))

	return nil
}

// Unsubscribe drops book subscriptions for the given symbols.
func (c *Client) Unsubscribe(ctx context.Context, symbols []string) (err error) {
	if len(symbols) == 0 {
		return nil
	}

	c.mu.Lock()

	toRemove := make([]string, 0, len(symbols))
	for _, symbol := range symbols {
		if c.subscribed[symbol] {
			toRemove = append(toRemove, symbol)
			delete(c.subscribed, symbol)
		}
	}

	if len(toRemove) == 0 {
		c.mu.Unlock()
		c.logger.Debug("no-symbols-to-unsubscribe")
		return nil
	}

	unsubscribeMsg := map[string]interface{}{
		"op":      "unsubscribe",
		"channel": "book",
		"symbols": toRemove,
	}

	totalSubscribed := len(c.subscribed)
	c.mu.Unlock()

	err = c.conn.WriteJSON(unsubscribeMsg)
	if err != nil {
		// Rollback: restore the subscriptions.
		c.mu.Lock()
		for _, symbol := range toRemove {
			c.subscribed[symbol] = true
		}
		totalSubscribed = len(c.subscribed)
		c.mu.Unlock()

		SubscriptionCount.Set(float64(totalSubscribed))
		return fmt.Errorf("write unsubscribe message: %w", err)
	}

	SubscriptionCount.Set(float64(totalSubscribed))
	UnsubscriptionsTotal.Inc()

	c.logger.Info("unsubscribed-from-symbols",
		zap.Int("count", len(toRemove)),
		zap.Int("remaining-count", totalSubscribed))

	return nil
}

// readLoop reads frames until the connection drops.
func (c *Client) readLoop() {
	defer c.wg.Done()

	for {
		select {
		case <-c.ctx.Done():
			return
		default:
		}

		c.mu.RLock()
		conn := c.conn
		c.mu.RUnlock()

		if conn == nil {
			time.Sleep(100 * time.Millisecond)
			continue
		}

		_, message, err := conn.ReadMessage()
		if err != nil {
			c.logger.Warn("read-error", zap.Error(err))

			startTime := c.connectionStart.Load()
			if startTime > 0 {
				duration := time.Since(time.Unix(startTime, 0)).Seconds()
				ConnectionDuration.Observe(duration)
			}

			c.connected.Store(false)
			ActiveConnections.Set(0)
			return
		}

		// Feeds batch updates into an array of book messages.
		var bookMsgs []types.BookMessage
		err = json.Unmarshal(message, &bookMsgs)
		if err != nil {
			messageStr := string(message)

			// Heartbeat/keepalive frames are empty or near-empty.
			if messageStr == "[]" || messageStr == "" || len(message) < 10 {
				c.logger.Debug("feed-heartbeat-received",
					zap.Int("bytes", len(message)))
				continue
			}

			// Subscription acks and other control frames are objects.
			var controlMsg map[string]interface{}
			if json.Unmarshal(message, &controlMsg) == nil {
				if msgType, ok := controlMsg["type"].(string); ok {
					c.logger.Debug("feed-control-message",
						zap.String("type", msgType),
						zap.Int("bytes", len(message)))
					continue
				}
			}

			previewLen := len(messageStr)
			if previewLen > 100 {
				previewLen = 100
			}
			c.logger.Debug("feed-unparseable-message",
				zap.Error(err),
				zap.Int("bytes", len(message)),
				zap.String("preview", messageStr[:previewLen]))
			continue
		}

		for i := range bookMsgs {
			start := time.Now()
			bookMsg := &bookMsgs[i]

			MessagesReceivedTotal.WithLabelValues(bookMsg.EventType).Inc()

			select {
			case c.messageChan <- bookMsg:
			default:
				c.logger.Warn("message-channel-full", zap.String("event-type", bookMsg.EventType))
				MessagesDroppedTotal.WithLabelValues("channel_full").Inc()
			}

			MessageLatencySeconds.Observe(time.Since(start).Seconds())
		}
	}
}

// pingLoop sends periodic PING frames.
func (c *Client) pingLoop() {
	defer c.wg.Done()

	ticker := time.NewTicker(c.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.ctx.Done():
			return
		case <-ticker.C:
			if !c.connected.Load() {
				continue
			}

			c.mu.RLock()
			conn := c.conn
			c.mu.RUnlock()

			if conn == nil {
				continue
			}

			err := conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(time.Second))
			if err != nil {
				c.logger.Warn("ping-error", zap.Error(err))
			}
		}
	}
}

// reconnectLoop redials when the connection drops.
func (c *Client) reconnectLoop() {
	defer c.wg.Done()

	for {
		select {
		case <-c.ctx.Done():
			return
		default:
		}

		if c.connected.Load() {
			time.Sleep(time.Second)
			continue
		}

		c.logger.Warn("connection-lost-initiating-reconnect")

		err := c.backoff.Reconnect(c.ctx, c.connect)
		if err != nil {
			if err == context.Canceled {
				return
			}
			c.logger.Error("reconnection-failed", zap.Error(err))
			continue
		}

		err = c.resubscribeAll(c.ctx)
		if err != nil {
			c.logger.Error("resubscribe-failed", zap.Error(err))
			c.connected.Store(false)
			continue
		}

		c.logger.Info("reconnection-complete-restarting-read-loop")

		c.wg.Add(1)
		go c.readLoop()
	}
}

// resubscribeAll restores every subscription after a reconnect.
func (c *Client) resubscribeAll(ctx context.Context) error {
	c.mu.RLock()
	symbols := make([]string, 0, len(c.subscribed))
	for symbol := range c.subscribed {
		symbols = append(symbols, symbol)
	}
	c.mu.RUnlock()

	if len(symbols) == 0 {
		return nil
	}

	subscribeMsg := map[string]interface{}{
		"op":      "subscribe",
		"channel": "book",
		"symbols": symbols,
	}

	c.mu.RLock()
	err := c.conn.WriteJSON(subscribeMsg)
	c.mu.RUnlock()

	if err != nil {
		return fmt.Errorf("write resubscribe message: %w", err)
	}

	c.logger.Info("resubscribed-to-all-symbols", zap.Int("count", len(symbols)))

	return nil
}

// MessageChan returns the channel of parsed book messages.
func (c *Client) MessageChan() <-chan *types.BookMessage {
	return c.messageChan
}

// Close shuts the feed client down.
func (c *Client) Close() error {
	c.logger.Info("closing-feed-client")

	c.cancel()

	c.mu.RLock()
	if c.conn != nil {
		c.conn.Close()
	}
	c.mu.RUnlock()

	c.wg.Wait()

	close(c.messageChan)

	ActiveConnections.Set(0)

	c.logger.Info("feed-client-closed")

	return nil
}
