package feed

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"
)

// BackoffConfig holds the configuration for exponential backoff
// reconnection.
type BackoffConfig struct {
	InitialDelay      time.Duration
	MaxDelay          time.Duration
	BackoffMultiplier float64
	JitterPercent     float64 // 0.2 = 20%
}

// Backoff retries a connect function with exponential backoff and jitter.
type Backoff struct {
	config       BackoffConfig
	logger       *zap.Logger
	currentDelay time.Duration
	mu           sync.Mutex
}

// NewBackoff creates a backoff helper with the specified config.
func NewBackoff(cfg BackoffConfig, logger *zap.Logger) *Backoff {
	return &Backoff{
		config:       cfg,
		logger:       logger,
		currentDelay: cfg.InitialDelay,
	}
}

// Reconnect attempts the connect function until it succeeds or the context
// is cancelled, backing off between attempts.
func (b *Backoff) Reconnect(ctx context.Context, connectFunc func(context.Context) error) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		delay := b.nextDelay()

		b.logger.Info("attempting-reconnection",
			zap.Duration("backoff", delay))

		ReconnectAttemptsTotal.Inc()

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}

		err := connectFunc(ctx)
		if err == nil {
			b.Reset()
			b.logger.Info("reconnection-successful")
			return nil
		}

		b.logger.Warn("reconnection-failed", zap.Error(err))
		ReconnectFailuresTotal.Inc()

		b.incrementDelay()
	}
}

// Reset resets the backoff to the initial delay.
func (b *Backoff) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.currentDelay = b.config.InitialDelay
}

// nextDelay returns the current delay with jitter applied.
func (b *Backoff) nextDelay() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()

	// delay * (1.0 + random(0, jitterPercent))
	jitter := rand.Float64() * b.config.JitterPercent
	delayFloat := float64(b.currentDelay) * (1.0 + jitter)

	return time.Duration(delayFloat)
}

// incrementDelay increases the delay by the multiplier, capped at MaxDelay.
func (b *Backoff) incrementDelay() {
	b.mu.Lock()
	defer b.mu.Unlock()

	newDelay := time.Duration(float64(b.currentDelay) * b.config.BackoffMultiplier)

	if newDelay > b.config.MaxDelay {
		b.currentDelay = b.config.MaxDelay
	} else {
		b.currentDelay = newDelay
	}
}
