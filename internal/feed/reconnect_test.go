package feed

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
)

func newTestBackoff() *Backoff {
	return NewBackoff(BackoffConfig{
		InitialDelay:      10 * time.Millisecond,
		MaxDelay:          80 * time.Millisecond,
		BackoffMultiplier: 2.0,
		JitterPercent:     0.2,
	}, zap.NewNop())
}

func TestBackoff_InitialDelay(t *testing.T) {
	b := newTestBackoff()

	delay := b.nextDelay()
	min := 10 * time.Millisecond
	max := 12 * time.Millisecond // initial * (1 + 20% jitter)
	if delay < min || delay > max {
		t.Errorf("expected delay in [%s, %s], got %s", min, max, delay)
	}
}

func TestBackoff_ExponentialGrowthAndCap(t *testing.T) {
	b := newTestBackoff()

	b.incrementDelay() // 20ms
	b.incrementDelay() // 40ms
	if b.currentDelay != 40*time.Millisecond {
		t.Errorf("expected 40ms after two increments, got %s", b.currentDelay)
	}

	b.incrementDelay() // 80ms
	b.incrementDelay() // capped
	if b.currentDelay != 80*time.Millisecond {
		t.Errorf("expected cap at 80ms, got %s", b.currentDelay)
	}
}

func TestBackoff_Reset(t *testing.T) {
	b := newTestBackoff()

	b.incrementDelay()
	b.incrementDelay()
	b.Reset()

	if b.currentDelay != 10*time.Millisecond {
		t.Errorf("expected reset to initial delay, got %s", b.currentDelay)
	}
}

func TestBackoff_ReconnectRetriesUntilSuccess(t *testing.T) {
	b := newTestBackoff()

	attempts := 0
	err := b.Reconnect(context.Background(), func(context.Context) error {
		attempts++
		if attempts < 3 {
			return errors.New("still down")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Reconnect: %v", err)
	}
	if attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts)
	}

	// Success resets the delay for the next outage.
	if b.currentDelay != 10*time.Millisecond {
		t.Errorf("expected delay reset on success, got %s", b.currentDelay)
	}
}

func TestBackoff_ReconnectStopsOnContextCancel(t *testing.T) {
	b := newTestBackoff()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- b.Reconnect(ctx, func(context.Context) error {
			return errors.New("never up")
		})
	}()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Reconnect did not stop on cancel")
	}
}
