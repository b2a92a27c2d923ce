// Package executor coordinates multi-leg arbitrage execution: it keeps a
// resting maker order correctly quoted, and when the maker fills it runs a
// hedge state machine that drives one or more taker legs to completion,
// retrying each independently, before settling realized PnL.
package executor

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mselser95/crossarb/pkg/types"
)

// RunState is the executor lifecycle state.
type RunState int

const (
	// StateRunning is maker-quoting mode.
	StateRunning RunState = iota

	// StateHedging means at least one hedge round is active.
	StateHedging

	// StateShuttingDown is terminal: no order activity except drain.
	StateShuttingDown
)

func (s RunState) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateHedging:
		return "hedging"
	case StateShuttingDown:
		return "shutting_down"
	default:
		return "unknown"
	}
}

// Close types surfaced in the status snapshot.
const (
	CloseTypeCompleted = "completed"
	CloseTypeFailed    = "failed"
	CloseTypeEarlyStop = "early_stop"
)

// Executor owns one maker market and its hedge rounds exclusively. All
// state is guarded by mu so host-delivered events may arrive from another
// goroutine; within the Run loop, cycles and events are already serialized.
type Executor struct {
	cfg    Config
	logger *zap.Logger
	clock  func() time.Time

	mu                 sync.Mutex
	state              RunState
	closeType          string
	makerOrders        map[types.Side]*types.TrackedOrder
	cancelRequested    map[string]bool
	rounds             []*HedgeRound
	completionDeadline time.Time
	settled            []*RoundRecord
	drained            bool
}

// New creates an executor from a validated configuration.
func New(cfg Config) (*Executor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &Executor{
		cfg:             cfg,
		logger:          cfg.Logger,
		clock:           time.Now,
		state:           StateRunning,
		makerOrders:     make(map[types.Side]*types.TrackedOrder),
		cancelRequested: make(map[string]bool),
	}, nil
}

// Run drives the executor until the context is cancelled or the executor
// has shut down and drained. Control cycles and connector events are
// processed in one goroutine, matching the single-threaded cooperative
// scheduling the state machine assumes.
func (e *Executor) Run(ctx context.Context) error {
	e.logger.Info("executor-starting",
		zap.String("maker-market", e.cfg.MakerMarket.Symbol()),
		zap.Int("taker-legs", len(e.cfg.TakerMarkets)),
		zap.String("order-amount", e.cfg.OrderAmount.String()),
		zap.String("target-profitability-pct", e.cfg.TargetProfitabilityPct.String()))

	ticker := time.NewTicker(e.cfg.Interval)
	defer ticker.Stop()

	events := e.cfg.Connector.Events()

	for {
		select {
		case <-ctx.Done():
			e.logger.Info("executor-stopping", zap.Error(ctx.Err()))
			return ctx.Err()

		case ev, ok := <-events:
			if !ok {
				e.logger.Info("event-channel-closed")
				return nil
			}
			e.HandleOrderEvent(ctx, ev)

		case <-ticker.C:
			e.ControlTask(ctx)
			if e.isDrained() {
				e.logger.Info("executor-finished", zap.String("close-type", e.CloseType()))
				return nil
			}
		}
	}
}

// ControlTask runs one control cycle. The host may also call this
// directly instead of using Run.
func (e *Executor) ControlTask(ctx context.Context) {
	start := time.Now()
	defer func() {
		ControlCycleDuration.Observe(time.Since(start).Seconds())
	}()

	e.mu.Lock()
	defer e.mu.Unlock()

	switch e.state {
	case StateRunning:
		e.makerCycle(ctx)
	case StateHedging:
		e.hedgeCycle(ctx)
	case StateShuttingDown:
		e.drainCycle(ctx)
	}
}

// EarlyStop forces SHUTTING_DOWN regardless of in-flight rounds.
func (e *Executor) EarlyStop() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state == StateShuttingDown {
		return
	}

	e.logger.Warn("executor-early-stop",
		zap.Int("active-rounds", len(e.rounds)))
	e.transitionLocked(StateShuttingDown, CloseTypeEarlyStop)
}

// State returns the current run state.
func (e *Executor) State() RunState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// CloseType returns why the executor stopped, empty while it runs.
func (e *Executor) CloseType() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.closeType
}

func (e *Executor) isDrained() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.drained
}

// transitionLocked changes state and records the close type for terminal
// transitions. Caller holds mu.
func (e *Executor) transitionLocked(next RunState, closeType string) {
	if e.state == next {
		return
	}

	e.logger.Info("executor-state-transition",
		zap.String("from", e.state.String()),
		zap.String("to", next.String()))

	e.state = next
	if closeType != "" && e.closeType == "" {
		e.closeType = closeType
	}
	StateGauge.Set(float64(next))
}

// drainCycle cancels any still-live maker orders and marks the executor
// drained once nothing is left to clean up.
func (e *Executor) drainCycle(ctx context.Context) {
	for side, order := range e.makerOrders {
		if e.cancelRequested[order.ID] {
			continue
		}

		err := e.cfg.Connector.CancelOrder(ctx, e.cfg.MakerMarket, order.ID)
		if err != nil {
			// The venue no longer knows the order; drop the handle.
			e.logger.Warn("drain-cancel-failed",
				zap.String("order-id", order.ID),
				zap.Error(err))
			delete(e.makerOrders, side)
			continue
		}
		e.cancelRequested[order.ID] = true
	}

	if len(e.makerOrders) == 0 {
		e.drained = true
	}
}

// referencePrice converts maker base units to quote units for thresholds
// and reporting: the configured reference book price first, falling back
// to the given price.
func (e *Executor) referencePrice(ctx context.Context, fallback decimal.Decimal) decimal.Decimal {
	ref, err := e.cfg.Connector.GetPrice(ctx, e.cfg.MakerMarket, e.cfg.ReferencePriceType)
	if err != nil || ref.Sign() == 0 {
		return fallback
	}
	return ref
}
