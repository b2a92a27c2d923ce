package executor

import (
	"context"

	"go.uber.org/zap"

	"github.com/mselser95/crossarb/pkg/types"
)

// HandleOrderEvent routes a connector event to the maker lifecycle or the
// hedge state machine depending on which order it belongs to. Events for
// orders the executor does not track are logged and dropped.
func (e *Executor) HandleOrderEvent(ctx context.Context, ev types.OrderEvent) {
	e.mu.Lock()
	defer e.mu.Unlock()

	OrderEventsTotal.WithLabelValues(ev.Kind.String()).Inc()

	if side, order := e.makerOrderByID(ev.OrderID); order != nil {
		e.handleMakerEvent(ctx, side, order, ev)
		return
	}

	for _, round := range e.rounds {
		if leg := round.legByOrderID(ev.OrderID); leg != nil {
			e.handleLegEvent(round, leg, ev)
			return
		}
	}

	e.logger.Debug("order-event-for-unknown-order",
		zap.String("order-id", ev.OrderID),
		zap.String("kind", ev.Kind.String()))
}

func (e *Executor) makerOrderByID(orderID string) (types.Side, *types.TrackedOrder) {
	for side, order := range e.makerOrders {
		if order.ID == orderID {
			return side, order
		}
	}
	return "", nil
}

// handleMakerEvent advances the maker order lifecycle. Caller holds mu.
func (e *Executor) handleMakerEvent(ctx context.Context, side types.Side, order *types.TrackedOrder, ev types.OrderEvent) {
	switch ev.Kind {
	case types.OrderCreated:
		// Already tracked from the PlaceOrder return; nothing to update.

	case types.OrderFilled:
		MakerFillsTotal.WithLabelValues(string(side)).Inc()
		e.logger.Info("maker-order-filled",
			zap.String("order-id", ev.OrderID),
			zap.String("side", string(side)),
			zap.String("price", ev.Price.String()),
			zap.String("amount", ev.Amount.String()))
		e.openRound(ctx, side, types.Fill{Price: ev.Price, Amount: ev.Amount})

	case types.OrderCompleted:
		e.clearMakerOrder(side, order.ID)

	case types.OrderCancelled:
		e.logger.Info("maker-order-cancelled",
			zap.String("order-id", ev.OrderID),
			zap.String("side", string(side)),
			zap.String("reason", ev.Reason))
		e.clearMakerOrder(side, order.ID)

	case types.OrderFailed:
		e.logger.Warn("maker-order-failed",
			zap.String("order-id", ev.OrderID),
			zap.String("side", string(side)),
			zap.String("reason", ev.Reason))
		e.clearMakerOrder(side, order.ID)
	}
}

// clearMakerOrder releases the per-side maker slot so the next control
// cycle can post again. Caller holds mu.
func (e *Executor) clearMakerOrder(side types.Side, orderID string) {
	delete(e.makerOrders, side)
	delete(e.cancelRequested, orderID)
}

// handleLegEvent accumulates fills for a taker leg and marks it complete
// on the terminal summary. Caller holds mu.
func (e *Executor) handleLegEvent(round *HedgeRound, leg *TakerLeg, ev types.OrderEvent) {
	switch ev.Kind {
	case types.OrderCreated:
		// Submission already recorded.

	case types.OrderFilled:
		leg.Fills = append(leg.Fills, types.Fill{Price: ev.Price, Amount: ev.Amount})

	case types.OrderCompleted:
		// Some venues only send the terminal summary; reconstruct a
		// single fill from the totals so VWAP settlement still works.
		if len(leg.Fills) == 0 && ev.BaseTotal.Sign() > 0 {
			price := ev.QuoteTotal.Div(ev.BaseTotal)
			leg.Fills = append(leg.Fills, types.Fill{Price: price, Amount: ev.BaseTotal})
		}
		completed := ev
		leg.Completed = &completed
		LegFillsTotal.WithLabelValues(leg.Market.Symbol()).Inc()
		e.logger.Info("hedge-leg-completed",
			zap.String("round-id", round.ID),
			zap.String("order-id", ev.OrderID),
			zap.String("market", leg.Market.Symbol()),
			zap.String("filled", leg.FilledAmount().String()),
			zap.Int("trials", leg.TrialCount))

	case types.OrderCancelled, types.OrderFailed:
		// The order is gone without completing; clear the handle so the
		// next due cycle resubmits the remainder.
		e.logger.Warn("hedge-leg-order-lost",
			zap.String("round-id", round.ID),
			zap.String("order-id", ev.OrderID),
			zap.String("market", leg.Market.Symbol()),
			zap.String("kind", ev.Kind.String()),
			zap.String("reason", ev.Reason))
		leg.OrderID = ""
	}
}
