package executor

import (
	"context"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mselser95/crossarb/pkg/types"
)

// makerCycle keeps one maker order per configured side correctly quoted:
// it cancels orders that drifted out of the profitability band or grew too
// old, and posts fresh ones where none rest. Caller holds mu.
func (e *Executor) makerCycle(ctx context.Context) {
	for _, side := range e.cfg.MakerSides {
		if order, ok := e.makerOrders[side]; ok {
			e.maybeCancel(ctx, side, order)
			continue
		}
		e.ensurePosted(ctx, side)
	}
}

// maybeCancel cancels the live maker order when its priced-in
// profitability has left [target-range, target+range] -- above the band as
// well as below it, a too-good quote usually means the books moved -- or
// when the order has exceeded the maximum age. The handle stays in place
// until the cancel confirmation event arrives.
func (e *Executor) maybeCancel(ctx context.Context, side types.Side, order *types.TrackedOrder) {
	if e.cancelRequested[order.ID] {
		return
	}

	now := e.clock()
	reason := ""

	if order.Age(now) > e.cfg.MaxOrderAge {
		reason = "max_order_age"
	} else {
		prof, err := e.cfg.Calculator.Profitability(ctx, side, order.Price, order.Amount)
		if err != nil {
			e.logger.Warn("maker-profitability-check-failed",
				zap.String("order-id", order.ID),
				zap.Error(err))
			return
		}

		drift := prof.Sub(e.cfg.TargetProfitabilityPct).Abs()
		if drift.GreaterThan(e.cfg.ProfitabilityRangePct) {
			reason = "profitability_band"
		}
	}

	if reason == "" {
		return
	}

	err := e.cfg.Connector.CancelOrder(ctx, e.cfg.MakerMarket, order.ID)
	if err != nil {
		e.logger.Warn("maker-cancel-failed",
			zap.String("order-id", order.ID),
			zap.Error(err))
		return
	}

	e.cancelRequested[order.ID] = true
	MakerCancelsTotal.WithLabelValues(reason).Inc()
	e.logger.Info("maker-order-cancel-requested",
		zap.String("order-id", order.ID),
		zap.String("side", string(side)),
		zap.String("reason", reason))
}

// ensurePosted submits a maker order for `side` if none is live. The
// amount is quantized to the coarsest lot across the maker and all taker
// markets so a resulting hedge is always fully executable, then shrunk to
// budget. A zero-adjusted amount is a logged no-op, retried naturally on
// the next cycle.
func (e *Executor) ensurePosted(ctx context.Context, side types.Side) {
	if e.cfg.Breaker != nil && !e.cfg.Breaker.Allow() {
		e.logger.Debug("maker-posting-gated", zap.String("side", string(side)))
		return
	}

	amount, err := e.executableAmount(ctx, e.cfg.OrderAmount)
	if err != nil {
		e.logger.Warn("maker-amount-quantize-failed", zap.Error(err))
		return
	}
	if amount.Sign() <= 0 {
		e.logger.Debug("maker-amount-quantized-to-zero",
			zap.String("requested", e.cfg.OrderAmount.String()))
		return
	}

	price, err := e.cfg.Calculator.TargetMakerPrice(ctx, side, amount, e.cfg.TargetProfitabilityPct)
	if err != nil {
		e.logger.Warn("maker-target-price-failed",
			zap.String("side", string(side)),
			zap.Error(err))
		return
	}

	candidate := types.OrderCandidate{
		Market: e.cfg.MakerMarket,
		Side:   side,
		Type:   types.OrderTypeLimit,
		Amount: amount,
		Price:  price,
	}

	candidate, err = e.cfg.Connector.AdjustCandidateToBudget(ctx, candidate, false)
	if err != nil {
		e.logger.Warn("maker-budget-adjust-failed", zap.Error(err))
		return
	}
	if candidate.Amount.Sign() <= 0 {
		e.logger.Info("maker-order-skipped-insufficient-budget",
			zap.String("side", string(side)),
			zap.String("price", price.String()))
		return
	}

	orderID, err := e.cfg.Connector.PlaceOrder(ctx, candidate)
	if err != nil {
		e.logger.Warn("maker-order-submit-failed",
			zap.String("side", string(side)),
			zap.Error(err))
		return
	}

	e.makerOrders[side] = &types.TrackedOrder{
		ID:        orderID,
		Market:    candidate.Market,
		Side:      side,
		Type:      types.OrderTypeLimit,
		Price:     candidate.Price,
		Amount:    candidate.Amount,
		CreatedAt: e.clock(),
	}

	MakerOrdersPostedTotal.WithLabelValues(string(side)).Inc()
	e.logger.Info("maker-order-posted",
		zap.String("order-id", orderID),
		zap.String("side", string(side)),
		zap.String("price", candidate.Price.String()),
		zap.String("amount", candidate.Amount.String()))
}

// executableAmount quantizes an amount on the maker market and every taker
// market and returns the minimum, so any hedge spawned by a fill is
// representable everywhere.
func (e *Executor) executableAmount(ctx context.Context, amount decimal.Decimal) (decimal.Decimal, error) {
	minAmount, err := e.cfg.Connector.QuantizeOrderAmount(ctx, e.cfg.MakerMarket, amount)
	if err != nil {
		return decimal.Zero, err
	}

	for _, market := range e.cfg.TakerMarkets {
		q, err := e.cfg.Connector.QuantizeOrderAmount(ctx, market, amount)
		if err != nil {
			return decimal.Zero, err
		}
		if q.LessThan(minAmount) {
			minAmount = q
		}
	}

	return minAmount, nil
}
