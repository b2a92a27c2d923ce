package executor

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mselser95/crossarb/internal/pricing"
	"github.com/mselser95/crossarb/internal/settlement"
	"github.com/mselser95/crossarb/pkg/types"
)

// hedgeCycle evaluates the hedge state machine for one control cycle.
// Caller holds mu. Evaluation order matters:
//
//  1. The trial-ceiling check runs first and is fatal for the whole
//     executor; partial hedges are not unwound.
//  2. Any pending round resets the completion countdown.
//  3. Incomplete legs past their retry delay are (re)submitted.
//  4. Once every round is complete and the quiet window elapses, the batch
//     settles and the executor leaves hedging mode.
func (e *Executor) hedgeCycle(ctx context.Context) {
	now := e.clock()

	for _, round := range e.rounds {
		if round.IsFailed(e.cfg.MaxRetries) {
			e.failLocked(ctx, round)
			return
		}
	}

	anyPending := false
	for _, round := range e.rounds {
		if !round.IsComplete() {
			anyPending = true
			break
		}
	}

	if anyPending {
		e.completionDeadline = time.Time{}
		for _, round := range e.rounds {
			if round.IsComplete() {
				continue
			}
			for _, leg := range round.Legs {
				if leg.IsComplete() || !leg.dueForSubmit(now, e.cfg.RetryDelay) {
					continue
				}
				e.submitLeg(ctx, round, leg)
			}
		}
		return
	}

	if e.completionDeadline.IsZero() {
		e.completionDeadline = now.Add(e.cfg.CompletionWait)
		e.logger.Info("hedge-rounds-complete-waiting",
			zap.Int("rounds", len(e.rounds)),
			zap.Duration("completion-wait", e.cfg.CompletionWait))
		return
	}

	if now.Before(e.completionDeadline) {
		return
	}

	e.settleRoundsLocked(ctx)
}

// submitLeg (re)submits one taker leg. Every attempt consumes a trial,
// whether or not the venue accepts it, and re-quotes the book so a stale
// price is never reused across retries.
func (e *Executor) submitLeg(ctx context.Context, round *HedgeRound, leg *TakerLeg) {
	now := e.clock()
	leg.TrialCount++
	leg.SubmittedAt = now
	LegSubmissionsTotal.WithLabelValues(leg.Market.Symbol()).Inc()

	remaining := leg.RemainingAmount()
	if remaining.Sign() <= 0 {
		// Fully filled but the completion summary has not arrived yet;
		// nothing to submit.
		return
	}

	quoted, err := e.cfg.Connector.Quote(ctx, leg.Market, leg.Side, remaining)
	if err != nil {
		e.logger.Warn("hedge-leg-quote-failed",
			zap.String("round-id", round.ID),
			zap.String("market", leg.Market.Symbol()),
			zap.Int("trial", leg.TrialCount),
			zap.Error(err))
		return
	}

	orderID, err := e.cfg.Connector.PlaceOrder(ctx, types.OrderCandidate{
		Market: leg.Market,
		Side:   leg.Side,
		Type:   types.OrderTypeMarket,
		Amount: remaining,
	})
	if err != nil {
		e.logger.Warn("hedge-leg-submit-rejected",
			zap.String("round-id", round.ID),
			zap.String("market", leg.Market.Symbol()),
			zap.Int("trial", leg.TrialCount),
			zap.Error(err))
		return
	}

	leg.OrderID = orderID
	e.logger.Info("hedge-leg-submitted",
		zap.String("round-id", round.ID),
		zap.String("order-id", orderID),
		zap.String("market", leg.Market.Symbol()),
		zap.String("side", string(leg.Side)),
		zap.String("amount", remaining.String()),
		zap.String("quoted-price", quoted.String()),
		zap.Int("trial", leg.TrialCount))
}

// failLocked handles an over-retried round: the whole executor halts.
// Caller holds mu.
func (e *Executor) failLocked(ctx context.Context, round *HedgeRound) {
	RoundsFailedTotal.Inc()
	e.logger.Error("hedge-round-failed",
		zap.String("round-id", round.ID),
		zap.Int("max-retries", e.cfg.MaxRetries),
		zap.Int("active-rounds", len(e.rounds)))

	e.transitionLocked(StateShuttingDown, CloseTypeFailed)
	e.drainCycle(ctx)
}

// openRound spawns a hedge round for a qualifying maker fill. Fills whose
// notional is below the minimum are dust and spawn nothing. Caller holds
// mu.
func (e *Executor) openRound(ctx context.Context, makerSide types.Side, fill types.Fill) {
	if e.state == StateShuttingDown {
		// No cycle will ever process a round opened now; the fill stays
		// unhedged and is only reported.
		e.logger.Warn("maker-fill-during-shutdown-unhedged",
			zap.String("side", string(makerSide)),
			zap.String("price", fill.Price.String()),
			zap.String("amount", fill.Amount.String()))
		return
	}

	refPrice := e.referencePrice(ctx, fill.Price)
	notional := fill.Amount.Mul(refPrice)
	if e.cfg.MinHedgeNotional.Sign() > 0 && notional.LessThan(e.cfg.MinHedgeNotional) {
		e.logger.Info("maker-fill-below-min-notional-ignored",
			zap.String("amount", fill.Amount.String()),
			zap.String("notional", notional.String()),
			zap.String("min-notional", e.cfg.MinHedgeNotional.String()))
		return
	}

	round := &HedgeRound{
		ID:         uuid.NewString(),
		MakerSide:  makerSide,
		SourceFill: fill,
		CreatedAt:  e.clock(),
	}

	sides := e.cfg.Calculator.LegSides(makerSide)
	for i, market := range e.cfg.TakerMarkets {
		round.Legs = append(round.Legs, &TakerLeg{
			Market:       market,
			Side:         sides[i],
			TargetAmount: e.legTargetAmount(ctx, i, makerSide, fill),
		})
	}

	e.rounds = append(e.rounds, round)
	e.completionDeadline = time.Time{}
	RoundsOpenedTotal.Inc()
	ActiveRoundsGauge.Set(float64(len(e.rounds)))

	e.logger.Info("hedge-round-opened",
		zap.String("round-id", round.ID),
		zap.String("maker-side", string(makerSide)),
		zap.String("fill-price", fill.Price.String()),
		zap.String("fill-amount", fill.Amount.String()),
		zap.Int("legs", len(round.Legs)))

	if e.state == StateRunning {
		e.transitionLocked(StateHedging, "")
		// Stop quoting while hedging.
		for _, order := range e.makerOrders {
			if e.cancelRequested[order.ID] {
				continue
			}
			if err := e.cfg.Connector.CancelOrder(ctx, e.cfg.MakerMarket, order.ID); err == nil {
				e.cancelRequested[order.ID] = true
			}
		}
	}

	if e.cfg.Breaker != nil {
		f, _ := notional.Float64()
		e.cfg.Breaker.RecordTrade(f)
	}
}

// legTargetAmount sizes leg i for a maker fill. The first leg mirrors the
// maker base amount. In divide mode the second leg re-trades the maker
// quote currency, so it targets the fill's quote proceeds; in multiply
// mode it passes through the intermediate currency, sized from a fresh
// first-leg quote.
func (e *Executor) legTargetAmount(ctx context.Context, i int, makerSide types.Side, fill types.Fill) decimal.Decimal {
	if i == 0 {
		return fill.Amount
	}

	if e.cfg.Calculator.Mode() == pricing.CombineDivide {
		return fill.Amount.Mul(fill.Price)
	}

	leg1 := e.cfg.TakerMarkets[0]
	sides := e.cfg.Calculator.LegSides(makerSide)
	p1, err := e.cfg.Connector.Quote(ctx, leg1, sides[0], fill.Amount)
	if err != nil {
		if p1, err = e.cfg.Connector.GetPrice(ctx, leg1, types.PriceTypeMid); err != nil {
			e.logger.Warn("leg2-sizing-quote-failed", zap.Error(err))
			return fill.Amount.Mul(fill.Price)
		}
	}
	return fill.Amount.Mul(p1)
}

// settleRoundsLocked computes realized PnL for the completed batch, stores
// each round, and leaves hedging mode. Caller holds mu.
func (e *Executor) settleRoundsLocked(ctx context.Context) {
	now := e.clock()
	// The reporting currency is fixed to the maker quote, so the maker
	// notional converts with a factor of one. A different reporting
	// currency would need a cross rate here.
	refPrice := decimal.NewFromInt(1)

	for _, round := range e.rounds {
		record, err := e.settleRound(round, refPrice, now)
		if err != nil {
			e.logger.Error("round-settlement-failed",
				zap.String("round-id", round.ID),
				zap.Error(err))
			continue
		}

		e.settled = append(e.settled, record)
		RoundsSettledTotal.Inc()
		pnl, _ := record.PnLQuote.Float64()
		RealizedPnLQuote.Add(pnl)

		e.logger.Info("hedge-round-settled",
			zap.String("round-id", record.ID),
			zap.String("pnl-pct", record.PnLPct.String()),
			zap.String("pnl-quote", record.PnLQuote.String()),
			zap.String("fees-quote", record.FeesQuote.String()))

		if e.cfg.Storage != nil {
			if err := e.cfg.Storage.StoreRound(ctx, record); err != nil {
				e.logger.Error("round-store-failed",
					zap.String("round-id", record.ID),
					zap.Error(err))
			}
		}
	}

	e.rounds = nil
	e.completionDeadline = time.Time{}
	ActiveRoundsGauge.Set(0)

	if e.cfg.OneShot {
		e.transitionLocked(StateShuttingDown, CloseTypeCompleted)
		e.drainCycle(ctx)
		return
	}
	e.transitionLocked(StateRunning, "")
}

// settleRound produces the settled record for one complete round.
func (e *Executor) settleRound(round *HedgeRound, refPrice decimal.Decimal, now time.Time) (*RoundRecord, error) {
	legVWAPs := make([]decimal.Decimal, 0, len(round.Legs))
	legRecords := make([]LegRecord, 0, len(round.Legs))
	legNotionals := make([]decimal.Decimal, 0, len(round.Legs))

	for _, leg := range round.Legs {
		vwap, err := leg.VWAP()
		if err != nil {
			return nil, err
		}
		amount := leg.FilledAmount()

		legVWAPs = append(legVWAPs, vwap)
		legNotionals = append(legNotionals, vwap.Mul(amount))
		legRecords = append(legRecords, LegRecord{
			Market: leg.Market.Symbol(),
			Side:   leg.Side,
			VWAP:   vwap,
			Amount: amount,
		})
	}

	pnlPct, err := settlement.RoundPnLPct(
		round.MakerSide,
		round.SourceFill.Price,
		legVWAPs,
		e.cfg.Calculator.Mode(),
		e.cfg.TotalFeePct(),
	)
	if err != nil {
		return nil, err
	}

	makerNotional := round.SourceFill.Price.Mul(round.SourceFill.Amount)

	return &RoundRecord{
		ID:          round.ID,
		MakerMarket: e.cfg.MakerMarket.Symbol(),
		MakerSide:   round.MakerSide,
		MakerPrice:  round.SourceFill.Price,
		MakerAmount: round.SourceFill.Amount,
		Legs:        legRecords,
		PnLPct:      pnlPct,
		PnLQuote:    settlement.PnLQuote(pnlPct, makerNotional, refPrice),
		FeesQuote:   settlement.FeesQuote(e.cfg.MakerFeePct, e.cfg.TakerFeePct, makerNotional, legNotionals),
		CreatedAt:   round.CreatedAt,
		SettledAt:   now,
	}, nil
}
