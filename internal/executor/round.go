package executor

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/mselser95/crossarb/internal/settlement"
	"github.com/mselser95/crossarb/pkg/types"
)

// TakerLeg is one hedge order within a round, retried independently until
// it completes or exhausts its trials. TrialCount only ever increases and
// Completed is set at most once; a leg with no OrderID has never been
// accepted by the venue.
type TakerLeg struct {
	Market       types.MarketPair
	Side         types.Side
	TargetAmount decimal.Decimal

	OrderID     string
	SubmittedAt time.Time // zero until the first submission attempt
	TrialCount  int
	Fills       []types.Fill
	Completed   *types.OrderEvent
}

// IsComplete reports whether the leg has its terminal completion event.
func (l *TakerLeg) IsComplete() bool {
	return l.Completed != nil
}

// FilledAmount sums the recorded fills.
func (l *TakerLeg) FilledAmount() decimal.Decimal {
	var total decimal.Decimal
	for _, f := range l.Fills {
		total = total.Add(f.Amount)
	}
	return total
}

// RemainingAmount is what a (re)submission still has to cover.
func (l *TakerLeg) RemainingAmount() decimal.Decimal {
	remaining := l.TargetAmount.Sub(l.FilledAmount())
	if remaining.Sign() < 0 {
		return decimal.Zero
	}
	return remaining
}

// VWAP returns the volume-weighted average fill price of the leg.
func (l *TakerLeg) VWAP() (decimal.Decimal, error) {
	return settlement.VWAP(l.Fills)
}

// dueForSubmit reports whether the leg may be (re)submitted: never
// submitted, or the retry delay has elapsed since the last attempt.
func (l *TakerLeg) dueForSubmit(now time.Time, retryDelay time.Duration) bool {
	if l.SubmittedAt.IsZero() {
		return true
	}
	return now.Sub(l.SubmittedAt) >= retryDelay
}

// HedgeRound is the unit of hedging work spawned by one maker fill. Rounds
// are mutated only by the executor that owns them.
type HedgeRound struct {
	ID         string
	MakerSide  types.Side
	SourceFill types.Fill
	Legs       []*TakerLeg
	CreatedAt  time.Time
}

// IsComplete reports whether every leg has completed. Once true it stays
// true: fills and completion events are never un-recorded.
func (r *HedgeRound) IsComplete() bool {
	for _, leg := range r.Legs {
		if !leg.IsComplete() {
			return false
		}
	}
	return true
}

// IsFailed reports whether any leg has exceeded the trial ceiling.
func (r *HedgeRound) IsFailed(maxRetries int) bool {
	for _, leg := range r.Legs {
		if leg.TrialCount > maxRetries {
			return true
		}
	}
	return false
}

// legByOrderID finds the leg currently bound to the given venue order.
func (r *HedgeRound) legByOrderID(orderID string) *TakerLeg {
	if orderID == "" {
		return nil
	}
	for _, leg := range r.Legs {
		if leg.OrderID == orderID {
			return leg
		}
	}
	return nil
}
