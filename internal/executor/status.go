package executor

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/mselser95/crossarb/pkg/types"
)

// MakerOrderStatus describes one resting maker order.
type MakerOrderStatus struct {
	OrderID         string          `json:"order_id"`
	Side            types.Side      `json:"side"`
	Price           decimal.Decimal `json:"price"`
	Amount          decimal.Decimal `json:"amount"`
	AgeSeconds      float64         `json:"age_seconds"`
	CancelRequested bool            `json:"cancel_requested"`
}

// LegStatus describes one taker leg of an active round.
type LegStatus struct {
	Market     string          `json:"market"`
	Side       types.Side      `json:"side"`
	Target     decimal.Decimal `json:"target"`
	Filled     decimal.Decimal `json:"filled"`
	TrialCount int             `json:"trial_count"`
	Complete   bool            `json:"complete"`
}

// RoundStatus describes one active hedge round.
type RoundStatus struct {
	ID          string          `json:"id"`
	MakerSide   types.Side      `json:"maker_side"`
	MakerPrice  decimal.Decimal `json:"maker_price"`
	MakerAmount decimal.Decimal `json:"maker_amount"`
	Legs        []LegStatus     `json:"legs"`
	CreatedAt   time.Time       `json:"created_at"`
}

// Status is a point-in-time snapshot of the executor, served over the
// status endpoint.
type Status struct {
	State               string             `json:"state"`
	CloseType           string             `json:"close_type,omitempty"`
	MakerMarket         string             `json:"maker_market"`
	TakerMarkets        []string           `json:"taker_markets"`
	MakerOrders         []MakerOrderStatus `json:"maker_orders"`
	ActiveRounds        []RoundStatus      `json:"active_rounds"`
	SettledRounds       int                `json:"settled_rounds"`
	NetPnLPct           decimal.Decimal    `json:"net_pnl_pct"`
	NetPnLQuote         decimal.Decimal    `json:"net_pnl_quote"`
	CumulativeFeesQuote decimal.Decimal    `json:"cumulative_fees_quote"`
}

// Status snapshots the executor under its lock.
func (e *Executor) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.clock()

	st := Status{
		State:       e.state.String(),
		CloseType:   e.closeType,
		MakerMarket: e.cfg.MakerMarket.Symbol(),
	}
	for _, m := range e.cfg.TakerMarkets {
		st.TakerMarkets = append(st.TakerMarkets, m.Symbol())
	}

	for side, order := range e.makerOrders {
		st.MakerOrders = append(st.MakerOrders, MakerOrderStatus{
			OrderID:         order.ID,
			Side:            side,
			Price:           order.Price,
			Amount:          order.Amount,
			AgeSeconds:      order.Age(now).Seconds(),
			CancelRequested: e.cancelRequested[order.ID],
		})
	}

	for _, round := range e.rounds {
		rs := RoundStatus{
			ID:          round.ID,
			MakerSide:   round.MakerSide,
			MakerPrice:  round.SourceFill.Price,
			MakerAmount: round.SourceFill.Amount,
			CreatedAt:   round.CreatedAt,
		}
		for _, leg := range round.Legs {
			rs.Legs = append(rs.Legs, LegStatus{
				Market:     leg.Market.Symbol(),
				Side:       leg.Side,
				Target:     leg.TargetAmount,
				Filled:     leg.FilledAmount(),
				TrialCount: leg.TrialCount,
				Complete:   leg.IsComplete(),
			})
		}
		st.ActiveRounds = append(st.ActiveRounds, rs)
	}

	st.SettledRounds = len(e.settled)
	st.NetPnLPct = e.netPnLPctLocked()
	st.NetPnLQuote = e.netPnLQuoteLocked()
	st.CumulativeFeesQuote = e.cumulativeFeesLocked()
	return st
}

// netPnLPctLocked is the notional-weighted average PnL across settled
// rounds. Caller holds mu.
func (e *Executor) netPnLPctLocked() decimal.Decimal {
	var weighted, totalNotional decimal.Decimal
	for _, r := range e.settled {
		notional := r.MakerNotional()
		weighted = weighted.Add(r.PnLPct.Mul(notional))
		totalNotional = totalNotional.Add(notional)
	}
	if totalNotional.Sign() == 0 {
		return decimal.Zero
	}
	return weighted.Div(totalNotional)
}

func (e *Executor) netPnLQuoteLocked() decimal.Decimal {
	var total decimal.Decimal
	for _, r := range e.settled {
		total = total.Add(r.PnLQuote)
	}
	return total
}

func (e *Executor) cumulativeFeesLocked() decimal.Decimal {
	var total decimal.Decimal
	for _, r := range e.settled {
		total = total.Add(r.FeesQuote)
	}
	return total
}

// NetPnLPct is the notional-weighted average PnL percentage over all
// settled rounds.
func (e *Executor) NetPnLPct() decimal.Decimal {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.netPnLPctLocked()
}

// NetPnLQuote is the total realized PnL in maker quote units.
func (e *Executor) NetPnLQuote() decimal.Decimal {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.netPnLQuoteLocked()
}

// CumulativeFeesQuote is the total estimated fees paid in quote units.
func (e *Executor) CumulativeFeesQuote() decimal.Decimal {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cumulativeFeesLocked()
}
