package executor

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ControlCycleDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "crossarb_executor_control_cycle_duration_seconds",
		Help:    "Duration of one executor control cycle",
		Buckets: prometheus.DefBuckets,
	})

	StateGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "crossarb_executor_state",
		Help: "Current executor run state (0=running, 1=hedging, 2=shutting_down)",
	})

	MakerOrdersPostedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "crossarb_executor_maker_orders_posted_total",
		Help: "Maker orders posted, by side",
	}, []string{"side"})

	MakerCancelsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "crossarb_executor_maker_cancels_total",
		Help: "Maker order cancellations requested, by reason",
	}, []string{"reason"})

	MakerFillsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "crossarb_executor_maker_fills_total",
		Help: "Maker fills that reached the executor, by side",
	}, []string{"side"})

	OrderEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "crossarb_executor_order_events_total",
		Help: "Connector order events processed, by kind",
	}, []string{"kind"})

	RoundsOpenedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "crossarb_executor_rounds_opened_total",
		Help: "Hedge rounds opened from maker fills",
	})

	RoundsSettledTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "crossarb_executor_rounds_settled_total",
		Help: "Hedge rounds settled",
	})

	RoundsFailedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "crossarb_executor_rounds_failed_total",
		Help: "Hedge rounds that exceeded the trial ceiling",
	})

	ActiveRoundsGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "crossarb_executor_active_rounds",
		Help: "Hedge rounds currently open",
	})

	LegSubmissionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "crossarb_executor_leg_submissions_total",
		Help: "Taker leg submission attempts, by market",
	}, []string{"market"})

	LegFillsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "crossarb_executor_leg_fills_total",
		Help: "Taker legs completed, by market",
	}, []string{"market"})

	// Gauge, not counter: per-round PnL can be negative.
	RealizedPnLQuote = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "crossarb_executor_realized_pnl_quote",
		Help: "Cumulative realized PnL in maker quote units",
	})
)
