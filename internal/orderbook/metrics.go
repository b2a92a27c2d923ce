package orderbook

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// UpdatesTotal tracks orderbook updates by event type.
	UpdatesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crossarb_orderbook_updates_total",
			Help: "Total number of orderbook updates",
		},
		[]string{"event_type"},
	)

	// BooksTracked tracks the number of depth books in memory.
	BooksTracked = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "crossarb_orderbook_books_tracked",
		Help: "Number of depth books tracked in memory",
	})

	// UpdateProcessingDuration tracks how long applying an update takes.
	UpdateProcessingDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "crossarb_orderbook_update_processing_seconds",
		Help:    "Duration of orderbook update processing",
		Buckets: prometheus.ExponentialBuckets(0.000001, 10, 8),
	})

	// UpdatesDroppedTotal tracks updates dropped because subscribers lag.
	UpdatesDroppedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "crossarb_orderbook_updates_dropped_total",
		Help: "Total number of orderbook ticker updates dropped",
	})
)
