package feed

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ActiveConnections tracks active feed connections.
	ActiveConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "crossarb_feed_active_connections",
		Help: "Number of active feed WebSocket connections",
	})

	// ReconnectAttemptsTotal tracks reconnection attempts.
	ReconnectAttemptsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "crossarb_feed_reconnect_attempts_total",
		Help: "Total number of feed reconnection attempts",
	})

	// ReconnectFailuresTotal tracks reconnection failures.
	ReconnectFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "crossarb_feed_reconnect_failures_total",
		Help: "Total number of feed reconnection failures",
	})

	// MessagesReceivedTotal tracks messages received by type.
	MessagesReceivedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crossarb_feed_messages_received_total",
			Help: "Total number of feed messages received",
		},
		[]string{"event_type"},
	)

	// MessageLatencySeconds tracks message processing latency.
	MessageLatencySeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "crossarb_feed_message_latency_seconds",
		Help:    "Feed message processing latency",
		Buckets: prometheus.DefBuckets,
	})

	// SubscriptionCount tracks active symbol subscriptions.
	SubscriptionCount = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "crossarb_feed_subscription_count",
		Help: "Number of active symbol subscriptions",
	})

	// MessagesDroppedTotal tracks messages dropped due to full channel.
	MessagesDroppedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crossarb_feed_messages_dropped_total",
			Help: "Total number of feed messages dropped due to channel full",
		},
		[]string{"reason"},
	)

	// ConnectionDuration tracks feed connection lifetime.
	ConnectionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "crossarb_feed_connection_duration_seconds",
		Help:    "Duration of feed connections before disconnect",
		Buckets: []float64{60, 300, 600, 1800, 3600, 7200, 14400, 28800, 43200, 86400},
	})

	// UnsubscriptionsTotal tracks symbol unsubscriptions.
	UnsubscriptionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "crossarb_feed_unsubscriptions_total",
		Help: "Total number of symbol unsubscriptions",
	})
)
