package connector

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// OrdersFilledTotal tracks simulated fills by side.
	OrdersFilledTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crossarb_connector_orders_filled_total",
			Help: "Total number of orders filled by the connector",
		},
		[]string{"side"},
	)

	// OrdersRejectedTotal tracks order rejections by reason code.
	OrdersRejectedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crossarb_connector_orders_rejected_total",
			Help: "Total number of orders rejected by the connector",
		},
		[]string{"reason"},
	)

	// EventsDroppedTotal tracks lifecycle events dropped on a full channel.
	EventsDroppedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "crossarb_connector_events_dropped_total",
		Help: "Total number of order events dropped",
	})
)
