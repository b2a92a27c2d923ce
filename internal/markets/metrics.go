package markets

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RulesFetchDuration tracks rules API fetch latency.
	RulesFetchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "crossarb_markets_rules_fetch_duration_seconds",
		Help:    "Duration of trading-rules fetch from the venue API",
		Buckets: prometheus.DefBuckets,
	})

	// RulesFetchErrorsTotal tracks rules fetch failures.
	RulesFetchErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "crossarb_markets_rules_fetch_errors_total",
		Help: "Total number of trading-rules fetch errors",
	})

	// RulesCacheHitsTotal tracks cache hits for trading rules.
	RulesCacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "crossarb_markets_rules_cache_hits_total",
		Help: "Total number of trading-rules cache hits",
	})

	// RulesCacheMissesTotal tracks cache misses for trading rules.
	RulesCacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "crossarb_markets_rules_cache_misses_total",
		Help: "Total number of trading-rules cache misses",
	})
)
