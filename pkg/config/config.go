package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Config holds all application configuration.
type Config struct {
	// Application
	LogLevel string
	HTTPPort string

	// Market data feed
	FeedWSURL                 string
	FeedDialTimeout           time.Duration
	FeedPongTimeout           time.Duration
	FeedPingInterval          time.Duration
	FeedReconnectInitialDelay time.Duration
	FeedReconnectMaxDelay     time.Duration
	FeedReconnectBackoffMult  float64
	FeedMessageBufferSize     int

	// Trading rules
	RulesAPIURL   string
	RulesCacheTTL time.Duration

	// Markets
	MakerMarket  string
	TakerMarkets []string // 1 or 2 hedge markets, comma separated in env

	// Executor
	OrderAmount            decimal.Decimal
	TargetProfitabilityPct decimal.Decimal
	ProfitabilityRangePct  decimal.Decimal
	MinHedgeNotional       decimal.Decimal
	MaxOrderAge            time.Duration
	RetryDelay             time.Duration
	MaxRetries             int
	CompletionWait         time.Duration
	ControlInterval        time.Duration
	MakerFeePct            decimal.Decimal
	TakerFeePct            decimal.Decimal
	ReferencePriceType     string // maker book price used for quote notionals
	OneShot                bool

	// Execution
	ExecutionMode string // "paper" or "live"
	PaperBalances map[string]decimal.Decimal

	// Circuit breaker
	BreakerCheckInterval   time.Duration
	BreakerTradeMultiplier float64
	BreakerMinAbsolute     float64
	BreakerHysteresisRatio float64

	// Storage
	StorageMode  string // "postgres" or "console"
	PostgresHost string
	PostgresPort string
	PostgresUser string
	PostgresPass string
	PostgresDB   string
	PostgresSSL  string
}

// LoadFromEnv loads configuration from environment variables with defaults.
func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		// Application defaults
		LogLevel: getEnvOrDefault("LOG_LEVEL", "info"),
		HTTPPort: getEnvOrDefault("HTTP_PORT", "8080"),

		// Feed defaults
		FeedWSURL:                 getEnvOrDefault("FEED_WS_URL", "wss://stream.example.com/ws/market"),
		FeedDialTimeout:           getDurationOrDefault("FEED_DIAL_TIMEOUT", 10*time.Second),
		FeedPongTimeout:           getDurationOrDefault("FEED_PONG_TIMEOUT", 15*time.Second),
		FeedPingInterval:          getDurationOrDefault("FEED_PING_INTERVAL", 10*time.Second),
		FeedReconnectInitialDelay: getDurationOrDefault("FEED_RECONNECT_INITIAL_DELAY", 1*time.Second),
		FeedReconnectMaxDelay:     getDurationOrDefault("FEED_RECONNECT_MAX_DELAY", 30*time.Second),
		FeedReconnectBackoffMult:  getFloat64OrDefault("FEED_RECONNECT_BACKOFF_MULTIPLIER", 2.0),
		FeedMessageBufferSize:     getIntOrDefault("FEED_MESSAGE_BUFFER_SIZE", 1000),

		// Trading rules defaults
		RulesAPIURL:   getEnvOrDefault("RULES_API_URL", "https://api.example.com"),
		RulesCacheTTL: getDurationOrDefault("RULES_CACHE_TTL", 24*time.Hour),

		// Markets
		MakerMarket:  os.Getenv("MAKER_MARKET"),
		TakerMarkets: getListOrDefault("TAKER_MARKETS", nil),

		// Executor defaults
		OrderAmount:            getDecimalOrDefault("ORDER_AMOUNT", decimal.NewFromInt(100)),
		TargetProfitabilityPct: getDecimalOrDefault("TARGET_PROFITABILITY_PCT", decimal.NewFromFloat(0.5)),
		ProfitabilityRangePct:  getDecimalOrDefault("PROFITABILITY_RANGE_PCT", decimal.NewFromFloat(0.2)),
		MinHedgeNotional:       getDecimalOrDefault("MIN_HEDGE_NOTIONAL", decimal.NewFromInt(10)),
		MaxOrderAge:            getDurationOrDefault("MAX_ORDER_AGE", 60*time.Second),
		RetryDelay:             getDurationOrDefault("RETRY_DELAY", 10*time.Second),
		MaxRetries:             getIntOrDefault("MAX_RETRIES", 10),
		CompletionWait:         getDurationOrDefault("COMPLETION_WAIT", 5*time.Second),
		ControlInterval:        getDurationOrDefault("CONTROL_INTERVAL", 1*time.Second),
		MakerFeePct:            getDecimalOrDefault("MAKER_FEE_PCT", decimal.Zero),
		TakerFeePct:            getDecimalOrDefault("TAKER_FEE_PCT", decimal.NewFromFloat(0.1)),
		ReferencePriceType:     getEnvOrDefault("REFERENCE_PRICE_TYPE", "mid"),
		OneShot:                getBoolOrDefault("ONE_SHOT", false),

		// Execution defaults
		ExecutionMode: getEnvOrDefault("EXECUTION_MODE", "paper"),
		PaperBalances: getBalancesOrDefault("PAPER_BALANCES", map[string]decimal.Decimal{
			"USDT": decimal.NewFromInt(10000),
		}),

		// Circuit breaker defaults
		BreakerCheckInterval:   getDurationOrDefault("BREAKER_CHECK_INTERVAL", 30*time.Second),
		BreakerTradeMultiplier: getFloat64OrDefault("BREAKER_TRADE_MULTIPLIER", 3.0),
		BreakerMinAbsolute:     getFloat64OrDefault("BREAKER_MIN_ABSOLUTE", 100.0),
		BreakerHysteresisRatio: getFloat64OrDefault("BREAKER_HYSTERESIS_RATIO", 1.5),

		// Storage defaults
		StorageMode:  getEnvOrDefault("STORAGE_MODE", "console"),
		PostgresHost: getEnvOrDefault("POSTGRES_HOST", "localhost"),
		PostgresPort: getEnvOrDefault("POSTGRES_PORT", "5432"),
		PostgresUser: getEnvOrDefault("POSTGRES_USER", "crossarb"),
		PostgresPass: getEnvOrDefault("POSTGRES_PASSWORD", "crossarb123"),
		PostgresDB:   getEnvOrDefault("POSTGRES_DB", "crossarb"),
		PostgresSSL:  getEnvOrDefault("POSTGRES_SSLMODE", "disable"),
	}

	err := cfg.Validate()
	if err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// Validate checks that configuration values are valid.
func (c *Config) Validate() error {
	if c.HTTPPort == "" {
		return fmt.Errorf("HTTP_PORT cannot be empty")
	}

	if c.FeedWSURL == "" {
		return fmt.Errorf("FEED_WS_URL cannot be empty")
	}

	if c.MakerMarket == "" {
		return fmt.Errorf("MAKER_MARKET cannot be empty")
	}

	if len(c.TakerMarkets) < 1 || len(c.TakerMarkets) > 2 {
		return fmt.Errorf("TAKER_MARKETS must list 1 or 2 markets, got %d", len(c.TakerMarkets))
	}

	if c.OrderAmount.Sign() <= 0 {
		return fmt.Errorf("ORDER_AMOUNT must be positive, got %s", c.OrderAmount)
	}

	if c.ProfitabilityRangePct.Sign() <= 0 {
		return fmt.Errorf("PROFITABILITY_RANGE_PCT must be positive, got %s", c.ProfitabilityRangePct)
	}

	if c.MaxRetries < 0 {
		return fmt.Errorf("MAX_RETRIES cannot be negative, got %d", c.MaxRetries)
	}

	switch c.ReferencePriceType {
	case "best_bid", "best_ask", "mid", "last":
	default:
		return fmt.Errorf("REFERENCE_PRICE_TYPE must be one of best_bid, best_ask, mid, last, got %q", c.ReferencePriceType)
	}

	switch c.ExecutionMode {
	case "paper":
	case "live":
		return fmt.Errorf("EXECUTION_MODE 'live' is not supported yet, use 'paper'")
	default:
		return fmt.Errorf("EXECUTION_MODE must be 'paper' or 'live', got %q", c.ExecutionMode)
	}

	if c.StorageMode != "postgres" && c.StorageMode != "console" {
		return fmt.Errorf("STORAGE_MODE must be 'postgres' or 'console', got %q", c.StorageMode)
	}

	return nil
}

func getEnvOrDefault(key string, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	intVal, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}

	return intVal
}

func getFloat64OrDefault(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	floatVal, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return defaultValue
	}

	return floatVal
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	duration, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}

	return duration
}

func getDecimalOrDefault(key string, defaultValue decimal.Decimal) decimal.Decimal {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	d, err := decimal.NewFromString(value)
	if err != nil {
		return defaultValue
	}

	return d
}

func getBoolOrDefault(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	b, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}

	return b
}

// getBalancesOrDefault parses "ASSET:AMOUNT,ASSET:AMOUNT" lists.
func getBalancesOrDefault(key string, defaultValue map[string]decimal.Decimal) map[string]decimal.Decimal {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	out := make(map[string]decimal.Decimal)
	for _, entry := range strings.Split(value, ",") {
		parts := strings.SplitN(strings.TrimSpace(entry), ":", 2)
		if len(parts) != 2 {
			continue
		}
		amount, err := decimal.NewFromString(parts[1])
		if err != nil {
			continue
		}
		out[strings.ToUpper(parts[0])] = amount
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}

func getListOrDefault(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
