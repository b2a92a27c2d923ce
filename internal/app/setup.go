package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/mselser95/crossarb/internal/circuitbreaker"
	"github.com/mselser95/crossarb/internal/connector"
	"github.com/mselser95/crossarb/internal/executor"
	"github.com/mselser95/crossarb/internal/feed"
	"github.com/mselser95/crossarb/internal/markets"
	"github.com/mselser95/crossarb/internal/orderbook"
	"github.com/mselser95/crossarb/internal/pricing"
	"github.com/mselser95/crossarb/internal/storage"
	"github.com/mselser95/crossarb/pkg/cache"
	"github.com/mselser95/crossarb/pkg/config"
	"github.com/mselser95/crossarb/pkg/healthprobe"
	"github.com/mselser95/crossarb/pkg/httpserver"
	"github.com/mselser95/crossarb/pkg/types"
)

// New creates a new application instance.
func New(cfg *config.Config, logger *zap.Logger) (*App, error) {
	ctx, cancel := context.WithCancel(context.Background())

	makerMarket, err := types.ParseMarketPair(cfg.MakerMarket)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("parse maker market: %w", err)
	}

	takerMarkets := make([]types.MarketPair, 0, len(cfg.TakerMarkets))
	symbols := []string{makerMarket.Symbol()}
	for _, raw := range cfg.TakerMarkets {
		m, parseErr := types.ParseMarketPair(raw)
		if parseErr != nil {
			cancel()
			return nil, fmt.Errorf("parse taker market %q: %w", raw, parseErr)
		}
		takerMarkets = append(takerMarkets, m)
		symbols = append(symbols, m.Symbol())
	}

	healthChecker := healthprobe.New()

	rulesCache, err := setupCache(logger)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("setup cache: %w", err)
	}

	feedClient := setupFeedClient(cfg, logger)
	obManager := setupOrderbookManager(logger, feedClient)
	rulesProvider := setupRulesProvider(cfg, logger, rulesCache)

	conn := connector.NewPaper(&connector.PaperConfig{
		Books:    obManager,
		Rules:    rulesProvider,
		Balances: cfg.PaperBalances,
		Logger:   logger,
	})

	calculator, err := pricing.New(pricing.Config{
		MakerMarket:  makerMarket,
		TakerMarkets: takerMarkets,
		TotalFeePct:  cfg.MakerFeePct.Add(cfg.TakerFeePct),
		Quoter:       conn,
		Logger:       logger,
	})
	if err != nil {
		cancel()
		return nil, fmt.Errorf("setup calculator: %w", err)
	}

	store, err := setupStorage(cfg, logger)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("setup storage: %w", err)
	}

	breaker, err := setupBreaker(ctx, cfg, logger, conn, makerMarket)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("setup circuit breaker: %w", err)
	}

	execCfg := executor.Config{
		MakerMarket:            makerMarket,
		TakerMarkets:           takerMarkets,
		OrderAmount:            cfg.OrderAmount,
		TargetProfitabilityPct: cfg.TargetProfitabilityPct,
		ProfitabilityRangePct:  cfg.ProfitabilityRangePct,
		MinHedgeNotional:       cfg.MinHedgeNotional,
		MaxOrderAge:            cfg.MaxOrderAge,
		RetryDelay:             cfg.RetryDelay,
		MaxRetries:             cfg.MaxRetries,
		CompletionWait:         cfg.CompletionWait,
		Interval:               cfg.ControlInterval,
		MakerFeePct:            cfg.MakerFeePct,
		TakerFeePct:            cfg.TakerFeePct,
		ReferencePriceType:     types.PriceType(cfg.ReferencePriceType),
		OneShot:                cfg.OneShot,
		Connector:              conn,
		Calculator:             calculator,
		Storage:                store,
		Logger:                 logger,
	}
	if breaker != nil {
		execCfg.Breaker = breaker
	}

	exec, err := executor.New(execCfg)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("setup executor: %w", err)
	}

	httpServer := httpserver.New(&httpserver.Config{
		Port:             cfg.HTTPPort,
		Logger:           logger,
		HealthChecker:    healthChecker,
		OrderbookManager: obManager,
		Executor:         exec,
	})

	return &App{
		cfg:           cfg,
		logger:        logger,
		healthChecker: healthChecker,
		httpServer:    httpServer,
		feedClient:    feedClient,
		obManager:     obManager,
		conn:          conn,
		exec:          exec,
		store:         store,
		symbols:       symbols,
		ctx:           ctx,
		cancel:        cancel,
	}, nil
}

func setupCache(logger *zap.Logger) (cache.Cache, error) {
	return cache.NewRistrettoCache(&cache.RistrettoConfig{
		NumCounters: 10000,
		MaxCost:     1000,
		BufferItems: 64,
		Logger:      logger,
	})
}

func setupFeedClient(cfg *config.Config, logger *zap.Logger) *feed.Client {
	return feed.New(feed.Config{
		URL:                   cfg.FeedWSURL,
		DialTimeout:           cfg.FeedDialTimeout,
		PongTimeout:           cfg.FeedPongTimeout,
		PingInterval:          cfg.FeedPingInterval,
		ReconnectInitialDelay: cfg.FeedReconnectInitialDelay,
		ReconnectMaxDelay:     cfg.FeedReconnectMaxDelay,
		ReconnectBackoffMult:  cfg.FeedReconnectBackoffMult,
		MessageBufferSize:     cfg.FeedMessageBufferSize,
		Logger:                logger,
	})
}

func setupOrderbookManager(logger *zap.Logger, feedClient *feed.Client) *orderbook.Manager {
	return orderbook.New(&orderbook.Config{
		Logger:         logger,
		MessageChannel: feedClient.MessageChan(),
	})
}

func setupRulesProvider(cfg *config.Config, logger *zap.Logger, rulesCache cache.Cache) markets.Provider {
	client := markets.NewClient(cfg.RulesAPIURL)
	return markets.NewCachedProvider(client, rulesCache, cfg.RulesCacheTTL)
}

func setupStorage(cfg *config.Config, logger *zap.Logger) (executor.Storage, error) {
	if cfg.StorageMode == "postgres" {
		pgStorage, err := storage.NewPostgresStorage(&storage.PostgresConfig{
			Host:     cfg.PostgresHost,
			Port:     cfg.PostgresPort,
			User:     cfg.PostgresUser,
			Password: cfg.PostgresPass,
			Database: cfg.PostgresDB,
			SSLMode:  cfg.PostgresSSL,
			Logger:   logger,
		})
		if err != nil {
			return nil, fmt.Errorf("create postgres storage: %w", err)
		}
		return pgStorage, nil
	}

	return storage.NewConsoleStorage(logger), nil
}

func setupBreaker(
	ctx context.Context,
	cfg *config.Config,
	logger *zap.Logger,
	fetcher circuitbreaker.BalanceFetcher,
	makerMarket types.MarketPair,
) (*circuitbreaker.BalanceCircuitBreaker, error) {
	breaker, err := circuitbreaker.New(&circuitbreaker.Config{
		CheckInterval:   cfg.BreakerCheckInterval,
		TradeMultiplier: cfg.BreakerTradeMultiplier,
		MinAbsolute:     cfg.BreakerMinAbsolute,
		HysteresisRatio: cfg.BreakerHysteresisRatio,
		Fetcher:         fetcher,
		Market:          makerMarket,
		Asset:           makerMarket.Quote,
		Logger:          logger,
	})
	if err != nil {
		return nil, err
	}

	breaker.Start(ctx)

	logger.Info("circuit-breaker-enabled",
		zap.Duration("check_interval", cfg.BreakerCheckInterval),
		zap.Float64("trade_multiplier", cfg.BreakerTradeMultiplier),
		zap.Float64("min_absolute", cfg.BreakerMinAbsolute),
		zap.Float64("hysteresis_ratio", cfg.BreakerHysteresisRatio))

	return breaker, nil
}
