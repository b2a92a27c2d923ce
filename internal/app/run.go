package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
)

// Run starts the application and blocks until shutdown.
func (a *App) Run() error {
	a.logger.Info("application-starting",
		zap.String("mode", a.cfg.ExecutionMode),
		zap.String("maker-market", a.cfg.MakerMarket),
		zap.Strings("taker-markets", a.cfg.TakerMarkets),
		zap.String("log-level", a.cfg.LogLevel))

	err := a.startComponents()
	if err != nil {
		return err
	}

	a.healthChecker.SetReady(true)

	a.logger.Info("application-ready",
		zap.String("http-addr", ":"+a.cfg.HTTPPort),
		zap.String("feed-url", a.cfg.FeedWSURL))

	return a.waitForShutdown()
}

func (a *App) startComponents() error {
	// Start HTTP server
	a.wg.Add(1)
	go a.runHTTPServer()

	// Give HTTP server a moment to start
	time.Sleep(100 * time.Millisecond)

	// Start market data feed
	err := a.feedClient.Start()
	if err != nil {
		return fmt.Errorf("start feed client: %w", err)
	}

	err = a.feedClient.Subscribe(a.ctx, a.symbols)
	if err != nil {
		return fmt.Errorf("subscribe to symbols: %w", err)
	}

	// Start orderbook manager
	err = a.obManager.Start(a.ctx)
	if err != nil {
		return fmt.Errorf("start orderbook manager: %w", err)
	}

	// Start paper connector
	err = a.conn.Start(a.ctx)
	if err != nil {
		return fmt.Errorf("start connector: %w", err)
	}

	// Start executor
	a.wg.Add(1)
	go a.runExecutor()

	return nil
}

func (a *App) runHTTPServer() {
	defer a.wg.Done()
	err := a.httpServer.Start()
	if err != nil {
		a.logger.Error("http-server-error", zap.Error(err))
	}
}

func (a *App) runExecutor() {
	defer a.wg.Done()
	err := a.exec.Run(a.ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		a.logger.Error("executor-error", zap.Error(err))
	}
	// A finished executor means the session is over (one-shot settle or
	// fatal hedge failure); stop the whole application.
	a.cancel()
}

func (a *App) waitForShutdown() error {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		a.logger.Info("shutdown-signal-received", zap.String("signal", sig.String()))
		// Let the executor cancel its maker orders before tearing the
		// rest down.
		a.exec.EarlyStop()
		select {
		case <-a.ctx.Done():
		case <-time.After(10 * time.Second):
			a.logger.Warn("executor-drain-timeout")
		}
	case <-a.ctx.Done():
		a.logger.Info("context-cancelled")
	}

	return a.Shutdown()
}
