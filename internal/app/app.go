package app

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/mselser95/crossarb/internal/connector"
	"github.com/mselser95/crossarb/internal/executor"
	"github.com/mselser95/crossarb/internal/feed"
	"github.com/mselser95/crossarb/internal/orderbook"
	"github.com/mselser95/crossarb/pkg/config"
	"github.com/mselser95/crossarb/pkg/healthprobe"
	"github.com/mselser95/crossarb/pkg/httpserver"
)

// App is the main application orchestrator.
type App struct {
	cfg           *config.Config
	logger        *zap.Logger
	healthChecker *healthprobe.HealthChecker
	httpServer    *httpserver.Server
	feedClient    *feed.Client
	obManager     *orderbook.Manager
	conn          *connector.Paper
	exec          *executor.Executor
	store         executor.Storage
	symbols       []string
	ctx           context.Context
	cancel        context.CancelFunc
	wg            sync.WaitGroup
}
