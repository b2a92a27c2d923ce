package storage

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/mselser95/crossarb/internal/executor"
)

// ConsoleStorage implements round storage by pretty-printing to console.
type ConsoleStorage struct {
	logger *zap.Logger
}

// NewConsoleStorage creates a new console storage.
func NewConsoleStorage(logger *zap.Logger) *ConsoleStorage {
	logger.Info("console-storage-initialized")
	return &ConsoleStorage{
		logger: logger,
	}
}

// StoreRound pretty-prints a settled hedge round to console.
func (c *ConsoleStorage) StoreRound(ctx context.Context, record *executor.RoundRecord) error {
	fmt.Println("\n" + "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Printf("HEDGE ROUND SETTLED\n")
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Printf("ID:       %s\n", record.ID[:8])
	fmt.Printf("Maker:    %s %s %s @ %s\n",
		record.MakerMarket, record.MakerSide, record.MakerAmount, record.MakerPrice)
	fmt.Printf("Opened:   %s\n", record.CreatedAt.Format("2006-01-02 15:04:05"))
	fmt.Printf("Settled:  %s\n", record.SettledAt.Format("2006-01-02 15:04:05"))
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Printf("LEGS\n")
	for _, leg := range record.Legs {
		fmt.Printf("  %-24s %-4s %s @ VWAP %s\n",
			leg.Market, leg.Side, leg.Amount, leg.VWAP)
	}
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Printf("RESULT\n")
	fmt.Printf("  Notional:   %s\n", record.MakerNotional())
	fmt.Printf("  PnL:        %s%% (%s quote)\n", record.PnLPct, record.PnLQuote)
	fmt.Printf("  Fees:       %s quote\n", record.FeesQuote)
	if record.PnLQuote.Sign() > 0 {
		fmt.Printf("  PROFITABLE after fees\n")
	} else {
		fmt.Printf("  NOT profitable after fees\n")
	}
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")

	return nil
}

// Close is a no-op for console storage.
func (c *ConsoleStorage) Close() error {
	c.logger.Info("closing-console-storage")
	return nil
}
