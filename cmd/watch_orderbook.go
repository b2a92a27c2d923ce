package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	json "github.com/goccy/go-json"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/mselser95/crossarb/internal/feed"
	"github.com/mselser95/crossarb/pkg/config"
	"github.com/mselser95/crossarb/pkg/types"
)

//nolint:gochecknoglobals // Cobra boilerplate
var watchOrderbookCmd = &cobra.Command{
	Use:   "watch-orderbook <symbol>",
	Short: "Watch order book updates for a market",
	Long: `Connects to the market data feed and displays real-time book updates
for one market. Useful for debugging feed connectivity and market dynamics.

Example:
  crossarb watch-orderbook binance:BTC-USDT`,
	Args: cobra.ExactArgs(1),
	RunE: runWatchOrderbook,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(watchOrderbookCmd)
	watchOrderbookCmd.Flags().BoolP("json", "j", false, "Output raw JSON messages")
}

func runWatchOrderbook(cmd *cobra.Command, args []string) error {
	symbol := args[0]

	if err := godotenv.Load(); err != nil {
		fmt.Printf("Warning: .env file not found\n")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.LoadFromEnv()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := config.NewLogger()
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	rawJSON, _ := cmd.Flags().GetBool("json")

	client := feed.New(feed.Config{
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

	err = client.Start()
	if err != nil {
		return fmt.Errorf("start feed client: %w", err)
	}
	defer func() {
		_ = client.Close()
	}()

	err = client.Subscribe(ctx, []string{symbol})
	if err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}

	fmt.Printf("Watching %s (Ctrl+C to stop)\n\n", symbol)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)

	for {
		select {
		case <-sigChan:
			return nil
		case msg, ok := <-client.MessageChan():
			if !ok {
				return nil
			}
			if msg.Symbol != symbol {
				continue
			}

			if rawJSON {
				raw, marshalErr := json.Marshal(msg)
				if marshalErr != nil {
					continue
				}
				fmt.Println(string(raw))
				continue
			}

			printBookMessage(w, msg)
		}
	}
}

func printBookMessage(w *tabwriter.Writer, msg *types.BookMessage) {
	now := time.Now().Format("15:04:05.000")

	switch msg.EventType {
	case "book", "price_change":
		var bestBid, bestAsk string
		if len(msg.Bids) > 0 {
			bestBid = fmt.Sprintf("%s x %s", msg.Bids[0].Price, msg.Bids[0].Size)
		}
		if len(msg.Asks) > 0 {
			bestAsk = fmt.Sprintf("%s x %s", msg.Asks[0].Price, msg.Asks[0].Size)
		}
		fmt.Fprintf(w, "%s\t%s\tbid %s\task %s\n", now, msg.EventType, bestBid, bestAsk)
	case "last_trade_price":
		fmt.Fprintf(w, "%s\t%s\tlast %s\n", now, msg.EventType, msg.LastPrice)
	default:
		fmt.Fprintf(w, "%s\t%s\n", now, msg.EventType)
	}

	_ = w.Flush()
}
