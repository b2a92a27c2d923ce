package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var rootCmd = &cobra.Command{
	Use:   "crossarb",
	Short: "Cross-market maker/taker arbitrage bot",
	Long: `Cross-market arbitrage bot that posts a resting limit order on a
maker market and, when it fills, hedges the position with taker orders on
one or two other markets.

The bot keeps the maker order priced off live hedge quotes, retries each
hedge leg independently, and settles realized PnL per hedge round.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
