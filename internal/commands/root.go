package commands

import (
	"github.com/spf13/cobra"
)

var (
	verbose bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "signal-engine",
	Short: "Trading signal engine",
	Long: `A trading signal engine built with Go. It polls exchange candles,
computes technical indicators and market structure, scores them into
directional signals with trade setups, and serves the results over HTTP,
WebSocket and NATS.

Features:
• Indicator library: EMA, RSI (Wilder), MACD, ATR, Bollinger bands, volume
• Market structure: support/resistance, BOS, liquidity sweeps, kill zones
• Classic and smart-money scoring strategies with reason codes
• Concurrent universe evaluation with per-instrument failure isolation
• Signal continuity tracking (in-memory or Redis)`,
	Version: "1.0.0",
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
