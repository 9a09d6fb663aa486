package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/rami12200/trading-signals-sub000/internal/engine"
	"github.com/rami12200/trading-signals-sub000/internal/exchange"
	"github.com/rami12200/trading-signals-sub000/pkg/config"
	"github.com/rami12200/trading-signals-sub000/pkg/logger"
)

var (
	analyzeTimeframe string
	analyzeStrategy  string
)

// analyzeCmd runs a single evaluation cycle and prints the results
var analyzeCmd = &cobra.Command{
	Use:   "analyze [symbols...]",
	Short: "Run one evaluation cycle and print the signals",
	Long: `Evaluate the given symbols once (or the configured universe when no
symbols are given) and print the full result batch as JSON.

Examples:
  signal-engine analyze                          # configured universe
  signal-engine analyze BTCUSDT                  # one symbol
  signal-engine analyze BTCUSDT ETHUSDT -t 1h    # custom timeframe
  signal-engine analyze BTCUSDT -s smc           # smart-money strategy`,
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().StringVarP(&analyzeTimeframe, "timeframe", "t", "", "Candle timeframe (5m, 15m, 1h, ...)")
	analyzeCmd.Flags().StringVarP(&analyzeStrategy, "strategy", "s", "", "Strategy variant (classic, smc)")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	if err := config.LoadDotEnv(); err != nil {
		fmt.Printf("Note: .env file not loaded: %v\n", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if analyzeTimeframe != "" {
		cfg.Engine.Timeframe = analyzeTimeframe
	}
	if analyzeStrategy != "" {
		cfg.Engine.Strategy = analyzeStrategy
	}
	if verbose {
		cfg.Logging.Level = "debug"
	} else {
		// Keep stdout clean for the JSON result
		cfg.Logging.Level = "error"
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	log, err := logger.New(&cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}

	symbols := cfg.Engine.Symbols
	if len(args) > 0 {
		symbols = make([]string, len(args))
		for i, s := range args {
			symbols[i] = strings.ToUpper(s)
		}
	}

	restClient := exchange.NewBinanceRESTClient(&cfg.Exchange, log)

	eng, err := engine.New(&cfg.Engine, &cfg.Scoring, &cfg.Structure, restClient, nil, nil, log)
	if err != nil {
		return fmt.Errorf("failed to initialize engine: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	batch, err := eng.Evaluate(ctx, symbols)
	if err != nil {
		return fmt.Errorf("evaluation failed: %w", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(batch)
}
