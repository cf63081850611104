package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/argolabs/paperledger/internal/backtest"
	"github.com/argolabs/paperledger/internal/config"
	"github.com/argolabs/paperledger/internal/datasource"
	"github.com/argolabs/paperledger/internal/logger"
	"github.com/argolabs/paperledger/internal/strategy"
	"github.com/urfave/cli/v3"
)

// backtestAction loads the configuration, wires the data source, strategy and
// ledger together and runs the backtest.
func backtestAction(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")
	dataPath := cmd.String("data")
	resultsPath := cmd.String("results")

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// command line flags win over the config file
	if dataPath != "" {
		cfg.DataPath = dataPath
	}

	if resultsPath != "" {
		cfg.ResultsFolder = resultsPath
	}

	log, err := logger.NewLogger()
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}

	source, err := datasource.NewDuckDB("", log)
	if err != nil {
		return fmt.Errorf("failed to create data source: %w", err)
	}
	defer source.Close()

	runner, err := backtest.NewRunner(cfg, strategy.NewSMACross(), source, log)
	if err != nil {
		return fmt.Errorf("failed to create runner: %w", err)
	}

	stats, err := runner.Run()
	if err != nil {
		return fmt.Errorf("backtest failed: %w", err)
	}

	fmt.Printf("Run %s finished: balance %.2f, pnl %.2f, %d trades, win rate %.1f%%\n",
		stats.ID, stats.FinalBalance, stats.RealizedPnL, stats.NumberOfTrades, stats.WinRate)

	return nil
}

func main() {
	cmd := &cli.Command{
		Name:  "backtest",
		Usage: "Replay candle data through a trading strategy against a simulated account",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "config",
				Aliases:  []string{"c"},
				Usage:    "Path to the backtest configuration file",
				Value:    "config/backtest.yaml",
				Required: false,
			},
			&cli.StringFlag{
				Name:     "data",
				Aliases:  []string{"d"},
				Usage:    "Candle file (CSV or Parquet), overrides the config file",
				Required: false,
			},
			&cli.StringFlag{
				Name:     "results",
				Aliases:  []string{"r"},
				Usage:    "Results output directory, overrides the config file",
				Required: false,
			},
		},
		Action: backtestAction,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
