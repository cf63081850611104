package types

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// RunStats is the summary written at the end of a backtest run.
type RunStats struct {
	// ID is the unique identifier for this run.
	ID string `yaml:"id" json:"id"`
	// Timestamp is when this run was executed.
	Timestamp time.Time `yaml:"timestamp" json:"timestamp"`
	// StrategyName is the name of the strategy that drove the run.
	StrategyName string `yaml:"strategy_name" json:"strategy_name"`
	// DataPath is the path to the market data used for this run.
	DataPath string `yaml:"data_path" json:"data_path"`

	StartingBalance float64 `yaml:"starting_balance" json:"starting_balance"`
	FinalBalance    float64 `yaml:"final_balance" json:"final_balance"`

	// RealizedPnL is the sum of every closed position's pnl.
	RealizedPnL float64 `yaml:"realized_pnl" json:"realized_pnl"`
	// TotalROI is realized pnl over starting balance, in percent.
	TotalROI        float64 `yaml:"total_roi" json:"total_roi"`
	TotalCommission float64 `yaml:"total_commission" json:"total_commission"`

	NumberOfTrades int `yaml:"number_of_trades" json:"number_of_trades"`
	WinningTrades  int `yaml:"winning_trades" json:"winning_trades"`
	LosingTrades   int `yaml:"losing_trades" json:"losing_trades"`
	// WinRate is the percentage of trades with positive pnl.
	WinRate float64 `yaml:"win_rate" json:"win_rate"`

	AveragePnL float64 `yaml:"average_pnl" json:"average_pnl"`
	BestPnL    float64 `yaml:"best_pnl" json:"best_pnl"`
	WorstPnL   float64 `yaml:"worst_pnl" json:"worst_pnl"`

	OpenPositions   int `yaml:"open_positions" json:"open_positions"`
	ClosedPositions int `yaml:"closed_positions" json:"closed_positions"`

	// Trades is the derived trade list, one entry per distinct close order.
	Trades []Trade `yaml:"trades" json:"trades"`
}

// WriteRunStats marshals the stats to YAML and writes them to path.
func WriteRunStats(path string, stats RunStats) error {
	data, err := yaml.Marshal(stats)
	if err != nil {
		return fmt.Errorf("failed to marshal run stats to YAML: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write run stats to file: %w", err)
	}

	return nil
}
