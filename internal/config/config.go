// Package config loads and validates the backtest run configuration.
package config

import (
	"os"
	"time"

	"github.com/argolabs/paperledger/pkg/errors"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// BacktestConfig is the YAML-backed configuration of one backtest run.
type BacktestConfig struct {
	// DataPath points at the candle file, CSV or Parquet.
	DataPath string `yaml:"data_path" validate:"required"`
	// ResultsFolder receives the run statistics file.
	ResultsFolder string `yaml:"results_folder" validate:"required"`

	StartingBalance float64 `yaml:"starting_balance" validate:"required,gt=0"`

	// FixedCommission is charged per executed order.
	FixedCommission float64 `yaml:"fixed_commission" validate:"gte=0"`
	// PercentCommission is charged on each executed order's notional,
	// expressed as a fraction (0.001 means 0.1%).
	PercentCommission float64 `yaml:"percent_commission" validate:"gte=0,lt=1"`

	// StartTime and EndTime bound the candle range; zero values mean
	// unbounded.
	StartTime time.Time `yaml:"start_time"`
	EndTime   time.Time `yaml:"end_time"`

	// StrategyConfig is passed verbatim to the strategy's Initialize.
	StrategyConfig string `yaml:"strategy_config"`
}

// Load reads and validates a backtest configuration file.
func Load(path string) (BacktestConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return BacktestConfig{}, errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "failed to read config file %s", path)
	}

	return Parse(string(data))
}

// Parse decodes and validates a backtest configuration from YAML text.
func Parse(text string) (BacktestConfig, error) {
	var cfg BacktestConfig
	if err := yaml.Unmarshal([]byte(text), &cfg); err != nil {
		return BacktestConfig{}, errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to parse config", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return BacktestConfig{}, errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid config", err)
	}

	if !cfg.StartTime.IsZero() && !cfg.EndTime.IsZero() && cfg.EndTime.Before(cfg.StartTime) {
		return BacktestConfig{}, errors.New(errors.ErrCodeInvalidConfiguration, "end_time precedes start_time")
	}

	return cfg, nil
}
