// Package backtest replays candle data through a strategy against a ledger
// and writes the resulting run statistics.
package backtest

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/argolabs/paperledger/internal/config"
	"github.com/argolabs/paperledger/internal/datasource"
	"github.com/argolabs/paperledger/internal/ledger"
	"github.com/argolabs/paperledger/internal/logger"
	"github.com/argolabs/paperledger/internal/strategy"
	"github.com/argolabs/paperledger/internal/types"
	"github.com/argolabs/paperledger/pkg/errors"
	"github.com/google/uuid"
	"github.com/moznion/go-optional"
	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"
)

type Runner struct {
	cfg      config.BacktestConfig
	strategy strategy.TradingStrategy
	source   datasource.DataSource
	log      *logger.Logger

	// ShowProgress controls the terminal progress bar; tests turn it off.
	ShowProgress bool
}

func NewRunner(cfg config.BacktestConfig, strat strategy.TradingStrategy, source datasource.DataSource, log *logger.Logger) (*Runner, error) {
	if source == nil {
		return nil, errors.New(errors.ErrCodeRunNoDatasource, "no data source provided")
	}

	if strat == nil {
		return nil, errors.New(errors.ErrCodeRunNoStrategy, "no strategy provided")
	}

	if cfg.ResultsFolder == "" {
		return nil, errors.New(errors.ErrCodeRunNoResultsDir, "no results folder configured")
	}

	return &Runner{
		cfg:          cfg,
		strategy:     strat,
		source:       source,
		log:          log,
		ShowProgress: true,
	}, nil
}

// Run replays every candle in the configured range through the strategy and
// writes the run statistics into the results folder. The returned stats are
// the same ones written to disk.
func (r *Runner) Run() (types.RunStats, error) {
	if err := r.strategy.Initialize(r.cfg.StrategyConfig); err != nil {
		return types.RunStats{}, err
	}

	if err := r.source.Initialize(r.cfg.DataPath); err != nil {
		return types.RunStats{}, err
	}

	book := ledger.New(r.cfg.StartingBalance, r.log)
	book.SetFixedCommission(r.cfg.FixedCommission)
	book.SetPercentCommission(r.cfg.PercentCommission)

	start := optional.None[time.Time]()
	if !r.cfg.StartTime.IsZero() {
		start = optional.Some(r.cfg.StartTime)
	}

	end := optional.None[time.Time]()
	if !r.cfg.EndTime.IsZero() {
		end = optional.Some(r.cfg.EndTime)
	}

	count, err := r.source.Count(start, end)
	if err != nil {
		return types.RunStats{}, err
	}

	r.log.Debug("Starting backtest run",
		zap.String("strategy", r.strategy.Name()),
		zap.String("data", r.cfg.DataPath),
		zap.Int("candles", count),
	)

	var bar *progressbar.ProgressBar
	if r.ShowProgress {
		bar = progressbar.Default(int64(count))
		bar.Describe(fmt.Sprintf("Processing %s with %s", filepath.Base(r.cfg.DataPath), r.strategy.Name()))
	}

	ctx := strategy.Context{Ledger: book}

	for candle, err := range r.source.ReadAll(start, end) {
		if err != nil {
			return types.RunStats{}, err
		}

		if err := r.strategy.ProcessCandle(ctx, candle); err != nil {
			return types.RunStats{}, errors.Wrap(errors.ErrCodeRunProcessFailed, "strategy failed", err)
		}

		// liquidations fire on the close of the candle that breached
		book.CheckLiquidation(candle.Close)

		if bar != nil {
			bar.Add(1)
		}
	}

	stats := r.collectStats(book)

	if err := r.writeStats(stats); err != nil {
		return types.RunStats{}, err
	}

	return stats, nil
}

func (r *Runner) collectStats(book *ledger.Ledger) types.RunStats {
	trades := book.GetTrades()

	winning := 0
	losing := 0

	for _, trade := range trades {
		switch {
		case trade.PnL > 0:
			winning++
		case trade.PnL < 0:
			losing++
		}
	}

	return types.RunStats{
		ID:              uuid.New().String(),
		Timestamp:       time.Now(),
		StrategyName:    r.strategy.Name(),
		DataPath:        r.cfg.DataPath,
		StartingBalance: book.GetStartingBalance(),
		FinalBalance:    book.GetBalance(),
		RealizedPnL:     book.GetRealizedPnL(),
		TotalROI:        book.GetTotalROI(),
		TotalCommission: book.GetTotalCommission(),
		NumberOfTrades:  book.GetTradeCount(),
		WinningTrades:   winning,
		LosingTrades:    losing,
		WinRate:         book.GetWinRate(),
		AveragePnL:      book.GetAveragePnL(),
		BestPnL:         book.GetBestTradePnL(),
		WorstPnL:        book.GetWorstTradePnL(),
		OpenPositions:   book.GetOpenPositionCount(),
		ClosedPositions: book.GetClosedPositionCount(),
		Trades:          trades,
	}
}

func (r *Runner) writeStats(stats types.RunStats) error {
	if err := os.MkdirAll(r.cfg.ResultsFolder, 0755); err != nil {
		return errors.Wrap(errors.ErrCodeRunWriteFailed, "failed to create results folder", err)
	}

	path := filepath.Join(r.cfg.ResultsFolder, fmt.Sprintf("%s_%s.yaml", stats.StrategyName, stats.ID))
	if err := types.WriteRunStats(path, stats); err != nil {
		return errors.Wrap(errors.ErrCodeRunWriteFailed, "failed to write run stats", err)
	}

	r.log.Info("Backtest run complete",
		zap.String("strategy", stats.StrategyName),
		zap.Float64("final_balance", stats.FinalBalance),
		zap.Int("trades", stats.NumberOfTrades),
		zap.String("results", path),
	)

	return nil
}
