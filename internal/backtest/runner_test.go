package backtest

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/argolabs/paperledger/internal/config"
	"github.com/argolabs/paperledger/internal/logger"
	"github.com/argolabs/paperledger/internal/strategy"
	"github.com/argolabs/paperledger/internal/types"
	"github.com/argolabs/paperledger/pkg/errors"
	"github.com/moznion/go-optional"
	"github.com/stretchr/testify/suite"
)

// stubSource serves candles from memory so runner tests need no database.
type stubSource struct {
	candles     []types.Candle
	initialized string
}

func (s *stubSource) Initialize(path string) error {
	s.initialized = path

	return nil
}

func (s *stubSource) ReadAll(start optional.Option[time.Time], end optional.Option[time.Time]) func(yield func(types.Candle, error) bool) {
	return func(yield func(types.Candle, error) bool) {
		for _, c := range s.candles {
			if start.IsSome() && c.Time.Before(start.Unwrap()) {
				continue
			}

			if end.IsSome() && c.Time.After(end.Unwrap()) {
				continue
			}

			if !yield(c, nil) {
				return
			}
		}
	}
}

func (s *stubSource) Count(start optional.Option[time.Time], end optional.Option[time.Time]) (int, error) {
	count := 0
	for _, err := range s.ReadAll(start, end) {
		if err != nil {
			return 0, err
		}
		count++
	}

	return count, nil
}

func (s *stubSource) GetRange(start time.Time, end time.Time) ([]types.Candle, error) {
	var result []types.Candle
	for c := range s.ReadAll(optional.Some(start), optional.Some(end)) {
		result = append(result, c)
	}

	return result, nil
}

func (s *stubSource) ReadLast() (types.Candle, error) {
	if len(s.candles) == 0 {
		return types.Candle{}, errors.New(errors.ErrCodeDataNotFound, "no candles")
	}

	return s.candles[len(s.candles)-1], nil
}

func (s *stubSource) Close() error { return nil }

// scriptedStrategy buys on the first candle and sells everything on the last.
type scriptedStrategy struct {
	seen  int
	total int
}

func (s *scriptedStrategy) Name() string { return "scripted" }

func (s *scriptedStrategy) Initialize(config string) error { return nil }

func (s *scriptedStrategy) ProcessCandle(ctx strategy.Context, candle types.Candle) error {
	s.seen++

	if s.seen == 1 {
		ctx.Ledger.PlaceBuyOrder(candle.Time.UnixMilli(), candle.Close, 10)
	}

	if s.seen == s.total {
		ctx.Ledger.PlaceSellOrder(candle.Time.UnixMilli(), candle.Close, 100)
	}

	return nil
}

type RunnerTestSuite struct {
	suite.Suite
	source  *stubSource
	results string
}

func TestRunnerSuite(t *testing.T) {
	suite.Run(t, new(RunnerTestSuite))
}

func (suite *RunnerTestSuite) SetupTest() {
	suite.results = suite.T().TempDir()

	candles := make([]types.Candle, 0, 5)
	for i := 0; i < 5; i++ {
		price := 100.0 + float64(i)*10
		candles = append(candles, types.Candle{
			Time:  time.Date(2024, 1, 1, i, 0, 0, 0, time.UTC),
			Open:  price,
			High:  price,
			Low:   price,
			Close: price,
		})
	}

	suite.source = &stubSource{candles: candles}
}

func (suite *RunnerTestSuite) config() config.BacktestConfig {
	return config.BacktestConfig{
		DataPath:        "stub.csv",
		ResultsFolder:   suite.results,
		StartingBalance: 10000,
	}
}

func (suite *RunnerTestSuite) newRunner(strat strategy.TradingStrategy, cfg config.BacktestConfig) *Runner {
	runner, err := NewRunner(cfg, strat, suite.source, logger.NewNopLogger())
	suite.Require().NoError(err)
	runner.ShowProgress = false

	return runner
}

func (suite *RunnerTestSuite) TestNewRunnerValidation() {
	log := logger.NewNopLogger()

	_, err := NewRunner(suite.config(), &scriptedStrategy{}, nil, log)
	suite.True(errors.HasCode(err, errors.ErrCodeRunNoDatasource))

	_, err = NewRunner(suite.config(), nil, suite.source, log)
	suite.True(errors.HasCode(err, errors.ErrCodeRunNoStrategy))

	cfg := suite.config()
	cfg.ResultsFolder = ""
	_, err = NewRunner(cfg, &scriptedStrategy{}, suite.source, log)
	suite.True(errors.HasCode(err, errors.ErrCodeRunNoResultsDir))
}

func (suite *RunnerTestSuite) TestRunProducesStats() {
	runner := suite.newRunner(&scriptedStrategy{total: 5}, suite.config())

	stats, err := runner.Run()
	suite.Require().NoError(err)

	// bought 10 at 100, sold 10 at 140
	suite.InDelta(400, stats.RealizedPnL, 1e-9)
	suite.InDelta(10400, stats.FinalBalance, 1e-9)
	suite.InDelta(4, stats.TotalROI, 1e-9)
	suite.Equal(1, stats.NumberOfTrades)
	suite.Equal(1, stats.WinningTrades)
	suite.Equal(0, stats.LosingTrades)
	suite.Equal("scripted", stats.StrategyName)
	suite.Equal("stub.csv", suite.source.initialized)
	suite.NotEmpty(stats.ID)
}

func (suite *RunnerTestSuite) TestRunWritesStatsFile() {
	runner := suite.newRunner(&scriptedStrategy{total: 5}, suite.config())

	stats, err := runner.Run()
	suite.Require().NoError(err)

	path := filepath.Join(suite.results, "scripted_"+stats.ID+".yaml")
	_, statErr := os.Stat(path)
	suite.NoError(statErr)
}

func (suite *RunnerTestSuite) TestRunHonorsTimeRange() {
	cfg := suite.config()
	cfg.StartTime = time.Date(2024, 1, 1, 1, 0, 0, 0, time.UTC)
	cfg.EndTime = time.Date(2024, 1, 1, 3, 0, 0, 0, time.UTC)

	strat := &scriptedStrategy{total: 3}
	runner := suite.newRunner(strat, cfg)

	stats, err := runner.Run()
	suite.Require().NoError(err)

	// bought 10 at 110, sold 10 at 130
	suite.Equal(3, strat.seen)
	suite.InDelta(200, stats.RealizedPnL, 1e-9)
}

func (suite *RunnerTestSuite) TestRunLiquidatesBreachedPositions() {
	strat := &marginStrategy{}
	runner := suite.newRunner(strat, suite.config())

	stats, err := runner.Run()
	suite.Require().NoError(err)

	// the short is liquidated once the close reaches its liquidation price
	suite.Equal(0, stats.OpenPositions)
	suite.Equal(1, stats.ClosedPositions)
	suite.Less(stats.RealizedPnL, 0.0)
	suite.Equal(1, stats.NumberOfTrades)
}

// marginStrategy opens one short on the first candle and then holds.
type marginStrategy struct {
	opened bool
}

func (s *marginStrategy) Name() string { return "margin_hold" }

func (s *marginStrategy) Initialize(config string) error { return nil }

func (s *marginStrategy) ProcessCandle(ctx strategy.Context, candle types.Candle) error {
	if !s.opened {
		// short at 100 with 4x leverage liquidates at 125
		ctx.Ledger.EnterShort(candle.Time.UnixMilli(), candle.Close, 10, 4, 0)
		s.opened = true
	}

	return nil
}
