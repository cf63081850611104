package strategy

import (
	"testing"
	"time"

	"github.com/argolabs/paperledger/internal/ledger"
	"github.com/argolabs/paperledger/internal/logger"
	"github.com/argolabs/paperledger/internal/types"
	"github.com/stretchr/testify/suite"
)

type SMACrossTestSuite struct {
	suite.Suite
	strategy *SMACrossStrategy
	ledger   *ledger.Ledger
}

func TestSMACrossSuite(t *testing.T) {
	suite.Run(t, new(SMACrossTestSuite))
}

func (suite *SMACrossTestSuite) SetupTest() {
	suite.strategy = NewSMACross()
	suite.ledger = ledger.New(10000, logger.NewNopLogger())
}

func (suite *SMACrossTestSuite) config() string {
	return "fast_period: 2\nslow_period: 4\norder_quantity: 10\n"
}

func (suite *SMACrossTestSuite) feed(closes []float64) {
	ctx := Context{Ledger: suite.ledger}

	for i, c := range closes {
		candle := types.Candle{
			Time:  time.Date(2024, 1, 1, 0, i, 0, 0, time.UTC),
			Open:  c,
			High:  c,
			Low:   c,
			Close: c,
		}
		suite.Require().NoError(suite.strategy.ProcessCandle(ctx, candle))
	}
}

func (suite *SMACrossTestSuite) TestInitializeRejectsBadConfig() {
	tests := []struct {
		name   string
		config string
	}{
		{name: "not yaml", config: ":\n:"},
		{name: "missing fields", config: "fast_period: 2\n"},
		{name: "fast not below slow", config: "fast_period: 4\nslow_period: 4\norder_quantity: 1\n"},
		{name: "zero quantity", config: "fast_period: 2\nslow_period: 4\norder_quantity: 0\n"},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			suite.Error(NewSMACross().Initialize(tc.config))
		})
	}
}

func (suite *SMACrossTestSuite) TestBuysOnGoldenCross() {
	suite.Require().NoError(suite.strategy.Initialize(suite.config()))

	// falling closes keep the fast average below the slow one, then the
	// rebound crosses it
	suite.feed([]float64{110, 108, 106, 104, 102, 120, 130})

	suite.InDelta(10, suite.ledger.GetTotalShares(), 1e-9)
	suite.Equal(1, suite.ledger.GetOpenPositionCount())
}

func (suite *SMACrossTestSuite) TestSellsOnDeathCross() {
	suite.Require().NoError(suite.strategy.Initialize(suite.config()))

	suite.feed([]float64{110, 108, 106, 104, 102, 120, 130, 90, 80, 70})

	suite.InDelta(0, suite.ledger.GetTotalShares(), 1e-9)
	suite.Equal(1, suite.ledger.GetTradeCount())
}

func (suite *SMACrossTestSuite) TestNoTradeBeforeWarmup() {
	suite.Require().NoError(suite.strategy.Initialize(suite.config()))

	suite.feed([]float64{100, 120})

	suite.Empty(suite.ledger.GetOrders())
}

func (suite *SMACrossTestSuite) TestNoSellWithoutHoldings() {
	suite.Require().NoError(suite.strategy.Initialize(suite.config()))

	// fast starts above and crosses below without ever buying
	suite.feed([]float64{100, 102, 104, 106, 108, 90, 80})

	suite.Equal(0, suite.ledger.GetOpenPositionCount())
	suite.Empty(suite.ledger.GetOrders())
}
