package ledger

import (
	"testing"

	"github.com/argolabs/paperledger/internal/logger"
	"github.com/stretchr/testify/suite"
)

type EquityTestSuite struct {
	suite.Suite
	ledger *Ledger
}

func TestEquitySuite(t *testing.T) {
	suite.Run(t, new(EquityTestSuite))
}

func (suite *EquityTestSuite) SetupTest() {
	suite.ledger = New(10000, logger.NewNopLogger())
}

func (suite *EquityTestSuite) TestCurveStartsAtStartingBalance() {
	suite.Equal([]float64{10000}, suite.ledger.GetBalanceHistory())
	suite.Equal([]int64{0}, suite.ledger.GetTimepoints())
}

func (suite *EquityTestSuite) TestCurveAccumulatesRealizedPnL() {
	suite.ledger.PlaceBuyOrder(1, 100, 10)
	suite.ledger.PlaceSellOrderQuantity(2, 120, 10) // +200
	suite.ledger.PlaceBuyOrder(3, 100, 10)
	suite.ledger.PlaceSellOrderQuantity(4, 90, 10) // -100

	history := suite.ledger.GetBalanceHistory()
	timepoints := suite.ledger.GetTimepoints()

	suite.Equal([]int64{0, 2, 4}, timepoints)
	suite.InDelta(10000, history[0], 1e-9)
	suite.InDelta(10200, history[1], 1e-9)
	suite.InDelta(10100, history[2], 1e-9)
}

func (suite *EquityTestSuite) TestCurveSortedByCloseTime() {
	suite.ledger.PlaceBuyOrder(1, 100, 5)
	suite.ledger.PlaceBuyOrder(1, 200, 5)

	// closes arrive out of time order
	suite.ledger.PlaceSellOrderQuantity(9, 120, 5) // first lot, +100
	suite.ledger.PlaceSellOrderQuantity(4, 150, 5) // second lot, -250

	history := suite.ledger.GetBalanceHistory()
	timepoints := suite.ledger.GetTimepoints()

	suite.Equal([]int64{0, 4, 9}, timepoints)
	suite.InDelta(10000, history[0], 1e-9)
	suite.InDelta(9750, history[1], 1e-9)
	suite.InDelta(9850, history[2], 1e-9)
}

func (suite *EquityTestSuite) TestUnexecutedOrdersLeaveCurveUntouched() {
	suite.ledger.ResetWithBalance(100)
	suite.ledger.PlaceBuyOrder(1, 100, 10) // rejected, logged

	suite.Equal([]float64{100}, suite.ledger.GetBalanceHistory())
	suite.Equal([]int64{0}, suite.ledger.GetTimepoints())
}

func (suite *EquityTestSuite) TestResetRestartsCurve() {
	suite.ledger.PlaceBuyOrder(1, 100, 10)
	suite.ledger.PlaceSellOrder(2, 120, 100)
	suite.ledger.Reset()

	suite.Equal([]float64{10000}, suite.ledger.GetBalanceHistory())
	suite.Equal([]int64{0}, suite.ledger.GetTimepoints())
}

func (suite *EquityTestSuite) TestReturnedSlicesAreCopies() {
	suite.ledger.PlaceBuyOrder(1, 100, 10)
	suite.ledger.PlaceSellOrder(2, 120, 100)

	history := suite.ledger.GetBalanceHistory()
	history[0] = -1

	suite.InDelta(10000, suite.ledger.GetBalanceHistory()[0], 1e-9)
}
