package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/rxtech-lab/ensemble-backtest/pkg/errors"
)

type PortfolioTestSuite struct {
	suite.Suite
	portfolio *Portfolio
}

func TestPortfolioSuite(t *testing.T) {
	suite.Run(t, new(PortfolioTestSuite))
}

func (suite *PortfolioTestSuite) SetupTest() {
	suite.portfolio = NewPortfolio(10000, 2)
}

func (suite *PortfolioTestSuite) date(n int) time.Time {
	return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n)
}

func (suite *PortfolioTestSuite) TestSizePositionTruncates() {
	// 10000 over 2 slots at 300 a share: 16.67 truncates to 16.
	suite.Equal(int64(16), suite.portfolio.SizePosition(300, false))
	// Rounding goes up instead.
	suite.Equal(int64(17), suite.portfolio.SizePosition(300, true))
}

func (suite *PortfolioTestSuite) TestSizePositionClampedByCash() {
	suite.Require().NoError(suite.portfolio.Open("AAPL", 90, 100, suite.date(0), 0))

	// Equity still 10000, so the equal split says 50 shares at 100, but
	// only 1000 cash remains.
	suite.Equal(int64(10), suite.portfolio.SizePosition(100, false))
}

func (suite *PortfolioTestSuite) TestSizePositionZeroPrice() {
	suite.Equal(int64(0), suite.portfolio.SizePosition(0, false))
}

func (suite *PortfolioTestSuite) TestOpenAndClose() {
	suite.Require().NoError(suite.portfolio.Open("AAPL", 10, 100, suite.date(0), 0))

	suite.Equal(9000.0, suite.portfolio.Cash())
	suite.Equal(10000.0, suite.portfolio.Equity())
	suite.True(suite.portfolio.Held("AAPL"))
	suite.Equal(1, suite.portfolio.OpenPositions())

	suite.portfolio.MarkToMarket(map[string]float64{"AAPL": 110})
	suite.Equal(10100.0, suite.portfolio.Equity())

	suite.Require().NoError(suite.portfolio.Close("AAPL", 110, suite.date(5), ExitReasonSignal))
	suite.Equal(10100.0, suite.portfolio.Cash())
	suite.False(suite.portfolio.Held("AAPL"))

	trades := suite.portfolio.Trades()
	suite.Require().Len(trades, 1)
	suite.Equal("AAPL", trades[0].Symbol)
	suite.InDelta(100.0, trades[0].Profit, 1e-9)
	suite.Equal(5, trades[0].HoldingDays)
}

func (suite *PortfolioTestSuite) TestOpenDuplicateRejected() {
	suite.Require().NoError(suite.portfolio.Open("AAPL", 10, 100, suite.date(0), 0))

	err := suite.portfolio.Open("AAPL", 5, 100, suite.date(1), 0)
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeInvariantViolation))
}

func (suite *PortfolioTestSuite) TestOpenBeyondCapacityRejected() {
	suite.Require().NoError(suite.portfolio.Open("AAPL", 10, 100, suite.date(0), 0))
	suite.Require().NoError(suite.portfolio.Open("MSFT", 10, 100, suite.date(0), 0))

	err := suite.portfolio.Open("GOOG", 10, 100, suite.date(0), 0)
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeInvariantViolation))
}

func (suite *PortfolioTestSuite) TestOpenBeyondCashRejected() {
	err := suite.portfolio.Open("AAPL", 200, 100, suite.date(0), 0)
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeInvariantViolation))
}

func (suite *PortfolioTestSuite) TestCloseUnknownRejected() {
	err := suite.portfolio.Close("AAPL", 100, suite.date(0), ExitReasonSignal)
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeInvariantViolation))
}

func (suite *PortfolioTestSuite) TestMarkToMarketCarriesForward() {
	suite.Require().NoError(suite.portfolio.Open("AAPL", 10, 100, suite.date(0), 0))

	// No price for AAPL today: the last mark stays.
	suite.portfolio.MarkToMarket(map[string]float64{"MSFT": 50})
	suite.Equal(10000.0, suite.portfolio.Equity())
}

func (suite *PortfolioTestSuite) TestRecord() {
	suite.portfolio.Record(suite.date(0))
	suite.portfolio.MarkToMarket(nil)
	suite.portfolio.Record(suite.date(1))

	curve := suite.portfolio.EquityCurve()
	suite.Require().Len(curve, 2)
	suite.Equal(10000.0, curve[0].Equity)
	suite.Equal(suite.date(1), curve[1].Time)
}
