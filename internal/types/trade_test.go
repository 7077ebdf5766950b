package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

type TradeTestSuite struct {
	suite.Suite
}

func TestTradeSuite(t *testing.T) {
	suite.Run(t, new(TradeTestSuite))
}

func (suite *TradeTestSuite) TestNewTrade() {
	entry := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	exit := entry.AddDate(0, 0, 10)

	trade := NewTrade("AAPL", entry, exit, 100, 110, 5, "sell_signal")

	suite.Equal("AAPL", trade.Symbol)
	suite.InDelta(50.0, trade.Profit, 1e-9)
	suite.InDelta(0.1, trade.Return, 1e-9)
	suite.Equal(10, trade.HoldingDays)
}

func (suite *TradeTestSuite) TestNewTradeLoss() {
	entry := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	exit := entry.AddDate(0, 0, 1)

	trade := NewTrade("MSFT", entry, exit, 200, 190, 3, "stop_loss")

	suite.InDelta(-30.0, trade.Profit, 1e-9)
	suite.InDelta(-0.05, trade.Return, 1e-9)
}

func (suite *TradeTestSuite) TestPositionMarketValue() {
	pos := Position{Symbol: "AAPL", Shares: 4, LastPrice: 25}
	suite.Equal(100.0, pos.MarketValue())
}
