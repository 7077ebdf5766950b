package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/rxtech-lab/ensemble-backtest/internal/backtest/engine"
	"github.com/rxtech-lab/ensemble-backtest/internal/types"
)

type MetricsTestSuite struct {
	suite.Suite
}

func TestMetricsSuite(t *testing.T) {
	suite.Run(t, new(MetricsTestSuite))
}

func day(n int) time.Time {
	return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n)
}

func curveOf(equities ...float64) []types.EquityPoint {
	curve := make([]types.EquityPoint, len(equities))
	for i, equity := range equities {
		curve[i] = types.EquityPoint{Time: day(i), Equity: equity}
	}
	return curve
}

func (suite *MetricsTestSuite) TestZeroTradesDefaults() {
	result := &engine.Result{
		InitialCapital:     10000,
		EquityCurve:        curveOf(10000, 10000, 10000),
		DailyOpenPositions: []int{0, 0, 0},
	}

	stats := Compute(result)

	suite.Equal(0, stats.TotalTrades)
	suite.Equal(0.0, stats.WinRate)
	suite.Equal(0.0, stats.ProfitFactor)
	suite.Equal(0.0, stats.SQN)
	suite.Equal(0.0, stats.TotalReturn)
	suite.Equal(0.0, stats.Volatility)
	suite.Equal(0.0, stats.Sharpe)
	suite.Equal(0.0, stats.Exposure)
	suite.Empty(stats.ID)
}

func (suite *MetricsTestSuite) TestComputeIsPure() {
	entry := day(1)
	exit := day(20)
	result := &engine.Result{
		InitialCapital:     10000,
		EquityCurve:        curveOf(10000, 10500, 10200, 11000, 11800),
		DailyOpenPositions: []int{0, 1, 1, 1, 0},
		Trades: []types.Trade{
			types.NewTrade("AAA", entry, exit, 100, 118, 10, "sell_signal"),
		},
	}

	first := Compute(result)
	second := Compute(result)

	suite.Equal(first, second)
	suite.Equal(first.Flatten(), second.Flatten())
}

func (suite *MetricsTestSuite) TestTotalReturnAndFinalEquity() {
	result := &engine.Result{
		InitialCapital: 10000,
		EquityCurve:    curveOf(10000, 11000, 12000),
	}

	stats := Compute(result)

	suite.InDelta(20.0, stats.TotalReturn, 1e-9)
	suite.Equal(12000.0, stats.FinalEquity)
}

func (suite *MetricsTestSuite) TestCAGROneYearDouble() {
	curve := []types.EquityPoint{
		{Time: day(0), Equity: 10000},
		{Time: day(365), Equity: 20000},
	}
	result := &engine.Result{InitialCapital: 10000, EquityCurve: curve}

	stats := Compute(result)

	suite.InDelta(100.0, stats.CAGR, 1e-6)
}

func (suite *MetricsTestSuite) TestMaxDrawdownBounds() {
	result := &engine.Result{
		InitialCapital: 10000,
		EquityCurve:    curveOf(10000, 12000, 6000, 9000),
	}

	stats := Compute(result)

	suite.InDelta(-50.0, stats.MaxDrawdown, 1e-9)
	suite.LessOrEqual(stats.MaxDrawdown, 0.0)
	suite.GreaterOrEqual(stats.MaxDrawdown, -100.0)
}

func (suite *MetricsTestSuite) TestTradeQuality() {
	trades := []types.Trade{
		types.NewTrade("AAA", day(0), day(10), 100, 110, 10, "sell_signal"),
		types.NewTrade("BBB", day(0), day(20), 100, 95, 10, "sell_signal"),
		types.NewTrade("CCC", day(0), day(30), 100, 120, 10, "sell_signal"),
	}
	result := &engine.Result{
		InitialCapital:     10000,
		EquityCurve:        curveOf(10000, 10250),
		Trades:             trades,
		DailyOpenPositions: []int{1, 0},
	}

	stats := Compute(result)

	suite.Equal(3, stats.TotalTrades)
	suite.InDelta(66.667, stats.WinRate, 0.01)
	// Gross profit 300, gross loss 50.
	suite.InDelta(6.0, stats.ProfitFactor, 1e-9)
	suite.InDelta(15.0, stats.AvgWin, 1e-9)
	suite.InDelta(-5.0, stats.AvgLoss, 1e-9)
	suite.InDelta(20.0, stats.AvgHolding, 1e-9)
	suite.InDelta(50.0, stats.Exposure, 1e-9)
	suite.NotZero(stats.SQN)
}

func (suite *MetricsTestSuite) TestProfitFactorZeroLoss() {
	suite.Equal(300.0, profitFactor(300, 0))
	suite.Equal(0.0, profitFactor(0, 0))
	suite.InDelta(2.0, profitFactor(100, 50), 1e-9)
}

func (suite *MetricsTestSuite) TestYearlyReturns() {
	curve := []types.EquityPoint{
		{Time: time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC), Equity: 10000},
		{Time: time.Date(2023, 12, 29, 0, 0, 0, 0, time.UTC), Equity: 11000},
		{Time: time.Date(2024, 6, 28, 0, 0, 0, 0, time.UTC), Equity: 12100},
	}
	result := &engine.Result{InitialCapital: 10000, EquityCurve: curve}

	stats := Compute(result)

	suite.InDelta(10.0, stats.YearlyReturns["2023"], 1e-9)
	suite.InDelta(10.0, stats.YearlyReturns["2024"], 1e-9)
}

func (suite *MetricsTestSuite) TestEmptyCurve() {
	result := &engine.Result{InitialCapital: 10000}

	stats := Compute(result)

	suite.Equal(10000.0, stats.FinalEquity)
	suite.Equal(0.0, stats.TotalReturn)
}
