package strategy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/rxtech-lab/ensemble-backtest/internal/types"
)

type RelativeStrengthTestSuite struct {
	suite.Suite
}

func TestRelativeStrengthSuite(t *testing.T) {
	suite.Run(t, new(RelativeStrengthTestSuite))
}

func (suite *RelativeStrengthTestSuite) series(symbol string, startDay int, closes ...float64) *types.Series {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]types.Bar, len(closes))
	for i, c := range closes {
		bars[i] = types.Bar{Time: start.AddDate(0, 0, startDay+i), Close: c, High: c, Low: c, Volume: 1}
	}
	series, err := types.NewSeries(symbol, bars)
	suite.Require().NoError(err)
	return series
}

func (suite *RelativeStrengthTestSuite) TestSpreadAgainstBenchmark() {
	stock := suite.series("AAPL", 0, 100, 110, 121)
	benchmark := suite.series("SPY", 0, 100, 105, 110.25)

	suite.Require().NoError(ApplyRelativeStrength(stock, benchmark, 2))

	// Warm-up rows hold the sentinel.
	suite.Equal(RSSentinel, stock.Value(ColRS, 0))
	suite.Equal(RSSentinel, stock.Value(ColRS, 1))
	// Stock +21% vs benchmark +10.25% over the lookback.
	suite.InDelta(0.21-0.1025, stock.Value(ColRS, 2), 1e-9)
}

func (suite *RelativeStrengthTestSuite) TestSentinelWhenOverlapTooShort() {
	stock := suite.series("AAPL", 0, 100, 110, 121, 130)
	// Benchmark only overlaps the last two dates.
	benchmark := suite.series("SPY", 2, 100, 101)

	suite.Require().NoError(ApplyRelativeStrength(stock, benchmark, 3))

	for i := 0; i < stock.Len(); i++ {
		suite.Equal(RSSentinel, stock.Value(ColRS, i), "index %d", i)
	}
}

func (suite *RelativeStrengthTestSuite) TestNilBenchmark() {
	stock := suite.series("AAPL", 0, 100, 110)

	suite.Require().NoError(ApplyRelativeStrength(stock, nil, 2))

	suite.Equal(RSSentinel, stock.Value(ColRS, 0))
	suite.Equal(RSSentinel, stock.Value(ColRS, 1))
}

func (suite *RelativeStrengthTestSuite) TestUnalignedDatesKeepSentinel() {
	stock := suite.series("AAPL", 0, 100, 110, 121, 133, 146)
	// Benchmark misses day 2; the spread is computed in intersection
	// space, so only rows with enough shared history are filled.
	benchmarkBars := []types.Bar{}
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for _, d := range []int{0, 1, 3, 4} {
		benchmarkBars = append(benchmarkBars, types.Bar{Time: start.AddDate(0, 0, d), Close: 100})
	}
	benchmark, err := types.NewSeries("SPY", benchmarkBars)
	suite.Require().NoError(err)

	suite.Require().NoError(ApplyRelativeStrength(stock, benchmark, 2))

	// Day 2 is not in the intersection: sentinel stays.
	suite.Equal(RSSentinel, stock.Value(ColRS, 2))
	// Day 3 is the third shared date: two intersection steps back lands
	// on day 0. Flat benchmark makes the spread the stock's own change.
	suite.InDelta(0.33, stock.Value(ColRS, 3), 1e-9)
	suite.InDelta(146.0/110.0-1, stock.Value(ColRS, 4), 1e-9)
}

func (suite *RelativeStrengthTestSuite) TestSentinelIsNegative() {
	suite.Less(RSSentinel, 0.0)
}
