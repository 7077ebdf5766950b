package datasource

import (
	"testing"
	"time"

	"github.com/moznion/go-optional"
	"github.com/stretchr/testify/suite"

	"github.com/rxtech-lab/ensemble-backtest/internal/logger"
	"github.com/rxtech-lab/ensemble-backtest/internal/types"
	"github.com/rxtech-lab/ensemble-backtest/pkg/errors"
)

func sampleBars(n int) []types.Bar {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]types.Bar, n)
	for i := range bars {
		price := 100 + float64(i)
		bars[i] = types.Bar{
			Time:   start.AddDate(0, 0, i),
			Open:   price,
			High:   price + 1,
			Low:    price - 1,
			Close:  price,
			Volume: 1000,
		}
	}
	return bars
}

type DuckDBDataSourceTestSuite struct {
	suite.Suite
	source *DuckDBDataSource
}

func TestDuckDBDataSourceSuite(t *testing.T) {
	suite.Run(t, new(DuckDBDataSourceTestSuite))
}

func (suite *DuckDBDataSourceTestSuite) SetupTest() {
	source, err := NewDuckDBDataSource("", logger.NewNopLogger())
	suite.Require().NoError(err)
	suite.source = source
}

func (suite *DuckDBDataSourceTestSuite) TearDownTest() {
	suite.Require().NoError(suite.source.Close())
}

func (suite *DuckDBDataSourceTestSuite) TestInsertAndGetHistory() {
	suite.Require().NoError(suite.source.InsertBars("AAPL", sampleBars(5)))

	bars, err := suite.source.GetHistory("AAPL", optional.None[time.Time](), optional.None[time.Time]())
	suite.Require().NoError(err)

	suite.Require().Len(bars, 5)
	suite.Equal(100.0, bars[0].Close)
	suite.Equal(104.0, bars[4].Close)
	suite.True(bars[0].Time.Before(bars[1].Time))
}

func (suite *DuckDBDataSourceTestSuite) TestGetHistoryBounded() {
	suite.Require().NoError(suite.source.InsertBars("AAPL", sampleBars(10)))

	start := time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 6, 0, 0, 0, 0, time.UTC)
	bars, err := suite.source.GetHistory("AAPL", optional.Some(start), optional.Some(end))
	suite.Require().NoError(err)

	suite.Require().Len(bars, 4)
	suite.Equal(start, bars[0].Time.UTC())
	suite.Equal(end, bars[3].Time.UTC())
}

func (suite *DuckDBDataSourceTestSuite) TestGetHistoryUnknownSymbol() {
	_, err := suite.source.GetHistory("NOPE", optional.None[time.Time](), optional.None[time.Time]())
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeDataNotFound))
}

func (suite *DuckDBDataSourceTestSuite) TestSymbols() {
	suite.Require().NoError(suite.source.InsertBars("MSFT", sampleBars(2)))
	suite.Require().NoError(suite.source.InsertBars("AAPL", sampleBars(2)))

	symbols, err := suite.source.Symbols()
	suite.Require().NoError(err)

	suite.Equal([]string{"AAPL", "MSFT"}, symbols)
}

type MemoryDataSourceTestSuite struct {
	suite.Suite
	source *MemoryDataSource
}

func TestMemoryDataSourceSuite(t *testing.T) {
	suite.Run(t, new(MemoryDataSourceTestSuite))
}

func (suite *MemoryDataSourceTestSuite) SetupTest() {
	suite.source = NewMemoryDataSource()
}

func (suite *MemoryDataSourceTestSuite) TestSetBarsSortsInput() {
	bars := sampleBars(3)
	reversed := []types.Bar{bars[2], bars[0], bars[1]}
	suite.source.SetBars("AAPL", reversed)

	got, err := suite.source.GetHistory("AAPL", optional.None[time.Time](), optional.None[time.Time]())
	suite.Require().NoError(err)

	suite.Equal(100.0, got[0].Close)
	suite.Equal(102.0, got[2].Close)
}

func (suite *MemoryDataSourceTestSuite) TestGetHistoryBounded() {
	suite.source.SetBars("AAPL", sampleBars(10))

	start := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)
	bars, err := suite.source.GetHistory("AAPL", optional.Some(start), optional.None[time.Time]())
	suite.Require().NoError(err)

	suite.Len(bars, 6)
	suite.Equal(start, bars[0].Time)
}

func (suite *MemoryDataSourceTestSuite) TestUnknownSymbol() {
	_, err := suite.source.GetHistory("NOPE", optional.None[time.Time](), optional.None[time.Time]())
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeDataNotFound))
}

func (suite *MemoryDataSourceTestSuite) TestGetSeries() {
	suite.source.SetBars("AAPL", sampleBars(3))

	series, err := GetSeries(suite.source, "AAPL", optional.None[time.Time](), optional.None[time.Time]())
	suite.Require().NoError(err)

	suite.Equal("AAPL", series.Symbol)
	suite.Equal(3, series.Len())
}
