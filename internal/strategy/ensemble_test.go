package strategy

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/rxtech-lab/ensemble-backtest/internal/config"
	"github.com/rxtech-lab/ensemble-backtest/internal/indicator"
	"github.com/rxtech-lab/ensemble-backtest/pkg/errors"
)

type EnsembleTestSuite struct {
	suite.Suite
}

func TestEnsembleSuite(t *testing.T) {
	suite.Run(t, new(EnsembleTestSuite))
}

func (suite *EnsembleTestSuite) TestMissingChannelColumns() {
	series := barsFromCloses(&suite.Suite, "TEST", []float64{10, 11})

	err := ApplyEnsemble(series, config.NewContext(nil))
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeMissingColumn))
}

func (suite *EnsembleTestSuite) TestScoreSumsWeights() {
	series := barsFromCloses(&suite.Suite, "TEST", []float64{10, 20})
	suite.Require().NoError(series.SetColumn(indicator.ColEntryHigh, []float64{15, 15}))
	suite.Require().NoError(series.SetColumn(indicator.ColExitLow, []float64{5, 5}))
	suite.Require().NoError(series.SetColumn(SignalColumn(Turtle), []float64{0, 1}))
	suite.Require().NoError(series.SetColumn(SignalColumn(RSI), []float64{0, 1}))
	suite.Require().NoError(series.SetColumn(SignalColumn(OBV), []float64{0, 1}))

	suite.Require().NoError(ApplyEnsemble(series, config.NewContext(nil)))

	// Two full-weight channels plus one half-weight confirmation.
	suite.Equal(0.0, series.Value(ColScore, 0))
	suite.Equal(2.5, series.Value(ColScore, 1))
	suite.Equal(1.0, series.Value(ColBuySignal, 1))
}

func (suite *EnsembleTestSuite) TestCustomWeightOverride() {
	series := barsFromCloses(&suite.Suite, "TEST", []float64{20})
	suite.Require().NoError(series.SetColumn(indicator.ColEntryHigh, []float64{15}))
	suite.Require().NoError(series.SetColumn(indicator.ColExitLow, []float64{5}))
	suite.Require().NoError(series.SetColumn(SignalColumn(Turtle), []float64{1}))

	ctx := config.NewContext(map[string]any{"turtle_weight": 3.0})
	suite.Require().NoError(ApplyEnsemble(series, ctx))

	suite.Equal(3.0, series.Value(ColScore, 0))
}

func (suite *EnsembleTestSuite) TestBuyRequiresBreakout() {
	// Score clears the threshold but the close sits below the entry
	// channel: no buy.
	series := barsFromCloses(&suite.Suite, "TEST", []float64{10})
	suite.Require().NoError(series.SetColumn(indicator.ColEntryHigh, []float64{15}))
	suite.Require().NoError(series.SetColumn(indicator.ColExitLow, []float64{5}))
	suite.Require().NoError(series.SetColumn(SignalColumn(Turtle), []float64{1}))

	suite.Require().NoError(ApplyEnsemble(series, config.NewContext(nil)))

	suite.Equal(1.0, series.Value(ColScore, 0))
	suite.Equal(0.0, series.Value(ColBuySignal, 0))
}

func (suite *EnsembleTestSuite) TestBuyBelowThreshold() {
	series := barsFromCloses(&suite.Suite, "TEST", []float64{20})
	suite.Require().NoError(series.SetColumn(indicator.ColEntryHigh, []float64{15}))
	suite.Require().NoError(series.SetColumn(indicator.ColExitLow, []float64{5}))
	suite.Require().NoError(series.SetColumn(SignalColumn(OBV), []float64{1}))

	suite.Require().NoError(ApplyEnsemble(series, config.NewContext(nil)))

	// 0.5 < the default threshold of 1.0.
	suite.Equal(0.0, series.Value(ColBuySignal, 0))
}

func (suite *EnsembleTestSuite) TestRelativeStrengthGate() {
	series := barsFromCloses(&suite.Suite, "TEST", []float64{20, 20})
	suite.Require().NoError(series.SetColumn(indicator.ColEntryHigh, []float64{15, 15}))
	suite.Require().NoError(series.SetColumn(indicator.ColExitLow, []float64{5, 5}))
	suite.Require().NoError(series.SetColumn(SignalColumn(Turtle), []float64{1, 1}))
	suite.Require().NoError(series.SetColumn(ColRS, []float64{RSSentinel, 0.05}))

	ctx := config.NewContext(map[string]any{"rs_weight": 0.5})
	suite.Require().NoError(ApplyEnsemble(series, ctx))

	// Day 0: negative spread blocks the buy despite the breakout.
	suite.Equal(0.0, series.Value(ColBuySignal, 0))
	suite.Equal(1.0, series.Value(ColScore, 0))
	// Day 1: positive spread adds rs_weight and unblocks the buy.
	suite.Equal(1.5, series.Value(ColScore, 1))
	suite.Equal(1.0, series.Value(ColBuySignal, 1))
}

func (suite *EnsembleTestSuite) TestSellOnBreakdown() {
	series := barsFromCloses(&suite.Suite, "TEST", []float64{4, 10})
	suite.Require().NoError(series.SetColumn(indicator.ColEntryHigh, []float64{15, 15}))
	suite.Require().NoError(series.SetColumn(indicator.ColExitLow, []float64{5, 5}))

	suite.Require().NoError(ApplyEnsemble(series, config.NewContext(nil)))

	suite.Equal(1.0, series.Value(ColSellSignal, 0))
	suite.Equal(0.0, series.Value(ColSellSignal, 1))
}
