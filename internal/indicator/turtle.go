package indicator

import (
	"github.com/rxtech-lab/ensemble-backtest/internal/config"
	"github.com/rxtech-lab/ensemble-backtest/internal/types"
)

// TurtleChannels computes the N-day rolling high used as a breakout
// entry threshold and the M-day rolling low used as a breakdown exit
// threshold. Both are shifted by one bar so a breakout on day d is
// tested against the channel built strictly from bars before d.
type TurtleChannels struct{}

// NewTurtleChannels creates the turtle channel indicator.
func NewTurtleChannels() Indicator {
	return &TurtleChannels{}
}

// Name implements Indicator.
func (t *TurtleChannels) Name() string {
	return "turtle_channels"
}

// MinBars implements Indicator.
func (t *TurtleChannels) MinBars(ctx config.Context) int {
	entry := ctx.Int("entry_period", 20)
	exit := ctx.Int("exit_period", 10)
	if entry > exit {
		return entry + 1
	}
	return exit + 1
}

// Apply implements Indicator.
func (t *TurtleChannels) Apply(series *types.Series, ctx config.Context) error {
	entryPeriod := ctx.Int("entry_period", 20)
	exitPeriod := ctx.Int("exit_period", 10)

	highs := make([]float64, series.Len())
	lows := make([]float64, series.Len())
	for i, bar := range series.Bars {
		highs[i] = bar.High
		lows[i] = bar.Low
	}

	if err := series.SetColumn(ColEntryHigh, shift(rollingMax(highs, entryPeriod), 1)); err != nil {
		return err
	}
	return series.SetColumn(ColExitLow, shift(rollingMin(lows, exitPeriod), 1))
}
