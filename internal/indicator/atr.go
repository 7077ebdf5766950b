package indicator

import (
	"math"

	"github.com/rxtech-lab/ensemble-backtest/internal/config"
	"github.com/rxtech-lab/ensemble-backtest/internal/types"
)

// ATR computes the Average True Range with Wilder smoothing. The value
// feeds optional stop-loss exits and position-risk sizing.
type ATR struct{}

// NewATR creates the ATR indicator.
func NewATR() Indicator {
	return &ATR{}
}

// Name implements Indicator.
func (a *ATR) Name() string {
	return "atr"
}

// MinBars implements Indicator.
func (a *ATR) MinBars(ctx config.Context) int {
	return ctx.Int("atr_period", 20) + 1
}

// Apply implements Indicator.
func (a *ATR) Apply(series *types.Series, ctx config.Context) error {
	period := ctx.Int("atr_period", 20)

	trueRange := make([]float64, series.Len())
	for i, bar := range series.Bars {
		if i == 0 {
			trueRange[i] = bar.High - bar.Low
			continue
		}
		prevClose := series.Bars[i-1].Close
		trueRange[i] = math.Max(bar.High-bar.Low,
			math.Max(math.Abs(bar.High-prevClose), math.Abs(bar.Low-prevClose)))
	}

	atr := nanSlice(series.Len())
	if series.Len() >= period {
		seed := 0.0
		for i := 0; i < period; i++ {
			seed += trueRange[i]
		}
		atr[period-1] = seed / float64(period)

		for i := period; i < series.Len(); i++ {
			atr[i] = (atr[i-1]*float64(period-1) + trueRange[i]) / float64(period)
		}
	}

	return series.SetColumn(ColATR, atr)
}
