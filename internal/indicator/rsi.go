package indicator

import (
	"github.com/rxtech-lab/ensemble-backtest/internal/config"
	"github.com/rxtech-lab/ensemble-backtest/internal/types"
)

// RSI computes the Relative Strength Index with Wilder's smoothing
// method.
type RSI struct{}

// NewRSI creates the RSI indicator.
func NewRSI() Indicator {
	return &RSI{}
}

// Name implements Indicator.
func (r *RSI) Name() string {
	return "rsi"
}

// MinBars implements Indicator.
func (r *RSI) MinBars(ctx config.Context) int {
	return ctx.Int("rsi_period", 14) + 1
}

// Apply implements Indicator.
func (r *RSI) Apply(series *types.Series, ctx config.Context) error {
	period := ctx.Int("rsi_period", 14)
	rsi := nanSlice(series.Len())

	if series.Len() > period {
		gains := make([]float64, series.Len())
		losses := make([]float64, series.Len())
		for i := 1; i < series.Len(); i++ {
			change := series.Bars[i].Close - series.Bars[i-1].Close
			if change > 0 {
				gains[i] = change
			} else {
				losses[i] = -change
			}
		}

		avgGain := 0.0
		avgLoss := 0.0
		for i := 1; i <= period; i++ {
			avgGain += gains[i]
			avgLoss += losses[i]
		}
		avgGain /= float64(period)
		avgLoss /= float64(period)
		rsi[period] = rsiFromAverages(avgGain, avgLoss)

		for i := period + 1; i < series.Len(); i++ {
			avgGain = (avgGain*float64(period-1) + gains[i]) / float64(period)
			avgLoss = (avgLoss*float64(period-1) + losses[i]) / float64(period)
			rsi[i] = rsiFromAverages(avgGain, avgLoss)
		}
	}

	return series.SetColumn(ColRSI, rsi)
}

func rsiFromAverages(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		// Perfect uptrend
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - (100 / (1 + rs))
}
