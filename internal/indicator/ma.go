package indicator

import (
	"github.com/rxtech-lab/ensemble-backtest/internal/config"
	"github.com/rxtech-lab/ensemble-backtest/internal/types"
)

// SMA computes the short and long simple moving averages for the
// golden-cross strategy.
type SMA struct{}

// NewSMA creates the SMA indicator.
func NewSMA() Indicator {
	return &SMA{}
}

// Name implements Indicator.
func (s *SMA) Name() string {
	return "sma"
}

// MinBars implements Indicator.
func (s *SMA) MinBars(ctx config.Context) int {
	return ctx.Int("sma_long_period", 200) + 1
}

// Apply implements Indicator.
func (s *SMA) Apply(series *types.Series, ctx config.Context) error {
	shortPeriod := ctx.Int("sma_short_period", 50)
	longPeriod := ctx.Int("sma_long_period", 200)

	closes := closeColumn(series)
	if err := series.SetColumn(ColSMAShort, rollingMean(closes, shortPeriod)); err != nil {
		return err
	}
	return series.SetColumn(ColSMALong, rollingMean(closes, longPeriod))
}

// DEMA computes the short and long double exponential moving averages,
// a faster-reacting crossover pair than plain SMAs.
type DEMA struct{}

// NewDEMA creates the DEMA indicator.
func NewDEMA() Indicator {
	return &DEMA{}
}

// Name implements Indicator.
func (d *DEMA) Name() string {
	return "dema"
}

// MinBars implements Indicator.
func (d *DEMA) MinBars(ctx config.Context) int {
	return 2 * ctx.Int("dema_long_period", 50)
}

// Apply implements Indicator.
func (d *DEMA) Apply(series *types.Series, ctx config.Context) error {
	shortPeriod := ctx.Int("dema_short_period", 20)
	longPeriod := ctx.Int("dema_long_period", 50)

	closes := closeColumn(series)
	if err := series.SetColumn(ColDEMAShort, dema(closes, shortPeriod)); err != nil {
		return err
	}
	return series.SetColumn(ColDEMALong, dema(closes, longPeriod))
}

// dema is 2*EMA(x) - EMA(EMA(x)).
func dema(values []float64, period int) []float64 {
	first := ema(values, period)
	out := nanSlice(len(values))
	if 2*(period-1) >= len(values) {
		return out
	}

	// The second EMA starts where the first becomes defined.
	second := ema(first[period-1:], period)
	for i := range second {
		idx := i + period - 1
		if isDefined(second[i]) {
			out[idx] = 2*first[idx] - second[i]
		}
	}
	return out
}

func closeColumn(series *types.Series) []float64 {
	closes := make([]float64, series.Len())
	for i, bar := range series.Bars {
		closes[i] = bar.Close
	}
	return closes
}

func isDefined(v float64) bool {
	return v == v
}
