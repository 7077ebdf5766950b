package indicator

import (
	"math"

	"github.com/rxtech-lab/ensemble-backtest/internal/config"
	"github.com/rxtech-lab/ensemble-backtest/internal/types"
)

// MACD computes the MACD line (fast EMA minus slow EMA) and its signal
// line (EMA of the MACD line).
type MACD struct{}

// NewMACD creates the MACD indicator.
func NewMACD() Indicator {
	return &MACD{}
}

// Name implements Indicator.
func (m *MACD) Name() string {
	return "macd"
}

// MinBars implements Indicator.
func (m *MACD) MinBars(ctx config.Context) int {
	return ctx.Int("macd_slow_period", 26) + ctx.Int("macd_signal_period", 9)
}

// Apply implements Indicator.
func (m *MACD) Apply(series *types.Series, ctx config.Context) error {
	fastPeriod := ctx.Int("macd_fast_period", 12)
	slowPeriod := ctx.Int("macd_slow_period", 26)
	signalPeriod := ctx.Int("macd_signal_period", 9)

	closes := closeColumn(series)
	fast := ema(closes, fastPeriod)
	slow := ema(closes, slowPeriod)

	macdLine := nanSlice(series.Len())
	for i := range macdLine {
		if isDefined(fast[i]) && isDefined(slow[i]) {
			macdLine[i] = fast[i] - slow[i]
		}
	}

	signalLine := nanSlice(series.Len())
	if slowPeriod-1 < series.Len() {
		defined := macdLine[slowPeriod-1:]
		sig := ema(defined, signalPeriod)
		for i, v := range sig {
			if !math.IsNaN(v) {
				signalLine[i+slowPeriod-1] = v
			}
		}
	}

	if err := series.SetColumn(ColMACD, macdLine); err != nil {
		return err
	}
	return series.SetColumn(ColMACDSig, signalLine)
}
