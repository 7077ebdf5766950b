// Package indicator holds the pure column producers consumed by the
// signal generators. Each indicator appends named float64 columns to a
// Series without mutating OHLCV values; rows inside the warm-up window
// hold NaN and never trigger a trade signal downstream.
package indicator

import (
	"github.com/rxtech-lab/ensemble-backtest/internal/config"
	"github.com/rxtech-lab/ensemble-backtest/internal/types"
)

// Column names produced by the built-in indicators.
const (
	ColEntryHigh = "entry_high"
	ColExitLow   = "exit_low"
	ColATR       = "atr"
	ColRSI       = "rsi"
	ColSMAShort  = "sma_short"
	ColSMALong   = "sma_long"
	ColDEMAShort = "dema_short"
	ColDEMALong  = "dema_long"
	ColMACD      = "macd"
	ColMACDSig   = "macd_signal"
	ColBBLower   = "bbl"
	ColBBMid     = "bbm"
	ColBBUpper   = "bbu"
	ColBBWidth   = "bbw"
	ColBBWMinLow = "bbw_min_low"
	ColOBV       = "obv"
	ColOBVSMA    = "obv_sma"
	ColMFI       = "mfi"
	ColVolSpike  = "vol_spike_ratio"
)

// Indicator computes one family of derived columns.
type Indicator interface {
	// Name identifies the indicator in logs and errors.
	Name() string
	// MinBars returns the longest lookback the indicator needs before it
	// can produce a defined value.
	MinBars(ctx config.Context) int
	// Apply appends the indicator's columns to the series. A series
	// shorter than MinBars yields all-NaN columns, not an error.
	Apply(series *types.Series, ctx config.Context) error
}

// All returns the complete indicator set the ensemble pipeline runs,
// in a fixed order.
func All() []Indicator {
	return []Indicator{
		NewTurtleChannels(),
		NewATR(),
		NewRSI(),
		NewSMA(),
		NewDEMA(),
		NewMACD(),
		NewBollingerBands(),
		NewVolume(),
	}
}

// ApplyAll runs every indicator against the series.
func ApplyAll(series *types.Series, ctx config.Context, indicators ...Indicator) error {
	if len(indicators) == 0 {
		indicators = All()
	}

	for _, ind := range indicators {
		if err := ind.Apply(series, ctx); err != nil {
			return err
		}
	}

	return nil
}
