// Package strategy turns indicator columns into per-day trade signals,
// merges them into an ensemble score, and derives the buy/sell triggers
// the portfolio simulator consumes.
package strategy

import (
	"fmt"

	"github.com/rxtech-lab/ensemble-backtest/pkg/errors"
)

// Name identifies one of the known strategies. The set is closed:
// dispatch happens over this enum, so an unknown name is a
// caller-visible configuration error rather than a silent miss.
type Name string

const (
	Turtle   Name = "turtle"
	RSI      Name = "rsi"
	SMA      Name = "sma"
	BBands   Name = "bbands"
	MACD     Name = "macd"
	BBS      Name = "bbs"
	DEMA     Name = "dema"
	OBV      Name = "obv"
	MFI      Name = "mfi"
	VolSpike Name = "vol_spike"
)

// AllNames returns every known strategy in the fixed ensemble order.
func AllNames() []Name {
	return []Name{Turtle, RSI, SMA, BBands, MACD, BBS, DEMA, OBV, MFI, VolSpike}
}

// Parse validates a strategy name requested by the caller.
func Parse(s string) (Name, error) {
	for _, name := range AllNames() {
		if string(name) == s {
			return name, nil
		}
	}
	return "", errors.Newf(errors.ErrCodeUnknownStrategy, "unknown strategy name %q", s)
}

// SignalColumn returns the series column holding the strategy's
// per-day signal values.
func SignalColumn(name Name) string {
	return fmt.Sprintf("signal_%s", name)
}

// PositionColumn returns the series column holding the strategy's
// per-day position flag.
func PositionColumn(name Name) string {
	return fmt.Sprintf("position_%s", name)
}

// defaultWeight is the ensemble weight applied when no
// "<name>_weight" key overrides it. The confirmation-style volume
// strategies carry half weight.
func defaultWeight(name Name) float64 {
	switch name {
	case OBV, MFI, VolSpike:
		return 0.5
	default:
		return 1.0
	}
}
