package strategy

import (
	"github.com/rxtech-lab/ensemble-backtest/internal/config"
	"github.com/rxtech-lab/ensemble-backtest/internal/indicator"
	"github.com/rxtech-lab/ensemble-backtest/internal/types"
)

// Generate runs one strategy's signal scan over the series, appending
// its signal column (and, for the stateful strategies, its position
// column). A series too short for the strategy's indicators produces
// an all-flat column, never an error that aborts the caller.
func Generate(series *types.Series, ctx config.Context, name Name) error {
	switch name {
	case OBV:
		return generateFlag(series, name, func(i int) bool {
			return series.Defined(indicator.ColOBV, i) &&
				series.Defined(indicator.ColOBVSMA, i) &&
				series.Value(indicator.ColOBV, i) > series.Value(indicator.ColOBVSMA, i)
		})
	case MFI:
		threshold := ctx.Float("mfi_threshold", 80)
		return generateFlag(series, name, func(i int) bool {
			return series.Defined(indicator.ColMFI, i) &&
				series.Value(indicator.ColMFI, i) > threshold
		})
	case VolSpike:
		threshold := ctx.Float("vol_spike_threshold", 2.0)
		return generateFlag(series, name, func(i int) bool {
			return series.Defined(indicator.ColVolSpike, i) &&
				series.Value(indicator.ColVolSpike, i) >= threshold
		})
	default:
		rule := ruleFor(name, ctx)
		if rule == nil {
			_, err := Parse(string(name))
			if err != nil {
				return err
			}
		}
		return generateFSM(series, rule)
	}
}

// GenerateAll runs every known strategy against the series.
func GenerateAll(series *types.Series, ctx config.Context) error {
	for _, name := range AllNames() {
		if err := Generate(series, ctx, name); err != nil {
			return err
		}
	}
	return nil
}

// generateFSM walks the series once, threading the FLAT/LONG state
// through the loop. The scan starts at index 1: the first row cannot
// evaluate a crossover. Undefined-indicator days are holds.
func generateFSM(series *types.Series, rule Rule) error {
	signals := make([]float64, series.Len())
	positions := make([]float64, series.Len())

	state := types.PositionFlat
	for i := 1; i < series.Len(); i++ {
		if rule.Ready(series, i) {
			if state == types.PositionFlat && rule.Entry(series, i) {
				signals[i] = float64(types.SignalEnter)
				state = types.PositionLong
			} else if state == types.PositionLong && rule.Exit(series, i) {
				signals[i] = float64(types.SignalExit)
				state = types.PositionFlat
			}
		}
		positions[i] = float64(state)
	}

	if err := series.SetColumn(SignalColumn(rule.Name()), signals); err != nil {
		return err
	}
	return series.SetColumn(PositionColumn(rule.Name()), positions)
}

// generateFlag emits +1 while the condition holds. Flag strategies are
// confirmation inputs to the ensemble score and carry no exit leg.
func generateFlag(series *types.Series, name Name, condition func(i int) bool) error {
	signals := make([]float64, series.Len())
	for i := 0; i < series.Len(); i++ {
		if condition(i) {
			signals[i] = float64(types.SignalEnter)
		}
	}
	return series.SetColumn(SignalColumn(name), signals)
}
