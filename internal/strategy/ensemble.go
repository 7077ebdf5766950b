package strategy

import (
	"github.com/rxtech-lab/ensemble-backtest/internal/config"
	"github.com/rxtech-lab/ensemble-backtest/internal/indicator"
	"github.com/rxtech-lab/ensemble-backtest/internal/types"
	"github.com/rxtech-lab/ensemble-backtest/pkg/errors"
)

// Columns produced by the ensemble scorer. The boolean triggers are
// stored as 1/0 floats alongside the other columns.
const (
	ColScore      = "score"
	ColBuySignal  = "buy_signal"
	ColSellSignal = "sell_signal"
)

// ApplyEnsemble merges the per-strategy signal columns into one
// real-valued score per day and derives the buy/sell triggers the
// portfolio simulator consumes. A strategy whose signal is +1 on a day
// contributes its configured weight ("<name>_weight", default 1.0, 0.5
// for the volume confirmations); the relative strength component
// contributes "rs_weight" whenever the momentum spread is positive.
//
// The buy trigger additionally requires a close above the entry channel
// high, and a positive momentum spread when relative strength is
// enabled. The sell trigger fires on a close below the exit channel
// low. The raw score is kept for ranking same-day candidates.
func ApplyEnsemble(series *types.Series, ctx config.Context) error {
	if !series.HasColumn(indicator.ColEntryHigh, indicator.ColExitLow) {
		return errors.Newf(errors.ErrCodeMissingColumn,
			"series %s is missing turtle channel columns; run indicators before the ensemble", series.Symbol)
	}

	rsWeight := ctx.Float("rs_weight", 0.0)
	threshold := ctx.Float("score_threshold", 1.0)

	score := make([]float64, series.Len())
	for _, name := range AllNames() {
		col := SignalColumn(name)
		if !series.HasColumn(col) {
			continue
		}
		weight := ctx.Float(string(name)+"_weight", defaultWeight(name))
		for i := 0; i < series.Len(); i++ {
			if types.SignalValue(series.Value(col, i)) == types.SignalEnter {
				score[i] += weight
			}
		}
	}

	if rsWeight > 0 && series.HasColumn(ColRS) {
		for i := 0; i < series.Len(); i++ {
			if series.Value(ColRS, i) > 0 {
				score[i] += rsWeight
			}
		}
	}

	buy := make([]float64, series.Len())
	sell := make([]float64, series.Len())
	for i := 0; i < series.Len(); i++ {
		close := series.Bars[i].Close

		buySignal := score[i] >= threshold &&
			series.Defined(indicator.ColEntryHigh, i) &&
			close > series.Value(indicator.ColEntryHigh, i)
		if rsWeight > 0 {
			buySignal = buySignal && series.Value(ColRS, i) > 0
		}
		if buySignal {
			buy[i] = 1
		}

		if series.Defined(indicator.ColExitLow, i) && close < series.Value(indicator.ColExitLow, i) {
			sell[i] = 1
		}
	}

	if err := series.SetColumn(ColScore, score); err != nil {
		return err
	}
	if err := series.SetColumn(ColBuySignal, buy); err != nil {
		return err
	}
	return series.SetColumn(ColSellSignal, sell)
}
