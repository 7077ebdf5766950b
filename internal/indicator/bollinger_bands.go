package indicator

import (
	"github.com/rxtech-lab/ensemble-backtest/internal/config"
	"github.com/rxtech-lab/ensemble-backtest/internal/types"
)

// BollingerBands computes the lower/middle/upper bands, the normalized
// bandwidth, and the rolling bandwidth minimum the squeeze strategy
// compares against.
type BollingerBands struct{}

// NewBollingerBands creates the Bollinger band indicator.
func NewBollingerBands() Indicator {
	return &BollingerBands{}
}

// Name implements Indicator.
func (b *BollingerBands) Name() string {
	return "bollinger_bands"
}

// MinBars implements Indicator.
func (b *BollingerBands) MinBars(ctx config.Context) int {
	return ctx.Int("bbands_period", 20)
}

// Apply implements Indicator.
func (b *BollingerBands) Apply(series *types.Series, ctx config.Context) error {
	period := ctx.Int("bbands_period", 20)
	stdDev := ctx.Float("bbands_std_dev", 2.0)
	squeezePeriod := ctx.Int("bbs_squeeze_period", 120)

	closes := closeColumn(series)
	mid := rollingMean(closes, period)
	std := rollingStd(closes, period)

	lower := nanSlice(series.Len())
	upper := nanSlice(series.Len())
	width := nanSlice(series.Len())
	for i := range closes {
		if !isDefined(mid[i]) || !isDefined(std[i]) {
			continue
		}
		lower[i] = mid[i] - stdDev*std[i]
		upper[i] = mid[i] + stdDev*std[i]
		if mid[i] != 0 {
			width[i] = (upper[i] - lower[i]) / mid[i]
		}
	}

	if err := series.SetColumn(ColBBLower, lower); err != nil {
		return err
	}
	if err := series.SetColumn(ColBBMid, mid); err != nil {
		return err
	}
	if err := series.SetColumn(ColBBUpper, upper); err != nil {
		return err
	}
	if err := series.SetColumn(ColBBWidth, width); err != nil {
		return err
	}
	return series.SetColumn(ColBBWMinLow, rollingMin(width, squeezePeriod))
}
