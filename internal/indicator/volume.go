package indicator

import (
	"github.com/rxtech-lab/ensemble-backtest/internal/config"
	"github.com/rxtech-lab/ensemble-backtest/internal/types"
)

// Volume computes the volume-derived columns: on-balance volume with
// its moving average, the money flow index, and the volume spike ratio
// against the trailing mean.
type Volume struct{}

// NewVolume creates the volume indicator family.
func NewVolume() Indicator {
	return &Volume{}
}

// Name implements Indicator.
func (v *Volume) Name() string {
	return "volume"
}

// MinBars implements Indicator.
func (v *Volume) MinBars(ctx config.Context) int {
	min := ctx.Int("obv_sma_period", 20)
	if mfi := ctx.Int("mfi_period", 14) + 1; mfi > min {
		min = mfi
	}
	if spike := ctx.Int("vol_spike_period", 20); spike > min {
		min = spike
	}
	return min
}

// Apply implements Indicator.
func (v *Volume) Apply(series *types.Series, ctx config.Context) error {
	obvSMAPeriod := ctx.Int("obv_sma_period", 20)
	mfiPeriod := ctx.Int("mfi_period", 14)
	spikePeriod := ctx.Int("vol_spike_period", 20)

	n := series.Len()

	// On-balance volume: cumulative volume signed by close direction.
	obv := make([]float64, n)
	for i, bar := range series.Bars {
		if i == 0 {
			obv[i] = bar.Volume
			continue
		}
		switch {
		case bar.Close > series.Bars[i-1].Close:
			obv[i] = obv[i-1] + bar.Volume
		case bar.Close < series.Bars[i-1].Close:
			obv[i] = obv[i-1] - bar.Volume
		default:
			obv[i] = obv[i-1]
		}
	}

	// Money flow index over typical price.
	mfi := nanSlice(n)
	positiveFlow := make([]float64, n)
	negativeFlow := make([]float64, n)
	prevTypical := 0.0
	for i, bar := range series.Bars {
		typical := (bar.High + bar.Low + bar.Close) / 3
		if i > 0 {
			flow := typical * bar.Volume
			if typical > prevTypical {
				positiveFlow[i] = flow
			} else if typical < prevTypical {
				negativeFlow[i] = flow
			}
		}
		prevTypical = typical
	}
	for i := mfiPeriod; i < n; i++ {
		posSum := 0.0
		negSum := 0.0
		for j := i - mfiPeriod + 1; j <= i; j++ {
			posSum += positiveFlow[j]
			negSum += negativeFlow[j]
		}
		if negSum == 0 {
			mfi[i] = 100
			continue
		}
		mfi[i] = 100 - 100/(1+posSum/negSum)
	}

	volumes := make([]float64, n)
	for i, bar := range series.Bars {
		volumes[i] = bar.Volume
	}
	meanVolume := rollingMean(volumes, spikePeriod)
	spike := nanSlice(n)
	for i := range volumes {
		if isDefined(meanVolume[i]) && meanVolume[i] > 0 {
			spike[i] = volumes[i] / meanVolume[i]
		}
	}

	if err := series.SetColumn(ColOBV, obv); err != nil {
		return err
	}
	if err := series.SetColumn(ColOBVSMA, rollingMean(obv, obvSMAPeriod)); err != nil {
		return err
	}
	if err := series.SetColumn(ColMFI, mfi); err != nil {
		return err
	}
	return series.SetColumn(ColVolSpike, spike)
}
