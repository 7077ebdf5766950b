package indicator

import "math"

// Rolling-window helpers shared by the indicator implementations. All
// of them emit NaN for indices before a full window exists, which is
// how the warm-up invariant propagates into signal generation.

func rollingMax(values []float64, window int) []float64 {
	out := nanSlice(len(values))
	if window <= 0 {
		return out
	}
	for i := window - 1; i < len(values); i++ {
		max := math.Inf(-1)
		for j := i - window + 1; j <= i; j++ {
			if math.IsNaN(values[j]) {
				// Window still overlaps warm-up cells of the input column.
				max = math.NaN()
				break
			}
			if values[j] > max {
				max = values[j]
			}
		}
		out[i] = max
	}
	return out
}

func rollingMin(values []float64, window int) []float64 {
	out := nanSlice(len(values))
	if window <= 0 {
		return out
	}
	for i := window - 1; i < len(values); i++ {
		min := math.Inf(1)
		for j := i - window + 1; j <= i; j++ {
			if math.IsNaN(values[j]) {
				min = math.NaN()
				break
			}
			if values[j] < min {
				min = values[j]
			}
		}
		out[i] = min
	}
	return out
}

func rollingMean(values []float64, window int) []float64 {
	out := nanSlice(len(values))
	if window <= 0 {
		return out
	}
	sum := 0.0
	for i, v := range values {
		sum += v
		if i >= window {
			sum -= values[i-window]
		}
		if i >= window-1 {
			out[i] = sum / float64(window)
		}
	}
	return out
}

// rollingStd computes the rolling sample standard deviation.
func rollingStd(values []float64, window int) []float64 {
	out := nanSlice(len(values))
	if window <= 1 {
		return out
	}
	for i := window - 1; i < len(values); i++ {
		mean := 0.0
		for j := i - window + 1; j <= i; j++ {
			mean += values[j]
		}
		mean /= float64(window)

		variance := 0.0
		for j := i - window + 1; j <= i; j++ {
			d := values[j] - mean
			variance += d * d
		}
		out[i] = math.Sqrt(variance / float64(window-1))
	}
	return out
}

// shift moves a column forward by n rows, filling the head with NaN.
// Shifting rolling extrema by one bar is what keeps channel breakouts
// free of lookahead.
func shift(values []float64, n int) []float64 {
	out := nanSlice(len(values))
	for i := n; i < len(values); i++ {
		out[i] = values[i-n]
	}
	return out
}

// ema computes an exponential moving average seeded with the simple
// mean of the first period values.
func ema(values []float64, period int) []float64 {
	out := nanSlice(len(values))
	if period <= 0 || len(values) < period {
		return out
	}

	seed := 0.0
	for i := 0; i < period; i++ {
		seed += values[i]
	}
	out[period-1] = seed / float64(period)

	alpha := 2.0 / float64(period+1)
	for i := period; i < len(values); i++ {
		out[i] = alpha*values[i] + (1-alpha)*out[i-1]
	}
	return out
}

func nanSlice(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}
