// Package indicators computes rolling technical indicators over daily bars.
// Every output is aligned to its input and carries NaN during warmup.
package indicators

import (
	"math"

	talib "github.com/markcheno/go-talib"
)

// warmup replaces the first n points with NaN. talib leaves them at zero.
func warmup(out []float64, n int) []float64 {
	for i := 0; i < n && i < len(out); i++ {
		out[i] = math.NaN()
	}
	return out
}

func nans(n int) []float64 { return warmup(make([]float64, n), n) }

// SMA over the last p points.
func SMA(x []float64, p int) []float64 {
	if p <= 0 {
		return nil
	}
	if len(x) < p {
		return nans(len(x))
	}
	return warmup(talib.Sma(x, p), p-1)
}

// MeanStd returns the rolling mean and sample standard deviation (n-1)
// over window p. talib's STDDEV is the population form and is rescaled.
func MeanStd(x []float64, p int) (mean, std []float64) {
	if p <= 1 {
		return nil, nil
	}
	if len(x) < p {
		return nans(len(x)), nans(len(x))
	}
	mean = SMA(x, p)
	std = talib.StdDev(x, p, 1)
	scale := math.Sqrt(float64(p) / float64(p-1))
	for i := range std {
		std[i] *= scale
	}
	return mean, warmup(std, p-1)
}

// Bollinger returns upper, middle and lower bands: SMA(p) ± k·σ.
func Bollinger(x []float64, p int, k float64) (upper, mid, lower []float64) {
	mid, std := MeanStd(x, p)
	if mid == nil {
		return nil, nil, nil
	}
	upper = make([]float64, len(x))
	lower = make([]float64, len(x))
	for i := range x {
		upper[i] = mid[i] + k*std[i]
		lower[i] = mid[i] - k*std[i]
	}
	return upper, mid, lower
}

// Rising reports x[len-1] > x[len-2], false when either is NaN.
func Rising(x []float64) bool {
	n := len(x)
	if n < 2 || math.IsNaN(x[n-1]) || math.IsNaN(x[n-2]) {
		return false
	}
	return x[n-1] > x[n-2]
}

// StrictlyIncreasing reports whether the last n points rise every step.
func StrictlyIncreasing(x []float64, n int) bool {
	if n < 2 || len(x) < n {
		return false
	}
	tail := x[len(x)-n:]
	for i := 1; i < len(tail); i++ {
		if !(tail[i-1] < tail[i]) {
			return false
		}
	}
	return true
}
