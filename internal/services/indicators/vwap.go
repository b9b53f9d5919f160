package indicators

import "math"

// SessionVWAP is the intraday average traded price: amount / volume.
// NaN when nothing traded.
func SessionVWAP(amount, volume float64) float64 {
	if volume <= 0 || amount <= 0 {
		return math.NaN()
	}
	return amount / volume
}

// VolumeRatio compares the last volume with the mean of the n before it.
func VolumeRatio(volume []float64, n int) float64 {
	if n <= 0 || len(volume) < n+1 {
		return 0
	}
	var sum float64
	prev := volume[len(volume)-1-n : len(volume)-1]
	for _, v := range prev {
		sum += v
	}
	if sum == 0 {
		return 0
	}
	return volume[len(volume)-1] / (sum / float64(n))
}
