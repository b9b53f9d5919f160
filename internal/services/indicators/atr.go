package indicators

import talib "github.com/markcheno/go-talib"

// TrueRange per bar. The first bar has no previous close and uses high-low.
func TrueRange(high, low, closes []float64) []float64 {
	n := len(closes)
	if n == 0 || len(high) != n || len(low) != n {
		return nil
	}
	out := talib.TRange(high, low, closes)
	out[0] = high[0] - low[0]
	return out
}

// ATR with Wilder smoothing. The first value sits at index p, the mean of
// the p true ranges that have a previous close.
func ATR(high, low, closes []float64, p int) []float64 {
	n := len(closes)
	if p <= 0 || len(high) != n || len(low) != n {
		return nil
	}
	if n <= p {
		return nans(n)
	}
	return warmup(talib.Atr(high, low, closes, p), p)
}
