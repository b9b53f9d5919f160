package screening

import (
	"math"

	"StockPulse/internal/domain/models"
)

const maxScore = 99

// Weights configures the heuristic score. Bands are inclusive.
type Weights struct {
	TurnoverMin     float64
	TurnoverMax     float64
	Turnover        float64
	VolumeRatioMin  float64
	VolumeRatioHigh float64
	VolumeRatio     float64
	StrongShape     float64
	AboveVWAP       float64
	NeutralShape    float64
	BelowVWAP       float64
	UpperShadow     float64
	ChangeMin       float64
	ChangeMax       float64
	Change          float64
	FloatCapMin     float64
	FloatCapMax     float64
	FloatCap        float64
	FloatRatioMin   float64
	FloatRatio      float64
}

// DefaultWeights mirrors the shipped configuration.
func DefaultWeights() Weights {
	return Weights{
		TurnoverMin: 8, TurnoverMax: 15, Turnover: 20,
		VolumeRatioMin: 1.5, VolumeRatioHigh: 3, VolumeRatio: 20,
		StrongShape: 25, AboveVWAP: 15, NeutralShape: 5, BelowVWAP: 0, UpperShadow: -10,
		ChangeMin: 3, ChangeMax: 7, Change: 15,
		FloatCapMin: 50, FloatCapMax: 200, FloatCap: 10,
		FloatRatioMin: 0.8, FloatRatio: 10,
	}
}

func between(v, lo, hi float64) bool { return v >= lo && v <= hi }

// Score sums the weighted components and clips the total to [0, 99].
func Score(q models.Quote, m models.Morphology, w Weights) float64 {
	var s float64

	switch {
	case between(q.TurnoverRate, w.TurnoverMin, w.TurnoverMax):
		s += w.Turnover
	case q.TurnoverRate > w.TurnoverMax:
		s += w.Turnover / 2
	}

	switch {
	case q.VolumeRatio >= w.VolumeRatioHigh:
		s += w.VolumeRatio
	case q.VolumeRatio >= w.VolumeRatioMin:
		s += w.VolumeRatio / 2
	}

	switch m {
	case models.MorphologyStrongNoUpperShadow:
		s += w.StrongShape
	case models.MorphologyAboveVWAP:
		s += w.AboveVWAP
	case models.MorphologyBelowVWAP:
		s += w.BelowVWAP
	case models.MorphologyLongUpperShadow:
		s += w.UpperShadow
	default:
		s += w.NeutralShape
	}

	if between(q.ChangePct, w.ChangeMin, w.ChangeMax) {
		s += w.Change
	}
	if between(q.FloatCapYi(), w.FloatCapMin, w.FloatCapMax) {
		s += w.FloatCap
	}
	if q.MarketCap > 0 && q.FloatMarketCap/q.MarketCap >= w.FloatRatioMin {
		s += w.FloatRatio
	}

	return math.Round(math.Max(0, math.Min(maxScore, s))*100) / 100
}
