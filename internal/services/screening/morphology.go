package screening

import (
	"math"

	"StockPulse/internal/domain/models"
	"StockPulse/internal/services/indicators"
)

const (
	// closes within half a tick of the high count as closing at the high
	tickTolerance        = 0.005
	strongChangePct      = 3.0
	longUpperShadowRatio = 0.02
)

// VWAP of the current session, NaN when nothing traded.
func VWAP(q models.Quote) float64 {
	return indicators.SessionVWAP(q.Amount, q.Volume)
}

// Classify tags the session candle. Rules are checked in order.
func Classify(q models.Quote) models.Morphology {
	if q.Price <= 0 {
		return models.MorphologyNeutral
	}
	if math.Abs(q.High-q.Price) <= tickTolerance && q.ChangePct > strongChangePct {
		return models.MorphologyStrongNoUpperShadow
	}
	if (q.High-q.Price)/q.Price > longUpperShadowRatio {
		return models.MorphologyLongUpperShadow
	}
	vwap := VWAP(q)
	switch {
	case math.IsNaN(vwap):
		return models.MorphologyNeutral
	case q.Price > vwap:
		return models.MorphologyAboveVWAP
	case q.Price < vwap:
		return models.MorphologyBelowVWAP
	default:
		return models.MorphologyNeutral
	}
}
