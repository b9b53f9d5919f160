package screening

import (
	"math"
	"sort"

	"StockPulse/internal/domain/models"
)

// Screener applies one set of weights and plan parameters.
type Screener struct {
	weights Weights
	plan    PlanParams
}

func New(w Weights, p PlanParams) *Screener {
	return &Screener{weights: w, plan: p}
}

// Evaluate classifies and scores a single quote.
func (s *Screener) Evaluate(q models.Quote) models.ScoredCandidate {
	m := Classify(q)
	vwap := VWAP(q)
	if math.IsNaN(vwap) {
		vwap = 0
	} else {
		vwap = math.Round(vwap*100) / 100
	}
	return models.ScoredCandidate{
		Quote:      q,
		Morphology: m,
		VWAP:       vwap,
		Score:      Score(q, m, s.weights),
		Plan:       NewTradePlan(q.Price, s.plan),
	}
}

// Screen filters snap with c, scores the survivors and returns them best
// first. Ties keep code order. Limit 0 returns every match.
func (s *Screener) Screen(snap models.Snapshot, c models.FilterCriteria) models.ScreenResult {
	match := FromCriteria(c)
	out := make([]models.ScoredCandidate, 0, 64)
	for i := range snap.Quotes {
		if match(&snap.Quotes[i]) {
			out = append(out, s.Evaluate(snap.Quotes[i]))
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Code < out[j].Code
	})

	matched := len(out)
	if c.Limit > 0 && len(out) > c.Limit {
		out = out[:c.Limit]
	}
	return models.ScreenResult{
		FetchedAt:  snap.FetchedAt,
		Scanned:    snap.Len(),
		Matched:    matched,
		Candidates: out,
	}
}
