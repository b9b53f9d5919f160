// Package screening filters, classifies and scores snapshot quotes.
// Everything here is pure and safe for concurrent use.
package screening

import (
	"StockPulse/internal/domain/models"
	"StockPulse/pkg/util"
)

// Criterion is one predicate over a quote.
type Criterion func(*models.Quote) bool

// And passes when every non-nil criterion passes.
func And(cs ...Criterion) Criterion {
	return func(q *models.Quote) bool {
		if q == nil {
			return false
		}
		for _, c := range cs {
			if c != nil && !c(q) {
				return false
			}
		}
		return true
	}
}

// Or passes when any non-nil criterion passes.
func Or(cs ...Criterion) Criterion {
	return func(q *models.Quote) bool {
		if q == nil {
			return false
		}
		for _, c := range cs {
			if c != nil && c(q) {
				return true
			}
		}
		return false
	}
}

// FloatCapBetween bounds the float market cap in 100M CNY. Zero bounds are open.
func FloatCapBetween(min, max float64) Criterion {
	if min <= 0 && max <= 0 {
		return nil
	}
	return func(q *models.Quote) bool {
		v := q.FloatCapYi()
		return (min <= 0 || v >= min) && (max <= 0 || v <= max)
	}
}

func MinTurnover(min float64) Criterion {
	if min <= 0 {
		return nil
	}
	return func(q *models.Quote) bool { return q.TurnoverRate >= min }
}

// ChangeBetween bounds the change percent. Zero bounds are open.
func ChangeBetween(min, max float64) Criterion {
	if min == 0 && max == 0 {
		return nil
	}
	return func(q *models.Quote) bool {
		return (min == 0 || q.ChangePct >= min) && (max == 0 || q.ChangePct <= max)
	}
}

func MinVolumeRatio(min float64) Criterion {
	if min <= 0 {
		return nil
	}
	return func(q *models.Quote) bool { return q.VolumeRatio >= min }
}

// NotST drops ST, *ST and delisting names.
func NotST(q *models.Quote) bool { return !util.IsSTName(q.Name) }

// InCodes restricts to an allow-list; an empty list allows everything.
func InCodes(codes []string) Criterion {
	if len(codes) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(codes))
	for _, c := range codes {
		set[c] = struct{}{}
	}
	return func(q *models.Quote) bool {
		_, ok := set[q.Code]
		return ok
	}
}

// FromCriteria composes the operator thresholds into one predicate.
func FromCriteria(c models.FilterCriteria) Criterion {
	cs := []Criterion{
		InCodes(c.Codes),
		FloatCapBetween(c.MinFloatCap, c.MaxFloatCap),
		MinTurnover(c.MinTurnover),
		ChangeBetween(c.MinChange, c.MaxChange),
		MinVolumeRatio(c.MinVolumeRatio),
	}
	if c.ExcludeST {
		cs = append(cs, NotST)
	}
	return And(cs...)
}

// Match reports whether q satisfies c.
func Match(q models.Quote, c models.FilterCriteria) bool {
	return FromCriteria(c)(&q)
}
