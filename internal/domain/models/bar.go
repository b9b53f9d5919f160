package models

import (
	"encoding/json"
	"math"
	"time"
)

// Bar is one daily OHLCV record (forward adjusted).
type Bar struct {
	Date     time.Time `json:"date"`
	Open     float64   `json:"open"`
	High     float64   `json:"high"`
	Low      float64   `json:"low"`
	Close    float64   `json:"close"`
	Volume   float64   `json:"volume"`
	Amount   float64   `json:"amount"`
	Turnover float64   `json:"turnover"`
}

// Series is an indicator column aligned to bars. Warmup points are NaN
// and encode as JSON null.
type Series []float64

func (s Series) MarshalJSON() ([]byte, error) {
	out := make([]*float64, len(s))
	for i := range s {
		if math.IsNaN(s[i]) || math.IsInf(s[i], 0) {
			continue
		}
		v := s[i]
		out[i] = &v
	}
	return json.Marshal(out)
}

// Last returns the final value, NaN when empty.
func (s Series) Last() float64 {
	if len(s) == 0 {
		return math.NaN()
	}
	return s[len(s)-1]
}

// At returns s[len-1-back], NaN when out of range.
func (s Series) At(back int) float64 {
	i := len(s) - 1 - back
	if i < 0 || i >= len(s) {
		return math.NaN()
	}
	return s[i]
}
