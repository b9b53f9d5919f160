package models

import "time"

// Quote is one instrument row of a whole-market snapshot.
// Money is in CNY, volume in shares, percentages as plain numbers (5 == 5%).
type Quote struct {
	Code           string  `json:"code"`
	Name           string  `json:"name"`
	Price          float64 `json:"price"`
	ChangePct      float64 `json:"change_pct"`
	Change         float64 `json:"change"`
	TurnoverRate   float64 `json:"turnover_rate"`
	VolumeRatio    float64 `json:"volume_ratio"`
	MarketCap      float64 `json:"market_cap"`
	FloatMarketCap float64 `json:"float_market_cap"`
	High           float64 `json:"high"`
	Low            float64 `json:"low"`
	Open           float64 `json:"open"`
	PrevClose      float64 `json:"prev_close"`
	Volume         float64 `json:"volume"`
	Amount         float64 `json:"amount"`
	Amplitude      float64 `json:"amplitude"`
}

// FloatCapYi returns the float market cap in units of 100M CNY.
func (q Quote) FloatCapYi() float64 { return q.FloatMarketCap / 1e8 }

// Snapshot is a whole-market table. It is replaced wholesale, never patched.
type Snapshot struct {
	Quotes    []Quote   `json:"quotes"`
	FetchedAt time.Time `json:"fetched_at"`
}

func (s Snapshot) Len() int { return len(s.Quotes) }

func (s Snapshot) Empty() bool { return len(s.Quotes) == 0 }

// Clone returns a copy that shares no memory with s.
func (s Snapshot) Clone() Snapshot {
	out := Snapshot{FetchedAt: s.FetchedAt}
	if s.Quotes != nil {
		out.Quotes = make([]Quote, len(s.Quotes))
		copy(out.Quotes, s.Quotes)
	}
	return out
}

// Lookup returns the quote for code, if present.
func (s Snapshot) Lookup(code string) (Quote, bool) {
	for _, q := range s.Quotes {
		if q.Code == code {
			return q, true
		}
	}
	return Quote{}, false
}

// ArchivedQuote is a quote as stored by the snapshot archive.
type ArchivedQuote struct {
	Quote
	SnapshotAt time.Time `json:"snapshot_at"`
}
