package models

import "time"

// FilterCriteria holds operator thresholds. A zero bound means unbounded.
// Market caps are in 100M CNY (亿).
type FilterCriteria struct {
	MinFloatCap    float64  `json:"min_float_cap"`
	MaxFloatCap    float64  `json:"max_float_cap"`
	MinTurnover    float64  `json:"min_turnover"`
	MinChange      float64  `json:"min_change"`
	MaxChange      float64  `json:"max_change"`
	MinVolumeRatio float64  `json:"min_volume_ratio"`
	ExcludeST      bool     `json:"exclude_st"`
	Codes          []string `json:"codes,omitempty"`
	Limit          int      `json:"limit"`
}

// Morphology is a candlestick shape tag for the current session.
type Morphology string

const (
	MorphologyStrongNoUpperShadow Morphology = "strong_no_upper_shadow"
	MorphologyLongUpperShadow     Morphology = "long_upper_shadow"
	MorphologyAboveVWAP           Morphology = "above_vwap"
	MorphologyBelowVWAP           Morphology = "below_vwap"
	MorphologyNeutral             Morphology = "neutral"
)

// TradePlan holds suggested prices rounded to the 0.01 CNY tick.
type TradePlan struct {
	Entry       float64 `json:"entry"`
	Target      float64 `json:"target"`
	TakeProfit  float64 `json:"take_profit"`
	Stop        float64 `json:"stop"`
	PositionPct float64 `json:"position_pct"`
}

type ScoredCandidate struct {
	Quote
	Morphology Morphology `json:"morphology"`
	VWAP       float64    `json:"vwap"`
	Score      float64    `json:"score"`
	Plan       TradePlan  `json:"plan"`
}

// ScreenResult is what a reader gets back for one screening pass.
type ScreenResult struct {
	FetchedAt  time.Time         `json:"fetched_at"`
	Scanned    int               `json:"scanned"`
	Matched    int               `json:"matched"`
	Candidates []ScoredCandidate `json:"candidates"`
	Warning    string            `json:"warning,omitempty"`
}

// RefreshState is the refresh loop's current state.
type RefreshState string

const (
	RefreshStateFetching RefreshState = "fetching"
	RefreshStateSleeping RefreshState = "sleeping"
)

// SnapshotStatus is the read view of the snapshot store.
type SnapshotStatus struct {
	FetchedAt         time.Time    `json:"fetched_at"`
	AttemptedAt       time.Time    `json:"attempted_at"`
	Rows              int          `json:"rows"`
	Error             string       `json:"error,omitempty"`
	ConsecutiveErrors int          `json:"consecutive_errors"`
	State             RefreshState `json:"state"`
}
