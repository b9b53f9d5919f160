package models

import "time"

// BuySignal is published once per code per trading day when a candidate
// scores at or above the alert threshold.
type BuySignal struct {
	ID          string     `json:"id"`
	Code        string     `json:"code"`
	Name        string     `json:"name"`
	Price       float64    `json:"price"`
	Score       float64    `json:"score"`
	Morphology  Morphology `json:"morphology"`
	Target      float64    `json:"target"`
	Stop        float64    `json:"stop"`
	PositionPct float64    `json:"position_pct"`
	TradingDay  string     `json:"trading_day"`
	EmittedAt   time.Time  `json:"emitted_at"`
}

// SearchHit is a quick-search result.
type SearchHit struct {
	Code     string  `json:"code"`
	Name     string  `json:"name"`
	Initials string  `json:"initials"`
	Score    float64 `json:"score"`
}
