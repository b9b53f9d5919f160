package models

import "time"

type BacktestTrade struct {
	EntryDate  time.Time `json:"entry_date"`
	EntryPrice float64   `json:"entry_price"`
	ExitDate   time.Time `json:"exit_date"`
	ExitPrice  float64   `json:"exit_price"`
	ReturnPct  float64   `json:"return_pct"`
}

// BacktestResult summarises a replay of the MA5-deviation entry rule.
type BacktestResult struct {
	Code           string          `json:"code"`
	Days           int             `json:"days"`
	TotalReturnPct float64         `json:"total_return_pct"`
	WinRatePct     float64         `json:"win_rate_pct"`
	TradeCount     int             `json:"trade_count"`
	Trades         []BacktestTrade `json:"trades"`
}
