// Package backtest replays the MA5-deviation entry rule over daily bars.
package backtest

import (
	"math"

	"StockPulse/internal/domain/models"
	drepo "StockPulse/internal/domain/repository"
	"StockPulse/internal/services/indicators"
)

// MinBars is the shortest history a replay accepts.
const MinBars = 30

// Params are the rule's thresholds as fractions.
type Params struct {
	MaxDeviation float64 // entry when |close-MA5|/MA5 is below this
	TakeProfit   float64
	StopLoss     float64
}

func DefaultParams() Params {
	return Params{MaxDeviation: 0.02, TakeProfit: 0.05, StopLoss: 0.03}
}

// Run replays bars oldest first. A signal on day i-1 buys at day i's open;
// exits are checked on the closes of later days. A position still open at
// the end is not counted.
func Run(code string, bars []models.Bar, p Params) (models.BacktestResult, error) {
	res := models.BacktestResult{Code: code, Days: len(bars), Trades: []models.BacktestTrade{}}
	if len(bars) < MinBars {
		return res, drepo.ErrInsufficientData
	}

	closes := make([]float64, len(bars))
	for i := range bars {
		closes[i] = bars[i].Close
	}
	ma5 := indicators.SMA(closes, 5)

	signal := func(i int) bool {
		m := ma5[i]
		if math.IsNaN(m) || m == 0 {
			return false
		}
		return math.Abs(closes[i]-m)/m < p.MaxDeviation
	}

	var (
		holding bool
		entry   float64
		entryAt int
		total   float64
		wins    int
	)
	for i := 1; i < len(bars); i++ {
		if !holding {
			if signal(i-1) && bars[i].Open > 0 {
				holding, entry, entryAt = true, bars[i].Open, i
			}
			continue
		}

		c := closes[i]
		if c >= entry*(1+p.TakeProfit) || c <= entry*(1-p.StopLoss) {
			ret := (c - entry) / entry * 100
			res.Trades = append(res.Trades, models.BacktestTrade{
				EntryDate:  bars[entryAt].Date,
				EntryPrice: entry,
				ExitDate:   bars[i].Date,
				ExitPrice:  c,
				ReturnPct:  round2(ret),
			})
			total += ret
			if ret > 0 {
				wins++
			}
			holding = false
		}
	}

	res.TradeCount = len(res.Trades)
	res.TotalReturnPct = round2(total)
	if res.TradeCount > 0 {
		res.WinRatePct = round2(float64(wins) / float64(res.TradeCount) * 100)
	}
	return res, nil
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
