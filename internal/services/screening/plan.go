package screening

import (
	"math"

	"StockPulse/internal/domain/models"

	"github.com/shopspring/decimal"
)

// PlanParams are the trade-plan percentages as fractions (0.08 == 8%).
type PlanParams struct {
	TargetPct         float64
	TakeProfitPct     float64
	StopPct           float64
	MaxPositions      int
	SinglePositionMax float64
}

func DefaultPlanParams() PlanParams {
	return PlanParams{TargetPct: 0.08, TakeProfitPct: 0.05, StopPct: 0.03, MaxPositions: 3, SinglePositionMax: 0.5}
}

var one = decimal.NewFromInt(1)

// tick rounds price*factor to the 0.01 CNY tick.
func tick(price decimal.Decimal, factor decimal.Decimal) float64 {
	f, _ := price.Mul(factor).Round(2).Float64()
	return f
}

// NewTradePlan derives entry, target, take-profit and stop from price alone.
func NewTradePlan(price float64, p PlanParams) models.TradePlan {
	d := decimal.NewFromFloat(price)
	entry, _ := d.Round(2).Float64()

	pos := p.SinglePositionMax * 100
	if p.MaxPositions > 0 {
		pos = math.Min(100/float64(p.MaxPositions), pos)
	}
	posPct, _ := decimal.NewFromFloat(pos).Round(2).Float64()

	return models.TradePlan{
		Entry:       entry,
		Target:      tick(d, one.Add(decimal.NewFromFloat(p.TargetPct))),
		TakeProfit:  tick(d, one.Add(decimal.NewFromFloat(p.TakeProfitPct))),
		Stop:        tick(d, one.Sub(decimal.NewFromFloat(p.StopPct))),
		PositionPct: posPct,
	}
}
