package models

// DetailView is the chart payload for one instrument.
type DetailView struct {
	Code string `json:"code"`
	Name string `json:"name,omitempty"`
	Bars []Bar  `json:"bars"`

	MA5       Series `json:"ma5"`
	MA10      Series `json:"ma10"`
	MA20      Series `json:"ma20"`
	BollUpper Series `json:"boll_upper"`
	BollMid   Series `json:"boll_mid"`
	BollLower Series `json:"boll_lower"`
	ATR14     Series `json:"atr14"`

	Close              float64   `json:"close"`
	VolumeRatio        float64   `json:"volume_ratio"`
	MA5Deviation       float64   `json:"ma5_deviation"`
	ThreeDayReturn     float64   `json:"three_day_return"`
	TurnoverIncreasing bool      `json:"turnover_increasing"`
	BullishAlignment   bool      `json:"bullish_alignment"`
	BuySignal          bool      `json:"buy_signal"`
	Status             []string  `json:"status"`
	Plan               TradePlan `json:"plan"`
}
