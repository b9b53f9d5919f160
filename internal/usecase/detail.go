package usecase

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"golang.org/x/sync/singleflight"

	"StockPulse/internal/domain/models"
	drepo "StockPulse/internal/domain/repository"
	"StockPulse/internal/services/backtest"
	"StockPulse/internal/services/indicators"
	"StockPulse/internal/services/screening"
	"StockPulse/pkg/cache"
	applogger "StockPulse/pkg/logger"
	"StockPulse/pkg/util"
)

// detailMinBars covers MA20 plus the three-day lookback.
const detailMinBars = 23

const (
	StatusUptrend   = "uptrend: MA5 > MA10 > MA20, all rising"
	StatusDowntrend = "downtrend: MA5 < MA10 < MA20"
	StatusSideways  = "sideways"
	StatusNearMA5   = "buy zone: close within 2% of MA5"
	StatusTurnover  = "turnover rising 3 sessions"
	StatusVolume    = "volume expanding"
)

type DetailConfig struct {
	TTL          time.Duration
	HistoryDays  int
	BacktestDays int
	FetchTimeout time.Duration
}

// DetailService serves chart data and backtests from on-demand history.
// Bars are memoised for TTL and concurrent misses share one fetch.
type DetailService struct {
	provider drepo.MarketProvider
	cache    cache.Service
	names    func(code string) (models.Quote, bool)
	plan     screening.PlanParams
	bt       backtest.Params
	metrics  drepo.Metrics
	log      *applogger.Logger
	cfg      DetailConfig
	group    singleflight.Group
}

func NewDetailService(provider drepo.MarketProvider, c cache.Service, screen *ScreenService,
	plan screening.PlanParams, m drepo.Metrics, l *applogger.Logger, cfg DetailConfig) *DetailService {
	if cfg.TTL <= 0 {
		cfg.TTL = 5 * time.Minute
	}
	if cfg.HistoryDays <= 0 {
		cfg.HistoryDays = 120
	}
	if cfg.BacktestDays <= 0 {
		cfg.BacktestDays = 60
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = 30 * time.Second
	}
	if l == nil {
		l = applogger.Nop()
	}
	d := &DetailService{
		provider: provider,
		cache:    c,
		plan:     plan,
		bt:       backtest.DefaultParams(),
		metrics:  m,
		log:      l.With("detail"),
		cfg:      cfg,
	}
	if screen != nil {
		d.names = screen.Quote
	}
	return d
}

// Bars returns up to days daily bars for code, oldest first.
func (d *DetailService) Bars(ctx context.Context, code string, days int) ([]models.Bar, error) {
	if !util.IsStockCode(code) {
		return nil, fmt.Errorf("%w: %q", drepo.ErrInvalidCode, code)
	}
	key := cache.Key("bars", code, days)

	var bars []models.Bar
	if err := d.cache.Get(ctx, key, &bars); err == nil {
		return bars, nil
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		d.log.Warn("bar cache read failed", applogger.String("key", key), applogger.Error(err))
	}

	// The fetch outlives any one caller; each caller waits on its own ctx.
	ch := d.group.DoChan(key, func() (interface{}, error) {
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.cfg.FetchTimeout)
		defer cancel()

		start := time.Now()
		bars, err := d.provider.FetchDailyBars(fctx, code, days)
		if d.metrics != nil {
			d.metrics.RecordLatency("daily_bars", time.Since(start).Seconds())
		}
		if err != nil {
			if d.metrics != nil {
				d.metrics.RecordError(drepo.ErrorKind(err))
			}
			return nil, err
		}
		if err := d.cache.Set(fctx, key, bars, d.cfg.TTL); err != nil {
			d.log.Warn("bar cache write failed", applogger.String("key", key), applogger.Error(err))
		}
		return bars, nil
	})

	var v interface{}
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			return nil, r.Err
		}
		v = r.Val
	}
	shared := v.([]models.Bar)
	out := make([]models.Bar, len(shared))
	copy(out, shared)
	return out, nil
}

// Detail computes the chart payload for code over days of history.
func (d *DetailService) Detail(ctx context.Context, code string, days int) (models.DetailView, error) {
	if days <= 0 {
		days = d.cfg.HistoryDays
	}
	bars, err := d.Bars(ctx, code, days)
	if err != nil {
		return models.DetailView{}, err
	}
	if len(bars) < detailMinBars {
		return models.DetailView{}, fmt.Errorf("%s: %d bars, need %d: %w", code, len(bars), detailMinBars, drepo.ErrInsufficientData)
	}

	v := buildDetail(code, bars, d.plan)
	if d.names != nil {
		if q, ok := d.names(code); ok {
			v.Name = q.Name
		}
	}
	return v, nil
}

func buildDetail(code string, bars []models.Bar, plan screening.PlanParams) models.DetailView {
	n := len(bars)
	closes := make([]float64, n)
	highs := make([]float64, n)
	lows := make([]float64, n)
	vols := make([]float64, n)
	turnover := make([]float64, n)
	for i, b := range bars {
		closes[i], highs[i], lows[i] = b.Close, b.High, b.Low
		vols[i], turnover[i] = b.Volume, b.Turnover
	}

	ma5 := indicators.SMA(closes, 5)
	ma10 := indicators.SMA(closes, 10)
	ma20 := indicators.SMA(closes, 20)
	upper, mid, lower := indicators.Bollinger(closes, 20, 2)

	last := closes[n-1]
	m5, m10, m20 := ma5[n-1], ma10[n-1], ma20[n-1]

	v := models.DetailView{
		Code:      code,
		Bars:      bars,
		MA5:       ma5,
		MA10:      ma10,
		MA20:      ma20,
		BollUpper: upper,
		BollMid:   mid,
		BollLower: lower,
		ATR14:     indicators.ATR(highs, lows, closes, 14),
		Close:     last,
	}
	v.VolumeRatio = round2(indicators.VolumeRatio(vols, 5))
	if m5 != 0 {
		v.MA5Deviation = round2((last - m5) / m5 * 100)
	}
	if first := closes[n-3]; first != 0 {
		v.ThreeDayReturn = round2((last - first) / first * 100)
	}
	v.TurnoverIncreasing = indicators.StrictlyIncreasing(turnover, 3)
	v.BullishAlignment = m5 > m10 && m10 > m20 &&
		indicators.Rising(ma5) && indicators.Rising(ma10) && indicators.Rising(ma20)
	v.BuySignal = m5 != 0 && math.Abs(last-m5)/m5 < 0.02

	switch {
	case v.BullishAlignment:
		v.Status = append(v.Status, StatusUptrend)
	case m5 < m10 && m10 < m20:
		v.Status = append(v.Status, StatusDowntrend)
	default:
		v.Status = append(v.Status, StatusSideways)
	}
	if v.BuySignal {
		v.Status = append(v.Status, StatusNearMA5)
	}
	if v.TurnoverIncreasing {
		v.Status = append(v.Status, StatusTurnover)
	}
	if v.VolumeRatio >= 1.5 {
		v.Status = append(v.Status, StatusVolume)
	}
	v.Plan = screening.NewTradePlan(last, plan)
	return v
}

// Backtest replays the MA5 rule over the configured window.
func (d *DetailService) Backtest(ctx context.Context, code string, days int) (models.BacktestResult, error) {
	if days <= 0 {
		days = d.cfg.BacktestDays
	}
	bars, err := d.Bars(ctx, code, days)
	if err != nil {
		return models.BacktestResult{}, err
	}
	res, err := backtest.Run(code, bars, d.bt)
	if err != nil {
		return res, fmt.Errorf("%s: %d bars, need %d: %w", code, len(bars), backtest.MinBars, err)
	}
	return res, nil
}

func round2(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return math.Round(v*100) / 100
}
