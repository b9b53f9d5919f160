package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	"StockPulse/internal/domain/models"
	drepo "StockPulse/internal/domain/repository"
	"StockPulse/internal/services/screening"
	"StockPulse/pkg/cache"
	applogger "StockPulse/pkg/logger"
	"StockPulse/pkg/util"
)

const signalLockTTL = 24 * time.Hour

// SignalNotifier publishes buy signals for high-scoring candidates, at most
// once per code per trading day.
type SignalNotifier struct {
	screener   *screening.Screener
	criteria   models.FilterCriteria
	alertScore float64
	publisher  drepo.SignalPublisher
	locks      cache.Service
	metrics    drepo.Metrics
	log        *applogger.Logger
	loc        *time.Location
	now        func() time.Time
}

func NewSignalNotifier(s *screening.Screener, criteria models.FilterCriteria, alertScore float64,
	pub drepo.SignalPublisher, locks cache.Service, m drepo.Metrics, l *applogger.Logger, loc *time.Location) *SignalNotifier {
	if l == nil {
		l = applogger.Nop()
	}
	if loc == nil {
		loc = util.LoadLocation("Asia/Shanghai")
	}
	// every match is a potential alert
	criteria.Limit = 0
	return &SignalNotifier{
		screener:   s,
		criteria:   criteria,
		alertScore: alertScore,
		publisher:  pub,
		locks:      locks,
		metrics:    m,
		log:        l.With("signals"),
		loc:        loc,
		now:        time.Now,
	}
}

var _ drepo.SnapshotListener = (*SignalNotifier)(nil)

// OnSnapshot screens snap and publishes new alerts. Outside trading
// sessions it does nothing.
func (n *SignalNotifier) OnSnapshot(ctx context.Context, snap models.Snapshot) {
	now := n.now()
	if !util.InTradingSession(now, n.loc) {
		return
	}
	day := util.TradingDate(now, n.loc)

	res := n.screener.Screen(snap, n.criteria)
	sigs := make([]models.BuySignal, 0, 8)
	var locked []string
	for _, c := range res.Candidates {
		if c.Score < n.alertScore {
			// candidates are sorted best first
			break
		}
		key := cache.Key("signal", day, c.Code)
		ok, err := n.locks.TryLock(ctx, key, signalLockTTL)
		if err != nil {
			n.log.Warn("signal lock failed", applogger.String("code", c.Code), applogger.Error(err))
			continue
		}
		if !ok {
			continue
		}
		locked = append(locked, key)
		sigs = append(sigs, models.BuySignal{
			ID:          uuid.NewString(),
			Code:        c.Code,
			Name:        c.Name,
			Price:       c.Price,
			Score:       c.Score,
			Morphology:  c.Morphology,
			Target:      c.Plan.Target,
			Stop:        c.Plan.Stop,
			PositionPct: c.Plan.PositionPct,
			TradingDay:  day,
			EmittedAt:   now,
		})
	}
	if len(sigs) == 0 {
		return
	}

	if err := n.publisher.PublishBatch(ctx, sigs); err != nil {
		// release so the next snapshot retries
		for _, k := range locked {
			_ = n.locks.Unlock(ctx, k)
		}
		n.metrics.RecordError("publish")
		n.log.Error("publish buy signals failed", applogger.Int("count", len(sigs)), applogger.Error(err))
		return
	}
	for _, s := range sigs {
		n.metrics.RecordSignalPublished(s.Code)
		n.log.Info("buy signal",
			applogger.String("code", s.Code),
			applogger.String("name", s.Name),
			applogger.Float64("score", s.Score),
			applogger.Float64("price", s.Price),
		)
	}
}
