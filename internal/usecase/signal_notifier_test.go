package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"StockPulse/internal/domain/models"
	"StockPulse/internal/services/screening"
	"StockPulse/pkg/cache"
	"StockPulse/pkg/util"
)

func newNotifier(pub *fakePublisher, at time.Time) (*SignalNotifier, *fakeMetrics, *cache.MemoryCache) {
	mc := cache.NewMemoryCache(cache.WithMemoryCleanup(0))
	m := newFakeMetrics()
	n := NewSignalNotifier(
		screening.New(screening.DefaultWeights(), screening.DefaultPlanParams()),
		models.FilterCriteria{MinTurnover: 8, MinChange: 2, MaxChange: 8.5, MinVolumeRatio: 1.5, Limit: 1},
		50, pub, mc, m, nil, util.LoadLocation("Asia/Shanghai"),
	)
	n.now = func() time.Time { return at }
	return n, m, mc
}

func TestSignalNotifier_PublishesOncePerDay(t *testing.T) {
	loc := util.LoadLocation("Asia/Shanghai")
	pub := &fakePublisher{}
	n, m, mc := newNotifier(pub, time.Date(2024, 3, 1, 10, 30, 0, 0, loc))
	defer mc.Close()
	ctx := context.Background()

	n.OnSnapshot(ctx, screenSnap())
	n.OnSnapshot(ctx, screenSnap())

	sigs := pub.published()
	if len(sigs) != 1 {
		t.Fatalf("published %d signals, want 1", len(sigs))
	}
	s := sigs[0]
	if s.Code != "600001" || s.TradingDay != "2024-03-01" || s.ID == "" || s.Score < 50 {
		t.Fatalf("signal = %+v", s)
	}
	if m.published["600001"] != 1 {
		t.Fatalf("metrics = %v", m.published)
	}

	// next trading day publishes again
	n.now = func() time.Time { return time.Date(2024, 3, 4, 10, 30, 0, 0, loc) }
	n.OnSnapshot(ctx, screenSnap())
	if len(pub.published()) != 2 {
		t.Fatalf("expected a fresh signal on the next day")
	}
}

func TestSignalNotifier_SilentOutsideSession(t *testing.T) {
	loc := util.LoadLocation("Asia/Shanghai")
	pub := &fakePublisher{}
	n, _, mc := newNotifier(pub, time.Date(2024, 3, 1, 12, 0, 0, 0, loc))
	defer mc.Close()

	n.OnSnapshot(context.Background(), screenSnap())
	if len(pub.published()) != 0 {
		t.Fatal("published during lunch break")
	}
}

func TestSignalNotifier_FailedPublishReleasesLock(t *testing.T) {
	loc := util.LoadLocation("Asia/Shanghai")
	pub := &fakePublisher{err: errors.New("broker down")}
	n, m, mc := newNotifier(pub, time.Date(2024, 3, 1, 10, 30, 0, 0, loc))
	defer mc.Close()
	ctx := context.Background()

	n.OnSnapshot(ctx, screenSnap())
	if m.errors["publish"] != 1 {
		t.Fatalf("errors = %v", m.errors)
	}

	pub.mu.Lock()
	pub.err = nil
	pub.mu.Unlock()
	n.OnSnapshot(ctx, screenSnap())
	if len(pub.published()) != 1 {
		t.Fatal("retry after failed publish did not go out")
	}
}

func TestSignalNotifier_DedupeSurvivesCachePressure(t *testing.T) {
	loc := util.LoadLocation("Asia/Shanghai")
	shared := cache.NewMemoryCache(cache.WithMemoryCleanup(0), cache.WithMemoryMaxSize(3))
	defer shared.Close()

	pub := &fakePublisher{}
	n := NewSignalNotifier(
		screening.New(screening.DefaultWeights(), screening.DefaultPlanParams()),
		models.FilterCriteria{MinTurnover: 8, MinChange: 2, MaxChange: 8.5, MinVolumeRatio: 1.5, Limit: 1},
		50, pub, shared, newFakeMetrics(), nil, loc,
	)
	n.now = func() time.Time { return time.Date(2024, 3, 1, 10, 30, 0, 0, loc) }

	p := &fakeProvider{bars: map[string][]models.Bar{
		"600519": risingBars(30),
		"000001": risingBars(30),
		"300750": risingBars(30),
	}}
	d := NewDetailService(p, shared, nil, screening.DefaultPlanParams(), newFakeMetrics(), nil,
		DetailConfig{TTL: time.Minute, HistoryDays: 30, BacktestDays: 30})
	ctx := context.Background()

	n.OnSnapshot(ctx, screenSnap())
	for _, code := range []string{"600519", "000001", "300750"} {
		if _, err := d.Bars(ctx, code, 30); err != nil {
			t.Fatalf("bars %s: %v", code, err)
		}
	}
	n.OnSnapshot(ctx, screenSnap())

	if got := len(pub.published()); got != 1 {
		t.Fatalf("published %d signals for one code on one day, want 1", got)
	}
}
