package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"StockPulse/internal/domain/models"
	drepo "StockPulse/internal/domain/repository"
	applogger "StockPulse/pkg/logger"
	"StockPulse/pkg/util"
)

// RefresherConfig controls the background refresh loop.
type RefresherConfig struct {
	Interval        time.Duration
	MarketHoursOnly bool
	Location        *time.Location
}

// Refresher is the single writer of the SnapshotStore. It fetches a whole
// market snapshot every interval and fans good snapshots out to listeners.
type Refresher struct {
	provider drepo.MarketProvider
	store    *SnapshotStore
	metrics  drepo.Metrics
	log      *applogger.Logger
	cfg      RefresherConfig
	now      func() time.Time

	mu        sync.RWMutex
	listeners []drepo.SnapshotListener
}

func NewRefresher(provider drepo.MarketProvider, store *SnapshotStore, metrics drepo.Metrics,
	l *applogger.Logger, cfg RefresherConfig, listeners ...drepo.SnapshotListener) *Refresher {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Minute
	}
	if cfg.Location == nil {
		cfg.Location = util.LoadLocation("Asia/Shanghai")
	}
	if l == nil {
		l = applogger.Nop()
	}
	return &Refresher{
		provider:  provider,
		store:     store,
		metrics:   metrics,
		log:       l.With("refresher"),
		cfg:       cfg,
		now:       time.Now,
		listeners: listeners,
	}
}

// AddListener registers a listener for future snapshots.
func (r *Refresher) AddListener(l drepo.SnapshotListener) {
	if l == nil {
		return
	}
	r.mu.Lock()
	r.listeners = append(r.listeners, l)
	r.mu.Unlock()
}

// Run refreshes immediately and then every interval until ctx is done.
// A slow fetch delays the next tick rather than overlapping with it.
func (r *Refresher) Run(ctx context.Context) error {
	r.log.Info("refresh loop started",
		applogger.Duration("interval_ms", r.cfg.Interval),
		applogger.Bool("market_hours_only", r.cfg.MarketHoursOnly),
	)

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			r.store.SetState(models.RefreshStateSleeping)
			r.log.Info("refresh loop stopped")
			return ctx.Err()
		case <-timer.C:
			if r.shouldFetch() {
				_ = r.RefreshOnce(ctx)
			}
			timer.Reset(r.cfg.Interval)
		}
	}
}

// shouldFetch skips off-hours fetches once a snapshot exists. The first
// fetch always runs so readers have something to serve.
func (r *Refresher) shouldFetch() bool {
	if !r.cfg.MarketHoursOnly || !r.store.HasData() {
		return true
	}
	return util.InTradingSession(r.now(), r.cfg.Location)
}

// RefreshOnce performs a single fetch-and-store attempt.
func (r *Refresher) RefreshOnce(ctx context.Context) error {
	r.store.SetState(models.RefreshStateFetching)
	defer r.store.SetState(models.RefreshStateSleeping)

	start := r.now()
	snap, err := r.provider.FetchSnapshot(ctx)
	elapsed := r.now().Sub(start)

	// shutdown mid-attempt, including a back-off wait, is not a provider failure
	if err != nil && ctx.Err() != nil {
		return ctx.Err()
	}

	stored := r.store.Set(snap, err)
	status := r.store.Status()
	r.metrics.RecordConsecutiveErrors(status.ConsecutiveErrors)

	if !stored {
		if err == nil {
			err = drepo.ErrEmptyResult
		}
		kind := drepo.ErrorKind(err)
		r.metrics.RecordRefresh("error", elapsed.Seconds())
		r.metrics.RecordError(kind)
		fields := []applogger.Field{
			applogger.Error(err),
			applogger.String("kind", kind),
			applogger.Int("consecutive_errors", status.ConsecutiveErrors),
			applogger.Duration("duration_ms", elapsed),
		}
		if status.Error != "" {
			r.log.Error("refresh failed, serving stale snapshot", fields...)
		} else {
			r.log.Warn("refresh failed", fields...)
		}
		return fmt.Errorf("refresh: %w", err)
	}

	r.metrics.RecordRefresh("ok", elapsed.Seconds())
	r.metrics.RecordSnapshotRows(snap.Len())
	r.log.Debug("snapshot stored",
		applogger.Int("rows", snap.Len()),
		applogger.Duration("duration_ms", elapsed),
	)

	r.notify(ctx, snap)
	return nil
}

func (r *Refresher) notify(ctx context.Context, snap models.Snapshot) {
	r.mu.RLock()
	ls := make([]drepo.SnapshotListener, len(r.listeners))
	copy(ls, r.listeners)
	r.mu.RUnlock()

	for _, l := range ls {
		r.safeNotify(ctx, l, snap.Clone())
	}
}

func (r *Refresher) safeNotify(ctx context.Context, l drepo.SnapshotListener, snap models.Snapshot) {
	defer func() {
		if rec := recover(); rec != nil {
			r.metrics.RecordError("listener")
			r.log.Error("snapshot listener panicked", applogger.Any("panic", rec))
		}
	}()
	l.OnSnapshot(ctx, snap)
}
