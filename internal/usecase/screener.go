package usecase

import (
	"context"
	"fmt"
	"time"

	"StockPulse/internal/domain/models"
	drepo "StockPulse/internal/domain/repository"
	"StockPulse/internal/services/screening"
)

// ScreenService answers reader queries from the snapshot store. It never
// touches the network.
type ScreenService struct {
	store    *SnapshotStore
	screener *screening.Screener
	defaults models.FilterCriteria
	metrics  drepo.Metrics
}

func NewScreenService(store *SnapshotStore, screener *screening.Screener, defaults models.FilterCriteria, m drepo.Metrics) *ScreenService {
	return &ScreenService{store: store, screener: screener, defaults: defaults, metrics: m}
}

// Defaults returns the configured criteria; callers start from a copy.
func (s *ScreenService) Defaults() models.FilterCriteria {
	d := s.defaults
	if d.Codes != nil {
		d.Codes = append([]string(nil), d.Codes...)
	}
	return d
}

// Status reports the store's freshness and loop state.
func (s *ScreenService) Status() models.SnapshotStatus { return s.store.Status() }

// current returns the snapshot or a reader-facing error. A stale snapshot
// is served with its visible error as a warning.
func (s *ScreenService) current() (models.Snapshot, string, error) {
	snap, visible := s.store.Get()
	if snap.Empty() {
		if visible != nil {
			return snap, "", fmt.Errorf("%w: %v", drepo.ErrNoSnapshot, visible)
		}
		return snap, "", drepo.ErrNoSnapshot
	}
	warning := ""
	if visible != nil {
		warning = "data may be stale: " + visible.Error()
	}
	return snap, warning, nil
}

// Screen filters and scores the current snapshot.
func (s *ScreenService) Screen(_ context.Context, c models.FilterCriteria) (models.ScreenResult, error) {
	start := time.Now()
	snap, warning, err := s.current()
	if err != nil {
		return models.ScreenResult{}, err
	}
	res := s.screener.Screen(snap, c)
	res.Warning = warning
	if s.metrics != nil {
		s.metrics.RecordLatency("screen", time.Since(start).Seconds())
	}
	return res, nil
}

// Quotes returns raw rows, restricted to codes when given. Unknown codes
// are skipped; order follows codes.
func (s *ScreenService) Quotes(_ context.Context, codes []string) ([]models.Quote, time.Time, error) {
	snap, _, err := s.current()
	if err != nil {
		return nil, time.Time{}, err
	}
	if len(codes) == 0 {
		return snap.Quotes, snap.FetchedAt, nil
	}

	byCode := make(map[string]int, snap.Len())
	for i := range snap.Quotes {
		byCode[snap.Quotes[i].Code] = i
	}
	out := make([]models.Quote, 0, len(codes))
	for _, c := range codes {
		if i, ok := byCode[c]; ok {
			out = append(out, snap.Quotes[i])
		}
	}
	return out, snap.FetchedAt, nil
}

// Quote looks up one code in the current snapshot.
func (s *ScreenService) Quote(code string) (models.Quote, bool) {
	snap, _ := s.store.Get()
	return snap.Lookup(code)
}
