package usecase

import (
	"context"
	"sync"

	"StockPulse/internal/domain/models"
)

type fakeProvider struct {
	mu        sync.Mutex
	snaps     []models.Snapshot
	errs      []error
	bars      map[string][]models.Bar
	barsErr   error
	snapCalls int
	barCalls  int
}

func (f *fakeProvider) FetchSnapshot(ctx context.Context) (models.Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.snapCalls
	f.snapCalls++
	if i < len(f.errs) && f.errs[i] != nil {
		return models.Snapshot{}, f.errs[i]
	}
	if i < len(f.snaps) {
		return f.snaps[i], nil
	}
	if len(f.snaps) > 0 {
		return f.snaps[len(f.snaps)-1], nil
	}
	return models.Snapshot{}, nil
}

func (f *fakeProvider) FetchDailyBars(ctx context.Context, code string, days int) ([]models.Bar, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.barCalls++
	if f.barsErr != nil {
		return nil, f.barsErr
	}
	b := f.bars[code]
	if days > 0 && len(b) > days {
		b = b[len(b)-days:]
	}
	out := make([]models.Bar, len(b))
	copy(out, b)
	return out, nil
}

func (f *fakeProvider) calls() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snapCalls, f.barCalls
}

type fakeMetrics struct {
	mu        sync.Mutex
	refreshes map[string]int
	errors    map[string]int
	rows      int
	consec    int
	published map[string]int
}

func newFakeMetrics() *fakeMetrics {
	return &fakeMetrics{refreshes: map[string]int{}, errors: map[string]int{}, published: map[string]int{}}
}

func (m *fakeMetrics) RecordRefresh(result string, _ float64) {
	m.mu.Lock()
	m.refreshes[result]++
	m.mu.Unlock()
}

func (m *fakeMetrics) RecordSnapshotRows(n int) {
	m.mu.Lock()
	m.rows = n
	m.mu.Unlock()
}

func (m *fakeMetrics) RecordConsecutiveErrors(n int) {
	m.mu.Lock()
	m.consec = n
	m.mu.Unlock()
}

func (m *fakeMetrics) RecordError(kind string) {
	m.mu.Lock()
	m.errors[kind]++
	m.mu.Unlock()
}

func (m *fakeMetrics) RecordSignalPublished(code string) {
	m.mu.Lock()
	m.published[code]++
	m.mu.Unlock()
}

func (m *fakeMetrics) RecordLatency(string, float64) {}

type fakePublisher struct {
	mu   sync.Mutex
	sigs []models.BuySignal
	err  error
}

func (p *fakePublisher) Publish(ctx context.Context, sig models.BuySignal) error {
	return p.PublishBatch(ctx, []models.BuySignal{sig})
}

func (p *fakePublisher) PublishBatch(_ context.Context, sigs []models.BuySignal) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.sigs = append(p.sigs, sigs...)
	return nil
}

func (p *fakePublisher) Close() error { return nil }

func (p *fakePublisher) published() []models.BuySignal {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]models.BuySignal, len(p.sigs))
	copy(out, p.sigs)
	return out
}
