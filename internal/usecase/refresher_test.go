package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"StockPulse/internal/domain/models"
	drepo "StockPulse/internal/domain/repository"
	"StockPulse/pkg/util"
)

func TestRefresher_RefreshOnceStoresAndNotifies(t *testing.T) {
	prov := &fakeProvider{snaps: []models.Snapshot{snapOf(3, time.Now())}}
	store := NewSnapshotStore(2)
	m := newFakeMetrics()

	var got []models.Snapshot
	listener := drepo.ListenerFunc(func(_ context.Context, s models.Snapshot) {
		s.Quotes[0].Price = -1 // listeners own their copy
		got = append(got, s)
	})
	r := NewRefresher(prov, store, m, nil, RefresherConfig{Interval: time.Second}, listener)

	if err := r.RefreshOnce(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if len(got) != 1 || got[0].Len() != 3 {
		t.Fatalf("listener got %d snapshots", len(got))
	}
	snap, _ := store.Get()
	if snap.Quotes[0].Price == -1 {
		t.Fatal("listener mutated the stored snapshot")
	}
	if m.refreshes["ok"] != 1 || m.rows != 3 {
		t.Fatalf("metrics = %+v", m)
	}
	if st := store.Status(); st.State != models.RefreshStateSleeping {
		t.Fatalf("state = %s", st.State)
	}
}

func TestRefresher_FailuresAreDebounced(t *testing.T) {
	boom := errors.New("connection reset")
	prov := &fakeProvider{
		snaps: []models.Snapshot{snapOf(2, time.Now())},
		errs:  []error{nil, boom, boom},
	}
	store := NewSnapshotStore(2)
	m := newFakeMetrics()
	r := NewRefresher(prov, store, m, nil, RefresherConfig{})
	ctx := context.Background()

	_ = r.RefreshOnce(ctx)
	if err := r.RefreshOnce(ctx); !errors.Is(err, boom) {
		t.Fatalf("want boom, got %v", err)
	}
	if _, err := store.Get(); err != nil {
		t.Fatalf("single failure should stay hidden, got %v", err)
	}
	_ = r.RefreshOnce(ctx)
	snap, err := store.Get()
	if !errors.Is(err, boom) || snap.Len() != 2 {
		t.Fatalf("after threshold: rows=%d err=%v", snap.Len(), err)
	}
	if m.errors["transport"] != 2 || m.consec != 2 {
		t.Fatalf("metrics = %+v", m)
	}
}

func TestRefresher_ListenerPanicIsContained(t *testing.T) {
	prov := &fakeProvider{snaps: []models.Snapshot{snapOf(1, time.Now())}}
	m := newFakeMetrics()
	calls := 0
	r := NewRefresher(prov, NewSnapshotStore(1), m, nil, RefresherConfig{},
		drepo.ListenerFunc(func(context.Context, models.Snapshot) { panic("bad listener") }),
	)
	r.AddListener(drepo.ListenerFunc(func(context.Context, models.Snapshot) { calls++ }))

	if err := r.RefreshOnce(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if calls != 1 || m.errors["listener"] != 1 {
		t.Fatalf("calls=%d errors=%v", calls, m.errors)
	}
}

func TestRefresher_CancelledFetchNotCounted(t *testing.T) {
	prov := &fakeProvider{errs: []error{context.Canceled}}
	store := NewSnapshotStore(1)
	r := NewRefresher(prov, store, newFakeMetrics(), nil, RefresherConfig{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := r.RefreshOnce(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("want canceled, got %v", err)
	}
	if st := store.Status(); st.ConsecutiveErrors != 0 || st.Error != "" {
		t.Fatalf("cancel counted as failure: %+v", st)
	}
}

func TestRefresher_TransportErrorDuringShutdownNotCounted(t *testing.T) {
	// a retry loop cut short in its back-off hands back the last transport error
	prov := &fakeProvider{errs: []error{errors.New("status 502")}}
	store := NewSnapshotStore(1)
	m := newFakeMetrics()
	r := NewRefresher(prov, store, m, nil, RefresherConfig{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := r.RefreshOnce(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("want canceled, got %v", err)
	}
	if st := store.Status(); st.ConsecutiveErrors != 0 || st.Error != "" {
		t.Fatalf("shutdown counted as failure: %+v", st)
	}
	if m.refreshes["error"] != 0 {
		t.Fatalf("refresh metrics = %v", m.refreshes)
	}
}

func TestRefresher_MarketHoursOnlySkipsWhenClosed(t *testing.T) {
	loc := util.LoadLocation("Asia/Shanghai")
	prov := &fakeProvider{snaps: []models.Snapshot{snapOf(1, time.Now())}}
	store := NewSnapshotStore(1)
	r := NewRefresher(prov, store, newFakeMetrics(), nil, RefresherConfig{MarketHoursOnly: true, Location: loc})

	// Saturday
	r.now = func() time.Time { return time.Date(2024, 3, 2, 10, 0, 0, 0, loc) }
	if !r.shouldFetch() {
		t.Fatal("first fetch must run even when closed")
	}
	_ = r.RefreshOnce(context.Background())
	if r.shouldFetch() {
		t.Fatal("closed market should skip once data exists")
	}

	r.now = func() time.Time { return time.Date(2024, 3, 4, 10, 0, 0, 0, loc) }
	if !r.shouldFetch() {
		t.Fatal("open market should fetch")
	}
}

func TestRefresher_RunStopsOnCancel(t *testing.T) {
	prov := &fakeProvider{snaps: []models.Snapshot{snapOf(1, time.Now())}}
	r := NewRefresher(prov, NewSnapshotStore(1), newFakeMetrics(), nil, RefresherConfig{Interval: 10 * time.Millisecond})

	ctx, cancel := context.WithTimeout(context.Background(), 55*time.Millisecond)
	defer cancel()
	if err := r.Run(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("run returned %v", err)
	}
	if n, _ := prov.calls(); n < 2 {
		t.Fatalf("expected repeated fetches, got %d", n)
	}
}
