package usecase

import (
	"errors"
	"sync"
	"testing"
	"time"

	"StockPulse/internal/domain/models"
	drepo "StockPulse/internal/domain/repository"
)

func snapOf(n int, at time.Time) models.Snapshot {
	qs := make([]models.Quote, n)
	for i := range qs {
		qs[i] = models.Quote{Code: codeN(i), Name: "S", Price: float64(10 + i)}
	}
	return models.Snapshot{Quotes: qs, FetchedAt: at}
}

func codeN(i int) string {
	const digits = "0123456789"
	b := []byte("600000")
	for p := 5; p >= 0 && i > 0; p-- {
		b[p] = digits[i%10]
		i /= 10
	}
	return string(b)
}

func TestSnapshotStore_DebounceSequence(t *testing.T) {
	const n = 3
	s := NewSnapshotStore(n)
	t0 := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return t0 }

	if !s.Set(snapOf(2, t0), nil) {
		t.Fatal("first good snapshot should be stored")
	}

	boom := errors.New("provider down")
	for i := 1; i < n; i++ {
		s.Set(models.Snapshot{}, boom)
		if _, err := s.Get(); err != nil {
			t.Fatalf("after %d failures visible error should be unset, got %v", i, err)
		}
	}
	s.Set(models.Snapshot{}, boom)
	snap, err := s.Get()
	if !errors.Is(err, boom) {
		t.Fatalf("after %d failures visible error should be set, got %v", n, err)
	}
	if snap.Len() != 2 {
		t.Fatalf("failures must not replace the snapshot, rows = %d", snap.Len())
	}
	if st := s.Status(); st.ConsecutiveErrors != n || st.Error == "" {
		t.Fatalf("status = %+v", st)
	}

	s.Set(snapOf(3, t0.Add(time.Minute)), nil)
	snap, err = s.Get()
	if err != nil {
		t.Fatalf("success should clear visible error, got %v", err)
	}
	if snap.Len() != 3 || s.Status().ConsecutiveErrors != 0 {
		t.Fatalf("success should store and reset, rows=%d status=%+v", snap.Len(), s.Status())
	}
}

func TestSnapshotStore_NeverStoresEmpty(t *testing.T) {
	s := NewSnapshotStore(1)
	s.Set(snapOf(5, time.Now()), nil)

	if s.Set(models.Snapshot{FetchedAt: time.Now()}, nil) {
		t.Fatal("empty snapshot reported as stored")
	}
	snap, err := s.Get()
	if snap.Len() != 5 {
		t.Fatalf("empty snapshot overwrote good one, rows = %d", snap.Len())
	}
	if !errors.Is(err, drepo.ErrEmptyResult) {
		t.Fatalf("empty result should count as failure, got %v", err)
	}
}

func TestSnapshotStore_AttemptedAtAlwaysUpdated(t *testing.T) {
	s := NewSnapshotStore(3)
	t0 := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return t0 }
	s.Set(snapOf(1, t0), nil)

	t1 := t0.Add(time.Minute)
	s.now = func() time.Time { return t1 }
	s.Set(models.Snapshot{}, errors.New("x"))

	st := s.Status()
	if !st.AttemptedAt.Equal(t1) || !st.FetchedAt.Equal(t0) {
		t.Fatalf("attempted=%v fetched=%v", st.AttemptedAt, st.FetchedAt)
	}
}

func TestSnapshotStore_GetReturnsCopy(t *testing.T) {
	s := NewSnapshotStore(1)
	s.Set(snapOf(2, time.Now()), nil)

	a, _ := s.Get()
	a.Quotes[0].Price = -1

	b, _ := s.Get()
	if b.Quotes[0].Price == -1 {
		t.Fatal("reader mutation leaked into the store")
	}
}

func TestSnapshotStore_ConcurrentReaders(t *testing.T) {
	s := NewSnapshotStore(1)
	s.Set(snapOf(10, time.Now()), nil)

	var wg sync.WaitGroup
	stop := make(chan struct{})
	errs := make(chan string, 16)

	for r := 0; r < 8; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				snap, _ := s.Get()
				// every snapshot written below is uniform in size: 10 or 20 rows
				if n := snap.Len(); n != 10 && n != 20 {
					errs <- "torn read"
					return
				}
			}
		}()
	}

	for i := 0; i < 200; i++ {
		if i%2 == 0 {
			s.Set(snapOf(20, time.Now()), nil)
		} else {
			s.Set(snapOf(10, time.Now()), nil)
		}
	}
	close(stop)
	wg.Wait()
	close(errs)
	for e := range errs {
		t.Fatal(e)
	}
}
