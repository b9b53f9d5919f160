package usecase

import (
	"sync"
	"time"

	"StockPulse/internal/domain/models"
	drepo "StockPulse/internal/domain/repository"
)

// SnapshotStore is the single shared cache between the refresh loop and readers.
// It holds the last good snapshot plus error bookkeeping. The lock is held only
// for copies and assignments, never across I/O.
type SnapshotStore struct {
	mu sync.RWMutex

	snap        models.Snapshot
	attemptedAt time.Time
	lastErr     error
	visibleErr  error
	consecutive int
	state       models.RefreshState

	threshold int
	now       func() time.Time
}

// NewSnapshotStore creates an empty store. A failure only becomes visible to
// readers after threshold consecutive failed attempts.
func NewSnapshotStore(threshold int) *SnapshotStore {
	if threshold < 1 {
		threshold = 1
	}
	return &SnapshotStore{threshold: threshold, now: time.Now, state: models.RefreshStateSleeping}
}

// Set records one refresh attempt. The snapshot replaces the stored one only
// when err is nil and it has rows; otherwise the old snapshot is kept and the
// failure counted. It reports whether the snapshot was stored.
func (s *SnapshotStore) Set(snap models.Snapshot, err error) bool {
	if err == nil && snap.Empty() {
		err = drepo.ErrEmptyResult
	}
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.attemptedAt = now
	if err != nil {
		s.lastErr = err
		s.consecutive++
		if s.consecutive >= s.threshold {
			s.visibleErr = err
		}
		return false
	}

	if snap.FetchedAt.IsZero() {
		snap.FetchedAt = now
	}
	s.snap = snap
	s.lastErr = nil
	s.visibleErr = nil
	s.consecutive = 0
	return true
}

// Get returns a private copy of the snapshot and the debounced error.
func (s *SnapshotStore) Get() (models.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap.Clone(), s.visibleErr
}

// HasData reports whether a good snapshot has ever been stored.
func (s *SnapshotStore) HasData() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return !s.snap.Empty()
}

// LastError is the most recent attempt's error, debounced or not.
func (s *SnapshotStore) LastError() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

// SetState is called by the refresh loop on every transition.
func (s *SnapshotStore) SetState(st models.RefreshState) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}

// Status is the read view served by the snapshot endpoint.
func (s *SnapshotStore) Status() models.SnapshotStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := models.SnapshotStatus{
		FetchedAt:         s.snap.FetchedAt,
		AttemptedAt:       s.attemptedAt,
		Rows:              s.snap.Len(),
		ConsecutiveErrors: s.consecutive,
		State:             s.state,
	}
	if s.visibleErr != nil {
		st.Error = s.visibleErr.Error()
	}
	return st
}
