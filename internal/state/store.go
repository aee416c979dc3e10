package state

import (
	"fmt"
	"sync"
	"time"

	"github.com/five82/luckyfind/internal/discogs"
)

// Snapshot represents the latest API health available to the UI.
type Snapshot struct {
	RateLimit           discogs.RateLimit
	HasRateLimit        bool
	LastUpdated         time.Time
	LastError           error
	ConsecutiveFailures int // Number of consecutive failed requests
}

// IsOffline returns true when the API has failed several requests in a row.
func (s Snapshot) IsOffline() bool {
	return s.ConsecutiveFailures >= 2
}

// IsThrottled returns true when the last response reported no requests left.
func (s Snapshot) IsThrottled() bool {
	return s.HasRateLimit && s.RateLimit.Remaining <= 0
}

// Store coordinates concurrent updates to the snapshot.
type Store struct {
	mu       sync.RWMutex
	snapshot Snapshot
}

// Update records the outcome of a request. When err is non-nil the previous
// rate limit is kept but the error is recorded for visibility.
func (s *Store) Update(rate *discogs.RateLimit, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshot.LastUpdated = time.Now()
	if rate != nil {
		s.snapshot.RateLimit = *rate
		s.snapshot.HasRateLimit = true
	}
	if err != nil {
		s.snapshot.LastError = err
		s.snapshot.ConsecutiveFailures++
		return
	}
	s.snapshot.LastError = nil
	s.snapshot.ConsecutiveFailures = 0
}

// ObserveRateLimit records rate limit headers without touching error state.
func (s *Store) ObserveRateLimit(rate discogs.RateLimit) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshot.RateLimit = rate
	s.snapshot.HasRateLimit = true
}

// Snapshot returns a copy of the current snapshot.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := s.snapshot
	if s.snapshot.LastError != nil {
		snap.LastError = fmt.Errorf("%w", s.snapshot.LastError)
	}
	return snap
}
