package memory

import (
	"context"
	"sync"

	"mintsentry/internal/domain"
	"mintsentry/internal/storage"
)

// RunStatsStore implements storage.RunStatsStore in memory.
type RunStatsStore struct {
	mu     sync.RWMutex
	runs   map[int64]*domain.RunStats
	nextID int64
}

// NewRunStatsStore creates a new in-memory RunStatsStore.
func NewRunStatsStore() *RunStatsStore {
	return &RunStatsStore{runs: make(map[int64]*domain.RunStats)}
}

// Compile-time interface check.
var _ storage.RunStatsStore = (*RunStatsStore)(nil)

// Insert adds a run stats row and returns its assigned id.
func (s *RunStatsStore) Insert(_ context.Context, r *domain.RunStats) (int64, error) {
	if r == nil || r.UserID == 0 {
		return 0, storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	stored := *r
	stored.ID = s.nextID
	s.runs[stored.ID] = &stored
	return stored.ID, nil
}

// ListByUser retrieves a user's most recent runs, newest first.
func (s *RunStatsStore) ListByUser(_ context.Context, userID int64, limit int) ([]*domain.RunStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.RunStats
	for id := s.nextID; id > 0 && (limit <= 0 || len(out) < limit); id-- {
		r, ok := s.runs[id]
		if !ok || r.UserID != userID {
			continue
		}
		copied := *r
		out = append(out, &copied)
	}
	return out, nil
}
