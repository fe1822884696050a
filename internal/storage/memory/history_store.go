package memory

import (
	"context"
	"sync"

	"mintsentry/internal/domain"
	"mintsentry/internal/storage"
)

// SignalHistoryStore implements the signal analytics sink in memory for
// single-node deployments that run without ClickHouse.
type SignalHistoryStore struct {
	mu     sync.RWMutex
	points []*domain.SignalPoint
}

// NewSignalHistoryStore creates a new in-memory SignalHistoryStore.
func NewSignalHistoryStore() *SignalHistoryStore {
	return &SignalHistoryStore{}
}

// Compile-time interface check.
var _ storage.SignalHistoryStore = (*SignalHistoryStore)(nil)

// InsertBulk adds multiple signal history points.
func (s *SignalHistoryStore) InsertBulk(_ context.Context, points []*domain.SignalPoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range points {
		if p == nil {
			return storage.ErrInvalidInput
		}
		copied := *p
		s.points = append(s.points, &copied)
	}
	return nil
}

// GetByMint retrieves history points for a mint, oldest first.
func (s *SignalHistoryStore) GetByMint(_ context.Context, mint string, limit int) ([]*domain.SignalPoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.SignalPoint
	for _, p := range s.points {
		if p.Mint != mint {
			continue
		}
		copied := *p
		out = append(out, &copied)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

// RunHistoryStore implements the run analytics sink in memory.
type RunHistoryStore struct {
	mu   sync.RWMutex
	runs []*domain.RunStats
}

// NewRunHistoryStore creates a new in-memory RunHistoryStore.
func NewRunHistoryStore() *RunHistoryStore {
	return &RunHistoryStore{}
}

// Compile-time interface check.
var _ storage.RunHistoryStore = (*RunHistoryStore)(nil)

// InsertBulk adds multiple run rows.
func (s *RunHistoryStore) InsertBulk(_ context.Context, runs []*domain.RunStats) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range runs {
		if r == nil {
			return storage.ErrInvalidInput
		}
		copied := *r
		s.runs = append(s.runs, &copied)
	}
	return nil
}

// GetByUser retrieves run rows for a user, oldest first.
func (s *RunHistoryStore) GetByUser(_ context.Context, userID int64, limit int) ([]*domain.RunStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.RunStats
	for _, r := range s.runs {
		if r.UserID != userID {
			continue
		}
		copied := *r
		out = append(out, &copied)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}
