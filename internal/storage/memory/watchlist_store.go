package memory

import (
	"context"
	"sync"
	"time"

	"mintsentry/internal/domain"
	"mintsentry/internal/storage"
)

// WatchlistStore implements storage.WatchlistStore in memory.
type WatchlistStore struct {
	mu         sync.RWMutex
	watchlists map[int64]*domain.Watchlist
}

// NewWatchlistStore creates a new in-memory WatchlistStore.
func NewWatchlistStore() *WatchlistStore {
	return &WatchlistStore{watchlists: make(map[int64]*domain.Watchlist)}
}

// Compile-time interface check.
var _ storage.WatchlistStore = (*WatchlistStore)(nil)

// Get retrieves a user's watchlist. Returns ErrNotFound if unset.
func (s *WatchlistStore) Get(_ context.Context, userID int64) (*domain.Watchlist, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	w, ok := s.watchlists[userID]
	if !ok {
		return nil, storage.ErrNotFound
	}

	copied := domain.Watchlist{
		UserID:    w.UserID,
		Mints:     append([]string(nil), w.Mints...),
		UpdatedAt: w.UpdatedAt,
	}
	return &copied, nil
}

// Put replaces a user's watchlist.
func (s *WatchlistStore) Put(_ context.Context, userID int64, mints []string) error {
	normalized := domain.NormalizeMints(mints)
	if len(normalized) == 0 {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.watchlists[userID] = &domain.Watchlist{
		UserID:    userID,
		Mints:     normalized,
		UpdatedAt: time.Now(),
	}
	return nil
}
