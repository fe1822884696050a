package postgres

import (
	"context"
	"fmt"

	"mintsentry/internal/domain"
	"mintsentry/internal/storage"
)

// WatchlistStore implements storage.WatchlistStore backed by PostgreSQL.
// Mints are stored as a text array on a single row per user.
type WatchlistStore struct {
	pool *Pool
}

// NewWatchlistStore creates a new WatchlistStore.
func NewWatchlistStore(pool *Pool) *WatchlistStore {
	return &WatchlistStore{pool: pool}
}

// Compile-time interface check.
var _ storage.WatchlistStore = (*WatchlistStore)(nil)

const getWatchlistQuery = `
SELECT user_id, mints, updated_at FROM watchlists WHERE user_id = $1`

const putWatchlistQuery = `
INSERT INTO watchlists (user_id, mints, updated_at)
VALUES ($1, $2, NOW())
ON CONFLICT (user_id) DO UPDATE SET
	mints = EXCLUDED.mints,
	updated_at = NOW()`

// Get retrieves a user's watchlist.
func (s *WatchlistStore) Get(ctx context.Context, userID int64) (*domain.Watchlist, error) {
	var w domain.Watchlist
	err := s.pool.QueryRow(ctx, getWatchlistQuery, userID).Scan(&w.UserID, &w.Mints, &w.UpdatedAt)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get watchlist: %w", err)
	}
	return &w, nil
}

// Put replaces a user's watchlist.
func (s *WatchlistStore) Put(ctx context.Context, userID int64, mints []string) error {
	normalized := domain.NormalizeMints(mints)
	if len(normalized) == 0 {
		return storage.ErrInvalidInput
	}

	if _, err := s.pool.Exec(ctx, putWatchlistQuery, userID, normalized); err != nil {
		return fmt.Errorf("put watchlist: %w", err)
	}
	return nil
}
