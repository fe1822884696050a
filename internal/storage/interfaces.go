package storage

import (
	"context"
	"time"

	"mintsentry/internal/domain"
)

// SignalStore provides access to signals storage. Rows are append-only.
type SignalStore interface {
	// Insert adds a new signal record and returns its assigned id.
	Insert(ctx context.Context, s *domain.SignalRecord) (int64, error)

	// GetByID retrieves a signal by id. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, id int64) (*domain.SignalRecord, error)

	// ListByUser retrieves a user's most recent signals, newest first.
	ListByUser(ctx context.Context, userID int64, limit int) ([]*domain.SignalRecord, error)
}

// PositionStore provides access to positions storage. Positions are mutable
// until closed; CLOSED is terminal.
type PositionStore interface {
	// Insert adds a new position and returns its assigned id.
	Insert(ctx context.Context, p *domain.Position) (int64, error)

	// GetByID retrieves a position by id. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, id int64) (*domain.Position, error)

	// ListByUser retrieves a user's positions, newest first. status filters
	// by OPEN or CLOSED; empty returns all.
	ListByUser(ctx context.Context, userID int64, status string) ([]*domain.Position, error)

	// UpdateMark stores a fresh mark for an OPEN position.
	// Returns ErrNotFound if the position does not exist or is closed.
	UpdateMark(ctx context.Context, id int64, lastPrice, highWater float64) error

	// Close transitions a position OPEN -> CLOSED, stamping the close
	// reason and final pnl. Returns ErrNotFound if the position does not
	// exist or is already closed.
	Close(ctx context.Context, id int64, closedAt time.Time, reason string, pnlPct, lastPrice, highWater float64) error

	// LastOpenedAt returns the most recent open timestamp across all of a
	// user's positions, or nil when the user has none.
	LastOpenedAt(ctx context.Context, userID int64) (*time.Time, error)
}

// ConfigStore provides access to per-user config singletons.
// Writes are last-write-wins upserts.
type ConfigStore interface {
	// GetPolicy retrieves a user's policy config.
	// Returns ErrNotFound if the user has never written one.
	GetPolicy(ctx context.Context, userID int64) (*domain.PolicyConfig, error)

	// PutPolicy upserts a user's policy config.
	PutPolicy(ctx context.Context, c *domain.PolicyConfig) error

	// GetExecution retrieves a user's execution config.
	// Returns ErrNotFound if the user has never written one.
	GetExecution(ctx context.Context, userID int64) (*domain.ExecutionConfig, error)

	// PutExecution upserts a user's execution config.
	PutExecution(ctx context.Context, c *domain.ExecutionConfig) error
}

// WatchlistStore provides access to per-user watchlists.
type WatchlistStore interface {
	// Get retrieves a user's watchlist. Returns ErrNotFound if unset.
	Get(ctx context.Context, userID int64) (*domain.Watchlist, error)

	// Put replaces a user's watchlist. Returns ErrInvalidInput when the
	// normalized mint list is empty.
	Put(ctx context.Context, userID int64, mints []string) error
}

// RunStatsStore provides access to autotrade run statistics. Append-only.
type RunStatsStore interface {
	// Insert adds a run stats row and returns its assigned id.
	Insert(ctx context.Context, r *domain.RunStats) (int64, error)

	// ListByUser retrieves a user's most recent runs, newest first.
	ListByUser(ctx context.Context, userID int64, limit int) ([]*domain.RunStats, error)
}

// SignalHistoryStore is the analytics sink for signal history points.
// Append-only, optimized for bulk insert and per-mint time queries.
type SignalHistoryStore interface {
	// InsertBulk adds multiple history points in one batch.
	InsertBulk(ctx context.Context, points []*domain.SignalPoint) error

	// GetByMint retrieves history points for a mint, oldest first.
	GetByMint(ctx context.Context, mint string, limit int) ([]*domain.SignalPoint, error)
}

// RunHistoryStore is the analytics sink for autotrade run aggregates.
type RunHistoryStore interface {
	// InsertBulk adds multiple run rows in one batch.
	InsertBulk(ctx context.Context, runs []*domain.RunStats) error

	// GetByUser retrieves run rows for a user, oldest first.
	GetByUser(ctx context.Context, userID int64, limit int) ([]*domain.RunStats, error)
}
