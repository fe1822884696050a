package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"mintsentry/internal/domain"
	"mintsentry/internal/storage"
)

// PositionStore implements storage.PositionStore backed by PostgreSQL.
type PositionStore struct {
	pool *Pool
}

// NewPositionStore creates a new PositionStore.
func NewPositionStore(pool *Pool) *PositionStore {
	return &PositionStore{pool: pool}
}

// Compile-time interface check.
var _ storage.PositionStore = (*PositionStore)(nil)

const insertPositionQuery = `
INSERT INTO positions (
	user_id, mint, status, mode, entry_signal_id, entry_price_usd,
	size_usd, qty_tokens, tp_pct, sl_pct, trailing_stop_pct,
	max_hold_minutes, high_water_price_usd, last_price_usd, opened_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
RETURNING id`

const selectPositionColumns = `
	id, user_id, mint, status, mode, entry_signal_id, entry_price_usd,
	size_usd, qty_tokens, tp_pct, sl_pct, trailing_stop_pct,
	max_hold_minutes, high_water_price_usd, last_price_usd,
	opened_at, closed_at, close_reason, pnl_pct`

// Insert adds a new position and returns its assigned id.
// A second OPEN position on the same user and mint violates a partial unique
// index and maps to ErrDuplicateKey.
func (s *PositionStore) Insert(ctx context.Context, p *domain.Position) (int64, error) {
	if p == nil || p.Mint == "" || p.UserID == 0 {
		return 0, storage.ErrInvalidInput
	}

	var id int64
	err := s.pool.QueryRow(ctx, insertPositionQuery,
		p.UserID, p.Mint, p.Status, p.Mode, p.EntrySignalID, p.EntryPriceUsd,
		p.SizeUsd, p.QtyTokens, p.TpPct, p.SlPct, p.TrailingStopPct,
		p.MaxHoldMinutes, p.HighWaterPriceUsd, p.LastPriceUsd, p.OpenedAt,
	).Scan(&id)
	if err != nil {
		if isDuplicateKeyError(err) {
			return 0, storage.ErrDuplicateKey
		}
		return 0, fmt.Errorf("insert position: %w", err)
	}
	return id, nil
}

// GetByID retrieves a position by id.
func (s *PositionStore) GetByID(ctx context.Context, id int64) (*domain.Position, error) {
	query := `SELECT` + selectPositionColumns + ` FROM positions WHERE id = $1`

	p, err := scanPosition(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get position by id: %w", err)
	}
	return p, nil
}

// ListByUser retrieves a user's positions, newest first. status filters by
// OPEN or CLOSED; empty returns all.
func (s *PositionStore) ListByUser(ctx context.Context, userID int64, status string) ([]*domain.Position, error) {
	query := `SELECT` + selectPositionColumns + ` FROM positions WHERE user_id = $1`
	args := []any{userID}
	if status != "" {
		query += ` AND status = $2`
		args = append(args, status)
	}
	query += ` ORDER BY id DESC`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list positions: %w", err)
	}
	defer rows.Close()

	return scanPositions(rows)
}

// UpdateMark stores a fresh mark for an OPEN position. The high water mark
// only ever ratchets upward.
func (s *PositionStore) UpdateMark(ctx context.Context, id int64, lastPrice, highWater float64) error {
	query := `
		UPDATE positions
		SET last_price_usd = $2,
		    high_water_price_usd = GREATEST(high_water_price_usd, $3)
		WHERE id = $1 AND status = $4`

	tag, err := s.pool.Exec(ctx, query, id, lastPrice, highWater, domain.PositionOpen)
	if err != nil {
		return fmt.Errorf("update position mark: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// Close transitions a position OPEN -> CLOSED.
func (s *PositionStore) Close(ctx context.Context, id int64, closedAt time.Time, reason string, pnlPct, lastPrice, highWater float64) error {
	query := `
		UPDATE positions
		SET status = $2,
		    closed_at = $3,
		    close_reason = $4,
		    pnl_pct = $5,
		    last_price_usd = $6,
		    high_water_price_usd = GREATEST(high_water_price_usd, $7)
		WHERE id = $1 AND status = $8`

	tag, err := s.pool.Exec(ctx, query,
		id, domain.PositionClosed, closedAt, reason, pnlPct, lastPrice, highWater,
		domain.PositionOpen,
	)
	if err != nil {
		return fmt.Errorf("close position: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// LastOpenedAt returns the most recent open timestamp across all of a user's
// positions, or nil when the user has none.
func (s *PositionStore) LastOpenedAt(ctx context.Context, userID int64) (*time.Time, error) {
	query := `SELECT MAX(opened_at) FROM positions WHERE user_id = $1`

	var latest *time.Time
	if err := s.pool.QueryRow(ctx, query, userID).Scan(&latest); err != nil {
		return nil, fmt.Errorf("last opened at: %w", err)
	}
	return latest, nil
}

func scanPosition(row pgx.Row) (*domain.Position, error) {
	var p domain.Position
	err := row.Scan(
		&p.ID, &p.UserID, &p.Mint, &p.Status, &p.Mode, &p.EntrySignalID,
		&p.EntryPriceUsd, &p.SizeUsd, &p.QtyTokens, &p.TpPct, &p.SlPct,
		&p.TrailingStopPct, &p.MaxHoldMinutes, &p.HighWaterPriceUsd,
		&p.LastPriceUsd, &p.OpenedAt, &p.ClosedAt, &p.CloseReason, &p.PnlPct,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func scanPositions(rows pgx.Rows) ([]*domain.Position, error) {
	var out []*domain.Position
	for rows.Next() {
		p, err := scanPosition(rows)
		if err != nil {
			return nil, fmt.Errorf("scan position row: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate position rows: %w", err)
	}
	return out, nil
}
