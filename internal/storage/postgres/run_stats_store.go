package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"mintsentry/internal/domain"
	"mintsentry/internal/storage"
)

// RunStatsStore implements storage.RunStatsStore backed by PostgreSQL.
type RunStatsStore struct {
	pool *Pool
}

// NewRunStatsStore creates a new RunStatsStore.
func NewRunStatsStore(pool *Pool) *RunStatsStore {
	return &RunStatsStore{pool: pool}
}

// Compile-time interface check.
var _ storage.RunStatsStore = (*RunStatsStore)(nil)

const insertRunQuery = `
INSERT INTO autotrade_runs (
	user_id, mode, scanned, buy_candidates, skipped, failed,
	simulated_exposure_usd, avg_expected_pnl_pct, created_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
RETURNING id`

const selectRunColumns = `
	id, user_id, mode, scanned, buy_candidates, skipped, failed,
	simulated_exposure_usd, avg_expected_pnl_pct, created_at`

// Insert adds a run stats row and returns its assigned id.
func (s *RunStatsStore) Insert(ctx context.Context, r *domain.RunStats) (int64, error) {
	if r == nil || r.UserID == 0 {
		return 0, storage.ErrInvalidInput
	}

	var id int64
	err := s.pool.QueryRow(ctx, insertRunQuery,
		r.UserID, r.Mode, r.Scanned, r.BuyCandidates, r.Skipped, r.Failed,
		r.SimulatedExposureUsd, r.AvgExpectedPnlPct, r.CreatedAt,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert run stats: %w", err)
	}
	return id, nil
}

// ListByUser retrieves a user's most recent runs, newest first.
func (s *RunStatsStore) ListByUser(ctx context.Context, userID int64, limit int) ([]*domain.RunStats, error) {
	query := `SELECT` + selectRunColumns + `
		FROM autotrade_runs WHERE user_id = $1 ORDER BY id DESC LIMIT $2`
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.pool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list run stats: %w", err)
	}
	defer rows.Close()

	return scanRunStats(rows)
}

func scanRunStats(rows pgx.Rows) ([]*domain.RunStats, error) {
	var out []*domain.RunStats
	for rows.Next() {
		var r domain.RunStats
		err := rows.Scan(
			&r.ID, &r.UserID, &r.Mode, &r.Scanned, &r.BuyCandidates,
			&r.Skipped, &r.Failed, &r.SimulatedExposureUsd,
			&r.AvgExpectedPnlPct, &r.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan run stats row: %w", err)
		}
		out = append(out, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate run stats rows: %w", err)
	}
	return out, nil
}
