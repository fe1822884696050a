package clickhouse

import (
	"context"
	"fmt"
	"time"

	"mintsentry/internal/domain"
	"mintsentry/internal/storage"
)

// RunHistoryStore implements storage.RunHistoryStore using ClickHouse.
type RunHistoryStore struct {
	conn *Conn
}

// NewRunHistoryStore creates a new RunHistoryStore.
func NewRunHistoryStore(conn *Conn) *RunHistoryStore {
	return &RunHistoryStore{conn: conn}
}

// Compile-time interface check.
var _ storage.RunHistoryStore = (*RunHistoryStore)(nil)

// InsertBulk adds multiple run rows in one batch.
func (s *RunHistoryStore) InsertBulk(ctx context.Context, runs []*domain.RunStats) error {
	if len(runs) == 0 {
		return nil
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO autotrade_run_history (
			run_id, user_id, mode, scanned, buy_candidates, skipped, failed,
			simulated_exposure_usd, avg_expected_pnl_pct, timestamp_ms
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, r := range runs {
		if r == nil {
			return storage.ErrInvalidInput
		}
		err = batch.Append(
			uint64(r.ID), uint64(r.UserID), r.Mode,
			uint32(r.Scanned), uint32(r.BuyCandidates), uint32(r.Skipped),
			uint32(r.Failed), r.SimulatedExposureUsd, r.AvgExpectedPnlPct,
			uint64(r.CreatedAt.UnixMilli()),
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetByUser retrieves run rows for a user, oldest first.
func (s *RunHistoryStore) GetByUser(ctx context.Context, userID int64, limit int) ([]*domain.RunStats, error) {
	query := `
		SELECT run_id, user_id, mode, scanned, buy_candidates, skipped, failed,
			simulated_exposure_usd, avg_expected_pnl_pct, timestamp_ms
		FROM autotrade_run_history
		WHERE user_id = ?
		ORDER BY timestamp_ms ASC
	`
	args := []any{uint64(userID)}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, uint64(limit))
	}

	rows, err := s.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query by user: %w", err)
	}
	defer rows.Close()

	return scanRunHistory(rows)
}

func scanRunHistory(rows chRows) ([]*domain.RunStats, error) {
	var runs []*domain.RunStats

	for rows.Next() {
		var r domain.RunStats
		var runID, userID, timestampMs uint64
		var scanned, buyCandidates, skipped, failed uint32

		err := rows.Scan(
			&runID, &userID, &r.Mode, &scanned, &buyCandidates, &skipped,
			&failed, &r.SimulatedExposureUsd, &r.AvgExpectedPnlPct,
			&timestampMs,
		)
		if err != nil {
			return nil, fmt.Errorf("scan run history row: %w", err)
		}

		r.ID = int64(runID)
		r.UserID = int64(userID)
		r.Scanned = int(scanned)
		r.BuyCandidates = int(buyCandidates)
		r.Skipped = int(skipped)
		r.Failed = int(failed)
		r.CreatedAt = time.UnixMilli(int64(timestampMs)).UTC()
		runs = append(runs, &r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate run history rows: %w", err)
	}

	return runs, nil
}
