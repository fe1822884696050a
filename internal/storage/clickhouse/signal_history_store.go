package clickhouse

import (
	"context"
	"fmt"

	"mintsentry/internal/domain"
	"mintsentry/internal/storage"
)

// SignalHistoryStore implements storage.SignalHistoryStore using ClickHouse.
type SignalHistoryStore struct {
	conn *Conn
}

// NewSignalHistoryStore creates a new SignalHistoryStore.
func NewSignalHistoryStore(conn *Conn) *SignalHistoryStore {
	return &SignalHistoryStore{conn: conn}
}

// Compile-time interface check.
var _ storage.SignalHistoryStore = (*SignalHistoryStore)(nil)

// InsertBulk adds multiple history points in one batch.
func (s *SignalHistoryStore) InsertBulk(ctx context.Context, points []*domain.SignalPoint) error {
	if len(points) == 0 {
		return nil
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO signal_history (
			mint, user_id, signal_id, status, pattern_score,
			kill_score, confidence, price_usd, liquidity_usd, timestamp_ms
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, p := range points {
		if p == nil {
			return storage.ErrInvalidInput
		}
		err = batch.Append(
			p.Mint, uint64(p.UserID), uint64(p.SignalID), p.Status,
			p.PatternScore, uint8(p.KillScore), p.Confidence,
			p.PriceUsd, p.LiquidityUsd, uint64(p.TimestampMs),
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

// GetByMint retrieves history points for a mint, oldest first.
func (s *SignalHistoryStore) GetByMint(ctx context.Context, mint string, limit int) ([]*domain.SignalPoint, error) {
	query := `
		SELECT mint, user_id, signal_id, status, pattern_score,
			kill_score, confidence, price_usd, liquidity_usd, timestamp_ms
		FROM signal_history
		WHERE mint = ?
		ORDER BY timestamp_ms ASC
	`
	args := []any{mint}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, uint64(limit))
	}

	rows, err := s.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query by mint: %w", err)
	}
	defer rows.Close()

	return scanSignalPoints(rows)
}

func scanSignalPoints(rows chRows) ([]*domain.SignalPoint, error) {
	var points []*domain.SignalPoint

	for rows.Next() {
		var p domain.SignalPoint
		var userID, signalID, timestampMs uint64
		var killScore uint8

		err := rows.Scan(
			&p.Mint, &userID, &signalID, &p.Status, &p.PatternScore,
			&killScore, &p.Confidence, &p.PriceUsd, &p.LiquidityUsd,
			&timestampMs,
		)
		if err != nil {
			return nil, fmt.Errorf("scan signal history row: %w", err)
		}

		p.UserID = int64(userID)
		p.SignalID = int64(signalID)
		p.KillScore = int32(killScore)
		p.TimestampMs = int64(timestampMs)
		points = append(points, &p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate signal history rows: %w", err)
	}

	return points, nil
}
