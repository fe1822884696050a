package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"mintsentry/internal/domain"
	"mintsentry/internal/storage"
)

// SignalStore implements storage.SignalStore backed by PostgreSQL.
type SignalStore struct {
	pool *Pool
}

// NewSignalStore creates a new SignalStore.
func NewSignalStore(pool *Pool) *SignalStore {
	return &SignalStore{pool: pool}
}

// Compile-time interface check.
var _ storage.SignalStore = (*SignalStore)(nil)

const insertSignalQuery = `
INSERT INTO signals (
	user_id, mint, status, confidence, pattern_score,
	kill_score, kill_verdict, price_usd, liquidity_usd, payload_json, created_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
RETURNING id`

const selectSignalColumns = `
	id, user_id, mint, status, confidence, pattern_score,
	kill_score, kill_verdict, price_usd, liquidity_usd, payload_json, created_at`

// Insert adds a new signal record and returns its assigned id.
func (s *SignalStore) Insert(ctx context.Context, rec *domain.SignalRecord) (int64, error) {
	if rec == nil || rec.Mint == "" || rec.UserID == 0 {
		return 0, storage.ErrInvalidInput
	}

	var id int64
	err := s.pool.QueryRow(ctx, insertSignalQuery,
		rec.UserID, rec.Mint, rec.Status, rec.Confidence, rec.PatternScore,
		rec.KillScore, rec.KillVerdict, rec.PriceUsd, rec.LiquidityUsd,
		rec.PayloadJSON, rec.CreatedAt,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert signal: %w", err)
	}
	return id, nil
}

// GetByID retrieves a signal by id.
func (s *SignalStore) GetByID(ctx context.Context, id int64) (*domain.SignalRecord, error) {
	query := `SELECT` + selectSignalColumns + ` FROM signals WHERE id = $1`

	rec, err := scanSignal(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get signal by id: %w", err)
	}
	return rec, nil
}

// ListByUser retrieves a user's most recent signals, newest first.
func (s *SignalStore) ListByUser(ctx context.Context, userID int64, limit int) ([]*domain.SignalRecord, error) {
	query := `SELECT` + selectSignalColumns + `
		FROM signals WHERE user_id = $1 ORDER BY id DESC LIMIT $2`
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.pool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list signals: %w", err)
	}
	defer rows.Close()

	return scanSignals(rows)
}

func scanSignal(row pgx.Row) (*domain.SignalRecord, error) {
	var rec domain.SignalRecord
	err := row.Scan(
		&rec.ID, &rec.UserID, &rec.Mint, &rec.Status, &rec.Confidence,
		&rec.PatternScore, &rec.KillScore, &rec.KillVerdict, &rec.PriceUsd,
		&rec.LiquidityUsd, &rec.PayloadJSON, &rec.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func scanSignals(rows pgx.Rows) ([]*domain.SignalRecord, error) {
	var out []*domain.SignalRecord
	for rows.Next() {
		rec, err := scanSignal(rows)
		if err != nil {
			return nil, fmt.Errorf("scan signal row: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate signal rows: %w", err)
	}
	return out, nil
}
