package postgres

import (
	"context"
	"fmt"

	"mintsentry/internal/domain"
	"mintsentry/internal/storage"
)

// ConfigStore implements storage.ConfigStore backed by PostgreSQL.
// Both config tables are keyed by user_id and written with upserts.
type ConfigStore struct {
	pool *Pool
}

// NewConfigStore creates a new ConfigStore.
func NewConfigStore(pool *Pool) *ConfigStore {
	return &ConfigStore{pool: pool}
}

// Compile-time interface check.
var _ storage.ConfigStore = (*ConfigStore)(nil)

const getPolicyQuery = `
SELECT user_id, enabled, mode, min_pattern_score, min_confidence,
	max_connected_holder_pct, require_kill_switch_pass, max_position_usd,
	scan_interval_sec
FROM autotrade_configs WHERE user_id = $1`

const putPolicyQuery = `
INSERT INTO autotrade_configs (
	user_id, enabled, mode, min_pattern_score, min_confidence,
	max_connected_holder_pct, require_kill_switch_pass, max_position_usd,
	scan_interval_sec, updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())
ON CONFLICT (user_id) DO UPDATE SET
	enabled = EXCLUDED.enabled,
	mode = EXCLUDED.mode,
	min_pattern_score = EXCLUDED.min_pattern_score,
	min_confidence = EXCLUDED.min_confidence,
	max_connected_holder_pct = EXCLUDED.max_connected_holder_pct,
	require_kill_switch_pass = EXCLUDED.require_kill_switch_pass,
	max_position_usd = EXCLUDED.max_position_usd,
	scan_interval_sec = EXCLUDED.scan_interval_sec,
	updated_at = NOW()`

const getExecutionQuery = `
SELECT user_id, enabled, mode, trade_amount_usd, max_open_positions,
	tp_pct, sl_pct, trailing_stop_pct, max_hold_minutes, cooldown_sec,
	poll_interval_sec
FROM execution_configs WHERE user_id = $1`

const putExecutionQuery = `
INSERT INTO execution_configs (
	user_id, enabled, mode, trade_amount_usd, max_open_positions,
	tp_pct, sl_pct, trailing_stop_pct, max_hold_minutes, cooldown_sec,
	poll_interval_sec, updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW())
ON CONFLICT (user_id) DO UPDATE SET
	enabled = EXCLUDED.enabled,
	mode = EXCLUDED.mode,
	trade_amount_usd = EXCLUDED.trade_amount_usd,
	max_open_positions = EXCLUDED.max_open_positions,
	tp_pct = EXCLUDED.tp_pct,
	sl_pct = EXCLUDED.sl_pct,
	trailing_stop_pct = EXCLUDED.trailing_stop_pct,
	max_hold_minutes = EXCLUDED.max_hold_minutes,
	cooldown_sec = EXCLUDED.cooldown_sec,
	poll_interval_sec = EXCLUDED.poll_interval_sec,
	updated_at = NOW()`

// GetPolicy retrieves a user's policy config.
func (s *ConfigStore) GetPolicy(ctx context.Context, userID int64) (*domain.PolicyConfig, error) {
	var c domain.PolicyConfig
	err := s.pool.QueryRow(ctx, getPolicyQuery, userID).Scan(
		&c.UserID, &c.Enabled, &c.Mode, &c.MinPatternScore, &c.MinConfidence,
		&c.MaxConnectedHolderPct, &c.RequireKillSwitchPass, &c.MaxPositionUsd,
		&c.ScanIntervalSec,
	)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get policy config: %w", err)
	}
	return &c, nil
}

// PutPolicy upserts a user's policy config.
func (s *ConfigStore) PutPolicy(ctx context.Context, c *domain.PolicyConfig) error {
	if c == nil || c.UserID == 0 {
		return storage.ErrInvalidInput
	}

	_, err := s.pool.Exec(ctx, putPolicyQuery,
		c.UserID, c.Enabled, c.Mode, c.MinPatternScore, c.MinConfidence,
		c.MaxConnectedHolderPct, c.RequireKillSwitchPass, c.MaxPositionUsd,
		c.ScanIntervalSec,
	)
	if err != nil {
		return fmt.Errorf("put policy config: %w", err)
	}
	return nil
}

// GetExecution retrieves a user's execution config.
func (s *ConfigStore) GetExecution(ctx context.Context, userID int64) (*domain.ExecutionConfig, error) {
	var c domain.ExecutionConfig
	err := s.pool.QueryRow(ctx, getExecutionQuery, userID).Scan(
		&c.UserID, &c.Enabled, &c.Mode, &c.TradeAmountUsd, &c.MaxOpenPositions,
		&c.TpPct, &c.SlPct, &c.TrailingStopPct, &c.MaxHoldMinutes,
		&c.CooldownSec, &c.PollIntervalSec,
	)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get execution config: %w", err)
	}
	return &c, nil
}

// PutExecution upserts a user's execution config.
func (s *ConfigStore) PutExecution(ctx context.Context, c *domain.ExecutionConfig) error {
	if c == nil || c.UserID == 0 {
		return storage.ErrInvalidInput
	}

	_, err := s.pool.Exec(ctx, putExecutionQuery,
		c.UserID, c.Enabled, c.Mode, c.TradeAmountUsd, c.MaxOpenPositions,
		c.TpPct, c.SlPct, c.TrailingStopPct, c.MaxHoldMinutes, c.CooldownSec,
		c.PollIntervalSec,
	)
	if err != nil {
		return fmt.Errorf("put execution config: %w", err)
	}
	return nil
}
