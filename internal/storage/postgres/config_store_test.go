package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mintsentry/internal/domain"
	"mintsentry/internal/storage"
)

func TestConfigStore_PolicyRoundTrip(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewConfigStore(pool)

	_, err := store.GetPolicy(ctx, 1)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	cfg := domain.DefaultPolicyConfig(1)
	cfg.Enabled = true
	cfg.MinPatternScore = 80
	require.NoError(t, store.PutPolicy(ctx, cfg))

	got, err := store.GetPolicy(ctx, 1)
	require.NoError(t, err)
	assert.True(t, got.Enabled)
	assert.Equal(t, domain.ModePaper, got.Mode)
	assert.InDelta(t, 80, got.MinPatternScore, 0.0001)
	assert.InDelta(t, 0.75, got.MinConfidence, 0.0001)

	// Upsert overwrites.
	cfg.MinPatternScore = 65
	require.NoError(t, store.PutPolicy(ctx, cfg))
	got, err = store.GetPolicy(ctx, 1)
	require.NoError(t, err)
	assert.InDelta(t, 65, got.MinPatternScore, 0.0001)
}

func TestConfigStore_ExecutionRoundTrip(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewConfigStore(pool)

	_, err := store.GetExecution(ctx, 1)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	cfg := domain.DefaultExecutionConfig(1)
	cfg.TradeAmountUsd = 100
	require.NoError(t, store.PutExecution(ctx, cfg))

	got, err := store.GetExecution(ctx, 1)
	require.NoError(t, err)
	assert.InDelta(t, 100, got.TradeAmountUsd, 0.0001)
	assert.InDelta(t, 3, got.MaxOpenPositions, 0.0001)

	cfg.Mode = domain.ModeLive
	require.NoError(t, store.PutExecution(ctx, cfg))
	got, err = store.GetExecution(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, domain.ModeLive, got.Mode)
}

func TestConfigStore_PutInvalid(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewConfigStore(pool)

	assert.ErrorIs(t, store.PutPolicy(ctx, nil), storage.ErrInvalidInput)
	assert.ErrorIs(t, store.PutExecution(ctx, &domain.ExecutionConfig{}), storage.ErrInvalidInput)
}

func TestWatchlistStore_RoundTrip(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewWatchlistStore(pool)

	_, err := store.Get(ctx, 1)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, store.Put(ctx, 1, []string{" mintA ", "mintB", "mintA"}))

	got, err := store.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"mintA", "mintB"}, got.Mints)

	require.NoError(t, store.Put(ctx, 1, []string{"mintC"}))
	got, err = store.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"mintC"}, got.Mints)
}

func TestWatchlistStore_PutEmpty(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewWatchlistStore(pool)

	err := store.Put(context.Background(), 1, []string{"  ", ""})
	assert.ErrorIs(t, err, storage.ErrInvalidInput)
}
