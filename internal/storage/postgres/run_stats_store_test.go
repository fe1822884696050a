package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mintsentry/internal/domain"
	"mintsentry/internal/storage"
)

func TestRunStatsStore_InsertAndList(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewRunStatsStore(pool)

	first := &domain.RunStats{
		UserID:               1,
		Mode:                 domain.ModePaper,
		Scanned:              5,
		BuyCandidates:        2,
		Skipped:              2,
		Failed:               1,
		SimulatedExposureUsd: 50,
		AvgExpectedPnlPct:    3.4,
		CreatedAt:            time.Now().UTC(),
	}
	id1, err := store.Insert(ctx, first)
	require.NoError(t, err)
	require.Greater(t, id1, int64(0))

	second := &domain.RunStats{
		UserID:    1,
		Mode:      domain.ModePaper,
		Scanned:   3,
		Skipped:   3,
		CreatedAt: time.Now().UTC(),
	}
	id2, err := store.Insert(ctx, second)
	require.NoError(t, err)
	require.Greater(t, id2, id1)

	runs, err := store.ListByUser(ctx, 1, 10)
	require.NoError(t, err)
	require.Len(t, runs, 2)

	// Newest first.
	assert.Equal(t, id2, runs[0].ID)
	assert.Equal(t, 3, runs[0].Scanned)
	assert.Equal(t, 2, runs[1].BuyCandidates)
	assert.InDelta(t, 50, runs[1].SimulatedExposureUsd, 0.0001)
}

func TestRunStatsStore_InsertInvalid(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewRunStatsStore(pool)

	_, err := store.Insert(context.Background(), &domain.RunStats{})
	assert.ErrorIs(t, err, storage.ErrInvalidInput)
}
