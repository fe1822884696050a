package clickhouse

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mintsentry/internal/domain"
)

func testSignalPoint(mint string, signalID, ts int64) *domain.SignalPoint {
	return &domain.SignalPoint{
		Mint:         mint,
		UserID:       1,
		SignalID:     signalID,
		Status:       "CAUTION",
		PatternScore: 61.5,
		KillScore:    72,
		Confidence:   0.65,
		PriceUsd:     0.002,
		LiquidityUsd: 80000,
		TimestampMs:  ts,
	}
}

func TestSignalHistoryStore_InsertBulkAndGetByMint(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewSignalHistoryStore(conn)

	base := time.Now().UnixMilli()
	points := []*domain.SignalPoint{
		testSignalPoint("mintA", 3, base+2000),
		testSignalPoint("mintA", 1, base),
		testSignalPoint("mintB", 2, base+1000),
	}
	require.NoError(t, store.InsertBulk(ctx, points))

	got, err := store.GetByMint(ctx, "mintA", 0)
	require.NoError(t, err)
	require.Len(t, got, 2)

	// Oldest first.
	assert.Equal(t, int64(1), got[0].SignalID)
	assert.Equal(t, int64(3), got[1].SignalID)
	assert.Equal(t, "CAUTION", got[0].Status)
	assert.Equal(t, int32(72), got[0].KillScore)
	assert.InDelta(t, 61.5, got[0].PatternScore, 0.0001)
	assert.InDelta(t, 0.65, got[0].Confidence, 0.0001)

	limited, err := store.GetByMint(ctx, "mintA", 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, int64(1), limited[0].SignalID)
}

func TestSignalHistoryStore_InsertBulkEmpty(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewSignalHistoryStore(conn)
	assert.NoError(t, store.InsertBulk(context.Background(), nil))
}

func TestRunHistoryStore_InsertBulkAndGetByUser(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewRunHistoryStore(conn)

	now := time.Now().UTC().Truncate(time.Millisecond)
	runs := []*domain.RunStats{
		{
			ID: 2, UserID: 1, Mode: domain.ModePaper,
			Scanned: 4, BuyCandidates: 1, Skipped: 3,
			SimulatedExposureUsd: 25, AvgExpectedPnlPct: 2.1,
			CreatedAt: now.Add(time.Minute),
		},
		{
			ID: 1, UserID: 1, Mode: domain.ModePaper,
			Scanned: 2, Skipped: 2,
			CreatedAt: now,
		},
		{
			ID: 3, UserID: 9, Mode: domain.ModeLive,
			Scanned:   1,
			CreatedAt: now,
		},
	}
	require.NoError(t, store.InsertBulk(ctx, runs))

	got, err := store.GetByUser(ctx, 1, 0)
	require.NoError(t, err)
	require.Len(t, got, 2)

	// Oldest first.
	assert.Equal(t, int64(1), got[0].ID)
	assert.Equal(t, int64(2), got[1].ID)
	assert.Equal(t, 1, got[1].BuyCandidates)
	assert.InDelta(t, 25, got[1].SimulatedExposureUsd, 0.0001)
	assert.True(t, got[0].CreatedAt.Equal(now))
}
