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

func createTestSignal(userID int64, mint string) *domain.SignalRecord {
	return &domain.SignalRecord{
		UserID:       userID,
		Mint:         mint,
		Status:       "FAVORABLE",
		Confidence:   0.82,
		PatternScore: 74.5,
		KillScore:    92,
		KillVerdict:  "PASS",
		PriceUsd:     0.0042,
		LiquidityUsd: 125000,
		PayloadJSON:  `{"mint":"` + mint + `"}`,
		CreatedAt:    time.Now().UTC(),
	}
}

func TestSignalStore_InsertAndGetByID(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewSignalStore(pool)

	rec := createTestSignal(1, "mintA")
	id, err := store.Insert(ctx, rec)
	require.NoError(t, err)
	require.Greater(t, id, int64(0))

	retrieved, err := store.GetByID(ctx, id)
	require.NoError(t, err)

	assert.Equal(t, id, retrieved.ID)
	assert.Equal(t, rec.UserID, retrieved.UserID)
	assert.Equal(t, rec.Mint, retrieved.Mint)
	assert.Equal(t, rec.Status, retrieved.Status)
	assert.InDelta(t, rec.Confidence, retrieved.Confidence, 0.0001)
	assert.InDelta(t, rec.PatternScore, retrieved.PatternScore, 0.0001)
	assert.Equal(t, rec.KillScore, retrieved.KillScore)
	assert.Equal(t, rec.KillVerdict, retrieved.KillVerdict)
	assert.Equal(t, rec.PayloadJSON, retrieved.PayloadJSON)
	assert.WithinDuration(t, rec.CreatedAt, retrieved.CreatedAt, time.Second)
}

func TestSignalStore_GetByIDNotFound(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewSignalStore(pool)

	_, err := store.GetByID(context.Background(), 424242)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestSignalStore_InsertInvalid(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewSignalStore(pool)

	_, err := store.Insert(context.Background(), &domain.SignalRecord{UserID: 1})
	assert.ErrorIs(t, err, storage.ErrInvalidInput)
}

func TestSignalStore_ListByUser(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewSignalStore(pool)

	for _, mint := range []string{"mintA", "mintB", "mintC"} {
		_, err := store.Insert(ctx, createTestSignal(1, mint))
		require.NoError(t, err)
	}
	_, err := store.Insert(ctx, createTestSignal(2, "mintD"))
	require.NoError(t, err)

	signals, err := store.ListByUser(ctx, 1, 10)
	require.NoError(t, err)
	require.Len(t, signals, 3)

	// Newest first.
	assert.Equal(t, "mintC", signals[0].Mint)
	assert.Equal(t, "mintA", signals[2].Mint)

	limited, err := store.ListByUser(ctx, 1, 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}
