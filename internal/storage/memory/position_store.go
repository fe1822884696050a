package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"mintsentry/internal/domain"
	"mintsentry/internal/storage"
)

// PositionStore implements storage.PositionStore in memory.
type PositionStore struct {
	mu        sync.RWMutex
	positions map[int64]*domain.Position
	nextID    int64
}

// NewPositionStore creates a new in-memory PositionStore.
func NewPositionStore() *PositionStore {
	return &PositionStore{positions: make(map[int64]*domain.Position)}
}

// Compile-time interface check.
var _ storage.PositionStore = (*PositionStore)(nil)

// Insert adds a new position and returns its assigned id.
func (s *PositionStore) Insert(_ context.Context, p *domain.Position) (int64, error) {
	if p == nil || p.Mint == "" || p.UserID == 0 {
		return 0, storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	stored := *p
	stored.ID = s.nextID
	s.positions[stored.ID] = &stored
	return stored.ID, nil
}

// GetByID retrieves a position by id. Returns ErrNotFound if not exists.
func (s *PositionStore) GetByID(_ context.Context, id int64) (*domain.Position, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.positions[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return copyPosition(p), nil
}

// ListByUser retrieves a user's positions, newest first. status filters by
// OPEN or CLOSED; empty returns all.
func (s *PositionStore) ListByUser(_ context.Context, userID int64, status string) ([]*domain.Position, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.Position
	for _, p := range s.positions {
		if p.UserID != userID {
			continue
		}
		if status != "" && p.Status != status {
			continue
		}
		out = append(out, copyPosition(p))
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

// UpdateMark stores a fresh mark for an OPEN position.
func (s *PositionStore) UpdateMark(_ context.Context, id int64, lastPrice, highWater float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.positions[id]
	if !ok || p.Status != domain.PositionOpen {
		return storage.ErrNotFound
	}

	p.LastPriceUsd = lastPrice
	if highWater > p.HighWaterPriceUsd {
		p.HighWaterPriceUsd = highWater
	}
	return nil
}

// Close transitions a position OPEN -> CLOSED exactly once.
func (s *PositionStore) Close(_ context.Context, id int64, closedAt time.Time, reason string, pnlPct, lastPrice, highWater float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.positions[id]
	if !ok || p.Status != domain.PositionOpen {
		return storage.ErrNotFound
	}

	p.Status = domain.PositionClosed
	p.ClosedAt = &closedAt
	p.CloseReason = &reason
	p.PnlPct = &pnlPct
	p.LastPriceUsd = lastPrice
	if highWater > p.HighWaterPriceUsd {
		p.HighWaterPriceUsd = highWater
	}
	return nil
}

// LastOpenedAt returns the most recent open timestamp for a user.
func (s *PositionStore) LastOpenedAt(_ context.Context, userID int64) (*time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var latest *time.Time
	for _, p := range s.positions {
		if p.UserID != userID {
			continue
		}
		if latest == nil || p.OpenedAt.After(*latest) {
			opened := p.OpenedAt
			latest = &opened
		}
	}
	return latest, nil
}

func copyPosition(p *domain.Position) *domain.Position {
	copied := *p
	if p.ClosedAt != nil {
		v := *p.ClosedAt
		copied.ClosedAt = &v
	}
	if p.CloseReason != nil {
		v := *p.CloseReason
		copied.CloseReason = &v
	}
	if p.PnlPct != nil {
		v := *p.PnlPct
		copied.PnlPct = &v
	}
	return &copied
}
