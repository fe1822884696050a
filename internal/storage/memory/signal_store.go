package memory

import (
	"context"
	"sync"

	"mintsentry/internal/domain"
	"mintsentry/internal/storage"
)

// SignalStore implements storage.SignalStore in memory.
type SignalStore struct {
	mu      sync.RWMutex
	signals map[int64]*domain.SignalRecord
	nextID  int64
}

// NewSignalStore creates a new in-memory SignalStore.
func NewSignalStore() *SignalStore {
	return &SignalStore{signals: make(map[int64]*domain.SignalRecord)}
}

// Compile-time interface check.
var _ storage.SignalStore = (*SignalStore)(nil)

// Insert adds a new signal record and returns its assigned id.
func (s *SignalStore) Insert(_ context.Context, record *domain.SignalRecord) (int64, error) {
	if record == nil || record.Mint == "" {
		return 0, storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	stored := *record
	stored.ID = s.nextID
	s.signals[stored.ID] = &stored
	return stored.ID, nil
}

// GetByID retrieves a signal by id. Returns ErrNotFound if not exists.
func (s *SignalStore) GetByID(_ context.Context, id int64) (*domain.SignalRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.signals[id]
	if !ok {
		return nil, storage.ErrNotFound
	}

	copied := *record
	return &copied, nil
}

// ListByUser retrieves a user's most recent signals, newest first.
func (s *SignalStore) ListByUser(_ context.Context, userID int64, limit int) ([]*domain.SignalRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.SignalRecord
	// Ids are monotonically increasing, walk backwards for newest first.
	for id := s.nextID; id > 0 && (limit <= 0 || len(out) < limit); id-- {
		record, ok := s.signals[id]
		if !ok || record.UserID != userID {
			continue
		}
		copied := *record
		out = append(out, &copied)
	}
	return out, nil
}
