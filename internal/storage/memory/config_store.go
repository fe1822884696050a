package memory

import (
	"context"
	"sync"

	"mintsentry/internal/domain"
	"mintsentry/internal/storage"
)

// ConfigStore implements storage.ConfigStore in memory.
type ConfigStore struct {
	mu         sync.RWMutex
	policies   map[int64]*domain.PolicyConfig
	executions map[int64]*domain.ExecutionConfig
}

// NewConfigStore creates a new in-memory ConfigStore.
func NewConfigStore() *ConfigStore {
	return &ConfigStore{
		policies:   make(map[int64]*domain.PolicyConfig),
		executions: make(map[int64]*domain.ExecutionConfig),
	}
}

// Compile-time interface check.
var _ storage.ConfigStore = (*ConfigStore)(nil)

// GetPolicy retrieves a user's policy config.
func (s *ConfigStore) GetPolicy(_ context.Context, userID int64) (*domain.PolicyConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.policies[userID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	copied := *c
	return &copied, nil
}

// PutPolicy upserts a user's policy config, last-write-wins.
func (s *ConfigStore) PutPolicy(_ context.Context, c *domain.PolicyConfig) error {
	if c == nil || c.UserID == 0 {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *c
	s.policies[c.UserID] = &stored
	return nil
}

// GetExecution retrieves a user's execution config.
func (s *ConfigStore) GetExecution(_ context.Context, userID int64) (*domain.ExecutionConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.executions[userID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	copied := *c
	return &copied, nil
}

// PutExecution upserts a user's execution config, last-write-wins.
func (s *ConfigStore) PutExecution(_ context.Context, c *domain.ExecutionConfig) error {
	if c == nil || c.UserID == 0 {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *c
	s.executions[c.UserID] = &stored
	return nil
}
