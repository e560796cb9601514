package storage

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"github.com/jwebster45206/tabletop-engine/pkg/state"
)

// MockStorage is a mock implementation of Storage for testing.
type MockStorage struct {
	mu        sync.RWMutex
	sessions  map[uuid.UUID]*state.GameState
	pingError error
	saveError error
	loadError error
}

// Ensure MockStorage implements Storage interface
var _ Storage = (*MockStorage)(nil)

// NewMockStorage creates a new mock storage.
func NewMockStorage() *MockStorage {
	return &MockStorage{
		sessions: make(map[uuid.UUID]*state.GameState),
	}
}

// SetPingError configures the mock to fail on ping with the given error.
func (m *MockStorage) SetPingError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pingError = err
}

// SetSaveError configures the mock to fail on save with the given error.
func (m *MockStorage) SetSaveError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saveError = err
}

// SetLoadError configures the mock to fail on load with the given error.
func (m *MockStorage) SetLoadError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loadError = err
}

// Ping mocks storage ping.
func (m *MockStorage) Ping(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pingError
}

// Close mocks storage close.
func (m *MockStorage) Close() error {
	return nil
}

// SaveSession stores a deep copy of the session, mirroring the
// serialize-on-write behavior of the real store.
func (m *MockStorage) SaveSession(ctx context.Context, id uuid.UUID, gs *state.GameState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveError != nil {
		return m.saveError
	}

	copied, err := copySession(gs)
	if err != nil {
		return err
	}
	m.sessions[id] = copied
	return nil
}

// LoadSession returns a deep copy of the stored session, or nil when
// the session does not exist.
func (m *MockStorage) LoadSession(ctx context.Context, id uuid.UUID) (*state.GameState, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.loadError != nil {
		return nil, m.loadError
	}

	gs, ok := m.sessions[id]
	if !ok {
		return nil, nil
	}
	return copySession(gs)
}

// DeleteSession removes a session.
func (m *MockStorage) DeleteSession(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

func copySession(gs *state.GameState) (*state.GameState, error) {
	data, err := json.Marshal(gs)
	if err != nil {
		return nil, err
	}
	var copied state.GameState
	if err := json.Unmarshal(data, &copied); err != nil {
		return nil, err
	}
	return &copied, nil
}
