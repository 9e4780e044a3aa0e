package cart

import (
	"context"
	"sync"
)

// Store is the persistence port for cart state. Load returns the empty
// cart shape when no state exists for the user.
type Store interface {
	Load(ctx context.Context, userID string) (*State, error)
	Save(ctx context.Context, userID string, state *State) error
	Clear(ctx context.Context, userID string) error
}

// MemoryStore keeps cart state in process memory. Used in tests.
type MemoryStore struct {
	mu    sync.Mutex
	carts map[string]State
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{carts: make(map[string]State)}
}

func (m *MemoryStore) Load(ctx context.Context, userID string) (*State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.carts[userID]; ok {
		cp := s
		cp.Items = append([]Item(nil), s.Items...)
		return &cp, nil
	}
	s := emptyState()
	return &s, nil
}

func (m *MemoryStore) Save(ctx context.Context, userID string, state *State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *state
	cp.Items = append([]Item(nil), state.Items...)
	m.carts[userID] = cp
	return nil
}

func (m *MemoryStore) Clear(ctx context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.carts, userID)
	return nil
}
