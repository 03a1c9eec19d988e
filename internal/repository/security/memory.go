package security

import (
	"context"
	"sync"

	domain "github.com/oshokin/catpoint/internal/domain/security"
)

// MemoryStorage keeps the state document in memory.
type MemoryStorage struct {
	// state is the last saved document, nil until the first Save.
	state *domain.State
	// mu protects state.
	mu sync.Mutex
}

// NewMemoryStorage returns an empty storage. A non-nil initial state is stored as-is.
func NewMemoryStorage(initial *domain.State) *MemoryStorage {
	return &MemoryStorage{
		state: initial.Clone(),
	}
}

// Load returns a copy of the stored document.
func (m *MemoryStorage) Load(_ context.Context) (*domain.State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state == nil {
		return nil, ErrNotFound
	}

	return m.state.Clone(), nil
}

// Save replaces the stored document with a copy of state.
func (m *MemoryStorage) Save(_ context.Context, state *domain.State) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.state = state.Clone()

	return nil
}
