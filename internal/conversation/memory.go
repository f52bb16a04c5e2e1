package conversation

import (
	"context"
	"sync"
)

// MemoryStore keeps conversation state in process memory. State lives for the
// process lifetime with no expiry. Default backend, also used by tests.
type MemoryStore struct {
	mu     sync.RWMutex
	states map[string]State
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{states: map[string]State{}}
}

func (s *MemoryStore) Get(_ context.Context, userID string) (State, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.states[userID], nil
}

func (s *MemoryStore) Put(_ context.Context, userID string, state State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[userID] = state
	return nil
}

var _ Store = (*MemoryStore)(nil)
