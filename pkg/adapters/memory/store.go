package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/aretw0/nestflow/pkg/domain"
)

// SessionStore implements ports.SessionStore in memory.
// Safe for concurrent use.
type SessionStore struct {
	data map[string]*domain.State
	mu   sync.RWMutex
}

// NewSessionStore creates a new in-memory session store.
func NewSessionStore() *SessionStore {
	return &SessionStore{
		data: make(map[string]*domain.State),
	}
}

// Save persists the state in memory.
func (s *SessionStore) Save(ctx context.Context, sessionID string, state *domain.State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	// Deep copy to ensure isolation, similar to serialization
	s.data[sessionID] = state.Clone()
	return nil
}

// Load retrieves the state from memory.
func (s *SessionStore) Load(ctx context.Context, sessionID string) (*domain.State, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state, ok := s.data[sessionID]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return state.Clone(), nil
}

// Delete removes the state from memory.
func (s *SessionStore) Delete(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, sessionID)
	return nil
}

// List returns all active session IDs.
func (s *SessionStore) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

// ModuleStore implements ports.ModuleStore in memory.
// Safe for concurrent use.
type ModuleStore struct {
	data map[string]*domain.Module
	mu   sync.RWMutex
}

// NewModuleStore creates a module store, optionally seeded with modules.
func NewModuleStore(seed ...*domain.Module) *ModuleStore {
	s := &ModuleStore{data: make(map[string]*domain.Module)}
	for _, m := range seed {
		s.data[m.ID] = cloneModule(m)
	}
	return s
}

func cloneModule(m *domain.Module) *domain.Module {
	out := *m
	out.Content.Nodes = domain.CloneNodes(m.Content.Nodes)
	return &out
}

// Load retrieves a module.
func (s *ModuleStore) Load(ctx context.Context, moduleID string) (*domain.Module, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.data[moduleID]
	if !ok {
		return nil, domain.ErrModuleNotFound
	}
	return cloneModule(m), nil
}

// Save stores a copy of the module.
func (s *ModuleStore) Save(ctx context.Context, module *domain.Module) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[module.ID] = cloneModule(module)
	return nil
}

// Delete removes a module.
func (s *ModuleStore) Delete(ctx context.Context, moduleID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, moduleID)
	return nil
}

// List returns the stored module ids in lexical order.
func (s *ModuleStore) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}
