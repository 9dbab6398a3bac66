package session

import (
	"context"
	"sync"
)

// MemoryStore keeps sessions in process memory. Sessions do not survive a restart.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]Principal
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]Principal)}
}

func (s *MemoryStore) SetCurrentUser(ctx context.Context, p Principal) error {
	sc, ok := scope(ctx)
	if !ok {
		return ErrAnonymous
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sc] = p
	return nil
}

func (s *MemoryStore) GetCurrentUser(ctx context.Context) (*Principal, bool, error) {
	sc, ok := scope(ctx)
	if !ok {
		return nil, false, nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.sessions[sc]
	if !ok {
		return nil, false, nil
	}
	return &p, true, nil
}

func (s *MemoryStore) ClearCurrentUser(ctx context.Context) error {
	sc, ok := scope(ctx)
	if !ok {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sc)
	return nil
}
