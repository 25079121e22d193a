package session

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore keeps sessions in a mutex-guarded map. It hands out
// defensive copies so callers can never mutate stored state directly.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: map[string]*Session{}}
}

func (m *MemoryStore) Create(ctx context.Context, s *Session) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := s.Copy()
	if stored.ID == "" {
		stored.ID = uuid.New().String()
	}
	now := time.Now()
	stored.CreatedAt = now
	stored.UpdatedAt = now
	stored.Recompute()
	m.sessions[stored.ID] = stored
	return stored.Copy(), nil
}

func (m *MemoryStore) GetByID(ctx context.Context, id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return s.Copy(), nil
}

func (m *MemoryStore) List(ctx context.Context) ([]*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s.Copy())
	}
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].CreatedAt.Before(sessions[j].CreatedAt)
	})
	return sessions, nil
}

func (m *MemoryStore) Update(ctx context.Context, id string, patch Patch) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	updated := s.Copy()
	if patch.Title != nil {
		updated.Title = *patch.Title
	}
	if patch.Description != nil {
		updated.Description = *patch.Description
	}
	if patch.Actions != nil {
		updated.Actions = *patch.Actions
	}
	updated.UpdatedAt = time.Now()
	updated.Recompute()
	m.sessions[id] = updated
	return updated.Copy(), nil
}

func (m *MemoryStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; !ok {
		return ErrNotFound
	}
	delete(m.sessions, id)
	return nil
}

func (m *MemoryStore) SetShared(ctx context.Context, id string, shared bool) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	s.IsShared = shared
	s.UpdatedAt = time.Now()
	return s.Copy(), nil
}

func (m *MemoryStore) GetShared(ctx context.Context, id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok || !s.IsShared {
		// exists-but-unshared looks exactly like missing
		return nil, ErrNotFound
	}
	return s.Copy(), nil
}

func (m *MemoryStore) Close() {}
