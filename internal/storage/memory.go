package storage

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/kalambet/devfolio/internal/chat"
)

var (
	_ HistoryStore = (*MemoryStore)(nil)
	_ SessionStore = (*MemoryStore)(nil)
)

// MemoryStore keeps history and sessions in process memory. It backs
// the CLI's one-off commands and tests; nothing survives a restart.
type MemoryStore struct {
	mu       sync.Mutex
	history  map[string][]chat.Message
	sessions map[string]Session
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		history:  make(map[string][]chat.Message),
		sessions: make(map[string]Session),
	}
}

func (m *MemoryStore) GetHistory(_ context.Context, sessionID string) ([]chat.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	h := m.history[sessionID]
	out := make([]chat.Message, len(h))
	copy(out, h)
	return out, nil
}

func (m *MemoryStore) AppendMessage(_ context.Context, sessionID string, role chat.Role, content string) error {
	if !role.Valid() {
		return fmt.Errorf("invalid role %q", role)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.history[sessionID] = append(m.history[sessionID], chat.Message{
		Role:      role,
		Content:   content,
		Timestamp: time.Now().UTC(),
	})
	return nil
}

func (m *MemoryStore) ResetSession(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.history, sessionID)
	return nil
}

func (m *MemoryStore) GetSession(_ context.Context, id string) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return Session{}, ErrNotFound
	}
	return s, nil
}

func (m *MemoryStore) SaveSession(_ context.Context, s Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now().UTC()
	if prev, ok := m.sessions[s.ID]; ok {
		s.CreatedAt = prev.CreatedAt
	} else if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}
	if s.UpdatedAt.IsZero() {
		s.UpdatedAt = now
	}
	m.sessions[s.ID] = s
	return nil
}

func (m *MemoryStore) DeleteSession(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; !ok {
		return ErrNotFound
	}
	delete(m.sessions, id)
	delete(m.history, id)
	return nil
}
