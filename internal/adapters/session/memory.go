// Package session stores conversation sessions between chat interactions.
package session

import (
	"context"
	"sync"
	"time"

	"meetupbot/internal/domain"
)

// MemoryStore keeps sessions in process memory. Sessions idle for longer than ttl
// are treated as absent.
type MemoryStore struct {
	mu       sync.Mutex
	ttl      time.Duration
	now      func() time.Time
	sessions map[int64]domain.Session
}

// NewMemoryStore returns a MemoryStore. A zero ttl keeps sessions forever.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{ttl: ttl, now: time.Now, sessions: make(map[int64]domain.Session)}
}

func (m *MemoryStore) Get(_ context.Context, userID int64) (*domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[userID]
	if !ok || m.expired(s) {
		delete(m.sessions, userID)
		return domain.NewSession(userID), nil
	}
	return &s, nil
}

func (m *MemoryStore) Save(_ context.Context, s *domain.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s.UpdatedAt = m.now()
	m.sessions[s.UserID] = *s
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, userID)
	return nil
}

func (m *MemoryStore) expired(s domain.Session) bool {
	return m.ttl > 0 && m.now().Sub(s.UpdatedAt) > m.ttl
}

var _ domain.SessionStore = (*MemoryStore)(nil)
