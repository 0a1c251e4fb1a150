package state

import (
	"context"
	"sync"
	"time"
)

type memoryStore struct {
	mu       sync.RWMutex
	ttl      time.Duration
	now      func() time.Time
	sessions map[int64]*Session
}

// NewMemoryStore constructs an in-process Store. Sessions are lost on restart.
func NewMemoryStore(ttl time.Duration) Store {
	return newMemoryStore(ttl, time.Now)
}

func newMemoryStore(ttl time.Duration, now func() time.Time) *memoryStore {
	return &memoryStore{
		ttl:      ttl,
		now:      now,
		sessions: make(map[int64]*Session),
	}
}

// Get returns a copy of the stored session, dropping it when expired.
func (m *memoryStore) Get(_ context.Context, userID int64) (*Session, bool, error) {
	m.mu.RLock()
	sess, ok := m.sessions[userID]
	m.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	if sess.Expired(m.ttl, m.now()) {
		m.mu.Lock()
		if cur, still := m.sessions[userID]; still && cur == sess {
			delete(m.sessions, userID)
		}
		m.mu.Unlock()
		return nil, false, nil
	}
	return sess.Clone(), true, nil
}

// Put stores a copy of sess.
func (m *memoryStore) Put(_ context.Context, userID int64, sess *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[userID] = sess.Clone()
	return nil
}

// Delete removes the session for a user.
func (m *memoryStore) Delete(_ context.Context, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, userID)
	return nil
}

// Sweep drops every expired session and returns how many were removed.
func (m *memoryStore) Sweep(context.Context) (int, error) {
	now := m.now()
	m.mu.Lock()
	defer m.mu.Unlock()
	removed := 0
	for id, sess := range m.sessions {
		if sess.Expired(m.ttl, now) {
			delete(m.sessions, id)
			removed++
		}
	}
	return removed, nil
}

func (m *memoryStore) Close() error { return nil }
