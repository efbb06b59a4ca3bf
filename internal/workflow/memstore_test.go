package workflow

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// memStore is an in-process sessionStore used by tests so Machine's
// transition logic is exercised without a live Postgres connection.
// It mirrors Store's optimistic-locking contract exactly.
type memStore struct {
	mu       sync.Mutex
	sessions map[string]Session
}

func newMemStore() *memStore {
	return &memStore{sessions: make(map[string]Session)}
}

func (m *memStore) Create(mode Mode) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now().UTC()
	sess := Session{
		SessionID:    uuid.NewString(),
		Mode:         mode,
		State:        StateDraft,
		CreatedAtUTC: now,
		UpdatedAtUTC: now,
	}
	m.sessions[sess.SessionID] = sess
	return sess, nil
}

func (m *memStore) Get(sessionID string) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[sessionID]
	if !ok {
		return Session{}, ErrNotFound
	}
	return sess, nil
}

func (m *memStore) Save(sess *Session, expectedUpdatedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.sessions[sess.SessionID]
	if !ok {
		return ErrNotFound
	}
	if !cur.UpdatedAtUTC.Equal(expectedUpdatedAt) {
		return ErrStaleSession
	}
	sess.UpdatedAtUTC = time.Now().UTC()
	m.sessions[sess.SessionID] = *sess
	return nil
}
