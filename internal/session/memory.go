package session

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"socratic/internal/models"
)

// MemoryStore keeps sessions in process memory with idle expiry. The default
// for single-instance deployments and tests; RedisStore replaces it when
// sessions must survive restarts.
type MemoryStore struct {
	mu          sync.RWMutex
	sessions    map[string]entry
	idleTimeout time.Duration
	now         func() time.Time
}

type entry struct {
	payload  []byte
	expireAt time.Time
}

// NewMemoryStore creates a MemoryStore. idleTimeout <= 0 disables expiry.
func NewMemoryStore(idleTimeout time.Duration) *MemoryStore {
	return &MemoryStore{
		sessions:    make(map[string]entry),
		idleTimeout: idleTimeout,
		now:         time.Now,
	}
}

// Get loads a session, treating an expired entry as missing.
func (s *MemoryStore) Get(_ context.Context, sessionID string) (*models.QuestionSession, error) {
	s.mu.RLock()
	e, ok := s.sessions[sessionID]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	if !e.expireAt.IsZero() && s.now().After(e.expireAt) {
		s.mu.Lock()
		delete(s.sessions, sessionID)
		s.mu.Unlock()
		return nil, ErrSessionNotFound
	}

	var session models.QuestionSession
	if err := json.Unmarshal(e.payload, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// Put saves a session snapshot. Sessions are stored serialized so the caller
// cannot mutate stored state through a shared pointer.
func (s *MemoryStore) Put(_ context.Context, session *models.QuestionSession) error {
	payload, err := json.Marshal(session)
	if err != nil {
		return err
	}
	var expireAt time.Time
	if s.idleTimeout > 0 {
		expireAt = s.now().Add(s.idleTimeout)
	}
	s.mu.Lock()
	s.sessions[session.SessionID] = entry{payload: payload, expireAt: expireAt}
	s.mu.Unlock()
	return nil
}

// Delete removes a session.
func (s *MemoryStore) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	delete(s.sessions, sessionID)
	s.mu.Unlock()
	return nil
}

// Len reports the number of live entries, expired ones included until read.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
