package session

import (
	"sync"

	"github.com/mcdev12/triviacast/go/internal/quiz"
)

// MemoryStore is the in-memory implementation of Store.
type MemoryStore struct {
	mu      sync.RWMutex
	current *quiz.Session
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) GetSession() *quiz.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

func (s *MemoryStore) SetSession(sess *quiz.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = sess
}

func (s *MemoryStore) AddScore(entityID string, delta int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return 0, quiz.ErrNoActiveSession
	}
	return applyScore(s.current, entityID, delta), nil
}

// applyScore mutates the right score map and returns the new total. Shared
// with the Redis store so both agree on the player/viewer split.
func applyScore(sess *quiz.Session, entityID string, delta int) int {
	if _, ok := sess.PlayerScores[entityID]; ok {
		sess.PlayerScores[entityID] += delta
		return sess.PlayerScores[entityID]
	}
	if _, ok := sess.ViewerScores[entityID]; !ok {
		sess.ViewerOrder = append(sess.ViewerOrder, entityID)
	}
	sess.ViewerScores[entityID] += delta
	return sess.ViewerScores[entityID]
}
