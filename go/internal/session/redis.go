package session

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/triviacast/go/internal/quiz"
)

// RedisStore is a Redis-aware implementation of Store.
//
// The in-process session stays authoritative so the core never blocks on
// network I/O; Redis carries a best-effort mirror of the score maps and a
// liveness marker, enough for a dashboard in another process to read scores
// after a crash.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration

	mu      sync.RWMutex
	current *quiz.Session
}

// NewRedisStore creates a store mirroring into the given client.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func (s *RedisStore) GetSession() *quiz.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

func (s *RedisStore) SetSession(sess *quiz.Session) {
	s.mu.Lock()
	s.current = sess
	s.mu.Unlock()

	if sess == nil {
		return
	}
	ctx := context.Background()
	if err := s.client.Set(ctx, s.liveKey(sess.ID), "1", s.ttl).Err(); err != nil {
		log.Warn().Err(err).Str("session_id", sess.ID).Msg("redis liveness marker failed")
	}
	for id, score := range sess.PlayerScores {
		s.mirrorScore(ctx, sess.ID, id, score)
	}
	for id, score := range sess.ViewerScores {
		s.mirrorScore(ctx, sess.ID, id, score)
	}
}

func (s *RedisStore) AddScore(entityID string, delta int) (int, error) {
	s.mu.Lock()
	if s.current == nil {
		s.mu.Unlock()
		return 0, quiz.ErrNoActiveSession
	}
	total := applyScore(s.current, entityID, delta)
	sessionID := s.current.ID
	s.mu.Unlock()

	s.mirrorScore(context.Background(), sessionID, entityID, total)
	return total, nil
}

// mirrorScore is best-effort; a Redis hiccup never fails a scoring call.
func (s *RedisStore) mirrorScore(ctx context.Context, sessionID, entityID string, total int) {
	if err := s.client.HSet(ctx, s.scoresKey(sessionID), entityID, strconv.Itoa(total)).Err(); err != nil {
		log.Warn().
			Err(err).
			Str("session_id", sessionID).
			Str("entity_id", entityID).
			Msg("redis score mirror failed")
	}
}

func (s *RedisStore) liveKey(sessionID string) string {
	return "show:session:" + sessionID
}

func (s *RedisStore) scoresKey(sessionID string) string {
	return "show:scores:" + sessionID
}
