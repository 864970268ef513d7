// Package session holds the session store collaborator: authoritative
// in-memory state for the one active quiz run, with an optional Redis-backed
// mirror. Persistence beyond process lifetime is explicitly this layer's
// concern, not the core's.
package session

import (
	"github.com/mcdev12/triviacast/go/internal/quiz"
)

// Store abstracts how the active session is kept (in-memory, Redis, etc).
type Store interface {
	// GetSession returns the current session, or nil when none is loaded.
	GetSession() *quiz.Session
	// SetSession replaces the current session.
	SetSession(s *quiz.Session)
	// AddScore applies a delta to the entity's cumulative score and returns
	// the new total. Ids registered as players score into the player map;
	// everything else scores into the viewer map, created on first score.
	AddScore(entityID string, delta int) (int, error)
}
