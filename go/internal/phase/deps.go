// Package phase contains the question lifecycle state machine that
// orchestrates the timer, reveal drivers, buzzer, scoring and broadcast.
package phase

import (
	"time"

	"github.com/mcdev12/triviacast/go/internal/buzzer"
	"github.com/mcdev12/triviacast/go/internal/events"
	"github.com/mcdev12/triviacast/go/internal/quiz"
	"github.com/mcdev12/triviacast/go/internal/ratelimit"
	"github.com/mcdev12/triviacast/go/internal/reveal"
)

// Publisher is the slice of the broadcaster the manager needs.
type Publisher interface {
	Publish(ch events.Channel, p events.Payload) (*events.Event, error)
}

// CountdownTimer drives the per-question countdown.
type CountdownTimer interface {
	Start(seconds int, onTick func(remaining int), onExpire func())
	Pause()
	Stop()
}

// ZoomDriver is the zoom reveal animation driver.
type ZoomDriver interface {
	Start(questionID string) error
	Stop()
	Reset()
	InternalConfig() reveal.ZoomConfig
	Steps() int
}

// MysteryDriver is the mystery-image reveal driver.
type MysteryDriver interface {
	Start(questionID string) error
	Stop()
	Reset()
	InternalConfig() reveal.MysteryConfig
}

// Buzzer arbitrates buzz input.
type Buzzer interface {
	Open(stealEnabled bool)
	Close()
	Buzz(playerID string, at time.Time) buzzer.Outcome
	MarkWrong(playerID string) bool
}

// Scorer applies scores and publishes the leaderboard.
type Scorer interface {
	AutoScore(q quiz.Question, sess *quiz.Session) int
	AddScore(questionID, entityID string, delta int) (int, error)
	PublishLeaderboard(sess *quiz.Session) error
}

// InputLimiter gates viewer input.
type InputLimiter interface {
	Allow(userID string) ratelimit.Decision
	Reset()
}

// Config holds the manager knobs.
type Config struct {
	DefaultQuestionSeconds int
	AutoLockOnExpiry       bool
}

// DefaultConfig returns the default manager configuration.
func DefaultConfig() Config {
	return Config{DefaultQuestionSeconds: 30}
}
