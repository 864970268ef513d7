// Package buzzer resolves first-hit-wins arbitration for buzz rounds, with
// bounce debouncing and an optional single steal window.
package buzzer

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// Outcome classifies how a buzz was resolved.
type Outcome string

const (
	// OutcomeWin marks the provisional winner of the question.
	OutcomeWin Outcome = "win"
	// OutcomeSteal marks a successful steal after the winner was marked wrong.
	OutcomeSteal Outcome = "steal"
	// OutcomeBounce is a near-duplicate discarded inside the debounce window.
	OutcomeBounce Outcome = "bounce"
	// OutcomeLocked means a winner is already locked in.
	OutcomeLocked Outcome = "locked"
	// OutcomeClosed means buzzing is not open for the current question.
	OutcomeClosed Outcome = "closed"
)

// Config holds the arbitration timing constants.
type Config struct {
	LockDelay   time.Duration
	StealWindow time.Duration
}

// DefaultConfig returns the default arbitration timings.
func DefaultConfig() Config {
	return Config{LockDelay: 300 * time.Millisecond, StealWindow: 5 * time.Second}
}

// State is a snapshot of the per-question buzzer state.
type State struct {
	WinnerID      string
	LockedAt      time.Time
	StealDeadline *time.Time
	StealUsed     bool
}

// Arbiter resolves a stream of buzz events: the first buzz wins, buzzes
// within LockDelay of the winning buzz are discarded as switch bounce, and
// with steal enabled one distinct player may take over within StealWindow of
// the winner being marked wrong. State is reset every question via Open.
type Arbiter struct {
	cfg   Config
	clock clockwork.Clock

	mu           sync.Mutex
	open         bool
	stealEnabled bool
	winnerID     string
	winnerAt     time.Time
	wrongAt      *time.Time
	stealUsed    bool
}

// NewArbiter creates an arbiter with the given timings.
func NewArbiter(clock clockwork.Clock, cfg Config) *Arbiter {
	return &Arbiter{cfg: cfg, clock: clock}
}

// Open reinitializes the per-question state and starts accepting buzzes.
func (a *Arbiter) Open(stealEnabled bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.open = true
	a.stealEnabled = stealEnabled
	a.winnerID = ""
	a.winnerAt = time.Time{}
	a.wrongAt = nil
	a.stealUsed = false
}

// Close stops accepting buzzes until the next Open.
func (a *Arbiter) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.open = false
}

// Buzz arbitrates a single buzz event. A zero arrival time means "now":
// arbiter receipt order is authoritative when timestamps are absent.
func (a *Arbiter) Buzz(playerID string, at time.Time) Outcome {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.open {
		return OutcomeClosed
	}
	if at.IsZero() {
		at = a.clock.Now()
	}

	if a.winnerID == "" {
		a.winnerID = playerID
		a.winnerAt = at
		log.Info().Str("player_id", playerID).Msg("buzzer winner locked in")
		return OutcomeWin
	}

	if at.Sub(a.winnerAt) < a.cfg.LockDelay {
		log.Debug().Str("player_id", playerID).Msg("buzz discarded as bounce")
		return OutcomeBounce
	}

	if a.stealEnabled && !a.stealUsed && a.wrongAt != nil &&
		playerID != a.winnerID && at.Sub(*a.wrongAt) <= a.cfg.StealWindow {
		a.stealUsed = true
		a.winnerID = playerID
		a.winnerAt = at
		a.wrongAt = nil
		log.Info().Str("player_id", playerID).Msg("question stolen")
		return OutcomeSteal
	}

	return OutcomeLocked
}

// MarkWrong reports that the current winner answered wrong, opening the steal
// window when steal mode is enabled. It reports whether a window was opened.
func (a *Arbiter) MarkWrong(playerID string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.open || a.winnerID == "" || playerID != a.winnerID {
		return false
	}
	if !a.stealEnabled || a.stealUsed {
		return false
	}
	now := a.clock.Now()
	a.wrongAt = &now
	log.Info().
		Str("player_id", playerID).
		Dur("steal_window", a.cfg.StealWindow).
		Msg("winner marked wrong, steal window open")
	return true
}

// Winner returns the current winner, if any.
func (a *Arbiter) Winner() (string, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.winnerID, a.winnerID != ""
}

// Snapshot returns the transient per-question buzzer state.
func (a *Arbiter) Snapshot() State {
	a.mu.Lock()
	defer a.mu.Unlock()

	st := State{
		WinnerID:  a.winnerID,
		LockedAt:  a.winnerAt,
		StealUsed: a.stealUsed,
	}
	if a.wrongAt != nil {
		deadline := a.wrongAt.Add(a.cfg.StealWindow)
		st.StealDeadline = &deadline
	}
	return st
}
