// Package ratelimit gates viewer input before it reaches the buzzer arbiter
// or the vote tally.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// Reason codes for rejected input. Rejection is a normal control-flow
// outcome, never an error.
type Reason string

const (
	ReasonCooldown   Reason = "cooldown"
	ReasonAttemptCap Reason = "attempt_cap"
	ReasonGlobalRate Reason = "global_rate"
	// ReasonClosed marks input arriving while no question is accepting it.
	ReasonClosed Reason = "closed"
)

// Decision is the accept/reject outcome for one submission.
type Decision struct {
	Accepted bool
	Reason   Reason
}

func accepted() Decision         { return Decision{Accepted: true} }
func rejected(r Reason) Decision { return Decision{Reason: r} }

// Config holds the viewer input limits.
type Config struct {
	PerUserCooldown    time.Duration
	PerUserMaxAttempts int
	GlobalRPS          int
	GCInterval         time.Duration
	BucketTTL          time.Duration
}

// DefaultConfig returns the default input limits.
func DefaultConfig() Config {
	return Config{
		PerUserCooldown:    2 * time.Second,
		PerUserMaxAttempts: 5,
		GlobalRPS:          50,
		GCInterval:         time.Minute,
		BucketTTL:          5 * time.Minute,
	}
}

type userBucket struct {
	lastAt   time.Time
	attempts int
}

// Gateway enforces three independent limits: per-user cooldown, per-user
// attempt cap for the current question, and a global requests-per-second
// budget over a sliding one-second window. Per-question state resets when the
// phase manager shows or resets a question; stale user buckets are
// garbage-collected on a fixed interval to bound memory.
type Gateway struct {
	cfg   Config
	clock clockwork.Clock

	mu     sync.Mutex
	users  map[string]*userBucket
	window []time.Time
}

// NewGateway creates a gateway with the given limits.
func NewGateway(clock clockwork.Clock, cfg Config) *Gateway {
	return &Gateway{
		cfg:   cfg,
		clock: clock,
		users: make(map[string]*userBucket),
	}
}

// Allow decides whether one submission from the given user passes the limits
// and, if so, records it.
func (g *Gateway) Allow(userID string) Decision {
	now := g.clock.Now()

	g.mu.Lock()
	defer g.mu.Unlock()

	b, ok := g.users[userID]
	if !ok {
		b = &userBucket{}
		g.users[userID] = b
	}

	if g.cfg.PerUserMaxAttempts > 0 && b.attempts >= g.cfg.PerUserMaxAttempts {
		log.Debug().Str("user_id", userID).Msg("input rejected: attempt cap")
		return rejected(ReasonAttemptCap)
	}
	if g.cfg.PerUserCooldown > 0 && !b.lastAt.IsZero() && now.Sub(b.lastAt) < g.cfg.PerUserCooldown {
		log.Debug().Str("user_id", userID).Msg("input rejected: cooldown")
		return rejected(ReasonCooldown)
	}

	g.pruneWindowLocked(now)
	if g.cfg.GlobalRPS > 0 && len(g.window) >= g.cfg.GlobalRPS {
		log.Debug().Str("user_id", userID).Msg("input rejected: global rate")
		return rejected(ReasonGlobalRate)
	}

	b.lastAt = now
	b.attempts++
	g.window = append(g.window, now)
	return accepted()
}

// pruneWindowLocked drops window entries older than one second.
func (g *Gateway) pruneWindowLocked(now time.Time) {
	cutoff := now.Add(-time.Second)
	i := 0
	for ; i < len(g.window); i++ {
		if g.window[i].After(cutoff) {
			break
		}
	}
	if i > 0 {
		g.window = append(g.window[:0], g.window[i:]...)
	}
}

// Reset clears all per-question counters; invoked when a question is shown or
// reset.
func (g *Gateway) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.users = make(map[string]*userBucket)
	g.window = g.window[:0]
}

// RunGC removes stale user buckets on a fixed interval until the context is
// cancelled.
func (g *Gateway) RunGC(ctx context.Context) {
	interval := g.cfg.GCInterval
	if interval <= 0 {
		interval = DefaultConfig().GCInterval
	}
	ticker := g.clock.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			g.collect()
		}
	}
}

func (g *Gateway) collect() {
	ttl := g.cfg.BucketTTL
	if ttl <= 0 {
		ttl = DefaultConfig().BucketTTL
	}
	cutoff := g.clock.Now().Add(-ttl)

	g.mu.Lock()
	removed := 0
	for id, b := range g.users {
		if b.lastAt.Before(cutoff) {
			delete(g.users, id)
			removed++
		}
	}
	g.mu.Unlock()

	if removed > 0 {
		log.Debug().Int("removed", removed).Msg("rate limit buckets collected")
	}
}

// TrackedUsers reports the number of live user buckets.
func (g *Gateway) TrackedUsers() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.users)
}
