package timer

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// Countdown is the single-question countdown. It emits one tick per second
// with the remaining whole seconds and exactly one expiry when the deadline
// passes. Expiry does not change phase; the phase manager decides what an
// expired question means.
//
// Only one countdown run is active at a time: Start cancels any previous run,
// and a generation counter guarantees a just-cancelled run never delivers a
// stale tick.
type Countdown struct {
	clock clockwork.Clock

	mu        sync.Mutex
	gen       int
	deadline  time.Time
	remaining int
	running   bool
	stopCh    chan struct{}
}

// NewCountdown creates a countdown on the given clock.
func NewCountdown(clock clockwork.Clock) *Countdown {
	return &Countdown{clock: clock}
}

// Start begins a countdown of the given number of seconds, replacing any run
// already in progress. onTick receives the remaining seconds after each tick;
// onExpire fires once when the countdown reaches zero. Both callbacks are
// invoked from the countdown goroutine and may be nil.
func (c *Countdown) Start(seconds int, onTick func(remaining int), onExpire func()) {
	if seconds <= 0 {
		log.Warn().Int("seconds", seconds).Msg("countdown started with non-positive duration, ignoring")
		return
	}

	c.mu.Lock()
	c.cancelLocked()
	c.gen++
	gen := c.gen
	c.remaining = seconds
	c.deadline = c.clock.Now().Add(time.Duration(seconds) * time.Second)
	c.running = true
	stopCh := make(chan struct{})
	c.stopCh = stopCh
	// The ticker is created before Start returns so a fake clock advanced
	// immediately afterwards still reaches it.
	ticker := c.clock.NewTicker(time.Second)
	c.mu.Unlock()

	go c.run(gen, stopCh, ticker, onTick, onExpire)
}

func (c *Countdown) run(gen int, stopCh chan struct{}, ticker clockwork.Ticker, onTick func(int), onExpire func()) {
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.Chan():
			c.mu.Lock()
			if c.gen != gen || !c.running {
				c.mu.Unlock()
				return
			}
			rem := int(c.deadline.Sub(c.clock.Now()).Round(time.Second) / time.Second)
			if rem < 0 {
				rem = 0
			}
			c.remaining = rem
			expired := rem == 0
			if expired {
				c.running = false
				c.stopCh = nil
			}
			c.mu.Unlock()

			if onTick != nil {
				onTick(rem)
			}
			if expired {
				log.Debug().Msg("countdown expired")
				if onExpire != nil {
					onExpire()
				}
				return
			}
		}
	}
}

// Pause freezes the remaining time and stops tick emission. Safe to call when
// already paused or not running.
func (c *Countdown) Pause() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.running {
		return
	}
	rem := int(c.deadline.Sub(c.clock.Now()).Round(time.Second) / time.Second)
	if rem < 0 {
		rem = 0
	}
	c.remaining = rem
	c.running = false
	c.cancelLocked()
	log.Debug().Int("remaining_sec", rem).Msg("countdown paused")
}

// Stop cancels the countdown entirely. Safe to call when not running.
func (c *Countdown) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.running = false
	c.remaining = 0
	c.cancelLocked()
}

// cancelLocked bumps the generation and signals the run goroutine. Callers
// must hold c.mu.
func (c *Countdown) cancelLocked() {
	c.gen++
	if c.stopCh != nil {
		close(c.stopCh)
		c.stopCh = nil
	}
}

// Remaining reports the frozen or live remaining seconds.
func (c *Countdown) Remaining() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.running {
		rem := int(c.deadline.Sub(c.clock.Now()).Round(time.Second) / time.Second)
		if rem < 0 {
			rem = 0
		}
		return rem
	}
	return c.remaining
}

// Running reports whether a countdown is in progress.
func (c *Countdown) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}
