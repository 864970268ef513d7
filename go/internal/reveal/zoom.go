package reveal

import (
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/triviacast/go/internal/events"
)

// ZoomConfig parametrizes the zoom-out animation.
type ZoomConfig struct {
	Seconds  int
	FPS      int
	MaxLevel float64
}

// DefaultZoomConfig returns the default zoom parameters.
func DefaultZoomConfig() ZoomConfig {
	return ZoomConfig{Seconds: 10, FPS: 5, MaxLevel: 4.0}
}

// Zoom interpolates the image scale from MaxLevel down to 1x over
// Seconds*FPS steps, emitting a zoom.step event per step. Stop emits a
// terminal zoom.complete so the overlay snaps to fully revealed, which is
// what a host force-reveal relies on.
type Zoom struct {
	clock clockwork.Clock
	pub   Publisher
	cfg   ZoomConfig

	mu         sync.Mutex
	gen        int
	running    bool
	stopCh     chan struct{}
	questionID string
}

// NewZoom creates a zoom driver.
func NewZoom(clock clockwork.Clock, pub Publisher, cfg ZoomConfig) *Zoom {
	return &Zoom{clock: clock, pub: pub, cfg: cfg}
}

// Start begins the animation for the given question, replacing any run in
// progress.
func (z *Zoom) Start(questionID string) error {
	if z.cfg.Seconds <= 0 || z.cfg.FPS <= 0 {
		return fmt.Errorf("invalid zoom config: %ds at %d fps", z.cfg.Seconds, z.cfg.FPS)
	}
	if z.cfg.MaxLevel <= 1 {
		return fmt.Errorf("invalid zoom config: max level %.2f must exceed 1", z.cfg.MaxLevel)
	}

	steps := z.cfg.Seconds * z.cfg.FPS
	interval := time.Second / time.Duration(z.cfg.FPS)

	z.mu.Lock()
	z.cancelLocked()
	z.gen++
	gen := z.gen
	z.running = true
	z.questionID = questionID
	stopCh := make(chan struct{})
	z.stopCh = stopCh
	ticker := z.clock.NewTicker(interval)
	z.mu.Unlock()

	go z.run(gen, stopCh, ticker, questionID, steps)

	log.Debug().
		Str("question_id", questionID).
		Int("steps", steps).
		Msg("zoom driver started")
	return nil
}

func (z *Zoom) run(gen int, stopCh chan struct{}, ticker clockwork.Ticker, questionID string, steps int) {
	defer ticker.Stop()

	step := 0
	for {
		select {
		case <-stopCh:
			return
		case <-ticker.Chan():
			z.mu.Lock()
			if z.gen != gen || !z.running {
				z.mu.Unlock()
				return
			}
			step++
			done := step >= steps
			if done {
				z.running = false
				z.stopCh = nil
			}
			z.mu.Unlock()

			scale := z.cfg.MaxLevel - (z.cfg.MaxLevel-1)*float64(step)/float64(steps)
			if _, err := z.pub.Publish(events.ChannelZoomStep, events.ZoomStepPayload{
				QuestionID: questionID,
				Step:       step,
				TotalSteps: steps,
				Scale:      scale,
			}); err != nil {
				log.Warn().Err(err).Str("question_id", questionID).Msg("zoom step publish failed")
			}

			if done {
				z.publishComplete(questionID)
				return
			}
		}
	}
}

// Stop cancels a running animation and emits zoom.complete so the overlay
// forces scale 1x regardless of the current step. A no-op when idle.
func (z *Zoom) Stop() {
	z.mu.Lock()
	wasRunning := z.running
	questionID := z.questionID
	z.running = false
	z.cancelLocked()
	z.mu.Unlock()

	if wasRunning {
		z.publishComplete(questionID)
	}
}

// Reset cancels any run without emitting a terminal event, readying the
// driver for the next question.
func (z *Zoom) Reset() {
	z.mu.Lock()
	defer z.mu.Unlock()
	z.running = false
	z.questionID = ""
	z.cancelLocked()
}

// Running reports whether the animation is in progress.
func (z *Zoom) Running() bool {
	z.mu.Lock()
	defer z.mu.Unlock()
	return z.running
}

// InternalConfig exposes the driver parameters for the question.show payload.
func (z *Zoom) InternalConfig() ZoomConfig {
	return z.cfg
}

// Steps returns the total step count for the current configuration.
func (z *Zoom) Steps() int {
	return z.cfg.Seconds * z.cfg.FPS
}

func (z *Zoom) cancelLocked() {
	z.gen++
	if z.stopCh != nil {
		close(z.stopCh)
		z.stopCh = nil
	}
}

func (z *Zoom) publishComplete(questionID string) {
	if _, err := z.pub.Publish(events.ChannelZoomComplete, events.ZoomCompletePayload{
		QuestionID: questionID,
	}); err != nil {
		log.Warn().Err(err).Str("question_id", questionID).Msg("zoom complete publish failed")
	}
}
