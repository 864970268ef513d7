package reveal

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/triviacast/go/internal/events"
)

// MysteryConfig parametrizes the mystery-image grid reveal.
type MysteryConfig struct {
	Interval time.Duration
	GridRows int
	GridCols int
}

// DefaultMysteryConfig returns the default mystery-image parameters.
func DefaultMysteryConfig() MysteryConfig {
	return MysteryConfig{Interval: 2 * time.Second, GridRows: 4, GridCols: 4}
}

// Mystery uncovers grid squares in shuffled order at a fixed interval,
// emitting the cumulative set of revealed squares per step. Stop forces a
// full reveal.
type Mystery struct {
	clock clockwork.Clock
	pub   Publisher
	cfg   MysteryConfig

	mu         sync.Mutex
	gen        int
	running    bool
	stopCh     chan struct{}
	questionID string
	order      []int
	revealed   int
}

// NewMystery creates a mystery-image driver.
func NewMystery(clock clockwork.Clock, pub Publisher, cfg MysteryConfig) *Mystery {
	return &Mystery{clock: clock, pub: pub, cfg: cfg}
}

// Start begins uncovering squares for the given question, replacing any run
// in progress.
func (m *Mystery) Start(questionID string) error {
	if m.cfg.Interval <= 0 || m.cfg.GridRows <= 0 || m.cfg.GridCols <= 0 {
		return fmt.Errorf("invalid mystery config: %dx%d grid every %s", m.cfg.GridRows, m.cfg.GridCols, m.cfg.Interval)
	}

	total := m.cfg.GridRows * m.cfg.GridCols

	m.mu.Lock()
	m.cancelLocked()
	m.gen++
	gen := m.gen
	m.running = true
	m.questionID = questionID
	m.order = rand.Perm(total)
	m.revealed = 0
	stopCh := make(chan struct{})
	m.stopCh = stopCh
	ticker := m.clock.NewTicker(m.cfg.Interval)
	m.mu.Unlock()

	go m.run(gen, stopCh, ticker, questionID, total)

	log.Debug().
		Str("question_id", questionID).
		Int("squares", total).
		Msg("mystery driver started")
	return nil
}

func (m *Mystery) run(gen int, stopCh chan struct{}, ticker clockwork.Ticker, questionID string, total int) {
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.Chan():
			m.mu.Lock()
			if m.gen != gen || !m.running {
				m.mu.Unlock()
				return
			}
			m.revealed++
			squares := make([]int, m.revealed)
			copy(squares, m.order[:m.revealed])
			done := m.revealed >= total
			if done {
				m.running = false
				m.stopCh = nil
			}
			m.mu.Unlock()

			if _, err := m.pub.Publish(events.ChannelMysteryReveal, events.MysteryRevealPayload{
				QuestionID: questionID,
				Squares:    squares,
				Total:      total,
				Done:       done,
			}); err != nil {
				log.Warn().Err(err).Str("question_id", questionID).Msg("mystery reveal publish failed")
			}

			if done {
				return
			}
		}
	}
}

// Stop cancels a running reveal and publishes the fully revealed grid. A
// no-op when idle.
func (m *Mystery) Stop() {
	m.mu.Lock()
	wasRunning := m.running
	questionID := m.questionID
	total := m.cfg.GridRows * m.cfg.GridCols
	var squares []int
	if wasRunning {
		squares = make([]int, len(m.order))
		copy(squares, m.order)
	}
	m.running = false
	m.cancelLocked()
	m.mu.Unlock()

	if !wasRunning {
		return
	}
	if _, err := m.pub.Publish(events.ChannelMysteryReveal, events.MysteryRevealPayload{
		QuestionID: questionID,
		Squares:    squares,
		Total:      total,
		Done:       true,
	}); err != nil {
		log.Warn().Err(err).Str("question_id", questionID).Msg("mystery full reveal publish failed")
	}
}

// Reset cancels any run without emitting, readying the driver for the next
// question.
func (m *Mystery) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.running = false
	m.questionID = ""
	m.order = nil
	m.revealed = 0
	m.cancelLocked()
}

// Running reports whether the reveal is in progress.
func (m *Mystery) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

// InternalConfig exposes the driver parameters for the question.show payload.
func (m *Mystery) InternalConfig() MysteryConfig {
	return m.cfg
}

func (m *Mystery) cancelLocked() {
	m.gen++
	if m.stopCh != nil {
		close(m.stopCh)
		m.stopCh = nil
	}
}
