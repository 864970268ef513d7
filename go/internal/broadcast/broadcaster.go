package broadcast

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/triviacast/go/internal/events"
)

// Transport fans an event out to the current subscribers of its channel.
// Delivery is best-effort; acknowledgment flows back through HandleAck.
type Transport interface {
	Deliver(ev *events.Event) error
	SubscriberCount(ch events.Channel) int
}

// Config holds broadcaster tuning.
type Config struct {
	AckTimeout time.Duration
}

// DefaultConfig returns the default broadcaster configuration.
func DefaultConfig() Config {
	return Config{AckTimeout: 5 * time.Second}
}

// Broadcaster wraps payloads into events, hands them to the transport and
// tracks per-event acknowledgment with a timeout. Acknowledgment is
// observability, not at-least-once delivery: nothing is retried.
type Broadcaster struct {
	transport Transport
	clock     clockwork.Clock
	cfg       Config

	mu       sync.Mutex
	pending  map[string]*pendingAck
	timedOut int
}

type pendingAck struct {
	channel events.Channel
	timer   clockwork.Timer
}

// New creates a broadcaster over the given transport.
func New(transport Transport, clock clockwork.Clock, cfg Config) *Broadcaster {
	if cfg.AckTimeout <= 0 {
		cfg.AckTimeout = DefaultConfig().AckTimeout
	}
	return &Broadcaster{
		transport: transport,
		clock:     clock,
		cfg:       cfg,
		pending:   make(map[string]*pendingAck),
	}
}

// Publish wraps the payload in a fresh event, delivers it and arms the ack
// timeout. It never blocks on acknowledgment.
func (b *Broadcaster) Publish(channel events.Channel, payload events.Payload) (*events.Event, error) {
	ev := &events.Event{
		ID:        uuid.New().String(),
		Channel:   channel,
		Type:      payload.EventType(),
		Payload:   payload,
		Timestamp: b.clock.Now(),
	}

	if err := b.transport.Deliver(ev); err != nil {
		return nil, fmt.Errorf("deliver event %s on %s: %w", ev.ID, channel, err)
	}

	b.armAckTimeout(ev)

	log.Debug().
		Str("event_id", ev.ID).
		Str("channel", string(channel)).
		Msg("event published")
	return ev, nil
}

func (b *Broadcaster) armAckTimeout(ev *events.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := ev.ID
	p := &pendingAck{channel: ev.Channel}
	p.timer = b.clock.AfterFunc(b.cfg.AckTimeout, func() {
		b.mu.Lock()
		if _, ok := b.pending[id]; !ok {
			b.mu.Unlock()
			return
		}
		delete(b.pending, id)
		b.timedOut++
		b.mu.Unlock()

		log.Warn().
			Str("event_id", id).
			Str("channel", string(p.channel)).
			Dur("ack_timeout", b.cfg.AckTimeout).
			Msg("event was never acknowledged")
	})
	b.pending[id] = p
}

// HandleAck records a client acknowledgment for a published event. Acks for
// unknown (already timed out) events are ignored.
func (b *Broadcaster) HandleAck(eventID string, success bool, errMsg string) {
	b.mu.Lock()
	p, ok := b.pending[eventID]
	if ok {
		delete(b.pending, eventID)
	}
	b.mu.Unlock()

	if !ok {
		log.Debug().Str("event_id", eventID).Msg("ack for unknown or expired event")
		return
	}
	p.timer.Stop()

	if success {
		log.Debug().
			Str("event_id", eventID).
			Str("channel", string(p.channel)).
			Msg("event acknowledged")
		return
	}
	log.Warn().
		Str("event_id", eventID).
		Str("channel", string(p.channel)).
		Str("client_error", errMsg).
		Msg("event delivery reported failed by client")
}

// SubscriberCount reports how many subscribers the channel currently has.
func (b *Broadcaster) SubscriberCount(ch events.Channel) int {
	return b.transport.SubscriberCount(ch)
}

// HasSubscribers lets callers skip expensive payload construction. Publishing
// to an empty channel is still not an error.
func (b *Broadcaster) HasSubscribers(ch events.Channel) bool {
	return b.transport.SubscriberCount(ch) > 0
}

// PendingCount reports how many published events still await acknowledgment.
func (b *Broadcaster) PendingCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.pending)
}

// TimedOutCount reports how many ack timeouts have fired since creation.
func (b *Broadcaster) TimedOutCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.timedOut
}
