package broadcast

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/triviacast/go/internal/events"
)

// NATSRelayConfig holds configuration for the NATS relay transport.
type NATSRelayConfig struct {
	URL           string
	SubjectPrefix string
	MaxReconnects int
	ReconnectWait time.Duration
}

// DefaultNATSRelayConfig returns the default relay configuration.
func DefaultNATSRelayConfig() NATSRelayConfig {
	return NATSRelayConfig{
		URL:           nats.DefaultURL,
		SubjectPrefix: "show.events",
		MaxReconnects: -1, // Infinite
		ReconnectWait: 2 * time.Second,
	}
}

// NATSRelay mirrors every published event onto a NATS subject so overlays in
// other processes can follow the show. Delivery is fire-and-forget; remote
// subscriber counts are unknown to this process.
type NATSRelay struct {
	nc     *nats.Conn
	config NATSRelayConfig
}

// NewNATSRelay connects to NATS and returns the relay transport.
func NewNATSRelay(cfg NATSRelayConfig) (*NATSRelay, error) {
	opts := []nats.Option{
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Error().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
		nats.ErrorHandler(func(nc *nats.Conn, sub *nats.Subscription, err error) {
			log.Error().Err(err).Msg("NATS error")
		}),
	}

	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}

	return &NATSRelay{nc: nc, config: cfg}, nil
}

func (r *NATSRelay) Deliver(ev *events.Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event %s: %w", ev.ID, err)
	}

	subject := fmt.Sprintf("%s.%s", r.config.SubjectPrefix, ev.Channel)
	if err := r.nc.Publish(subject, data); err != nil {
		return fmt.Errorf("publish to %s: %w", subject, err)
	}
	return nil
}

// SubscriberCount always reports zero: remote NATS subscribers are not
// visible to the publishing process.
func (r *NATSRelay) SubscriberCount(events.Channel) int {
	return 0
}

// Close drains the NATS connection.
func (r *NATSRelay) Close() {
	if r.nc != nil {
		r.nc.Close()
	}
}
