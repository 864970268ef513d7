package broadcast

import (
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/triviacast/go/internal/events"
)

// Fanout composes several transports into one. A failing transport is logged
// and skipped so one slow sink never blocks the others.
type Fanout struct {
	transports []Transport
}

// NewFanout builds a composite transport.
func NewFanout(transports ...Transport) *Fanout {
	return &Fanout{transports: transports}
}

func (f *Fanout) Deliver(ev *events.Event) error {
	for _, t := range f.transports {
		if err := t.Deliver(ev); err != nil {
			log.Warn().
				Err(err).
				Str("event_id", ev.ID).
				Str("channel", string(ev.Channel)).
				Msg("transport delivery failed")
		}
	}
	return nil
}

func (f *Fanout) SubscriberCount(ch events.Channel) int {
	total := 0
	for _, t := range f.transports {
		total += t.SubscriberCount(ch)
	}
	return total
}
