// Package reveal contains the progressive-reveal step drivers. The drivers do
// not render anything: they emit the minimal per-step state an overlay needs
// to render deterministically, and stay restartable across questions.
package reveal

import (
	"github.com/mcdev12/triviacast/go/internal/events"
)

// Publisher is the slice of the broadcaster the drivers need.
type Publisher interface {
	Publish(ch events.Channel, p events.Payload) (*events.Event, error)
}
