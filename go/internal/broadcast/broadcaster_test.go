package broadcast

import (
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/mcdev12/triviacast/go/internal/events"
)

type fakeTransport struct {
	delivered []*events.Event
	failWith  error
	subs      map[events.Channel]int
}

func (t *fakeTransport) Deliver(ev *events.Event) error {
	if t.failWith != nil {
		return t.failWith
	}
	t.delivered = append(t.delivered, ev)
	return nil
}

func (t *fakeTransport) SubscriberCount(ch events.Channel) int {
	return t.subs[ch]
}

func TestPublishDeliversAndTracksAck(t *testing.T) {
	clock := clockwork.NewFakeClock()
	transport := &fakeTransport{}
	b := New(transport, clock, Config{AckTimeout: 5 * time.Second})

	ev, err := b.Publish(events.ChannelPhaseUpdate, events.PhaseUpdatePayload{Phase: "idle"})
	if err != nil {
		t.Fatalf("publish failed: %v", err)
	}
	if len(transport.delivered) != 1 {
		t.Fatalf("expected 1 delivered event, got %d", len(transport.delivered))
	}
	if transport.delivered[0].ID != ev.ID {
		t.Fatalf("delivered event ID mismatch")
	}
	if ev.Type != "phase.update" {
		t.Fatalf("expected type phase.update, got %s", ev.Type)
	}
	if b.PendingCount() != 1 {
		t.Fatalf("expected 1 pending ack, got %d", b.PendingCount())
	}
}

func TestAckClearsPending(t *testing.T) {
	clock := clockwork.NewFakeClock()
	b := New(&fakeTransport{}, clock, Config{AckTimeout: 5 * time.Second})

	ev, err := b.Publish(events.ChannelQuestionShow, events.QuestionShowPayload{QuestionID: "q1"})
	if err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	b.HandleAck(ev.ID, true, "")
	if b.PendingCount() != 0 {
		t.Fatalf("expected no pending acks, got %d", b.PendingCount())
	}

	clock.Advance(10 * time.Second)
	if b.TimedOutCount() != 0 {
		t.Fatalf("acked event must not time out, got %d timeouts", b.TimedOutCount())
	}
}

func TestUnackedEventTimesOutOnce(t *testing.T) {
	clock := clockwork.NewFakeClock()
	b := New(&fakeTransport{}, clock, Config{AckTimeout: 5 * time.Second})

	ev, err := b.Publish(events.ChannelQuestionShow, events.QuestionShowPayload{QuestionID: "q1"})
	if err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	clock.Advance(5 * time.Second)
	// The fake clock invokes AfterFunc callbacks in their own goroutine, so
	// wait for the timeout callback to run before asserting on it.
	waitDeadline := time.Now().Add(time.Second)
	for b.TimedOutCount() == 0 && time.Now().Before(waitDeadline) {
		time.Sleep(time.Millisecond)
	}
	if b.TimedOutCount() != 1 {
		t.Fatalf("expected 1 timeout, got %d", b.TimedOutCount())
	}
	if b.PendingCount() != 0 {
		t.Fatalf("timed out event must be removed, got %d pending", b.PendingCount())
	}

	// Late ack after timeout is ignored.
	b.HandleAck(ev.ID, true, "")
	if b.TimedOutCount() != 1 {
		t.Fatalf("late ack must not change timeout count")
	}
}

func TestFailedAckStillClearsPending(t *testing.T) {
	clock := clockwork.NewFakeClock()
	b := New(&fakeTransport{}, clock, Config{AckTimeout: 5 * time.Second})

	ev, err := b.Publish(events.ChannelScoreUpdate, events.ScoreUpdatePayload{EntityID: "p1"})
	if err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	b.HandleAck(ev.ID, false, "render error")
	if b.PendingCount() != 0 {
		t.Fatalf("failed ack must still clear pending, got %d", b.PendingCount())
	}
}

func TestPublishReturnsTransportError(t *testing.T) {
	clock := clockwork.NewFakeClock()
	wantErr := errors.New("wire down")
	b := New(&fakeTransport{failWith: wantErr}, clock, Config{AckTimeout: time.Second})

	if _, err := b.Publish(events.ChannelPhaseUpdate, events.PhaseUpdatePayload{Phase: "idle"}); !errors.Is(err, wantErr) {
		t.Fatalf("expected wrapped transport error, got %v", err)
	}
	if b.PendingCount() != 0 {
		t.Fatalf("failed publish must not track an ack")
	}
}

func TestFanoutSkipsFailingTransport(t *testing.T) {
	good := &fakeTransport{subs: map[events.Channel]int{events.ChannelPhaseUpdate: 2}}
	bad := &fakeTransport{failWith: errors.New("relay down"), subs: map[events.Channel]int{events.ChannelPhaseUpdate: 1}}
	f := NewFanout(bad, good)

	ev := &events.Event{ID: "e1", Channel: events.ChannelPhaseUpdate}
	if err := f.Deliver(ev); err != nil {
		t.Fatalf("fanout must absorb individual transport failures: %v", err)
	}
	if len(good.delivered) != 1 {
		t.Fatalf("healthy transport must still receive the event")
	}
	if got := f.SubscriberCount(events.ChannelPhaseUpdate); got != 3 {
		t.Fatalf("expected summed subscriber count 3, got %d", got)
	}
}
