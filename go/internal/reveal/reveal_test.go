package reveal

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/mcdev12/triviacast/go/internal/events"
)

// recordingPublisher captures published events and signals each one on a
// channel so tests stay in lockstep with the driver goroutine.
type recordingPublisher struct {
	published chan *events.Event
}

func newRecordingPublisher() *recordingPublisher {
	return &recordingPublisher{published: make(chan *events.Event, 256)}
}

func (p *recordingPublisher) Publish(ch events.Channel, payload events.Payload) (*events.Event, error) {
	ev := &events.Event{Channel: ch, Type: payload.EventType(), Payload: payload}
	p.published <- ev
	return ev, nil
}

func (p *recordingPublisher) next(t *testing.T) *events.Event {
	t.Helper()
	select {
	case ev := <-p.published:
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for published event")
		return nil
	}
}

func (p *recordingPublisher) expectNone(t *testing.T) {
	t.Helper()
	select {
	case ev := <-p.published:
		t.Fatalf("unexpected event on %s", ev.Channel)
	default:
	}
}

func TestZoomEmitsAllStepsThenComplete(t *testing.T) {
	clock := clockwork.NewFakeClock()
	pub := newRecordingPublisher()
	z := NewZoom(clock, pub, ZoomConfig{Seconds: 1, FPS: 4, MaxLevel: 4.0})

	if err := z.Start("q1"); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if z.Steps() != 4 {
		t.Fatalf("expected 4 steps, got %d", z.Steps())
	}

	interval := time.Second / 4
	for step := 1; step <= 4; step++ {
		clock.Advance(interval)
		ev := pub.next(t)
		if ev.Channel != events.ChannelZoomStep {
			t.Fatalf("step %d: expected zoom.step, got %s", step, ev.Channel)
		}
		p := ev.Payload.(events.ZoomStepPayload)
		if p.Step != step || p.TotalSteps != 4 {
			t.Fatalf("expected step %d/4, got %d/%d", step, p.Step, p.TotalSteps)
		}
	}

	// The final step lands exactly at scale 1x and triggers completion.
	ev := pub.next(t)
	if ev.Channel != events.ChannelZoomComplete {
		t.Fatalf("expected zoom.complete, got %s", ev.Channel)
	}
	if z.Running() {
		t.Fatal("zoom must stop after the last step")
	}
}

func TestZoomScaleInterpolatesDownToOne(t *testing.T) {
	clock := clockwork.NewFakeClock()
	pub := newRecordingPublisher()
	z := NewZoom(clock, pub, ZoomConfig{Seconds: 1, FPS: 2, MaxLevel: 3.0})

	if err := z.Start("q1"); err != nil {
		t.Fatalf("start failed: %v", err)
	}

	clock.Advance(500 * time.Millisecond)
	first := pub.next(t).Payload.(events.ZoomStepPayload)
	if first.Scale != 2.0 {
		t.Fatalf("expected midpoint scale 2.0, got %f", first.Scale)
	}

	clock.Advance(500 * time.Millisecond)
	last := pub.next(t).Payload.(events.ZoomStepPayload)
	if last.Scale != 1.0 {
		t.Fatalf("expected final scale 1.0, got %f", last.Scale)
	}
}

func TestZoomStopForcesComplete(t *testing.T) {
	clock := clockwork.NewFakeClock()
	pub := newRecordingPublisher()
	z := NewZoom(clock, pub, ZoomConfig{Seconds: 10, FPS: 5, MaxLevel: 4.0})

	if err := z.Start("q1"); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	z.Stop()

	ev := pub.next(t)
	if ev.Channel != events.ChannelZoomComplete {
		t.Fatalf("expected zoom.complete on stop, got %s", ev.Channel)
	}

	// Stopping again emits nothing.
	z.Stop()
	pub.expectNone(t)
}

func TestZoomResetIsSilent(t *testing.T) {
	clock := clockwork.NewFakeClock()
	pub := newRecordingPublisher()
	z := NewZoom(clock, pub, ZoomConfig{Seconds: 10, FPS: 5, MaxLevel: 4.0})

	if err := z.Start("q1"); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	z.Reset()

	pub.expectNone(t)
	if z.Running() {
		t.Fatal("zoom must not be running after reset")
	}

	// Driver is restartable after a reset.
	if err := z.Start("q2"); err != nil {
		t.Fatalf("restart failed: %v", err)
	}
	clock.Advance(200 * time.Millisecond)
	p := pub.next(t).Payload.(events.ZoomStepPayload)
	if p.QuestionID != "q2" || p.Step != 1 {
		t.Fatalf("expected fresh run for q2 step 1, got %+v", p)
	}
}

func TestZoomRejectsInvalidConfig(t *testing.T) {
	clock := clockwork.NewFakeClock()
	pub := newRecordingPublisher()

	if err := NewZoom(clock, pub, ZoomConfig{Seconds: 0, FPS: 5, MaxLevel: 4.0}).Start("q1"); err == nil {
		t.Fatal("expected error for zero duration")
	}
	if err := NewZoom(clock, pub, ZoomConfig{Seconds: 10, FPS: 5, MaxLevel: 1.0}).Start("q1"); err == nil {
		t.Fatal("expected error for max level at 1x")
	}
}

func TestMysteryRevealsEverySquareExactlyOnce(t *testing.T) {
	clock := clockwork.NewFakeClock()
	pub := newRecordingPublisher()
	m := NewMystery(clock, pub, MysteryConfig{Interval: time.Second, GridRows: 2, GridCols: 2})

	if err := m.Start("q1"); err != nil {
		t.Fatalf("start failed: %v", err)
	}

	var last events.MysteryRevealPayload
	for i := 1; i <= 4; i++ {
		clock.Advance(time.Second)
		ev := pub.next(t)
		last = ev.Payload.(events.MysteryRevealPayload)
		if len(last.Squares) != i {
			t.Fatalf("tick %d: expected %d cumulative squares, got %d", i, i, len(last.Squares))
		}
		if last.Total != 4 {
			t.Fatalf("expected total 4, got %d", last.Total)
		}
	}

	if !last.Done {
		t.Fatal("final reveal must be marked done")
	}
	seen := make(map[int]bool)
	for _, sq := range last.Squares {
		if sq < 0 || sq > 3 || seen[sq] {
			t.Fatalf("square %d out of range or repeated", sq)
		}
		seen[sq] = true
	}
	if m.Running() {
		t.Fatal("mystery must stop after the full grid is revealed")
	}
}

func TestMysteryStopPublishesFullGrid(t *testing.T) {
	clock := clockwork.NewFakeClock()
	pub := newRecordingPublisher()
	m := NewMystery(clock, pub, MysteryConfig{Interval: time.Second, GridRows: 3, GridCols: 3})

	if err := m.Start("q1"); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	clock.Advance(time.Second)
	pub.next(t)

	m.Stop()
	ev := pub.next(t)
	p := ev.Payload.(events.MysteryRevealPayload)
	if !p.Done || len(p.Squares) != 9 {
		t.Fatalf("stop must reveal the full grid, got done=%v squares=%d", p.Done, len(p.Squares))
	}

	m.Stop()
	pub.expectNone(t)
}
