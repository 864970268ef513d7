package timer

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
)

// advanceAndWait moves the fake clock one second and waits for the resulting
// tick to come back, keeping the test in lockstep with the run goroutine.
func advanceAndWait(t *testing.T, clock *clockwork.FakeClock, ticks <-chan int) int {
	t.Helper()
	clock.Advance(time.Second)
	select {
	case rem := <-ticks:
		return rem
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for countdown tick")
		return 0
	}
}

func TestCountdownTicksDownAndExpiresOnce(t *testing.T) {
	clock := clockwork.NewFakeClock()
	c := NewCountdown(clock)

	ticks := make(chan int, 10)
	expiries := make(chan struct{}, 10)
	c.Start(3, func(rem int) { ticks <- rem }, func() { expiries <- struct{}{} })

	if !c.Running() {
		t.Fatal("countdown must be running after Start")
	}

	if rem := advanceAndWait(t, clock, ticks); rem != 2 {
		t.Fatalf("expected 2 remaining, got %d", rem)
	}
	if rem := advanceAndWait(t, clock, ticks); rem != 1 {
		t.Fatalf("expected 1 remaining, got %d", rem)
	}
	if rem := advanceAndWait(t, clock, ticks); rem != 0 {
		t.Fatalf("expected 0 remaining, got %d", rem)
	}

	select {
	case <-expiries:
	case <-time.After(2 * time.Second):
		t.Fatal("expected exactly one expiry")
	}
	select {
	case <-expiries:
		t.Fatal("expiry fired more than once")
	default:
	}
	if c.Running() {
		t.Fatal("countdown must stop after expiry")
	}
}

func TestPauseFreezesRemaining(t *testing.T) {
	clock := clockwork.NewFakeClock()
	c := NewCountdown(clock)

	ticks := make(chan int, 10)
	c.Start(10, func(rem int) { ticks <- rem }, nil)

	advanceAndWait(t, clock, ticks)
	advanceAndWait(t, clock, ticks)
	c.Pause()

	if c.Running() {
		t.Fatal("countdown must not be running while paused")
	}
	if rem := c.Remaining(); rem != 8 {
		t.Fatalf("expected 8 remaining after pause, got %d", rem)
	}

	// Time passing while paused changes nothing.
	clock.Advance(30 * time.Second)
	if rem := c.Remaining(); rem != 8 {
		t.Fatalf("paused countdown must hold at 8, got %d", rem)
	}
	select {
	case rem := <-ticks:
		t.Fatalf("paused countdown must not tick, got %d", rem)
	default:
	}
}

func TestStartReplacesPreviousRun(t *testing.T) {
	clock := clockwork.NewFakeClock()
	c := NewCountdown(clock)

	staleTicks := make(chan int, 10)
	c.Start(10, func(rem int) { staleTicks <- rem }, nil)

	ticks := make(chan int, 10)
	c.Start(5, func(rem int) { ticks <- rem }, nil)

	if rem := advanceAndWait(t, clock, ticks); rem != 4 {
		t.Fatalf("expected replacement countdown at 4, got %d", rem)
	}
	select {
	case rem := <-staleTicks:
		t.Fatalf("cancelled countdown must not tick, got %d", rem)
	default:
	}
}

func TestStopZeroesCountdown(t *testing.T) {
	clock := clockwork.NewFakeClock()
	c := NewCountdown(clock)

	c.Start(10, nil, nil)
	c.Stop()

	if c.Running() {
		t.Fatal("countdown must not be running after Stop")
	}
	if rem := c.Remaining(); rem != 0 {
		t.Fatalf("expected 0 remaining after Stop, got %d", rem)
	}
}

func TestNonPositiveDurationIgnored(t *testing.T) {
	clock := clockwork.NewFakeClock()
	c := NewCountdown(clock)

	c.Start(0, nil, nil)
	if c.Running() {
		t.Fatal("zero-second countdown must not start")
	}
}
