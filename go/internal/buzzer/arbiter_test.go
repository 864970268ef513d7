package buzzer

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
)

func testConfig() Config {
	return Config{LockDelay: 300 * time.Millisecond, StealWindow: 5 * time.Second}
}

func TestFirstBuzzWins(t *testing.T) {
	clock := clockwork.NewFakeClock()
	a := NewArbiter(clock, testConfig())
	a.Open(false)

	if got := a.Buzz("alice", time.Time{}); got != OutcomeWin {
		t.Fatalf("expected win, got %s", got)
	}
	winner, ok := a.Winner()
	if !ok || winner != "alice" {
		t.Fatalf("expected alice as winner, got %q ok=%v", winner, ok)
	}

	clock.Advance(time.Second)
	if got := a.Buzz("bob", time.Time{}); got != OutcomeLocked {
		t.Fatalf("expected locked, got %s", got)
	}
}

func TestBuzzWhileClosed(t *testing.T) {
	clock := clockwork.NewFakeClock()
	a := NewArbiter(clock, testConfig())

	if got := a.Buzz("alice", time.Time{}); got != OutcomeClosed {
		t.Fatalf("expected closed before open, got %s", got)
	}

	a.Open(false)
	a.Close()
	if got := a.Buzz("alice", time.Time{}); got != OutcomeClosed {
		t.Fatalf("expected closed after close, got %s", got)
	}
}

func TestBuzzInsideLockDelayIsBounce(t *testing.T) {
	clock := clockwork.NewFakeClock()
	a := NewArbiter(clock, testConfig())
	a.Open(true)

	start := clock.Now()
	if got := a.Buzz("alice", start); got != OutcomeWin {
		t.Fatalf("expected win, got %s", got)
	}
	if got := a.Buzz("bob", start.Add(299*time.Millisecond)); got != OutcomeBounce {
		t.Fatalf("expected bounce just inside the lock delay, got %s", got)
	}
	if got := a.Buzz("bob", start.Add(300*time.Millisecond)); got != OutcomeLocked {
		t.Fatalf("expected locked at the lock delay boundary, got %s", got)
	}
}

func TestStealAfterWrongAnswer(t *testing.T) {
	clock := clockwork.NewFakeClock()
	a := NewArbiter(clock, testConfig())
	a.Open(true)

	if got := a.Buzz("alice", time.Time{}); got != OutcomeWin {
		t.Fatalf("expected win, got %s", got)
	}
	clock.Advance(time.Second)
	if !a.MarkWrong("alice") {
		t.Fatal("expected steal window to open")
	}

	clock.Advance(time.Second)
	if got := a.Buzz("bob", time.Time{}); got != OutcomeSteal {
		t.Fatalf("expected steal, got %s", got)
	}
	winner, _ := a.Winner()
	if winner != "bob" {
		t.Fatalf("expected bob after steal, got %q", winner)
	}

	// Only one steal per question.
	clock.Advance(time.Second)
	a.MarkWrong("bob")
	if got := a.Buzz("carol", time.Time{}); got != OutcomeLocked {
		t.Fatalf("expected locked after steal consumed, got %s", got)
	}
}

func TestStealWindowExpires(t *testing.T) {
	clock := clockwork.NewFakeClock()
	a := NewArbiter(clock, testConfig())
	a.Open(true)

	a.Buzz("alice", time.Time{})
	clock.Advance(time.Second)
	a.MarkWrong("alice")

	clock.Advance(5*time.Second + time.Millisecond)
	if got := a.Buzz("bob", time.Time{}); got != OutcomeLocked {
		t.Fatalf("expected locked after steal window expired, got %s", got)
	}
}

func TestWinnerCannotStealFromThemselves(t *testing.T) {
	clock := clockwork.NewFakeClock()
	a := NewArbiter(clock, testConfig())
	a.Open(true)

	a.Buzz("alice", time.Time{})
	clock.Advance(time.Second)
	a.MarkWrong("alice")

	clock.Advance(time.Second)
	if got := a.Buzz("alice", time.Time{}); got != OutcomeLocked {
		t.Fatalf("expected locked for self-steal, got %s", got)
	}
}

func TestMarkWrongGuards(t *testing.T) {
	clock := clockwork.NewFakeClock()
	a := NewArbiter(clock, testConfig())

	a.Open(false)
	a.Buzz("alice", time.Time{})
	if a.MarkWrong("alice") {
		t.Fatal("steal window must not open with steal disabled")
	}

	a.Open(true)
	if a.MarkWrong("alice") {
		t.Fatal("steal window must not open without a winner")
	}
	a.Buzz("alice", time.Time{})
	if a.MarkWrong("bob") {
		t.Fatal("only the winner can be marked wrong")
	}
}

func TestOpenResetsState(t *testing.T) {
	clock := clockwork.NewFakeClock()
	a := NewArbiter(clock, testConfig())

	a.Open(true)
	a.Buzz("alice", time.Time{})
	clock.Advance(time.Second)
	a.MarkWrong("alice")

	a.Open(true)
	st := a.Snapshot()
	if st.WinnerID != "" || st.StealDeadline != nil || st.StealUsed {
		t.Fatalf("open must reset state, got %+v", st)
	}
	if got := a.Buzz("bob", time.Time{}); got != OutcomeWin {
		t.Fatalf("expected fresh win after reopen, got %s", got)
	}
}
