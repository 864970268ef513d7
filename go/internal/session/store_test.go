package session

import (
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/mcdev12/triviacast/go/internal/quiz"
)

func newSessionWithPlayers(players ...string) *quiz.Session {
	sess := quiz.NewSession("show-1", nil, quiz.SessionConfig{})
	for _, p := range players {
		sess.PlayerScores[p] = 0
	}
	return sess
}

func TestMemoryStoreRoutesPlayersAndViewers(t *testing.T) {
	store := NewMemoryStore()
	store.SetSession(newSessionWithPlayers("alice"))

	total, err := store.AddScore("alice", 5)
	if err != nil {
		t.Fatalf("add player score failed: %v", err)
	}
	if total != 5 {
		t.Fatalf("expected player total 5, got %d", total)
	}

	total, err = store.AddScore("viewer-1", 3)
	if err != nil {
		t.Fatalf("add viewer score failed: %v", err)
	}
	if total != 3 {
		t.Fatalf("expected viewer total 3, got %d", total)
	}

	sess := store.GetSession()
	if sess.PlayerScores["alice"] != 5 {
		t.Fatalf("player score landed wrong: %+v", sess.PlayerScores)
	}
	if sess.ViewerScores["viewer-1"] != 3 {
		t.Fatalf("viewer score landed wrong: %+v", sess.ViewerScores)
	}
	if _, ok := sess.ViewerScores["alice"]; ok {
		t.Fatal("registered player must never land in viewer scores")
	}
	if len(sess.ViewerOrder) != 1 || sess.ViewerOrder[0] != "viewer-1" {
		t.Fatalf("viewer order must record first score, got %v", sess.ViewerOrder)
	}
}

func TestMemoryStoreViewerOrderDoesNotDuplicate(t *testing.T) {
	store := NewMemoryStore()
	store.SetSession(newSessionWithPlayers())

	store.AddScore("v1", 1)
	store.AddScore("v1", 1)
	store.AddScore("v2", 1)

	sess := store.GetSession()
	if len(sess.ViewerOrder) != 2 {
		t.Fatalf("expected 2 viewer order entries, got %v", sess.ViewerOrder)
	}
}

func TestMemoryStoreWithoutSession(t *testing.T) {
	store := NewMemoryStore()
	if _, err := store.AddScore("x", 1); !errors.Is(err, quiz.ErrNoActiveSession) {
		t.Fatalf("expected ErrNoActiveSession, got %v", err)
	}
}

func TestRedisStoreMirrorsScores(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewRedisStore(client, time.Minute)
	store.SetSession(newSessionWithPlayers("alice"))

	if !mr.Exists("show:session:show-1") {
		t.Fatal("expected liveness key to be set")
	}

	if _, err := store.AddScore("alice", 7); err != nil {
		t.Fatalf("add score failed: %v", err)
	}
	if got := mr.HGet("show:scores:show-1", "alice"); got != "7" {
		t.Fatalf("expected mirrored score 7, got %q", got)
	}

	if _, err := store.AddScore("viewer-1", 2); err != nil {
		t.Fatalf("add viewer score failed: %v", err)
	}
	if got := mr.HGet("show:scores:show-1", "viewer-1"); got != "2" {
		t.Fatalf("expected mirrored viewer score 2, got %q", got)
	}
}

func TestRedisStoreSetSessionMirrorsViewerScores(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	sess := newSessionWithPlayers("alice")
	sess.PlayerScores["alice"] = 5
	sess.ViewerScores["viewer-1"] = 9

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewRedisStore(client, time.Minute)
	store.SetSession(sess)

	if got := mr.HGet("show:scores:show-1", "alice"); got != "5" {
		t.Fatalf("expected mirrored player score 5, got %q", got)
	}
	if got := mr.HGet("show:scores:show-1", "viewer-1"); got != "9" {
		t.Fatalf("expected mirrored viewer score 9, got %q", got)
	}
}

func TestRedisStoreSurvivesRedisOutage(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewRedisStore(client, time.Minute)
	store.SetSession(newSessionWithPlayers("alice"))

	// The in-process session stays authoritative when Redis goes away.
	mr.Close()
	total, err := store.AddScore("alice", 4)
	if err != nil {
		t.Fatalf("scoring must not fail on redis outage: %v", err)
	}
	if total != 4 {
		t.Fatalf("expected total 4, got %d", total)
	}
}
