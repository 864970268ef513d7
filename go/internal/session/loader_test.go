package session

import (
	"os"
	"path/filepath"
	"testing"
)

const validShowFile = `
id: friday-show
top_n: 3
players:
  - alice
  - bob
rounds:
  - name: warmup
    questions:
      - id: q1
        type: multiple_choice
        mode: plain
        prompt: "Capital of France?"
        options: ["Berlin", "Paris", "Rome"]
        correct_option: 1
        points: 5
        time_limit_sec: 20
  - name: finale
    questions:
      - id: q2
        type: closest_value
        mode: mystery_image
        prompt: "Height of the Eiffel Tower in meters?"
        correct_value: 330
        points: 10
        media_ref: "eiffel.jpg"
`

func writeShowFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "show.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write show file: %v", err)
	}
	return path
}

func TestLoadFileBuildsSession(t *testing.T) {
	sess, err := LoadFile(writeShowFile(t, validShowFile))
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if sess.ID != "friday-show" {
		t.Fatalf("unexpected session id %q", sess.ID)
	}
	if sess.Config.TopN != 3 {
		t.Fatalf("expected topN 3, got %d", sess.Config.TopN)
	}
	if len(sess.Rounds) != 2 {
		t.Fatalf("expected 2 rounds, got %d", len(sess.Rounds))
	}
	if !sess.IsPlayer("alice") || !sess.IsPlayer("bob") {
		t.Fatal("listed players must be registered")
	}
	if sess.IsPlayer("carol") {
		t.Fatal("unlisted id must not be a player")
	}

	q, ok := sess.CurrentQuestion()
	if !ok || q.ID != "q1" {
		t.Fatalf("expected cursor at q1, got %+v ok=%v", q, ok)
	}
	if !sess.Advance() {
		t.Fatal("advance must roll into the second round")
	}
	q, _ = sess.CurrentQuestion()
	if q.ID != "q2" {
		t.Fatalf("expected q2 after advance, got %q", q.ID)
	}
}

func TestLoadFileRejectsMissingID(t *testing.T) {
	path := writeShowFile(t, "rounds:\n  - questions:\n      - id: q1\n")
	if _, err := LoadFile(path); err == nil {
		t.Fatal("expected error for missing session id")
	}
}

func TestLoadFileRejectsEmptyRounds(t *testing.T) {
	path := writeShowFile(t, "id: s1\nrounds: []\n")
	if _, err := LoadFile(path); err == nil {
		t.Fatal("expected error for empty rounds")
	}
}

func TestLoadFileRejectsQuestionWithoutID(t *testing.T) {
	path := writeShowFile(t, "id: s1\nrounds:\n  - questions:\n      - prompt: oops\n")
	if _, err := LoadFile(path); err == nil {
		t.Fatal("expected error for question without id")
	}
}

func TestLoadFileMissingFile(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
