package session

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/mcdev12/triviacast/go/internal/quiz"
)

// sessionFile is the YAML schema a show is authored in.
type sessionFile struct {
	ID      string       `yaml:"id"`
	TopN    int          `yaml:"top_n"`
	Players []string     `yaml:"players"`
	Rounds  []quiz.Round `yaml:"rounds"`
}

// LoadFile reads a show file and builds a fresh session from it. Players
// listed in the file are registered with a zero score so their ids resolve to
// the player score map.
func LoadFile(path string) (*quiz.Session, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read session file: %w", err)
	}

	var f sessionFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse session file: %w", err)
	}
	if f.ID == "" {
		return nil, fmt.Errorf("session file %s has no id", path)
	}
	if len(f.Rounds) == 0 {
		return nil, fmt.Errorf("session %s has no rounds", f.ID)
	}
	for ri, r := range f.Rounds {
		if len(r.Questions) == 0 {
			return nil, fmt.Errorf("session %s round %d has no questions", f.ID, ri)
		}
		for qi, q := range r.Questions {
			if q.ID == "" {
				return nil, fmt.Errorf("session %s round %d question %d has no id", f.ID, ri, qi)
			}
		}
	}

	sess := quiz.NewSession(f.ID, f.Rounds, quiz.SessionConfig{TopN: f.TopN})
	for _, p := range f.Players {
		sess.PlayerScores[p] = 0
	}
	return sess, nil
}
