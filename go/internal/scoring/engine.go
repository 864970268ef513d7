// Package scoring applies automatic and manual scoring and maintains the
// leaderboard.
package scoring

import (
	"sort"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/mcdev12/triviacast/go/internal/events"
	"github.com/mcdev12/triviacast/go/internal/quiz"
	"github.com/mcdev12/triviacast/go/internal/session"
)

// Publisher is the slice of the broadcaster the engine needs.
type Publisher interface {
	Publish(ch events.Channel, p events.Payload) (*events.Event, error)
}

// Engine scores answers and mutates cumulative scores through the session
// store. All score mutation, player and viewer alike, funnels through
// AddScore.
type Engine struct {
	store session.Store
	pub   Publisher
}

// NewEngine creates a scoring engine.
func NewEngine(store session.Store, pub Publisher) *Engine {
	return &Engine{store: store, pub: pub}
}

// AddScore applies a delta to an entity's cumulative score and publishes a
// score.update event carrying the question the delta belongs to. Scores are
// never clamped; negative totals are allowed deltas away. A broadcast failure
// is logged but does not undo the score.
func (e *Engine) AddScore(questionID, entityID string, delta int) (int, error) {
	total, err := e.store.AddScore(entityID, delta)
	if err != nil {
		return 0, err
	}

	if _, err := e.pub.Publish(events.ChannelScoreUpdate, events.ScoreUpdatePayload{
		QuestionID: questionID,
		EntityID:   entityID,
		Delta:      delta,
		Total:      total,
	}); err != nil {
		log.Warn().Err(err).Str("entity_id", entityID).Msg("score update publish failed")
	}
	return total, nil
}

// AutoScore scores every recorded answer for the question and returns how
// many players were scored. Correctness is deterministic per question type:
// multiple-choice needs the exact option, closest-value needs the exact
// number (nearest-value credit is a manual host decision), open-ended is
// never auto-scored. A failure scoring one player never blocks the rest.
func (e *Engine) AutoScore(q quiz.Question, sess *quiz.Session) int {
	if q.Type == quiz.TypeOpenEnded {
		log.Info().Str("question_id", q.ID).Msg("open-ended question, skipping auto-score")
		return 0
	}

	ids := make([]string, 0, len(sess.PlayerAnswers))
	for id := range sess.PlayerAnswers {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	scored := 0
	for _, id := range ids {
		answer := sess.PlayerAnswers[id]
		points := 0
		if isCorrect(q, answer) {
			points = q.Points
		}
		if _, err := e.AddScore(q.ID, id, points); err != nil {
			log.Error().
				Err(err).
				Str("question_id", q.ID).
				Str("player_id", id).
				Msg("scoring player failed")
			continue
		}
		scored++
	}

	log.Info().
		Str("question_id", q.ID).
		Int("players_scored", scored).
		Msg("auto-score applied")
	return scored
}

// Leaderboard builds the viewer leaderboard: descending by score, ties broken
// by first-score order, truncated to the session's topN.
func (e *Engine) Leaderboard(sess *quiz.Session) []events.LeaderboardEntry {
	entries := make([]events.LeaderboardEntry, 0, len(sess.ViewerOrder))
	for _, id := range sess.ViewerOrder {
		entries = append(entries, events.LeaderboardEntry{EntityID: id, Score: sess.ViewerScores[id]})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Score > entries[j].Score
	})

	if topN := sess.Config.TopN; topN > 0 && len(entries) > topN {
		entries = entries[:topN]
	}
	return entries
}

// PublishLeaderboard recomputes the leaderboard and pushes it to the overlay.
func (e *Engine) PublishLeaderboard(sess *quiz.Session) error {
	_, err := e.pub.Publish(events.ChannelLeaderboardPush, events.LeaderboardPushPayload{
		Entries: e.Leaderboard(sess),
	})
	return err
}

func isCorrect(q quiz.Question, a quiz.Answer) bool {
	switch q.Type {
	case quiz.TypeMultipleChoice:
		idx, ok := optionIndex(a)
		return ok && idx == q.CorrectOption
	case quiz.TypeClosestValue:
		v, ok := numericValue(a)
		return ok && v == q.CorrectValue
	default:
		return false
	}
}

// optionIndex normalizes an answer to an option index. Answers arrive as a
// raw index, a digit string or a letter ("B" is index 1).
func optionIndex(a quiz.Answer) (int, bool) {
	if a.Option != nil {
		return *a.Option, true
	}
	t := strings.ToUpper(strings.TrimSpace(a.Text))
	if t == "" {
		return 0, false
	}
	if n, err := strconv.Atoi(t); err == nil {
		return n, true
	}
	if len(t) == 1 && t[0] >= 'A' && t[0] <= 'Z' {
		return int(t[0] - 'A'), true
	}
	return 0, false
}

func numericValue(a quiz.Answer) (float64, bool) {
	if a.Value != nil {
		return *a.Value, true
	}
	t := strings.TrimSpace(a.Text)
	if t == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(t, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
