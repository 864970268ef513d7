package phase

import (
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/mcdev12/triviacast/go/internal/buzzer"
	"github.com/mcdev12/triviacast/go/internal/events"
	"github.com/mcdev12/triviacast/go/internal/quiz"
	"github.com/mcdev12/triviacast/go/internal/ratelimit"
)

// HandleViewerInput is the single entry point for answers and buzzes coming
// from the viewer-input source. Input passes the rate limiter first, then
// routes: buzz-mode players go through the arbiter, plain players get their
// answer recorded, everyone else lands in the viewer vote tally. The returned
// decision is the accept/reject contract with the input source; an error
// means the show was in no state to receive input at all.
func (m *Manager) HandleViewerInput(entityID string, answer quiz.Answer) (ratelimit.Decision, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess := m.store.GetSession()
	if sess == nil {
		return ratelimit.Decision{}, quiz.ErrNoActiveSession
	}
	q, ok := sess.CurrentQuestion()
	if !ok {
		return ratelimit.Decision{}, quiz.ErrNoCurrentQuestion
	}
	if m.phase != quiz.PhaseAcceptAnswers {
		return ratelimit.Decision{Reason: ratelimit.ReasonClosed}, nil
	}

	decision := m.limits.Allow(entityID)
	if !decision.Accepted {
		return decision, nil
	}

	if q.Mode == quiz.ModeImageZoomBuzz && sess.IsPlayer(entityID) {
		m.handleBuzzLocked(q, entityID)
		return decision, nil
	}

	if sess.IsPlayer(entityID) {
		if err := m.submitPlayerAnswerLocked(entityID, answer); err != nil {
			log.Warn().Err(err).Str("player_id", entityID).Msg("recording player answer failed")
		}
		return decision, nil
	}

	m.tallyVoteLocked(q, answer)
	return decision, nil
}

func (m *Manager) handleBuzzLocked(q quiz.Question, playerID string) {
	outcome := m.buzzer.Buzz(playerID, time.Time{})
	switch outcome {
	case buzzer.OutcomeWin, buzzer.OutcomeSteal:
		tryNonCritical("buzz assignment", func() error {
			_, err := m.pub.Publish(events.ChannelAnswerAssign, events.AnswerAssignPayload{
				QuestionID: q.ID,
				PlayerID:   playerID,
			})
			return err
		})
	default:
		log.Debug().
			Str("player_id", playerID).
			Str("outcome", string(outcome)).
			Msg("buzz not accepted")
	}
}

func (m *Manager) tallyVoteLocked(q quiz.Question, answer quiz.Answer) {
	key := voteKey(answer)
	if key == "" {
		return
	}
	m.votes[key]++

	counts := make(map[string]int, len(m.votes))
	for k, v := range m.votes {
		counts[k] = v
	}
	tryNonCritical("vote update", func() error {
		_, err := m.pub.Publish(events.ChannelVoteUpdate, events.VoteUpdatePayload{
			QuestionID: q.ID,
			Counts:     counts,
		})
		return err
	})
}

// VoteCounts returns a copy of the live vote tally.
func (m *Manager) VoteCounts() map[string]int {
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := make(map[string]int, len(m.votes))
	for k, v := range m.votes {
		counts[k] = v
	}
	return counts
}

func voteKey(a quiz.Answer) string {
	if a.Option != nil {
		return strconv.Itoa(*a.Option)
	}
	return strings.TrimSpace(a.Text)
}
