package phase

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/mcdev12/triviacast/go/internal/events"
	"github.com/mcdev12/triviacast/go/internal/quiz"
	"github.com/mcdev12/triviacast/go/internal/session"
)

// Manager owns the question lifecycle state machine:
//
//	idle → show_question → accept_answers → lock → reveal → score_update
//
// lock may be skipped (force reveal) and accept_answers/lock fall back to
// idle via an explicit reset. Host actions are expected to be serialized by
// the caller; the internal mutex only guarantees transitions are validated
// and applied without tearing. Multi-step operations roll the phase back on
// failure so the observable phase never disagrees with the applied side
// effects.
type Manager struct {
	store     session.Store
	pub       Publisher
	countdown CountdownTimer
	zoom      ZoomDriver
	mystery   MysteryDriver
	buzzer    Buzzer
	scorer    Scorer
	limits    InputLimiter
	cfg       Config

	mu    sync.Mutex
	phase quiz.Phase
	votes map[string]int
}

// NewManager wires the manager from its explicitly constructed collaborators.
func NewManager(store session.Store, pub Publisher, countdown CountdownTimer, zoom ZoomDriver, mystery MysteryDriver, buz Buzzer, scorer Scorer, limits InputLimiter, cfg Config) *Manager {
	if cfg.DefaultQuestionSeconds <= 0 {
		cfg.DefaultQuestionSeconds = DefaultConfig().DefaultQuestionSeconds
	}
	return &Manager{
		store:     store,
		pub:       pub,
		countdown: countdown,
		zoom:      zoom,
		mystery:   mystery,
		buzzer:    buz,
		scorer:    scorer,
		limits:    limits,
		cfg:       cfg,
		phase:     quiz.PhaseIdle,
		votes:     make(map[string]int),
	}
}

// Phase returns the current lifecycle phase.
func (m *Manager) Phase() quiz.Phase {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.phase
}

// ShowCurrentQuestion resets all per-question state, presents the current
// question and opens it for answers. On any failure mid-sequence the phase
// rolls back to idle and the error surfaces to the caller.
func (m *Manager) ShowCurrentQuestion() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.showCurrentQuestionLocked()
}

func (m *Manager) showCurrentQuestionLocked() (err error) {
	sess := m.store.GetSession()
	if sess == nil {
		return quiz.ErrNoActiveSession
	}
	q, ok := sess.CurrentQuestion()
	if !ok {
		return quiz.ErrNoCurrentQuestion
	}
	if !m.phase.CanTransitionTo(quiz.PhaseShowQuestion) {
		return &quiz.TransitionError{From: m.phase, To: quiz.PhaseShowQuestion}
	}

	defer func() {
		if err != nil {
			m.countdown.Stop()
			m.zoom.Reset()
			m.mystery.Reset()
			m.phase = quiz.PhaseIdle
			log.Error().
				Err(err).
				Str("question_id", q.ID).
				Msg("show question failed, phase rolled back to idle")
		}
	}()

	m.zoom.Reset()
	m.mystery.Reset()
	if q.Mode == quiz.ModeImageZoomBuzz {
		m.buzzer.Open(q.StealAllowed)
	} else {
		m.buzzer.Close()
	}
	m.limits.Reset()
	m.votes = make(map[string]int)
	sess.ClearAnswers()
	m.store.SetSession(sess)

	tryNonCritical("vote reset", func() error {
		_, err := m.pub.Publish(events.ChannelVoteUpdate, events.VoteUpdatePayload{
			QuestionID: q.ID,
			Counts:     map[string]int{},
		})
		return err
	})

	if err = m.setPhaseLocked(quiz.PhaseShowQuestion, q.ID); err != nil {
		return err
	}
	if _, err = m.pub.Publish(events.ChannelQuestionShow, m.questionPayload(sess, q)); err != nil {
		return err
	}

	switch q.Mode {
	case quiz.ModeImageZoomBuzz:
		if err = m.zoom.Start(q.ID); err != nil {
			return err
		}
	case quiz.ModeMysteryImage:
		if err = m.mystery.Start(q.ID); err != nil {
			return err
		}
	}

	if err = m.setPhaseLocked(quiz.PhaseAcceptAnswers, q.ID); err != nil {
		return err
	}

	seconds := q.TimeLimitSec
	if seconds <= 0 {
		seconds = m.cfg.DefaultQuestionSeconds
	}
	m.countdown.Start(seconds, m.handleTick, m.handleExpiry)

	log.Info().
		Str("question_id", q.ID).
		Str("mode", string(q.Mode)).
		Int("time_limit_sec", seconds).
		Msg("question shown")
	return nil
}

// LockAnswers freezes the countdown and stops accepting answers. Valid only
// while accepting answers; on failure the prior phase is restored.
func (m *Manager) LockAnswers() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess := m.store.GetSession()
	if sess == nil {
		return quiz.ErrNoActiveSession
	}
	q, ok := sess.CurrentQuestion()
	if !ok {
		return quiz.ErrNoCurrentQuestion
	}
	if m.phase != quiz.PhaseAcceptAnswers {
		return &quiz.TransitionError{From: m.phase, To: quiz.PhaseLock}
	}

	prev := m.phase
	m.countdown.Pause()

	if err := m.setPhaseLocked(quiz.PhaseLock, q.ID); err != nil {
		m.phase = prev
		return err
	}
	if _, err := m.pub.Publish(events.ChannelQuestionLock, events.QuestionLockPayload{QuestionID: q.ID}); err != nil {
		m.phase = prev
		return err
	}

	log.Info().Str("question_id", q.ID).Msg("answers locked")
	return nil
}

// Reveal stops the countdown and any running reveal driver, publishes the
// correct answer, auto-scores, and pushes the refreshed leaderboard. Valid
// from accept_answers (force reveal) or lock; on failure the phase reverts to
// its pre-call value.
func (m *Manager) Reveal() (err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess := m.store.GetSession()
	if sess == nil {
		return quiz.ErrNoActiveSession
	}
	q, ok := sess.CurrentQuestion()
	if !ok {
		return quiz.ErrNoCurrentQuestion
	}
	if m.phase != quiz.PhaseAcceptAnswers && m.phase != quiz.PhaseLock {
		return &quiz.TransitionError{From: m.phase, To: quiz.PhaseReveal}
	}

	prev := m.phase
	defer func() {
		if err != nil {
			m.phase = prev
			log.Error().
				Err(err).
				Str("question_id", q.ID).
				Str("phase", prev.String()).
				Msg("reveal failed, phase reverted")
		}
	}()

	m.countdown.Stop()
	switch q.Mode {
	case quiz.ModeImageZoomBuzz:
		m.zoom.Stop()
	case quiz.ModeMysteryImage:
		m.mystery.Stop()
	}

	if err = m.setPhaseLocked(quiz.PhaseReveal, q.ID); err != nil {
		return err
	}
	if _, err = m.pub.Publish(events.ChannelQuestionReveal, revealPayload(q)); err != nil {
		return err
	}

	m.scorer.AutoScore(q, sess)

	if _, err = m.pub.Publish(events.ChannelQuestionRevealed, events.QuestionRevealedPayload{QuestionID: q.ID}); err != nil {
		return err
	}
	if err = m.setPhaseLocked(quiz.PhaseScoreUpdate, q.ID); err != nil {
		return err
	}
	if err = m.scorer.PublishLeaderboard(sess); err != nil {
		return err
	}
	if _, err = m.pub.Publish(events.ChannelQuestionFinished, events.QuestionFinishedPayload{QuestionID: q.ID}); err != nil {
		return err
	}

	if next, hasNext := sess.NextQuestion(); hasNext {
		tryNonCritical("next ready hint", func() error {
			_, err := m.pub.Publish(events.ChannelQuestionNextReady, events.QuestionNextReadyPayload{
				QuestionID:     q.ID,
				NextQuestionID: next.ID,
			})
			return err
		})
	}

	log.Info().Str("question_id", q.ID).Msg("question revealed and scored")
	return nil
}

// NextQuestion advances the session cursor and shows the next question. At
// the end of the show it parks the phase at idle and reports
// quiz.ErrNoNextQuestion.
func (m *Manager) NextQuestion() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess := m.store.GetSession()
	if sess == nil {
		return quiz.ErrNoActiveSession
	}
	switch m.phase {
	case quiz.PhaseIdle, quiz.PhaseScoreUpdate, quiz.PhaseInterstitial:
	default:
		return &quiz.TransitionError{From: m.phase, To: quiz.PhaseShowQuestion}
	}

	if !sess.Advance() {
		if m.phase != quiz.PhaseIdle {
			if err := m.setPhaseLocked(quiz.PhaseIdle, ""); err != nil {
				return err
			}
		}
		return quiz.ErrNoNextQuestion
	}
	m.store.SetSession(sess)

	return m.showCurrentQuestionLocked()
}

// ResetQuestion aborts the current question from any phase: countdown and
// reveal drivers are cancelled, answers and votes cleared, and the phase
// forced to idle.
func (m *Manager) ResetQuestion() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess := m.store.GetSession()
	if sess == nil {
		return quiz.ErrNoActiveSession
	}
	questionID := ""
	if q, ok := sess.CurrentQuestion(); ok {
		questionID = q.ID
	}

	m.countdown.Stop()
	m.zoom.Reset()
	m.mystery.Reset()
	m.buzzer.Close()
	m.limits.Reset()
	m.votes = make(map[string]int)
	sess.ClearAnswers()
	m.store.SetSession(sess)

	m.phase = quiz.PhaseIdle
	tryNonCritical("phase update", func() error {
		_, err := m.pub.Publish(events.ChannelPhaseUpdate, events.PhaseUpdatePayload{
			QuestionID: questionID,
			Phase:      quiz.PhaseIdle.String(),
		})
		return err
	})

	if _, err := m.pub.Publish(events.ChannelQuestionReset, events.QuestionResetPayload{QuestionID: questionID}); err != nil {
		return err
	}

	log.Info().Str("question_id", questionID).Msg("question reset")
	return nil
}

// ToggleScorePanel flips the overlay score panel, independent of phase.
func (m *Manager) ToggleScorePanel() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess := m.store.GetSession()
	if sess == nil {
		return quiz.ErrNoActiveSession
	}
	sess.ScorePanelVisible = !sess.ScorePanelVisible
	m.store.SetSession(sess)

	_, err := m.pub.Publish(events.ChannelScorePanelToggle, events.ScorePanelTogglePayload{
		Visible: sess.ScorePanelVisible,
	})
	return err
}

// SubmitPlayerAnswer records a player's answer, last write wins, and shows
// the live assignment on the overlay. Correctness is not validated here.
func (m *Manager) SubmitPlayerAnswer(playerID string, answer quiz.Answer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.submitPlayerAnswerLocked(playerID, answer)
}

func (m *Manager) submitPlayerAnswerLocked(playerID string, answer quiz.Answer) error {
	sess := m.store.GetSession()
	if sess == nil {
		return quiz.ErrNoActiveSession
	}
	q, ok := sess.CurrentQuestion()
	if !ok {
		return quiz.ErrNoCurrentQuestion
	}

	sess.PlayerAnswers[playerID] = answer
	m.store.SetSession(sess)

	_, err := m.pub.Publish(events.ChannelAnswerAssign, events.AnswerAssignPayload{
		QuestionID: q.ID,
		PlayerID:   playerID,
		Option:     answer.Option,
		Text:       answer.Text,
		Value:      answer.Value,
	})
	return err
}

// ApplyWinners applies manual awards to the given players. Missing points
// default to the question's point value; remove negates them. A failure for
// one player never blocks the others. The leaderboard is republished after
// the batch.
func (m *Manager) ApplyWinners(playerIDs []string, points *int, remove bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess := m.store.GetSession()
	if sess == nil {
		return quiz.ErrNoActiveSession
	}
	q, ok := sess.CurrentQuestion()
	if !ok {
		return quiz.ErrNoCurrentQuestion
	}

	pts := q.Points
	if points != nil {
		pts = *points
	}
	if remove {
		pts = -pts
	}

	for _, id := range playerIDs {
		if _, err := m.scorer.AddScore(q.ID, id, pts); err != nil {
			log.Error().
				Err(err).
				Str("player_id", id).
				Int("points", pts).
				Msg("applying winner failed")
			continue
		}
	}

	return m.scorer.PublishLeaderboard(sess)
}

// MarkBuzzerWrong reports the current buzzer winner answered wrong, opening
// the steal window when the question allows it.
func (m *Manager) MarkBuzzerWrong(playerID string) bool {
	return m.buzzer.MarkWrong(playerID)
}

func (m *Manager) handleTick(remaining int) {
	log.Debug().Int("remaining_sec", remaining).Msg("countdown tick")
}

func (m *Manager) handleExpiry() {
	log.Info().Msg("countdown expired")
	if m.cfg.AutoLockOnExpiry {
		tryNonCritical("auto-lock on expiry", m.LockAnswers)
	}
}

// setPhaseLocked validates and applies a transition, publishing phase.update.
// The phase is only mutated once the broadcast succeeded.
func (m *Manager) setPhaseLocked(next quiz.Phase, questionID string) error {
	if !m.phase.CanTransitionTo(next) {
		return &quiz.TransitionError{From: m.phase, To: next}
	}
	if _, err := m.pub.Publish(events.ChannelPhaseUpdate, events.PhaseUpdatePayload{
		QuestionID: questionID,
		Phase:      next.String(),
	}); err != nil {
		return err
	}
	m.phase = next
	return nil
}

func (m *Manager) questionPayload(sess *quiz.Session, q quiz.Question) events.QuestionShowPayload {
	p := events.QuestionShowPayload{
		QuestionID:    q.ID,
		RoundIndex:    sess.CurrentRoundIndex,
		QuestionIndex: sess.CurrentQuestionIndex,
		Type:          string(q.Type),
		Mode:          string(q.Mode),
		Prompt:        q.Prompt,
		Options:       q.Options,
		Points:        q.Points,
		TimeLimitSec:  q.TimeLimitSec,
		MediaRef:      q.MediaRef,
	}
	if p.TimeLimitSec <= 0 {
		p.TimeLimitSec = m.cfg.DefaultQuestionSeconds
	}

	switch q.Mode {
	case quiz.ModeImageZoomBuzz:
		zc := m.zoom.InternalConfig()
		p.Reveal = &events.RevealConfigPayload{
			ZoomSteps:    m.zoom.Steps(),
			ZoomFPS:      zc.FPS,
			ZoomMaxLevel: zc.MaxLevel,
		}
	case quiz.ModeMysteryImage:
		mc := m.mystery.InternalConfig()
		p.Reveal = &events.RevealConfigPayload{
			MysteryIntervalMS: int(mc.Interval.Milliseconds()),
			MysteryGridRows:   mc.GridRows,
			MysteryGridCols:   mc.GridCols,
		}
	}
	return p
}

func revealPayload(q quiz.Question) events.QuestionRevealPayload {
	p := events.QuestionRevealPayload{QuestionID: q.ID}
	switch q.Type {
	case quiz.TypeMultipleChoice:
		opt := q.CorrectOption
		p.CorrectOption = &opt
	case quiz.TypeClosestValue:
		val := q.CorrectValue
		p.CorrectValue = &val
	}
	return p
}

// tryNonCritical runs a side effect whose failure is captured and logged but
// never propagated.
func tryNonCritical(name string, fn func() error) {
	if err := fn(); err != nil {
		log.Warn().Err(err).Str("side_effect", name).Msg("non-critical side effect failed")
	}
}
