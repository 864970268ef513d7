package quiz

// Phase represents the current stage of the active question's lifecycle.
type Phase string

const (
	PhaseIdle          Phase = "idle"
	PhaseShowQuestion  Phase = "show_question"
	PhaseAcceptAnswers Phase = "accept_answers"
	PhaseLock          Phase = "lock"
	PhaseReveal        Phase = "reveal"
	PhaseScoreUpdate   Phase = "score_update"
	PhaseInterstitial  Phase = "interstitial"
)

// String returns the string representation of the phase.
func (p Phase) String() string {
	return string(p)
}

// CanTransitionTo checks if a transition from the current phase to the target
// phase is valid. Lock may be skipped (force reveal); accept_answers and lock
// may fall back to idle via an explicit reset.
func (p Phase) CanTransitionTo(target Phase) bool {
	validTransitions := map[Phase][]Phase{
		PhaseIdle:          {PhaseShowQuestion},
		PhaseShowQuestion:  {PhaseAcceptAnswers, PhaseIdle},
		PhaseAcceptAnswers: {PhaseLock, PhaseReveal, PhaseIdle},
		PhaseLock:          {PhaseReveal, PhaseIdle},
		PhaseReveal:        {PhaseScoreUpdate, PhaseIdle},
		PhaseScoreUpdate:   {PhaseIdle, PhaseShowQuestion, PhaseInterstitial},
		PhaseInterstitial:  {PhaseShowQuestion, PhaseIdle},
	}

	allowed, ok := validTransitions[p]
	if !ok {
		return false
	}

	for _, phase := range allowed {
		if phase == target {
			return true
		}
	}
	return false
}
