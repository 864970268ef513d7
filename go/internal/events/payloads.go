package events

// PhaseUpdatePayload is published on every phase transition.
type PhaseUpdatePayload struct {
	QuestionID string `json:"question_id"`
	Phase      string `json:"phase"`
}

func (PhaseUpdatePayload) EventType() string { return string(ChannelPhaseUpdate) }

// RevealConfigPayload carries the reveal-driver parameters the overlay needs
// to self-drive its animation between server step events.
type RevealConfigPayload struct {
	ZoomSteps         int     `json:"zoom_steps,omitempty"`
	ZoomFPS           int     `json:"zoom_fps,omitempty"`
	ZoomMaxLevel      float64 `json:"zoom_max_level,omitempty"`
	MysteryIntervalMS int     `json:"mystery_interval_ms,omitempty"`
	MysteryGridRows   int     `json:"mystery_grid_rows,omitempty"`
	MysteryGridCols   int     `json:"mystery_grid_cols,omitempty"`
}

// QuestionShowPayload is the payload for a question.show event.
type QuestionShowPayload struct {
	QuestionID    string               `json:"question_id"`
	RoundIndex    int                  `json:"round_index"`
	QuestionIndex int                  `json:"question_index"`
	Type          string               `json:"type"`
	Mode          string               `json:"mode"`
	Prompt        string               `json:"prompt"`
	Options       []string             `json:"options,omitempty"`
	Points        int                  `json:"points"`
	TimeLimitSec  int                  `json:"time_limit_sec"`
	MediaRef      string               `json:"media_ref,omitempty"`
	Reveal        *RevealConfigPayload `json:"reveal,omitempty"`
}

func (QuestionShowPayload) EventType() string { return string(ChannelQuestionShow) }

// QuestionLockPayload is the payload for a question.lock event.
type QuestionLockPayload struct {
	QuestionID string `json:"question_id"`
}

func (QuestionLockPayload) EventType() string { return string(ChannelQuestionLock) }

// QuestionRevealPayload carries the correct answer to the overlay.
type QuestionRevealPayload struct {
	QuestionID    string   `json:"question_id"`
	CorrectOption *int     `json:"correct_option,omitempty"`
	CorrectValue  *float64 `json:"correct_value,omitempty"`
}

func (QuestionRevealPayload) EventType() string { return string(ChannelQuestionReveal) }

// QuestionRevealedPayload confirms scoring has been applied for the question.
type QuestionRevealedPayload struct {
	QuestionID string `json:"question_id"`
}

func (QuestionRevealedPayload) EventType() string { return string(ChannelQuestionRevealed) }

// QuestionFinishedPayload signals the end of the question lifecycle.
type QuestionFinishedPayload struct {
	QuestionID string `json:"question_id"`
}

func (QuestionFinishedPayload) EventType() string { return string(ChannelQuestionFinished) }

// QuestionNextReadyPayload hints that another question is queued in the round.
type QuestionNextReadyPayload struct {
	QuestionID     string `json:"question_id"`
	NextQuestionID string `json:"next_question_id"`
}

func (QuestionNextReadyPayload) EventType() string { return string(ChannelQuestionNextReady) }

// QuestionResetPayload is the payload for a question.reset event.
type QuestionResetPayload struct {
	QuestionID string `json:"question_id"`
}

func (QuestionResetPayload) EventType() string { return string(ChannelQuestionReset) }

// VoteUpdatePayload carries the live viewer vote tally. An empty Counts map
// is the vote-reset signal.
type VoteUpdatePayload struct {
	QuestionID string         `json:"question_id"`
	Counts     map[string]int `json:"counts"`
}

func (VoteUpdatePayload) EventType() string { return string(ChannelVoteUpdate) }

// AnswerAssignPayload shows a live answer assignment on the overlay.
type AnswerAssignPayload struct {
	QuestionID string   `json:"question_id"`
	PlayerID   string   `json:"player_id"`
	Option     *int     `json:"option,omitempty"`
	Text       string   `json:"text,omitempty"`
	Value      *float64 `json:"value,omitempty"`
}

func (AnswerAssignPayload) EventType() string { return string(ChannelAnswerAssign) }

// ScoreUpdatePayload is published once per scored entity.
type ScoreUpdatePayload struct {
	QuestionID string `json:"question_id,omitempty"`
	EntityID   string `json:"entity_id"`
	Delta      int    `json:"delta"`
	Total      int    `json:"total"`
}

func (ScoreUpdatePayload) EventType() string { return string(ChannelScoreUpdate) }

// LeaderboardEntry is one row of the published leaderboard.
type LeaderboardEntry struct {
	EntityID string `json:"entity_id"`
	Score    int    `json:"score"`
}

// LeaderboardPushPayload carries the topN leaderboard snapshot.
type LeaderboardPushPayload struct {
	Entries []LeaderboardEntry `json:"entries"`
}

func (LeaderboardPushPayload) EventType() string { return string(ChannelLeaderboardPush) }

// ScorePanelTogglePayload carries the score panel visibility flag.
type ScorePanelTogglePayload struct {
	Visible bool `json:"visible"`
}

func (ScorePanelTogglePayload) EventType() string { return string(ChannelScorePanelToggle) }

// ZoomStepPayload is one step of the zoom reveal animation.
type ZoomStepPayload struct {
	QuestionID string  `json:"question_id"`
	Step       int     `json:"step"`
	TotalSteps int     `json:"total_steps"`
	Scale      float64 `json:"scale"`
}

func (ZoomStepPayload) EventType() string { return string(ChannelZoomStep) }

// ZoomCompletePayload forces the overlay to snap to scale 1x.
type ZoomCompletePayload struct {
	QuestionID string `json:"question_id"`
}

func (ZoomCompletePayload) EventType() string { return string(ChannelZoomComplete) }

// MysteryRevealPayload carries the cumulative set of revealed grid squares.
type MysteryRevealPayload struct {
	QuestionID string `json:"question_id"`
	Squares    []int  `json:"squares"`
	Total      int    `json:"total"`
	Done       bool   `json:"done"`
}

func (MysteryRevealPayload) EventType() string { return string(ChannelMysteryReveal) }
