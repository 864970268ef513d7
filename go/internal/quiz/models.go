package quiz

// QuestionType determines how an answer is auto-scored.
type QuestionType string

const (
	TypeMultipleChoice QuestionType = "multiple_choice"
	TypeClosestValue   QuestionType = "closest_value"
	TypeOpenEnded      QuestionType = "open_ended"
)

// QuestionMode determines which reveal/input driver runs alongside a question.
type QuestionMode string

const (
	ModePlain         QuestionMode = "plain"
	ModeImageZoomBuzz QuestionMode = "image_zoom_buzz"
	ModeMysteryImage  QuestionMode = "mystery_image"
)

// Question is immutable once loaded into a session.
type Question struct {
	ID            string       `json:"id" yaml:"id"`
	Type          QuestionType `json:"type" yaml:"type"`
	Mode          QuestionMode `json:"mode" yaml:"mode"`
	Prompt        string       `json:"prompt" yaml:"prompt"`
	Options       []string     `json:"options,omitempty" yaml:"options,omitempty"`
	CorrectOption int          `json:"correct_option" yaml:"correct_option"`
	CorrectValue  float64      `json:"correct_value" yaml:"correct_value"`
	Points        int          `json:"points" yaml:"points"`
	TimeLimitSec  int          `json:"time_limit_sec" yaml:"time_limit_sec"`
	MediaRef      string       `json:"media_ref,omitempty" yaml:"media_ref,omitempty"`
	StealAllowed  bool         `json:"steal_allowed" yaml:"steal_allowed"`
}

// Round is an ordered list of questions.
type Round struct {
	Name      string     `json:"name" yaml:"name"`
	Questions []Question `json:"questions" yaml:"questions"`
}

// SessionConfig holds the host-tunable session knobs.
type SessionConfig struct {
	TopN int `json:"top_n" yaml:"top_n"`
}

// Answer is a submitted answer for the current question. Exactly one of the
// fields is expected to be set, depending on the question type.
type Answer struct {
	Option *int     `json:"option,omitempty"`
	Text   string   `json:"text,omitempty"`
	Value  *float64 `json:"value,omitempty"`
}

// Session is one active quiz run. At most one session is current at a time;
// it is mutated exclusively by the phase manager and the scoring engine.
type Session struct {
	ID                   string            `json:"id"`
	Rounds               []Round           `json:"rounds"`
	CurrentRoundIndex    int               `json:"current_round_index"`
	CurrentQuestionIndex int               `json:"current_question_index"`
	PlayerAnswers        map[string]Answer `json:"player_answers"`
	PlayerScores         map[string]int    `json:"player_scores"`
	ViewerScores         map[string]int    `json:"viewer_scores"`
	// ViewerOrder records first-score order so leaderboard ties break stably.
	ViewerOrder       []string      `json:"viewer_order"`
	Config            SessionConfig `json:"config"`
	ScorePanelVisible bool          `json:"score_panel_visible"`
}

// NewSession builds an empty session around the given rounds.
func NewSession(id string, rounds []Round, cfg SessionConfig) *Session {
	if cfg.TopN <= 0 {
		cfg.TopN = 5
	}
	return &Session{
		ID:            id,
		Rounds:        rounds,
		PlayerAnswers: make(map[string]Answer),
		PlayerScores:  make(map[string]int),
		ViewerScores:  make(map[string]int),
		Config:        cfg,
	}
}

// CurrentRound returns the active round.
func (s *Session) CurrentRound() (Round, bool) {
	if s.CurrentRoundIndex < 0 || s.CurrentRoundIndex >= len(s.Rounds) {
		return Round{}, false
	}
	return s.Rounds[s.CurrentRoundIndex], true
}

// CurrentQuestion returns the active question.
func (s *Session) CurrentQuestion() (Question, bool) {
	round, ok := s.CurrentRound()
	if !ok {
		return Question{}, false
	}
	if s.CurrentQuestionIndex < 0 || s.CurrentQuestionIndex >= len(round.Questions) {
		return Question{}, false
	}
	return round.Questions[s.CurrentQuestionIndex], true
}

// NextQuestion returns the question following the current one within the
// current round, if any.
func (s *Session) NextQuestion() (Question, bool) {
	round, ok := s.CurrentRound()
	if !ok {
		return Question{}, false
	}
	next := s.CurrentQuestionIndex + 1
	if next >= len(round.Questions) {
		return Question{}, false
	}
	return round.Questions[next], true
}

// Advance moves the cursor to the next question, rolling over into the next
// round when the current one is exhausted. It reports whether a question
// remains.
func (s *Session) Advance() bool {
	round, ok := s.CurrentRound()
	if !ok {
		return false
	}
	if s.CurrentQuestionIndex+1 < len(round.Questions) {
		s.CurrentQuestionIndex++
		return true
	}
	for r := s.CurrentRoundIndex + 1; r < len(s.Rounds); r++ {
		if len(s.Rounds[r].Questions) > 0 {
			s.CurrentRoundIndex = r
			s.CurrentQuestionIndex = 0
			return true
		}
	}
	return false
}

// ClearAnswers drops all recorded answers for the current question.
func (s *Session) ClearAnswers() {
	s.PlayerAnswers = make(map[string]Answer)
}

// IsPlayer reports whether the given id belongs to a registered player.
func (s *Session) IsPlayer(id string) bool {
	_, ok := s.PlayerScores[id]
	return ok
}
