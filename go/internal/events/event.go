package events

import (
	"time"
)

// Channel names form the stable contract with the overlay and host UI.
type Channel string

const (
	ChannelPhaseUpdate       Channel = "phase.update"
	ChannelQuestionShow      Channel = "question.show"
	ChannelQuestionLock      Channel = "question.lock"
	ChannelQuestionReveal    Channel = "question.reveal"
	ChannelQuestionRevealed  Channel = "question.revealed"
	ChannelQuestionFinished  Channel = "question.finished"
	ChannelQuestionNextReady Channel = "question.next_ready"
	ChannelQuestionReset     Channel = "question.reset"
	ChannelVoteUpdate        Channel = "vote.update"
	ChannelAnswerAssign      Channel = "answer.assign"
	ChannelScoreUpdate       Channel = "score.update"
	ChannelLeaderboardPush   Channel = "leaderboard.push"
	ChannelScorePanelToggle  Channel = "scorepanel.toggle"
	ChannelZoomStep          Channel = "zoom.step"
	ChannelZoomComplete      Channel = "zoom.complete"
	ChannelMysteryReveal     Channel = "mystery.reveal"
)

// Payload is implemented by every event payload variant. The closed set of
// variants keeps producers and consumers agreeing on shape at compile time.
type Payload interface {
	EventType() string
}

// Event is the envelope handed to the broadcast transport. Events are created
// fresh per publish, are immutable and are never reused.
type Event struct {
	ID        string    `json:"id"`
	Channel   Channel   `json:"channel"`
	Type      string    `json:"type"`
	Payload   Payload   `json:"payload"`
	Timestamp time.Time `json:"timestamp"`
}
