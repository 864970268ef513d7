package quiz

import (
	"errors"
	"fmt"
)

// Domain errors
var (
	ErrNoActiveSession   = errors.New("no active session")
	ErrNoCurrentQuestion = errors.New("no current question")
	ErrNoNextQuestion    = errors.New("no next question")
	ErrInvalidTransition = errors.New("invalid phase transition")
	ErrUnknownEntity     = errors.New("unknown player or viewer")
)

// TransitionError wraps ErrInvalidTransition with the attempted edge.
type TransitionError struct {
	From Phase
	To   Phase
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("invalid phase transition %s -> %s", e.From, e.To)
}

func (e *TransitionError) Unwrap() error {
	return ErrInvalidTransition
}
