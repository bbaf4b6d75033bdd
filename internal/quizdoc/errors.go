package quizdoc

import (
	"errors"
	"fmt"
)

// ErrParseFailure is the sentinel every parse failure unwraps to.
// Callers should treat it as "produce zero questions".
var ErrParseFailure = errors.New("could not extract quiz questions")

// FailureReason classifies a ParseFailure.
type FailureReason string

const (
	// ReasonEmptyInput means the input was empty or whitespace only.
	ReasonEmptyInput FailureReason = "empty_input"

	// ReasonNoQuestions means every strategy ran and nothing survived validation.
	ReasonNoQuestions FailureReason = "no_questions"

	// ReasonTooLarge means the input exceeded Config.MaxInputBytes.
	ReasonTooLarge FailureReason = "input_too_large"
)

// ParseFailure is returned when no valid question could be recovered.
// It carries no partial data.
type ParseFailure struct {
	Reason FailureReason

	// Candidates is how many records or question blocks were seen before
	// validation rejected all of them.
	Candidates int
}

func (e *ParseFailure) Error() string {
	switch e.Reason {
	case ReasonEmptyInput:
		return "quiz document is empty"
	case ReasonTooLarge:
		return "quiz document is too large"
	default:
		if e.Candidates > 0 {
			return fmt.Sprintf("no valid questions among %d candidates", e.Candidates)
		}
		return "no recognizable questions in quiz document"
	}
}

func (e *ParseFailure) Unwrap() error { return ErrParseFailure }
