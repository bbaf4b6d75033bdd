package quizgen

import (
	"fmt"
	"strings"

	"github.com/abhisek/quizdoc/internal/quizdoc"
)

// Kind selects the question count and the filter applied to generated output.
type Kind string

const (
	// KindLesson is a short quiz attached to one lesson.
	KindLesson Kind = "lesson"

	// KindFinalAssessment is the course-level assessment. Every question
	// must have exactly four answers with one correct.
	KindFinalAssessment Kind = "final_assessment"
)

// ParseKind maps user input to a Kind. Empty input means KindLesson.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "lesson":
		return KindLesson, nil
	case "assessment", "final", "final_assessment", "final-assessment":
		return KindFinalAssessment, nil
	default:
		return "", fmt.Errorf("unknown quiz kind %q (want lesson or assessment)", s)
	}
}

// GenerateInput holds the context for generating one quiz.
type GenerateInput struct {
	Title   string
	Content string

	// Count is the number of questions wanted. Zero means the Config
	// default for the kind.
	Count int

	Kind Kind

	// PriorQuestions are question texts already used elsewhere in the
	// course. The model is asked not to repeat them.
	PriorQuestions []string
}

// Output is the result of one generation call.
type Output struct {
	Questions []quizdoc.Question

	// Strategy is the salvage path that recovered the questions.
	Strategy quizdoc.Strategy

	// Requested is the question count asked of the model.
	Requested int

	// Candidates and Dropped come from the parse; Dropped also counts
	// duplicates removed after parsing.
	Candidates int
	Dropped    int

	// Truncated reports that the model stopped at its token limit and the
	// questions were salvaged from partial output.
	Truncated bool
}
