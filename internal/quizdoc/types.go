package quizdoc

import "strings"

// Question is a single-answer multiple choice question recovered from a
// quiz document. The JSON field names match the record shape emitted by
// the generation prompt, so a marshalled []Question parses back unchanged.
type Question struct {
	// Text is the question prompt. Never empty in a parse result.
	Text string `json:"question_text"`

	// Type is always TypeSingleChoice.
	Type QuestionType `json:"question_type"`

	// Difficulty defaults to DifficultyMedium when the input does not say.
	Difficulty Difficulty `json:"difficulty"`

	// Answers keeps input order. Option labels (a-d) map positionally
	// and are not stored.
	Answers []Answer `json:"answers"`
}

// Answer is one option of a Question.
type Answer struct {
	// Text is the option text with correctness and explanation markup removed.
	Text string `json:"answer_text"`

	IsCorrect bool `json:"is_correct"`

	// Explanation may be empty.
	Explanation string `json:"explanation"`
}

// CorrectCount returns how many answers are marked correct.
func (q Question) CorrectCount() int {
	n := 0
	for _, a := range q.Answers {
		if a.IsCorrect {
			n++
		}
	}
	return n
}

// QuestionType is the interaction type of a question.
type QuestionType string

// TypeSingleChoice is the only type this parser produces.
const TypeSingleChoice QuestionType = "single_choice"

// Difficulty is the self-declared difficulty of a question.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// ParseDifficulty maps free text to a Difficulty, falling back to medium.
func ParseDifficulty(s string) Difficulty {
	switch Difficulty(strings.ToLower(strings.TrimSpace(s))) {
	case DifficultyEasy:
		return DifficultyEasy
	case DifficultyHard:
		return DifficultyHard
	default:
		return DifficultyMedium
	}
}

// Strategy names the salvage strategy that produced a Result.
type Strategy string

const (
	StrategyDirect      Strategy = "direct"
	StrategyFenced      Strategy = "fenced"
	StrategyArrayRepair Strategy = "array-repair"
	StrategyObjectScan  Strategy = "object-scan"
	StrategyLines       Strategy = "lines"
)

// Result is a successful parse.
type Result struct {
	// Questions is non-empty and in source order.
	Questions []Question `json:"questions"`

	// Strategy is the path that produced Questions.
	Strategy Strategy `json:"strategy"`

	// Candidates is the number of records or question blocks found
	// before validation.
	Candidates int `json:"candidates"`

	// Dropped is the number of candidates that failed validation.
	Dropped int `json:"dropped"`
}
