package quizgen

// Config controls the behavior of the Generator.
type Config struct {
	// MaxTokens is the token budget for the LLM response.
	MaxTokens int

	// Temperature controls LLM output randomness (0.0-1.0).
	Temperature float64

	// MaxContentChars bounds the source content placed in the prompt.
	// Longer content is cut on a rune boundary.
	MaxContentChars int

	// LessonQuestions and AssessmentQuestions are the default counts
	// per kind.
	LessonQuestions     int
	AssessmentQuestions int

	// MaxPriorQuestions is the maximum number of prior questions
	// to include in the prompt for deduplication.
	MaxPriorQuestions int

	// RepairMissingCorrect is passed through to the parser.
	RepairMissingCorrect bool

	// Structured asks the provider to enforce QuestionListSchema. The reply
	// still goes through the parser, but a truncated or non-conforming
	// reply fails instead of being salvaged.
	Structured bool
}

// DefaultConfig returns a Config with recommended defaults.
func DefaultConfig() Config {
	return Config{
		MaxTokens:            8192,
		Temperature:          0.4,
		MaxContentChars:      24000,
		LessonQuestions:      5,
		AssessmentQuestions:  25,
		MaxPriorQuestions:    30,
		RepairMissingCorrect: true,
	}
}

func (c Config) countFor(kind Kind) int {
	if kind == KindFinalAssessment {
		return c.AssessmentQuestions
	}
	return c.LessonQuestions
}
