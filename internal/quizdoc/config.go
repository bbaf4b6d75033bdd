package quizdoc

// DefaultMaxInputBytes bounds the size of a single quiz document.
const DefaultMaxInputBytes = 1 << 20

// AssessmentAnswerCount is the answer count required of generated
// final-assessment questions.
const AssessmentAnswerCount = 4

// Config controls the behavior of a Parser.
type Config struct {
	// Validators is the ordered list of validators every candidate
	// question must pass to be accepted.
	Validators []Validator

	// MaxInputBytes rejects larger documents up front. Zero disables the check.
	MaxInputBytes int

	// RepairMissingCorrect marks the first answer correct when a
	// line-parsed question has no correctness marker at all. When false
	// such questions are left as-is and the structural validator drops them.
	RepairMissingCorrect bool
}

// DefaultConfig returns the configuration for human-authored documents
// and lesson quizzes.
func DefaultConfig() Config {
	return Config{
		Validators: []Validator{
			&StructuralValidator{},
		},
		MaxInputBytes:        DefaultMaxInputBytes,
		RepairMissingCorrect: true,
	}
}

// AssessmentConfig returns the stricter configuration used for generated
// final assessments.
func AssessmentConfig() Config {
	cfg := DefaultConfig()
	cfg.Validators = append(cfg.Validators, &AssessmentValidator{Answers: AssessmentAnswerCount})
	return cfg
}
