package quizdoc

import "fmt"

// Validator checks a parsed question against a structural rule.
// Implementations should be stateless and safe for concurrent use.
type Validator interface {
	// Name returns a short identifier for this validator, e.g. "structural".
	Name() string

	// Validate returns nil if the question passes.
	Validate(q *Question) *ValidationError
}

// ValidationError describes why a question was rejected.
type ValidationError struct {
	Validator string // Name of the validator that failed
	Message   string // Human-readable description of the failure
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validator %q: %s", e.Validator, e.Message)
}

// StructuralValidator enforces the acceptance invariants every question
// must satisfy: a prompt, at least two answers and at least one correct.
type StructuralValidator struct{}

func (v *StructuralValidator) Name() string { return "structural" }

func (v *StructuralValidator) Validate(q *Question) *ValidationError {
	if isBlank(q.Text) {
		return &ValidationError{Validator: v.Name(), Message: "question_text is empty"}
	}
	if len(q.Answers) < 2 {
		return &ValidationError{
			Validator: v.Name(),
			Message:   fmt.Sprintf("need at least 2 answers, got %d", len(q.Answers)),
		}
	}
	if q.CorrectCount() == 0 {
		return &ValidationError{Validator: v.Name(), Message: "no answer is marked correct"}
	}
	return nil
}

// AssessmentValidator is the stricter rule for generated final assessments:
// a fixed number of answers with exactly one correct.
type AssessmentValidator struct {
	// Answers is the required answer count. Zero means AssessmentAnswerCount.
	Answers int
}

func (v *AssessmentValidator) Name() string { return "assessment" }

func (v *AssessmentValidator) Validate(q *Question) *ValidationError {
	want := v.Answers
	if want == 0 {
		want = AssessmentAnswerCount
	}
	if len(q.Answers) != want {
		return &ValidationError{
			Validator: v.Name(),
			Message:   fmt.Sprintf("need exactly %d answers, got %d", want, len(q.Answers)),
		}
	}
	if n := q.CorrectCount(); n != 1 {
		return &ValidationError{
			Validator: v.Name(),
			Message:   fmt.Sprintf("need exactly 1 correct answer, got %d", n),
		}
	}
	return nil
}

// Filter runs validators over questions in order and keeps the ones that
// pass all of them. The first failing validator decides the rejection.
// Order is preserved; nothing is reordered or deduplicated.
func Filter(questions []Question, validators ...Validator) ([]Question, []*ValidationError) {
	kept := make([]Question, 0, len(questions))
	var rejected []*ValidationError
	for i := range questions {
		if verr := validate(&questions[i], validators); verr != nil {
			rejected = append(rejected, verr)
			continue
		}
		kept = append(kept, questions[i])
	}
	return kept, rejected
}

func validate(q *Question, validators []Validator) *ValidationError {
	for _, v := range validators {
		if verr := v.Validate(q); verr != nil {
			return verr
		}
	}
	return nil
}
