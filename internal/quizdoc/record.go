package quizdoc

import "strings"

// questionsFromRecords converts decoded records into questions. Records
// that are not objects are skipped; validation happens later.
func questionsFromRecords(records []any) []Question {
	out := make([]Question, 0, len(records))
	for _, r := range records {
		m, ok := r.(map[string]any)
		if !ok {
			continue
		}
		out = append(out, questionFromRecord(m))
	}
	return out
}

// questionFromRecord maps the generation schema
// {question_text, question_type, difficulty, answers:[{answer_text, is_correct, explanation}]}
// onto a Question. question_type is ignored: only single choice is modelled.
// Answers with blank text are dropped here.
func questionFromRecord(m map[string]any) Question {
	q := Question{
		Text:       stringField(m, "question_text"),
		Type:       TypeSingleChoice,
		Difficulty: ParseDifficulty(stringField(m, "difficulty")),
	}

	answers, _ := m["answers"].([]any)
	for _, a := range answers {
		am, ok := a.(map[string]any)
		if !ok {
			continue
		}
		text := stringField(am, "answer_text")
		if isBlank(text) {
			continue
		}
		q.Answers = append(q.Answers, Answer{
			Text:        text,
			IsCorrect:   truthy(am["is_correct"]),
			Explanation: stringField(am, "explanation"),
		})
	}
	return q
}

func stringField(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

// truthy accepts the encodings models actually emit for is_correct.
func truthy(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "true", "yes", "1":
			return true
		}
	case float64:
		return t != 0
	}
	return false
}
