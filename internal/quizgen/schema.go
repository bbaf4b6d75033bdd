package quizgen

import "github.com/abhisek/quizdoc/internal/llm"

// QuestionListSchema is sent in structured mode. The questions sit under
// an object key because strict JSON-schema modes require an object root;
// the quizdoc parser accepts that wrapper.
var QuestionListSchema = &llm.Schema{
	Name:        "quiz-questions",
	Description: "Single-choice quiz questions about a piece of course content",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"questions": map[string]any{
				"type":  "array",
				"items": questionDefinition,
			},
		},
		"required":             []any{"questions"},
		"additionalProperties": false,
	},
}

var questionDefinition = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"question_text": map[string]any{
			"type":        "string",
			"description": "The question shown to the learner",
		},
		"question_type": map[string]any{
			"type": "string",
			"enum": []any{"single_choice"},
		},
		"difficulty": map[string]any{
			"type": "string",
			"enum": []any{"easy", "medium", "hard"},
		},
		"answers": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"answer_text": map[string]any{"type": "string"},
					"is_correct":  map[string]any{"type": "boolean"},
					"explanation": map[string]any{
						"type":        "string",
						"description": "Why this option is right or wrong",
					},
				},
				"required":             []any{"answer_text", "is_correct", "explanation"},
				"additionalProperties": false,
			},
		},
	},
	"required":             []any{"question_text", "question_type", "difficulty", "answers"},
	"additionalProperties": false,
}
