package quizdoc

import (
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// candidateSchemaJSON is the minimum shape a decoded record must have to be
// worth converting: a non-blank question_text and an answers array.
// Everything else is checked after conversion by the validators.
const candidateSchemaJSON = `{
	"type": "object",
	"required": ["question_text", "answers"],
	"properties": {
		"question_text": {"type": "string", "pattern": "\\S"},
		"answers": {"type": "array"}
	}
}`

var candidateSchema = mustCompileSchema("schema://quiz-candidate.json", candidateSchemaJSON)

func mustCompileSchema(url, def string) *jsonschema.Schema {
	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(def))
	if err != nil {
		panic("quizdoc: parse schema " + url + ": " + err.Error())
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource(url, doc); err != nil {
		panic("quizdoc: add schema " + url + ": " + err.Error())
	}
	return c.MustCompile(url)
}

// isCandidate reports whether a decoded JSON value looks like a question record.
func isCandidate(v any) bool {
	return candidateSchema.Validate(v) == nil
}
