package quizgen

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

const systemPrompt = `You are an instructional designer writing multiple choice quiz questions for an online course.

Rules:
- Base every question only on the provided content. Do not test facts the content does not state.
- Each question has exactly one correct answer. Distractors should be plausible and reflect common misunderstandings.
- Give every answer a one-sentence explanation of why it is right or wrong.
- Mix difficulties: "easy" for recall, "medium" for understanding, "hard" for application.
- Do not repeat any question from the "already asked" list.
- Respond with a JSON array only. No prose before or after it, no markdown.

Each element of the array must have exactly this shape:
{
  "question_text": "string",
  "question_type": "single_choice",
  "difficulty": "easy" | "medium" | "hard",
  "answers": [
    {"answer_text": "string", "is_correct": true | false, "explanation": "string"}
  ]
}`

const assessmentRules = `
This is the final assessment for the whole course:
- Every question must have exactly 4 answers.
- Exactly 1 answer per question has "is_correct": true.
- Cover the whole course rather than a single section.`

const structuredRule = `
Return the array as the "questions" field of a JSON object: {"questions": [...]}.`

// systemPromptFor returns the system prompt for the given kind.
func systemPromptFor(kind Kind, structured bool) string {
	prompt := systemPrompt
	if kind == KindFinalAssessment {
		prompt += "\n" + assessmentRules
	}
	if structured {
		prompt += "\n" + structuredRule
	}
	return prompt
}

// buildUserMessage constructs the user message from GenerateInput and Config limits.
func buildUserMessage(input GenerateInput, count int, cfg Config) string {
	var b strings.Builder

	if input.Title != "" {
		fmt.Fprintf(&b, "Title: %s\n", input.Title)
	}
	fmt.Fprintf(&b, "Questions: %d\n", count)
	if input.Kind == KindFinalAssessment {
		b.WriteString("Answers per question: 4\n")
	}

	b.WriteString("\nAlready asked:\n")
	b.WriteString(buildDedup(input.PriorQuestions, cfg.MaxPriorQuestions))

	b.WriteString("\n\nContent:\n")
	b.WriteString(truncateRunes(strings.TrimSpace(input.Content), cfg.MaxContentChars))

	return b.String()
}

// buildDedup formats prior questions for the prompt, respecting the max limit.
// Returns "None" if there are no prior questions.
func buildDedup(priorQuestions []string, max int) string {
	if len(priorQuestions) == 0 {
		return "None"
	}

	// Keep only the most recent N questions.
	if max > 0 && len(priorQuestions) > max {
		priorQuestions = priorQuestions[len(priorQuestions)-max:]
	}

	var b strings.Builder
	for i, q := range priorQuestions {
		fmt.Fprintf(&b, "%d. %s\n", i+1, q)
	}
	return strings.TrimRight(b.String(), "\n")
}

// truncateRunes cuts s to at most max runes. Non-positive max leaves s alone.
func truncateRunes(s string, max int) string {
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}
	n := 0
	for i := range s {
		if n == max {
			return s[:i]
		}
		n++
	}
	return s
}
