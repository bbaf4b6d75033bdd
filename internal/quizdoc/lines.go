package quizdoc

import (
	"regexp"
	"strings"
)

var (
	questionStart     = regexp.MustCompile(`^\d+[.)]\s*(.+)$`)
	letteredAnswer    = regexp.MustCompile(`^[a-dA-D][.)]\s*(.+)$`)
	correctMarker     = regexp.MustCompile(`(?i)\[correct\]|\(correct\)`)
	inlineExplanation = regexp.MustCompile(`(?i)explanation:\s*(.*)$`)
	explanationPrefix = regexp.MustCompile(`(?i)^(explanation|reason)\s*:`)
)

type lineState int

const (
	stateNoQuestion lineState = iota
	stateInQuestion
)

// lineParser is the recovery-oriented state machine for human-authored
// quiz text: numbered questions, lettered options and inline markers.
// Lines it does not understand are ignored.
type lineParser struct {
	repair bool

	state   lineState
	current *Question
	out     []Question
	blocks  int
}

// parseLines returns the finalized questions and the number of question
// blocks that were started.
func parseLines(raw string, repairMissingCorrect bool) ([]Question, int) {
	p := &lineParser{repair: repairMissingCorrect}

	text := strings.ReplaceAll(raw, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		p.feed(line)
	}
	p.finalize()

	return p.out, p.blocks
}

func (p *lineParser) feed(line string) {
	if m := questionStart.FindStringSubmatch(line); m != nil {
		p.finalize()
		p.current = &Question{
			Text:       collapseSpaces(m[1]),
			Type:       TypeSingleChoice,
			Difficulty: DifficultyMedium,
		}
		p.state = stateInQuestion
		p.blocks++
		return
	}

	if p.state != stateInQuestion {
		return
	}

	if m := letteredAnswer.FindStringSubmatch(line); m != nil {
		if a, ok := parseAnswerLine(m[1], line); ok {
			p.current.Answers = append(p.current.Answers, a)
		}
		return
	}

	if len(p.current.Answers) > 0 && isExplanationLine(line) {
		p.appendExplanation(line)
	}
}

// finalize emits the current question if it has at least two answers.
// Questions with fewer are dropped without error.
func (p *lineParser) finalize() {
	q := p.current
	p.current = nil
	p.state = stateNoQuestion

	if q == nil || len(q.Answers) < 2 {
		return
	}
	if p.repair && q.CorrectCount() == 0 {
		q.Answers[0].IsCorrect = true
	}
	p.out = append(p.out, *q)
}

// appendExplanation adds the text after the first ':' to the most
// recently parsed answer.
func (p *lineParser) appendExplanation(line string) {
	_, text, found := strings.Cut(line, ":")
	if !found {
		return
	}
	text = collapseSpaces(text)
	if text == "" {
		return
	}
	last := &p.current.Answers[len(p.current.Answers)-1]
	if last.Explanation == "" {
		last.Explanation = text
	} else {
		last.Explanation += " " + text
	}
}

// parseAnswerLine builds an Answer from the text after the option label.
// Correctness markers are looked for in both the answer text and the full
// line. An answer left with no text once markup is removed is skipped.
func parseAnswerLine(text, line string) (Answer, bool) {
	correct := hasCorrectMarker(text) || hasCorrectMarker(line)

	var explanation string
	if loc := inlineExplanation.FindStringSubmatchIndex(text); loc != nil {
		explanation = collapseSpaces(stripMarkers(text[loc[2]:loc[3]]))
		text = text[:loc[0]]
	}

	text = strings.TrimRight(collapseSpaces(stripMarkers(text)), " -–—|")
	if text == "" {
		return Answer{}, false
	}
	return Answer{Text: text, IsCorrect: correct, Explanation: explanation}, true
}

func hasCorrectMarker(s string) bool {
	return correctMarker.MatchString(s) || strings.Contains(s, "*")
}

func stripMarkers(s string) string {
	s = correctMarker.ReplaceAllString(s, "")
	return strings.ReplaceAll(s, "*", "")
}

func isExplanationLine(line string) bool {
	return explanationPrefix.MatchString(line) ||
		strings.Contains(strings.ToLower(line), "explanation")
}
