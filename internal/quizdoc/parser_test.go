package quizdoc

import (
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"testing"
)

const skyDoc = `1. What color is the sky?
a. Red
b. Blue [correct]
c. Green
d. Yellow`

func sampleQuestions() []Question {
	return []Question{
		{
			Text:       "What is 2 + 2?",
			Type:       TypeSingleChoice,
			Difficulty: DifficultyEasy,
			Answers: []Answer{
				{Text: "3", IsCorrect: false, Explanation: "Off by one."},
				{Text: "4", IsCorrect: true, Explanation: "Basic addition."},
				{Text: "5", IsCorrect: false},
				{Text: "22", IsCorrect: false, Explanation: "That is concatenation."},
			},
		},
		{
			Text:       "Which planet is largest?",
			Type:       TypeSingleChoice,
			Difficulty: DifficultyHard,
			Answers: []Answer{
				{Text: "Jupiter", IsCorrect: true},
				{Text: "Mars", IsCorrect: false},
			},
		},
	}
}

func mustJSON(t *testing.T, v any) string {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return string(data)
}

func TestParse_DirectJSONMatchesDeserialization(t *testing.T) {
	want := sampleQuestions()
	res, err := Parse(mustJSON(t, want))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Strategy != StrategyDirect {
		t.Errorf("strategy: got %q, want %q", res.Strategy, StrategyDirect)
	}
	if !reflect.DeepEqual(res.Questions, want) {
		t.Errorf("questions differ:\ngot  %+v\nwant %+v", res.Questions, want)
	}
	if res.Candidates != 2 || res.Dropped != 0 {
		t.Errorf("got candidates=%d dropped=%d, want 2/0", res.Candidates, res.Dropped)
	}
}

func TestParse_DirectJSONIsFiltered(t *testing.T) {
	records := `[
		{"question_text": "Keep me", "answers": [
			{"answer_text": "yes", "is_correct": true},
			{"answer_text": "no", "is_correct": false}]},
		{"question_text": "One answer only", "answers": [
			{"answer_text": "lonely", "is_correct": true}]},
		{"question_text": "Nothing correct", "answers": [
			{"answer_text": "a", "is_correct": false},
			{"answer_text": "b", "is_correct": false}]}
	]`
	res, err := Parse(records)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Questions) != 1 || res.Questions[0].Text != "Keep me" {
		t.Fatalf("got %+v, want only %q", res.Questions, "Keep me")
	}
	if res.Dropped != 2 {
		t.Errorf("dropped: got %d, want 2", res.Dropped)
	}
}

func TestParse_FencedMatchesUnwrapped(t *testing.T) {
	raw := mustJSON(t, sampleQuestions())
	plain, err := Parse(raw)
	if err != nil {
		t.Fatalf("plain parse: %v", err)
	}

	for _, fenced := range []string{
		"```json\n" + raw + "\n```",
		"```\n" + raw + "\n```",
		"```JSON\n" + raw + "\n```\n",
	} {
		res, err := Parse(fenced)
		if err != nil {
			t.Fatalf("fenced parse of %q: %v", fenced[:10], err)
		}
		if res.Strategy != StrategyFenced {
			t.Errorf("strategy: got %q, want %q", res.Strategy, StrategyFenced)
		}
		if !reflect.DeepEqual(res.Questions, plain.Questions) {
			t.Errorf("fenced result differs from unwrapped:\ngot  %+v\nwant %+v", res.Questions, plain.Questions)
		}
	}
}

func TestParse_TrailingCommas(t *testing.T) {
	clean := `[{"question_text": "Q1", "difficulty": "easy", "answers": [{"answer_text": "A", "is_correct": true}, {"answer_text": "B", "is_correct": false}]}]`
	dirty := `[{"question_text": "Q1", "difficulty": "easy", "answers": [{"answer_text": "A", "is_correct": true,}, {"answer_text": "B", "is_correct": false,},],},]`

	want, err := Parse(clean)
	if err != nil {
		t.Fatalf("clean parse: %v", err)
	}
	got, err := Parse(dirty)
	if err != nil {
		t.Fatalf("dirty parse: %v", err)
	}
	if got.Strategy != StrategyArrayRepair {
		t.Errorf("strategy: got %q, want %q", got.Strategy, StrategyArrayRepair)
	}
	if !reflect.DeepEqual(got.Questions, want.Questions) {
		t.Errorf("got %+v, want %+v", got.Questions, want.Questions)
	}
}

func TestParse_SingleQuotes(t *testing.T) {
	double := `[{"question_text": "What's the capital of France?", "answers": [{"answer_text": "Paris", "is_correct": true, "explanation": "It's the capital."}, {"answer_text": "Rome", "is_correct": false}]}]`
	single := `[{'question_text': 'What\'s the capital of France?', 'answers': [{'answer_text': 'Paris', 'is_correct': true, 'explanation': 'It\'s the capital.'}, {'answer_text': 'Rome', 'is_correct': false}]}]`

	want, err := Parse(double)
	if err != nil {
		t.Fatalf("double-quoted parse: %v", err)
	}
	got, err := Parse(single)
	if err != nil {
		t.Fatalf("single-quoted parse: %v", err)
	}
	if !reflect.DeepEqual(got.Questions, want.Questions) {
		t.Errorf("got %+v, want %+v", got.Questions, want.Questions)
	}
}

func TestParse_ArrayInsideProse(t *testing.T) {
	raw := `Sure! Here are your questions:
[
  {question_text: "Q1", answers: [{answer_text: "A", is_correct: true}, {answer_text: "B", is_correct: false}]},
]
Let me know if you need more.`

	res, err := Parse(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Strategy != StrategyArrayRepair {
		t.Errorf("strategy: got %q, want %q", res.Strategy, StrategyArrayRepair)
	}
	if len(res.Questions) != 1 || res.Questions[0].Text != "Q1" {
		t.Errorf("got %+v", res.Questions)
	}
}

func TestParse_ObjectScanSkipsMalformed(t *testing.T) {
	raw := `Question one: {"question_text": "Q1", "answers": [{"answer_text": "A", "is_correct": true}, {"answer_text": "B", "is_correct": false}]}
and a broken one {"question_text": "Q2", "answers": [{"answer_text": "A" "is_correct": true}]}
and something else {"note": "not a question"}
and the last {"question_text": "Q3", "answers": [{"answer_text": "C", "is_correct": false}, {"answer_text": "D", "is_correct": true}]}`

	res, err := Parse(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Strategy != StrategyObjectScan {
		t.Errorf("strategy: got %q, want %q", res.Strategy, StrategyObjectScan)
	}
	var texts []string
	for _, q := range res.Questions {
		texts = append(texts, q.Text)
	}
	if strings.Join(texts, ",") != "Q1,Q3" {
		t.Errorf("got %v, want [Q1 Q3]", texts)
	}
}

func TestParse_QuestionsWrapper(t *testing.T) {
	raw := `{"questions": [{"question_text": "Q", "answers": [{"answer_text": "A", "is_correct": "true"}, {"answer_text": "B", "is_correct": 0}]}]}`
	res, err := Parse(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	q := res.Questions[0]
	if !q.Answers[0].IsCorrect || q.Answers[1].IsCorrect {
		t.Errorf("correctness not decoded: %+v", q.Answers)
	}
	if q.Difficulty != DifficultyMedium {
		t.Errorf("difficulty: got %q, want %q", q.Difficulty, DifficultyMedium)
	}
}

func TestParse_LineMinimalCase(t *testing.T) {
	res, err := Parse(skyDoc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Strategy != StrategyLines {
		t.Errorf("strategy: got %q, want %q", res.Strategy, StrategyLines)
	}
	if len(res.Questions) != 1 {
		t.Fatalf("got %d questions, want 1", len(res.Questions))
	}
	q := res.Questions[0]
	if q.Text != "What color is the sky?" {
		t.Errorf("text: got %q", q.Text)
	}
	if q.Type != TypeSingleChoice || q.Difficulty != DifficultyMedium {
		t.Errorf("got type=%q difficulty=%q", q.Type, q.Difficulty)
	}
	wantTexts := []string{"Red", "Blue", "Green", "Yellow"}
	if len(q.Answers) != len(wantTexts) {
		t.Fatalf("got %d answers, want %d", len(q.Answers), len(wantTexts))
	}
	for i, a := range q.Answers {
		if a.Text != wantTexts[i] {
			t.Errorf("answer %d: got %q, want %q", i, a.Text, wantTexts[i])
		}
		if a.IsCorrect != (i == 1) {
			t.Errorf("answer %d: IsCorrect=%v", i, a.IsCorrect)
		}
	}
}

func TestParse_LineFirstAnswerDefault(t *testing.T) {
	doc := strings.Replace(skyDoc, " [correct]", "", 1)
	res, err := Parse(doc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, a := range res.Questions[0].Answers {
		if a.IsCorrect != (i == 0) {
			t.Errorf("answer %d: IsCorrect=%v", i, a.IsCorrect)
		}
	}
}

func TestParse_RepairDisabledRejects(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RepairMissingCorrect = false
	doc := strings.Replace(skyDoc, " [correct]", "", 1)

	_, err := NewParser(cfg).Parse(doc)
	if !errors.Is(err, ErrParseFailure) {
		t.Fatalf("got %v, want ErrParseFailure", err)
	}
	var pf *ParseFailure
	if !errors.As(err, &pf) || pf.Candidates != 1 {
		t.Errorf("got %+v, want 1 candidate", pf)
	}
}

func TestParse_ExplanationAttachesToLastAnswer(t *testing.T) {
	doc := `1. What color is the sky?
a. Red
b. Blue [correct]
Explanation: because it scatters blue light
c. Green
d. Yellow`

	res, err := Parse(doc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, a := range res.Questions[0].Answers {
		want := ""
		if i == 1 {
			want = "because it scatters blue light"
		}
		if a.Explanation != want {
			t.Errorf("answer %d explanation: got %q, want %q", i, a.Explanation, want)
		}
	}
}

func TestParse_SingleAnswerBlockDropped(t *testing.T) {
	_, err := Parse("1. Lonely question?\na. Only option [correct]")
	if !errors.Is(err, ErrParseFailure) {
		t.Fatalf("got %v, want ErrParseFailure", err)
	}

	doc := "1. Lonely question?\na. Only option\n\n" + strings.Replace(skyDoc, "1.", "2.", 1)
	res, err := Parse(doc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Questions) != 1 || res.Questions[0].Text != "What color is the sky?" {
		t.Errorf("got %+v", res.Questions)
	}
	if res.Candidates != 2 || res.Dropped != 1 {
		t.Errorf("got candidates=%d dropped=%d, want 2/1", res.Candidates, res.Dropped)
	}
}

func TestParse_MultiQuestionDocument(t *testing.T) {
	doc := "Chapter 3 review\r\n\r\n" +
		"1. First?\r\na) one *\r\nb) two\r\n" +
		"2) Second?\r\nA. alpha\r\nB. beta (correct)\r\nC. gamma\r\n" +
		"3. Third?\r\na. yes\r\nb. no [CORRECT]\r\n"

	res, err := Parse(doc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []struct {
		text    string
		answers int
		correct int
	}{
		{"First?", 2, 0},
		{"Second?", 3, 1},
		{"Third?", 2, 1},
	}
	if len(res.Questions) != len(want) {
		t.Fatalf("got %d questions, want %d", len(res.Questions), len(want))
	}
	for i, w := range want {
		q := res.Questions[i]
		if q.Text != w.text || len(q.Answers) != w.answers {
			t.Errorf("question %d: got %q with %d answers", i, q.Text, len(q.Answers))
			continue
		}
		if q.CorrectCount() != 1 || !q.Answers[w.correct].IsCorrect {
			t.Errorf("question %d: wrong correctness %+v", i, q.Answers)
		}
	}
	if got := res.Questions[0].Answers[0].Text; got != "one" {
		t.Errorf("marker not stripped: got %q", got)
	}
}

func TestParse_InlineExplanation(t *testing.T) {
	doc := `1. Why is the sky blue?
a. Magic
b. Scattering (correct) Explanation: Rayleigh scattering favors short wavelengths
Reason: shorter wavelengths scatter more`

	res, err := Parse(doc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	a := res.Questions[0].Answers[1]
	if a.Text != "Scattering" || !a.IsCorrect {
		t.Errorf("got %+v", a)
	}
	want := "Rayleigh scattering favors short wavelengths shorter wavelengths scatter more"
	if a.Explanation != want {
		t.Errorf("explanation: got %q, want %q", a.Explanation, want)
	}
}

func TestParse_Failures(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		reason FailureReason
	}{
		{"empty", "", ReasonEmptyInput},
		{"whitespace", "  \n\t\n", ReasonEmptyInput},
		{"prose", "This document has no questions at all.\nJust notes.", ReasonNoQuestions},
		{"answers without question", "a. Red\nb. Blue [correct]", ReasonNoQuestions},
		{"json without questions", `[{"title": "x"}, 1, "two"]`, ReasonNoQuestions},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			res, err := Parse(tc.raw)
			if res != nil {
				t.Errorf("expected no result, got %+v", res)
			}
			if !errors.Is(err, ErrParseFailure) {
				t.Fatalf("got %v, want ErrParseFailure", err)
			}
			var pf *ParseFailure
			if !errors.As(err, &pf) {
				t.Fatalf("expected *ParseFailure, got %T", err)
			}
			if pf.Reason != tc.reason {
				t.Errorf("reason: got %q, want %q", pf.Reason, tc.reason)
			}
		})
	}
}

func TestParse_TooLarge(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxInputBytes = 16
	_, err := NewParser(cfg).Parse(skyDoc)
	var pf *ParseFailure
	if !errors.As(err, &pf) || pf.Reason != ReasonTooLarge {
		t.Fatalf("got %v, want too-large failure", err)
	}
}

func TestParse_AssessmentMode(t *testing.T) {
	raw := `[
		{"question_text": "Four answers", "answers": [
			{"answer_text": "a", "is_correct": true},
			{"answer_text": "b", "is_correct": false},
			{"answer_text": "c", "is_correct": false},
			{"answer_text": "d", "is_correct": false}]},
		{"question_text": "Three answers", "answers": [
			{"answer_text": "a", "is_correct": true},
			{"answer_text": "b", "is_correct": false},
			{"answer_text": "c", "is_correct": false}]},
		{"question_text": "Two correct", "answers": [
			{"answer_text": "a", "is_correct": true},
			{"answer_text": "b", "is_correct": true},
			{"answer_text": "c", "is_correct": false},
			{"answer_text": "d", "is_correct": false}]}
	]`

	res, err := NewParser(AssessmentConfig()).Parse(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Questions) != 1 || res.Questions[0].Text != "Four answers" {
		t.Errorf("got %+v", res.Questions)
	}

	lenient, err := Parse(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(lenient.Questions) != 3 {
		t.Errorf("default config kept %d questions, want 3", len(lenient.Questions))
	}
}

func TestParser_Validate(t *testing.T) {
	p := NewParser(DefaultConfig())
	qs := sampleQuestions()
	qs = append(qs, Question{Text: "", Answers: qs[0].Answers})

	kept, err := p.Validate(qs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(kept) != 2 {
		t.Errorf("got %d, want 2", len(kept))
	}

	if _, err := p.Validate(nil); !errors.Is(err, ErrParseFailure) {
		t.Errorf("got %v, want ErrParseFailure", err)
	}
}

func TestParseFailure_Error(t *testing.T) {
	tests := []struct {
		err  *ParseFailure
		want string
	}{
		{&ParseFailure{Reason: ReasonEmptyInput}, "quiz document is empty"},
		{&ParseFailure{Reason: ReasonTooLarge}, "quiz document is too large"},
		{&ParseFailure{Reason: ReasonNoQuestions}, "no recognizable questions in quiz document"},
		{&ParseFailure{Reason: ReasonNoQuestions, Candidates: 3}, "no valid questions among 3 candidates"},
	}
	for _, tc := range tests {
		if got := tc.err.Error(); got != tc.want {
			t.Errorf("got %q, want %q", got, tc.want)
		}
	}
}

func TestParser_Fingerprint(t *testing.T) {
	base := NewParser(DefaultConfig())
	if got := NewParser(DefaultConfig()).Fingerprint(); got != base.Fingerprint() {
		t.Fatalf("equal configs gave %q and %q", got, base.Fingerprint())
	}

	noRepair := DefaultConfig()
	noRepair.RepairMissingCorrect = false
	smaller := DefaultConfig()
	smaller.MaxInputBytes = 1024
	sixAnswers := DefaultConfig()
	sixAnswers.Validators = append(sixAnswers.Validators, &AssessmentValidator{Answers: 6})

	seen := map[string]string{base.Fingerprint(): "default"}
	for name, cfg := range map[string]Config{
		"no repair":   noRepair,
		"smaller max": smaller,
		"assessment":  AssessmentConfig(),
		"six answers": sixAnswers,
	} {
		fp := NewParser(cfg).Fingerprint()
		if prev, ok := seen[fp]; ok {
			t.Errorf("%s shares fingerprint %s with %s", name, fp, prev)
		}
		seen[fp] = name
	}
}
