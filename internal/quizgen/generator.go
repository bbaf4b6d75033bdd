// Package quizgen asks a text-generation model for quiz questions about a
// piece of course content and recovers them with the quizdoc parser.
package quizgen

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/abhisek/quizdoc/internal/llm"
	"github.com/abhisek/quizdoc/internal/logger"
	"github.com/abhisek/quizdoc/internal/quizdoc"
)

var (
	// ErrEmptyContent is returned when there is no content to ask about.
	ErrEmptyContent = errors.New("content is empty")

	// ErrNoQuestions is returned when the model output yielded no valid
	// question. It wraps the underlying *quizdoc.ParseFailure.
	ErrNoQuestions = errors.New("model output contained no valid questions")
)

// Generator produces quizzes using an LLM provider.
type Generator struct {
	provider llm.Provider
	config   Config
	log      *logger.Logger

	lesson     *quizdoc.Parser
	assessment *quizdoc.Parser
}

// New creates a Generator. A nil log discards output.
func New(provider llm.Provider, cfg Config, log *logger.Logger) *Generator {
	if log == nil {
		log = logger.Nop()
	}

	lessonCfg := quizdoc.DefaultConfig()
	lessonCfg.RepairMissingCorrect = cfg.RepairMissingCorrect
	assessmentCfg := quizdoc.AssessmentConfig()
	assessmentCfg.RepairMissingCorrect = cfg.RepairMissingCorrect

	return &Generator{
		provider:   provider,
		config:     cfg,
		log:        log.With("component", "quizgen"),
		lesson:     quizdoc.NewParser(lessonCfg),
		assessment: quizdoc.NewParser(assessmentCfg),
	}
}

// Generate produces a quiz for input. By default the request is sent in
// raw-text mode and the reply goes through the full salvage cascade, so
// partial or loosely formatted output still yields questions. With
// Config.Structured the provider enforces QuestionListSchema first.
func (g *Generator) Generate(ctx context.Context, input GenerateInput) (*Output, error) {
	if input.Kind == "" {
		input.Kind = KindLesson
	}
	if strings.TrimSpace(input.Content) == "" {
		return nil, ErrEmptyContent
	}

	count := input.Count
	if count <= 0 {
		count = g.config.countFor(input.Kind)
	}

	purpose := llm.PurposeQuizGen
	parser := g.lesson
	if input.Kind == KindFinalAssessment {
		purpose = llm.PurposeAssessmentGen
		parser = g.assessment
	}
	ctx = llm.WithPurpose(ctx, purpose)

	req := llm.UserPrompt(systemPromptFor(input.Kind, g.config.Structured), buildUserMessage(input, count, g.config))
	req.MaxTokens = g.config.MaxTokens
	req.Temperature = g.config.Temperature
	if g.config.Structured {
		req.Schema = QuestionListSchema
	}

	resp, err := g.provider.Generate(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("quiz generation: %w", err)
	}

	res, err := parser.Parse(resp.Text())
	if err != nil {
		return nil, fmt.Errorf("quiz generation: %w: %w", ErrNoQuestions, err)
	}

	questions, dupes := dedupe(res.Questions)
	if len(questions) > count {
		questions = questions[:count]
	}

	out := &Output{
		Questions:  questions,
		Strategy:   res.Strategy,
		Requested:  count,
		Candidates: res.Candidates,
		Dropped:    res.Dropped + dupes,
		Truncated:  resp.Truncated(),
	}

	if len(questions) < count {
		g.log.Warn("generated fewer questions than requested",
			"kind", input.Kind,
			"requested", count,
			"kept", len(questions),
			"dropped", out.Dropped,
			"strategy", res.Strategy,
			"truncated", out.Truncated,
		)
	}
	return out, nil
}

// dedupe drops questions whose text repeats an earlier one, ignoring case
// and spacing. It returns the kept questions and how many were removed.
func dedupe(questions []quizdoc.Question) ([]quizdoc.Question, int) {
	seen := make(map[string]struct{}, len(questions))
	out := questions[:0:0]
	for _, q := range questions {
		key := strings.Join(strings.Fields(strings.ToLower(q.Text)), " ")
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, q)
	}
	return out, len(questions) - len(out)
}
