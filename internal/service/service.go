// Package service ties parsing, generation, caching and persistence
// together for the CLI and the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/abhisek/quizdoc/internal/cache"
	"github.com/abhisek/quizdoc/internal/logger"
	"github.com/abhisek/quizdoc/internal/quizdoc"
	"github.com/abhisek/quizdoc/internal/quizgen"
	"github.com/abhisek/quizdoc/internal/store"
)

var (
	// ErrQuizExists is returned when the content already has a quiz.
	ErrQuizExists = errors.New("quiz already exists for this content")

	// ErrGenerationDisabled is returned by Generate when no LLM provider
	// is configured.
	ErrGenerationDisabled = errors.New("quiz generation is not configured")
)

// InputError reports a missing or malformed request field.
type InputError struct {
	Field   string
	Message string
}

func (e *InputError) Error() string {
	return e.Field + ": " + e.Message
}

// Options configures New.
type Options struct {
	Quizzes store.QuizRepo

	// Cache holds parse results. Nil disables caching.
	Cache    cache.Cache
	CacheTTL time.Duration

	// Parser is the base parser configuration. The assessment parser adds
	// the assessment validator to it.
	Parser quizdoc.Config

	// Generator is optional; without it Generate returns ErrGenerationDisabled.
	Generator *quizgen.Generator

	Log *logger.Logger
}

// Importer imports quiz documents and generated quizzes into the store.
type Importer struct {
	quizzes  store.QuizRepo
	cache    cache.Cache
	cacheTTL time.Duration
	gen      *quizgen.Generator
	log      *logger.Logger

	generic    *quizdoc.Parser
	assessment *quizdoc.Parser

	// cache key scopes, one per parser configuration
	genericScope    string
	assessmentScope string
}

// New creates an Importer.
func New(opts Options) *Importer {
	if opts.Cache == nil {
		opts.Cache = cache.Nop{}
	}
	if opts.Log == nil {
		opts.Log = logger.Nop()
	}

	assessmentCfg := opts.Parser
	assessmentCfg.Validators = append(
		[]quizdoc.Validator{&quizdoc.StructuralValidator{}},
		&quizdoc.AssessmentValidator{Answers: quizdoc.AssessmentAnswerCount},
	)

	generic := quizdoc.NewParser(opts.Parser)
	assessment := quizdoc.NewParser(assessmentCfg)
	return &Importer{
		quizzes:         opts.Quizzes,
		cache:           opts.Cache,
		cacheTTL:        opts.CacheTTL,
		gen:             opts.Generator,
		log:             opts.Log.With("component", "importer"),
		generic:         generic,
		assessment:      assessment,
		genericScope:    CacheScope("generic", generic),
		assessmentScope: CacheScope("assessment", assessment),
	}
}

// CacheScope names the cache key space of a parser. Parsers with different
// configurations never share entries.
func CacheScope(mode string, p *quizdoc.Parser) string {
	return mode + "-" + p.Fingerprint()
}

// CanGenerate reports whether a generator is configured.
func (s *Importer) CanGenerate() bool {
	return s.gen != nil
}

// ImportInput is a human-authored quiz document for one piece of content.
type ImportInput struct {
	CourseID  string
	ContentID string
	Title     string
	Raw       string

	// CreatedBy is the authenticated subject, if any.
	CreatedBy string
}

// Import parses in.Raw and stores the result. It fails with ErrQuizExists
// when the content already has a quiz and with a *quizdoc.ParseFailure
// when nothing could be recovered.
func (s *Importer) Import(ctx context.Context, in ImportInput) (*store.Quiz, error) {
	if err := requireIDs(in.CourseID, in.ContentID); err != nil {
		return nil, err
	}
	if err := s.ensureAbsent(ctx, in.CourseID, in.ContentID); err != nil {
		return nil, err
	}

	res, err := s.parse(ctx, in.Raw, false)
	if err != nil {
		return nil, err
	}

	q := &store.Quiz{
		CourseID:  in.CourseID,
		ContentID: in.ContentID,
		Title:     in.Title,
		Source:    store.SourceDocument,
		Strategy:  string(res.Strategy),
		CreatedBy: in.CreatedBy,
		Questions: res.Questions,
	}
	if err := s.create(ctx, q); err != nil {
		return nil, err
	}

	s.log.Info("quiz imported",
		"quiz_id", q.ID,
		"course_id", q.CourseID,
		"content_id", q.ContentID,
		"created_by", q.CreatedBy,
		"questions", len(q.Questions),
		"strategy", res.Strategy,
		"candidates", res.Candidates,
		"dropped", res.Dropped,
	)
	return q, nil
}

// Preview parses raw without storing anything. assessment selects the
// stricter final-assessment filter.
func (s *Importer) Preview(ctx context.Context, raw string, assessment bool) (*quizdoc.Result, error) {
	return s.parse(ctx, raw, assessment)
}

// GenerateQuizInput asks the model for a quiz about Content.
type GenerateQuizInput struct {
	CourseID  string
	ContentID string
	Title     string
	Content   string
	Kind      quizgen.Kind
	CreatedBy string

	// Count overrides the per-kind default when positive.
	Count int
}

// Generate produces a quiz with the configured generator and stores it.
// Question texts of the course's existing quizzes are passed to the model
// so it does not repeat them.
func (s *Importer) Generate(ctx context.Context, in GenerateQuizInput) (*store.Quiz, error) {
	if s.gen == nil {
		return nil, ErrGenerationDisabled
	}
	if err := requireIDs(in.CourseID, in.ContentID); err != nil {
		return nil, err
	}
	if err := s.ensureAbsent(ctx, in.CourseID, in.ContentID); err != nil {
		return nil, err
	}

	prior, err := s.courseQuestions(ctx, in.CourseID)
	if err != nil {
		return nil, err
	}

	out, err := s.gen.Generate(ctx, quizgen.GenerateInput{
		Title:          in.Title,
		Content:        in.Content,
		Count:          in.Count,
		Kind:           in.Kind,
		PriorQuestions: prior,
	})
	if err != nil {
		return nil, err
	}

	q := &store.Quiz{
		CourseID:  in.CourseID,
		ContentID: in.ContentID,
		Title:     in.Title,
		Source:    store.SourceGenerated,
		Strategy:  string(out.Strategy),
		CreatedBy: in.CreatedBy,
		Questions: out.Questions,
	}
	if err := s.create(ctx, q); err != nil {
		return nil, err
	}

	s.log.Info("quiz generated",
		"quiz_id", q.ID,
		"course_id", q.CourseID,
		"content_id", q.ContentID,
		"kind", in.Kind,
		"requested", out.Requested,
		"questions", len(q.Questions),
		"strategy", out.Strategy,
		"candidates", out.Candidates,
		"dropped", out.Dropped,
		"truncated", out.Truncated,
	)
	return q, nil
}

// parse runs the selected parser through the cache. Cache failures are
// logged and otherwise ignored; parse failures are not cached.
func (s *Importer) parse(ctx context.Context, raw string, assessment bool) (*quizdoc.Result, error) {
	mode, scope, parser := "generic", s.genericScope, s.generic
	if assessment {
		mode, scope, parser = "assessment", s.assessmentScope, s.assessment
	}
	key := cache.Key(scope, raw)

	var cached quizdoc.Result
	hit, err := cache.GetJSON(ctx, s.cache, key, &cached)
	if err != nil {
		s.log.Warn("parse cache read failed", "error", err)
	}
	if hit && len(cached.Questions) > 0 {
		s.log.Debug("parse cache hit", "mode", mode, "strategy", cached.Strategy)
		return &cached, nil
	}

	res, err := parser.Parse(raw)
	if err != nil {
		var pf *quizdoc.ParseFailure
		if errors.As(err, &pf) {
			s.log.Info("quiz document rejected", "mode", mode, "reason", pf.Reason, "candidates", pf.Candidates)
		}
		return nil, err
	}

	if err := cache.SetJSON(ctx, s.cache, key, res, s.cacheTTL); err != nil {
		s.log.Warn("parse cache write failed", "error", err)
	}
	return res, nil
}

func (s *Importer) ensureAbsent(ctx context.Context, courseID, contentID string) error {
	exists, err := s.quizzes.Exists(ctx, courseID, contentID)
	if err != nil {
		return err
	}
	if exists {
		return ErrQuizExists
	}
	return nil
}

// create stores q, mapping a lost insert race to ErrQuizExists.
func (s *Importer) create(ctx context.Context, q *store.Quiz) error {
	err := s.quizzes.Create(ctx, q)
	if errors.Is(err, store.ErrQuizConflict) {
		return ErrQuizExists
	}
	if err != nil {
		return fmt.Errorf("store quiz: %w", err)
	}
	return nil
}

func (s *Importer) courseQuestions(ctx context.Context, courseID string) ([]string, error) {
	summaries, err := s.quizzes.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	var texts []string
	// Oldest first so the prompt's "most recent" window keeps the newest.
	for i := len(summaries) - 1; i >= 0; i-- {
		q, err := s.quizzes.Get(ctx, summaries[i].ID)
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		for _, question := range q.Questions {
			texts = append(texts, question.Text)
		}
	}
	return texts, nil
}

func requireIDs(courseID, contentID string) error {
	if strings.TrimSpace(courseID) == "" {
		return &InputError{Field: "course_id", Message: "is required"}
	}
	if strings.TrimSpace(contentID) == "" {
		return &InputError{Field: "content_id", Message: "is required"}
	}
	return nil
}
