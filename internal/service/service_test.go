package service

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/quizdoc/internal/cache"
	"github.com/abhisek/quizdoc/internal/llm"
	"github.com/abhisek/quizdoc/internal/quizdoc"
	"github.com/abhisek/quizdoc/internal/quizgen"
	"github.com/abhisek/quizdoc/internal/store"
)

const sampleDoc = `1. What is the capital of France?
a) Berlin
b) Paris [correct]
Explanation: Paris has been the capital since 987.
c) Madrid

2. Which planet is closest to the sun?
a) Mercury (correct)
b) Venus
`

const generatedJSON = `[
  {"question_text": "What is a goroutine?", "question_type": "single_choice", "difficulty": "easy",
   "answers": [
     {"answer_text": "A lightweight thread", "is_correct": true, "explanation": "Managed by the runtime."},
     {"answer_text": "A package", "is_correct": false, "explanation": "No."}
   ]}
]`

func openStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(context.Background(), store.Options{
		Driver: store.DriverSQLite,
		DSN:    filepath.Join(t.TempDir(), "quizdoc.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func newImporter(t *testing.T, c cache.Cache, gen *quizgen.Generator) (*Importer, store.QuizRepo) {
	t.Helper()
	repo := openStore(t).QuizRepo()
	return New(Options{
		Quizzes:   repo,
		Cache:     c,
		CacheTTL:  time.Minute,
		Parser:    quizdoc.DefaultConfig(),
		Generator: gen,
	}), repo
}

func TestImport(t *testing.T) {
	ctx := context.Background()
	imp, repo := newImporter(t, nil, nil)

	q, err := imp.Import(ctx, ImportInput{CourseID: "c1", ContentID: "lesson-1", Title: "Basics", Raw: sampleDoc})
	require.NoError(t, err)
	assert.NotEmpty(t, q.ID)
	assert.Equal(t, store.SourceDocument, q.Source)
	assert.Equal(t, string(quizdoc.StrategyLines), q.Strategy)
	require.Len(t, q.Questions, 2)

	got, err := repo.Get(ctx, q.ID)
	require.NoError(t, err)
	require.Len(t, got.Questions, 2)
	assert.Equal(t, "What is the capital of France?", got.Questions[0].Text)
	assert.True(t, got.Questions[0].Answers[1].IsCorrect)
	assert.Equal(t, "Paris has been the capital since 987.", got.Questions[0].Answers[1].Explanation)
	assert.Equal(t, "Which planet is closest to the sun?", got.Questions[1].Text)
}

func TestImport_Exists(t *testing.T) {
	ctx := context.Background()
	imp, _ := newImporter(t, nil, nil)

	in := ImportInput{CourseID: "c1", ContentID: "lesson-1", Raw: sampleDoc}
	_, err := imp.Import(ctx, in)
	require.NoError(t, err)

	_, err = imp.Import(ctx, in)
	assert.ErrorIs(t, err, ErrQuizExists)
}

func TestImport_ParseFailure(t *testing.T) {
	imp, repo := newImporter(t, nil, nil)

	_, err := imp.Import(context.Background(), ImportInput{CourseID: "c1", ContentID: "x", Raw: "just some prose"})
	require.Error(t, err)
	assert.ErrorIs(t, err, quizdoc.ErrParseFailure)

	exists, err := repo.Exists(context.Background(), "c1", "x")
	require.NoError(t, err)
	assert.False(t, exists, "nothing is stored on failure")
}

func TestImport_RequiresIDs(t *testing.T) {
	imp, _ := newImporter(t, nil, nil)

	_, err := imp.Import(context.Background(), ImportInput{ContentID: "x", Raw: sampleDoc})
	var ie *InputError
	require.True(t, errors.As(err, &ie))
	assert.Equal(t, "course_id", ie.Field)

	_, err = imp.Import(context.Background(), ImportInput{CourseID: "c", Raw: sampleDoc})
	require.True(t, errors.As(err, &ie))
	assert.Equal(t, "content_id", ie.Field)
}

// countingCache counts calls and can fail on demand.
type countingCache struct {
	cache.Cache
	gets, sets int
	fail       bool
}

func (c *countingCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	c.gets++
	if c.fail {
		return nil, false, errors.New("cache down")
	}
	return c.Cache.Get(ctx, key)
}

func (c *countingCache) Set(ctx context.Context, key string, val []byte, ttl time.Duration) error {
	c.sets++
	if c.fail {
		return errors.New("cache down")
	}
	return c.Cache.Set(ctx, key, val, ttl)
}

func TestPreview_UsesCache(t *testing.T) {
	ctx := context.Background()
	mem := cache.NewMemory(8, 0)
	cc := &countingCache{Cache: mem}
	imp, _ := newImporter(t, cc, nil)

	first, err := imp.Preview(ctx, sampleDoc, false)
	require.NoError(t, err)
	assert.Equal(t, 1, cc.sets)

	second, err := imp.Preview(ctx, sampleDoc, false)
	require.NoError(t, err)
	assert.Equal(t, 1, cc.sets, "hit must not write again")
	assert.Equal(t, first, second)

	_, ok, err := mem.Get(ctx, cache.Key(CacheScope("generic", quizdoc.NewParser(quizdoc.DefaultConfig())), sampleDoc))
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestPreview_CacheScopedByParserConfig(t *testing.T) {
	ctx := context.Background()
	mem := cache.NewMemory(8, 0)
	unmarked := "1. Which one?\na) x\nb) y\n"

	repairing, _ := newImporter(t, mem, nil)
	res, err := repairing.Preview(ctx, unmarked, false)
	require.NoError(t, err)
	require.Len(t, res.Questions, 1)
	assert.True(t, res.Questions[0].Answers[0].IsCorrect)

	strictCfg := quizdoc.DefaultConfig()
	strictCfg.RepairMissingCorrect = false
	strict := New(Options{Quizzes: openStore(t).QuizRepo(), Cache: mem, Parser: strictCfg})

	_, err = strict.Preview(ctx, unmarked, false)
	assert.ErrorIs(t, err, quizdoc.ErrParseFailure, "must not reuse the repairing parser's entry")
}

func TestPreview_AssessmentMode(t *testing.T) {
	imp, _ := newImporter(t, nil, nil)

	_, err := imp.Preview(context.Background(), sampleDoc, true)
	assert.ErrorIs(t, err, quizdoc.ErrParseFailure, "no question has exactly four answers")

	four := sampleDoc + "\n3. Pick one\na) w [correct]\nb) x\nc) y\nd) z\n"
	res, err := imp.Preview(context.Background(), four, true)
	require.NoError(t, err)
	require.Len(t, res.Questions, 1)
	assert.Equal(t, "Pick one", res.Questions[0].Text)
}

func TestPreview_CacheFailureDoesNotFailParse(t *testing.T) {
	cc := &countingCache{Cache: cache.NewMemory(8, 0), fail: true}
	imp, _ := newImporter(t, cc, nil)

	res, err := imp.Preview(context.Background(), sampleDoc, false)
	require.NoError(t, err)
	assert.Len(t, res.Questions, 2)
	assert.Equal(t, 1, cc.gets)
	assert.Equal(t, 1, cc.sets)
}

func TestGenerate(t *testing.T) {
	ctx := context.Background()
	mock := llm.NewMockProvider(llm.MockText("```json\n" + generatedJSON + "\n```"))
	imp, repo := newImporter(t, nil, quizgen.New(mock, quizgen.DefaultConfig(), nil))
	require.True(t, imp.CanGenerate())

	q, err := imp.Generate(ctx, GenerateQuizInput{
		CourseID:  "c1",
		ContentID: "lesson-2",
		Title:     "Concurrency",
		Content:   "Goroutines are lightweight threads managed by the Go runtime.",
		Kind:      quizgen.KindLesson,
	})
	require.NoError(t, err)
	assert.Equal(t, store.SourceGenerated, q.Source)
	assert.Equal(t, string(quizdoc.StrategyFenced), q.Strategy)

	got, err := repo.Get(ctx, q.ID)
	require.NoError(t, err)
	require.Len(t, got.Questions, 1)
	assert.Equal(t, "What is a goroutine?", got.Questions[0].Text)
	assert.Equal(t, quizdoc.DifficultyEasy, got.Questions[0].Difficulty)
}

func TestGenerate_PassesPriorQuestions(t *testing.T) {
	ctx := context.Background()
	mock := llm.NewMockProvider(llm.MockText(generatedJSON))
	imp, _ := newImporter(t, nil, quizgen.New(mock, quizgen.DefaultConfig(), nil))

	_, err := imp.Import(ctx, ImportInput{CourseID: "c1", ContentID: "lesson-1", Raw: sampleDoc})
	require.NoError(t, err)

	_, err = imp.Generate(ctx, GenerateQuizInput{CourseID: "c1", ContentID: "lesson-2", Content: "text"})
	require.NoError(t, err)

	req, ok := mock.LastCall()
	require.True(t, ok)
	assert.True(t, strings.Contains(req.Messages[0].Content, "What is the capital of France?"))
}

func TestGenerate_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("disabled", func(t *testing.T) {
		imp, _ := newImporter(t, nil, nil)
		_, err := imp.Generate(ctx, GenerateQuizInput{CourseID: "c", ContentID: "x", Content: "t"})
		assert.ErrorIs(t, err, ErrGenerationDisabled)
	})

	t.Run("exists", func(t *testing.T) {
		mock := llm.NewMockProvider()
		imp, _ := newImporter(t, nil, quizgen.New(mock, quizgen.DefaultConfig(), nil))
		_, err := imp.Import(ctx, ImportInput{CourseID: "c", ContentID: "x", Raw: sampleDoc})
		require.NoError(t, err)

		_, err = imp.Generate(ctx, GenerateQuizInput{CourseID: "c", ContentID: "x", Content: "t"})
		assert.ErrorIs(t, err, ErrQuizExists)
		assert.Equal(t, 0, mock.CallCount(), "no model call for existing content")
	})

	t.Run("provider failure", func(t *testing.T) {
		mock := llm.NewMockProvider(llm.MockResponse{Err: &llm.ErrProviderUnavailable{}})
		imp, repo := newImporter(t, nil, quizgen.New(mock, quizgen.DefaultConfig(), nil))
		_, err := imp.Generate(ctx, GenerateQuizInput{CourseID: "c", ContentID: "x", Content: "t"})
		var pu *llm.ErrProviderUnavailable
		assert.True(t, errors.As(err, &pu))

		exists, err := repo.Exists(ctx, "c", "x")
		require.NoError(t, err)
		assert.False(t, exists)
	})
}
