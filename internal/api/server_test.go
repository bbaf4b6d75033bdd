package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/quizdoc/internal/llm"
	"github.com/abhisek/quizdoc/internal/quizdoc"
	"github.com/abhisek/quizdoc/internal/quizgen"
	"github.com/abhisek/quizdoc/internal/service"
	"github.com/abhisek/quizdoc/internal/store"
)

const sampleDoc = "1. What is 2+2?\na) 3\nb) 4 [correct]\nc) 5\n"

const generatedJSON = `[{"question_text": "Which keyword starts a goroutine?", "difficulty": "easy",
  "answers": [{"answer_text": "go", "is_correct": true}, {"answer_text": "async", "is_correct": false}]}]`

type testEnv struct {
	handler http.Handler
	quizzes store.QuizRepo
	mock    *llm.MockProvider
}

func newEnv(t *testing.T, withGen bool, auth *Auth) *testEnv {
	t.Helper()
	st, err := store.Open(context.Background(), store.Options{DSN: filepath.Join(t.TempDir(), "api.db")})
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	env := &testEnv{quizzes: st.QuizRepo()}
	opts := service.Options{Quizzes: env.quizzes, Parser: quizdoc.DefaultConfig()}
	if withGen {
		env.mock = llm.NewMockProvider()
		opts.Generator = quizgen.New(env.mock, quizgen.DefaultConfig(), nil)
	}
	env.handler = NewRouter(Options{
		Importer:     service.New(opts),
		Quizzes:      env.quizzes,
		Auth:         auth,
		MaxBodyBytes: 4096,
	})
	return env
}

func (e *testEnv) do(t *testing.T, method, path string, body any, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func TestHealth(t *testing.T) {
	env := newEnv(t, false, nil)
	rec := env.do(t, http.MethodGet, "/healthz", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	decodeBody(t, rec, &body)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, false, body["generation"])
}

func TestParse(t *testing.T) {
	env := newEnv(t, false, nil)

	rec := env.do(t, http.MethodPost, "/api/quizzes/parse", parseRequest{Raw: sampleDoc})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var res parseResponse
	decodeBody(t, rec, &res)
	require.Len(t, res.Questions, 1)
	assert.Equal(t, "What is 2+2?", res.Questions[0].Text)
	assert.Equal(t, quizdoc.StrategyLines, res.Strategy)
	assert.True(t, res.Questions[0].Answers[1].IsCorrect)
}

func TestParse_Failures(t *testing.T) {
	env := newEnv(t, false, nil)

	rec := env.do(t, http.MethodPost, "/api/quizzes/parse", parseRequest{Raw: "no questions here"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	var e errResp
	decodeBody(t, rec, &e)
	assert.Equal(t, string(quizdoc.ReasonNoQuestions), e.Reason)

	rec = env.do(t, http.MethodPost, "/api/quizzes/parse", parseRequest{Raw: "   "})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	decodeBody(t, rec, &e)
	assert.Equal(t, string(quizdoc.ReasonEmptyInput), e.Reason)

	rec = env.do(t, http.MethodPost, "/api/quizzes/parse", parseRequest{Raw: sampleDoc, Assessment: true})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code, "three answers fail the assessment filter")

	req := httptest.NewRequest(http.MethodPost, "/api/quizzes/parse", strings.NewReader("{not json"))
	bad := httptest.NewRecorder()
	env.handler.ServeHTTP(bad, req)
	assert.Equal(t, http.StatusBadRequest, bad.Code)

	rec = env.do(t, http.MethodPost, "/api/quizzes/parse", parseRequest{Raw: strings.Repeat("x", 5000)})
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestQuizLifecycle(t *testing.T) {
	env := newEnv(t, false, nil)

	rec := env.do(t, http.MethodPost, "/api/courses/c1/quizzes", importRequest{ContentID: "l1", Title: "Math", Raw: sampleDoc})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created store.Quiz
	decodeBody(t, rec, &created)
	assert.Equal(t, "c1", created.CourseID)
	assert.Equal(t, store.SourceDocument, created.Source)

	rec = env.do(t, http.MethodPost, "/api/courses/c1/quizzes", importRequest{ContentID: "l1", Raw: sampleDoc})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/courses/c1/quizzes", importRequest{Raw: sampleDoc})
	assert.Equal(t, http.StatusBadRequest, rec.Code, "content_id is required")

	rec = env.do(t, http.MethodGet, "/api/courses/c1/quizzes", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Quizzes []store.QuizSummary `json:"quizzes"`
	}
	decodeBody(t, rec, &list)
	require.Len(t, list.Quizzes, 1)
	assert.Equal(t, 1, list.Quizzes[0].QuestionCount)

	rec = env.do(t, http.MethodGet, "/api/quizzes/"+created.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var got store.Quiz
	decodeBody(t, rec, &got)
	require.Len(t, got.Questions, 1)
	assert.Equal(t, "4", got.Questions[0].Answers[1].Text)

	rec = env.do(t, http.MethodDelete, "/api/quizzes/"+created.ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/quizzes/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = env.do(t, http.MethodDelete, "/api/quizzes/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/courses/empty/quizzes", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"quizzes": []}`, rec.Body.String())
}

func TestGenerate(t *testing.T) {
	env := newEnv(t, true, nil)
	env.mock.AddResponse(llm.MockText(generatedJSON))

	rec := env.do(t, http.MethodPost, "/api/courses/c1/quizzes/generate", generateRequest{
		ContentID: "l2", Title: "Go", Content: "Goroutines start with the go keyword.", Kind: "lesson",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var q store.Quiz
	decodeBody(t, rec, &q)
	assert.Equal(t, store.SourceGenerated, q.Source)
	require.Len(t, q.Questions, 1)
	assert.Equal(t, "Which keyword starts a goroutine?", q.Questions[0].Text)
}

func TestGenerate_Errors(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		env := newEnv(t, false, nil)
		rec := env.do(t, http.MethodPost, "/api/courses/c1/quizzes/generate", generateRequest{ContentID: "x", Content: "t"})
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})

	t.Run("bad kind", func(t *testing.T) {
		env := newEnv(t, true, nil)
		rec := env.do(t, http.MethodPost, "/api/courses/c1/quizzes/generate", generateRequest{ContentID: "x", Content: "t", Kind: "exam"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("empty content", func(t *testing.T) {
		env := newEnv(t, true, nil)
		rec := env.do(t, http.MethodPost, "/api/courses/c1/quizzes/generate", generateRequest{ContentID: "x"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("provider down", func(t *testing.T) {
		env := newEnv(t, true, nil)
		env.mock.AddResponse(llm.MockResponse{Err: &llm.ErrProviderUnavailable{}})
		rec := env.do(t, http.MethodPost, "/api/courses/c1/quizzes/generate", generateRequest{ContentID: "x", Content: "t"})
		assert.Equal(t, http.StatusBadGateway, rec.Code)
	})

	t.Run("unusable output", func(t *testing.T) {
		env := newEnv(t, true, nil)
		env.mock.AddResponse(llm.MockText("Sorry, I can't do that."))
		rec := env.do(t, http.MethodPost, "/api/courses/c1/quizzes/generate", generateRequest{ContentID: "x", Content: "t"})
		assert.Equal(t, http.StatusBadGateway, rec.Code)
	})
}

func TestAuth(t *testing.T) {
	auth := NewAuth("test-secret")
	env := newEnv(t, false, auth)

	rec := env.do(t, http.MethodPost, "/api/quizzes/parse", parseRequest{Raw: sampleDoc})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/quizzes/parse", parseRequest{Raw: sampleDoc}, "Authorization", "Bearer nope")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	other, err := NewAuth("other-secret").Issue("u1", "teacher", time.Hour)
	require.NoError(t, err)
	rec = env.do(t, http.MethodPost, "/api/quizzes/parse", parseRequest{Raw: sampleDoc}, "Authorization", "Bearer "+other)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	expired, err := auth.Issue("u1", "teacher", -time.Minute)
	require.NoError(t, err)
	rec = env.do(t, http.MethodPost, "/api/quizzes/parse", parseRequest{Raw: sampleDoc}, "Authorization", "Bearer "+expired)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	tok, err := auth.Issue("u1", "teacher", time.Hour)
	require.NoError(t, err)
	rec = env.do(t, http.MethodPost, "/api/quizzes/parse", parseRequest{Raw: sampleDoc}, "Authorization", "Bearer "+tok)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code, "health check stays public")
}

func TestAuth_RecordsCreator(t *testing.T) {
	auth := NewAuth("test-secret")
	env := newEnv(t, true, auth)
	env.mock.AddResponse(llm.MockText(generatedJSON))

	tok, err := auth.Issue("teacher-7", "teacher", time.Hour)
	require.NoError(t, err)
	bearer := "Bearer " + tok

	rec := env.do(t, http.MethodPost, "/api/courses/c1/quizzes", importRequest{ContentID: "l1", Raw: sampleDoc}, "Authorization", bearer)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var imported store.Quiz
	decodeBody(t, rec, &imported)
	assert.Equal(t, "teacher-7", imported.CreatedBy)

	rec = env.do(t, http.MethodPost, "/api/courses/c1/quizzes/generate",
		generateRequest{ContentID: "l2", Content: "Goroutines are cheap.", Kind: "lesson"}, "Authorization", bearer)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var generated store.Quiz
	decodeBody(t, rec, &generated)
	assert.Equal(t, "teacher-7", generated.CreatedBy)

	rec = env.do(t, http.MethodGet, "/api/quizzes/"+imported.ID, nil, "Authorization", bearer)
	require.Equal(t, http.StatusOK, rec.Code)
	var got store.Quiz
	decodeBody(t, rec, &got)
	assert.Equal(t, "teacher-7", got.CreatedBy)
}

func TestAuth_ParseClaims(t *testing.T) {
	auth := NewAuth("s")
	tok, err := auth.Issue("teacher-7", "teacher", time.Hour)
	require.NoError(t, err)

	claims, err := auth.Parse(tok)
	require.NoError(t, err)
	assert.Equal(t, "teacher-7", claims.Sub)
	assert.Equal(t, "teacher", claims.Role)
	assert.Equal(t, "quizdoc", claims.Issuer)
}
