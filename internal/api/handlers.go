package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/abhisek/quizdoc/internal/llm"
	"github.com/abhisek/quizdoc/internal/quizdoc"
	"github.com/abhisek/quizdoc/internal/quizgen"
	"github.com/abhisek/quizdoc/internal/service"
	"github.com/abhisek/quizdoc/internal/store"
)

type parseRequest struct {
	Raw        string `json:"raw"`
	Assessment bool   `json:"assessment"`
}

type parseResponse struct {
	Questions  []quizdoc.Question `json:"questions"`
	Strategy   quizdoc.Strategy   `json:"strategy"`
	Candidates int                `json:"candidates"`
	Dropped    int                `json:"dropped"`
}

type importRequest struct {
	ContentID string `json:"content_id"`
	Title     string `json:"title"`
	Raw       string `json:"raw"`
}

type generateRequest struct {
	ContentID string `json:"content_id"`
	Title     string `json:"title"`
	Content   string `json:"content"`
	Kind      string `json:"kind"`
	Count     int    `json:"count"`
}

type errResp struct {
	Error  string `json:"error"`
	Reason string `json:"reason,omitempty"`
}

func (s *server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":     "ok",
		"generation": s.importer.CanGenerate(),
	})
}

// POST /api/quizzes/parse {raw, assessment}
func (s *server) parse(w http.ResponseWriter, r *http.Request) {
	var req parseRequest
	if !s.decode(w, r, &req) {
		return
	}
	res, err := s.importer.Preview(r.Context(), req.Raw, req.Assessment)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, parseResponse{
		Questions:  res.Questions,
		Strategy:   res.Strategy,
		Candidates: res.Candidates,
		Dropped:    res.Dropped,
	})
}

// POST /api/courses/{courseID}/quizzes {content_id, title, raw}
func (s *server) importQuiz(w http.ResponseWriter, r *http.Request) {
	var req importRequest
	if !s.decode(w, r, &req) {
		return
	}
	q, err := s.importer.Import(r.Context(), service.ImportInput{
		CourseID:  chi.URLParam(r, "courseID"),
		ContentID: req.ContentID,
		Title:     req.Title,
		Raw:       req.Raw,
		CreatedBy: SubjectFrom(r.Context()),
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, q)
}

// POST /api/courses/{courseID}/quizzes/generate {content_id, title, content, kind, count}
func (s *server) generateQuiz(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if !s.decode(w, r, &req) {
		return
	}
	kind, err := quizgen.ParseKind(req.Kind)
	if err != nil {
		writeErr(w, http.StatusBadRequest, err.Error())
		return
	}
	q, err := s.importer.Generate(r.Context(), service.GenerateQuizInput{
		CourseID:  chi.URLParam(r, "courseID"),
		ContentID: req.ContentID,
		Title:     req.Title,
		Content:   req.Content,
		Kind:      kind,
		Count:     req.Count,
		CreatedBy: SubjectFrom(r.Context()),
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, q)
}

// GET /api/courses/{courseID}/quizzes
func (s *server) listQuizzes(w http.ResponseWriter, r *http.Request) {
	list, err := s.quizzes.ListByCourse(r.Context(), chi.URLParam(r, "courseID"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if list == nil {
		list = []store.QuizSummary{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"quizzes": list})
}

// GET /api/quizzes/{quizID}
func (s *server) getQuiz(w http.ResponseWriter, r *http.Request) {
	q, err := s.quizzes.Get(r.Context(), chi.URLParam(r, "quizID"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, q)
}

// DELETE /api/quizzes/{quizID}
func (s *server) deleteQuiz(w http.ResponseWriter, r *http.Request) {
	if err := s.quizzes.Delete(r.Context(), chi.URLParam(r, "quizID")); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// decode reads a JSON body into v, writing a 400 or 413 on failure.
func (s *server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxBody)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			writeErr(w, http.StatusRequestEntityTooLarge, "request body too large")
			return false
		}
		writeErr(w, http.StatusBadRequest, "bad json")
		return false
	}
	return true
}

// fail maps a service error to a status code.
func (s *server) fail(w http.ResponseWriter, r *http.Request, err error) {
	var (
		pf  *quizdoc.ParseFailure
		ie  *service.InputError
		rl  *llm.ErrRateLimit
		mte *llm.ErrMaxTokensExceeded
		ir  *llm.ErrInvalidResponse
		pu  *llm.ErrProviderUnavailable
	)
	switch {
	case errors.As(err, &ie):
		writeErr(w, http.StatusBadRequest, ie.Error())
	case errors.Is(err, quizgen.ErrEmptyContent):
		writeErr(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, quizgen.ErrNoQuestions):
		writeJSON(w, http.StatusBadGateway, errResp{Error: err.Error(), Reason: string(quizdoc.ReasonNoQuestions)})
	case errors.As(err, &pf):
		status := http.StatusUnprocessableEntity
		if pf.Reason == quizdoc.ReasonTooLarge {
			status = http.StatusRequestEntityTooLarge
		}
		writeJSON(w, status, errResp{Error: pf.Error(), Reason: string(pf.Reason)})
	case errors.Is(err, service.ErrQuizExists):
		writeErr(w, http.StatusConflict, err.Error())
	case errors.Is(err, store.ErrNotFound):
		writeErr(w, http.StatusNotFound, "not found")
	case errors.Is(err, service.ErrGenerationDisabled):
		writeErr(w, http.StatusServiceUnavailable, err.Error())
	case errors.As(err, &rl), errors.As(err, &mte), errors.As(err, &ir), errors.As(err, &pu):
		s.log.Warn("llm provider failed", "error", err, "request_id", requestID(r))
		writeErr(w, http.StatusBadGateway, "quiz generation failed upstream")
	case errors.Is(err, context.DeadlineExceeded):
		writeErr(w, http.StatusGatewayTimeout, "request timed out")
	default:
		s.log.Error("request failed", "error", err, "path", r.URL.Path, "request_id", requestID(r))
		writeErr(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errResp{Error: msg})
}
