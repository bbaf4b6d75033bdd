// Package api exposes quiz parsing, import and generation over HTTP.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/abhisek/quizdoc/internal/logger"
	"github.com/abhisek/quizdoc/internal/service"
	"github.com/abhisek/quizdoc/internal/store"
)

// Options configures NewRouter.
type Options struct {
	Importer *service.Importer
	Quizzes  store.QuizRepo

	// Auth enables bearer-token checks on /api routes when non-nil.
	Auth *Auth

	CORSOrigins []string

	// RequestTimeout bounds each request. Zero means 60s.
	RequestTimeout time.Duration

	// MaxBodyBytes bounds request bodies. Zero means 2 MiB.
	MaxBodyBytes int64

	Log *logger.Logger
}

type server struct {
	importer *service.Importer
	quizzes  store.QuizRepo
	maxBody  int64
	log      *logger.Logger
}

// NewRouter builds the HTTP handler.
func NewRouter(opts Options) http.Handler {
	if opts.Log == nil {
		opts.Log = logger.Nop()
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 60 * time.Second
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = 2 << 20
	}
	s := &server{
		importer: opts.Importer,
		quizzes:  opts.Quizzes,
		maxBody:  opts.MaxBodyBytes,
		log:      opts.Log.With("component", "api"),
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, requestLogger(s.log), middleware.Recoverer)
	r.Use(middleware.Timeout(opts.RequestTimeout))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/healthz", s.health)

	r.Route("/api", func(ar chi.Router) {
		if opts.Auth != nil {
			ar.Use(opts.Auth.Middleware)
		}
		ar.Post("/quizzes/parse", s.parse)
		ar.Get("/quizzes/{quizID}", s.getQuiz)
		ar.Delete("/quizzes/{quizID}", s.deleteQuiz)

		ar.Route("/courses/{courseID}/quizzes", func(cr chi.Router) {
			cr.Get("/", s.listQuizzes)
			cr.Post("/", s.importQuiz)
			cr.Post("/generate", s.generateQuiz)
		})
	})

	return r
}

// requestLogger logs one line per request through the structured logger.
func requestLogger(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				log.Info("http request",
					"method", r.Method,
					"path", r.URL.Path,
					"status", ww.Status(),
					"bytes", ww.BytesWritten(),
					"duration_ms", time.Since(start).Milliseconds(),
					"request_id", middleware.GetReqID(r.Context()),
				)
			}()
			next.ServeHTTP(ww, r)
		})
	}
}

func requestID(r *http.Request) string {
	return middleware.GetReqID(r.Context())
}
