// Package http exposes the quiz service over REST and websockets.
package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"docquiz-service/internal/app"
	"docquiz-service/internal/domain"
)

// Server bundles the use-case services behind the HTTP API.
type Server struct {
	ingest       *app.IngestService
	generation   *app.GenerationService
	quizzes      *app.QuizService
	blobs        app.BlobStore
	ws           *WSHandler
	defaultOwner string
	log          logrus.FieldLogger
}

func NewServer(ingest *app.IngestService, generation *app.GenerationService, quizzes *app.QuizService, blobs app.BlobStore, defaultOwner string, log logrus.FieldLogger) *Server {
	s := &Server{
		ingest:       ingest,
		generation:   generation,
		quizzes:      quizzes,
		blobs:        blobs,
		defaultOwner: defaultOwner,
		log:          log,
	}
	s.ws = NewWSHandler(generation, defaultOwner, log)
	return s
}

// Router assembles the chi routing table with the standard middleware
// stack.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.log))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Get("/ws/generation", s.ws.ServeWS)

	r.Route("/api", func(r chi.Router) {
		r.Post("/documents", s.handleIngest)
		r.Get("/documents", s.handleDocumentHistory)
		r.Post("/quizzes", s.handleGenerate)
		r.Get("/quizzes", s.handleQuizHistory)
		r.Get("/quizzes/{quizID}", s.handleGetQuiz)
		r.Post("/quizzes/{quizID}/submission", s.handleSubmit)
		r.Get("/quizzes/{quizID}/submission", s.handleGetResult)
	})

	return r
}

// ownerID resolves the acting user from the X-User-ID header, falling back
// to the configured default.
func (s *Server) ownerID(r *http.Request) string {
	if owner := r.Header.Get("X-User-ID"); owner != "" {
		return owner
	}
	return s.defaultOwner
}

type errorResponse struct {
	Error string `json:"error"`
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// respondError maps the domain taxonomy onto HTTP statuses.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	var verr *domain.ValidationError
	var terr *domain.TransportError
	var perr *domain.PersistenceError
	switch {
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.As(err, &verr):
		status = http.StatusBadRequest
	case errors.As(err, &terr), errors.As(err, &perr):
		status = http.StatusBadGateway
	}
	if status >= http.StatusInternalServerError {
		s.log.WithError(err).WithField("path", r.URL.Path).Error("Request failed")
	}
	respondJSON(w, status, errorResponse{Error: err.Error()})
}

func requestLogger(log logrus.FieldLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			log.WithFields(logrus.Fields{
				"method":     r.Method,
				"path":       r.URL.Path,
				"status":     ww.Status(),
				"duration":   time.Since(start).String(),
				"request_id": middleware.GetReqID(r.Context()),
			}).Info("Request handled")
		})
	}
}
