package http

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"docquiz-service/internal/app"
	"docquiz-service/internal/domain"
)

const maxUploadBytes = 32 << 20

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// documentResponse decorates the record with the public download URL when
// the blob tier exposes one.
type documentResponse struct {
	domain.Document
	FileURL string `json:"file_url,omitempty"`
}

func (s *Server) decorateDocument(doc domain.Document) documentResponse {
	resp := documentResponse{Document: doc}
	if bucket, key, ok := strings.Cut(doc.StoragePath, "/"); ok {
		resp.FileURL = s.blobs.PublicURL(bucket, key)
	}
	return resp
}

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		s.respondError(w, r, domain.Validationf("invalid multipart form: %v", err))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		s.respondError(w, r, domain.Validationf("missing file field"))
		return
	}
	defer file.Close()
	content, err := io.ReadAll(file)
	if err != nil {
		s.respondError(w, r, domain.Validationf("read upload: %v", err))
		return
	}

	doc, err := s.ingest.Ingest(r.Context(), content, app.IngestMeta{
		Title:      r.FormValue("title"),
		FileName:   header.Filename,
		MimeType:   header.Header.Get("Content-Type"),
		SourceText: r.FormValue("text"),
		OwnerID:    s.ownerID(r),
	})
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, s.decorateDocument(doc))
}

func (s *Server) handleDocumentHistory(w http.ResponseWriter, r *http.Request) {
	page, limit := pageParams(r)
	docs, err := s.ingest.History(r.Context(), s.ownerID(r), page, limit)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, docs)
}

type generatePayload struct {
	DocumentID    string `json:"document_id"`
	Title         string `json:"title"`
	QuestionCount int    `json:"question_count"`
	Difficulty    string `json:"difficulty"`
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var payload generatePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		s.respondError(w, r, domain.Validationf("invalid request body: %v", err))
		return
	}
	quiz, err := s.generation.Generate(r.Context(), app.GenerateRequest{
		DocumentID:    payload.DocumentID,
		Title:         payload.Title,
		QuestionCount: payload.QuestionCount,
		Difficulty:    payload.Difficulty,
		OwnerID:       s.ownerID(r),
	})
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, quiz)
}

func (s *Server) handleGetQuiz(w http.ResponseWriter, r *http.Request) {
	quiz, err := s.quizzes.Get(r.Context(), chi.URLParam(r, "quizID"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, quiz)
}

func (s *Server) handleQuizHistory(w http.ResponseWriter, r *http.Request) {
	page, limit := pageParams(r)
	quizzes, err := s.quizzes.History(r.Context(), s.ownerID(r), page, limit)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, quizzes)
}

type submitPayload struct {
	Answers map[string]string `json:"answers"`
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var payload submitPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		s.respondError(w, r, domain.Validationf("invalid request body: %v", err))
		return
	}
	result, err := s.quizzes.Submit(r.Context(), chi.URLParam(r, "quizID"), s.ownerID(r), payload.Answers)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleGetResult(w http.ResponseWriter, r *http.Request) {
	result, err := s.quizzes.Result(r.Context(), chi.URLParam(r, "quizID"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

func pageParams(r *http.Request) (page, limit int) {
	page, _ = strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))
	return page, limit
}
