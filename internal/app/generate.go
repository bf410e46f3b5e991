package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"docquiz-service/internal/ai"
	"docquiz-service/internal/domain"
	"docquiz-service/internal/ident"
	"docquiz-service/internal/retry"
)

// Stages reported while a generation run progresses.
const (
	StageDocumentReady     = "document_ready"
	StageQuizCreated       = "quiz_created"
	StageGenerationStarted = "generation_started"
	StageQuestionPersisted = "question_persisted"
	StageCompleted         = "completed"
	StageFailed            = "failed"
)

// Progress is one step of a generation run, streamed to interested callers.
type Progress struct {
	Stage   string `json:"stage"`
	Detail  string `json:"detail,omitempty"`
	Current int    `json:"current,omitempty"`
	Total   int    `json:"total,omitempty"`
}

// ProgressFunc receives progress events during generation. May be nil.
type ProgressFunc func(Progress)

// GenerateRequest describes one quiz generation run. Either DocumentID
// names an already-ingested document, or File plus FileMeta carry an
// inline upload that is ingested first.
type GenerateRequest struct {
	DocumentID    string
	File          []byte
	FileMeta      IngestMeta
	Title         string
	QuestionCount int
	Difficulty    string
	OwnerID       string
	OnProgress    ProgressFunc
}

// GenerationService orchestrates document resolution, AI question
// generation, and quiz persistence.
type GenerationService struct {
	records   RecordStore
	mirror    *Mirror
	generator QuestionGenerator
	retrier   *retry.Retrier
	ingest    *IngestService
	log       logrus.FieldLogger
	now       func() time.Time
}

func NewGenerationService(records RecordStore, mirror *Mirror, generator QuestionGenerator, retrier *retry.Retrier, ingest *IngestService, log logrus.FieldLogger) *GenerationService {
	return NewGenerationServiceWithClock(records, mirror, generator, retrier, ingest, log, time.Now)
}

// NewGenerationServiceWithClock is used by tests to control timestamps.
func NewGenerationServiceWithClock(records RecordStore, mirror *Mirror, generator QuestionGenerator, retrier *retry.Retrier, ingest *IngestService, log logrus.FieldLogger, now func() time.Time) *GenerationService {
	return &GenerationService{
		records:   records,
		mirror:    mirror,
		generator: generator,
		retrier:   retrier,
		ingest:    ingest,
		log:       log,
		now:       now,
	}
}

// Generate runs one generation end to end. Failures before a quiz record
// exists are returned as errors. Failures after that point produce a quiz
// with status error instead, so the caller always has something to show.
func (s *GenerationService) Generate(ctx context.Context, req GenerateRequest) (domain.Quiz, error) {
	emit := req.OnProgress
	if emit == nil {
		emit = func(Progress) {}
	}

	doc, err := s.resolveDocument(ctx, req)
	if err != nil {
		return domain.Quiz{}, err
	}
	emit(Progress{Stage: StageDocumentReady, Detail: doc.ID})

	quiz := domain.Quiz{
		ID:         uuid.NewString(),
		Title:      quizTitle(req.Title, doc),
		DocumentID: doc.ID,
		Status:     domain.QuizInProgress,
		CreatedAt:  s.now().UTC(),
		OwnerID:    firstNonEmpty(req.OwnerID, doc.OwnerID),
	}
	if err := s.records.Insert(ctx, collectionQuizzes, quiz.ID, quiz); err != nil {
		s.log.WithError(err).WithField("quiz_id", quiz.ID).Warn("Quiz record creation failed, continuing offline")
	}
	emit(Progress{Stage: StageQuizCreated, Detail: quiz.ID})

	source := strings.TrimSpace(doc.SourceText)
	if source == "" {
		return s.finishError(ctx, quiz, "document has no extractable text", emit), nil
	}

	emit(Progress{Stage: StageGenerationStarted})
	candidates, err := s.callGenerator(ctx, source, req)
	if err != nil {
		s.log.WithError(err).WithField("quiz_id", quiz.ID).Warn("Question generation failed")
		return s.finishError(ctx, quiz, failureReason(err), emit), nil
	}
	if len(candidates) == 0 {
		return s.finishError(ctx, quiz, "model returned no usable questions", emit), nil
	}

	questions := make([]domain.Question, 0, len(candidates))
	for i, cand := range candidates {
		q := candidateToQuestion(quiz.ID, req.Difficulty, cand)
		s.persistQuestion(ctx, quiz.ID, i, q)
		questions = append(questions, q)
		emit(Progress{Stage: StageQuestionPersisted, Current: i + 1, Total: len(candidates)})
	}

	quiz.Status = domain.QuizCompleted
	quiz.QuestionCount = len(questions)
	quiz.Questions = questions
	if err := s.records.Update(ctx, collectionQuizzes, quiz.ID, map[string]any{
		"status":         string(domain.QuizCompleted),
		"question_count": quiz.QuestionCount,
	}); err != nil {
		s.log.WithError(err).WithField("quiz_id", quiz.ID).Warn("Quiz status update failed")
	}
	if out := s.mirror.PutQuiz(ctx, quiz); !out.OK() {
		s.log.WithField("key", out.Key).WithError(out.Err).Warn("Cache mirror write failed")
	}
	emit(Progress{Stage: StageCompleted, Detail: quiz.ID})

	s.log.WithFields(logrus.Fields{
		"quiz_id":   quiz.ID,
		"questions": quiz.QuestionCount,
	}).Info("Quiz generated")
	return quiz, nil
}

// resolveDocument loads the referenced document, falling back to the cache
// when the remote tier errors, or ingests the inline file.
func (s *GenerationService) resolveDocument(ctx context.Context, req GenerateRequest) (domain.Document, error) {
	original := strings.TrimSpace(req.DocumentID)
	if original == "" {
		if len(req.File) == 0 {
			return domain.Document{}, domain.Validationf("either a document id or file content is required")
		}
		return s.ingest.Ingest(ctx, req.File, req.FileMeta)
	}
	id := ident.Normalize(original)
	if !ident.IsCanonical(id) {
		s.log.WithField("id", original).Warn("Identifier did not normalize to a canonical UUID")
	}

	var doc domain.Document
	err := s.records.Get(ctx, collectionDocuments, id, &doc)
	if err == nil {
		return doc, nil
	}
	if errors.Is(err, domain.ErrNotFound) {
		return domain.Document{}, fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
	}
	lookups := []string{id}
	if original != id {
		lookups = append(lookups, original)
	}
	for _, candidate := range lookups {
		if cached, ok := s.mirror.GetDocument(ctx, candidate); ok {
			s.log.WithError(err).WithField("document_id", candidate).Warn("Remote document fetch failed, using cached copy")
			return cached, nil
		}
	}
	return domain.Document{}, fmt.Errorf("load document %s: %w", id, err)
}

func (s *GenerationService) callGenerator(ctx context.Context, source string, req GenerateRequest) ([]ai.Candidate, error) {
	opts := ai.GenerateOptions{Count: req.QuestionCount, Difficulty: req.Difficulty}
	var candidates []ai.Candidate
	err := s.retrier.Do(ctx, "generate questions", func(ctx context.Context) error {
		var genErr error
		candidates, genErr = s.generator.Generate(ctx, source, opts)
		return genErr
	})
	return candidates, err
}

// finishError marks the quiz failed everywhere it is visible and returns
// it. The caller treats this as a success with error payload, not an error.
func (s *GenerationService) finishError(ctx context.Context, quiz domain.Quiz, reason string, emit ProgressFunc) domain.Quiz {
	quiz.Status = domain.QuizError
	quiz.ErrorMsg = reason
	quiz.QuestionCount = 0
	quiz.Questions = nil
	if err := s.records.Update(ctx, collectionQuizzes, quiz.ID, map[string]any{
		"status":        string(domain.QuizError),
		"error_message": reason,
	}); err != nil {
		s.log.WithError(err).WithField("quiz_id", quiz.ID).Warn("Quiz status update failed")
	}
	if out := s.mirror.PutQuiz(ctx, quiz); !out.OK() {
		s.log.WithField("key", out.Key).WithError(out.Err).Warn("Cache mirror write failed")
	}
	emit(Progress{Stage: StageFailed, Detail: reason})
	return quiz
}

// persistQuestion writes the question, its options, and the quiz link.
// Remote failures are logged and absorbed: the in-memory aggregate is
// still cached and returned.
func (s *GenerationService) persistQuestion(ctx context.Context, quizID string, position int, q domain.Question) {
	rec := questionRecord{
		ID:          q.ID,
		QuizID:      q.QuizID,
		Text:        q.Text,
		Explanation: q.Explanation,
		Difficulty:  q.Difficulty,
	}
	if err := s.records.Insert(ctx, collectionQuestions, q.ID, rec); err != nil {
		s.log.WithError(err).WithField("question_id", q.ID).Warn("Question record creation failed")
	}
	for _, opt := range q.Options {
		if err := s.records.Insert(ctx, collectionOptions, opt.ID, opt); err != nil {
			s.log.WithError(err).WithField("option_id", opt.ID).Warn("Option record creation failed")
		}
	}
	link := quizQuestionLink{
		ID:         uuid.NewString(),
		QuizID:     quizID,
		QuestionID: q.ID,
		Position:   position,
	}
	if err := s.records.Insert(ctx, collectionQuizQuestions, link.ID, link); err != nil {
		s.log.WithError(err).WithField("question_id", q.ID).Warn("Quiz question link creation failed")
	}
}

func candidateToQuestion(quizID, difficulty string, cand ai.Candidate) domain.Question {
	q := domain.Question{
		ID:          uuid.NewString(),
		QuizID:      quizID,
		Text:        cand.Text,
		Explanation: cand.Explanation,
		Difficulty:  difficulty,
		Options:     make([]domain.Option, 0, len(cand.Options)),
	}
	for _, opt := range cand.Options {
		q.Options = append(q.Options, domain.Option{
			ID:         uuid.NewString(),
			QuestionID: q.ID,
			Identifier: opt.ID,
			Text:       opt.Text,
			IsCorrect:  opt.ID == cand.CorrectOptionID,
		})
	}
	return q
}

// failureReason reduces a generation error to something presentable on the
// fallback quiz. The raw error stays in the logs.
func failureReason(err error) string {
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		return "generation rejected: " + verr.Reason
	}
	if domain.IsRetryable(err) {
		return "the question service is unavailable right now"
	}
	return "question generation failed"
}

func quizTitle(requested string, doc domain.Document) string {
	if t := strings.TrimSpace(requested); t != "" {
		return t
	}
	if doc.Title != "" {
		return "Quiz: " + doc.Title
	}
	return "Generated Quiz"
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
