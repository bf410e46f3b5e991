package app

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"docquiz-service/internal/domain"
	"docquiz-service/internal/ident"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
)

// QuizService answers quiz reads and submissions against the dual-tier
// store: remote first, local cache whenever the remote is unreachable.
type QuizService struct {
	records RecordStore
	mirror  *Mirror
	log     logrus.FieldLogger
	now     func() time.Time

	group singleflight.Group
}

func NewQuizService(records RecordStore, mirror *Mirror, log logrus.FieldLogger) *QuizService {
	return NewQuizServiceWithClock(records, mirror, log, time.Now)
}

// NewQuizServiceWithClock is used by tests to control timestamps.
func NewQuizServiceWithClock(records RecordStore, mirror *Mirror, log logrus.FieldLogger, now func() time.Time) *QuizService {
	return &QuizService{
		records: records,
		mirror:  mirror,
		log:     log,
		now:     now,
	}
}

// Get returns the full quiz aggregate. Concurrent requests for the same
// quiz share one remote fetch.
func (s *QuizService) Get(ctx context.Context, id string) (domain.Quiz, error) {
	original := strings.TrimSpace(id)
	if original == "" {
		return domain.Quiz{}, domain.Validationf("quiz id is required")
	}
	normalized := s.normalizeID(original)

	v, err, _ := s.group.Do("quiz:"+normalized, func() (any, error) {
		return s.load(ctx, normalized, original)
	})
	if err != nil {
		return domain.Quiz{}, err
	}
	return v.(domain.Quiz), nil
}

// Submit scores the caller's answers against the quiz and records the
// result. Scoring never depends on persistence succeeding.
func (s *QuizService) Submit(ctx context.Context, id, ownerID string, answers map[string]string) (domain.Result, error) {
	original := strings.TrimSpace(id)
	if original == "" {
		return domain.Result{}, domain.Validationf("quiz id is required")
	}
	normalized := s.normalizeID(original)

	quiz, err := s.load(ctx, normalized, original)
	if err != nil {
		return domain.Result{}, err
	}

	correct := 0
	for _, q := range quiz.Questions {
		picked, ok := answers[q.ID]
		if !ok {
			continue
		}
		if co, ok := q.CorrectOption(); ok && optionMatches(co, picked) {
			correct++
		}
	}
	total := len(quiz.Questions)
	score := 0.0
	if total > 0 {
		score = float64(correct) / float64(total) * 100
	}

	result := domain.Result{
		QuizID:         normalized,
		OwnerID:        ownerID,
		Answers:        answers,
		Score:          score,
		CorrectCount:   correct,
		TotalQuestions: total,
		CompletedAt:    s.now().UTC(),
	}

	if err := s.records.Upsert(ctx, collectionResults, normalized, resultRecord{ID: normalized, Result: result}); err != nil {
		s.log.WithError(err).WithField("quiz_id", normalized).Warn("Result persistence failed, returning local result")
	}
	if err := s.records.Update(ctx, collectionQuizzes, normalized, map[string]any{
		"status": string(domain.QuizCompleted),
	}); err != nil {
		s.log.WithError(err).WithField("quiz_id", normalized).Warn("Quiz status update failed")
	}
	if out := s.mirror.PutResult(ctx, result); !out.OK() {
		s.log.WithField("key", out.Key).WithError(out.Err).Warn("Cache mirror write failed")
	}

	s.log.WithFields(logrus.Fields{
		"quiz_id": normalized,
		"score":   score,
		"correct": correct,
		"total":   total,
	}).Info("Quiz submission scored")
	return result, nil
}

// History lists the owner's quizzes newest first. When the remote list
// fails the cached index is paged locally instead.
func (s *QuizService) History(ctx context.Context, ownerID string, page, limit int) ([]domain.QuizSummary, error) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	q := ListQuery{
		OrderBy: "created_at",
		Desc:    true,
		Limit:   limit,
		Offset:  (page - 1) * limit,
	}
	if ownerID != "" {
		q.Filters = map[string]string{"owner_id": ownerID}
	}
	var quizzes []domain.Quiz
	if err := s.records.List(ctx, collectionQuizzes, q, &quizzes); err != nil {
		s.log.WithError(err).Warn("Remote quiz list failed, serving cached index")
		return pageOf(s.mirror.QuizList(ctx), page, limit), nil
	}

	summaries := make([]domain.QuizSummary, 0, len(quizzes))
	for _, quiz := range quizzes {
		summaries = append(summaries, quiz.Summary())
	}
	return summaries, nil
}

// Result returns the recorded submission for a quiz, remote first, then
// the cache under the normalized and original ids.
func (s *QuizService) Result(ctx context.Context, id string) (domain.Result, error) {
	original := strings.TrimSpace(id)
	if original == "" {
		return domain.Result{}, domain.Validationf("quiz id is required")
	}
	normalized := s.normalizeID(original)

	var rec resultRecord
	err := s.records.Get(ctx, collectionResults, normalized, &rec)
	if err == nil {
		return rec.Result, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		s.log.WithError(err).WithField("quiz_id", normalized).Warn("Remote result fetch failed, trying cache")
	}
	if cached, ok := s.mirror.GetResultAny(ctx, normalized, original); ok {
		return cached, nil
	}
	return domain.Result{}, fmt.Errorf("result %s: %w", normalized, domain.ErrNotFound)
}

// normalizeID reduces the caller's id spelling to its canonical form. An id
// with no recoverable UUID is warned about but still used: the lookup will
// miss both tiers and surface as not found rather than a crash.
func (s *QuizService) normalizeID(original string) string {
	normalized := ident.Normalize(original)
	if !ident.IsCanonical(normalized) {
		s.log.WithField("id", original).Warn("Identifier did not normalize to a canonical UUID")
	}
	return normalized
}

// load fetches the aggregate remote-first. Any remote failure falls back to
// the cache under both id spellings; only a miss in both tiers is an error.
func (s *QuizService) load(ctx context.Context, normalized, original string) (domain.Quiz, error) {
	quiz, err := s.loadRemote(ctx, normalized)
	if err == nil {
		if out := s.mirror.PutQuiz(ctx, quiz); !out.OK() {
			s.log.WithField("key", out.Key).WithError(out.Err).Warn("Cache mirror write failed")
		}
		return quiz, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		s.log.WithError(err).WithField("quiz_id", normalized).Warn("Remote quiz fetch failed, trying cache")
	}
	if cached, ok := s.mirror.GetQuizAny(ctx, normalized, original); ok {
		return cached, nil
	}
	return domain.Quiz{}, fmt.Errorf("quiz %s: %w", normalized, domain.ErrNotFound)
}

// loadRemote reassembles the aggregate from the quizzes, questions,
// quiz_questions, and options collections.
func (s *QuizService) loadRemote(ctx context.Context, id string) (domain.Quiz, error) {
	var quiz domain.Quiz
	if err := s.records.Get(ctx, collectionQuizzes, id, &quiz); err != nil {
		return domain.Quiz{}, err
	}

	var questions []domain.Question
	if err := s.records.List(ctx, collectionQuestions, ListQuery{
		Filters: map[string]string{"quiz_id": id},
	}, &questions); err != nil {
		return domain.Quiz{}, fmt.Errorf("load questions: %w", err)
	}

	var links []quizQuestionLink
	if err := s.records.List(ctx, collectionQuizQuestions, ListQuery{
		Filters: map[string]string{"quiz_id": id},
	}, &links); err != nil {
		return domain.Quiz{}, fmt.Errorf("load question order: %w", err)
	}
	position := make(map[string]int, len(links))
	for _, l := range links {
		position[l.QuestionID] = l.Position
	}
	sort.SliceStable(questions, func(i, j int) bool {
		return position[questions[i].ID] < position[questions[j].ID]
	})

	for i := range questions {
		var options []domain.Option
		if err := s.records.List(ctx, collectionOptions, ListQuery{
			Filters: map[string]string{"question_id": questions[i].ID},
			OrderBy: "identifier",
		}, &options); err != nil {
			return domain.Quiz{}, fmt.Errorf("load options: %w", err)
		}
		questions[i].Options = options
	}

	quiz.Questions = questions
	quiz.QuestionCount = len(questions)
	return quiz, nil
}

// optionMatches accepts either the option's id or its letter identifier, so
// submissions survive clients that echo the display letter back.
func optionMatches(opt domain.Option, submitted string) bool {
	return submitted == opt.ID || strings.EqualFold(submitted, opt.Identifier)
}

func pageOf[T any](list []T, page, limit int) []T {
	start := (page - 1) * limit
	if start >= len(list) {
		return []T{}
	}
	end := start + limit
	if end > len(list) {
		end = len(list)
	}
	return list[start:end]
}
