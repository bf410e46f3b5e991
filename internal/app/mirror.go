package app

import (
	"context"
	"encoding/json"

	"docquiz-service/internal/domain"
)

const (
	quizListKey        = "quizList"
	documentHistoryKey = "documentHistory"
)

func quizKey(id string) string     { return "quiz_" + id }
func documentKey(id string) string { return "document_" + id }
func resultsKey(id string) string  { return "results_" + id }

// CacheWriteOutcome reports a mirror write without entering the caller's
// error flow. The cache is an optimization; callers log failed outcomes and
// move on.
type CacheWriteOutcome struct {
	Key string
	Err error
}

func (o CacheWriteOutcome) OK() bool { return o.Err == nil }

// Mirror copies aggregates into the local cache and serves them back when
// the remote tier is unreachable. Reads treat every failure as a miss.
type Mirror struct {
	cache CacheStore
}

func NewMirror(cache CacheStore) *Mirror {
	return &Mirror{cache: cache}
}

// PutQuiz stores the aggregate and refreshes the quizList index.
func (m *Mirror) PutQuiz(ctx context.Context, quiz domain.Quiz) CacheWriteOutcome {
	if out := m.put(ctx, quizKey(quiz.ID), quiz); !out.OK() {
		return out
	}
	return m.upsertQuizIndex(ctx, quiz.Summary())
}

// GetQuizAny returns the first hit among ids: the normalized id first, then
// the caller's original spelling for entries written before keying was
// unified.
func (m *Mirror) GetQuizAny(ctx context.Context, ids ...string) (domain.Quiz, bool) {
	for _, id := range ids {
		if id == "" {
			continue
		}
		var quiz domain.Quiz
		if m.get(ctx, quizKey(id), &quiz) {
			return quiz, true
		}
	}
	return domain.Quiz{}, false
}

// PutDocument stores the record and refreshes the documentHistory index.
func (m *Mirror) PutDocument(ctx context.Context, doc domain.Document) CacheWriteOutcome {
	if out := m.put(ctx, documentKey(doc.ID), doc); !out.OK() {
		return out
	}
	return m.upsertDocumentIndex(ctx, doc.Summary())
}

func (m *Mirror) GetDocument(ctx context.Context, id string) (domain.Document, bool) {
	var doc domain.Document
	ok := m.get(ctx, documentKey(id), &doc)
	return doc, ok
}

// PutResult stores a submission result keyed by the quiz id.
func (m *Mirror) PutResult(ctx context.Context, result domain.Result) CacheWriteOutcome {
	return m.put(ctx, resultsKey(result.QuizID), result)
}

func (m *Mirror) GetResultAny(ctx context.Context, ids ...string) (domain.Result, bool) {
	for _, id := range ids {
		if id == "" {
			continue
		}
		var result domain.Result
		if m.get(ctx, resultsKey(id), &result) {
			return result, true
		}
	}
	return domain.Result{}, false
}

// QuizList returns the cached index, most recent first.
func (m *Mirror) QuizList(ctx context.Context) []domain.QuizSummary {
	var list []domain.QuizSummary
	m.get(ctx, quizListKey, &list)
	return list
}

// DocumentHistory returns the cached index, most recent first.
func (m *Mirror) DocumentHistory(ctx context.Context) []domain.DocumentSummary {
	var list []domain.DocumentSummary
	m.get(ctx, documentHistoryKey, &list)
	return list
}

// upsertQuizIndex moves or inserts the summary at the front, deduplicated
// by id.
func (m *Mirror) upsertQuizIndex(ctx context.Context, s domain.QuizSummary) CacheWriteOutcome {
	var list []domain.QuizSummary
	m.get(ctx, quizListKey, &list)

	next := make([]domain.QuizSummary, 0, len(list)+1)
	next = append(next, s)
	for _, e := range list {
		if e.ID != s.ID {
			next = append(next, e)
		}
	}
	return m.put(ctx, quizListKey, next)
}

func (m *Mirror) upsertDocumentIndex(ctx context.Context, s domain.DocumentSummary) CacheWriteOutcome {
	var list []domain.DocumentSummary
	m.get(ctx, documentHistoryKey, &list)

	next := make([]domain.DocumentSummary, 0, len(list)+1)
	next = append(next, s)
	for _, e := range list {
		if e.ID != s.ID {
			next = append(next, e)
		}
	}
	return m.put(ctx, documentHistoryKey, next)
}

func (m *Mirror) put(ctx context.Context, key string, value any) CacheWriteOutcome {
	data, err := json.Marshal(value)
	if err != nil {
		return CacheWriteOutcome{Key: key, Err: err}
	}
	if err := m.cache.SetItem(ctx, key, string(data)); err != nil {
		return CacheWriteOutcome{Key: key, Err: err}
	}
	return CacheWriteOutcome{Key: key}
}

func (m *Mirror) get(ctx context.Context, key string, dest any) bool {
	raw, err := m.cache.GetItem(ctx, key)
	if err != nil {
		return false
	}
	return json.Unmarshal([]byte(raw), dest) == nil
}
