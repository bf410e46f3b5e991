package app

import "docquiz-service/internal/domain"

// Collection names in the remote store.
const (
	collectionDocuments     = "documents"
	collectionQuizzes       = "quizzes"
	collectionQuestions     = "questions"
	collectionOptions       = "options"
	collectionQuizQuestions = "quiz_questions"
	collectionResults       = "results"
)

// questionRecord is the questions-collection shape. Options live in their
// own collection, so the embedded slice from domain.Question is stripped.
type questionRecord struct {
	ID          string `json:"id"`
	QuizID      string `json:"quiz_id"`
	Text        string `json:"text"`
	Explanation string `json:"explanation,omitempty"`
	Difficulty  string `json:"difficulty,omitempty"`
}

// quizQuestionLink joins a quiz to one of its questions, position-indexed.
type quizQuestionLink struct {
	ID         string `json:"id"`
	QuizID     string `json:"quiz_id"`
	QuestionID string `json:"question_id"`
	Position   int    `json:"position"`
}

// resultRecord adds the primary key the results collection upserts on: the
// quiz id, one result per quiz.
type resultRecord struct {
	ID string `json:"id"`
	domain.Result
}
