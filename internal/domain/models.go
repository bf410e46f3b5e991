package domain

import "time"

// DocumentStatus tracks a document through the ingestion pipeline.
type DocumentStatus string

const (
	DocumentUploading DocumentStatus = "uploading"
	DocumentCompleted DocumentStatus = "completed"
	DocumentError     DocumentStatus = "error"
)

// QuizStatus tracks a quiz through generation.
type QuizStatus string

const (
	QuizInProgress QuizStatus = "in_progress"
	QuizCompleted  QuizStatus = "completed"
	QuizError      QuizStatus = "error"
)

// Document is the metadata record for an uploaded study document.
// Immutable once its status reaches "completed".
type Document struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	FileName    string         `json:"file_name"`
	StoragePath string         `json:"storage_path"`
	MimeType    string         `json:"mime_type"`
	ByteSize    int64          `json:"byte_size"`
	PageCount   int            `json:"page_count,omitempty"`
	SourceText  string         `json:"source_text,omitempty"`
	Status      DocumentStatus `json:"status"`
	ErrorMsg    string         `json:"error_message,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	OwnerID     string         `json:"owner_id"`
}

// Option is a single answer choice. Identifier is the display letter ("A".."D").
type Option struct {
	ID         string `json:"id"`
	QuestionID string `json:"question_id"`
	Identifier string `json:"identifier"`
	Text       string `json:"text"`
	IsCorrect  bool   `json:"is_correct"`
}

// Question models an MCQ question with exactly one correct option.
type Question struct {
	ID          string   `json:"id"`
	QuizID      string   `json:"quiz_id"`
	Text        string   `json:"text"`
	Explanation string   `json:"explanation,omitempty"`
	Difficulty  string   `json:"difficulty,omitempty"`
	Options     []Option `json:"options"`
}

// CorrectOption returns the option flagged correct, if any.
func (q Question) CorrectOption() (Option, bool) {
	for _, opt := range q.Options {
		if opt.IsCorrect {
			return opt, true
		}
	}
	return Option{}, false
}

// Quiz is the aggregate handed to callers. DocumentID is empty on a
// fallback quiz whose source document never materialized. ErrorMsg is
// non-empty exactly when Status is "error".
type Quiz struct {
	ID            string     `json:"id"`
	Title         string     `json:"title"`
	DocumentID    string     `json:"document_id,omitempty"`
	Status        QuizStatus `json:"status"`
	ErrorMsg      string     `json:"error_message,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	OwnerID       string     `json:"owner_id"`
	QuestionCount int        `json:"question_count"`
	Questions     []Question `json:"questions,omitempty"`
}

// Summary flattens a quiz into an index-list entry.
func (q Quiz) Summary() QuizSummary {
	return QuizSummary{
		ID:            q.ID,
		Title:         q.Title,
		Status:        q.Status,
		QuestionCount: q.QuestionCount,
		CreatedAt:     q.CreatedAt,
	}
}

// QuizSummary is the lightweight view kept in history listings and
// cache index lists.
type QuizSummary struct {
	ID            string     `json:"id"`
	Title         string     `json:"title"`
	Status        QuizStatus `json:"status"`
	QuestionCount int        `json:"question_count"`
	CreatedAt     time.Time  `json:"created_at"`
}

// Summary flattens a document into an index-list entry.
func (d Document) Summary() DocumentSummary {
	return DocumentSummary{
		ID:        d.ID,
		Title:     d.Title,
		FileName:  d.FileName,
		Status:    d.Status,
		CreatedAt: d.CreatedAt,
	}
}

// DocumentSummary is the document counterpart for history listings.
type DocumentSummary struct {
	ID        string         `json:"id"`
	Title     string         `json:"title"`
	FileName  string         `json:"file_name"`
	Status    DocumentStatus `json:"status"`
	CreatedAt time.Time      `json:"created_at"`
}

// Result records one scored submission. There is at most one per quiz;
// resubmitting overwrites it.
type Result struct {
	QuizID         string            `json:"quiz_id"`
	OwnerID        string            `json:"owner_id"`
	Answers        map[string]string `json:"answers"`
	Score          float64           `json:"score"`
	CorrectCount   int               `json:"correct_count"`
	TotalQuestions int               `json:"total_questions"`
	CompletedAt    time.Time         `json:"completed_at"`
}
