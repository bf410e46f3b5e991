package app

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/sirupsen/logrus"

	"docquiz-service/internal/domain"
)

const documentsBucket = "documents"

var nonAlnum = regexp.MustCompile(`[^a-zA-Z0-9]+`)

// IngestMeta carries the caller-supplied facts about an uploaded file.
// Everything except FileName is optional.
type IngestMeta struct {
	Title      string
	FileName   string
	MimeType   string
	SourceText string
	OwnerID    string
}

// IngestService stores uploaded source files and registers them as documents.
type IngestService struct {
	records RecordStore
	blobs   BlobStore
	mirror  *Mirror
	bucket  string
	log     logrus.FieldLogger
	now     func() time.Time
}

// NewIngestService builds the service. An empty bucket falls back to the
// default documents bucket.
func NewIngestService(records RecordStore, blobs BlobStore, mirror *Mirror, bucket string, log logrus.FieldLogger) *IngestService {
	return NewIngestServiceWithClock(records, blobs, mirror, bucket, log, time.Now)
}

// NewIngestServiceWithClock is used by tests to control timestamps.
func NewIngestServiceWithClock(records RecordStore, blobs BlobStore, mirror *Mirror, bucket string, log logrus.FieldLogger, now func() time.Time) *IngestService {
	if bucket == "" {
		bucket = documentsBucket
	}
	return &IngestService{
		records: records,
		blobs:   blobs,
		mirror:  mirror,
		bucket:  bucket,
		log:     log,
		now:     now,
	}
}

// Ingest uploads the file content, validates it, and creates the document
// record. PDF content must parse as a PDF; other types are stored as-is.
func (s *IngestService) Ingest(ctx context.Context, content []byte, meta IngestMeta) (domain.Document, error) {
	if len(content) == 0 {
		return domain.Document{}, domain.Validationf("file content is empty")
	}
	fileName := strings.TrimSpace(meta.FileName)
	if fileName == "" {
		return domain.Document{}, domain.Validationf("file name is required")
	}

	mimeType := meta.MimeType
	if mimeType == "" {
		mimeType = http.DetectContentType(content)
	}

	pageCount := 0
	if isPDF(mimeType, fileName) {
		n, err := countPages(content)
		if err != nil {
			return domain.Document{}, domain.Validationf("file is not a readable PDF: %v", err)
		}
		pageCount = n
	}

	now := s.now().UTC()
	key := storageKey(fileName, now, false)
	err := s.blobs.Upload(ctx, s.bucket, key, content, mimeType)
	if errors.Is(err, domain.ErrStorageConflict) {
		s.log.WithField("key", key).Warn("Storage key already taken, retrying with a new key")
		key = storageKey(fileName, now, true)
		err = s.blobs.Upload(ctx, s.bucket, key, content, mimeType)
	}
	if err != nil {
		return domain.Document{}, fmt.Errorf("upload %q: %w", fileName, err)
	}

	doc := domain.Document{
		ID:          uuid.NewString(),
		Title:       documentTitle(meta.Title, fileName),
		FileName:    fileName,
		StoragePath: s.bucket + "/" + key,
		MimeType:    mimeType,
		ByteSize:    int64(len(content)),
		PageCount:   pageCount,
		SourceText:  sourceText(meta.SourceText, mimeType, content),
		Status:      domain.DocumentCompleted,
		CreatedAt:   now,
		OwnerID:     meta.OwnerID,
	}
	if err := s.records.Insert(ctx, collectionDocuments, doc.ID, doc); err != nil {
		return domain.Document{}, &domain.PersistenceError{Op: "create document record", Err: err}
	}
	if out := s.mirror.PutDocument(ctx, doc); !out.OK() {
		s.log.WithField("key", out.Key).WithError(out.Err).Warn("Cache mirror write failed")
	}

	s.log.WithFields(logrus.Fields{
		"document_id": doc.ID,
		"file_name":   fileName,
		"bytes":       doc.ByteSize,
	}).Info("Document ingested")
	return doc, nil
}

// History lists the owner's documents newest first. When the remote list
// fails the cached index is paged locally instead.
func (s *IngestService) History(ctx context.Context, ownerID string, page, limit int) ([]domain.DocumentSummary, error) {
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
	var docs []domain.Document
	if err := s.records.List(ctx, collectionDocuments, q, &docs); err != nil {
		s.log.WithError(err).Warn("Remote document list failed, serving cached index")
		return pageOf(s.mirror.DocumentHistory(ctx), page, limit), nil
	}

	summaries := make([]domain.DocumentSummary, 0, len(docs))
	for _, doc := range docs {
		summaries = append(summaries, doc.Summary())
	}
	return summaries, nil
}

// storageKey builds a timestamped, sanitized object key. The retry form is
// used once, after a conflict on the primary key.
func storageKey(fileName string, ts time.Time, retry bool) string {
	ext := strings.TrimPrefix(filepath.Ext(fileName), ".")
	base := strings.TrimSuffix(fileName, filepath.Ext(fileName))
	base = nonAlnum.ReplaceAllString(base, "_")
	base = strings.Trim(base, "_")
	if base == "" {
		base = "file"
	}
	if retry {
		base += "_retry"
	}
	if ext == "" {
		return fmt.Sprintf("%d_%s", ts.Unix(), base)
	}
	return fmt.Sprintf("%d_%s.%s", ts.Unix(), base, strings.ToLower(ext))
}

func documentTitle(title, fileName string) string {
	if t := strings.TrimSpace(title); t != "" {
		return t
	}
	base := strings.TrimSuffix(fileName, filepath.Ext(fileName))
	if base == "" {
		return fileName
	}
	return base
}

func isPDF(mimeType, fileName string) bool {
	if strings.Contains(mimeType, "pdf") {
		return true
	}
	return strings.EqualFold(filepath.Ext(fileName), ".pdf")
}

func countPages(content []byte) (int, error) {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return api.PageCount(bytes.NewReader(content), conf)
}

// sourceText keeps caller-supplied text when present. Plain-text uploads
// fall back to the raw bytes, so generation has something to work with.
func sourceText(supplied, mimeType string, content []byte) string {
	if supplied != "" {
		return supplied
	}
	if strings.HasPrefix(mimeType, "text/") {
		return string(content)
	}
	return ""
}
