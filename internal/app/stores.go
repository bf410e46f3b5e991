package app

import (
	"context"

	"docquiz-service/internal/ai"
)

// RecordStore abstracts named-collection record CRUD against the remote
// source of truth (hosted REST tier or direct Postgres).
type RecordStore interface {
	Insert(ctx context.Context, collection, id string, record any) error
	Upsert(ctx context.Context, collection, id string, record any) error
	Get(ctx context.Context, collection, id string, dest any) error
	Update(ctx context.Context, collection, id string, patch map[string]any) error
	List(ctx context.Context, collection string, q ListQuery, dest any) error
}

// ListQuery narrows a List call. Filters are equality matches on record
// fields. Limit 0 means no limit.
type ListQuery struct {
	Filters map[string]string
	OrderBy string
	Desc    bool
	Limit   int
	Offset  int
}

// BlobStore abstracts binary object storage (uploaded source documents).
type BlobStore interface {
	Upload(ctx context.Context, bucket, key string, content []byte, contentType string) error
	Download(ctx context.Context, bucket, key string) ([]byte, string, error)
	PublicURL(bucket, key string) string
}

// CacheStore is the string-keyed local cache capability. Missing keys
// return domain.ErrCacheMiss.
type CacheStore interface {
	GetItem(ctx context.Context, key string) (string, error)
	SetItem(ctx context.Context, key, value string) error
	RemoveItem(ctx context.Context, key string) error
}

// QuestionGenerator is the AI generation capability. Treated as an opaque,
// possibly-slow, possibly-failing black box.
type QuestionGenerator interface {
	Generate(ctx context.Context, sourceText string, opts ai.GenerateOptions) ([]ai.Candidate, error)
}
