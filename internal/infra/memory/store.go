package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"docquiz-service/internal/app"
	"docquiz-service/internal/domain"
)

type blobEntry struct {
	content     []byte
	contentType string
}

// Store keeps collection records and blobs in maps. It mirrors the conflict
// and not-found semantics of the real persistence tiers so services behave
// identically against it.
type Store struct {
	mu     sync.RWMutex
	tables map[string]map[string]json.RawMessage
	blobs  map[string]blobEntry
}

func NewStore() *Store {
	return &Store{
		tables: make(map[string]map[string]json.RawMessage),
		blobs:  make(map[string]blobEntry),
	}
}

func (s *Store) table(collection string) map[string]json.RawMessage {
	t, ok := s.tables[collection]
	if !ok {
		t = make(map[string]json.RawMessage)
		s.tables[collection] = t
	}
	return t
}

func (s *Store) Insert(_ context.Context, collection, id string, record any) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode %s record: %w", collection, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.table(collection)
	if _, exists := t[id]; exists {
		return fmt.Errorf("insert %s %s: %w", collection, id, domain.ErrStorageConflict)
	}
	t[id] = data
	return nil
}

func (s *Store) Upsert(_ context.Context, collection, id string, record any) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode %s record: %w", collection, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.table(collection)[id] = data
	return nil
}

func (s *Store) Get(_ context.Context, collection, id string, dest any) error {
	s.mu.RLock()
	raw, ok := s.tables[collection][id]
	s.mu.RUnlock()
	if !ok {
		return fmt.Errorf("get %s %s: %w", collection, id, domain.ErrNotFound)
	}
	return json.Unmarshal(raw, dest)
}

func (s *Store) Update(_ context.Context, collection, id string, patch map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.table(collection)
	raw, ok := t[id]
	if !ok {
		return fmt.Errorf("update %s %s: %w", collection, id, domain.ErrNotFound)
	}
	var record map[string]any
	if err := json.Unmarshal(raw, &record); err != nil {
		return fmt.Errorf("decode %s record: %w", collection, err)
	}
	for k, v := range patch {
		record[k] = v
	}
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode %s record: %w", collection, err)
	}
	t[id] = data
	return nil
}

func (s *Store) List(_ context.Context, collection string, query app.ListQuery, dest any) error {
	s.mu.RLock()
	rows := make([]map[string]any, 0)
	for _, raw := range s.tables[collection] {
		var record map[string]any
		if err := json.Unmarshal(raw, &record); err != nil {
			s.mu.RUnlock()
			return fmt.Errorf("decode %s record: %w", collection, err)
		}
		rows = append(rows, record)
	}
	s.mu.RUnlock()

	filtered := rows[:0]
	for _, record := range rows {
		if matches(record, query.Filters) {
			filtered = append(filtered, record)
		}
	}

	if query.OrderBy != "" {
		field := query.OrderBy
		sort.SliceStable(filtered, func(i, j int) bool {
			a := fmt.Sprint(filtered[i][field])
			b := fmt.Sprint(filtered[j][field])
			if query.Desc {
				return a > b
			}
			return a < b
		})
	}

	if query.Offset > 0 {
		if query.Offset >= len(filtered) {
			filtered = nil
		} else {
			filtered = filtered[query.Offset:]
		}
	}
	if query.Limit > 0 && len(filtered) > query.Limit {
		filtered = filtered[:query.Limit]
	}

	blob, err := json.Marshal(filtered)
	if err != nil {
		return fmt.Errorf("encode %s rows: %w", collection, err)
	}
	if err := json.Unmarshal(blob, dest); err != nil {
		return fmt.Errorf("decode %s rows: %w", collection, err)
	}
	return nil
}

func matches(record map[string]any, filters map[string]string) bool {
	for field, want := range filters {
		val, ok := record[field]
		if !ok || fmt.Sprint(val) != want {
			return false
		}
	}
	return true
}

func (s *Store) Upload(_ context.Context, bucket, key string, content []byte, contentType string) error {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	bk := bucket + "/" + key
	if _, exists := s.blobs[bk]; exists {
		return fmt.Errorf("upload blob %s: %w", bk, domain.ErrStorageConflict)
	}
	s.blobs[bk] = blobEntry{content: append([]byte(nil), content...), contentType: contentType}
	return nil
}

func (s *Store) Download(_ context.Context, bucket, key string) ([]byte, string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	bk := bucket + "/" + key
	entry, ok := s.blobs[bk]
	if !ok {
		return nil, "", fmt.Errorf("download blob %s: %w", bk, domain.ErrNotFound)
	}
	return append([]byte(nil), entry.content...), entry.contentType, nil
}

func (s *Store) PublicURL(bucket, key string) string {
	return "memory://" + bucket + "/" + key
}
