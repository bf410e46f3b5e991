// Package postgres implements the persistence capability against a
// self-hosted Postgres: one JSONB table per collection plus a blobs table.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"docquiz-service/internal/app"
	"docquiz-service/internal/domain"
)

// collections whitelists table names; everything else is rejected before it
// reaches SQL.
var collections = map[string]bool{
	"documents":      true,
	"quizzes":        true,
	"questions":      true,
	"options":        true,
	"quiz_questions": true,
	"results":        true,
}

var fieldPattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// Store reads and writes collection records and blobs through a pgx pool.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func tableFor(collection string) (string, error) {
	if !collections[collection] {
		return "", fmt.Errorf("unknown collection %q", collection)
	}
	return collection, nil
}

func (s *Store) Insert(ctx context.Context, collection, id string, record any) error {
	table, err := tableFor(collection)
	if err != nil {
		return err
	}
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode %s record: %w", collection, err)
	}
	tag, err := s.pool.Exec(ctx, `INSERT INTO `+table+` (id, data) VALUES ($1, $2) ON CONFLICT (id) DO NOTHING`, id, data)
	if err != nil {
		return fmt.Errorf("insert %s: %w", collection, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("insert %s %s: %w", collection, id, domain.ErrStorageConflict)
	}
	return nil
}

func (s *Store) Upsert(ctx context.Context, collection, id string, record any) error {
	table, err := tableFor(collection)
	if err != nil {
		return err
	}
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode %s record: %w", collection, err)
	}
	_, err = s.pool.Exec(ctx, `INSERT INTO `+table+` (id, data) VALUES ($1, $2) ON CONFLICT (id) DO UPDATE SET data = EXCLUDED.data`, id, data)
	if err != nil {
		return fmt.Errorf("upsert %s: %w", collection, err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, collection, id string, dest any) error {
	table, err := tableFor(collection)
	if err != nil {
		return err
	}
	var raw []byte
	err = s.pool.QueryRow(ctx, `SELECT data FROM `+table+` WHERE id=$1`, id).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("get %s %s: %w", collection, id, domain.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("get %s: %w", collection, err)
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("unmarshal %s: %w", collection, err)
	}
	return nil
}

func (s *Store) Update(ctx context.Context, collection, id string, patch map[string]any) error {
	table, err := tableFor(collection)
	if err != nil {
		return err
	}
	data, err := json.Marshal(patch)
	if err != nil {
		return fmt.Errorf("encode %s patch: %w", collection, err)
	}
	tag, err := s.pool.Exec(ctx, `UPDATE `+table+` SET data = data || $2 WHERE id=$1`, id, data)
	if err != nil {
		return fmt.Errorf("update %s: %w", collection, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update %s %s: %w", collection, id, domain.ErrNotFound)
	}
	return nil
}

func (s *Store) List(ctx context.Context, collection string, query app.ListQuery, dest any) error {
	table, err := tableFor(collection)
	if err != nil {
		return err
	}

	sql := `SELECT data FROM ` + table
	var args []any
	var conds []string

	fields := make([]string, 0, len(query.Filters))
	for field := range query.Filters {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	for _, field := range fields {
		if !fieldPattern.MatchString(field) {
			return fmt.Errorf("invalid filter field %q", field)
		}
		args = append(args, query.Filters[field])
		conds = append(conds, fmt.Sprintf("data->>'%s' = $%d", field, len(args)))
	}
	if len(conds) > 0 {
		sql += " WHERE " + strings.Join(conds, " AND ")
	}

	if query.OrderBy != "" {
		if !fieldPattern.MatchString(query.OrderBy) {
			return fmt.Errorf("invalid order field %q", query.OrderBy)
		}
		dir := " ASC"
		if query.Desc {
			dir = " DESC"
		}
		if query.OrderBy == "created_at" {
			sql += " ORDER BY created_at" + dir
		} else {
			sql += fmt.Sprintf(" ORDER BY data->>'%s'%s", query.OrderBy, dir)
		}
	}
	if query.Limit > 0 {
		sql += fmt.Sprintf(" LIMIT %d", query.Limit)
	}
	if query.Offset > 0 {
		sql += fmt.Sprintf(" OFFSET %d", query.Offset)
	}

	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("list %s: %w", collection, err)
	}
	defer rows.Close()

	out := make([]json.RawMessage, 0)
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return fmt.Errorf("scan %s row: %w", collection, err)
		}
		out = append(out, json.RawMessage(raw))
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("list %s: %w", collection, err)
	}

	blob, err := json.Marshal(out)
	if err != nil {
		return fmt.Errorf("encode %s rows: %w", collection, err)
	}
	if err := json.Unmarshal(blob, dest); err != nil {
		return fmt.Errorf("decode %s rows: %w", collection, err)
	}
	return nil
}

// Upload stores a blob. A second upload under the same key reports
// domain.ErrStorageConflict without touching the stored content.
func (s *Store) Upload(ctx context.Context, bucket, key string, content []byte, contentType string) error {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	tag, err := s.pool.Exec(ctx, `INSERT INTO blobs (bucket, key, content, content_type) VALUES ($1, $2, $3, $4) ON CONFLICT DO NOTHING`, bucket, key, content, contentType)
	if err != nil {
		return fmt.Errorf("upload blob: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("upload blob %s/%s: %w", bucket, key, domain.ErrStorageConflict)
	}
	return nil
}

func (s *Store) Download(ctx context.Context, bucket, key string) ([]byte, string, error) {
	var (
		content     []byte
		contentType string
	)
	err := s.pool.QueryRow(ctx, `SELECT content, content_type FROM blobs WHERE bucket=$1 AND key=$2`, bucket, key).Scan(&content, &contentType)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, "", fmt.Errorf("download blob %s/%s: %w", bucket, key, domain.ErrNotFound)
	}
	if err != nil {
		return nil, "", fmt.Errorf("download blob: %w", err)
	}
	return content, contentType, nil
}

// PublicURL returns "" since a self-hosted deployment exposes no public
// object endpoint.
func (s *Store) PublicURL(bucket, key string) string {
	return ""
}
