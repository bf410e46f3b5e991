package rest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"docquiz-service/internal/app"
	"docquiz-service/internal/domain"
)

const recordsPrefix = "/rest/v1/"

// RecordStore implements record CRUD over the hosted API's collection
// endpoints.
type RecordStore struct {
	client *Client
}

func NewRecordStore(client *Client) *RecordStore {
	return &RecordStore{client: client}
}

func (s *RecordStore) Insert(ctx context.Context, collection, id string, record any) error {
	body, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode %s record: %w", collection, err)
	}
	_, _, err = s.client.do(ctx, "insert "+collection, http.MethodPost, recordsPrefix+collection, map[string]string{
		"Content-Type": "application/json",
		"Prefer":       "return=minimal",
	}, body)
	return err
}

func (s *RecordStore) Upsert(ctx context.Context, collection, id string, record any) error {
	body, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode %s record: %w", collection, err)
	}
	_, _, err = s.client.do(ctx, "upsert "+collection, http.MethodPost, recordsPrefix+collection, map[string]string{
		"Content-Type": "application/json",
		"Prefer":       "resolution=merge-duplicates,return=minimal",
	}, body)
	return err
}

func (s *RecordStore) Get(ctx context.Context, collection, id string, dest any) error {
	q := url.Values{}
	q.Set("id", "eq."+id)
	q.Set("limit", "1")

	data, _, err := s.client.do(ctx, "get "+collection, http.MethodGet, recordsPrefix+collection+"?"+q.Encode(), nil, nil)
	if err != nil {
		return err
	}

	var rows []json.RawMessage
	if err := json.Unmarshal(data, &rows); err != nil {
		return fmt.Errorf("decode %s response: %w", collection, err)
	}
	if len(rows) == 0 {
		return fmt.Errorf("get %s %s: %w", collection, id, domain.ErrNotFound)
	}
	return json.Unmarshal(rows[0], dest)
}

func (s *RecordStore) Update(ctx context.Context, collection, id string, patch map[string]any) error {
	body, err := json.Marshal(patch)
	if err != nil {
		return fmt.Errorf("encode %s patch: %w", collection, err)
	}
	q := url.Values{}
	q.Set("id", "eq."+id)

	_, _, err = s.client.do(ctx, "update "+collection, http.MethodPatch, recordsPrefix+collection+"?"+q.Encode(), map[string]string{
		"Content-Type": "application/json",
		"Prefer":       "return=minimal",
	}, body)
	return err
}

// List fetches records matching the query. dest must be a pointer to a
// slice of the collection's record type.
func (s *RecordStore) List(ctx context.Context, collection string, query app.ListQuery, dest any) error {
	q := url.Values{}
	for field, value := range query.Filters {
		q.Set(field, "eq."+value)
	}
	if query.OrderBy != "" {
		dir := "asc"
		if query.Desc {
			dir = "desc"
		}
		q.Set("order", query.OrderBy+"."+dir)
	}
	if query.Limit > 0 {
		q.Set("limit", strconv.Itoa(query.Limit))
	}
	if query.Offset > 0 {
		q.Set("offset", strconv.Itoa(query.Offset))
	}

	path := recordsPrefix + collection
	if encoded := q.Encode(); encoded != "" {
		path += "?" + encoded
	}

	data, _, err := s.client.do(ctx, "list "+collection, http.MethodGet, path, nil, nil)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("decode %s response: %w", collection, err)
	}
	return nil
}
