package rest

import (
	"context"
	"net/http"
)

const storagePrefix = "/storage/v1/object/"

// BlobStore implements binary object storage over the hosted API. Keys are
// expected to be pre-sanitized by the caller.
type BlobStore struct {
	client *Client
}

func NewBlobStore(client *Client) *BlobStore {
	return &BlobStore{client: client}
}

// Upload stores content under bucket/key. A key collision surfaces as
// domain.ErrStorageConflict so the caller can rekey.
func (s *BlobStore) Upload(ctx context.Context, bucket, key string, content []byte, contentType string) error {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	_, _, err := s.client.do(ctx, "upload blob", http.MethodPost, storagePrefix+bucket+"/"+key, map[string]string{
		"Content-Type": contentType,
	}, content)
	return err
}

func (s *BlobStore) Download(ctx context.Context, bucket, key string) ([]byte, string, error) {
	return s.client.do(ctx, "download blob", http.MethodGet, storagePrefix+bucket+"/"+key, nil, nil)
}

// PublicURL returns the unauthenticated URL for a stored object.
func (s *BlobStore) PublicURL(bucket, key string) string {
	return s.client.baseURL + storagePrefix + "public/" + bucket + "/" + key
}
