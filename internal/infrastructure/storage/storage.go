package storage

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("object not found")

// Store keeps generated documents (certificate PDFs) and user uploads.
type Store interface {
	Put(ctx context.Context, key string, body []byte, contentType string) error
	Get(ctx context.Context, key string) ([]byte, error)
	// SignedURL returns a time-limited download link, or "" when the store cannot serve links.
	SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)
}

// UploadSigner is implemented by stores that let clients upload directly.
type UploadSigner interface {
	SignedUploadURL(ctx context.Context, key, contentType string, ttl time.Duration) (string, error)
}
