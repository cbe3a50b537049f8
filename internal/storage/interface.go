package storage

import (
	"context"
	"io"
	"time"
)

// ObjectStore is the backend for product images.
// Presigned URLs let clients transfer bytes without going through the API handlers.
type ObjectStore interface {
	PresignUpload(ctx context.Context, key, contentType string, expiresIn time.Duration) (string, error)
	PresignDownload(ctx context.Context, key string, expiresIn time.Duration) (string, error)

	// Stat reports whether key exists and its size
	Stat(ctx context.Context, key string) (exists bool, size int64, err error)
	Delete(ctx context.Context, key string) error
}

// LocalStore is an ObjectStore whose presigned URLs are served by this process
type LocalStore interface {
	ObjectStore
	Save(key string, r io.Reader) error
	Open(key string) (io.ReadCloser, error)
}
