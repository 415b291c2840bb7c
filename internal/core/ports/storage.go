// internal/core/ports/storage.go
package ports

import (
	"context"
	"io"
	"time"
)

// ObjectStorage is the blob store reports are written to
type ObjectStorage interface {
	Upload(ctx context.Context, key string, data io.Reader, contentType string) (string, error)
	GetPresignedURL(ctx context.Context, key string, duration time.Duration) (string, error)
	List(ctx context.Context, prefix string) ([]string, error)
	DeleteMultiple(ctx context.Context, keys []string) error
}
