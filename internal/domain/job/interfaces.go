package job

import (
	"context"
	"io"
)

// UploadStore abstracts temporary blob storage (local disk, memory, R2/S3).
type UploadStore interface {
	Put(ctx context.Context, key string, data []byte, mimeType string) (StoredObject, error)
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

// StoredObject captures persisted blob metadata.
type StoredObject struct {
	Key      string
	Size     int64
	MimeType string
	ETag     string
}

// ImagePreparer sniffs and resizes uploaded images before they are sent to
// the image model. Fit reports images it refuses to handle with an
// invalid_input AppError; any other error leaves the image as uploaded.
type ImagePreparer interface {
	DetectMIME(data []byte, declared string) string
	Fit(data []byte, mimeType string) ([]byte, string, error)
}
