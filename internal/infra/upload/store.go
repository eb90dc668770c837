package upload

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/yanqian/weatherlens/internal/domain/job"
)

// Backend names accepted by New.
const (
	BackendDisk   = "disk"
	BackendMemory = "memory"
	BackendS3     = "s3"
)

// Config selects and configures an upload backend.
type Config struct {
	Backend string
	Dir     string
	S3      S3Config
}

// New builds the configured backend.
func New(ctx context.Context, cfg Config, logger *slog.Logger) (job.UploadStore, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "", BackendDisk:
		return NewDiskStore(cfg.Dir, logger)
	case BackendMemory:
		return NewMemoryStore(), nil
	case BackendS3, "r2":
		store, err := NewS3Store(cfg.S3, logger)
		if err != nil {
			return nil, err
		}
		if err := store.EnsureBucket(ctx); err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown upload backend %q", cfg.Backend)
	}
}
