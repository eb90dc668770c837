package upload

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/yanqian/weatherlens/internal/domain/job"
)

// DiskStore writes uploads into a local directory.
type DiskStore struct {
	dir    string
	logger *slog.Logger
}

// NewDiskStore creates dir when missing.
func NewDiskStore(dir string, logger *slog.Logger) (*DiskStore, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("upload directory cannot be empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &DiskStore{dir: dir, logger: logger.With("component", "upload.disk")}, nil
}

// Put writes data to a new file named key.
func (s *DiskStore) Put(_ context.Context, key string, data []byte, mimeType string) (job.StoredObject, error) {
	path, err := s.path(key)
	if err != nil {
		return job.StoredObject{}, err
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return job.StoredObject{}, fmt.Errorf("create upload: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		_ = os.Remove(path)
		return job.StoredObject{}, fmt.Errorf("write upload: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return job.StoredObject{}, fmt.Errorf("close upload: %w", err)
	}
	hash := md5.Sum(data)
	return job.StoredObject{
		Key:      key,
		Size:     int64(len(data)),
		MimeType: mimeType,
		ETag:     hex.EncodeToString(hash[:]),
	}, nil
}

// Get opens the stored file.
func (s *DiskStore) Get(_ context.Context, key string) (io.ReadCloser, error) {
	path, err := s.path(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	return f, nil
}

// Delete removes the file. Missing files are not an error.
func (s *DiskStore) Delete(_ context.Context, key string) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove upload: %w", err)
	}
	return nil
}

func (s *DiskStore) path(key string) (string, error) {
	if key == "" || key != filepath.Base(key) || key == "." || key == ".." {
		return "", fmt.Errorf("invalid upload key %q", key)
	}
	return filepath.Join(s.dir, key), nil
}

var _ job.UploadStore = (*DiskStore)(nil)
